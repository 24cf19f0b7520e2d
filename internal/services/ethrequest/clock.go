package ethrequest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// BlockTimer reports the timestamp of the latest block
type BlockTimer interface {
	LatestBlockTime(ctx context.Context) (uint64, error)
}

// ChainClock tells time by the chain head so that voting windows follow block production.
// Reads are cached for ttl, when the node can't be reached the last known time is reported.
// A ChainClock is only handed out once it has read the head at least once.
type ChainClock struct {
	mu      sync.Mutex
	bt      BlockTimer
	ttl     time.Duration
	timeout time.Duration

	last    time.Time
	fetched time.Time
}

func NewChainClock(ctx context.Context, bt BlockTimer, ttl time.Duration) (*ChainClock, error) {
	c := &ChainClock{
		bt:      bt,
		ttl:     ttl,
		timeout: 5 * time.Second,
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ts, err := bt.LatestBlockTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading the chain head time: %w", err)
	}

	c.set(ts)

	return c, nil
}

func (c *ChainClock) set(ts uint64) {
	c.last = time.Unix(int64(ts), 0).UTC()
	c.fetched = time.Now()
}

func (c *ChainClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Since(c.fetched) < c.ttl {
		return c.last
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	ts, err := c.bt.LatestBlockTime(ctx)
	if err != nil {
		log.Default().Println("failed to fetch latest block time: ", err)
		return c.last
	}

	c.set(ts)

	return c.last
}
