package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/stretchr/testify/require"
)

type TestProcessor struct {
	mu    sync.Mutex
	count int
	ids   map[string]int

	// messages with this type fail every time
	failing dao.EventType
	err     error
}

func (p *TestProcessor) Process(m Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.count++
	p.ids[m.ID]++

	if m.Event.Type == p.failing {
		return p.err
	}

	return nil
}

func (p *TestProcessor) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.count
}

type TestMessager struct {
	mu   sync.Mutex
	errs []error
}

func (m *TestMessager) NotifyError(ctx context.Context, errorMessage error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errs = append(m.errs, errorMessage)
	return nil
}

func run(t *testing.T, q *Service, p *TestProcessor, expected int) {
	done := make(chan error)
	go func() {
		done <- q.Start(p)
	}()

	require.Eventually(t, func() bool {
		return p.Count() >= expected
	}, 10*time.Second, 10*time.Millisecond)

	q.Close()
	require.NoError(t, <-done)
	require.Equal(t, expected, p.Count())
}

func TestProcessMessages(t *testing.T) {
	t.Run("delivers every event once", func(t *testing.T) {
		m := &TestMessager{}
		q := NewService(3, 10, context.Background(), m)
		p := &TestProcessor{ids: map[string]int{}, failing: "none"}

		for i := 0; i < 5; i++ {
			q.Notify(dao.Event{Type: dao.EventVoteCast, ProposalID: uint64(i + 1)})
		}

		run(t, q, p, 5)

		require.Len(t, p.ids, 5)
		require.Empty(t, m.errs)
	})

	t.Run("retries a failing event then reports it", func(t *testing.T) {
		expectedErr := errors.New("webhook down")

		m := &TestMessager{}
		q := NewService(1, 10, context.Background(), m)
		p := &TestProcessor{ids: map[string]int{}, failing: dao.EventExecutionReverted, err: expectedErr}

		q.Notify(dao.Event{Type: dao.EventProposalCreated})
		q.Notify(dao.Event{Type: dao.EventExecutionReverted})

		// one success, one failure and its single retry
		run(t, q, p, 3)

		require.Equal(t, []error{expectedErr}, m.errs)
	})
}

func TestEnqueueFull(t *testing.T) {
	m := &TestMessager{}
	q := NewService(0, 1, context.Background(), m)

	require.NoError(t, q.Enqueue(*NewMessage(dao.Event{})))
	require.ErrorIs(t, q.Enqueue(*NewMessage(dao.Event{})), ErrQueueFull)
	require.Equal(t, []error{ErrQueueFull}, m.errs)
}

func TestNewMessage(t *testing.T) {
	a := NewMessage(dao.Event{Type: dao.EventMemberJoined})
	b := NewMessage(dao.Event{Type: dao.EventMemberJoined})

	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, 0, a.RetryCount)
}
