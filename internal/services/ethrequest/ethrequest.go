package ethrequest

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	ETHChainID = "eth_chainId"
)

type EthService struct {
	rpc    *rpc.Client
	client *ethclient.Client
}

func NewEthService(ctx context.Context, endpoint string) (*EthService, error) {
	rpc, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	client := ethclient.NewClient(rpc)

	return &EthService{rpc, client}, nil
}

func (e *EthService) Close() {
	e.client.Close()
}

// LatestBlockTime returns the timestamp of the head of the chain
func (e *EthService) LatestBlockTime(ctx context.Context) (uint64, error) {
	h, err := e.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}

	return h.Time, nil
}

// LatestBlock returns the number of the head of the chain
func (e *EthService) LatestBlock(ctx context.Context) (*big.Int, error) {
	h, err := e.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Big0, err
	}

	return h.Number, nil
}

func (e *EthService) ChainID(ctx context.Context) (*big.Int, error) {
	var id string
	err := e.rpc.CallContext(ctx, &id, ETHChainID)
	if err != nil {
		return nil, err
	}

	chid, ok := big.NewInt(0).SetString(strip0x(id), 16)
	if !ok {
		return nil, errors.New("invalid chain id")
	}

	return chid, nil
}

func strip0x(h string) string {
	if len(h) > 2 && h[:2] == "0x" {
		return h[2:]
	}

	return h
}
