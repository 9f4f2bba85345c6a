package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/optionstack/option-indexer/internal/adapter"
	"github.com/optionstack/option-indexer/internal/domain"
)

// ChainClient is the boundary the indexer consumes from the chain: current
// height, logs for one event signature over a block range, and block
// timestamps. All calls are synchronous and fallible with no SLA.
type ChainClient interface {
	// LatestBlock returns the current chain height
	LatestBlock(ctx context.Context) (uint64, error)

	// FilterEventLogs fetches the logs a single event signature produced on
	// the contract over [fromBlock, toBlock]
	FilterEventLogs(ctx context.Context, eventSig common.Hash, fromBlock, toBlock uint64) ([]types.Log, error)

	// BlockTimestamp returns the timestamp of the given block
	BlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)

	// Close closes the underlying connection
	Close()
}

type chainClient struct {
	chainID  domain.Chain
	contract common.Address
	client   adapter.EthClient
	clock    adapter.Clock

	// block timestamps are immutable once confirmed, cache them forever
	timestamps map[uint64]time.Time
}

// NewChainClient creates a chain client scoped to one option contract
func NewChainClient(chainID domain.Chain, contractAddress string, client adapter.EthClient, clock adapter.Clock) ChainClient {
	return &chainClient{
		chainID:    chainID,
		contract:   common.HexToAddress(contractAddress),
		client:     client,
		clock:      clock,
		timestamps: make(map[uint64]time.Time),
	}
}

// LatestBlock returns the current chain height
func (c *chainClient) LatestBlock(ctx context.Context) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return header.Number.Uint64(), nil
}

// FilterEventLogs fetches logs for one event signature over a block range
func (c *chainClient) FilterEventLogs(ctx context.Context, eventSig common.Hash, fromBlock, toBlock uint64) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{c.contract},
		Topics:    [][]common.Hash{{eventSig}},
	}

	logs, err := c.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to filter logs for %s over %d-%d: %w", eventSig.Hex(), fromBlock, toBlock, err)
	}
	return logs, nil
}

// BlockTimestamp returns the timestamp of the given block, cached after the
// first fetch. Only the scanner goroutine calls this, so the map needs no lock.
func (c *chainClient) BlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	if ts, ok := c.timestamps[blockNumber]; ok {
		return ts, nil
	}

	block, err := c.client.BlockByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get block %d: %w", blockNumber, err)
	}

	ts := c.clock.Unix(int64(block.Time()), 0) //nolint:gosec,G115 // block.Time() returns a uint64 from geth which is safe to cast
	c.timestamps[blockNumber] = ts
	return ts, nil
}

// Close closes the connection
func (c *chainClient) Close() {
	c.client.Close()
}
