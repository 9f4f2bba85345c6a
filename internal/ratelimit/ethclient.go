package ratelimit

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/time/rate"

	"github.com/optionstack/option-indexer/internal/adapter"
)

// ethClient wraps an adapter.EthClient with a local token-bucket limiter so
// the scan loop stays under the RPC provider's request budget. Every call
// waits for a token first; context cancellation aborts the wait.
type ethClient struct {
	inner   adapter.EthClient
	limiter *rate.Limiter
}

// NewEthClient returns a rate-limited view of the given client. rps is the
// sustained requests-per-second budget, burst the momentary ceiling.
func NewEthClient(inner adapter.EthClient, rps float64, burst int) adapter.EthClient {
	if burst < 1 {
		burst = 1
	}
	return &ethClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *ethClient) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.FilterLogs(ctx, query)
}

func (c *ethClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.HeaderByNumber(ctx, number)
}

func (c *ethClient) BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.BlockByNumber(ctx, number)
}

func (c *ethClient) Close() {
	c.inner.Close()
}

func (c *ethClient) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}
