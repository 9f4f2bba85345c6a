package ratelimit

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optionstack/option-indexer/internal/adapter"
)

type fakeEthClient struct {
	filterCalls int
	headerCalls int
	closed      bool
}

func (f *fakeEthClient) FilterLogs(_ context.Context, _ ethereum.FilterQuery) ([]types.Log, error) {
	f.filterCalls++
	return []types.Log{{BlockNumber: 1}}, nil
}

func (f *fakeEthClient) HeaderByNumber(_ context.Context, _ *big.Int) (*types.Header, error) {
	f.headerCalls++
	return &types.Header{Number: big.NewInt(100)}, nil
}

func (f *fakeEthClient) BlockByNumber(_ context.Context, _ *big.Int) (*types.Block, error) {
	return nil, nil
}

func (f *fakeEthClient) Close() {
	f.closed = true
}

var _ adapter.EthClient = (*fakeEthClient)(nil)

func TestCallsPassThrough(t *testing.T) {
	inner := &fakeEthClient{}
	client := NewEthClient(inner, 100, 10)
	ctx := context.Background()

	logs, err := client.FilterLogs(ctx, ethereum.FilterQuery{})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, 1, inner.filterCalls)

	header, err := client.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), header.Number)

	client.Close()
	assert.True(t, inner.closed)
}

func TestCanceledContextAbortsWait(t *testing.T) {
	inner := &fakeEthClient{}
	client := NewEthClient(inner, 100, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FilterLogs(ctx, ethereum.FilterQuery{})
	assert.Error(t, err)
	assert.Equal(t, 0, inner.filterCalls)
}

func TestExhaustedBudgetBlocksUntilDeadline(t *testing.T) {
	inner := &fakeEthClient{}
	// one request per minute with no burst headroom
	client := NewEthClient(inner, 1.0/60, 1)
	ctx := context.Background()

	_, err := client.HeaderByNumber(ctx, nil)
	require.NoError(t, err)

	deadlineCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()

	_, err = client.HeaderByNumber(deadlineCtx, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, inner.headerCalls)
}
