package block

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/optionstack/option-indexer/internal/adapter"
	"github.com/optionstack/option-indexer/internal/logger"
)

// HeadInfo represents the cached chain head
type HeadInfo struct {
	Number   uint64
	CachedAt time.Time
}

// HeadProvider provides cached access to the latest block number. It keeps
// the scan loop from hitting the RPC provider on every tick and lets a tick
// proceed on slightly stale data when the provider hiccups.
type HeadProvider interface {
	// GetLatestBlock returns the latest block number, potentially from cache
	GetLatestBlock(ctx context.Context) (uint64, error)
}

// HeadFetcher is the interface for fetching the latest block from the chain
type HeadFetcher interface {
	// FetchLatestBlock fetches the latest block number from the chain
	FetchLatestBlock(ctx context.Context) (uint64, error)
}

// Config holds configuration for the HeadProvider
type Config struct {
	// TTL is how long to cache the block number
	TTL time.Duration

	// StaleWindow is how long to keep serving stale data if fetching fails.
	// Past this window a failed fetch returns an error.
	StaleWindow time.Duration
}

// headProvider implements HeadProvider with TTL-based caching
type headProvider struct {
	fetcher HeadFetcher
	config  Config
	clock   adapter.Clock

	mu   sync.RWMutex
	head *HeadInfo
}

// NewHeadProvider creates a new HeadProvider with caching
func NewHeadProvider(fetcher HeadFetcher, config Config, clock adapter.Clock) HeadProvider {
	return &headProvider{
		fetcher: fetcher,
		config:  config,
		clock:   clock,
	}
}

// GetLatestBlock returns the latest block number, using cache if valid
func (p *headProvider) GetLatestBlock(ctx context.Context) (uint64, error) {
	p.mu.RLock()
	cached := p.head
	p.mu.RUnlock()

	now := p.clock.Now()

	if cached != nil && now.Sub(cached.CachedAt) < p.config.TTL {
		logger.DebugCtx(ctx, "Using cached chain head", zap.Uint64("block_number", cached.Number))
		return cached.Number, nil
	}

	blockNumber, err := p.fetcher.FetchLatestBlock(ctx)
	if err != nil {
		// fall back to stale cache within the stale window
		if cached != nil && now.Sub(cached.CachedAt) < p.config.StaleWindow {
			logger.WarnCtx(ctx, "Using stale chain head after fetch failure",
				zap.Uint64("block_number", cached.Number),
				zap.Error(err))
			return cached.Number, nil
		}
		return 0, fmt.Errorf("failed to fetch latest block and no valid cache available: %w", err)
	}

	p.mu.Lock()
	p.head = &HeadInfo{Number: blockNumber, CachedAt: now}
	p.mu.Unlock()

	return blockNumber, nil
}
