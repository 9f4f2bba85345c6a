package indexer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/optionstack/option-indexer/internal/adapter"
	"github.com/optionstack/option-indexer/internal/block"
	"github.com/optionstack/option-indexer/internal/domain"
	"github.com/optionstack/option-indexer/internal/logger"
	ethprovider "github.com/optionstack/option-indexer/internal/providers/ethereum"
)

// Config holds the scan loop configuration
type Config struct {
	ChainID domain.Chain

	// Interval between scan ticks
	Interval time.Duration

	// LookbackBlocks is how far below the boot-time chain head the cursors
	// start. History older than that window is not reconstructed.
	LookbackBlocks uint64
}

// State names the two scheduler states
type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
)

// Status is a point-in-time snapshot of the scan loop, surfaced on /health
type Status struct {
	State      State             `json:"state"`
	Cursors    map[string]uint64 `json:"cursors"`
	LastTickAt time.Time         `json:"last_tick_at"`
}

// Scanner is the single-flight periodic scan loop. Each tick fetches the
// log window since the last processed height for every tracked event
// signature, decodes, processes, and advances the cursors.
//
// Cursors are tracked per signature: a signature whose fetch failed keeps
// its cursor and retries the same window next tick, instead of the whole
// tick silently skipping past it.
type Scanner struct {
	config    Config
	chain     ethprovider.ChainClient
	head      block.HeadProvider
	processor *Processor
	clock     adapter.Clock

	// scanning is the Idle/Scanning single-flight guard; it is the only
	// synchronization the write path needs since ticks never overlap
	scanning atomic.Bool

	mu       sync.Mutex
	cursors  map[common.Hash]uint64
	lastTick time.Time
}

// NewScanner creates a scan scheduler. Cursors are initialized on the first
// tick from the chain head minus the configured lookback.
func NewScanner(cfg Config, chain ethprovider.ChainClient, head block.HeadProvider, processor *Processor, clock adapter.Clock) *Scanner {
	return &Scanner{
		config:    cfg,
		chain:     chain,
		head:      head,
		processor: processor,
		clock:     clock,
		cursors:   make(map[common.Hash]uint64),
	}
}

// Run ticks at the configured interval until the context is canceled. The
// first tick fires immediately.
func (s *Scanner) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting option event scanner",
		zap.String("chain", string(s.config.ChainID)),
		zap.Duration("interval", s.config.Interval),
		zap.Uint64("lookback_blocks", s.config.LookbackBlocks))

	s.Tick(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Scanner stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scan cycle. A tick arriving while the previous one is still
// scanning is a no-op.
func (s *Scanner) Tick(ctx context.Context) {
	if !s.scanning.CompareAndSwap(false, true) {
		logger.Debug("Scan already in progress, skipping tick")
		return
	}
	defer s.scanning.Store(false)

	if err := s.scan(ctx); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("component", "scanner"))
	}

	s.mu.Lock()
	s.lastTick = s.clock.Now()
	s.mu.Unlock()
}

// scan fetches, decodes, and processes the pending window for every tracked
// signature. Only a head fetch failure aborts the tick; per-signature fetch
// failures and per-log decode failures are logged and skipped.
func (s *Scanner) scan(ctx context.Context) error {
	currentHeight, err := s.head.GetLatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve chain head: %w", err)
	}

	s.mu.Lock()
	if len(s.cursors) == 0 {
		start := uint64(0)
		if currentHeight > s.config.LookbackBlocks {
			start = currentHeight - s.config.LookbackBlocks
		}
		for _, sig := range ethprovider.TrackedSignatures {
			s.cursors[sig] = start
		}
		logger.Info("Initialized scan cursors",
			zap.Uint64("start_block", start),
			zap.Uint64("chain_head", currentHeight))
	}
	cursors := make(map[common.Hash]uint64, len(s.cursors))
	for sig, cur := range s.cursors {
		cursors[sig] = cur
	}
	s.mu.Unlock()

	// assemble the batch in signature order; history ordering is batch
	// assembly order, not chain order
	var batch []*domain.OptionEvent
	advanced := make(map[common.Hash]uint64)

	for _, sig := range ethprovider.TrackedSignatures {
		from := cursors[sig] + 1
		if from > currentHeight {
			advanced[sig] = cursors[sig]
			continue
		}

		logs, err := s.chain.FilterEventLogs(ctx, sig, from, currentHeight)
		if err != nil {
			// keep the old cursor so this window is retried next tick
			logger.WarnCtx(ctx, "Log fetch failed for signature, will retry window",
				zap.String("signature", sig.Hex()),
				zap.Uint64("from_block", from),
				zap.Uint64("to_block", currentHeight),
				zap.Error(err))
			continue
		}

		for _, vLog := range logs {
			event, err := ethprovider.DecodeOptionLog(s.config.ChainID, sig, vLog)
			if err != nil {
				logger.WarnCtx(ctx, "Skipping malformed log",
					zap.String("tx_hash", vLog.TxHash.Hex()),
					zap.Error(err))
				continue
			}
			event.Timestamp = s.blockTimestamp(ctx, event.BlockNumber)
			batch = append(batch, event)
		}

		advanced[sig] = currentHeight
	}

	if len(batch) > 0 {
		logger.InfoCtx(ctx, "Processing scanned events",
			zap.Int("events", len(batch)),
			zap.Uint64("chain_head", currentHeight))
	}
	s.processor.ProcessBatch(ctx, batch)

	s.mu.Lock()
	for sig, cur := range advanced {
		s.cursors[sig] = cur
	}
	s.mu.Unlock()

	return nil
}

// blockTimestamp resolves a block timestamp, falling back to wall clock
// when the chain call fails so the event still carries a usable time
func (s *Scanner) blockTimestamp(ctx context.Context, blockNumber uint64) time.Time {
	ts, err := s.chain.BlockTimestamp(ctx, blockNumber)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to fetch block timestamp, using wall clock",
			zap.Uint64("block_number", blockNumber),
			zap.Error(err))
		return s.clock.Now()
	}
	return ts
}

// Status returns a snapshot of the scheduler state
func (s *Scanner) Status() Status {
	state := StateIdle
	if s.scanning.Load() {
		state = StateScanning
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cursors := make(map[string]uint64, len(s.cursors))
	for sig, cur := range s.cursors {
		cursors[sig.Hex()] = cur
	}
	return Status{
		State:      state,
		Cursors:    cursors,
		LastTickAt: s.lastTick,
	}
}
