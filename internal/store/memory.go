package store

import (
	"math/big"
	"sync"

	"github.com/optionstack/option-indexer/internal/adapter"
	"github.com/optionstack/option-indexer/internal/domain"
)

// memoryStore holds the reconstructed state in plain maps guarded by a
// single RWMutex. There is exactly one writer (the scanner), so the lock
// exists to keep concurrent REST reads memory-safe, not to serialize ticks.
type memoryStore struct {
	clock adapter.Clock

	mu sync.RWMutex
	// options keyed by token id
	options map[uint64]*domain.Option
	// order remembers first-insertion order of token ids, for stable
	// most-recent-first listings; re-upserts keep their original position
	order []uint64
	// balances: holder address → token id → quantity (≥1, sparse: zero
	// quantities are deleted, never stored)
	balances map[string]map[uint64]uint64
	// transactions is append-only, insertion order
	transactions []domain.TransactionRecord
}

// New creates an empty in-memory store. State lives for the process
// lifetime; there is no teardown and no persisted snapshot.
func New(clock adapter.Clock) Store {
	return &memoryStore{
		clock:    clock,
		options:  make(map[uint64]*domain.Option),
		balances: make(map[string]map[uint64]uint64),
	}
}

// UpsertOption creates or overwrites the option record for its token id
func (s *memoryStore) UpsertOption(opt *domain.Option) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.options[opt.TokenID]; !exists {
		s.order = append(s.order, opt.TokenID)
	}
	cp := *opt
	s.options[opt.TokenID] = &cp
}

// MarkExercised flags the option as exercised. Returns false on a
// referential miss so the caller can drop the exercise silently.
func (s *memoryStore) MarkExercised(tokenID uint64, exerciser string, payout *big.Int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	opt, ok := s.options[tokenID]
	if !ok {
		return false
	}
	opt.IsExercised = true
	opt.Exerciser = exerciser
	opt.Payout = payout
	return true
}

// ApplyTransfer moves value units between two holders
func (s *memoryStore) ApplyTransfer(from, to string, tokenID uint64, value uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if held, ok := s.balances[from]; ok {
		if held[tokenID] <= value {
			delete(held, tokenID)
			if len(held) == 0 {
				delete(s.balances, from)
			}
		} else {
			held[tokenID] -= value
		}
	}

	if value == 0 {
		return
	}
	held, ok := s.balances[to]
	if !ok {
		held = make(map[uint64]uint64)
		s.balances[to] = held
	}
	held[tokenID] += value
}

// AppendTransaction appends one immutable history entry
func (s *memoryStore) AppendTransaction(rec domain.TransactionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append(s.transactions, rec)
}

// GetAll returns all options, most-recent-first
func (s *memoryStore) GetAll() []*domain.Option {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Option, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.copyOption(s.order[i]))
	}
	return out
}

// GetAvailable returns options neither exercised nor expired right now
func (s *memoryStore) GetAvailable() []*domain.Option {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	out := make([]*domain.Option, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		if opt := s.options[s.order[i]]; opt.Active(now) {
			out = append(out, s.copyOption(opt.TokenID))
		}
	}
	return out
}

// GetByID returns a single option or domain.ErrOptionNotFound
func (s *memoryStore) GetByID(tokenID uint64) (*domain.Option, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.options[tokenID]; !ok {
		return nil, domain.ErrOptionNotFound
	}
	return s.copyOption(tokenID), nil
}

// GetParents returns root options in first-seen order
func (s *memoryStore) GetParents() []*domain.Option {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Option, 0)
	for _, id := range s.order {
		if s.options[id].IsParent {
			out = append(out, s.copyOption(id))
		}
	}
	return out
}

// GetChildren returns child options written against the given parent, in
// first-seen order. A dangling parent reference still lists the child here.
func (s *memoryStore) GetChildren(parentID uint64) []*domain.Option {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.childrenLocked(parentID)
}

func (s *memoryStore) childrenLocked(parentID uint64) []*domain.Option {
	out := make([]*domain.Option, 0)
	for _, id := range s.order {
		opt := s.options[id]
		if !opt.IsParent && opt.ParentID == parentID {
			out = append(out, s.copyOption(id))
		}
	}
	return out
}

// GetByUser returns the options a holder has a positive balance in
func (s *memoryStore) GetByUser(address string) []*domain.OptionWithBalance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	held := s.balances[address]
	out := make([]*domain.OptionWithBalance, 0, len(held))
	for _, id := range s.order {
		qty, ok := held[id]
		if !ok {
			continue
		}
		opt, ok := s.options[id]
		if !ok {
			continue
		}
		cp := *opt
		out = append(out, &domain.OptionWithBalance{Option: cp, Balance: qty})
	}
	return out
}

// GetUserBalances returns the holder's full tokenID→quantity map
func (s *memoryStore) GetUserBalances(address string) map[uint64]uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uint64]uint64, len(s.balances[address]))
	for id, qty := range s.balances[address] {
		out[id] = qty
	}
	return out
}

// GetHierarchy returns a parent option with its children and counts
func (s *memoryStore) GetHierarchy(parentID uint64) (*domain.Hierarchy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parent, ok := s.options[parentID]
	if !ok {
		return nil, domain.ErrOptionNotFound
	}
	if !parent.IsParent {
		return nil, domain.ErrNotParent
	}

	children := s.childrenLocked(parentID)
	now := s.clock.Now()
	active := 0
	for _, child := range children {
		if child.Active(now) {
			active++
		}
	}

	return &domain.Hierarchy{
		Parent:         s.copyOption(parentID),
		Children:       children,
		TotalChildren:  len(children),
		ActiveChildren: active,
	}, nil
}

// CapitalEfficiencyStats aggregates collateral figures across the store.
// Traditional collateral is the sum of parent strikes (what a parent-only
// design would lock); layered collateral is the sum of all premiums.
func (s *memoryStore) CapitalEfficiencyStats() *domain.CapitalEfficiencyStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.CapitalEfficiencyStats{
		TraditionalCollateral: new(big.Int),
		LayeredCollateral:     new(big.Int),
	}

	for _, opt := range s.options {
		stats.Total++
		if opt.IsParent {
			stats.Parents++
			if opt.StrikePrice != nil {
				stats.TraditionalCollateral.Add(stats.TraditionalCollateral, opt.StrikePrice)
			}
		} else {
			stats.Children++
		}
		if opt.Premium != nil {
			stats.LayeredCollateral.Add(stats.LayeredCollateral, opt.Premium)
		}
	}

	stats.SavingsPercentage = savingsPercentage(stats.TraditionalCollateral, stats.LayeredCollateral)
	return stats
}

// savingsPercentage derives (traditional-layered)/traditional as a whole
// percentage string, clamped to "0%" when traditional is zero
func savingsPercentage(traditional, layered *big.Int) string {
	if traditional.Sign() == 0 {
		return "0%"
	}

	saved := new(big.Int).Sub(traditional, layered)
	if saved.Sign() < 0 {
		saved.SetInt64(0)
	}
	pct := new(big.Int).Mul(saved, big.NewInt(100))
	pct.Quo(pct, traditional)
	return pct.String() + "%"
}

// RecentTransactions returns the last limit history entries, most-recent-first
func (s *memoryStore) RecentTransactions(limit int) []domain.TransactionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.transactions)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.TransactionRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.transactions[i])
	}
	return out
}

// copyOption returns a value copy so callers never alias the live record.
// Callers must hold at least the read lock.
func (s *memoryStore) copyOption(tokenID uint64) *domain.Option {
	cp := *s.options[tokenID]
	return &cp
}
