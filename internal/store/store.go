package store

import (
	"math/big"

	"github.com/optionstack/option-indexer/internal/domain"
)

// Store is the mutable, queryable view reconstructed from the option
// contract's event log: option records keyed by token id, per-user token
// balances, and an append-only transaction history.
//
// The scanner is the only writer; REST queries read concurrently. Readers
// may observe a partially applied scan tick (an option created but its
// balance not yet moved) — best-effort consistency, not a hard guarantee.
type Store interface {
	// UpsertOption creates or overwrites the option record for its token id
	// (last-write-wins, no partial merge)
	UpsertOption(opt *domain.Option)

	// MarkExercised flags the option as exercised and records exerciser and
	// payout. Returns false when the token id is unknown; the caller drops
	// the exercise silently in that case.
	MarkExercised(tokenID uint64, exerciser string, payout *big.Int) bool

	// ApplyTransfer moves value units of tokenID from one holder to another.
	// The sender's balance floors at zero and empty entries are removed.
	ApplyTransfer(from, to string, tokenID uint64, value uint64)

	// AppendTransaction appends one immutable history entry
	AppendTransaction(rec domain.TransactionRecord)

	// GetAll returns all options, most-recent-first
	GetAll() []*domain.Option

	// GetAvailable returns options neither exercised nor expired right now
	GetAvailable() []*domain.Option

	// GetByID returns a single option or domain.ErrOptionNotFound
	GetByID(tokenID uint64) (*domain.Option, error)

	// GetParents returns root options (parent id 0)
	GetParents() []*domain.Option

	// GetChildren returns child options written against the given parent
	GetChildren(parentID uint64) []*domain.Option

	// GetByUser returns the options a holder has a positive balance in,
	// annotated with that balance
	GetByUser(address string) []*domain.OptionWithBalance

	// GetUserBalances returns the holder's full tokenID→quantity map
	GetUserBalances(address string) map[uint64]uint64

	// GetHierarchy returns a parent option with its children and counts, or
	// domain.ErrOptionNotFound / domain.ErrNotParent
	GetHierarchy(parentID uint64) (*domain.Hierarchy, error)

	// CapitalEfficiencyStats aggregates collateral figures across the store
	CapitalEfficiencyStats() *domain.CapitalEfficiencyStats

	// RecentTransactions returns the last limit history entries,
	// most-recent-first
	RecentTransactions(limit int) []domain.TransactionRecord
}
