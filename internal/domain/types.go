package domain

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const (
	ChainEthereumMainnet Chain = "eip155:1"
	ChainEthereumSepolia Chain = "eip155:11155111"
	ChainBaseMainnet     Chain = "eip155:8453"
)

// EventKind represents the kind of option protocol event
type EventKind string

const (
	EventKindOptionOpened       EventKind = "option_opened"
	EventKindChildOptionOpened  EventKind = "child_option_opened"
	EventKindOptionExercised    EventKind = "option_exercised"
	EventKindBalanceTransferred EventKind = "balance_transferred"
)

// TransactionType tags an entry of the transaction history
type TransactionType string

const (
	TransactionOptionCreated      TransactionType = "OPTION_CREATED"
	TransactionChildOptionCreated TransactionType = "CHILD_OPTION_CREATED"
	TransactionOptionExercised    TransactionType = "OPTION_EXERCISED"
	TransactionOptionTransferred  TransactionType = "OPTION_TRANSFERRED"
)

// OptionEvent is a normalized option protocol event decoded from a chain log.
// Exactly the fields named for its Kind are populated; the rest stay zero.
type OptionEvent struct {
	Kind            EventKind `json:"kind"`
	Chain           Chain     `json:"chain"`
	ContractAddress string    `json:"contract_address"`

	TokenID  uint64 `json:"token_id"`
	ParentID uint64 `json:"parent_id,omitempty"` // child_option_opened only

	// creation events
	Creator        string   `json:"creator,omitempty"`
	BaseAsset      string   `json:"base_asset,omitempty"`
	StrikePrice    *big.Int `json:"strike_price,omitempty"`
	ExpirationTime uint64   `json:"expiration_time,omitempty"`
	Premium        *big.Int `json:"premium,omitempty"`

	// exercise events
	Exerciser string   `json:"exerciser,omitempty"`
	Payout    *big.Int `json:"payout,omitempty"`

	// transfer events
	Operator    string   `json:"operator,omitempty"`
	FromAddress string   `json:"from_address,omitempty"`
	ToAddress   string   `json:"to_address,omitempty"`
	Value       *big.Int `json:"value,omitempty"`

	// provenance
	TxHash      string    `json:"tx_hash"`
	BlockNumber uint64    `json:"block_number"`
	BlockHash   string    `json:"block_hash"`
	Timestamp   time.Time `json:"timestamp"`
}

// IsMintOrBurn reports whether a transfer event touches the zero address on
// either side. Those events are skipped by balance tracking.
func (e *OptionEvent) IsMintOrBurn() bool {
	return e.FromAddress == ZeroAddress || e.ToAddress == ZeroAddress
}

// Option is the reconstructed view of one option token
type Option struct {
	TokenID        uint64   `json:"token_id"`
	Creator        string   `json:"creator"`
	BaseAsset      string   `json:"base_asset"`
	StrikePrice    *big.Int `json:"strike_price"`
	ExpirationTime uint64   `json:"expiration_time"`
	Premium        *big.Int `json:"premium"`

	// ParentID is 0 for a root (parent) option, otherwise the token id of
	// the option this one was written against.
	ParentID uint64 `json:"parent_id"`
	IsParent bool   `json:"is_parent"`

	IsExercised bool     `json:"is_exercised"`
	Exerciser   string   `json:"exerciser,omitempty"`
	Payout      *big.Int `json:"payout,omitempty"`

	// display fields computed when the record is written
	StrikeDisplay  string `json:"strike_display"`
	PremiumDisplay string `json:"premium_display"`
	ExpirationISO  string `json:"expiration_iso"`

	// provenance
	BlockNumber uint64    `json:"block_number"`
	BlockHash   string    `json:"block_hash"`
	TxHash      string    `json:"tx_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// Expired reports whether the option's expiration time has passed at the
// given instant. Expiration is a time-varying property, so callers evaluate
// it at query time rather than reading a stored snapshot.
func (o *Option) Expired(now time.Time) bool {
	return o.ExpirationTime != 0 && now.Unix() >= int64(o.ExpirationTime) //nolint:gosec,G115
}

// Active reports whether the option is neither exercised nor expired
func (o *Option) Active(now time.Time) bool {
	return !o.IsExercised && !o.Expired(now)
}

// String returns a short human identifier for an option
func (o *Option) String() string {
	role := "parent"
	if !o.IsParent {
		role = fmt.Sprintf("child of %d", o.ParentID)
	}
	return fmt.Sprintf("option %d (%s)", o.TokenID, role)
}

// TransactionRecord is one append-only entry of the transaction history
type TransactionRecord struct {
	Type      TransactionType `json:"type"`
	TokenID   uint64          `json:"token_id"`
	Actor     string          `json:"actor"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	Amount    *big.Int        `json:"amount,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	TxHash    string          `json:"tx_hash"`
}

// OptionWithBalance annotates an option with the queried user's holding
type OptionWithBalance struct {
	Option
	Balance uint64 `json:"balance"`
}

// Hierarchy groups a parent option with its children
type Hierarchy struct {
	Parent         *Option   `json:"parent"`
	Children       []*Option `json:"children"`
	TotalChildren  int       `json:"total_children"`
	ActiveChildren int       `json:"active_children"`
}

// CapitalEfficiencyStats compares parent-only collateral against the
// layered (parent+child) design
type CapitalEfficiencyStats struct {
	Total                 int      `json:"total"`
	Parents               int      `json:"parents"`
	Children              int      `json:"children"`
	TraditionalCollateral *big.Int `json:"traditional_collateral"`
	LayeredCollateral     *big.Int `json:"layered_collateral"`
	SavingsPercentage     string   `json:"savings_percentage"`
}

// FormatUnits renders a raw token amount with the given decimals, trimming
// trailing zeros (e.g. 50000000000 with 6 decimals → "50000")
func FormatUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	s := amount.String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	intPart := s[:len(s)-decimals]
	fracPart := strings.TrimRight(s[len(s)-decimals:], "0")
	out := intPart
	if fracPart != "" {
		out = intPart + "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

// NormalizeAddress normalizes a hex address to its EIP-55 checksum form
func NormalizeAddress(address string) string {
	if strings.HasPrefix(address, "0x") {
		return common.HexToAddress(address).Hex()
	}
	return address
}

// ExpirationISO renders a unix expiration time as an RFC 3339 UTC string
func ExpirationISO(expirationTime uint64) string {
	return time.Unix(int64(expirationTime), 0).UTC().Format(time.RFC3339) //nolint:gosec,G115
}
