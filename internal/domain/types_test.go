package domain

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		decimals int
		expected string
	}{
		{"nil amount", nil, 6, "0"},
		{"zero", big.NewInt(0), 6, "0"},
		{"whole units", big.NewInt(50000000000), 6, "50000"},
		{"trailing zeros trimmed", big.NewInt(2500000000), 6, "2500"},
		{"fractional", big.NewInt(1500001), 6, "1.500001"},
		{"below one unit", big.NewInt(25), 6, "0.000025"},
		{"no decimals", big.NewInt(42), 0, "42"},
		{"negative", big.NewInt(-1500000), 6, "-1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatUnits(tt.amount, tt.decimals))
		})
	}
}

func TestOptionExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	opt := &Option{ExpirationTime: uint64(now.Add(time.Hour).Unix())}
	assert.False(t, opt.Expired(now))
	assert.True(t, opt.Expired(now.Add(2*time.Hour)))
	// expiration boundary counts as expired
	assert.True(t, opt.Expired(time.Unix(int64(opt.ExpirationTime), 0)))

	// zero expiration never expires
	assert.False(t, (&Option{}).Expired(now))
}

func TestOptionActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := uint64(now.Add(time.Hour).Unix())

	assert.True(t, (&Option{ExpirationTime: future}).Active(now))
	assert.False(t, (&Option{ExpirationTime: future, IsExercised: true}).Active(now))
	assert.False(t, (&Option{ExpirationTime: uint64(now.Add(-time.Hour).Unix())}).Active(now))
}

func TestIsMintOrBurn(t *testing.T) {
	const holder = "0xA000000000000000000000000000000000000001"

	mint := &OptionEvent{FromAddress: ZeroAddress, ToAddress: holder}
	burn := &OptionEvent{FromAddress: holder, ToAddress: ZeroAddress}
	transfer := &OptionEvent{FromAddress: holder, ToAddress: "0xB000000000000000000000000000000000000002"}

	assert.True(t, mint.IsMintOrBurn())
	assert.True(t, burn.IsMintOrBurn())
	assert.False(t, transfer.IsMintOrBurn())
}

func TestNormalizeAddress(t *testing.T) {
	// same address in different casings normalizes to one form
	lower := NormalizeAddress("0xdac17f958d2ee523a2206206994597c13d831ec7")
	upper := NormalizeAddress("0xDAC17F958D2EE523A2206206994597C13D831EC7")
	assert.Equal(t, lower, upper)

	// non-hex identifiers pass through untouched
	assert.Equal(t, "not-an-address", NormalizeAddress("not-an-address"))
}

func TestExpirationISO(t *testing.T) {
	assert.Equal(t, "2026-01-01T00:00:00Z", ExpirationISO(1767225600))
}

func TestOptionString(t *testing.T) {
	parent := &Option{TokenID: 1, IsParent: true}
	child := &Option{TokenID: 2, ParentID: 1}

	assert.Equal(t, "option 1 (parent)", parent.String())
	assert.Equal(t, "option 2 (child of 1)", child.String())
}
