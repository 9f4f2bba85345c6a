package domain

const (
	// ZeroAddress is the sentinel the chain uses for mint and burn sides of
	// a transfer event
	ZeroAddress = "0x0000000000000000000000000000000000000000"

	// BaseAssetDecimals is the decimal precision of strike/premium amounts
	// (USDC-denominated on the reference deployment)
	BaseAssetDecimals = 6
)
