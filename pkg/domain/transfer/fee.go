package transfer

import (
	"github.com/shopspring/decimal"

	"github.com/solventhq/walletcore/pkg/money"
)

// FeeSplit is the gross/fee/net decomposition of a transfer amount.
type FeeSplit struct {
	Gross money.Amount
	Fee   money.Amount
	Net   money.Amount
}

// SplitFee decomposes a gross amount using an explicit fee.
func SplitFee(gross, fee money.Amount) FeeSplit {
	return FeeSplit{Gross: gross, Fee: fee, Net: gross - fee}
}

// SplitFeePercent decomposes a gross amount using a percentage service fee
// (e.g. 0.01 for 1%). Decimal math avoids float drift on the smallest-unit
// amounts; the fee rounds half-up to a whole smallest unit.
func SplitFeePercent(gross money.Amount, percent float64) FeeSplit {
	fee := decimal.NewFromInt(gross).
		Mul(decimal.NewFromFloat(percent)).
		Round(0).
		IntPart()
	return SplitFee(gross, fee)
}
