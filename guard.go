package x402

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// AssetDecimals is the fixed decimal exponent applied when converting a
// base-unit amount to its fiat-equivalent value. Offers are assumed to price
// in a USDC-style stablecoin; there is no live price oracle.
const AssetDecimals = 6

// SpendGuard converts an offer's base-unit amount to a USD-equivalent value
// and enforces a caller-supplied maximum. It must run before any signing.
type SpendGuard struct {
	decimals int32
}

// NewSpendGuard returns a guard using the stablecoin decimal exponent.
func NewSpendGuard() *SpendGuard {
	return &SpendGuard{decimals: AssetDecimals}
}

// Check returns the offer's fiat-equivalent cost, or a spend-cap error when
// it exceeds capUSD. Equality with the cap passes.
func (g *SpendGuard) Check(offer *PaymentOffer, capUSD decimal.Decimal) (decimal.Decimal, error) {
	units, err := offer.Amount()
	if err != nil {
		return decimal.Zero, err
	}

	cost := decimal.NewFromBigInt(new(big.Int).Set(units), -g.decimals)
	if cost.GreaterThan(capUSD) {
		return decimal.Zero, NewPaymentError(ErrCodeSpendCapExceeded, "offer cost exceeds spend cap", ErrSpendCapExceeded).
			WithDetails("costUsd", cost.String()).
			WithDetails("spendCapUsd", capUSD.String()).
			WithDetails("maxAmountRequired", offer.MaxAmountRequired)
	}

	return cost, nil
}

// FormatFiat renders a fiat-equivalent value with the guard's decimal
// precision (e.g., "0.050000").
func (g *SpendGuard) FormatFiat(cost decimal.Decimal) string {
	return cost.StringFixed(g.decimals)
}
