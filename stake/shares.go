package stake

import (
	"fmt"
	"math/bits"
)

// mulDiv returns floor(a*b/c) using a 128-bit intermediate product.
// c must be non-zero.
func mulDiv(a, b, c uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, fmt.Errorf("%w: %d*%d/%d", ErrOverflow, a, b, c)
	}
	q, _ := bits.Div64(hi, lo, c)
	return q, nil
}

// SharesForDeposit returns the shares minted for depositing amount into a
// pool holding reserve base units against totalShares outstanding shares.
// An empty share supply mints 1:1 regardless of any reserve already held.
func SharesForDeposit(amount, totalShares, reserve uint64) (uint64, error) {
	if totalShares == 0 {
		return amount, nil
	}
	if reserve == 0 {
		return 0, fmt.Errorf("%w: %d shares outstanding with empty reserve", ErrDegenerateVaultState, totalShares)
	}
	return mulDiv(amount, totalShares, reserve)
}

// RedeemValue returns the proportional, pre-tax claim of shares against the
// pool: floor(shares * reserve / totalShares).
func RedeemValue(shares, totalShares, reserve uint64) (uint64, error) {
	if totalShares == 0 {
		return 0, fmt.Errorf("%w: redeem against zero share supply", ErrDegenerateVaultState)
	}
	if shares > totalShares {
		return 0, fmt.Errorf("%w: redeem %d of %d shares", ErrInsufficientShareBalance, shares, totalShares)
	}
	return mulDiv(shares, reserve, totalShares)
}

// ApplyTax returns floor(gross * percent / 100).
func ApplyTax(gross, percent uint64) uint64 {
	if percent >= 100 {
		return gross
	}
	// percent < 100, so the quotient is below gross and never overflows.
	net, _ := mulDiv(gross, percent, 100)
	return net
}
