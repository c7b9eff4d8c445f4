// Package accrual implements the linear interest formula shared by the
// ledger and its read paths. Interest is simple, not compounding: the
// live balance of an account is its stored principal scaled by a factor
// that grows linearly with the seconds elapsed since the account was
// last settled.
package accrual

import (
	"math/big"
	"time"
)

// Precision is the fixed-point scale for rates and accrual factors.
// A rate of 5e10 means 5e10/1e18 interest per second per unit of principal.
var Precision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// MaxAmount is the sentinel amount meaning "the full live balance".
// It is the largest value the wire format can carry (2^256 - 1).
var MaxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// IsMax reports whether amount is the max sentinel.
func IsMax(amount *big.Int) bool {
	return amount != nil && amount.Cmp(MaxAmount) == 0
}

// Factor returns the accrual factor for a frozen rate and elapsed time:
// Precision + elapsedSeconds * rate. Negative elapsed time is clamped to
// zero so a clock running behind the last settlement never shrinks a
// balance.
func Factor(rate *big.Int, elapsedSeconds int64) *big.Int {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	accrued := new(big.Int).Mul(rate, big.NewInt(elapsedSeconds))
	return accrued.Add(accrued, Precision)
}

// Balance returns the live computed balance for an account:
// principal * Factor(rate, now-lastSettledAt) / Precision.
// Zero principal yields zero regardless of rate or elapsed time.
func Balance(principal, rate *big.Int, lastSettledAt, now time.Time) *big.Int {
	if principal == nil || principal.Sign() == 0 {
		return big.NewInt(0)
	}
	elapsed := now.Unix() - lastSettledAt.Unix()
	factor := Factor(rate, elapsed)
	out := new(big.Int).Mul(principal, factor)
	return out.Quo(out, Precision)
}
