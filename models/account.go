package models

import (
	"math/big"
	"time"
)

// Account holds the realized state of one token holder. Principal is the
// settled balance only; interest accrued since LastSettledAt exists
// nowhere in storage until a settlement realizes it.
type Account struct {
	Address       string    `db:"address"`
	Principal     *big.Int  `db:"principal"`
	Rate          *big.Int  `db:"rate"` // frozen per-account rate, Precision-scaled per second
	LastSettledAt time.Time `db:"last_settled_at"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
