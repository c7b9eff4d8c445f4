package repository

import (
	"context"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// queryable abstracts over a pool and a transaction so repositories work
// inside and outside a unit of work.
type queryable interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Amounts are NUMERIC(78,0) in Postgres and *big.Int in Go. They cross
// the wire as decimal strings: queries select `column::text` and bind
// parameters as `$n::numeric`.

// parseNumeric converts a NUMERIC::text column value to a big.Int.
func parseNumeric(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid numeric value %q", s)
	}
	return v, nil
}

// numericArg renders a big.Int as a bind parameter for a NUMERIC column.
// A nil value binds as zero.
func numericArg(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
