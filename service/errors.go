package service

import (
	"fmt"
	"math/big"
)

// RateIncreaseError is returned when a global rate update would increase
// the rate. The global rate can only decrease.
type RateIncreaseError struct {
	Old *big.Int
	New *big.Int
}

func (e *RateIncreaseError) Error() string {
	return fmt.Sprintf("global rate can only decrease: stored %s, proposed %s", e.Old, e.New)
}

// UnauthorizedError is returned when the caller lacks the role or
// ownership an operation requires.
type UnauthorizedError struct {
	Address string
	Action  string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("address %s is not authorized to %s", e.Address, e.Action)
}

// InsufficientPrincipalError is returned when a burn or transfer exceeds
// the settled principal after sentinel resolution.
type InsufficientPrincipalError struct {
	Address string
	Have    *big.Int
	Need    *big.Int
}

func (e *InsufficientPrincipalError) Error() string {
	return fmt.Sprintf("insufficient principal for %s: have %s, need %s", e.Address, e.Have, e.Need)
}

// InsufficientAllowanceError is returned when a third-party transfer
// exceeds the allowance the sender granted the spender.
type InsufficientAllowanceError struct {
	Owner   string
	Spender string
	Have    *big.Int
	Need    *big.Int
}

func (e *InsufficientAllowanceError) Error() string {
	return fmt.Sprintf("insufficient allowance from %s to %s: have %s, need %s", e.Owner, e.Spender, e.Have, e.Need)
}
