package models

import (
	"math/big"
)

// TransferResult summarizes a completed transfer
type TransferResult struct {
	Amount             *big.Int // resolved amount actually moved
	SenderPrincipal    *big.Int // sender's principal after the transfer
	RecipientPrincipal *big.Int // recipient's principal after the transfer
	RateInherited      bool     // recipient was at zero principal and inherited the sender's rate
}
