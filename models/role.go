package models

import (
	"time"
)

// Role names the capabilities an address can hold.
type Role string

// RoleMintAndBurn authorizes the vault and bridge collaborators to mint
// and burn principal.
const RoleMintAndBurn Role = "mint_and_burn"

// RoleGrant represents one address holding one role.
type RoleGrant struct {
	Address   string    `db:"address"`
	Role      Role      `db:"role"`
	GrantedBy string    `db:"granted_by"`
	GrantedAt time.Time `db:"granted_at"`
}
