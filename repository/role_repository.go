package repository

import (
	"context"
	"fmt"

	"github.com/shubhamku044/cross-chain-rebase-token/database"
	"github.com/shubhamku044/cross-chain-rebase-token/models"
)

// RoleRepository implements the service.RoleRepository interface
type RoleRepository struct {
	q queryable
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *database.DB) *RoleRepository {
	return &RoleRepository{q: db.Pool}
}

// newRoleRepositoryWithTx creates a new role repository bound to a transaction
func newRoleRepositoryWithTx(tx queryable) *RoleRepository {
	return &RoleRepository{q: tx}
}

// HasRole reports whether an address holds a role
func (r *RoleRepository) HasRole(ctx context.Context, address string, role models.Role) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM roles WHERE address = $1 AND role = $2)`

	var exists bool
	if err := r.q.QueryRow(ctx, query, address, string(role)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check role %s for %s: %w", role, address, err)
	}

	return exists, nil
}

// Grant adds a role grant; granting an already-held role is a no-op
func (r *RoleRepository) Grant(ctx context.Context, grant *models.RoleGrant) error {
	query := `
		INSERT INTO roles (address, role, granted_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (address, role) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, grant.Address, string(grant.Role), grant.GrantedBy); err != nil {
		return fmt.Errorf("failed to grant role %s to %s: %w", grant.Role, grant.Address, err)
	}

	return nil
}

// Revoke removes a role grant
func (r *RoleRepository) Revoke(ctx context.Context, address string, role models.Role) error {
	query := `DELETE FROM roles WHERE address = $1 AND role = $2`

	if _, err := r.q.Exec(ctx, query, address, string(role)); err != nil {
		return fmt.Errorf("failed to revoke role %s from %s: %w", role, address, err)
	}

	return nil
}

// GetByRole returns all grants of a role
func (r *RoleRepository) GetByRole(ctx context.Context, role models.Role) ([]*models.RoleGrant, error) {
	query := `
		SELECT address, role, granted_by, granted_at
		FROM roles
		WHERE role = $1
		ORDER BY granted_at
	`

	rows, err := r.q.Query(ctx, query, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to get grants of role %s: %w", role, err)
	}
	defer rows.Close()

	var grants []*models.RoleGrant
	for rows.Next() {
		var grant models.RoleGrant
		if err := rows.Scan(&grant.Address, &grant.Role, &grant.GrantedBy, &grant.GrantedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role grant: %w", err)
		}
		grants = append(grants, &grant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate role grants: %w", err)
	}

	return grants, nil
}
