package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"mosaicboard/internal/models"
)

type roleRepository struct {
	db *sqlx.DB
}

func NewRoleRepository(db *sqlx.DB) RoleRepository {
	return &roleRepository{db: db}
}

// GetRole returns the user's role in the context, or "" when none is assigned.
func (r *roleRepository) GetRole(ctx context.Context, contextID, userID int64) (models.Role, error) {
	var role models.Role

	query := `SELECT role FROM board_roles WHERE context_id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, &role, query, contextID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get role: %w", err)
	}

	return role, nil
}

func (r *roleRepository) Assign(ctx context.Context, contextID, userID int64, role models.Role) error {
	query := `
		INSERT INTO board_roles (context_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (context_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`

	if _, err := r.db.ExecContext(ctx, query, contextID, userID, role); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}

	return nil
}
