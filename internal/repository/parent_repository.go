package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ParentRepository resolves parent to child links.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs a ParentRepository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// IsLinked reports whether childID is registered under parentID.
func (r *ParentRepository) IsLinked(ctx context.Context, parentID, childID string) (bool, error) {
	const query = `SELECT 1 FROM parent_children WHERE parent_id = $1 AND child_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, parentID, childID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check parent link: %w", err)
	}
	return true, nil
}
