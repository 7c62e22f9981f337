package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/atelierclub/drops/cmd/webhooks/models"
	"github.com/atelierclub/drops/common/db"
	"github.com/jackc/pgx/v5"
)

// MemberRepository handles database operations for members
type MemberRepository struct {
	db *db.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(database *db.DB) *MemberRepository {
	return &MemberRepository{db: database}
}

// GetByEmail retrieves the member whose profile carries the given contact
// email. Returns ErrNotFound for guests and non-members.
func (r *MemberRepository) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	query := `
		SELECT m.id, m.profile_id, m.created_at
		FROM members m
		JOIN profiles p ON p.id = m.profile_id
		WHERE lower(p.email) = lower($1)
	`

	member := &models.Member{}
	err := r.db.QueryRow(ctx, query, email).Scan(
		&member.ID,
		&member.ProfileID,
		&member.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by email: %w", err)
	}

	return member, nil
}
