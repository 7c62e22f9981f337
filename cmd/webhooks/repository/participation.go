package repository

import (
	"context"
	"fmt"

	"github.com/atelierclub/drops/cmd/webhooks/models"
	"github.com/atelierclub/drops/common/db"
	"github.com/google/uuid"
)

// ParticipationRepository handles database operations for drop participation
type ParticipationRepository struct {
	db *db.DB
}

// NewParticipationRepository creates a new participation repository
func NewParticipationRepository(database *db.DB) *ParticipationRepository {
	return &ParticipationRepository{db: database}
}

// Exists reports whether a participation row already exists for the
// (member, drop, order reference) triple. This is the idempotence guard
// against at-least-once webhook delivery.
func (r *ParticipationRepository) Exists(ctx context.Context, memberID, dropID uuid.UUID, orderRef string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM drop_participation
			WHERE member_id = $1 AND drop_id = $2 AND shopify_order_ref = $3
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, memberID, dropID, orderRef).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check participation existence: %w", err)
	}

	return exists, nil
}

// Create inserts a new participation row
func (r *ParticipationRepository) Create(ctx context.Context, p *models.Participation) error {
	query := `
		INSERT INTO drop_participation (id, member_id, drop_id, purchased, quantity, shopify_order_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(
		ctx,
		query,
		p.ID,
		p.MemberID,
		p.DropID,
		p.Purchased,
		p.Quantity,
		p.ShopifyOrderRef,
		p.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create participation: %w", err)
	}

	return nil
}
