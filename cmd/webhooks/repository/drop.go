package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/atelierclub/drops/cmd/webhooks/models"
	"github.com/atelierclub/drops/common/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// DropRepository handles database operations for drops
type DropRepository struct {
	db *db.DB
}

// NewDropRepository creates a new drop repository
func NewDropRepository(database *db.DB) *DropRepository {
	return &DropRepository{db: database}
}

// GetByShopifyRef retrieves a drop by its external commerce reference
func (r *DropRepository) GetByShopifyRef(ctx context.Context, ref string) (*models.Drop, error) {
	query := `
		SELECT id, shopify_product_ref, title, quantity_available, quantity_sold, created_at
		FROM drops
		WHERE shopify_product_ref = $1
	`

	drop := &models.Drop{}
	err := r.db.QueryRow(ctx, query, ref).Scan(
		&drop.ID,
		&drop.ShopifyRef,
		&drop.Title,
		&drop.QuantityAvailable,
		&drop.QuantitySold,
		&drop.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get drop by ref: %w", err)
	}

	return drop, nil
}

// IncrementSold atomically adds qty to a drop's sold counter and returns the
// new sold and available quantities. The increment happens in the database,
// so concurrent webhook deliveries for the same drop cannot lose updates.
func (r *DropRepository) IncrementSold(ctx context.Context, dropID uuid.UUID, qty int) (newSold, available int, err error) {
	query := `
		UPDATE drops
		SET quantity_sold = quantity_sold + $2
		WHERE id = $1
		RETURNING quantity_sold, quantity_available
	`

	err = r.db.QueryRow(ctx, query, dropID, qty).Scan(&newSold, &available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, ErrNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to increment sold quantity: %w", err)
	}

	return newSold, available, nil
}
