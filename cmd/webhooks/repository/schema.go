package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/atelierclub/drops/common/db"
)

// schemaStatements create the tables the webhook reads and writes. Drops,
// profiles and members are normally owned by the admin and onboarding
// systems; creating them here keeps local development self-contained.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id uuid PRIMARY KEY,
		email text NOT NULL UNIQUE,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		id uuid PRIMARY KEY,
		profile_id uuid NOT NULL REFERENCES profiles(id),
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS drops (
		id uuid PRIMARY KEY,
		shopify_product_ref text,
		title text NOT NULL DEFAULT '',
		quantity_available integer NOT NULL DEFAULT 0,
		quantity_sold integer NOT NULL DEFAULT 0,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_drops_shopify_ref ON drops (shopify_product_ref)`,
	`CREATE TABLE IF NOT EXISTS drop_participation (
		id uuid PRIMARY KEY,
		member_id uuid NOT NULL REFERENCES members(id),
		drop_id uuid NOT NULL REFERENCES drops(id),
		purchased boolean NOT NULL DEFAULT false,
		quantity integer NOT NULL DEFAULT 0,
		shopify_order_ref text NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL DEFAULT now(),
		UNIQUE (member_id, drop_id, shopify_order_ref)
	)`,
}

// EnsureSchema creates missing tables. Intended as a bootstrap DB init hook.
func EnsureSchema(database *db.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := database.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	return nil
}
