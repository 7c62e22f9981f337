package models

import (
	"time"

	"github.com/google/uuid"
)

// Member represents a person with purchasing rights
// Maps to: members table, linked 1:1 to a profiles row by profile_id
type Member struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ProfileID uuid.UUID `db:"profile_id" json:"profile_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Participation records one member's purchase in one drop
// Maps to: drop_participation table. Rows are only ever created by the
// webhook, never updated or deleted by it. At most one row exists per
// (member_id, drop_id, shopify_order_ref).
type Participation struct {
	ID              uuid.UUID `db:"id" json:"id"`
	MemberID        uuid.UUID `db:"member_id" json:"member_id"`
	DropID          uuid.UUID `db:"drop_id" json:"drop_id"`
	Purchased       bool      `db:"purchased" json:"purchased"`
	Quantity        int       `db:"quantity" json:"quantity"`
	ShopifyOrderRef string    `db:"shopify_order_ref" json:"shopify_order_ref"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
