package models

import (
	"time"

	"github.com/google/uuid"
)

// Drop represents a limited-release product
// Maps to: drops table
type Drop struct {
	ID uuid.UUID `db:"id" json:"id"`

	// External commerce reference. Either a raw numeric product id
	// ("8412667248761") or a variant gid
	// ("gid://shopify/ProductVariant/46254130299001")
	ShopifyRef string `db:"shopify_product_ref" json:"shopify_product_ref"`

	// Display title
	Title string `db:"title" json:"title"`

	// Units offered in the release
	QuantityAvailable int `db:"quantity_available" json:"quantity_available"`

	// Units sold so far, monotonically non-decreasing
	QuantitySold int `db:"quantity_sold" json:"quantity_sold"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
