package models

import "strconv"

// LineItem is one product/variant/quantity entry within an order event
type LineItem struct {
	ProductID int64  `json:"product_id"`
	VariantID int64  `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	Title     string `json:"title"`
}

// OrderEvent is the inbound webhook payload describing a commerce order.
// It is transient: the webhook never persists it.
type OrderEvent struct {
	ID              int64      `json:"id"`
	OrderNumber     int64      `json:"order_number"`
	Email           string     `json:"email"`
	CreatedAt       string     `json:"created_at"`
	FinancialStatus string     `json:"financial_status"`
	LineItems       []LineItem `json:"line_items"`
}

// OrderRef returns the external order reference used to key participation
// rows and duplicate-delivery markers
func (e *OrderEvent) OrderRef() string {
	return strconv.FormatInt(e.ID, 10)
}
