package models

import "github.com/google/uuid"

// OutcomeStatus tags the per-line-item reconciliation result
type OutcomeStatus string

const (
	OutcomeUpdated      OutcomeStatus = "updated"
	OutcomeNotFound     OutcomeStatus = "not_found"
	OutcomeUpdateFailed OutcomeStatus = "update_failed"
)

// MatchKind records which candidate reference located the drop
type MatchKind string

const (
	MatchProduct MatchKind = "product_id"
	MatchVariant MatchKind = "variant_ref"
)

// ParticipationStatus reports what happened to the participation record
// for a reconciled line item
type ParticipationStatus string

const (
	ParticipationRecorded ParticipationStatus = "recorded"
	ParticipationExisting ParticipationStatus = "already_recorded"
	ParticipationFailed   ParticipationStatus = "failed"
)

// LineItemOutcome is the tagged per-line-item result. Only the fields
// matching Status carry meaning: Updated fills the quantity fields,
// UpdateFailed fills Error, NotFound fills neither.
type LineItemOutcome struct {
	Status    OutcomeStatus `json:"status"`
	Title     string        `json:"title"`
	ProductID int64         `json:"product_id"`
	VariantID int64         `json:"variant_id"`
	Quantity  int           `json:"quantity"`

	DropID *uuid.UUID `json:"drop_id,omitempty"`
	Match  MatchKind  `json:"match,omitempty"`

	PreviousSold int `json:"previous_sold,omitempty"`
	NewSold      int `json:"new_sold,omitempty"`
	Remaining    int `json:"remaining,omitempty"`

	Error string `json:"error,omitempty"`

	Participation ParticipationStatus `json:"participation,omitempty"`
}

// OrderResult aggregates the reconciliation of one order event
type OrderResult struct {
	OrderID     int64             `json:"orderId"`
	OrderNumber int64             `json:"orderNumber"`
	MemberFound bool              `json:"memberFound"`
	Redelivery  bool              `json:"redelivery,omitempty"`
	Outcomes    []LineItemOutcome `json:"updates"`
}
