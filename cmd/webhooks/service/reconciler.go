package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atelierclub/drops/cmd/webhooks/models"
	"github.com/atelierclub/drops/cmd/webhooks/repository"
	"github.com/atelierclub/drops/common/logger"
	"github.com/google/uuid"
)

// DropStore is the drop persistence surface the reconciler needs
type DropStore interface {
	GetByShopifyRef(ctx context.Context, ref string) (*models.Drop, error)
	IncrementSold(ctx context.Context, dropID uuid.UUID, qty int) (newSold, available int, err error)
}

// MemberStore resolves contact emails to members
type MemberStore interface {
	GetByEmail(ctx context.Context, email string) (*models.Member, error)
}

// ParticipationStore persists purchase-participation facts
type ParticipationStore interface {
	Exists(ctx context.Context, memberID, dropID uuid.UUID, orderRef string) (bool, error)
	Create(ctx context.Context, p *models.Participation) error
}

// DeliveryMarker marks delivered orders for duplicate-delivery detection.
// Satisfied by common/redis.Client.
type DeliveryMarker interface {
	SetNX(ctx context.Context, key, value string, expiry time.Duration) (bool, error)
}

// refCandidate is one lookup strategy for matching a line item to a drop
type refCandidate struct {
	kind models.MatchKind
	ref  string
}

// Reconciler maps order events onto drop inventory and member participation
type Reconciler struct {
	drops         DropStore
	members       MemberStore
	participation ParticipationStore
	marker        DeliveryMarker
	dedupTTL      time.Duration
	log           *logger.Logger
}

// NewReconciler creates a new reconciler. marker may be nil when Redis is
// unavailable; duplicate-delivery detection is then skipped.
func NewReconciler(
	drops DropStore,
	members MemberStore,
	participation ParticipationStore,
	marker DeliveryMarker,
	dedupTTL time.Duration,
	log *logger.Logger,
) *Reconciler {
	return &Reconciler{
		drops:         drops,
		members:       members,
		participation: participation,
		marker:        marker,
		dedupTTL:      dedupTTL,
		log:           log,
	}
}

// ProcessOrder runs the reconciliation pipeline for one order event:
// resolve member, then per line item locate the drop, increment its sold
// counter and record participation. Line items are processed sequentially
// and failures never propagate to sibling items.
func (r *Reconciler) ProcessOrder(ctx context.Context, event *models.OrderEvent) *models.OrderResult {
	log := r.log.WithOrderID(event.ID)

	result := &models.OrderResult{
		OrderID:     event.ID,
		OrderNumber: event.OrderNumber,
		Outcomes:    make([]models.LineItemOutcome, 0, len(event.LineItems)),
	}

	result.Redelivery = r.markDelivery(ctx, event, log)

	member := r.resolveMember(ctx, event.Email, log)
	result.MemberFound = member != nil

	for _, item := range event.LineItems {
		outcome := r.reconcileLineItem(ctx, item, member, event.OrderRef(), log)
		result.Outcomes = append(result.Outcomes, outcome)
	}

	log.Info("order reconciled",
		"order_number", event.OrderNumber,
		"line_items", len(event.LineItems),
		"member_found", result.MemberFound,
		"redelivery", result.Redelivery,
	)

	return result
}

// markDelivery sets the duplicate-delivery marker and reports whether this
// order id was seen before. Observability only: inventory is applied on
// every delivery regardless, so a marker hit never gates processing.
func (r *Reconciler) markDelivery(ctx context.Context, event *models.OrderEvent, log *logger.Logger) bool {
	if r.marker == nil {
		return false
	}

	key := "webhook:order:" + event.OrderRef()
	first, err := r.marker.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), r.dedupTTL)
	if err != nil {
		log.Debug("delivery marker unavailable", "error", err)
		return false
	}

	if !first {
		log.Warn("duplicate webhook delivery detected", "order_ref", event.OrderRef())
		return true
	}

	return false
}

// resolveMember maps the order's contact email to a member. Best-effort
// enrichment: lookup errors degrade to "no member", they never fail the order.
func (r *Reconciler) resolveMember(ctx context.Context, email string, log *logger.Logger) *models.Member {
	if email == "" {
		return nil
	}

	member, err := r.members.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		log.Debug("no member for contact email", "email", email)
		return nil
	}
	if err != nil {
		log.Warn("member lookup failed, treating as guest purchase", "error", err)
		return nil
	}

	return member
}

// reconcileLineItem locates the drop for one line item and applies its
// quantity. Returns a tagged outcome; never an error.
func (r *Reconciler) reconcileLineItem(ctx context.Context, item models.LineItem, member *models.Member, orderRef string, log *logger.Logger) models.LineItemOutcome {
	outcome := models.LineItemOutcome{
		Title:     item.Title,
		ProductID: item.ProductID,
		VariantID: item.VariantID,
		Quantity:  item.Quantity,
	}

	drop, match := r.findDrop(ctx, item, log)
	if drop == nil {
		outcome.Status = models.OutcomeNotFound
		log.Warn("no drop matches line item",
			"product_id", item.ProductID,
			"variant_id", item.VariantID,
			"title", item.Title,
		)
		return outcome
	}

	outcome.DropID = &drop.ID
	outcome.Match = match
	dropLog := log.WithDropID(drop.ID.String())

	newSold, available, err := r.drops.IncrementSold(ctx, drop.ID, item.Quantity)
	if err != nil {
		outcome.Status = models.OutcomeUpdateFailed
		outcome.Error = err.Error()
		dropLog.Error("sold-quantity update failed", "error", err)
		return outcome
	}

	outcome.Status = models.OutcomeUpdated
	outcome.PreviousSold = newSold - item.Quantity
	outcome.NewSold = newSold
	outcome.Remaining = available - newSold

	dropLog.Info("drop inventory updated",
		"previous_sold", outcome.PreviousSold,
		"new_sold", newSold,
		"remaining", outcome.Remaining,
	)

	if member != nil {
		outcome.Participation = r.recordParticipation(ctx, member.ID, drop.ID, item.Quantity, orderRef, dropLog)
	}

	return outcome
}

// findDrop tries the ordered candidate references and returns the first
// match. Lookup errors on one candidate fall through to the next.
func (r *Reconciler) findDrop(ctx context.Context, item models.LineItem, log *logger.Logger) (*models.Drop, models.MatchKind) {
	candidates := []refCandidate{
		{kind: models.MatchProduct, ref: fmt.Sprintf("%d", item.ProductID)},
		{kind: models.MatchVariant, ref: fmt.Sprintf("gid://shopify/ProductVariant/%d", item.VariantID)},
	}

	for _, candidate := range candidates {
		drop, err := r.drops.GetByShopifyRef(ctx, candidate.ref)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			log.Warn("drop lookup failed for candidate", "ref", candidate.ref, "error", err)
			continue
		}
		return drop, candidate.kind
	}

	return nil, ""
}

// recordParticipation inserts the purchase-participation fact unless one
// already exists for the (member, drop, order) triple
func (r *Reconciler) recordParticipation(ctx context.Context, memberID, dropID uuid.UUID, qty int, orderRef string, log *logger.Logger) models.ParticipationStatus {
	exists, err := r.participation.Exists(ctx, memberID, dropID, orderRef)
	if err != nil {
		log.Warn("participation existence check failed", "member_id", memberID, "error", err)
		return models.ParticipationFailed
	}

	if exists {
		log.Info("participation already recorded, skipping",
			"member_id", memberID,
			"order_ref", orderRef,
		)
		return models.ParticipationExisting
	}

	p := &models.Participation{
		ID:              uuid.New(),
		MemberID:        memberID,
		DropID:          dropID,
		Purchased:       true,
		Quantity:        qty,
		ShopifyOrderRef: orderRef,
		CreatedAt:       time.Now().UTC(),
	}

	if err := r.participation.Create(ctx, p); err != nil {
		log.Warn("participation insert failed", "member_id", memberID, "error", err)
		return models.ParticipationFailed
	}

	return models.ParticipationRecorded
}
