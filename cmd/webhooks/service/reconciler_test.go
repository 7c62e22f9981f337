package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/atelierclub/drops/cmd/webhooks/models"
	"github.com/atelierclub/drops/cmd/webhooks/repository"
	"github.com/atelierclub/drops/common/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDropStore implements DropStore backed by an in-memory map
type mockDropStore struct {
	dropsByRef    map[string]*models.Drop
	failIncrement map[uuid.UUID]error
	lookupErr     error
	lookupCalls   int
}

func newMockDropStore(drops ...*models.Drop) *mockDropStore {
	m := &mockDropStore{
		dropsByRef:    make(map[string]*models.Drop),
		failIncrement: make(map[uuid.UUID]error),
	}
	for _, d := range drops {
		m.dropsByRef[d.ShopifyRef] = d
	}
	return m
}

func (m *mockDropStore) GetByShopifyRef(ctx context.Context, ref string) (*models.Drop, error) {
	m.lookupCalls++
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	drop, ok := m.dropsByRef[ref]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return drop, nil
}

func (m *mockDropStore) IncrementSold(ctx context.Context, dropID uuid.UUID, qty int) (int, int, error) {
	if err := m.failIncrement[dropID]; err != nil {
		return 0, 0, err
	}
	for _, d := range m.dropsByRef {
		if d.ID == dropID {
			d.QuantitySold += qty
			return d.QuantitySold, d.QuantityAvailable, nil
		}
	}
	return 0, 0, repository.ErrNotFound
}

// mockMemberStore implements MemberStore
type mockMemberStore struct {
	membersByEmail map[string]*models.Member
	err            error
}

func (m *mockMemberStore) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	if m.err != nil {
		return nil, m.err
	}
	member, ok := m.membersByEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return member, nil
}

// mockParticipationStore implements ParticipationStore
type mockParticipationStore struct {
	created   []*models.Participation
	existsErr error
	createErr error
}

func participationKey(memberID, dropID uuid.UUID, orderRef string) string {
	return fmt.Sprintf("%s/%s/%s", memberID, dropID, orderRef)
}

func (m *mockParticipationStore) Exists(ctx context.Context, memberID, dropID uuid.UUID, orderRef string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	key := participationKey(memberID, dropID, orderRef)
	for _, p := range m.created {
		if participationKey(p.MemberID, p.DropID, p.ShopifyOrderRef) == key {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockParticipationStore) Create(ctx context.Context, p *models.Participation) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, p)
	return nil
}

// mockMarker implements DeliveryMarker
type mockMarker struct {
	seen map[string]bool
	err  error
}

func (m *mockMarker) SetNX(ctx context.Context, key, value string, expiry time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

func testReconciler(drops *mockDropStore, members *mockMemberStore, participation *mockParticipationStore, marker DeliveryMarker) *Reconciler {
	log := logger.New("error", "json")
	return NewReconciler(drops, members, participation, marker, time.Hour, log)
}

func testDrop(ref string, available, sold int) *models.Drop {
	return &models.Drop{
		ID:                uuid.New(),
		ShopifyRef:        ref,
		Title:             "Drop " + ref,
		QuantityAvailable: available,
		QuantitySold:      sold,
	}
}

func testOrder(lineItems ...models.LineItem) *models.OrderEvent {
	return &models.OrderEvent{
		ID:          5551001,
		OrderNumber: 1001,
		Email:       "member@example.com",
		CreatedAt:   "2026-08-30T12:00:00Z",
		LineItems:   lineItems,
	}
}

func TestProcessOrder_UpdatesInventoryAndRecordsParticipation(t *testing.T) {
	drop := testDrop("8412667248761", 20, 10)
	drops := newMockDropStore(drop)
	member := &models.Member{ID: uuid.New(), ProfileID: uuid.New()}
	members := &mockMemberStore{membersByEmail: map[string]*models.Member{"member@example.com": member}}
	participation := &mockParticipationStore{}

	r := testReconciler(drops, members, participation, nil)
	event := testOrder(models.LineItem{ProductID: 8412667248761, VariantID: 1, Quantity: 3, Title: "Silk Scarf"})

	result := r.ProcessOrder(context.Background(), event)

	assert.True(t, result.MemberFound)
	require.Len(t, result.Outcomes, 1)

	outcome := result.Outcomes[0]
	assert.Equal(t, models.OutcomeUpdated, outcome.Status)
	assert.Equal(t, models.MatchProduct, outcome.Match)
	assert.Equal(t, 10, outcome.PreviousSold)
	assert.Equal(t, 13, outcome.NewSold)
	assert.Equal(t, 7, outcome.Remaining)
	assert.Equal(t, models.ParticipationRecorded, outcome.Participation)

	require.Len(t, participation.created, 1)
	assert.Equal(t, member.ID, participation.created[0].MemberID)
	assert.Equal(t, drop.ID, participation.created[0].DropID)
	assert.True(t, participation.created[0].Purchased)
	assert.Equal(t, 3, participation.created[0].Quantity)
	assert.Equal(t, "5551001", participation.created[0].ShopifyOrderRef)
}

func TestProcessOrder_VariantRefFallback(t *testing.T) {
	drop := testDrop("gid://shopify/ProductVariant/46254130299001", 5, 0)
	drops := newMockDropStore(drop)
	members := &mockMemberStore{}
	participation := &mockParticipationStore{}

	r := testReconciler(drops, members, participation, nil)
	event := testOrder(models.LineItem{ProductID: 999, VariantID: 46254130299001, Quantity: 1, Title: "Leather Tote"})

	result := r.ProcessOrder(context.Background(), event)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, models.OutcomeUpdated, result.Outcomes[0].Status)
	assert.Equal(t, models.MatchVariant, result.Outcomes[0].Match)
}

func TestProcessOrder_GuestPurchase(t *testing.T) {
	drop := testDrop("100", 10, 0)
	drops := newMockDropStore(drop)
	members := &mockMemberStore{}
	participation := &mockParticipationStore{}

	r := testReconciler(drops, members, participation, nil)
	event := testOrder(models.LineItem{ProductID: 100, VariantID: 1, Quantity: 2, Title: "Candle"})
	event.Email = "guest@example.com"

	result := r.ProcessOrder(context.Background(), event)

	assert.False(t, result.MemberFound)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, models.OutcomeUpdated, result.Outcomes[0].Status)
	assert.Empty(t, result.Outcomes[0].Participation)
	assert.Empty(t, participation.created)
}

func TestProcessOrder_MemberLookupErrorDegradesToGuest(t *testing.T) {
	drop := testDrop("100", 10, 0)
	drops := newMockDropStore(drop)
	members := &mockMemberStore{err: errors.New("connection refused")}
	participation := &mockParticipationStore{}

	r := testReconciler(drops, members, participation, nil)
	result := r.ProcessOrder(context.Background(), testOrder(models.LineItem{ProductID: 100, VariantID: 1, Quantity: 1}))

	assert.False(t, result.MemberFound)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, models.OutcomeUpdated, result.Outcomes[0].Status)
}

func TestProcessOrder_LineItemNotFoundIsIsolated(t *testing.T) {
	drop := testDrop("100", 10, 4)
	drops := newMockDropStore(drop)
	members := &mockMemberStore{}
	participation := &mockParticipationStore{}

	r := testReconciler(drops, members, participation, nil)
	event := testOrder(
		models.LineItem{ProductID: 100, VariantID: 1, Quantity: 2, Title: "Known"},
		models.LineItem{ProductID: 404, VariantID: 404, Quantity: 1, Title: "Unknown"},
	)

	result := r.ProcessOrder(context.Background(), event)

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, models.OutcomeUpdated, result.Outcomes[0].Status)
	assert.Equal(t, 6, result.Outcomes[0].NewSold)
	assert.Equal(t, models.OutcomeNotFound, result.Outcomes[1].Status)
	assert.Nil(t, result.Outcomes[1].DropID)

	// Only the matched item touched inventory
	assert.Equal(t, 6, drop.QuantitySold)
}

func TestProcessOrder_UpdateFailureIsIsolated(t *testing.T) {
	broken := testDrop("100", 10, 0)
	healthy := testDrop("200", 10, 0)
	drops := newMockDropStore(broken, healthy)
	drops.failIncrement[broken.ID] = errors.New("deadlock detected")
	members := &mockMemberStore{}
	participation := &mockParticipationStore{}

	r := testReconciler(drops, members, participation, nil)
	event := testOrder(
		models.LineItem{ProductID: 100, VariantID: 1, Quantity: 1, Title: "Broken"},
		models.LineItem{ProductID: 200, VariantID: 2, Quantity: 1, Title: "Healthy"},
	)

	result := r.ProcessOrder(context.Background(), event)

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, models.OutcomeUpdateFailed, result.Outcomes[0].Status)
	assert.Contains(t, result.Outcomes[0].Error, "deadlock")
	assert.Equal(t, models.OutcomeUpdated, result.Outcomes[1].Status)
	assert.Equal(t, 1, healthy.QuantitySold)
}

func TestProcessOrder_ParticipationIdempotentAcrossRedelivery(t *testing.T) {
	drop := testDrop("100", 20, 0)
	drops := newMockDropStore(drop)
	member := &models.Member{ID: uuid.New(), ProfileID: uuid.New()}
	members := &mockMemberStore{membersByEmail: map[string]*models.Member{"member@example.com": member}}
	participation := &mockParticipationStore{}
	marker := &mockMarker{}

	r := testReconciler(drops, members, participation, marker)
	event := testOrder(models.LineItem{ProductID: 100, VariantID: 1, Quantity: 3, Title: "Scarf"})

	first := r.ProcessOrder(context.Background(), event)
	second := r.ProcessOrder(context.Background(), event)

	// Inventory accounting is deliberately not idempotent: each delivery applies
	assert.Equal(t, 6, drop.QuantitySold)

	// Participation is idempotent per external order reference
	require.Len(t, participation.created, 1)
	assert.Equal(t, models.ParticipationRecorded, first.Outcomes[0].Participation)
	assert.Equal(t, models.ParticipationExisting, second.Outcomes[0].Participation)

	// The redelivery marker flags the second pass
	assert.False(t, first.Redelivery)
	assert.True(t, second.Redelivery)
}

func TestProcessOrder_ParticipationInsertFailureIsNonFatal(t *testing.T) {
	drop := testDrop("100", 10, 0)
	drops := newMockDropStore(drop)
	member := &models.Member{ID: uuid.New(), ProfileID: uuid.New()}
	members := &mockMemberStore{membersByEmail: map[string]*models.Member{"member@example.com": member}}
	participation := &mockParticipationStore{createErr: errors.New("insert failed")}

	r := testReconciler(drops, members, participation, nil)
	result := r.ProcessOrder(context.Background(), testOrder(models.LineItem{ProductID: 100, VariantID: 1, Quantity: 1}))

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, models.OutcomeUpdated, result.Outcomes[0].Status)
	assert.Equal(t, models.ParticipationFailed, result.Outcomes[0].Participation)
}

func TestProcessOrder_MarkerErrorIsIgnored(t *testing.T) {
	drop := testDrop("100", 10, 0)
	drops := newMockDropStore(drop)
	members := &mockMemberStore{}
	participation := &mockParticipationStore{}
	marker := &mockMarker{err: errors.New("redis down")}

	r := testReconciler(drops, members, participation, marker)
	result := r.ProcessOrder(context.Background(), testOrder(models.LineItem{ProductID: 100, VariantID: 1, Quantity: 1}))

	assert.False(t, result.Redelivery)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, models.OutcomeUpdated, result.Outcomes[0].Status)
}
