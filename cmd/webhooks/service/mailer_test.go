package service

import (
	"context"
	"errors"
	"testing"

	"github.com/atelierclub/drops/cmd/webhooks/models"
	"github.com/atelierclub/drops/common/clients"
	"github.com/atelierclub/drops/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []clients.EmailMessage
	err  error
}

func (s *recordingSender) Send(ctx context.Context, msg clients.EmailMessage) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestSendOrderSummary_ComposesOutcomeLines(t *testing.T) {
	sender := &recordingSender{}
	m := NewMailer(sender, "orders@atelierclub.com", []string{"ops@atelierclub.com"}, logger.New("error", "json"))

	event := testOrder()
	result := &models.OrderResult{
		OrderID:     event.ID,
		OrderNumber: event.OrderNumber,
		MemberFound: true,
		Outcomes: []models.LineItemOutcome{
			{Status: models.OutcomeUpdated, Title: "Silk Scarf", Quantity: 3, PreviousSold: 10, NewSold: 13, Remaining: 7},
			{Status: models.OutcomeNotFound, Title: "Unknown Item", Quantity: 1, ProductID: 404, VariantID: 404},
			{Status: models.OutcomeUpdateFailed, Title: "Broken Item", Quantity: 2, Error: "deadlock detected"},
		},
	}

	m.SendOrderSummary(context.Background(), event, result)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "orders@atelierclub.com", msg.From)
	assert.Equal(t, []string{"ops@atelierclub.com"}, msg.To)
	assert.Equal(t, "Order #1001 reconciled", msg.Subject)
	assert.Contains(t, msg.HTML, "✅")
	assert.Contains(t, msg.HTML, "sold 10 -&gt; 13, 7 remaining")
	assert.Contains(t, msg.HTML, "⚠️")
	assert.Contains(t, msg.HTML, "no matching drop (product 404, variant 404)")
	assert.Contains(t, msg.HTML, "❌")
	assert.Contains(t, msg.HTML, "deadlock detected")
}

func TestSendOrderSummary_ProviderFailureIsSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("provider 500")}
	m := NewMailer(sender, "orders@atelierclub.com", []string{"ops@atelierclub.com"}, logger.New("error", "json"))

	// Must not panic or propagate
	m.SendOrderSummary(context.Background(), testOrder(), &models.OrderResult{})
	assert.Empty(t, sender.sent)
}

func TestSendOrderSummary_NoProviderConfigured(t *testing.T) {
	m := NewMailer(nil, "orders@atelierclub.com", []string{"ops@atelierclub.com"}, logger.New("error", "json"))

	// nil sender is valid: summary is logged and dropped
	m.SendOrderSummary(context.Background(), testOrder(), &models.OrderResult{})
}
