package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/atelierclub/drops/cmd/webhooks/models"
	"github.com/atelierclub/drops/common/clients"
	"github.com/atelierclub/drops/common/logger"
)

// Sender delivers a composed email. Satisfied by clients.ResendClient.
type Sender interface {
	Send(ctx context.Context, msg clients.EmailMessage) error
}

// Mailer composes and sends operator-facing order summaries.
// Notification is observability, not correctness: every failure here is
// logged and swallowed so the webhook response is never affected.
type Mailer struct {
	sender    Sender
	from      string
	operators []string
	log       *logger.Logger
}

// NewMailer creates a new mailer. sender may be nil when no email provider
// is configured; summaries are then logged and dropped.
func NewMailer(sender Sender, from string, operators []string, log *logger.Logger) *Mailer {
	return &Mailer{
		sender:    sender,
		from:      from,
		operators: operators,
		log:       log,
	}
}

// SendOrderSummary emails operators one summary per processed order
func (m *Mailer) SendOrderSummary(ctx context.Context, event *models.OrderEvent, result *models.OrderResult) {
	if m.sender == nil || len(m.operators) == 0 {
		m.log.Debug("email provider not configured, skipping order summary", "order_id", event.ID)
		return
	}

	msg := clients.EmailMessage{
		From:    m.from,
		To:      m.operators,
		Subject: fmt.Sprintf("Order #%d reconciled", event.OrderNumber),
		HTML:    m.composeSummary(event, result),
	}

	if err := m.sender.Send(ctx, msg); err != nil {
		m.log.Warn("order summary email failed", "order_id", event.ID, "error", err)
		return
	}

	m.log.Info("order summary email sent", "order_id", event.ID, "to", m.operators)
}

// composeSummary renders the per-line-item outcome list as HTML
func (m *Mailer) composeSummary(event *models.OrderEvent, result *models.OrderResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<h2>Order #%d</h2>", event.OrderNumber)
	fmt.Fprintf(&b, "<p>Email: %s<br>Created: %s<br>Member found: %v</p>",
		html.EscapeString(event.Email),
		html.EscapeString(event.CreatedAt),
		result.MemberFound,
	)
	if result.Redelivery {
		b.WriteString("<p><strong>Duplicate delivery of a previously seen order.</strong></p>")
	}

	b.WriteString("<ul>")
	for _, outcome := range result.Outcomes {
		fmt.Fprintf(&b, "<li>%s %s</li>", statusGlyph(outcome.Status), html.EscapeString(outcomeLine(outcome)))
	}
	b.WriteString("</ul>")

	return b.String()
}

func statusGlyph(status models.OutcomeStatus) string {
	switch status {
	case models.OutcomeUpdated:
		return "✅"
	case models.OutcomeNotFound:
		return "⚠️"
	case models.OutcomeUpdateFailed:
		return "❌"
	default:
		return "•"
	}
}

func outcomeLine(outcome models.LineItemOutcome) string {
	switch outcome.Status {
	case models.OutcomeUpdated:
		return fmt.Sprintf("%s x%d: sold %d -> %d, %d remaining",
			outcome.Title, outcome.Quantity, outcome.PreviousSold, outcome.NewSold, outcome.Remaining)
	case models.OutcomeNotFound:
		return fmt.Sprintf("%s x%d: no matching drop (product %d, variant %d)",
			outcome.Title, outcome.Quantity, outcome.ProductID, outcome.VariantID)
	case models.OutcomeUpdateFailed:
		return fmt.Sprintf("%s x%d: update failed: %s", outcome.Title, outcome.Quantity, outcome.Error)
	default:
		return outcome.Title
	}
}
