package events

import (
	"context"

	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/Dan9191/bank-autopay/internal/service"
)

// SettlementHook publishes every settlement outcome to the event stream
type SettlementHook struct {
	publisher *Publisher
}

func NewSettlementHook(publisher *Publisher) *SettlementHook {
	return &SettlementHook{publisher: publisher}
}

func (h *SettlementHook) Name() string { return "event_stream" }

func (h *SettlementHook) AfterSettlement(ctx context.Context, outcome service.SettlementOutcome) error {
	eventType, event := NewPaymentSettledEvent(outcome)
	return h.publisher.Publish(ctx, eventType, event)
}

// NewPaymentSettledEvent maps an outcome to its event type and payload
func NewPaymentSettledEvent(outcome service.SettlementOutcome) (string, PaymentSettledEvent) {
	p := outcome.Payment
	event := PaymentSettledEvent{
		PaymentID:   p.ID,
		UserID:      p.UserID,
		PaymentType: string(p.Type),
		TargetID:    p.TargetID,
		Amount:      p.Amount,
		Status:      string(outcome.Status),
	}
	if p.ProcessedAt != nil {
		event.ProcessedAt = *p.ProcessedAt
	}
	if od := outcome.Overdraft; od != nil {
		event.OverdraftID = od.ID
		event.OverdraftAmount = od.Amount
		event.OverdraftFee = od.Fee
	}

	switch outcome.Status {
	case models.PaymentStatusCompleted:
		return PaymentCompleted, event
	case models.PaymentStatusInsufficientFunds:
		return PaymentInsufficientFunds, event
	default:
		return PaymentFailed, event
	}
}
