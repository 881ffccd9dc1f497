package service

import (
	"context"
	"fmt"

	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/Dan9191/bank-autopay/internal/utils"
	"github.com/google/uuid"
)

// SettlementOutcome describes a payment that has just reached a terminal status.
// Reason holds the raw failure or denial reason and is empty on success.
type SettlementOutcome struct {
	Payment   models.AutomatedPayment
	Status    models.PaymentStatus
	Overdraft *models.Overdraft
	Reason    string
}

// SettlementHook runs after a payment's terminal transition is stored
type SettlementHook interface {
	Name() string
	AfterSettlement(ctx context.Context, outcome SettlementOutcome) error
}

type hookFunc struct {
	name string
	fn   func(ctx context.Context, outcome SettlementOutcome) error
}

func (h hookFunc) Name() string { return h.name }

func (h hookFunc) AfterSettlement(ctx context.Context, outcome SettlementOutcome) error {
	return h.fn(ctx, outcome)
}

// HookFunc adapts a function to SettlementHook
func HookFunc(name string, fn func(ctx context.Context, outcome SettlementOutcome) error) SettlementHook {
	return hookFunc{name: name, fn: fn}
}

// NotificationHook stores a PaymentNotification for every outcome
type NotificationHook struct {
	store NotificationStore
	now   clock
}

func NewNotificationHook(store NotificationStore) *NotificationHook {
	return &NotificationHook{store: store, now: systemClock}
}

func (h *NotificationHook) Name() string { return "notification" }

func (h *NotificationHook) AfterSettlement(ctx context.Context, outcome SettlementOutcome) error {
	n := BuildNotification(outcome)
	n.ID = uuid.NewString()
	n.CreatedAt = h.now()
	if err := h.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// BuildNotification renders the user-facing notification for an outcome.
// Raw failure reasons stay in the payment's error message and are not shown.
func BuildNotification(outcome SettlementOutcome) *models.PaymentNotification {
	p := outcome.Payment
	n := &models.PaymentNotification{
		UserID:           p.UserID,
		RelatedPaymentID: p.ID,
	}
	amount := utils.FormatAmount(p.Amount)
	switch outcome.Status {
	case models.PaymentStatusCompleted:
		n.Type = models.NotificationPaymentSuccess
		n.Title = "Payment Successful"
		n.Message = fmt.Sprintf("Your automated %s payment of %s was processed successfully.", p.Type, amount)
		if od := outcome.Overdraft; od != nil {
			n.Message = fmt.Sprintf(
				"Your automated %s payment of %s was processed using overdraft protection. Overdraft used: %s, fee: %s, due by %s.",
				p.Type, amount, utils.FormatAmount(od.Amount), utils.FormatAmount(od.Fee), od.DueDate.Format("2006-01-02"),
			)
		}
	case models.PaymentStatusInsufficientFunds:
		n.Type = models.NotificationInsufficientFunds
		n.Title = "Insufficient Funds"
		n.Message = fmt.Sprintf("Your automated %s payment of %s could not be processed due to insufficient funds. Please add funds to your account and reschedule the payment.", p.Type, amount)
	default:
		n.Type = models.NotificationPaymentFailed
		n.Title = "Payment Failed"
		n.Message = fmt.Sprintf("Your automated %s payment of %s could not be processed. Please try again later or contact support.", p.Type, amount)
	}
	return n
}

// ScoreRefresher recomputes and stores a user's credit score
type ScoreRefresher interface {
	UpdateCreditScore(ctx context.Context, userID string) (*models.CreditScoreData, error)
}

// ScoreRefreshHook recomputes the credit score after every settlement
type ScoreRefreshHook struct {
	scores ScoreRefresher
}

func NewScoreRefreshHook(scores ScoreRefresher) *ScoreRefreshHook {
	return &ScoreRefreshHook{scores: scores}
}

func (h *ScoreRefreshHook) Name() string { return "credit_score_refresh" }

func (h *ScoreRefreshHook) AfterSettlement(ctx context.Context, outcome SettlementOutcome) error {
	if _, err := h.scores.UpdateCreditScore(ctx, outcome.Payment.UserID); err != nil {
		return fmt.Errorf("failed to refresh credit score: %w", err)
	}
	return nil
}
