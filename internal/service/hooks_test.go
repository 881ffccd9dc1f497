package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/bank-autopay/internal/models"
)

type mockScoreRefresher struct {
	updateFn func(userID string) (*models.CreditScoreData, error)
}

func (m *mockScoreRefresher) UpdateCreditScore(_ context.Context, userID string) (*models.CreditScoreData, error) {
	if m.updateFn != nil {
		return m.updateFn(userID)
	}
	return nil, errors.New("not configured")
}

func TestBuildNotification(t *testing.T) {
	payment := models.AutomatedPayment{ID: "pay-1", UserID: "usr-001", Type: models.PaymentTypeBill, Amount: 8000}
	overdraft := &models.Overdraft{Amount: 3000, Fee: 75, DueDate: time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		name         string
		outcome      SettlementOutcome
		wantType     models.NotificationType
		wantContains []string
		wantMissing  []string
	}{
		{
			name:         "direct success",
			outcome:      SettlementOutcome{Payment: payment, Status: models.PaymentStatusCompleted},
			wantType:     models.NotificationPaymentSuccess,
			wantContains: []string{"8000.00", "successfully"},
			wantMissing:  []string{"overdraft"},
		},
		{
			name:         "success with overdraft",
			outcome:      SettlementOutcome{Payment: payment, Status: models.PaymentStatusCompleted, Overdraft: overdraft},
			wantType:     models.NotificationPaymentSuccess,
			wantContains: []string{"overdraft protection", "3000.00", "75.00", "2024-07-15"},
		},
		{
			name:         "insufficient funds",
			outcome:      SettlementOutcome{Payment: payment, Status: models.PaymentStatusInsufficientFunds, Reason: reasonLimitExceeded},
			wantType:     models.NotificationInsufficientFunds,
			wantContains: []string{"insufficient funds"},
		},
		{
			name:         "failure hides the raw reason",
			outcome:      SettlementOutcome{Payment: payment, Status: models.PaymentStatusFailed, Reason: "pq: deadlock detected"},
			wantType:     models.NotificationPaymentFailed,
			wantContains: []string{"could not be processed"},
			wantMissing:  []string{"deadlock"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := BuildNotification(tt.outcome)
			if n.Type != tt.wantType {
				t.Errorf("expected type %s, got %s", tt.wantType, n.Type)
			}
			if n.UserID != "usr-001" || n.RelatedPaymentID != "pay-1" || n.Title == "" {
				t.Errorf("unexpected notification %+v", n)
			}
			for _, s := range tt.wantContains {
				if !strings.Contains(n.Message, s) {
					t.Errorf("expected message to contain %q: %q", s, n.Message)
				}
			}
			for _, s := range tt.wantMissing {
				if strings.Contains(n.Message, s) {
					t.Errorf("expected message not to contain %q: %q", s, n.Message)
				}
			}
		})
	}
}

func TestScoreRefreshHook(t *testing.T) {
	var refreshed string
	hook := NewScoreRefreshHook(&mockScoreRefresher{updateFn: func(userID string) (*models.CreditScoreData, error) {
		refreshed = userID
		return DefaultCreditScoreData(), nil
	}})
	outcome := SettlementOutcome{Payment: models.AutomatedPayment{UserID: "usr-001"}, Status: models.PaymentStatusCompleted}
	if err := hook.AfterSettlement(context.Background(), outcome); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refreshed != "usr-001" {
		t.Errorf("expected refresh for usr-001, got %q", refreshed)
	}

	failing := NewScoreRefreshHook(&mockScoreRefresher{})
	if err := failing.AfterSettlement(context.Background(), outcome); err == nil {
		t.Error("expected refresh error to be returned")
	}
}

func TestNotificationService(t *testing.T) {
	f := newFixture(t, 0, 300, true)
	for i := 0; i < 3; i++ {
		bill := f.addBill(t, 100)
		f.scheduleBill(t, bill.ID, 100, testNow.Add(-time.Duration(i+1)*time.Hour))
	}
	if _, err := f.payments.ProcessAutomatedPayments(context.Background(), f.user.ID); err != nil {
		t.Fatalf("settle: %v", err)
	}

	svc := NewNotificationService(f.store, testLogger())
	ctx := context.Background()
	all, err := svc.GetNotifications(ctx, f.user.ID, false)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 notifications, got %d (%v)", len(all), err)
	}

	ok, err := svc.MarkNotificationRead(ctx, f.user.ID, all[0].ID)
	if err != nil || !ok {
		t.Fatalf("expected mark read to succeed, got %v %v", ok, err)
	}
	if ok, _ := svc.MarkNotificationRead(ctx, "intruder", all[1].ID); ok {
		t.Error("expected another user's notification to be untouched")
	}
	if n, _ := svc.UnreadNotificationCount(ctx, f.user.ID); n != 2 {
		t.Errorf("expected 2 unread, got %d", n)
	}
	if n, _ := svc.MarkAllNotificationsRead(ctx, f.user.ID); n != 2 {
		t.Errorf("expected 2 marked, got %d", n)
	}
	unread, _ := svc.GetNotifications(ctx, f.user.ID, true)
	if len(unread) != 0 {
		t.Errorf("expected no unread notifications, got %d", len(unread))
	}
}
