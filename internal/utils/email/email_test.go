package email

import (
	"context"
	"errors"
	"io"
	"net/smtp"
	"strings"
	"testing"

	"github.com/Dan9191/bank-autopay/internal/config"
	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/Dan9191/bank-autopay/internal/service"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

type mockUserLookup struct {
	getFn func(userID string) (*models.User, error)
}

func (m *mockUserLookup) GetUser(_ context.Context, userID string) (*models.User, error) {
	if m.getFn != nil {
		return m.getFn(userID)
	}
	return nil, errors.New("not configured")
}

func testSender(send SendFunc) *Sender {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := NewSender(&config.Config{
		SMTPHost:    "smtp.example.com",
		SMTPPort:    "587",
		SenderEmail: "noreply@bank.local",
	}, log)
	s.send = send
	return s
}

func TestNotificationHook_SendsEmail(t *testing.T) {
	var sent *email.Email
	var sentAddr string
	sender := testSender(func(e *email.Email, addr string, _ smtp.Auth) error {
		sent, sentAddr = e, addr
		return nil
	})
	users := &mockUserLookup{getFn: func(userID string) (*models.User, error) {
		return &models.User{ID: userID, Email: "alice@example.com", Username: "alice"}, nil
	}}
	hook := NewNotificationHook(sender, users)

	outcome := service.SettlementOutcome{
		Payment: models.AutomatedPayment{ID: "pay-1", UserID: "usr-001", Type: models.PaymentTypeBill, Amount: 500},
		Status:  models.PaymentStatusInsufficientFunds,
	}
	if err := hook.AfterSettlement(context.Background(), outcome); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sent == nil {
		t.Fatal("expected an email to be sent")
	}
	if sentAddr != "smtp.example.com:587" {
		t.Errorf("unexpected smtp address %s", sentAddr)
	}
	if len(sent.To) != 1 || sent.To[0] != "alice@example.com" || sent.From != "noreply@bank.local" {
		t.Errorf("unexpected envelope from=%s to=%v", sent.From, sent.To)
	}
	if sent.Subject != "Insufficient Funds" {
		t.Errorf("unexpected subject %q", sent.Subject)
	}
	body := string(sent.Text)
	for _, want := range []string{"Dear alice", "500.00", "insufficient funds", "dashboard"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q: %q", want, body)
		}
	}
}

func TestNotificationHook_Errors(t *testing.T) {
	tests := []struct {
		name    string
		user    *models.User
		userErr error
		sendErr error
		wantErr bool
		wantHit bool
	}{
		{name: "user lookup fails", userErr: errors.New("db down"), wantErr: true},
		{name: "user without email is skipped", user: &models.User{ID: "usr-001"}},
		{name: "smtp failure is returned", user: &models.User{ID: "usr-001", Email: "a@example.com"}, sendErr: errors.New("535 auth failed"), wantErr: true, wantHit: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit := false
			sender := testSender(func(*email.Email, string, smtp.Auth) error {
				hit = true
				return tt.sendErr
			})
			users := &mockUserLookup{getFn: func(string) (*models.User, error) { return tt.user, tt.userErr }}
			err := NewNotificationHook(sender, users).AfterSettlement(context.Background(), service.SettlementOutcome{
				Payment: models.AutomatedPayment{UserID: "usr-001", Type: models.PaymentTypeLoan, Amount: 10},
				Status:  models.PaymentStatusFailed,
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
			if hit != tt.wantHit {
				t.Errorf("expected send called %v, got %v", tt.wantHit, hit)
			}
		})
	}
}
