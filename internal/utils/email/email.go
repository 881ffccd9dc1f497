package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/Dan9191/bank-autopay/internal/config"
	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/Dan9191/bank-autopay/internal/service"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// SendFunc delivers a prepared message
type SendFunc func(e *email.Email, addr string, auth smtp.Auth) error

func smtpSend(e *email.Email, addr string, auth smtp.Auth) error {
	return e.Send(addr, auth)
}

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   SendFunc
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send:   smtpSend,
	}
}

// SendPaymentNotification emails a settlement notification to the user
func (s *Sender) SendPaymentNotification(to, username string, n *models.PaymentNotification) error {
	e := s.buildPaymentEmail(to, username, n)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send %s notification to %s: %v", n.Type, to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func (s *Sender) buildPaymentEmail(to, username string, n *models.PaymentNotification) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = n.Title

	body := fmt.Sprintf("Dear %s,\n\n", username)
	body += n.Message + "\n"
	if n.Type == models.NotificationInsufficientFunds {
		body += "You can review scheduled payments and overdraft terms in your dashboard.\n"
	}
	body += "\nBest regards,\nBank Service"
	e.Text = []byte(body)
	return e
}

// UserLookup resolves the recipient of a notification
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// NotificationHook emails the user after each settlement outcome
type NotificationHook struct {
	sender *Sender
	users  UserLookup
}

func NewNotificationHook(sender *Sender, users UserLookup) *NotificationHook {
	return &NotificationHook{sender: sender, users: users}
}

func (h *NotificationHook) Name() string { return "email" }

func (h *NotificationHook) AfterSettlement(ctx context.Context, outcome service.SettlementOutcome) error {
	user, err := h.users.GetUser(ctx, outcome.Payment.UserID)
	if err != nil {
		return fmt.Errorf("failed to load recipient: %w", err)
	}
	if user.Email == "" {
		return nil
	}
	return h.sender.SendPaymentNotification(user.Email, user.Username, service.BuildNotification(outcome))
}
