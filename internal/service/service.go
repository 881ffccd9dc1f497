package service

import (
	"context"
	"errors"
	"time"

	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/Dan9191/bank-autopay/internal/repository"
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidTarget = errors.New("target id is required")
	ErrInvalidStatus = errors.New("invalid payment status")
	ErrInvalidDate   = errors.New("scheduled date is required")
)

// CreditStore is the persistence used by CreditScoreService
type CreditStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetAccountByUserID(ctx context.Context, userID string) (*models.Account, error)
	ListTransactions(ctx context.Context, userID string, since time.Time) ([]models.Transaction, error)
	ListLoans(ctx context.Context, userID string) ([]models.Loan, error)
	UpdateCreditScore(ctx context.Context, userID string, score int) error
	AdjustCreditScore(ctx context.Context, userID string, delta int) (int, error)
}

// OverdraftStore is the persistence used by OverdraftService
type OverdraftStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	CreateOverdraft(ctx context.Context, od *models.Overdraft) error
	GetOverdraft(ctx context.Context, overdraftID string) (*models.Overdraft, error)
	ListOverdrafts(ctx context.Context, userID string, status models.OverdraftStatus) ([]models.Overdraft, error)
	RepayOverdraft(ctx context.Context, overdraftID string, amount float64, now time.Time) (*models.Overdraft, error)
	MarkOverdueOverdrafts(ctx context.Context, now time.Time) (int64, error)
}

// PaymentStore is the persistence used by AutomatedPaymentService
type PaymentStore interface {
	GetAccountByUserID(ctx context.Context, userID string) (*models.Account, error)
	CreatePayments(ctx context.Context, payments []*models.AutomatedPayment) error
	GetPayment(ctx context.Context, paymentID string) (*models.AutomatedPayment, error)
	ListDuePayments(ctx context.Context, q repository.DueQuery) ([]models.AutomatedPayment, error)
	ListPayments(ctx context.Context, userID string, status models.PaymentStatus) ([]models.AutomatedPayment, error)
	ListUsersWithDuePayments(ctx context.Context, now time.Time) ([]string, error)
	ExecuteAutomatedPayment(ctx context.Context, p repository.ExecutePaymentParams) error
	ExecuteAutomatedPaymentWithOverdraft(ctx context.Context, p repository.ExecutePaymentParams, od *models.Overdraft) error
	UpdatePaymentStatus(ctx context.Context, paymentID string, status models.PaymentStatus, errMsg string, processedAt time.Time) (bool, error)
	CancelPayment(ctx context.Context, userID, paymentID string) (bool, error)
}

// NotificationStore is the persistence for payment notifications
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.PaymentNotification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.PaymentNotification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
}

// ScoreCache caches computed credit scores per user
type ScoreCache interface {
	Get(ctx context.Context, userID string) (*models.CreditScoreData, bool)
	Set(ctx context.Context, userID string, data *models.CreditScoreData)
	Delete(ctx context.Context, userID string)
}

// KeyRateSource provides the reference central bank key rate in percent
type KeyRateSource interface {
	GetKeyRate(ctx context.Context) (float64, error)
}

// Capability holds an optional collaborator. The zero value is unavailable,
// so callers must go through Get and handle absence explicitly.
type Capability[T any] struct {
	impl T
	ok   bool
}

// Available wraps a present collaborator
func Available[T any](impl T) Capability[T] {
	return Capability[T]{impl: impl, ok: true}
}

// Unavailable returns an absent capability
func Unavailable[T any]() Capability[T] {
	return Capability[T]{}
}

// Get returns the collaborator and whether it is present
func (c Capability[T]) Get() (T, bool) {
	return c.impl, c.ok
}

type clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}
