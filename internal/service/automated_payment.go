package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/Dan9191/bank-autopay/internal/repository"
	"github.com/Dan9191/bank-autopay/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RecurringBillOccurrences = 12
	RecurringLoanOccurrences = 24

	defaultPageSize = 100
	hookTimeout     = 10 * time.Second
	writeTimeout    = 5 * time.Second

	accountNotFoundMessage = "Account not found"
)

// OverdraftAuthorizer decides whether a shortfall may be covered by overdraft
type OverdraftAuthorizer interface {
	AuthorizeOverdraft(ctx context.Context, userID string, transactionAmount, currentBalance float64) (*models.OverdraftDecision, error)
}

// SettlementConfig tunes batch settlement
type SettlementConfig struct {
	PageSize       int
	PaymentTimeout time.Duration
}

// AutomatedPaymentService settles scheduled bill payments and loan repayments
type AutomatedPaymentService struct {
	store     PaymentStore
	overdraft OverdraftAuthorizer
	hooks     []SettlementHook
	log       *logrus.Logger
	now       clock
	pageSize  int
	timeout   time.Duration
}

// NewAutomatedPaymentService initializes the settlement service
func NewAutomatedPaymentService(store PaymentStore, overdraft OverdraftAuthorizer, log *logrus.Logger, cfg SettlementConfig) *AutomatedPaymentService {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &AutomatedPaymentService{
		store:     store,
		overdraft: overdraft,
		log:       log,
		now:       systemClock,
		pageSize:  pageSize,
		timeout:   cfg.PaymentTimeout,
	}
}

// Use appends hooks run after every terminal transition, in order
func (s *AutomatedPaymentService) Use(hooks ...SettlementHook) {
	s.hooks = append(s.hooks, hooks...)
}

// ProcessAutomatedPayments settles every pending payment of the user that is
// due now, one at a time in (scheduled_date, id) order. A failing payment is
// counted and the batch moves on; only a failure to list due payments is
// returned, together with the counters gathered so far.
func (s *AutomatedPaymentService) ProcessAutomatedPayments(ctx context.Context, userID string) (models.SettlementResult, error) {
	var result models.SettlementResult
	q := repository.DueQuery{UserID: userID, Now: s.now(), Limit: s.pageSize}
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		page, err := s.store.ListDuePayments(ctx, q)
		if err != nil {
			return result, fmt.Errorf("failed to list due payments: %w", err)
		}
		for i := range page {
			result.Processed++
			switch s.ProcessSinglePayment(ctx, &page[i]) {
			case models.PaymentStatusCompleted:
				result.Successful++
			case models.PaymentStatusFailed:
				result.Failed++
			case models.PaymentStatusInsufficientFunds:
				result.Insufficient++
			}
		}
		if len(page) < q.Limit {
			break
		}
		last := page[len(page)-1]
		q.AfterDate, q.AfterID = last.ScheduledDate, last.ID
	}

	if result.Processed > 0 {
		s.log.WithFields(logrus.Fields{
			"user_id":      userID,
			"processed":    result.Processed,
			"successful":   result.Successful,
			"failed":       result.Failed,
			"insufficient": result.Insufficient,
		}).Info("Automated payments processed")
	}
	return result, nil
}

// ProcessAllDuePayments runs settlement for every user with due payments
func (s *AutomatedPaymentService) ProcessAllDuePayments(ctx context.Context) (models.SettlementResult, error) {
	var total models.SettlementResult
	users, err := s.store.ListUsersWithDuePayments(ctx, s.now())
	if err != nil {
		return total, fmt.Errorf("failed to list users with due payments: %w", err)
	}
	for _, userID := range users {
		result, err := s.ProcessAutomatedPayments(ctx, userID)
		total.Add(result)
		if err != nil {
			if ctx.Err() != nil {
				return total, err
			}
			s.log.WithError(err).WithField("user_id", userID).Error("Settlement run failed for user")
		}
	}
	return total, nil
}

// ProcessSinglePayment drives one pending payment to a terminal status and
// returns it. An empty status means another actor moved the payment first, or
// the outcome could not be recorded and the payment is still pending.
func (s *AutomatedPaymentService) ProcessSinglePayment(ctx context.Context, payment *models.AutomatedPayment) models.PaymentStatus {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	logger := s.log.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"user_id":    payment.UserID,
		"type":       payment.Type,
		"amount":     payment.Amount,
	})

	return s.settle(ctx, payment, logger, true)
}

// settle decides between balance and overdraft and executes the decision.
// The store re-checks balance and overdraft limit under its lock; when the
// balance moved since it was read and retry is set, the decision is made once
// more from a fresh read.
func (s *AutomatedPaymentService) settle(ctx context.Context, payment *models.AutomatedPayment, logger *logrus.Entry, retry bool) models.PaymentStatus {
	account, err := s.store.GetAccountByUserID(ctx, payment.UserID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return s.fail(ctx, payment, accountNotFoundMessage)
	}
	if err != nil {
		return s.fail(ctx, payment, fmt.Sprintf("failed to load account: %v", err))
	}

	processedAt := s.now()
	var od *models.Overdraft
	if account.Balance >= payment.Amount {
		err = s.store.ExecuteAutomatedPayment(ctx, s.executeParams(payment, payment.Amount, nil, processedAt))
	} else {
		decision, authErr := s.overdraft.AuthorizeOverdraft(ctx, payment.UserID, payment.Amount, account.Balance)
		if authErr != nil {
			return s.fail(ctx, payment, authErr.Error())
		}
		if !decision.Allowed {
			logger.WithField("reason", decision.Reason).Info("Payment declined: insufficient funds")
			return s.insufficient(ctx, payment, decision.Reason)
		}
		balanceUsed := utils.MinAmount(utils.MaxAmount(account.Balance, 0), payment.Amount)
		od = NewOverdraftRecord(payment.UserID, payment.ID, decision, processedAt)
		err = s.store.ExecuteAutomatedPaymentWithOverdraft(ctx, s.executeParams(payment, balanceUsed, decision, processedAt), od)
	}

	switch {
	case err == nil:
	case errors.Is(err, repository.ErrInsufficientFunds) && retry:
		logger.Info("Balance changed before execution, deciding again")
		return s.settle(ctx, payment, logger, false)
	case errors.Is(err, repository.ErrOverdraftLimitExceeded):
		logger.Info("Payment declined: overdraft limit used by a concurrent settlement")
		return s.insufficient(ctx, payment, reasonLimitExceeded)
	default:
		return s.executionFailed(ctx, payment, err, logger)
	}

	if od != nil {
		logger.WithFields(logrus.Fields{
			"overdraft_id":     od.ID,
			"overdraft_amount": od.Amount,
			"overdraft_fee":    od.Fee,
		}).Info("Automated payment completed with overdraft")
	} else {
		logger.Info("Automated payment completed")
	}
	s.runHooks(ctx, completedOutcome(payment, processedAt, od))
	return models.PaymentStatusCompleted
}

// executeParams builds the execution arguments; decision is nil for a payment
// covered by the balance alone.
func (s *AutomatedPaymentService) executeParams(payment *models.AutomatedPayment, balanceUsed float64, decision *models.OverdraftDecision, processedAt time.Time) repository.ExecutePaymentParams {
	p := repository.ExecutePaymentParams{
		PaymentID:   payment.ID,
		UserID:      payment.UserID,
		Amount:      payment.Amount,
		BalanceUsed: balanceUsed,
		Type:        payment.Type,
		TargetID:    payment.TargetID,
		ProcessedAt: processedAt,
	}
	if decision != nil {
		p.OverdraftAmount = decision.OverdraftAmount
		p.OverdraftLimit = decision.Limit
	}
	return p
}

func (s *AutomatedPaymentService) executionFailed(ctx context.Context, payment *models.AutomatedPayment, err error, logger *logrus.Entry) models.PaymentStatus {
	if errors.Is(err, repository.ErrPaymentNotPending) {
		logger.Info("Payment already settled by another run")
		return ""
	}
	logger.WithError(err).Error("Automated payment execution failed")
	return s.fail(ctx, payment, err.Error())
}

func (s *AutomatedPaymentService) fail(ctx context.Context, payment *models.AutomatedPayment, reason string) models.PaymentStatus {
	return s.finish(ctx, payment, models.PaymentStatusFailed, reason)
}

func (s *AutomatedPaymentService) insufficient(ctx context.Context, payment *models.AutomatedPayment, reason string) models.PaymentStatus {
	return s.finish(ctx, payment, models.PaymentStatusInsufficientFunds, reason)
}

// finish records a non-success terminal status. The write is detached from
// ctx so an expired payment deadline still gets its outcome stored.
func (s *AutomatedPaymentService) finish(ctx context.Context, payment *models.AutomatedPayment, status models.PaymentStatus, reason string) models.PaymentStatus {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	processedAt := s.now()
	updated, err := s.store.UpdatePaymentStatus(writeCtx, payment.ID, status, reason, processedAt)
	if err != nil {
		s.log.WithError(err).WithField("payment_id", payment.ID).Errorf("Failed to mark payment %s", status)
		return ""
	}
	if !updated {
		s.log.WithField("payment_id", payment.ID).Info("Payment already settled by another run")
		return ""
	}

	settled := *payment
	settled.Status = status
	settled.ErrorMessage = reason
	settled.ProcessedAt = &processedAt
	s.runHooks(ctx, SettlementOutcome{Payment: settled, Status: status, Reason: reason})
	return status
}

func completedOutcome(payment *models.AutomatedPayment, processedAt time.Time, od *models.Overdraft) SettlementOutcome {
	settled := *payment
	settled.Status = models.PaymentStatusCompleted
	settled.ErrorMessage = ""
	settled.ProcessedAt = &processedAt
	return SettlementOutcome{Payment: settled, Status: models.PaymentStatusCompleted, Overdraft: od}
}

// runHooks calls every hook in registration order. A hook error is logged and
// the next hook still runs.
func (s *AutomatedPaymentService) runHooks(ctx context.Context, outcome SettlementOutcome) {
	if len(s.hooks) == 0 {
		return
	}
	hookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hookTimeout)
	defer cancel()
	for _, hook := range s.hooks {
		if err := runHook(hookCtx, hook, outcome); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"hook":       hook.Name(),
				"payment_id": outcome.Payment.ID,
				"status":     outcome.Status,
			}).Warn("Settlement hook failed")
		}
	}
}

func runHook(ctx context.Context, hook SettlementHook, outcome SettlementOutcome) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked: %v", r)
		}
	}()
	return hook.AfterSettlement(ctx, outcome)
}

// ScheduleBillPayment creates one pending bill payment
func (s *AutomatedPaymentService) ScheduleBillPayment(ctx context.Context, userID, billID string, amount float64, scheduledDate time.Time) (*models.AutomatedPayment, error) {
	payments, err := s.schedule(ctx, userID, models.PaymentTypeBill, billID, amount, []time.Time{scheduledDate})
	if err != nil {
		return nil, err
	}
	return payments[0], nil
}

// ScheduleLoanRepayment creates one pending loan repayment
func (s *AutomatedPaymentService) ScheduleLoanRepayment(ctx context.Context, userID, loanID string, amount float64, scheduledDate time.Time) (*models.AutomatedPayment, error) {
	payments, err := s.schedule(ctx, userID, models.PaymentTypeLoan, loanID, amount, []time.Time{scheduledDate})
	if err != nil {
		return nil, err
	}
	return payments[0], nil
}

// SetupRecurringBillPayment unrolls twelve pending bill payments
func (s *AutomatedPaymentService) SetupRecurringBillPayment(ctx context.Context, userID, billID string, amount float64, start time.Time, freq utils.Frequency) ([]*models.AutomatedPayment, error) {
	return s.schedule(ctx, userID, models.PaymentTypeBill, billID, amount, utils.Occurrences(start, freq, RecurringBillOccurrences))
}

// SetupRecurringLoanRepayment unrolls twenty-four pending loan repayments
func (s *AutomatedPaymentService) SetupRecurringLoanRepayment(ctx context.Context, userID, loanID string, amount float64, start time.Time, freq utils.Frequency) ([]*models.AutomatedPayment, error) {
	return s.schedule(ctx, userID, models.PaymentTypeLoan, loanID, amount, utils.Occurrences(start, freq, RecurringLoanOccurrences))
}

func (s *AutomatedPaymentService) schedule(ctx context.Context, userID string, paymentType models.PaymentType, targetID string, amount float64, dates []time.Time) ([]*models.AutomatedPayment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if targetID == "" {
		return nil, ErrInvalidTarget
	}
	if len(dates) == 0 || dates[0].IsZero() {
		return nil, ErrInvalidDate
	}

	now := s.now()
	payments := make([]*models.AutomatedPayment, 0, len(dates))
	for _, date := range dates {
		payments = append(payments, &models.AutomatedPayment{
			ID:            uuid.NewString(),
			UserID:        userID,
			Type:          paymentType,
			TargetID:      targetID,
			Amount:        utils.RoundCents(amount),
			Status:        models.PaymentStatusPending,
			ScheduledDate: date.UTC(),
			CreatedAt:     now,
		})
	}
	if err := s.store.CreatePayments(ctx, payments); err != nil {
		return nil, fmt.Errorf("failed to schedule %s payments: %w", paymentType, err)
	}
	s.log.Infof("Scheduled %d %s payment(s) of %.2f for user %s", len(payments), paymentType, amount, userID)
	return payments, nil
}

// CancelPayment cancels a pending payment of the user. It returns false
// without error when the payment is missing or already terminal.
func (s *AutomatedPaymentService) CancelPayment(ctx context.Context, userID, paymentID string) (bool, error) {
	cancelled, err := s.store.CancelPayment(ctx, userID, paymentID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel payment: %w", err)
	}
	if cancelled {
		s.log.Infof("Payment %s cancelled by user %s", paymentID, userID)
	}
	return cancelled, nil
}

// GetUserPayments lists the user's payments, optionally filtered by status
func (s *AutomatedPaymentService) GetUserPayments(ctx context.Context, userID string, status models.PaymentStatus) ([]models.AutomatedPayment, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.store.ListPayments(ctx, userID, status)
}
