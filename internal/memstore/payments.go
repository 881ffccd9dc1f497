package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/Dan9191/bank-autopay/internal/repository"
	"github.com/Dan9191/bank-autopay/internal/utils"
)

func (s *Store) CreatePayments(_ context.Context, payments []*models.AutomatedPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range payments {
		if _, exists := s.payments[p.ID]; exists {
			return fmt.Errorf("failed to insert payment: duplicate id %s", p.ID)
		}
	}
	for _, p := range payments {
		c := *p
		s.payments[p.ID] = &c
	}
	return nil
}

func (s *Store) GetPayment(_ context.Context, paymentID string) (*models.AutomatedPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	c := *p
	return &c, nil
}

func (s *Store) ListDuePayments(_ context.Context, q repository.DueQuery) ([]models.AutomatedPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []models.AutomatedPayment
	for _, p := range s.payments {
		if p.UserID != q.UserID || p.Status != models.PaymentStatusPending || p.ScheduledDate.After(q.Now) {
			continue
		}
		if q.HasCursor() && !afterCursor(p, q.AfterDate, q.AfterID) {
			continue
		}
		due = append(due, *p)
	}
	sortPayments(due)
	if q.Limit > 0 && len(due) > q.Limit {
		due = due[:q.Limit]
	}
	return due, nil
}

func afterCursor(p *models.AutomatedPayment, date time.Time, id string) bool {
	if p.ScheduledDate.Equal(date) {
		return p.ID > id
	}
	return p.ScheduledDate.After(date)
}

func sortPayments(payments []models.AutomatedPayment) {
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].ScheduledDate.Equal(payments[j].ScheduledDate) {
			return payments[i].ID < payments[j].ID
		}
		return payments[i].ScheduledDate.Before(payments[j].ScheduledDate)
	})
}

func (s *Store) ListPayments(_ context.Context, userID string, status models.PaymentStatus) ([]models.AutomatedPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AutomatedPayment
	for _, p := range s.payments {
		if p.UserID == userID && (status == "" || p.Status == status) {
			out = append(out, *p)
		}
	}
	sortPayments(out)
	return out, nil
}

func (s *Store) ListUsersWithDuePayments(_ context.Context, now time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	var ids []string
	for _, p := range s.payments {
		if p.Status == models.PaymentStatusPending && !p.ScheduledDate.After(now) && !seen[p.UserID] {
			seen[p.UserID] = true
			ids = append(ids, p.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) ExecuteAutomatedPayment(_ context.Context, p repository.ExecutePaymentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executeLocked(p, nil)
}

func (s *Store) ExecuteAutomatedPaymentWithOverdraft(_ context.Context, p repository.ExecutePaymentParams, od *models.Overdraft) error {
	if od == nil {
		return fmt.Errorf("overdraft is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executeLocked(p, od)
}

// executeLocked validates everything before mutating so a failure leaves the
// store untouched.
func (s *Store) executeLocked(p repository.ExecutePaymentParams, od *models.Overdraft) error {
	payment, ok := s.payments[p.PaymentID]
	if !ok || payment.Status != models.PaymentStatusPending {
		return repository.ErrPaymentNotPending
	}
	account := s.primaryAccountLocked(p.UserID)
	if account == nil {
		return repository.ErrAccountNotFound
	}
	if account.Balance < p.BalanceUsed {
		return repository.ErrInsufficientFunds
	}

	var (
		bill *models.Bill
		loan *models.Loan
	)
	switch p.Type {
	case models.PaymentTypeBill:
		bill = s.bills[p.TargetID]
		if bill == nil || bill.UserID != p.UserID {
			return fmt.Errorf("%s %s not found", p.Type, p.TargetID)
		}
	case models.PaymentTypeLoan:
		loan = s.loans[p.TargetID]
		if loan == nil || loan.UserID != p.UserID {
			return fmt.Errorf("%s %s not found", p.Type, p.TargetID)
		}
	default:
		return fmt.Errorf("unsupported payment type: %q", p.Type)
	}
	if od != nil {
		if _, exists := s.overdrafts[od.ID]; exists {
			return fmt.Errorf("failed to record overdraft: duplicate id %s", od.ID)
		}
		if utils.AddAmount(s.activeOverdraftLocked(p.UserID), od.Amount) > p.OverdraftLimit {
			return repository.ErrOverdraftLimitExceeded
		}
	}

	processedAt := p.ProcessedAt
	payment.Status = models.PaymentStatusCompleted
	payment.ProcessedAt = &processedAt
	payment.ErrorMessage = ""

	account.Balance = utils.SubAmount(account.Balance, p.BalanceUsed)
	account.UpdatedAt = processedAt

	if od != nil {
		c := *od
		s.overdrafts[od.ID] = &c
	}
	if bill != nil {
		bill.Status = "paid"
	}
	if loan != nil {
		loan.RemainingBalance = utils.MaxAmount(utils.SubAmount(loan.RemainingBalance, p.Amount), 0)
		if loan.RemainingBalance == 0 {
			loan.Status = models.LoanStatusPaidOff
		}
	}
	s.recordDebitLocked(account.ID, p.Amount, fmt.Sprintf("Automated %s payment", p.Type), processedAt)
	return nil
}

func (s *Store) activeOverdraftLocked(userID string) float64 {
	var amounts []float64
	for _, od := range s.overdrafts {
		if od.UserID == userID && od.Status == models.OverdraftStatusActive {
			amounts = append(amounts, od.Amount)
		}
	}
	return utils.SumAmounts(amounts...)
}

func (s *Store) UpdatePaymentStatus(_ context.Context, paymentID string, status models.PaymentStatus, errMsg string, processedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok || p.Status != models.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	p.ErrorMessage = errMsg
	p.ProcessedAt = &processedAt
	return true, nil
}

func (s *Store) CancelPayment(_ context.Context, userID, paymentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok || p.UserID != userID || p.Status != models.PaymentStatusPending {
		return false, nil
	}
	p.Status = models.PaymentStatusCancelled
	return true, nil
}
