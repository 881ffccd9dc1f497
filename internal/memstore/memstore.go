// Package memstore is an in-process implementation of the repository
// contract. Each mutating call holds the store lock for its whole duration, so
// the execute methods are atomic the way a database transaction is.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/Dan9191/bank-autopay/internal/repository"
	"github.com/google/uuid"
)

type Store struct {
	mu            sync.RWMutex
	users         map[string]*models.User
	accounts      map[string]*models.Account
	transactions  []models.Transaction
	loans         map[string]*models.Loan
	bills         map[string]*models.Bill
	payments      map[string]*models.AutomatedPayment
	overdrafts    map[string]*models.Overdraft
	notifications map[string]*models.PaymentNotification
}

func New() *Store {
	return &Store{
		users:         map[string]*models.User{},
		accounts:      map[string]*models.Account{},
		loans:         map[string]*models.Loan{},
		bills:         map[string]*models.Bill{},
		payments:      map[string]*models.AutomatedPayment{},
		overdrafts:    map[string]*models.Overdraft{},
		notifications: map[string]*models.PaymentNotification{},
	}
}

// AddUser registers a user; an empty ID is generated
func (s *Store) AddUser(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = &u
	return cloneUser(&u)
}

// AddAccount registers an account; an empty ID is generated
func (s *Store) AddAccount(a models.Account) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.UpdatedAt = a.CreatedAt
	s.accounts[a.ID] = &a
	c := a
	return &c
}

// AddLoan registers a loan; an empty ID is generated
func (s *Store) AddLoan(l models.Loan) *models.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	s.loans[l.ID] = &l
	c := l
	return &c
}

// AddBill registers a bill; an empty ID is generated
func (s *Store) AddBill(b models.Bill) *models.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	s.bills[b.ID] = &b
	c := b
	return &c
}

// AddTransaction records a transaction; an empty ID is generated
func (s *Store) AddTransaction(t models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.transactions = append(s.transactions, t)
}

// Bill returns a copy of the bill
func (s *Store) Bill(id string) (*models.Bill, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bills[id]
	if !ok {
		return nil, false
	}
	c := *b
	return &c, true
}

// Loan returns a copy of the loan
func (s *Store) Loan(id string) (*models.Loan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.loans[id]
	if !ok {
		return nil, false
	}
	c := *l
	return &c, true
}

func (s *Store) GetUser(_ context.Context, userID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) UpdateCreditScore(_ context.Context, userID string, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.CreditScore = score
	return nil
}

func (s *Store) AdjustCreditScore(_ context.Context, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	score := u.CreditScore + delta
	if score < 300 {
		score = 300
	}
	if score > 850 {
		score = 850
	}
	u.CreditScore = score
	return score, nil
}

func (s *Store) GetAccountByUserID(_ context.Context, userID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := s.primaryAccountLocked(userID)
	if a == nil {
		return nil, repository.ErrAccountNotFound
	}
	c := *a
	return &c, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string, since time.Time) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Transaction
	for _, t := range s.transactions {
		a, ok := s.accounts[t.AccountID]
		if !ok || a.UserID != userID || t.CreatedAt.Before(since) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListLoans(_ context.Context, userID string) ([]models.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Loan
	for _, l := range s.loans {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) primaryAccountLocked(userID string) *models.Account {
	var primary *models.Account
	for _, a := range s.accounts {
		if a.UserID != userID {
			continue
		}
		if primary == nil || a.CreatedAt.Before(primary.CreatedAt) ||
			(a.CreatedAt.Equal(primary.CreatedAt) && a.ID < primary.ID) {
			primary = a
		}
	}
	return primary
}

func (s *Store) recordDebitLocked(accountID string, amount float64, description string, at time.Time) {
	s.transactions = append(s.transactions, models.Transaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Amount:      amount,
		Type:        models.TransactionTypeDebit,
		Status:      models.TransactionStatusCompleted,
		Description: description,
		CreatedAt:   at,
	})
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}
