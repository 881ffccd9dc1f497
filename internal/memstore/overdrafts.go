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

func (s *Store) CreateOverdraft(_ context.Context, od *models.Overdraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.overdrafts[od.ID]; exists {
		return fmt.Errorf("failed to create overdraft: duplicate id %s", od.ID)
	}
	c := *od
	s.overdrafts[od.ID] = &c
	return nil
}

func (s *Store) GetOverdraft(_ context.Context, overdraftID string) (*models.Overdraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	od, ok := s.overdrafts[overdraftID]
	if !ok {
		return nil, repository.ErrOverdraftNotFound
	}
	c := *od
	return &c, nil
}

func (s *Store) ListOverdrafts(_ context.Context, userID string, status models.OverdraftStatus) ([]models.Overdraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Overdraft
	for _, od := range s.overdrafts {
		if od.UserID == userID && (status == "" || od.Status == status) {
			out = append(out, *od)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) RepayOverdraft(_ context.Context, overdraftID string, amount float64, now time.Time) (*models.Overdraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	od, ok := s.overdrafts[overdraftID]
	if !ok {
		return nil, repository.ErrOverdraftNotFound
	}
	if od.Status == models.OverdraftStatusRepaid {
		return nil, repository.ErrOverdraftNotActive
	}
	account := s.primaryAccountLocked(od.UserID)
	if account == nil {
		return nil, repository.ErrAccountNotFound
	}
	repay := utils.MinAmount(amount, od.Amount)
	if account.Balance < repay {
		return nil, repository.ErrInsufficientFunds
	}

	account.Balance = utils.SubAmount(account.Balance, repay)
	od.Amount = utils.SubAmount(od.Amount, repay)
	if od.Amount <= 0 {
		od.Amount = 0
		od.Status = models.OverdraftStatusRepaid
		repaidAt := now
		od.RepaidAt = &repaidAt
	}
	s.recordDebitLocked(account.ID, repay, "Overdraft repayment", now)
	c := *od
	return &c, nil
}

func (s *Store) MarkOverdueOverdrafts(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, od := range s.overdrafts {
		if od.Status == models.OverdraftStatusActive && od.DueDate.Before(now) {
			od.Status = models.OverdraftStatusOverdue
			n++
		}
	}
	return n, nil
}
