package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/Dan9191/bank-autopay/internal/repository"
)

// ---- mock implementations ----

type mockCreditStore struct {
	getUserFn     func(userID string) (*models.User, error)
	getAccountFn  func(userID string) (*models.Account, error)
	listTxnsFn    func(userID string, since time.Time) ([]models.Transaction, error)
	listLoansFn   func(userID string) ([]models.Loan, error)
	updateScoreFn func(userID string, score int) error
	adjustScoreFn func(userID string, delta int) (int, error)
}

func (m *mockCreditStore) GetUser(_ context.Context, userID string) (*models.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(userID)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockCreditStore) GetAccountByUserID(_ context.Context, userID string) (*models.Account, error) {
	if m.getAccountFn != nil {
		return m.getAccountFn(userID)
	}
	return nil, repository.ErrAccountNotFound
}

func (m *mockCreditStore) ListTransactions(_ context.Context, userID string, since time.Time) ([]models.Transaction, error) {
	if m.listTxnsFn != nil {
		return m.listTxnsFn(userID, since)
	}
	return nil, nil
}

func (m *mockCreditStore) ListLoans(_ context.Context, userID string) ([]models.Loan, error) {
	if m.listLoansFn != nil {
		return m.listLoansFn(userID)
	}
	return nil, nil
}

func (m *mockCreditStore) UpdateCreditScore(_ context.Context, userID string, score int) error {
	if m.updateScoreFn != nil {
		return m.updateScoreFn(userID, score)
	}
	return fmt.Errorf("not configured")
}

func (m *mockCreditStore) AdjustCreditScore(_ context.Context, userID string, delta int) (int, error) {
	if m.adjustScoreFn != nil {
		return m.adjustScoreFn(userID, delta)
	}
	return 0, fmt.Errorf("not configured")
}

type mockScoreCache struct {
	data    map[string]*models.CreditScoreData
	deleted []string
}

func newMockScoreCache() *mockScoreCache {
	return &mockScoreCache{data: map[string]*models.CreditScoreData{}}
}

func (m *mockScoreCache) Get(_ context.Context, userID string) (*models.CreditScoreData, bool) {
	d, ok := m.data[userID]
	return d, ok
}

func (m *mockScoreCache) Set(_ context.Context, userID string, data *models.CreditScoreData) {
	m.data[userID] = data
}

func (m *mockScoreCache) Delete(_ context.Context, userID string) {
	delete(m.data, userID)
	m.deleted = append(m.deleted, userID)
}

// ---- helpers ----

// twoYearOldUser has an account age of exactly two years at testNow
func twoYearOldUser(stored int) func(string) (*models.User, error) {
	return func(userID string) (*models.User, error) {
		return &models.User{
			ID:          userID,
			CreditScore: stored,
			CreatedAt:   testNow.Add(-time.Duration(2*365.25*24) * time.Hour),
		}, nil
	}
}

func newCreditService(store CreditStore, cache ScoreCache) *CreditScoreService {
	s := NewCreditScoreService(store, cache, testLogger())
	s.now = fixedClock(testNow)
	return s
}

// ---- tests ----

func TestGetCreditScore_DefaultsOnStoreFailure(t *testing.T) {
	tests := []struct {
		name  string
		store *mockCreditStore
	}{
		{
			name:  "user lookup fails",
			store: &mockCreditStore{getUserFn: func(string) (*models.User, error) { return nil, errors.New("connection refused") }},
		},
		{
			name: "transactions fail",
			store: &mockCreditStore{
				getUserFn:  twoYearOldUser(700),
				listTxnsFn: func(string, time.Time) ([]models.Transaction, error) { return nil, errors.New("timeout") },
			},
		},
		{
			name: "account read fails",
			store: &mockCreditStore{
				getUserFn:    twoYearOldUser(700),
				getAccountFn: func(string) (*models.Account, error) { return nil, errors.New("timeout") },
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newCreditService(tt.store, nil).GetCreditScore(context.Background(), "usr-001")
			if got.Score != 650 || got.Trend != models.TrendStable {
				t.Errorf("expected default {650, stable}, got {%d, %s}", got.Score, got.Trend)
			}
			if got.Factors.PaymentHistory != 650 || got.Factors.NewCredit != 650 {
				t.Errorf("expected neutral factors, got %+v", got.Factors)
			}
			if len(got.Recommendations) == 0 {
				t.Error("expected a recommendation")
			}
		})
	}
}

func TestGetCreditScore_Formula(t *testing.T) {
	store := &mockCreditStore{
		getUserFn: twoYearOldUser(650),
		getAccountFn: func(userID string) (*models.Account, error) {
			return &models.Account{ID: "acc-1", UserID: userID, Balance: 1000}, nil
		},
	}
	got := newCreditService(store, nil).GetCreditScore(context.Background(), "usr-001")

	want := models.CreditFactors{
		PaymentHistory:    700,
		CreditUtilization: 850,
		CreditLength:      500,
		CreditMix:         600,
		NewCredit:         750,
	}
	if got.Factors != want {
		t.Errorf("expected factors %+v, got %+v", want, got.Factors)
	}
	if got.Score != 710 {
		t.Errorf("expected score 710, got %d", got.Score)
	}
	if got.Trend != models.TrendImproving {
		t.Errorf("expected improving against stored 650, got %s", got.Trend)
	}
}

func TestGetCreditScore_HistoryFactors(t *testing.T) {
	store := &mockCreditStore{
		getUserFn: twoYearOldUser(0),
		getAccountFn: func(userID string) (*models.Account, error) {
			return &models.Account{ID: "acc-1", UserID: userID, Balance: 1000}, nil
		},
		listTxnsFn: func(string, time.Time) ([]models.Transaction, error) {
			return []models.Transaction{
				{Amount: 300, Type: models.TransactionTypeDebit, Status: models.TransactionStatusCompleted, CreatedAt: testNow.AddDate(0, 0, -1)},
				{Amount: 200, Type: models.TransactionTypeDebit, Status: models.TransactionStatusCompleted, CreatedAt: testNow.AddDate(0, 0, -2)},
				{Amount: 900, Type: models.TransactionTypeDebit, Status: models.TransactionStatusCompleted, CreatedAt: testNow.AddDate(0, -3, 0)},
				{Amount: 50, Type: models.TransactionTypeDebit, Status: models.TransactionStatusFailed, CreatedAt: testNow.AddDate(0, 0, -3)},
			}, nil
		},
		listLoansFn: func(string) ([]models.Loan, error) {
			return []models.Loan{
				{Type: "personal", Status: models.LoanStatusOverdue, CreatedAt: testNow.AddDate(0, -1, 0)},
				{Type: "mortgage", Status: models.LoanStatusActive, CreatedAt: testNow.AddDate(-1, 0, 0)},
			}, nil
		},
	}
	got := newCreditService(store, nil).GetCreditScore(context.Background(), "usr-001")

	want := models.CreditFactors{
		PaymentHistory:    550, // 300 + 0.75*400 - 50
		CreditUtilization: 700, // 850 - (500/1000)*300
		CreditLength:      500,
		CreditMix:         700,
		NewCredit:         700,
	}
	if got.Factors != want {
		t.Errorf("expected factors %+v, got %+v", want, got.Factors)
	}
	if got.Trend != models.TrendStable {
		t.Errorf("expected stable without a stored score, got %s", got.Trend)
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		score, stored int
		want          models.CreditTrend
	}{
		{score: 700, stored: 689, want: models.TrendImproving},
		{score: 700, stored: 690, want: models.TrendStable},
		{score: 700, stored: 710, want: models.TrendStable},
		{score: 700, stored: 711, want: models.TrendDeclining},
		{score: 700, stored: 0, want: models.TrendStable},
	}
	for _, tt := range tests {
		if got := trend(tt.score, tt.stored); got != tt.want {
			t.Errorf("trend(%d, %d): expected %s, got %s", tt.score, tt.stored, tt.want, got)
		}
	}
}

func TestGetCreditScore_UsesCache(t *testing.T) {
	cache := newMockScoreCache()
	cache.data["usr-001"] = &models.CreditScoreData{Score: 777, Trend: models.TrendImproving}
	store := &mockCreditStore{getUserFn: func(string) (*models.User, error) {
		t.Error("store must not be read on a cache hit")
		return nil, errors.New("unexpected")
	}}

	if got := newCreditService(store, cache).GetCreditScore(context.Background(), "usr-001"); got.Score != 777 {
		t.Errorf("expected cached 777, got %d", got.Score)
	}
}

func TestGetCreditScore_FillsCache(t *testing.T) {
	cache := newMockScoreCache()
	store := &mockCreditStore{getUserFn: twoYearOldUser(650)}
	got := newCreditService(store, cache).GetCreditScore(context.Background(), "usr-001")
	if cached, ok := cache.data["usr-001"]; !ok || cached.Score != got.Score {
		t.Errorf("expected computed score to be cached, got %v", cached)
	}
}

func TestUpdateCreditScore(t *testing.T) {
	cache := newMockScoreCache()
	cache.data["usr-001"] = &models.CreditScoreData{Score: 500}
	var persisted int
	store := &mockCreditStore{
		getUserFn: twoYearOldUser(650),
		getAccountFn: func(userID string) (*models.Account, error) {
			return &models.Account{UserID: userID, Balance: 1000}, nil
		},
		updateScoreFn: func(_ string, score int) error {
			persisted = score
			return nil
		},
	}

	got, err := newCreditService(store, cache).UpdateCreditScore(context.Background(), "usr-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != 710 || persisted != 710 {
		t.Errorf("expected 710 computed and persisted, got %d and %d", got.Score, persisted)
	}
	if _, ok := cache.data["usr-001"]; ok {
		t.Error("expected cache entry to be invalidated")
	}
}

func TestUpdateCreditScore_PropagatesErrors(t *testing.T) {
	store := &mockCreditStore{getUserFn: func(string) (*models.User, error) { return nil, repository.ErrUserNotFound }}
	if _, err := newCreditService(store, nil).UpdateCreditScore(context.Background(), "usr-001"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAdjustCreditScore(t *testing.T) {
	cache := newMockScoreCache()
	store := &mockCreditStore{adjustScoreFn: func(_ string, delta int) (int, error) { return 650 + delta, nil }}

	got, err := newCreditService(store, cache).AdjustCreditScore(context.Background(), "usr-001", -15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 635 {
		t.Errorf("expected 635, got %d", got)
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != "usr-001" {
		t.Errorf("expected cache invalidation, got %v", cache.deleted)
	}
}
