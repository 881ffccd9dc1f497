package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/Dan9191/bank-autopay/internal/repository"
	"github.com/sirupsen/logrus"
)

const (
	MinCreditScore     = 300
	MaxCreditScore     = 850
	DefaultCreditScore = 650

	trendThreshold = 10

	weightPaymentHistory    = 0.35
	weightCreditUtilization = 0.30
	weightCreditLength      = 0.15
	weightCreditMix         = 0.10
	weightNewCredit         = 0.10
)

// CreditScoreService derives credit scores from account history
type CreditScoreService struct {
	store CreditStore
	cache ScoreCache
	log   *logrus.Logger
	now   clock
}

// NewCreditScoreService initializes a credit score service; cache may be nil
func NewCreditScoreService(store CreditStore, cache ScoreCache, log *logrus.Logger) *CreditScoreService {
	return &CreditScoreService{store: store, cache: cache, log: log, now: systemClock}
}

// DefaultCreditScoreData is returned whenever the score cannot be computed
func DefaultCreditScoreData() *models.CreditScoreData {
	return &models.CreditScoreData{
		Score: DefaultCreditScore,
		Factors: models.CreditFactors{
			PaymentHistory:    DefaultCreditScore,
			CreditUtilization: DefaultCreditScore,
			CreditLength:      DefaultCreditScore,
			CreditMix:         DefaultCreditScore,
			NewCredit:         DefaultCreditScore,
		},
		Recommendations: []string{"We could not analyse your history right now; this is an estimated score"},
		Trend:           models.TrendStable,
	}
}

// GetCreditScore returns the user's current score. It never fails: on any
// read error it logs and returns DefaultCreditScoreData.
func (s *CreditScoreService) GetCreditScore(ctx context.Context, userID string) *models.CreditScoreData {
	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, userID); ok {
			return data
		}
	}
	data, err := s.compute(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("Credit score unavailable, using default")
		return DefaultCreditScoreData()
	}
	if s.cache != nil {
		s.cache.Set(ctx, userID, data)
	}
	return data
}

// UpdateCreditScore recomputes the score and stores it on the user record
func (s *CreditScoreService) UpdateCreditScore(ctx context.Context, userID string) (*models.CreditScoreData, error) {
	data, err := s.compute(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateCreditScore(ctx, userID, data.Score); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Delete(ctx, userID)
	}
	s.log.Infof("Credit score updated for user %s: %d (%s)", userID, data.Score, data.Trend)
	return data, nil
}

// AdjustCreditScore shifts the stored score by delta within [300, 850]
func (s *CreditScoreService) AdjustCreditScore(ctx context.Context, userID string, delta int) (int, error) {
	score, err := s.store.AdjustCreditScore(ctx, userID, delta)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		s.cache.Delete(ctx, userID)
	}
	s.log.Infof("Credit score adjusted for user %s by %+d: %d", userID, delta, score)
	return score, nil
}

// creditHistory is the input of the score formula
type creditHistory struct {
	storedScore       int
	accountAge        time.Duration
	balance           float64
	monthlySpend      float64
	totalTransactions int
	completed         int
	overdueLoans      int
	loanTypes         int
	recentLoans       int
}

func (s *CreditScoreService) compute(ctx context.Context, userID string) (*models.CreditScoreData, error) {
	h, err := s.loadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	return scoreHistory(h), nil
}

func (s *CreditScoreService) loadHistory(ctx context.Context, userID string) (*creditHistory, error) {
	now := s.now()
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	h := &creditHistory{storedScore: user.CreditScore, accountAge: now.Sub(user.CreatedAt)}

	account, err := s.store.GetAccountByUserID(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load account: %w", err)
	default:
		h.balance = account.Balance
	}

	txns, err := s.store.ListTransactions(ctx, userID, now.AddDate(-1, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	monthAgo := now.AddDate(0, 0, -30)
	for _, t := range txns {
		h.totalTransactions++
		if t.Status == models.TransactionStatusCompleted {
			h.completed++
		}
		if t.Type == models.TransactionTypeDebit && t.Status == models.TransactionStatusCompleted && !t.CreatedAt.Before(monthAgo) {
			h.monthlySpend += t.Amount
		}
	}

	loans, err := s.store.ListLoans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loans: %w", err)
	}
	types := map[string]bool{}
	sixMonthsAgo := now.AddDate(0, -6, 0)
	for _, l := range loans {
		types[l.Type] = true
		if l.Status == models.LoanStatusOverdue {
			h.overdueLoans++
		}
		if !l.CreatedAt.Before(sixMonthsAgo) {
			h.recentLoans++
		}
	}
	h.loanTypes = len(types)
	return h, nil
}

func scoreHistory(h *creditHistory) *models.CreditScoreData {
	successRate := 1.0
	if h.totalTransactions > 0 {
		successRate = float64(h.completed) / float64(h.totalTransactions)
	}
	paymentHistory := clampScore(300 + successRate*400 - 50*float64(h.overdueLoans))

	utilization := float64(DefaultCreditScore)
	if h.balance > 0 {
		utilization = clampScore(850 - (h.monthlySpend/h.balance)*300)
	}

	years := h.accountAge.Hours() / 24 / 365.25
	if years < 0 {
		years = 0
	}
	length := clampScore(300 + years*100)
	mix := clampScore(600 + 50*float64(h.loanTypes))
	newCredit := clampScore(750 - 50*float64(h.recentLoans))

	weighted := paymentHistory*weightPaymentHistory +
		utilization*weightCreditUtilization +
		length*weightCreditLength +
		mix*weightCreditMix +
		newCredit*weightNewCredit
	score := int(clampScore(math.Round(weighted)))

	factors := models.CreditFactors{
		PaymentHistory:    int(math.Round(paymentHistory)),
		CreditUtilization: int(math.Round(utilization)),
		CreditLength:      int(math.Round(length)),
		CreditMix:         int(math.Round(mix)),
		NewCredit:         int(math.Round(newCredit)),
	}
	return &models.CreditScoreData{
		Score:           score,
		Factors:         factors,
		Recommendations: recommendations(factors),
		Trend:           trend(score, h.storedScore),
	}
}

func clampScore(v float64) float64 {
	return math.Max(MinCreditScore, math.Min(MaxCreditScore, v))
}

func trend(score, stored int) models.CreditTrend {
	if stored == 0 {
		return models.TrendStable
	}
	switch diff := score - stored; {
	case diff > trendThreshold:
		return models.TrendImproving
	case diff < -trendThreshold:
		return models.TrendDeclining
	}
	return models.TrendStable
}

func recommendations(f models.CreditFactors) []string {
	var recs []string
	if f.PaymentHistory < 650 {
		recs = append(recs, "Make every payment on time and clear overdue loans to improve your payment history")
	}
	if f.CreditUtilization < 650 {
		recs = append(recs, "Keep monthly spending well below your account balance")
	}
	if f.CreditLength < 500 {
		recs = append(recs, "Keep your oldest accounts open to build a longer credit history")
	}
	if f.CreditMix < 650 {
		recs = append(recs, "A mix of credit types can strengthen your profile")
	}
	if f.NewCredit < 650 {
		recs = append(recs, "Avoid applying for several new loans in a short period")
	}
	if len(recs) == 0 {
		recs = append(recs, "Your credit profile is healthy, keep up your current habits")
	}
	return recs
}
