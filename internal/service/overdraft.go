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
	MinOverdraftScore    = 450
	DiscountedFeeScore   = 600
	OverdraftFeeRate     = 0.05
	OverdraftTermDays    = 30
	OnTimeRepaymentBonus = 5
	LateRepaymentPenalty = -15
	reasonOverdraftOff   = "Overdraft protection is not available for this account"
	reasonLimitExceeded  = "Overdraft needed exceeds available overdraft limit"
)

// overdraftTiers maps a minimum score to an overdraft limit, highest first
var overdraftTiers = []struct {
	minScore int
	limit    float64
}{
	{750, 25000},
	{650, 10000},
	{550, 5000},
	{MinOverdraftScore, 2000},
}

// CreditScorer is the part of CreditScoreService the overdraft logic needs
type CreditScorer interface {
	GetCreditScore(ctx context.Context, userID string) *models.CreditScoreData
	AdjustCreditScore(ctx context.Context, userID string, delta int) (int, error)
}

// OverdraftService authorizes and tracks overdraft protection
type OverdraftService struct {
	store   OverdraftStore
	scores  CreditScorer
	keyRate Capability[KeyRateSource]
	log     *logrus.Logger
	now     clock
}

// NewOverdraftService initializes an overdraft service
func NewOverdraftService(store OverdraftStore, scores CreditScorer, keyRate Capability[KeyRateSource], log *logrus.Logger) *OverdraftService {
	return &OverdraftService{store: store, scores: scores, keyRate: keyRate, log: log, now: systemClock}
}

// OverdraftLimit returns the limit granted for a score
func OverdraftLimit(score int) float64 {
	for _, tier := range overdraftTiers {
		if score >= tier.minScore {
			return tier.limit
		}
	}
	return 0
}

// OverdraftFeeRateFor returns the fee rate applied at a score
func OverdraftFeeRateFor(score int) float64 {
	if score >= DiscountedFeeScore {
		return OverdraftFeeRate * 0.5
	}
	return OverdraftFeeRate
}

// OverdraftFee returns round(overdraftNeeded * 0.05 * (score >= 600 ? 0.5 : 1))
func OverdraftFee(overdraftNeeded float64, score int) float64 {
	return utils.RoundWhole(overdraftNeeded * OverdraftFeeRateFor(score))
}

// CheckEligibility reports whether the user may draw an overdraft and how much
func (s *OverdraftService) CheckEligibility(ctx context.Context, userID string) (*models.OverdraftEligibility, error) {
	eligibility, _, err := s.eligibility(ctx, userID)
	return eligibility, err
}

func (s *OverdraftService) eligibility(ctx context.Context, userID string) (*models.OverdraftEligibility, int, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	score := s.scores.GetCreditScore(ctx, userID).Score
	enabled := user.OverdraftEnabled && score >= MinOverdraftScore
	if !enabled {
		return &models.OverdraftEligibility{Fee: OverdraftFeeRateFor(score)}, score, nil
	}

	active, err := s.store.ListOverdrafts(ctx, userID, models.OverdraftStatusActive)
	if err != nil {
		return nil, 0, err
	}
	used := make([]float64, 0, len(active))
	for _, od := range active {
		used = append(used, od.Amount)
	}
	limit := OverdraftLimit(score)
	return &models.OverdraftEligibility{
		Enabled:   true,
		Limit:     limit,
		Available: utils.MaxAmount(0, utils.SubAmount(limit, utils.SumAmounts(used...))),
		Fee:       OverdraftFeeRateFor(score),
	}, score, nil
}

// AuthorizeOverdraft decides whether transactionAmount can be covered by
// currentBalance plus overdraft, without recording anything.
func (s *OverdraftService) AuthorizeOverdraft(ctx context.Context, userID string, transactionAmount, currentBalance float64) (*models.OverdraftDecision, error) {
	if transactionAmount <= currentBalance {
		return &models.OverdraftDecision{Allowed: true}, nil
	}
	eligibility, score, err := s.eligibility(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check overdraft eligibility: %w", err)
	}
	needed := utils.SubAmount(transactionAmount, utils.MaxAmount(currentBalance, 0))
	if !eligibility.Enabled {
		return &models.OverdraftDecision{OverdraftAmount: needed, Reason: reasonOverdraftOff}, nil
	}
	if needed > eligibility.Available {
		return &models.OverdraftDecision{OverdraftAmount: needed, Reason: reasonLimitExceeded}, nil
	}
	return &models.OverdraftDecision{
		Allowed:         true,
		OverdraftAmount: needed,
		Fee:             OverdraftFee(needed, score),
		Limit:           eligibility.Limit,
	}, nil
}

// ProcessOverdraftTransaction authorizes an overdraft and records it when one
// is drawn. It is the standalone entry point for debits made outside payment
// settlement. Settlement calls AuthorizeOverdraft instead and records the
// overdraft inside its execution transaction, where the limit is checked
// again under the account lock.
func (s *OverdraftService) ProcessOverdraftTransaction(ctx context.Context, userID string, transactionAmount, currentBalance float64) (*models.OverdraftDecision, error) {
	decision, err := s.AuthorizeOverdraft(ctx, userID, transactionAmount, currentBalance)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed || decision.OverdraftAmount == 0 {
		return decision, nil
	}
	od := NewOverdraftRecord(userID, "", decision, s.now())
	if err := s.store.CreateOverdraft(ctx, od); err != nil {
		return nil, err
	}
	decision.OverdraftID = od.ID
	s.log.Infof("Overdraft %s of %.2f (fee %.2f) opened for user %s", od.ID, od.Amount, od.Fee, userID)
	return decision, nil
}

// NewOverdraftRecord builds the active overdraft for an allowed decision
func NewOverdraftRecord(userID, paymentID string, decision *models.OverdraftDecision, now time.Time) *models.Overdraft {
	return &models.Overdraft{
		ID:        uuid.NewString(),
		UserID:    userID,
		PaymentID: paymentID,
		Amount:    decision.OverdraftAmount,
		Fee:       decision.Fee,
		Status:    models.OverdraftStatusActive,
		CreatedAt: now,
		DueDate:   now.AddDate(0, 0, OverdraftTermDays),
	}
}

// RepayOverdraft pays down one of the user's overdrafts from the account.
// A full repayment adjusts the credit score by timeliness.
func (s *OverdraftService) RepayOverdraft(ctx context.Context, userID, overdraftID string, amount float64) (*models.Overdraft, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	current, err := s.store.GetOverdraft(ctx, overdraftID)
	if err != nil {
		return nil, err
	}
	if current.UserID != userID {
		return nil, repository.ErrOverdraftNotFound
	}

	now := s.now()
	updated, err := s.store.RepayOverdraft(ctx, overdraftID, amount, now)
	if err != nil {
		return nil, err
	}
	if updated.Status != models.OverdraftStatusRepaid {
		s.log.Infof("Overdraft %s partially repaid, %.2f outstanding", overdraftID, updated.Amount)
		return updated, nil
	}

	delta := OnTimeRepaymentBonus
	if now.After(current.DueDate) {
		delta = LateRepaymentPenalty
	}
	if _, err := s.scores.AdjustCreditScore(ctx, userID, delta); err != nil {
		s.log.WithError(err).WithField("overdraft_id", overdraftID).Warn("Failed to adjust credit score after repayment")
	}
	s.log.Infof("Overdraft %s repaid by user %s", overdraftID, userID)
	return updated, nil
}

// CheckOverdueOverdrafts marks active overdrafts past their due date as
// overdue. Failures are logged.
func (s *OverdraftService) CheckOverdueOverdrafts(ctx context.Context) {
	n, err := s.store.MarkOverdueOverdrafts(ctx, s.now())
	if err != nil {
		s.log.WithError(err).Error("Overdue overdraft sweep failed")
		return
	}
	if n > 0 {
		s.log.Infof("Marked %d overdrafts overdue", n)
	}
}

// GetUserOverdrafts lists all overdrafts of the user
func (s *OverdraftService) GetUserOverdrafts(ctx context.Context, userID string) ([]models.Overdraft, error) {
	return s.store.ListOverdrafts(ctx, userID, "")
}

// GetOverdraftTerms returns eligibility together with the reference key rate
// when a rate source is configured and reachable.
func (s *OverdraftService) GetOverdraftTerms(ctx context.Context, userID string) (*models.OverdraftTerms, error) {
	eligibility, err := s.CheckEligibility(ctx, userID)
	if err != nil {
		return nil, err
	}
	terms := &models.OverdraftTerms{OverdraftEligibility: *eligibility, TermDays: OverdraftTermDays}
	source, ok := s.keyRate.Get()
	if !ok {
		return terms, nil
	}
	rate, err := source.GetKeyRate(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Key rate unavailable for overdraft terms")
		return terms, nil
	}
	terms.KeyRate = &rate
	return terms, nil
}

// IsNotFound reports whether err is one of the repository not-found errors
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrUserNotFound) ||
		errors.Is(err, repository.ErrAccountNotFound) ||
		errors.Is(err, repository.ErrPaymentNotFound) ||
		errors.Is(err, repository.ErrOverdraftNotFound)
}
