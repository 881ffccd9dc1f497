package repository

import (
	"time"

	"github.com/Dan9191/bank-autopay/internal/models"
)

// ExecutePaymentParams carries the arguments of a settlement execution.
// OverdraftLimit bounds the user's active overdrafts including the new one.
type ExecutePaymentParams struct {
	PaymentID       string
	UserID          string
	Amount          float64
	BalanceUsed     float64
	OverdraftAmount float64
	OverdraftLimit  float64
	Type            models.PaymentType
	TargetID        string
	ProcessedAt     time.Time
}

// DueQuery selects one page of pending payments due at Now, ordered by
// (scheduled_date, id) and starting strictly after the cursor.
type DueQuery struct {
	UserID    string
	Now       time.Time
	AfterDate time.Time
	AfterID   string
	Limit     int
}

// HasCursor reports whether the query continues a previous page
func (q DueQuery) HasCursor() bool {
	return q.AfterID != ""
}
