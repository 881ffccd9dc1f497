package models

import "time"

// PaymentType identifies what an automated payment settles
type PaymentType string

const (
	PaymentTypeBill PaymentType = "bill"
	PaymentTypeLoan PaymentType = "loan"
)

// PaymentStatus is the settlement state of an automated payment.
// Every status except PaymentStatusPending is terminal.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusCompleted         PaymentStatus = "completed"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusInsufficientFunds PaymentStatus = "insufficient_funds"
	PaymentStatusCancelled         PaymentStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed
func (s PaymentStatus) Terminal() bool {
	return s != PaymentStatusPending
}

// Valid reports whether s is a known status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed,
		PaymentStatusInsufficientFunds, PaymentStatusCancelled:
		return true
	}
	return false
}

// AutomatedPayment represents a scheduled bill payment or loan repayment
type AutomatedPayment struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Type          PaymentType   `json:"type"`
	TargetID      string        `json:"target_id"`
	Amount        float64       `json:"amount"`
	Status        PaymentStatus `json:"status"`
	ScheduledDate time.Time     `json:"scheduled_date"`
	ProcessedAt   *time.Time    `json:"processed_at,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// SettlementResult holds the aggregate counters of one settlement run
type SettlementResult struct {
	Processed    int `json:"processed"`
	Successful   int `json:"successful"`
	Failed       int `json:"failed"`
	Insufficient int `json:"insufficient"`
}

// Add merges another run's counters into r
func (r *SettlementResult) Add(other SettlementResult) {
	r.Processed += other.Processed
	r.Successful += other.Successful
	r.Failed += other.Failed
	r.Insufficient += other.Insufficient
}
