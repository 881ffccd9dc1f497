package models

import "time"

// OverdraftStatus is the repayment state of an overdraft
type OverdraftStatus string

const (
	OverdraftStatusActive  OverdraftStatus = "active"
	OverdraftStatusRepaid  OverdraftStatus = "repaid"
	OverdraftStatusOverdue OverdraftStatus = "overdue"
)

// Overdraft represents funds borrowed against the overdraft limit
type Overdraft struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	PaymentID string          `json:"payment_id,omitempty"`
	Amount    float64         `json:"amount"`
	Fee       float64         `json:"fee"`
	Status    OverdraftStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	DueDate   time.Time       `json:"due_date"`
	RepaidAt  *time.Time      `json:"repaid_at,omitempty"`
}

// OverdraftEligibility describes how much overdraft a user may draw.
// Fee is the fee rate applied to the overdrawn amount.
type OverdraftEligibility struct {
	Enabled   bool    `json:"enabled"`
	Limit     float64 `json:"limit"`
	Available float64 `json:"available"`
	Fee       float64 `json:"fee"`
}

// OverdraftDecision is the outcome of an overdraft authorization
type OverdraftDecision struct {
	Allowed         bool    `json:"allowed"`
	OverdraftAmount float64 `json:"overdraft_amount"`
	Fee             float64 `json:"fee"`
	Limit           float64 `json:"limit,omitempty"`
	Reason          string  `json:"reason,omitempty"`
	OverdraftID     string  `json:"overdraft_id,omitempty"`
}

// OverdraftTerms combines eligibility with the reference key rate.
// KeyRate is nil when the rate source is unavailable.
type OverdraftTerms struct {
	OverdraftEligibility
	KeyRate  *float64 `json:"key_rate,omitempty"`
	TermDays int      `json:"term_days"`
}
