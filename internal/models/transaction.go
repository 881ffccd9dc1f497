package models

import "time"

const (
	TransactionTypeDebit  = "debit"
	TransactionTypeCredit = "credit"

	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusPending   = "pending"
)

// Transaction represents a financial transaction
type Transaction struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
