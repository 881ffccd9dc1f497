package models

import "time"

// LoanStatus is the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusActive  LoanStatus = "active"
	LoanStatusPaidOff LoanStatus = "paid_off"
	LoanStatusOverdue LoanStatus = "overdue"
)

// Loan represents a loan taken by a user
type Loan struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	Type             string     `json:"type"`
	Amount           float64    `json:"amount"`
	RemainingBalance float64    `json:"remaining_balance"`
	Status           LoanStatus `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Bill represents a payable bill
type Bill struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	Name    string    `json:"name"`
	Amount  float64   `json:"amount"`
	Status  string    `json:"status"`
	DueDate time.Time `json:"due_date"`
}
