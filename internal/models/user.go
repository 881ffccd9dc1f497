package models

import "time"

// User represents a user in the system
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Username         string    `json:"username"`
	CreditScore      int       `json:"credit_score"`
	OverdraftEnabled bool      `json:"overdraft_enabled"`
	CreatedAt        time.Time `json:"created_at"`
}
