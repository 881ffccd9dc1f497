package events

import "time"

// Event types
const (
	PaymentCompleted         = "payment.completed"
	PaymentFailed            = "payment.failed"
	PaymentInsufficientFunds = "payment.insufficient_funds"
)

// DefaultStream is the Redis stream settlement events are appended to
const DefaultStream = "settlement.events"

// Event is the envelope written to the stream
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// PaymentSettledEvent is published for every terminal settlement outcome
type PaymentSettledEvent struct {
	PaymentID       string    `json:"paymentId"`
	UserID          string    `json:"userId"`
	PaymentType     string    `json:"paymentType"`
	TargetID        string    `json:"targetId"`
	Amount          float64   `json:"amount"`
	Status          string    `json:"status"`
	OverdraftID     string    `json:"overdraftId,omitempty"`
	OverdraftAmount float64   `json:"overdraftAmount,omitempty"`
	OverdraftFee    float64   `json:"overdraftFee,omitempty"`
	ProcessedAt     time.Time `json:"processedAt"`
}
