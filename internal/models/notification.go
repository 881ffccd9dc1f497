package models

import "time"

// NotificationType classifies a payment notification
type NotificationType string

const (
	NotificationInsufficientFunds NotificationType = "insufficient_funds"
	NotificationPaymentSuccess    NotificationType = "payment_success"
	NotificationPaymentFailed     NotificationType = "payment_failed"
)

// PaymentNotification is a user-facing message produced by settlement
type PaymentNotification struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	Type             NotificationType `json:"type"`
	Title            string           `json:"title"`
	Message          string           `json:"message"`
	RelatedPaymentID string           `json:"related_payment_id,omitempty"`
	IsRead           bool             `json:"is_read"`
	CreatedAt        time.Time        `json:"created_at"`
}
