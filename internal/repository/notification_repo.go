package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dan9191/bank-autopay/internal/models"
)

// CreateNotification inserts a payment notification
func (r *Repository) CreateNotification(ctx context.Context, n *models.PaymentNotification) error {
	query := `
		INSERT INTO bank.payment_notifications (id, user_id, type, title, message, related_payment_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.UserID, string(n.Type), n.Title, n.Message, nullString(n.RelatedPaymentID), n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListNotifications returns the user's notifications, newest first
func (r *Repository) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.PaymentNotification, error) {
	query := `
		SELECT id, user_id, type, title, message, related_payment_id, is_read, created_at
		FROM bank.payment_notifications
		WHERE user_id = $1 AND (NOT $2 OR is_read = FALSE)
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.PaymentNotification
	for rows.Next() {
		var (
			n         models.PaymentNotification
			nType     string
			paymentID sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.UserID, &nType, &n.Title, &n.Message, &paymentID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Type = models.NotificationType(nType)
		n.RelatedPaymentID = paymentID.String
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead sets the read flag on one of the user's notifications
func (r *Repository) MarkNotificationRead(ctx context.Context, userID, notificationID string) (bool, error) {
	query := `UPDATE bank.payment_notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, notificationID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows > 0, nil
}

// MarkAllNotificationsRead sets the read flag on all unread notifications of the user
func (r *Repository) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	query := `UPDATE bank.payment_notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected()
}

// CountUnreadNotifications counts the user's unread notifications
func (r *Repository) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM bank.payment_notifications WHERE user_id = $1 AND is_read = FALSE`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}
