package service

import (
	"context"

	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/sirupsen/logrus"
)

// NotificationService exposes the user's payment notifications
type NotificationService struct {
	store NotificationStore
	log   *logrus.Logger
}

func NewNotificationService(store NotificationStore, log *logrus.Logger) *NotificationService {
	return &NotificationService{store: store, log: log}
}

func (s *NotificationService) GetNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.PaymentNotification, error) {
	return s.store.ListNotifications(ctx, userID, unreadOnly)
}

// MarkNotificationRead flags one notification as read; false when the user has no such notification
func (s *NotificationService) MarkNotificationRead(ctx context.Context, userID, notificationID string) (bool, error) {
	return s.store.MarkNotificationRead(ctx, userID, notificationID)
}

func (s *NotificationService) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.log.Debugf("Marked %d notifications read for user %s", n, userID)
	return n, nil
}

func (s *NotificationService) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnreadNotifications(ctx, userID)
}
