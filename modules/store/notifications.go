package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Deekshith9238/testingfhm/domain/market"
)

// NotificationRepository provides access to notification storage.
// Rows are append-only from the fan-out service's perspective; the only
// mutation is the recipient flipping the read flag.
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create saves a new notification.
func (r *NotificationRepository) Create(ctx context.Context, n *market.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByRecipient retrieves a recipient's notifications, newest first.
// When unreadOnly is set, read notifications are filtered out.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*market.Notification, error) {
	q := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC")
	if unreadOnly {
		q = q.Where("read = ?", false)
	}

	var notifications []*market.Notification
	if err := q.Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flips the read flag on a notification. The recipient guard
// keeps one user from marking another user's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	result := r.db.WithContext(ctx).Model(&market.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return market.ErrNotificationNotFound
	}
	return nil
}

// CountByRecipient returns how many notifications a recipient has,
// split into total and unread.
func (r *NotificationRepository) CountByRecipient(ctx context.Context, recipientID string) (total int64, unread int64, err error) {
	if err = r.db.WithContext(ctx).Model(&market.Notification{}).
		Where("recipient_id = ?", recipientID).
		Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	if err = r.db.WithContext(ctx).Model(&market.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&unread).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return total, unread, nil
}
