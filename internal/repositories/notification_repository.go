package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	// ListByRecipient returns notifications newest first, starting after the keyset.
	ListByRecipient(ctx context.Context, recipientID string, after *Keyset, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	// DeleteLatestMatching removes the newest notification for the given event shape.
	DeleteLatestMatching(ctx context.Context, recipientID, actorID string, kind models.NotificationKind, subjectPostID *string) (bool, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = NewID()
	}
	notification.CreatedAt = stamp(notification.CreatedAt)
	return translate(ctx, "notifications.create", r.db.WithContext(ctx).Create(notification).Error)
}

func (r *postgresNotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("notifications.get", "notification", id)
		}
		return nil, translate(ctx, "notifications.get", err)
	}
	return &n, nil
}

func (r *postgresNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, after *Keyset, limit int) ([]models.Notification, error) {
	notifications := []models.Notification{}
	q := keysetBefore(r.db.WithContext(ctx).Where("recipient_id = ?", recipientID), "id", after)
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&notifications).Error
	return notifications, translate(ctx, "notifications.list", err)
}

func (r *postgresNotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	return count, translate(ctx, "notifications.count_unread", err)
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("read", true).Error
	return translate(ctx, "notifications.mark_read", err)
}

func (r *postgresNotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true)
	return res.RowsAffected, translate(ctx, "notifications.mark_all_read", res.Error)
}

func (r *postgresNotificationRepository) DeleteLatestMatching(ctx context.Context, recipientID, actorID string, kind models.NotificationKind, subjectPostID *string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND actor_id = ? AND kind = ?", recipientID, actorID, kind)
	if subjectPostID != nil {
		q = q.Where("subject_post_id = ?", *subjectPostID)
	} else {
		q = q.Where("subject_post_id IS NULL")
	}
	var ids []string
	if err := q.Order("created_at DESC").Order("id DESC").Limit(1).Pluck("id", &ids).Error; err != nil {
		return false, translate(ctx, "notifications.delete_matching", err)
	}
	if len(ids) == 0 {
		return false, nil
	}
	res := r.db.WithContext(ctx).Where("id = ?", ids[0]).Delete(&models.Notification{})
	if res.Error != nil {
		return false, translate(ctx, "notifications.delete_matching", res.Error)
	}
	return res.RowsAffected > 0, nil
}
