package repository

import (
	"context"
	"fmt"

	"agencyblog/internal/models"

	"gorm.io/gorm"
)

type NotificationStore interface {
	Record(ctx context.Context, n *models.Notification) error
	ForComment(ctx context.Context, commentID string) ([]models.Notification, error)
}

type notificationStore struct {
	db *gorm.DB
}

func NewNotificationStore(db *gorm.DB) NotificationStore {
	return &notificationStore{db: db}
}

func (s *notificationStore) Record(ctx context.Context, n *models.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	return nil
}

func (s *notificationStore) ForComment(ctx context.Context, commentID string) ([]models.Notification, error) {
	var out []models.Notification
	err := s.db.WithContext(ctx).
		Where("comment_id = ?", commentID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}
