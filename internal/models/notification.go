package models

import (
	"time"
)

type NotificationStatus string

const (
	NotificationSent    NotificationStatus = "sent"
	NotificationSkipped NotificationStatus = "skipped"
	NotificationFailed  NotificationStatus = "failed"
)

// Notification records what happened to the new-comment email for one comment.
type Notification struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	CommentID string             `gorm:"size:36;not null;index" json:"commentId"`
	PostID    string             `gorm:"size:64;not null;index" json:"postId"`
	Recipient string             `gorm:"size:255" json:"recipient"`
	Status    NotificationStatus `gorm:"size:16;not null" json:"status"`
	Reason    string             `gorm:"type:text" json:"reason"`
	CreatedAt time.Time          `json:"createdAt"`
}
