package models

import (
	"time"
)

type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

func (t TargetType) Valid() bool {
	return t == TargetPost || t == TargetComment
}

// Like is a single (target, user) fact. The unique index is what keeps toggling idempotent
// when two requests from the same user race each other.
type Like struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	TargetType TargetType `gorm:"size:16;not null;uniqueIndex:idx_likes_target_user,priority:1" json:"targetType"`
	TargetID   string     `gorm:"size:64;not null;uniqueIndex:idx_likes_target_user,priority:2" json:"targetId"`
	UserID     string     `gorm:"size:64;not null;uniqueIndex:idx_likes_target_user,priority:3;index" json:"userId"`
	CreatedAt  time.Time  `gorm:"not null" json:"createdAt"`
}
