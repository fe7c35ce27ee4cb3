package models

import (
	"time"
)

type CommentStatus string

const (
	CommentStatusPending  CommentStatus = "pending"
	CommentStatusApproved CommentStatus = "approved"
	CommentStatusHidden   CommentStatus = "hidden"
)

const MaxCommentLength = 2000

type Comment struct {
	ID        string        `gorm:"primaryKey;size:36" json:"id"`
	PostID    string        `gorm:"size:64;not null;index:idx_comments_listing,priority:1" json:"postId"`
	PostSlug  string        `gorm:"size:200;not null" json:"postSlug"`
	AuthorID  string        `gorm:"size:64;not null;index" json:"authorId"`
	ParentID  *string       `gorm:"size:36;index" json:"parentId"` // nil for top-level comments
	Body      string        `gorm:"type:text;not null" json:"body"`
	Status    CommentStatus `gorm:"size:16;not null;default:approved;index:idx_comments_listing,priority:2" json:"status"`
	CreatedAt time.Time     `gorm:"not null;index:idx_comments_listing,priority:3" json:"createdAt"`
	UpdatedAt *time.Time    `gorm:"autoUpdateTime:false" json:"updatedAt"` // nil until first edit
}

// IsTopLevel reports whether the comment starts a thread.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil || *c.ParentID == ""
}
