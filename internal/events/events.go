// Package events carries "comment created" events from the request path to the notification
// consumer so that delivery never runs on, or fails, the request.
package events

import (
	"context"
	"time"
)

// CommentCreated is published once per new top-level comment.
type CommentCreated struct {
	CommentID string    `json:"commentId"`
	PostID    string    `json:"postId"`
	PostSlug  string    `json:"postSlug"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type Publisher interface {
	// Publish hands the event off without waiting for it to be handled.
	Publish(ctx context.Context, ev CommentCreated) error
}

type Handler func(ctx context.Context, ev CommentCreated) error
