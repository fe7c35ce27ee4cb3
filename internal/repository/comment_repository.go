package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agencyblog/internal/models"
	"agencyblog/internal/pagination"

	"gorm.io/gorm"
)

// ListQuery selects one nesting level of approved comments on a post. An empty ParentID means
// top-level comments only.
type ListQuery struct {
	PostID   string
	ParentID string
	Window   pagination.Window
}

type CommentStore interface {
	Create(ctx context.Context, c *models.Comment) error
	Get(ctx context.Context, id string) (*models.Comment, error)
	List(ctx context.Context, q ListQuery) (items []models.Comment, next *time.Time, err error)
	UpdateBody(ctx context.Context, id, authorID, body string, at time.Time) (*models.Comment, error)
	Hide(ctx context.Context, id, authorID string) error
	CountReplies(ctx context.Context, parentIDs []string) (map[string]int64, error)
	CountForPost(ctx context.Context, postID string) (int64, error)
}

type commentStore struct {
	db *gorm.DB
}

func NewCommentStore(db *gorm.DB) CommentStore {
	return &commentStore{db: db}
}

func (s *commentStore) Create(ctx context.Context, c *models.Comment) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// Get returns the comment regardless of status.
func (s *commentStore) Get(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %s: %w", id, err)
	}
	return &c, nil
}

// List returns newest-first approved comments. It fetches one row past the page to learn whether
// another page exists; next is the timestamp of the last returned item in that case.
func (s *commentStore) List(ctx context.Context, q ListQuery) ([]models.Comment, *time.Time, error) {
	limit := pagination.Clamp(q.Window.Limit, pagination.MaxLimit)

	query := s.db.WithContext(ctx).
		Where("post_id = ? AND status = ?", q.PostID, models.CommentStatusApproved)
	if q.ParentID == "" {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", q.ParentID)
	}
	if q.Window.Before != nil {
		query = query.Where("created_at < ?", *q.Window.Before)
	}

	var rows []models.Comment
	if err := query.Order("created_at DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("list comments for post %s: %w", q.PostID, err)
	}

	if len(rows) <= limit {
		return rows, nil, nil
	}
	rows = rows[:limit]
	next := rows[limit-1].CreatedAt.UTC()
	return rows, &next, nil
}

// UpdateBody edits a comment only when both id and author match, so non-owners cannot tell a
// foreign comment from a missing one.
func (s *commentStore) UpdateBody(ctx context.Context, id, authorID, body string, at time.Time) (*models.Comment, error) {
	var updated models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Comment{}).
			Where("id = ? AND author_id = ?", id, authorID).
			Updates(map[string]interface{}{"body": body, "updated_at": at})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("id = ?", id).First(&updated).Error
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update comment %s: %w", id, err)
	}
	return &updated, nil
}

// Hide soft-deletes a comment owned by authorID. No match is not an error.
func (s *commentStore) Hide(ctx context.Context, id, authorID string) error {
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND author_id = ?", id, authorID).
		Update("status", models.CommentStatusHidden).Error
	if err != nil {
		return fmt.Errorf("hide comment %s: %w", id, err)
	}
	return nil
}

// CountReplies counts approved direct replies per parent in one query.
func (s *commentStore) CountReplies(ctx context.Context, parentIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(parentIDs))
	if len(parentIDs) == 0 {
		return counts, nil
	}

	type countResult struct {
		ParentID string
		Count    int64
	}
	var results []countResult
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("parent_id, COUNT(*) AS count").
		Where("parent_id IN ? AND status = ?", parentIDs, models.CommentStatusApproved).
		Group("parent_id").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("count replies: %w", err)
	}
	for _, r := range results {
		counts[r.ParentID] = r.Count
	}
	return counts, nil
}

func (s *commentStore) CountForPost(ctx context.Context, postID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ? AND status = ?", postID, models.CommentStatusApproved).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count comments for post %s: %w", postID, err)
	}
	return count, nil
}
