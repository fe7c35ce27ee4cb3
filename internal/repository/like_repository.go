package repository

import (
	"context"
	"fmt"
	"time"

	"agencyblog/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LikeKey struct {
	Target   models.TargetType
	TargetID string
	UserID   string
}

// LikeStore keeps (target, user) like facts. Counts are always computed from rows.
type LikeStore interface {
	// Remove deletes the like for key and reports whether a row existed.
	Remove(ctx context.Context, key LikeKey) (bool, error)
	// Add inserts the like. A concurrent insert that won the race yields ErrAlreadyLiked.
	Add(ctx context.Context, key LikeKey) error
	Exists(ctx context.Context, key LikeKey) (bool, error)
	Count(ctx context.Context, target models.TargetType, targetID string) (int64, error)
	CountMany(ctx context.Context, target models.TargetType, targetIDs []string) (map[string]int64, error)
	LikedBy(ctx context.Context, target models.TargetType, targetIDs []string, userID string) (map[string]bool, error)
	// RecentLikers returns user ids, most recent like first.
	RecentLikers(ctx context.Context, target models.TargetType, targetID string, limit int) ([]string, error)
}

type likeStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLikeStore(db *gorm.DB) LikeStore {
	return &likeStore{db: db, now: time.Now}
}

func (s *likeStore) Remove(ctx context.Context, key LikeKey) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ? AND user_id = ?", key.Target, key.TargetID, key.UserID).
		Delete(&models.Like{})
	if res.Error != nil {
		return false, fmt.Errorf("delete like: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *likeStore) Add(ctx context.Context, key LikeKey) error {
	like := models.Like{
		ID:         uuid.NewString(),
		TargetType: key.Target,
		TargetID:   key.TargetID,
		UserID:     key.UserID,
		CreatedAt:  s.now().UTC(),
	}
	err := s.db.WithContext(ctx).Create(&like).Error
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return ErrAlreadyLiked
	}
	return fmt.Errorf("insert like: %w", err)
}

func (s *likeStore) Exists(ctx context.Context, key LikeKey) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("target_type = ? AND target_id = ? AND user_id = ?", key.Target, key.TargetID, key.UserID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return count > 0, nil
}

func (s *likeStore) Count(ctx context.Context, target models.TargetType, targetID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("target_type = ? AND target_id = ?", target, targetID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

func (s *likeStore) CountMany(ctx context.Context, target models.TargetType, targetIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(targetIDs))
	if len(targetIDs) == 0 {
		return counts, nil
	}

	type countResult struct {
		TargetID string
		Count    int64
	}
	var results []countResult
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Select("target_id, COUNT(*) AS count").
		Where("target_type = ? AND target_id IN ?", target, targetIDs).
		Group("target_id").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	for _, r := range results {
		counts[r.TargetID] = r.Count
	}
	return counts, nil
}

func (s *likeStore) LikedBy(ctx context.Context, target models.TargetType, targetIDs []string, userID string) (map[string]bool, error) {
	liked := make(map[string]bool)
	if userID == "" || len(targetIDs) == 0 {
		return liked, nil
	}

	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("target_type = ? AND target_id IN ? AND user_id = ?", target, targetIDs, userID).
		Pluck("target_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("load liked targets: %w", err)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (s *likeStore) RecentLikers(ctx context.Context, target models.TargetType, targetID string, limit int) ([]string, error) {
	var users []string
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("target_type = ? AND target_id = ?", target, targetID).
		Order("created_at DESC").
		Limit(limit).
		Pluck("user_id", &users).Error
	if err != nil {
		return nil, fmt.Errorf("list likers: %w", err)
	}
	return users, nil
}
