package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"agencyblog/internal/metrics"
	"agencyblog/internal/models"
	"agencyblog/internal/repository"
	"agencyblog/internal/utils"
)

// MaxLikers caps the "who liked this" list.
const MaxLikers = 10

type LikeState struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"count"`
}

type Likers struct {
	Users      []*Profile `json:"users"`
	TotalCount int64      `json:"totalCount"`
}

// LikeLedger toggles and reports likes on posts and comments.
type LikeLedger struct {
	likes    repository.LikeStore
	comments repository.CommentStore
	enricher *Enricher
	log      *slog.Logger
}

func NewLikeLedger(likes repository.LikeStore, comments repository.CommentStore, enricher *Enricher, log *slog.Logger) *LikeLedger {
	return &LikeLedger{
		likes:    likes,
		comments: comments,
		enricher: enricher,
		log:      log.With("component", "likes"),
	}
}

// Toggle removes the caller's like if present, otherwise adds one. The returned count is
// always read back from storage after the mutation.
func (l *LikeLedger) Toggle(ctx context.Context, target models.TargetType, targetID, userID string) (LikeState, error) {
	if userID == "" {
		return LikeState{}, unauthenticated()
	}
	key, err := likeKey(target, targetID, userID)
	if err != nil {
		return LikeState{}, err
	}

	removed, err := l.likes.Remove(ctx, key)
	if err != nil {
		return LikeState{}, err
	}

	liked := false
	if !removed {
		if target == models.TargetComment {
			if err := l.checkLikeable(ctx, key.TargetID, userID); err != nil {
				return LikeState{}, err
			}
		}
		err := l.likes.Add(ctx, key)
		if err != nil && !errors.Is(err, repository.ErrAlreadyLiked) {
			return LikeState{}, err
		}
		liked = true
	}

	count, err := l.likes.Count(ctx, key.Target, key.TargetID)
	if err != nil {
		return LikeState{}, err
	}
	metrics.LikesToggled.WithLabelValues(string(target), metrics.LikeResult(liked)).Inc()
	return LikeState{Liked: liked, Count: count}, nil
}

// checkLikeable rejects likes on missing or hidden comments and on the caller's own comment.
func (l *LikeLedger) checkLikeable(ctx context.Context, commentID, userID string) error {
	c, err := l.comments.Get(ctx, commentID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("comment")
	}
	if err != nil {
		return err
	}
	if c.Status != models.CommentStatusApproved {
		return notFound("comment")
	}
	if c.AuthorID == userID {
		return selfLike()
	}
	return nil
}

// Status is read-only. An anonymous caller never has liked anything.
func (l *LikeLedger) Status(ctx context.Context, target models.TargetType, targetID, userID string) (LikeState, error) {
	key, err := likeKey(target, targetID, userID)
	if err != nil {
		return LikeState{}, err
	}
	count, err := l.likes.Count(ctx, key.Target, key.TargetID)
	if err != nil {
		return LikeState{}, err
	}
	state := LikeState{Count: count}
	if userID != "" {
		if state.Liked, err = l.likes.Exists(ctx, key); err != nil {
			return LikeState{}, err
		}
	}
	return state, nil
}

// TopLikers lists the most recent likers of a post, newest first, capped at MaxLikers.
// Likers whose profile cannot be loaded are shown anonymously.
func (l *LikeLedger) TopLikers(ctx context.Context, postID string, limit int) (*Likers, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, invalid("postId", "is required")
	}
	if limit <= 0 || limit > MaxLikers {
		limit = MaxLikers
	}

	ids, err := l.likes.RecentLikers(ctx, models.TargetPost, postID, limit)
	if err != nil {
		return nil, err
	}
	total, err := l.likes.Count(ctx, models.TargetPost, postID)
	if err != nil {
		return nil, err
	}

	profiles := l.enricher.Batch(ctx, ids)
	users := make([]*Profile, 0, len(ids))
	for _, id := range ids {
		p := profiles[id]
		if p == nil {
			p = &Profile{UserID: id, DisplayName: utils.AnonymousName, Initials: utils.PlaceholderInitial}
		}
		users = append(users, p)
	}
	return &Likers{Users: users, TotalCount: total}, nil
}

func likeKey(target models.TargetType, targetID, userID string) (repository.LikeKey, error) {
	if !target.Valid() {
		return repository.LikeKey{}, invalid("targetType", "must be post or comment")
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		field := "postId"
		if target == models.TargetComment {
			field = "commentId"
		}
		return repository.LikeKey{}, invalid(field, "is required")
	}
	return repository.LikeKey{Target: target, TargetID: targetID, UserID: userID}, nil
}
