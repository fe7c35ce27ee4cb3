package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"agencyblog/internal/events"
	"agencyblog/internal/metrics"
	"agencyblog/internal/models"
	"agencyblog/internal/pagination"
	"agencyblog/internal/repository"
	"agencyblog/internal/utils"

	"github.com/google/uuid"
)

type CreateCommentInput struct {
	PostID   string
	PostSlug string
	ParentID string
	Body     string
}

type ListCommentsInput struct {
	PostID   string
	ParentID string
	Limit    string
	Cursor   string
}

// CommentView is a comment as returned to readers.
type CommentView struct {
	models.Comment
	BodyHTML   string   `json:"bodyHtml"`
	LikeCount  int64    `json:"likeCount"`
	IsLiked    bool     `json:"isLiked"`
	ReplyCount int64    `json:"replyCount"`
	Author     *Profile `json:"author"`
}

type CommentPage struct {
	Items      []CommentView `json:"items"`
	NextCursor *string       `json:"nextCursor"`
}

type CommentService struct {
	comments repository.CommentStore
	likes    repository.LikeStore
	enricher *Enricher
	events   events.Publisher
	log      *slog.Logger
	now      func() time.Time
}

func NewCommentService(comments repository.CommentStore, likes repository.LikeStore, enricher *Enricher, publisher events.Publisher, log *slog.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		likes:    likes,
		enricher: enricher,
		events:   publisher,
		log:      log.With("component", "comments"),
		now:      time.Now,
	}
}

func (s *CommentService) Create(ctx context.Context, callerID string, in CreateCommentInput) (*models.Comment, error) {
	if callerID == "" {
		return nil, unauthenticated()
	}
	in.PostID = strings.TrimSpace(in.PostID)
	in.PostSlug = strings.TrimSpace(in.PostSlug)
	in.ParentID = strings.TrimSpace(in.ParentID)
	if in.PostID == "" {
		return nil, invalid("postId", "is required")
	}
	if in.PostSlug == "" {
		return nil, invalid("postSlug", "is required")
	}
	body, err := validateBody(in.Body)
	if err != nil {
		return nil, err
	}

	c := &models.Comment{
		ID:       uuid.NewString(),
		PostID:   in.PostID,
		PostSlug: in.PostSlug,
		AuthorID: callerID,
		Body:     body,
		Status:   models.CommentStatusApproved,
		// Cursors carry microsecond precision, so stored times must not be finer than that.
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	if in.ParentID != "" {
		if err := s.checkParent(ctx, in.PostID, in.ParentID); err != nil {
			return nil, err
		}
		parentID := in.ParentID
		c.ParentID = &parentID
	}

	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	metrics.CommentsCreated.WithLabelValues(metrics.Level(c.IsTopLevel())).Inc()

	if c.IsTopLevel() {
		s.announce(ctx, c)
	}
	return c, nil
}

func (s *CommentService) checkParent(ctx context.Context, postID, parentID string) error {
	parent, err := s.comments.Get(ctx, parentID)
	if errors.Is(err, repository.ErrNotFound) {
		return invalid("parentId", "parent comment does not exist")
	}
	if err != nil {
		return err
	}
	if parent.Status != models.CommentStatusApproved {
		return invalid("parentId", "parent comment does not exist")
	}
	if parent.PostID != postID {
		return invalid("parentId", "parent comment belongs to another post")
	}
	if !parent.IsTopLevel() {
		return invalid("parentId", "replies cannot be nested")
	}
	return nil
}

// announce hands the new comment to the notification pipeline. Failures stop here.
func (s *CommentService) announce(ctx context.Context, c *models.Comment) {
	ev := events.CommentCreated{
		CommentID: c.ID,
		PostID:    c.PostID,
		PostSlug:  c.PostSlug,
		AuthorID:  c.AuthorID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		metrics.EventsDropped.Inc()
		s.log.WarnContext(ctx, "comment event not published", "comment_id", c.ID, "post_id", c.PostID, "error", err)
	}
}

func (s *CommentService) List(ctx context.Context, callerID string, in ListCommentsInput) (*CommentPage, error) {
	postID := strings.TrimSpace(in.PostID)
	if postID == "" {
		return nil, invalid("postId", "is required")
	}

	rows, next, err := s.comments.List(ctx, repository.ListQuery{
		PostID:   postID,
		ParentID: strings.TrimSpace(in.ParentID),
		Window:   pagination.Resolve(in.Limit, in.Cursor),
	})
	if err != nil {
		return nil, err
	}

	page := &CommentPage{Items: s.decorate(ctx, callerID, rows)}
	if next != nil {
		cursor := pagination.FormatCursor(*next)
		page.NextCursor = &cursor
	}
	return page, nil
}

// Get returns an approved comment, or any comment to its own author.
func (s *CommentService) Get(ctx context.Context, callerID, id string) (*CommentView, error) {
	c, err := s.comments.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("comment")
	}
	if err != nil {
		return nil, err
	}
	if c.Status != models.CommentStatusApproved && (callerID == "" || c.AuthorID != callerID) {
		return nil, notFound("comment")
	}
	views := s.decorate(ctx, callerID, []models.Comment{*c})
	return &views[0], nil
}

func (s *CommentService) Update(ctx context.Context, callerID, id, body string) (*models.Comment, error) {
	if callerID == "" {
		return nil, unauthenticated()
	}
	clean, err := validateBody(body)
	if err != nil {
		return nil, err
	}
	c, err := s.comments.UpdateBody(ctx, id, callerID, clean, s.now().UTC().Truncate(time.Microsecond))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("comment")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SoftDelete hides the caller's comment. Someone else's or a missing comment is a silent no-op.
func (s *CommentService) SoftDelete(ctx context.Context, callerID, id string) error {
	if callerID == "" {
		return unauthenticated()
	}
	return s.comments.Hide(ctx, id, callerID)
}

func (s *CommentService) Count(ctx context.Context, postID string) (int64, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return 0, invalid("postId", "is required")
	}
	return s.comments.CountForPost(ctx, postID)
}

// decorate attaches like state, reply counts and author profiles using one query per concern.
// Decoration failures degrade to zero values rather than failing the listing.
func (s *CommentService) decorate(ctx context.Context, callerID string, rows []models.Comment) []CommentView {
	views := make([]CommentView, len(rows))
	if len(rows) == 0 {
		return views
	}

	ids := make([]string, 0, len(rows))
	topLevel := make([]string, 0, len(rows))
	authors := make([]string, 0, len(rows))
	for _, c := range rows {
		ids = append(ids, c.ID)
		authors = append(authors, c.AuthorID)
		if c.IsTopLevel() {
			topLevel = append(topLevel, c.ID)
		}
	}

	likeCounts, err := s.likes.CountMany(ctx, models.TargetComment, ids)
	if err != nil {
		s.log.WarnContext(ctx, "like counts unavailable", "error", err)
	}
	liked, err := s.likes.LikedBy(ctx, models.TargetComment, ids, callerID)
	if err != nil {
		s.log.WarnContext(ctx, "liked state unavailable", "user_id", callerID, "error", err)
	}
	replies, err := s.comments.CountReplies(ctx, topLevel)
	if err != nil {
		s.log.WarnContext(ctx, "reply counts unavailable", "error", err)
	}
	profiles := s.enricher.Batch(ctx, authors)

	for i, c := range rows {
		views[i] = CommentView{
			Comment:    c,
			BodyHTML:   string(utils.RenderMarkdown(c.Body)),
			LikeCount:  likeCounts[c.ID],
			IsLiked:    liked[c.ID],
			ReplyCount: replies[c.ID],
			Author:     profiles[c.AuthorID],
		}
	}
	return views
}

func validateBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", invalid("body", "comment cannot be empty")
	}
	if n := utf8.RuneCountInString(body); n > models.MaxCommentLength {
		return "", invalid("body", fmt.Sprintf("comment is %d characters, the limit is %d", n, models.MaxCommentLength))
	}
	return body, nil
}
