package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agencyblog/internal/content"
	"agencyblog/internal/events"
	"agencyblog/internal/identity"
	"agencyblog/internal/metrics"
	"agencyblog/internal/models"
	"agencyblog/internal/repository"
	"agencyblog/internal/utils"
)

// NotificationDispatcher emails the site owner about new top-level comments. Every step is
// best effort: problems are logged and recorded, never returned to the commenter.
type NotificationDispatcher struct {
	posts     content.Source
	identity  identity.Adapter
	mail      Mailer
	outcomes  repository.NotificationStore
	recipient string
	siteURL   string
	timeout   time.Duration
	log       *slog.Logger
}

type DispatcherConfig struct {
	Recipient string
	SiteURL   string
	Timeout   time.Duration
}

func NewNotificationDispatcher(posts content.Source, adapter identity.Adapter, mail Mailer, outcomes repository.NotificationStore, cfg DispatcherConfig, log *slog.Logger) *NotificationDispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &NotificationDispatcher{
		posts:     posts,
		identity:  adapter,
		mail:      mail,
		outcomes:  outcomes,
		recipient: cfg.Recipient,
		siteURL:   cfg.SiteURL,
		timeout:   cfg.Timeout,
		log:       log.With("component", "notifier"),
	}
}

// Handle is an events.Handler. It always returns nil; the outcome lands in the delivery log.
func (d *NotificationDispatcher) Handle(ctx context.Context, ev events.CommentCreated) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	log := d.log.With("comment_id", ev.CommentID, "post_id", ev.PostID)

	if d.recipient == "" {
		d.record(ctx, log, ev, models.NotificationSkipped, "no recipient configured")
		return nil
	}
	if d.alreadySent(ctx, log, ev.CommentID) {
		log.InfoContext(ctx, "notification already sent, ignoring redelivery")
		return nil
	}

	post, err := d.posts.Post(ctx, ev.PostID)
	if err != nil {
		log.WarnContext(ctx, "post lookup failed", "error", err)
		d.record(ctx, log, ev, models.NotificationSkipped, "post unavailable: "+err.Error())
		return nil
	}
	if strings.TrimSpace(post.Title) == "" {
		d.record(ctx, log, ev, models.NotificationSkipped, "post has no title")
		return nil
	}
	if post.Slug == "" {
		post.Slug = ev.PostSlug
	}

	author := utils.AnonymousName
	if u, err := d.identity.LookupProfile(ctx, ev.AuthorID); err != nil {
		log.WarnContext(ctx, "author lookup failed", "user_id", ev.AuthorID, "error", err)
	} else if u != nil {
		author = utils.DisplayName(u.FirstName, u.LastName, u.Username)
	}

	html, err := RenderCommentNotification(CommentNotification{
		AuthorName:  author,
		PostTitle:   post.Title,
		CommentHTML: utils.RenderMarkdown(ev.Body),
		PostLink:    content.URL(d.siteURL, post),
	})
	if err != nil {
		log.ErrorContext(ctx, "notification render failed", "error", err)
		d.record(ctx, log, ev, models.NotificationFailed, err.Error())
		return nil
	}

	err = d.mail.Send(ctx, Message{
		To:      []string{d.recipient},
		Subject: fmt.Sprintf("New comment from %s on \"%s\"", author, post.Title),
		HTML:    html,
	})
	switch {
	case errors.Is(err, ErrMailDisabled):
		d.record(ctx, log, ev, models.NotificationSkipped, err.Error())
	case err != nil:
		log.WarnContext(ctx, "notification delivery failed", "error", err)
		d.record(ctx, log, ev, models.NotificationFailed, err.Error())
	default:
		d.record(ctx, log, ev, models.NotificationSent, "")
	}
	return nil
}

// alreadySent reports whether an earlier delivery of this event reached the mailbox. A failed
// lookup counts as not sent: a duplicate email beats a missing one.
func (d *NotificationDispatcher) alreadySent(ctx context.Context, log *slog.Logger, commentID string) bool {
	if d.outcomes == nil {
		return false
	}
	prior, err := d.outcomes.ForComment(ctx, commentID)
	if err != nil {
		log.WarnContext(ctx, "delivery log lookup failed", "error", err)
		return false
	}
	for _, n := range prior {
		if n.Status == models.NotificationSent {
			return true
		}
	}
	return false
}

func (d *NotificationDispatcher) record(ctx context.Context, log *slog.Logger, ev events.CommentCreated, status models.NotificationStatus, reason string) {
	metrics.Notifications.WithLabelValues(string(status)).Inc()
	if d.outcomes == nil {
		return
	}
	// The dispatch deadline may already be spent; the log entry still gets written.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := d.outcomes.Record(ctx, &models.Notification{
		CommentID: ev.CommentID,
		PostID:    ev.PostID,
		Recipient: d.recipient,
		Status:    status,
		Reason:    reason,
	})
	if err != nil {
		log.WarnContext(ctx, "notification outcome not recorded", "status", status, "error", err)
	}
}
