package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"agencyblog/internal/identity"
	"agencyblog/internal/metrics"
	"agencyblog/internal/utils"

	"golang.org/x/sync/errgroup"
)

// Profile is the minimal author card shown next to comments and likers.
type Profile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Initials    string `json:"initials"`
}

func NewProfile(u *identity.User) *Profile {
	return &Profile{
		UserID:      u.ID,
		DisplayName: utils.DisplayName(u.FirstName, u.LastName, u.Username),
		AvatarURL:   u.ImageURL,
		Initials:    utils.Initials(u.FirstName, u.LastName, u.Username, u.Email),
	}
}

// Enricher decorates responses with author profiles.
type Enricher struct {
	identity identity.Adapter
	timeout  time.Duration
	log      *slog.Logger
}

func NewEnricher(adapter identity.Adapter, timeout time.Duration, log *slog.Logger) *Enricher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Enricher{
		identity: adapter,
		timeout:  timeout,
		log:      log.With("component", "enricher"),
	}
}

// Batch starts one lookup per distinct id at once, so the whole batch takes about one lookup
// timeout. Callers pass at most a page of ids. A failed or slow lookup maps to nil and never
// fails the batch, so the returned map always has an entry per distinct non-empty id.
func (e *Enricher) Batch(ctx context.Context, userIDs []string) map[string]*Profile {
	ids := dedupe(userIDs)
	out := make(map[string]*Profile, len(ids))
	if len(ids) == 0 {
		return out
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			p := e.lookup(gctx, id)
			mu.Lock()
			out[id] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Enricher) lookup(ctx context.Context, userID string) *Profile {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		user *identity.User
		err  error
	}
	done := make(chan result, 1)
	go func() {
		u, err := e.identity.LookupProfile(ctx, userID)
		done <- result{u, err}
	}()

	var u *identity.User
	var err error
	select {
	case r := <-done:
		u, err = r.user, r.err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil || u == nil {
		metrics.ProfileLookupFailures.Inc()
		e.log.WarnContext(ctx, "profile lookup failed", "user_id", userID, "error", err)
		return nil
	}
	return NewProfile(u)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
