package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"agencyblog/internal/content"
	"agencyblog/internal/db/dbtest"
	"agencyblog/internal/events"
	"agencyblog/internal/identity"
	"agencyblog/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeIdentity struct {
	users   map[string]*identity.User
	slow    map[string]bool
	mu      sync.Mutex
	lookups int
}

func (f *fakeIdentity) Resolve(_ context.Context, credential string) (string, error) {
	if _, ok := f.users[credential]; ok {
		return credential, nil
	}
	return "", identity.ErrUnauthenticated
}

func (f *fakeIdentity) LookupProfile(ctx context.Context, userID string) (*identity.User, error) {
	f.mu.Lock()
	f.lookups++
	f.mu.Unlock()
	if f.slow[userID] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, identity.ErrUnavailable
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		users: map[string]*identity.User{
			"alice": {ID: "alice", FirstName: "Alice", LastName: "Moreno", ImageURL: "https://img.example/alice.png"},
			"bob":   {ID: "bob", Username: "bobby"},
			"carol": {ID: "carol", FirstName: "Carol"},
		},
		slow: map[string]bool{},
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.CommentCreated
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.CommentCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) published() []events.CommentCreated {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.CommentCreated(nil), p.events...)
}

type fakePosts struct {
	posts map[string]*content.Post
	err   error
}

func (f *fakePosts) Post(_ context.Context, id string) (*content.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.posts[id]; ok {
		return p, nil
	}
	return nil, content.ErrPostNotFound
}

type fakeMailer struct {
	sent []Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fixture struct {
	comments  *CommentService
	likes     *LikeLedger
	publisher *recordingPublisher
	identity  *fakeIdentity
	store     repository.CommentStore
	clock     time.Time
}

// newFixture wires the services over a fresh SQLite database. Each comment created through
// the fixture gets a timestamp one second after the previous one.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.New(t)
	f := &fixture{
		publisher: &recordingPublisher{},
		identity:  newFakeIdentity(),
		store:     repository.NewCommentStore(conn),
		clock:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	likes := repository.NewLikeStore(conn)
	enricher := NewEnricher(f.identity, 200*time.Millisecond, discardLogger())
	f.comments = NewCommentService(f.store, likes, enricher, f.publisher, discardLogger())
	f.comments.now = func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	f.likes = NewLikeLedger(likes, f.store, enricher, discardLogger())
	return f
}

func (f *fixture) comment(t *testing.T, author, postID, parentID, body string) string {
	t.Helper()
	c, err := f.comments.Create(context.Background(), author, CreateCommentInput{
		PostID: postID, PostSlug: "slug-" + postID, ParentID: parentID, Body: body,
	})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c.ID
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}
