package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"agencyblog/internal/content"
	"agencyblog/internal/db/dbtest"
	"agencyblog/internal/events"
	"agencyblog/internal/models"
	"agencyblog/internal/repository"
)

type notifierFixture struct {
	dispatcher *NotificationDispatcher
	posts      *fakePosts
	mailer     *fakeMailer
	outcomes   repository.NotificationStore
}

func newNotifierFixture(t *testing.T, recipient string) *notifierFixture {
	t.Helper()
	f := &notifierFixture{
		posts: &fakePosts{posts: map[string]*content.Post{
			"P1": {ID: "P1", Slug: "hurricane-season", Title: "Hurricane season checklist", Locale: "es"},
			"P2": {ID: "P2", Slug: "draft"},
		}},
		mailer:   &fakeMailer{},
		outcomes: repository.NewNotificationStore(dbtest.New(t)),
	}
	f.dispatcher = NewNotificationDispatcher(f.posts, newFakeIdentity(), f.mailer, f.outcomes, DispatcherConfig{
		Recipient: recipient,
		SiteURL:   "https://agency.example/",
		Timeout:   time.Second,
	}, discardLogger())
	return f
}

func (f *notifierFixture) outcome(t *testing.T, commentID string) models.Notification {
	t.Helper()
	rows, err := f.outcomes.ForComment(context.Background(), commentID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one delivery record for %s, got %d", commentID, len(rows))
	}
	return rows[0]
}

func TestDispatcherSendsNotification(t *testing.T) {
	f := newNotifierFixture(t, "owner@agency.example")
	err := f.dispatcher.Handle(context.Background(), events.CommentCreated{
		CommentID: "c1", PostID: "P1", PostSlug: "hurricane-season", AuthorID: "alice", Body: "Very *useful*",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(f.mailer.sent))
	}
	msg := f.mailer.sent[0]
	if msg.To[0] != "owner@agency.example" {
		t.Errorf("recipient = %v", msg.To)
	}
	if !strings.Contains(msg.Subject, "Alice Moreno") || !strings.Contains(msg.Subject, "Hurricane season checklist") {
		t.Errorf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"https://agency.example/es/blog/hurricane-season", "<em>useful</em>", "Alice Moreno"} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("email body missing %q:\n%s", want, msg.HTML)
		}
	}
	if got := f.outcome(t, "c1"); got.Status != models.NotificationSent {
		t.Errorf("outcome = %+v", got)
	}
}

func TestDispatcherAnonymousFallback(t *testing.T) {
	f := newNotifierFixture(t, "owner@agency.example")
	_ = f.dispatcher.Handle(context.Background(), events.CommentCreated{CommentID: "c2", PostID: "P1", AuthorID: "ghost", Body: "hi"})
	if len(f.mailer.sent) != 1 || !strings.Contains(f.mailer.sent[0].Subject, "Anonymous") {
		t.Fatalf("unknown author should be shown as Anonymous, sent %+v", f.mailer.sent)
	}
}

func TestDispatcherSkipsWithoutPostTitle(t *testing.T) {
	f := newNotifierFixture(t, "owner@agency.example")
	ctx := context.Background()

	_ = f.dispatcher.Handle(ctx, events.CommentCreated{CommentID: "c3", PostID: "P2", AuthorID: "alice", Body: "x"})
	_ = f.dispatcher.Handle(ctx, events.CommentCreated{CommentID: "c4", PostID: "missing", AuthorID: "alice", Body: "x"})
	f.posts.err = errors.New("cms timeout")
	_ = f.dispatcher.Handle(ctx, events.CommentCreated{CommentID: "c5", PostID: "P1", AuthorID: "alice", Body: "x"})

	if len(f.mailer.sent) != 0 {
		t.Fatalf("no email should be sent, got %d", len(f.mailer.sent))
	}
	for _, id := range []string{"c3", "c4", "c5"} {
		if got := f.outcome(t, id); got.Status != models.NotificationSkipped {
			t.Errorf("%s outcome = %+v", id, got)
		}
	}
}

func TestDispatcherRecordsTransportFailure(t *testing.T) {
	f := newNotifierFixture(t, "owner@agency.example")
	f.mailer.err = errors.New("connection refused")
	if err := f.dispatcher.Handle(context.Background(), events.CommentCreated{CommentID: "c6", PostID: "P1", AuthorID: "alice", Body: "x"}); err != nil {
		t.Fatalf("transport failure must not surface: %v", err)
	}
	got := f.outcome(t, "c6")
	if got.Status != models.NotificationFailed || !strings.Contains(got.Reason, "connection refused") {
		t.Errorf("outcome = %+v", got)
	}
}

func TestDispatcherIgnoresRedeliveredEvent(t *testing.T) {
	f := newNotifierFixture(t, "owner@agency.example")
	ev := events.CommentCreated{CommentID: "c8", PostID: "P1", AuthorID: "alice", Body: "x"}

	f.mailer.err = errors.New("connection refused")
	_ = f.dispatcher.Handle(context.Background(), ev)
	f.mailer.err = nil
	for i := 0; i < 2; i++ {
		if err := f.dispatcher.Handle(context.Background(), ev); err != nil {
			t.Fatal(err)
		}
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected one email after a failure and two deliveries, got %d", len(f.mailer.sent))
	}
	rows, err := f.outcomes.ForComment(context.Background(), "c8")
	if err != nil {
		t.Fatal(err)
	}
	statuses := map[models.NotificationStatus]int{}
	for _, r := range rows {
		statuses[r.Status]++
	}
	if len(rows) != 2 || statuses[models.NotificationFailed] != 1 || statuses[models.NotificationSent] != 1 {
		t.Fatalf("delivery log = %+v", rows)
	}
}

func TestDispatcherDisabledMailIsSkipped(t *testing.T) {
	f := newNotifierFixture(t, "owner@agency.example")
	f.mailer.err = ErrMailDisabled
	_ = f.dispatcher.Handle(context.Background(), events.CommentCreated{CommentID: "c7", PostID: "P1", AuthorID: "alice", Body: "x"})
	if got := f.outcome(t, "c7"); got.Status != models.NotificationSkipped {
		t.Errorf("outcome = %+v", got)
	}
}

func TestDispatcherWithoutRecipient(t *testing.T) {
	f := newNotifierFixture(t, "")
	_ = f.dispatcher.Handle(context.Background(), events.CommentCreated{CommentID: "c8", PostID: "P1", AuthorID: "alice", Body: "x"})
	if len(f.mailer.sent) != 0 {
		t.Fatal("nothing to send without a recipient")
	}
	if got := f.outcome(t, "c8"); got.Status != models.NotificationSkipped {
		t.Errorf("outcome = %+v", got)
	}
}

// Creating a top-level comment reaches the dispatcher through the queue exactly once, and the
// commenter gets their response before delivery finishes.
func TestCommentToNotificationPipeline(t *testing.T) {
	nf := newNotifierFixture(t, "owner@agency.example")
	release := make(chan struct{})
	slowMail := MailerFunc(func(ctx context.Context, msg Message) error {
		<-release
		return nf.mailer.Send(ctx, msg)
	})
	nf.dispatcher.mail = slowMail

	queue := events.NewMemoryQueue(10, 1, nf.dispatcher.Handle, discardLogger())
	queue.Start(context.Background())

	f := newFixture(t)
	f.comments.events = queue

	done := make(chan string, 1)
	go func() {
		c, err := f.comments.Create(context.Background(), "alice", CreateCommentInput{PostID: "P1", PostSlug: "hurricane-season", Body: "top"})
		if err != nil {
			t.Error(err)
			done <- ""
			return
		}
		done <- c.ID
	}()

	var top string
	select {
	case top = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("create waited on notification delivery")
	}
	close(release)
	if _, err := f.comments.Create(context.Background(), "bob", CreateCommentInput{PostID: "P1", PostSlug: "hurricane-season", ParentID: top, Body: "reply"}); err != nil {
		t.Fatal(err)
	}
	queue.Close()

	if len(nf.mailer.sent) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(nf.mailer.sent))
	}
	if got := nf.outcome(t, top); got.Status != models.NotificationSent {
		t.Fatalf("outcome = %+v", got)
	}
}
