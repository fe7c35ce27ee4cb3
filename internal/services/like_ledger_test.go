package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"agencyblog/internal/db/dbtest"
	"agencyblog/internal/models"
	"agencyblog/internal/repository"
)

func TestToggleTwiceRestoresCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	comment := f.comment(t, "alice", "P1", "", "like me")
	if _, err := f.likes.Toggle(ctx, models.TargetComment, comment, "carol"); err != nil {
		t.Fatal(err)
	}

	targets := []struct {
		kind models.TargetType
		id   string
	}{
		{models.TargetPost, "P1"},
		{models.TargetComment, comment},
	}
	for _, target := range targets {
		t.Run(string(target.kind), func(t *testing.T) {
			before, err := f.likes.Status(ctx, target.kind, target.id, "bob")
			if err != nil {
				t.Fatal(err)
			}
			first, err := f.likes.Toggle(ctx, target.kind, target.id, "bob")
			if err != nil {
				t.Fatal(err)
			}
			if !first.Liked || first.Count != before.Count+1 {
				t.Fatalf("first toggle = %+v, before = %+v", first, before)
			}
			second, err := f.likes.Toggle(ctx, target.kind, target.id, "bob")
			if err != nil {
				t.Fatal(err)
			}
			if second.Liked || second.Count != before.Count {
				t.Fatalf("second toggle = %+v, before = %+v", second, before)
			}
		})
	}
}

func TestSelfLikeRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	comment := f.comment(t, "alice", "P1", "", "mine")

	_, err := f.likes.Toggle(ctx, models.TargetComment, comment, "alice")
	assertKind(t, err, ErrSelfLike)
	state, err := f.likes.Status(ctx, models.TargetComment, comment, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if state.Liked || state.Count != 0 {
		t.Fatalf("self like changed state: %+v", state)
	}

	// Authors may like posts; there is no post ownership here.
	if _, err := f.likes.Toggle(ctx, models.TargetPost, "P1", "alice"); err != nil {
		t.Fatalf("post like: %v", err)
	}
}

func TestToggleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.likes.Toggle(ctx, models.TargetPost, "P1", "")
	assertKind(t, err, ErrUnauthenticated)
	_, err = f.likes.Toggle(ctx, models.TargetPost, " ", "bob")
	assertKind(t, err, ErrValidation)
	_, err = f.likes.Toggle(ctx, models.TargetType("story"), "P1", "bob")
	assertKind(t, err, ErrValidation)
	_, err = f.likes.Toggle(ctx, models.TargetComment, "missing", "bob")
	assertKind(t, err, ErrNotFound)
}

func TestStatusAnonymousNeverLiked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, u := range []string{"alice", "bob"} {
		if _, err := f.likes.Toggle(ctx, models.TargetPost, "P1", u); err != nil {
			t.Fatal(err)
		}
	}
	state, err := f.likes.Status(ctx, models.TargetPost, "P1", "")
	if err != nil {
		t.Fatal(err)
	}
	if state.Liked || state.Count != 2 {
		t.Fatalf("anonymous status = %+v", state)
	}
	state, _ = f.likes.Status(ctx, models.TargetPost, "P1", "bob")
	if !state.Liked {
		t.Fatal("bob liked the post")
	}
}

func TestConcurrentTogglesKeepAtMostOneLike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	comment := f.comment(t, "alice", "P1", "", "double click me")

	for round := 0; round < 10; round++ {
		var wg sync.WaitGroup
		results := make([]LikeState, 2)
		errs := make([]error, 2)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = f.likes.Toggle(ctx, models.TargetComment, comment, "bob")
			}(i)
		}
		wg.Wait()

		for i := range results {
			if errs[i] != nil {
				t.Fatalf("round %d: toggle error %v", round, errs[i])
			}
			if results[i].Count > 1 {
				t.Fatalf("round %d: count %d exceeds one like per user", round, results[i].Count)
			}
		}
		state, err := f.likes.Status(ctx, models.TargetComment, comment, "bob")
		if err != nil {
			t.Fatal(err)
		}
		if state.Count > 1 {
			t.Fatalf("round %d: %d rows survived", round, state.Count)
		}
		if state.Liked {
			// Reset so every round starts from "not liked".
			if _, err := f.likes.Toggle(ctx, models.TargetComment, comment, "bob"); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func TestTopLikers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	users := []string{"alice", "bob", "carol", "ghost"}
	for _, u := range users {
		if _, err := f.likes.Toggle(ctx, models.TargetPost, "P1", u); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 12; i++ {
		if _, err := f.likes.Toggle(ctx, models.TargetPost, "P1", "extra-"+string(rune('a'+i))); err != nil {
			t.Fatal(err)
		}
	}

	likers, err := f.likes.TopLikers(ctx, "P1", 50)
	if err != nil {
		t.Fatal(err)
	}
	if likers.TotalCount != 16 {
		t.Fatalf("total = %d", likers.TotalCount)
	}
	if len(likers.Users) != MaxLikers {
		t.Fatalf("users = %d, want cap of %d", len(likers.Users), MaxLikers)
	}
	for _, p := range likers.Users {
		if p == nil || p.DisplayName == "" || p.Initials == "" {
			t.Fatalf("every liker needs a displayable profile, got %+v", p)
		}
	}

	few, err := f.likes.TopLikers(ctx, "P1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(few.Users) != 2 {
		t.Fatalf("limit 2 returned %d users", len(few.Users))
	}

	_, err = f.likes.TopLikers(ctx, "", 5)
	assertKind(t, err, ErrValidation)
}

// lostRaceStore behaves as if another request inserted the like between our Remove and Add.
type lostRaceStore struct {
	repository.LikeStore
}

func (lostRaceStore) Remove(context.Context, repository.LikeKey) (bool, error) {
	return false, nil
}

func (lostRaceStore) Add(context.Context, repository.LikeKey) error {
	return repository.ErrAlreadyLiked
}

func TestToggleLosingInsertRaceReportsLiked(t *testing.T) {
	conn := dbtest.New(t)
	likes := repository.NewLikeStore(conn)
	ctx := context.Background()

	// The winning request's row.
	key := repository.LikeKey{Target: models.TargetPost, TargetID: "P1", UserID: "bob"}
	if err := likes.Add(ctx, key); err != nil {
		t.Fatal(err)
	}
	if err := likes.Add(ctx, repository.LikeKey{Target: models.TargetPost, TargetID: "P1", UserID: "carol"}); err != nil {
		t.Fatal(err)
	}

	enricher := NewEnricher(newFakeIdentity(), time.Second, discardLogger())
	ledger := NewLikeLedger(lostRaceStore{likes}, repository.NewCommentStore(conn), enricher, discardLogger())

	state, err := ledger.Toggle(ctx, models.TargetPost, "P1", "bob")
	if err != nil {
		t.Fatalf("losing the insert race must not be an error: %v", err)
	}
	if !state.Liked || state.Count != 2 {
		t.Fatalf("state = %+v, want liked with the stored count of 2", state)
	}
}
