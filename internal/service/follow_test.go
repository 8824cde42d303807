package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/blog/internal/apperror"
)

func newTestFollowService(store *fakeStore) *FollowService {
	return NewFollowService(store, store, store, discardLogger())
}

func TestFollow(t *testing.T) {
	store := newFakeStore()
	svc := newTestFollowService(store)
	reader := mustUser(t, store, "reader")
	author := mustUser(t, store, "author")
	ctx := context.Background()

	created, err := svc.Follow(ctx, reader.ID, "author")
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	if !created {
		t.Error("first Follow() should create the edge")
	}

	// Following twice is a no-op, not an error
	created, err = svc.Follow(ctx, reader.ID, "author")
	if err != nil {
		t.Fatalf("second Follow() error = %v", err)
	}
	if created {
		t.Error("second Follow() should not create another edge")
	}
	if len(store.follows) != 1 {
		t.Errorf("%d follow edges stored, want 1", len(store.follows))
	}

	following, err := svc.IsFollowing(ctx, reader.ID, author.ID)
	if err != nil || !following {
		t.Errorf("IsFollowing() = %v, %v; want true, nil", following, err)
	}
}

func TestFollow_Self(t *testing.T) {
	store := newFakeStore()
	svc := newTestFollowService(store)
	me := mustUser(t, store, "me")

	_, err := svc.Follow(context.Background(), me.ID, "me")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Follow(self) error = %v, want ErrValidation", err)
	}
	if len(store.follows) != 0 {
		t.Error("self-follow edge was stored")
	}
}

func TestFollow_UnknownAuthor(t *testing.T) {
	store := newFakeStore()
	svc := newTestFollowService(store)
	me := mustUser(t, store, "me")

	_, err := svc.Follow(context.Background(), me.ID, "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Follow(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestUnfollow(t *testing.T) {
	store := newFakeStore()
	svc := newTestFollowService(store)
	reader := mustUser(t, store, "reader")
	author := mustUser(t, store, "author")
	ctx := context.Background()

	if _, err := svc.Follow(ctx, reader.ID, "author"); err != nil {
		t.Fatal(err)
	}

	deleted, err := svc.Unfollow(ctx, reader.ID, "author")
	if err != nil || !deleted {
		t.Fatalf("Unfollow() = %v, %v; want true, nil", deleted, err)
	}

	// Unfollowing again is harmless
	deleted, err = svc.Unfollow(ctx, reader.ID, "author")
	if err != nil || deleted {
		t.Fatalf("second Unfollow() = %v, %v; want false, nil", deleted, err)
	}

	following, _ := svc.IsFollowing(ctx, reader.ID, author.ID)
	if following {
		t.Error("still following after Unfollow()")
	}
}

func TestIsFollowing_AnonymousAndSelf(t *testing.T) {
	store := newFakeStore()
	svc := newTestFollowService(store)
	me := mustUser(t, store, "me")

	tests := []struct {
		name     string
		userID   string
		authorID string
	}{
		{"anonymous viewer", "", me.ID},
		{"own profile", me.ID, me.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.IsFollowing(context.Background(), tt.userID, tt.authorID)
			if err != nil || got {
				t.Errorf("IsFollowing() = %v, %v; want false, nil", got, err)
			}
		})
	}
}

func TestStats(t *testing.T) {
	store := newFakeStore()
	svc := newTestFollowService(store)
	posts := newTestPostService(store, newFakeImages())
	a := mustUser(t, store, "a")
	b := mustUser(t, store, "b")
	c := mustUser(t, store, "c")
	ctx := context.Background()

	for _, text := range []string{"one", "two"} {
		if _, err := posts.Create(ctx, a.ID, PostInput{Text: text}); err != nil {
			t.Fatal(err)
		}
	}
	// b and c follow a; a follows c
	for _, pair := range [][2]string{{b.ID, "a"}, {c.ID, "a"}, {a.ID, "c"}} {
		if _, err := svc.Follow(ctx, pair[0], pair[1]); err != nil {
			t.Fatal(err)
		}
	}

	st, err := svc.Stats(ctx, a.ID)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.Posts != 2 || st.Followers != 2 || st.Following != 1 {
		t.Errorf("Stats() = %+v, want posts=2 followers=2 following=1", st)
	}
}
