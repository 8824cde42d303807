package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/blog/internal/apperror"
)

func TestCommentAdd(t *testing.T) {
	store := newFakeStore()
	posts := newTestPostService(store, newFakeImages())
	svc := NewCommentService(store, posts, discardLogger())
	bobby := mustUser(t, store, "bobby")
	alice := mustUser(t, store, "alice")
	ctx := context.Background()

	post, err := posts.Create(ctx, bobby.ID, PostInput{Text: "comment me"})
	if err != nil {
		t.Fatal(err)
	}

	for _, text := range []string{"first", "  second  "} {
		if _, err := svc.Add(ctx, alice.ID, "bobby", post.ID, text); err != nil {
			t.Fatalf("Add(%q) error = %v", text, err)
		}
	}

	comments, err := svc.List(ctx, post.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("len(comments) = %d, want 2", len(comments))
	}
	if comments[0].Text != "first" || comments[1].Text != "second" {
		t.Errorf("comments = %q, %q; want oldest first and trimmed", comments[0].Text, comments[1].Text)
	}
	if comments[0].Author.Username != "alice" {
		t.Errorf("Author = %q, want alice", comments[0].Author.Username)
	}
}

func TestCommentAdd_Errors(t *testing.T) {
	store := newFakeStore()
	posts := newTestPostService(store, newFakeImages())
	svc := NewCommentService(store, posts, discardLogger())
	bobby := mustUser(t, store, "bobby")
	ctx := context.Background()

	post, err := posts.Create(ctx, bobby.ID, PostInput{Text: "comment me"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		username string
		postID   string
		text     string
		wantErr  error
	}{
		{"empty text", "bobby", post.ID, "   ", apperror.ErrValidation},
		{"unknown post", "bobby", "missing", "hi", apperror.ErrNotFound},
		{"wrong author in URL", "alice", post.ID, "hi", apperror.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, bobby.ID, tt.username, tt.postID, tt.text)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Add() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if len(store.comments) != 0 {
		t.Errorf("%d comments stored, want 0", len(store.comments))
	}
}
