package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sakif/blog/internal/model"
)

// newTestDB returns a fresh, fully migrated in-memory database.
//
// ":memory:" databases live only as long as their connection. New caps the
// pool at one connection, so every query in the test sees the same data, and
// t.Cleanup throws it all away when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com"}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user %q: %v", username, err)
	}
	return u
}

func createTestGroup(t *testing.T, db *DB, slug string) *model.Group {
	t.Helper()
	g := &model.Group{Title: slug + " posts", Slug: slug, Description: "about " + slug}
	if err := db.CreateGroup(context.Background(), g); err != nil {
		t.Fatalf("failed to create test group %q: %v", slug, err)
	}
	return g
}

func createTestPost(t *testing.T, db *DB, author *model.User, group *model.Group, text string) *model.Post {
	t.Helper()
	p := &model.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	if err := db.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return p
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	db := newTestDB(t)

	var on int
	if err := db.conn.Get(&on, `PRAGMA foreign_keys`); err != nil {
		t.Fatalf("reading foreign_keys pragma: %v", err)
	}
	if on != 1 {
		t.Errorf("foreign_keys = %d, want 1", on)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)

	// New already migrated once. A second run must be a no-op, not an error.
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	version, err := db.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != 1 {
		t.Errorf("SchemaVersion() = %d, want 1", version)
	}
}

func TestNew_FileDatabaseSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.db")

	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	createTestUser(t, db, "leo")
	db.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.GetUserByUsername(context.Background(), "leo"); err != nil {
		t.Errorf("user lost after reopen: %v", err)
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"snake_case", `snake\_case`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
