package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeStore is an in-memory implementation of every repository interface.
// Using a fake (not a mock framework) keeps tests easy to read: you can see
// exactly what the fake does, and it behaves like the real store for the
// cases the services care about (unique usernames and slugs, newest-first
// listings, follow edges).
type fakeStore struct {
	users    map[string]*model.User
	groups   map[string]*model.Group
	posts    map[string]*model.Post
	comments []model.Comment
	follows  map[[2]string]model.Follow

	nextID int
	clock  time.Time

	// set to a non-nil error to simulate a database failure
	createUserErr error
	getUserErr    error
	createPostErr error
	updatePostErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[string]*model.User),
		groups:  make(map[string]*model.Group),
		posts:   make(map[string]*model.Post),
		follows: make(map[[2]string]model.Follow),
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// tick hands out strictly increasing timestamps so ordering is deterministic.
func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

// ---- users ----

func (f *fakeStore) CreateUser(_ context.Context, u *model.User) error {
	if f.createUserErr != nil {
		return f.createUserErr
	}
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return apperror.Conflict("user", u.Username)
		}
	}
	u.ID = f.id("user")
	u.CreatedAt = f.tick()
	u.UpdatedAt = u.CreatedAt
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeStore) GetUserByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	for _, u := range f.users {
		if u.GitHubID != nil && *u.GitHubID == githubID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", fmt.Sprint(githubID))
}

func (f *fakeStore) UpdateUser(_ context.Context, u *model.User) error {
	if _, ok := f.users[u.ID]; !ok {
		return apperror.NotFound("user", u.ID)
	}
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	for pid, p := range f.posts {
		if p.AuthorID == id {
			delete(f.posts, pid)
		}
	}
	for k := range f.follows {
		if k[0] == id || k[1] == id {
			delete(f.follows, k)
		}
	}
	return nil
}

// ---- groups ----

func (f *fakeStore) CreateGroup(_ context.Context, g *model.Group) error {
	for _, existing := range f.groups {
		if existing.Slug == g.Slug {
			return apperror.Conflict("group", g.Slug)
		}
	}
	g.ID = f.id("group")
	copied := *g
	f.groups[g.ID] = &copied
	return nil
}

func (f *fakeStore) GetGroupByID(_ context.Context, id string) (*model.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, apperror.NotFound("group", id)
	}
	copied := *g
	return &copied, nil
}

func (f *fakeStore) GetGroupBySlug(_ context.Context, slug string) (*model.Group, error) {
	for _, g := range f.groups {
		if g.Slug == slug {
			copied := *g
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("group", slug)
}

func (f *fakeStore) ListGroups(_ context.Context) ([]model.Group, error) {
	out := []model.Group{}
	for _, g := range f.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (f *fakeStore) DeleteGroup(_ context.Context, id string) error {
	if _, ok := f.groups[id]; !ok {
		return apperror.NotFound("group", id)
	}
	delete(f.groups, id)
	for _, p := range f.posts {
		if p.GroupID != nil && *p.GroupID == id {
			p.GroupID = nil
		}
	}
	return nil
}

// ---- posts ----

func (f *fakeStore) CreatePost(_ context.Context, p *model.Post) error {
	if f.createPostErr != nil {
		return f.createPostErr
	}
	if _, ok := f.users[p.AuthorID]; !ok {
		return errors.New("FOREIGN KEY constraint failed")
	}
	p.ID = f.id("post")
	p.PubDate = f.tick()
	copied := *p
	f.posts[p.ID] = &copied
	return nil
}

func (f *fakeStore) GetPost(_ context.Context, id string) (*model.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	return f.joined(p), nil
}

// joined fills Author and Group the way the SQL JOIN does.
func (f *fakeStore) joined(p *model.Post) *model.Post {
	copied := *p
	if u, ok := f.users[p.AuthorID]; ok {
		copied.Author = *u
	}
	copied.Group = nil
	if p.GroupID != nil {
		if g, ok := f.groups[*p.GroupID]; ok {
			gc := *g
			copied.Group = &gc
		}
	}
	return &copied
}

func (f *fakeStore) UpdatePost(_ context.Context, p *model.Post) error {
	if f.updatePostErr != nil {
		return f.updatePostErr
	}
	existing, ok := f.posts[p.ID]
	if !ok {
		return apperror.NotFound("post", p.ID)
	}
	existing.Text = p.Text
	existing.GroupID = p.GroupID
	existing.Image = p.Image
	return nil
}

func (f *fakeStore) DeletePost(_ context.Context, id string) error {
	if _, ok := f.posts[id]; !ok {
		return apperror.NotFound("post", id)
	}
	delete(f.posts, id)
	return nil
}

func (f *fakeStore) filtered(filter repository.PostFilter) []model.Post {
	out := []model.Post{}
	for _, p := range f.posts {
		if filter.AuthorID != "" && p.AuthorID != filter.AuthorID {
			continue
		}
		if filter.GroupID != "" && (p.GroupID == nil || *p.GroupID != filter.GroupID) {
			continue
		}
		if filter.FollowerID != "" {
			if _, ok := f.follows[[2]string{filter.FollowerID, p.AuthorID}]; !ok {
				continue
			}
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Text), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *f.joined(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PubDate.After(out[j].PubDate) })
	return out
}

func (f *fakeStore) ListPosts(_ context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]model.Post, error) {
	all := f.filtered(filter)
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Offset >= len(all) {
		return []model.Post{}, nil
	}
	end := min(opts.Offset+opts.Limit, len(all))
	return all[opts.Offset:end], nil
}

func (f *fakeStore) CountPosts(_ context.Context, filter repository.PostFilter) (int, error) {
	return len(f.filtered(filter)), nil
}

// ---- comments ----

func (f *fakeStore) CreateComment(_ context.Context, c *model.Comment) error {
	if _, ok := f.posts[c.PostID]; !ok {
		return errors.New("FOREIGN KEY constraint failed")
	}
	c.ID = f.id("comment")
	c.Created = f.tick()
	f.comments = append(f.comments, *c)
	return nil
}

func (f *fakeStore) ListComments(_ context.Context, postID string) ([]model.Comment, error) {
	out := []model.Comment{}
	for _, c := range f.comments {
		if c.PostID == postID {
			if u, ok := f.users[c.AuthorID]; ok {
				c.Author = *u
			}
			out = append(out, c)
		}
	}
	return out, nil
}

// ---- follows ----

func (f *fakeStore) GetOrCreateFollow(_ context.Context, userID, authorID string) (*model.Follow, bool, error) {
	key := [2]string{userID, authorID}
	if existing, ok := f.follows[key]; ok {
		return &existing, false, nil
	}
	fl := model.Follow{ID: f.id("follow"), UserID: userID, AuthorID: authorID, CreatedAt: f.tick()}
	f.follows[key] = fl
	return &fl, true, nil
}

func (f *fakeStore) DeleteFollow(_ context.Context, userID, authorID string) (bool, error) {
	key := [2]string{userID, authorID}
	if _, ok := f.follows[key]; !ok {
		return false, nil
	}
	delete(f.follows, key)
	return true, nil
}

func (f *fakeStore) IsFollowing(_ context.Context, userID, authorID string) (bool, error) {
	_, ok := f.follows[[2]string{userID, authorID}]
	return ok, nil
}

func (f *fakeStore) CountFollowers(_ context.Context, authorID string) (int, error) {
	n := 0
	for k := range f.follows {
		if k[1] == authorID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountFollowing(_ context.Context, userID string) (int, error) {
	n := 0
	for k := range f.follows {
		if k[0] == userID {
			n++
		}
	}
	return n, nil
}

// ---- images ----

// fakeImages is an in-memory storage.ImageStore.
type fakeImages struct {
	files   map[string][]byte
	saveErr error
}

func newFakeImages() *fakeImages {
	return &fakeImages{files: make(map[string][]byte)}
}

func (f *fakeImages) Save(_ context.Context, name string, data []byte, _ string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	key := "posts/" + name
	for i := 2; ; i++ {
		if _, taken := f.files[key]; !taken {
			break
		}
		key = fmt.Sprintf("posts/%d_%s", i, name)
	}
	f.files[key] = data
	return key, nil
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	delete(f.files, key)
	return nil
}

func (f *fakeImages) URL(key string) string {
	return "/media/" + key
}

// ---- helpers ----

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustUser(t testing.TB, store *fakeStore, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return u
}

func mustGroup(t testing.TB, store *fakeStore, slug string) *model.Group {
	t.Helper()
	g := &model.Group{Title: slug + " posts", Slug: slug}
	if err := store.CreateGroup(context.Background(), g); err != nil {
		t.Fatalf("creating group %s: %v", slug, err)
	}
	return g
}

var postFilterAll = repository.PostFilter{}
