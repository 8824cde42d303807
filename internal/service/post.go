// Package service contains the business rules of the blog.
//
// THE LAYERS:
//
//	Handler (HTTP)   → parses forms, renders templates, redirects
//	Service (rules)  → who may do what, which posts go on which page
//	Repository (DB)  → reads and writes rows
//
// Services accept plain Go values and return models or apperror values.
// They never see an *http.Request, so the operator CLI (cmd/blogctl) can use
// them exactly as the web handlers do.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/paginate"
	"github.com/sakif/blog/internal/repository"
	"github.com/sakif/blog/internal/storage"
)

// DefaultPostsPerPage is the page size when none is configured.
const DefaultPostsPerPage = 10

// ImageInput is an uploaded image that already passed form validation.
type ImageInput struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PostInput is what the create and edit forms submit.
//
// On edit, a nil Image with ClearImage false keeps the current image,
// ClearImage removes it and a non-nil Image replaces it.
type PostInput struct {
	Text       string
	GroupID    *string
	Image      *ImageInput
	ClearImage bool
}

// PostService lists, creates and edits posts.
type PostService struct {
	posts   repository.PostRepository
	groups  repository.GroupRepository
	users   repository.UserRepository
	images  storage.ImageStore
	perPage int
	logger  *slog.Logger
}

func NewPostService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	images storage.ImageStore,
	perPage int,
	logger *slog.Logger,
) *PostService {
	if perPage <= 0 {
		perPage = DefaultPostsPerPage
	}
	return &PostService{
		posts:   posts,
		groups:  groups,
		users:   users,
		images:  images,
		perPage: perPage,
		logger:  logger,
	}
}

// ListIndex is the home page: every post, newest first.
func (s *PostService) ListIndex(ctx context.Context, page string) (paginate.Page[model.Post], error) {
	return s.list(ctx, repository.PostFilter{}, page)
}

// ListGroup is one group's page. An unknown slug is ErrNotFound.
func (s *PostService) ListGroup(ctx context.Context, slug, page string) (*model.Group, paginate.Page[model.Post], error) {
	group, err := s.groups.GetGroupBySlug(ctx, slug)
	if err != nil {
		return nil, paginate.Page[model.Post]{}, err
	}
	p, err := s.list(ctx, repository.PostFilter{GroupID: group.ID}, page)
	return group, p, err
}

// ListProfile is one author's page. An unknown username is ErrNotFound.
func (s *PostService) ListProfile(ctx context.Context, username, page string) (*model.User, paginate.Page[model.Post], error) {
	author, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, paginate.Page[model.Post]{}, err
	}
	p, err := s.list(ctx, repository.PostFilter{AuthorID: author.ID}, page)
	return author, p, err
}

// ListFeed is the personal feed: posts by everyone userID follows.
func (s *PostService) ListFeed(ctx context.Context, userID, page string) (paginate.Page[model.Post], error) {
	return s.list(ctx, repository.PostFilter{FollowerID: userID}, page)
}

// Search finds posts whose text contains query, for the operator CLI.
func (s *PostService) Search(ctx context.Context, query string, limit int) ([]model.Post, error) {
	posts, err := s.posts.ListPosts(ctx,
		repository.PostFilter{Search: strings.TrimSpace(query)},
		repository.ListOptions{Limit: limit},
	)
	if err != nil {
		return nil, fmt.Errorf("searching posts: %w", err)
	}
	return posts, nil
}

// list counts first so the page number can be clamped before fetching.
func (s *PostService) list(ctx context.Context, filter repository.PostFilter, page string) (paginate.Page[model.Post], error) {
	total, err := s.posts.CountPosts(ctx, filter)
	if err != nil {
		s.logger.Error("failed to count posts", slog.String("error", err.Error()))
		return paginate.Page[model.Post]{}, fmt.Errorf("counting posts: %w", err)
	}

	w := paginate.Resolve(page, total, s.perPage)
	posts, err := s.posts.ListPosts(ctx, filter, repository.ListOptions{Limit: w.Limit, Offset: w.Offset})
	if err != nil {
		s.logger.Error("failed to list posts", slog.String("error", err.Error()))
		return paginate.Page[model.Post]{}, fmt.Errorf("listing posts: %w", err)
	}

	return paginate.New(posts, w, total), nil
}

// Get returns the post postID written by username.
//
// The username is part of the URL (/<username>/<id>/), so a post requested
// under the wrong author is treated as not found rather than silently
// served from a URL that lies about who wrote it.
func (s *PostService) Get(ctx context.Context, username, postID string) (*model.Post, error) {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Author.Username != username {
		return nil, apperror.NotFound("post", username+"/"+postID)
	}
	return post, nil
}

// Groups lists the choices for the post form's group field.
func (s *PostService) Groups(ctx context.Context) ([]model.Group, error) {
	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	return groups, nil
}

// Create publishes a new post by authorID.
func (s *PostService) Create(ctx context.Context, authorID string, in PostInput) (*model.Post, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	post := &model.Post{
		Text:     in.Text,
		AuthorID: authorID,
		GroupID:  in.GroupID,
	}

	if in.Image != nil {
		key, err := s.saveImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = key
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("author", authorID),
			slog.String("error", err.Error()),
		)
		s.discardImage(ctx, post.Image)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("id", post.ID),
		slog.String("author", authorID),
	)
	return post, nil
}

// Update edits a post. Only its author may do that; anyone else gets
// ErrForbidden. The publication date is never changed.
func (s *PostService) Update(ctx context.Context, editorID, username, postID string, in PostInput) (*model.Post, error) {
	post, err := s.Get(ctx, username, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != editorID {
		return nil, apperror.Forbidden("only the author can edit this post")
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	oldImage := post.Image
	post.Text = in.Text
	post.GroupID = in.GroupID

	switch {
	case in.Image != nil:
		key, err := s.saveImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = key
	case in.ClearImage:
		post.Image = ""
	}

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		s.logger.Error("failed to update post",
			slog.String("id", postID),
			slog.String("error", err.Error()),
		)
		if post.Image != oldImage {
			s.discardImage(ctx, post.Image)
		}
		return nil, fmt.Errorf("updating post: %w", err)
	}

	if oldImage != "" && post.Image != oldImage {
		s.discardImage(ctx, oldImage)
	}

	s.logger.Info("post updated", slog.String("id", post.ID))
	return s.posts.GetPost(ctx, post.ID)
}

// ImageURL is the public address of a stored image key.
func (s *PostService) ImageURL(key string) string {
	if key == "" {
		return ""
	}
	return s.images.URL(key)
}

func (s *PostService) validate(ctx context.Context, in *PostInput) error {
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		return apperror.ValidationFailed("text", "post text is required")
	}
	if in.GroupID != nil && *in.GroupID == "" {
		in.GroupID = nil
	}
	if in.GroupID != nil {
		if _, err := s.groups.GetGroupByID(ctx, *in.GroupID); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.ValidationFailed("group", "unknown group")
			}
			return fmt.Errorf("checking group: %w", err)
		}
	}
	return nil
}

func (s *PostService) saveImage(ctx context.Context, img *ImageInput) (string, error) {
	key, err := s.images.Save(ctx, img.Filename, img.Data, img.ContentType)
	if err != nil {
		s.logger.Error("failed to store image",
			slog.String("filename", img.Filename),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("storing image: %w", err)
	}
	return key, nil
}

// discardImage removes an image nothing refers to any more. Failure only
// leaves an orphaned file behind, so it is logged, not returned.
func (s *PostService) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete image",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
