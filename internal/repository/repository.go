// Package repository declares the storage contracts the service layer depends on.
//
// Services never import a concrete store. They receive these interfaces, and
// the composition root (internal/server) hands them a *sqlite.DB, which
// implements all of them. Service tests hand them in-memory fakes instead.
package repository

import (
	"context"

	"github.com/sakif/blog/internal/model"
)

// ListOptions is plain LIMIT/OFFSET paging.
type ListOptions struct {
	Limit  int
	Offset int
}

// PostFilter narrows a post listing. Zero fields do not filter.
type PostFilter struct {
	GroupID    string // posts in this group
	AuthorID   string // posts written by this user
	FollowerID string // posts written by anyone this user follows
	Search     string // case-insensitive substring of the text
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
}

type GroupRepository interface {
	CreateGroup(ctx context.Context, group *model.Group) error
	GetGroupByID(ctx context.Context, id string) (*model.Group, error)
	GetGroupBySlug(ctx context.Context, slug string) (*model.Group, error)
	ListGroups(ctx context.Context) ([]model.Group, error)
	DeleteGroup(ctx context.Context, id string) error
}

type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id string) error
	ListPosts(ctx context.Context, filter PostFilter, opts ListOptions) ([]model.Post, error)
	CountPosts(ctx context.Context, filter PostFilter) (int, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	ListComments(ctx context.Context, postID string) ([]model.Comment, error)
}

type FollowRepository interface {
	// GetOrCreateFollow returns the existing edge or inserts a new one.
	// created reports whether a row was inserted.
	GetOrCreateFollow(ctx context.Context, userID, authorID string) (follow *model.Follow, created bool, err error)
	// DeleteFollow removes the edge if present. Deleting a missing edge is not an error.
	DeleteFollow(ctx context.Context, userID, authorID string) (deleted bool, err error)
	IsFollowing(ctx context.Context, userID, authorID string) (bool, error)
	CountFollowers(ctx context.Context, authorID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
}
