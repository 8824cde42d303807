package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// FollowService manages who follows whom.
type FollowService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
	posts   repository.PostRepository
	logger  *slog.Logger
}

func NewFollowService(
	follows repository.FollowRepository,
	users repository.UserRepository,
	posts repository.PostRepository,
	logger *slog.Logger,
) *FollowService {
	return &FollowService{follows: follows, users: users, posts: posts, logger: logger}
}

// Follow makes userID follow the author called username.
//
// Following twice is harmless: the second call finds the existing edge and
// reports created=false. Following yourself is a validation error.
func (s *FollowService) Follow(ctx context.Context, userID, username string) (created bool, err error) {
	author, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if author.ID == userID {
		return false, apperror.ValidationFailed("author", "you cannot follow yourself")
	}

	_, created, err = s.follows.GetOrCreateFollow(ctx, userID, author.ID)
	if err != nil {
		s.logger.Error("failed to follow",
			slog.String("user", userID),
			slog.String("author", author.ID),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("following %s: %w", username, err)
	}

	if created {
		s.logger.Info("follow created",
			slog.String("user", userID),
			slog.String("author", author.ID),
		)
	}
	return created, nil
}

// Unfollow removes the edge if it exists. Unfollowing someone you do not
// follow is not an error.
func (s *FollowService) Unfollow(ctx context.Context, userID, username string) (deleted bool, err error) {
	author, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return false, err
	}

	deleted, err = s.follows.DeleteFollow(ctx, userID, author.ID)
	if err != nil {
		return false, fmt.Errorf("unfollowing %s: %w", username, err)
	}
	if deleted {
		s.logger.Info("follow deleted",
			slog.String("user", userID),
			slog.String("author", author.ID),
		)
	}
	return deleted, nil
}

// IsFollowing reports whether userID follows authorID. An anonymous viewer
// (empty userID) follows nobody.
func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID string) (bool, error) {
	if userID == "" || userID == authorID {
		return false, nil
	}
	return s.follows.IsFollowing(ctx, userID, authorID)
}

// Stats returns the counters shown on the author's profile and post pages.
func (s *FollowService) Stats(ctx context.Context, authorID string) (model.FollowStats, error) {
	var (
		st  model.FollowStats
		err error
	)
	if st.Posts, err = s.posts.CountPosts(ctx, repository.PostFilter{AuthorID: authorID}); err != nil {
		return st, fmt.Errorf("counting posts: %w", err)
	}
	if st.Followers, err = s.follows.CountFollowers(ctx, authorID); err != nil {
		return st, fmt.Errorf("counting followers: %w", err)
	}
	if st.Following, err = s.follows.CountFollowing(ctx, authorID); err != nil {
		return st, fmt.Errorf("counting following: %w", err)
	}
	return st, nil
}
