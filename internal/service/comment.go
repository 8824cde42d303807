package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// CommentService adds and lists comments.
type CommentService struct {
	comments repository.CommentRepository
	posts    *PostService
	logger   *slog.Logger
}

func NewCommentService(comments repository.CommentRepository, posts *PostService, logger *slog.Logger) *CommentService {
	return &CommentService{comments: comments, posts: posts, logger: logger}
}

// Add attaches a comment by authorID to the post at /<username>/<postID>/.
// Any signed-in user may comment on any post.
func (s *CommentService) Add(ctx context.Context, authorID, username, postID, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("text", "comment text is required")
	}

	post, err := s.posts.Get(ctx, username, postID)
	if err != nil {
		return nil, err
	}

	c := &model.Comment{PostID: post.ID, AuthorID: authorID, Text: text}
	if err := s.comments.CreateComment(ctx, c); err != nil {
		s.logger.Error("failed to create comment",
			slog.String("post", post.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.logger.Info("comment created",
		slog.String("id", c.ID),
		slog.String("post", post.ID),
	)
	return c, nil
}

// List returns a post's comments, oldest first.
func (s *CommentService) List(ctx context.Context, postID string) ([]model.Comment, error) {
	comments, err := s.comments.ListComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return comments, nil
}
