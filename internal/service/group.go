package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

const (
	MaxGroupTitleLength = 200
	MaxSlugLength       = 50
)

// slugPattern is what may appear in /group/<slug>/.
var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// GroupService manages groups. Groups are an operator concern: the web app
// only reads them, cmd/blogctl creates and deletes them.
type GroupService struct {
	groups repository.GroupRepository
	logger *slog.Logger
}

func NewGroupService(groups repository.GroupRepository, logger *slog.Logger) *GroupService {
	return &GroupService{groups: groups, logger: logger}
}

// Create adds a group. The slug must be unique.
func (s *GroupService) Create(ctx context.Context, title, slug, description string) (*model.Group, error) {
	title = strings.TrimSpace(title)
	slug = strings.TrimSpace(slug)

	if title == "" {
		return nil, apperror.ValidationFailed("title", "group title is required")
	}
	if len([]rune(title)) > MaxGroupTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("group title must be %d characters or less", MaxGroupTitleLength))
	}
	if !slugPattern.MatchString(slug) {
		return nil, apperror.ValidationFailed("slug",
			"slug may only contain letters, numbers, underscores and hyphens")
	}
	if len(slug) > MaxSlugLength {
		return nil, apperror.ValidationFailed("slug",
			fmt.Sprintf("slug must be %d characters or less", MaxSlugLength))
	}

	g := &model.Group{Title: title, Slug: slug, Description: strings.TrimSpace(description)}
	if err := s.groups.CreateGroup(ctx, g); err != nil {
		return nil, err
	}

	s.logger.Info("group created", slog.String("slug", g.Slug))
	return g, nil
}

func (s *GroupService) List(ctx context.Context) ([]model.Group, error) {
	return s.groups.ListGroups(ctx)
}

func (s *GroupService) GetBySlug(ctx context.Context, slug string) (*model.Group, error) {
	return s.groups.GetGroupBySlug(ctx, slug)
}

// Delete removes a group by slug. Its posts stay, without a group.
func (s *GroupService) Delete(ctx context.Context, slug string) error {
	g, err := s.groups.GetGroupBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.groups.DeleteGroup(ctx, g.ID); err != nil {
		return err
	}
	s.logger.Info("group deleted", slog.String("slug", slug))
	return nil
}
