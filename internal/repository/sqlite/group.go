package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

var _ repository.GroupRepository = (*DB)(nil)

// CreateGroup inserts a group. The slug must be unique.
func (db *DB) CreateGroup(ctx context.Context, group *model.Group) error {
	group.ID = xid.New().String()

	_, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO post_groups (id, title, slug, description)
		 VALUES (:id, :title, :slug, :description)`,
		group,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("group", group.Slug)
		}
		return fmt.Errorf("sqlite: creating group %q: %w", group.Slug, err)
	}
	return nil
}

func (db *DB) GetGroupByID(ctx context.Context, id string) (*model.Group, error) {
	var g model.Group
	err := db.conn.GetContext(ctx, &g,
		`SELECT id, title, slug, description FROM post_groups WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("group", id)
		}
		return nil, fmt.Errorf("sqlite: getting group %s: %w", id, err)
	}
	return &g, nil
}

func (db *DB) GetGroupBySlug(ctx context.Context, slug string) (*model.Group, error) {
	var g model.Group
	err := db.conn.GetContext(ctx, &g,
		`SELECT id, title, slug, description FROM post_groups WHERE slug = ?`, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("group", slug)
		}
		return nil, fmt.Errorf("sqlite: getting group by slug %s: %w", slug, err)
	}
	return &g, nil
}

// ListGroups returns every group ordered by title, for the post form's
// group <select> and the operator CLI.
func (db *DB) ListGroups(ctx context.Context) ([]model.Group, error) {
	groups := []model.Group{}
	err := db.conn.SelectContext(ctx, &groups,
		`SELECT id, title, slug, description FROM post_groups ORDER BY title, slug`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing groups: %w", err)
	}
	return groups, nil
}

// DeleteGroup removes a group. Its posts survive: posts.group_id is declared
// ON DELETE SET NULL, so they simply stop belonging to any group.
func (db *DB) DeleteGroup(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM post_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting group %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("group", id)
	}
	return nil
}
