package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

// postRow is one row of the post listing JOIN.
//
// The group columns come from a LEFT JOIN, so they are NULL for posts without
// a group. That is why they are pointers here even though model.Group uses
// plain strings.
type postRow struct {
	ID       string    `db:"id"`
	Text     string    `db:"text"`
	PubDate  time.Time `db:"pub_date"`
	AuthorID string    `db:"author_id"`
	GroupID  *string   `db:"group_id"`
	Image    string    `db:"image"`

	AuthorUsername   string  `db:"author_username"`
	GroupTitle       *string `db:"group_title"`
	GroupSlug        *string `db:"group_slug"`
	GroupDescription *string `db:"group_description"`
}

func (r postRow) toModel() model.Post {
	p := model.Post{
		ID:       r.ID,
		Text:     r.Text,
		PubDate:  r.PubDate,
		AuthorID: r.AuthorID,
		GroupID:  r.GroupID,
		Image:    r.Image,
		Author:   model.User{ID: r.AuthorID, Username: r.AuthorUsername},
	}
	if r.GroupID != nil {
		p.Group = &model.Group{
			ID:          *r.GroupID,
			Title:       deref(r.GroupTitle),
			Slug:        deref(r.GroupSlug),
			Description: deref(r.GroupDescription),
		}
	}
	return p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const postSelect = `
SELECT p.id, p.text, p.pub_date, p.author_id, p.group_id, p.image,
       u.username    AS author_username,
       g.title       AS group_title,
       g.slug        AS group_slug,
       g.description AS group_description
FROM posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN post_groups g ON g.id = p.group_id`

// CreatePost inserts a post, stamping it with a fresh ID and PubDate.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	post.ID = xid.New().String()
	post.PubDate = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, text, pub_date, author_id, group_id, image)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		post.ID, post.Text, post.PubDate, post.AuthorID, nullIfEmpty(post.GroupID), post.Image,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}
	return nil
}

// GetPost returns a single post with its author and group filled in.
func (db *DB) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var row postRow
	err := db.conn.GetContext(ctx, &row, postSelect+` WHERE p.id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}
	p := row.toModel()
	return &p, nil
}

// UpdatePost saves text, group and image.
//
// pub_date is deliberately absent from the SET list: the publication date is
// fixed when the post is created.
func (db *DB) UpdatePost(ctx context.Context, post *model.Post) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE posts SET text = ?, group_id = ?, image = ? WHERE id = ?`,
		post.Text, nullIfEmpty(post.GroupID), post.Image, post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", post.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", post.ID)
	}
	return nil
}

// DeletePost removes a post and, through ON DELETE CASCADE, its comments.
func (db *DB) DeletePost(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", id)
	}
	return nil
}

// ListPosts returns one window of posts matching filter, newest first.
//
// ORDERING:
// pub_date DESC alone is not a total order: two posts created within the same
// clock tick would come back in arbitrary order and could appear on two pages
// or on none. xids grow with time, so id DESC is a stable tiebreaker.
func (db *DB) ListPosts(ctx context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]model.Post, error) {
	where, args := postWhere(filter)

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows := make([]postRow, 0, limit)
	err := db.conn.SelectContext(ctx, &rows,
		postSelect+where+` ORDER BY p.pub_date DESC, p.id DESC LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}

	posts := make([]model.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.toModel())
	}
	return posts, nil
}

// CountPosts returns how many posts match filter. The paginator needs it to
// know how many pages exist.
func (db *DB) CountPosts(ctx context.Context, filter repository.PostFilter) (int, error) {
	where, args := postWhere(filter)

	var n int
	if err := db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts p`+where, args...); err != nil {
		return 0, fmt.Errorf("sqlite: counting posts: %w", err)
	}
	return n, nil
}

// postWhere turns a PostFilter into a WHERE clause. Every value is passed
// as a ? parameter; only the fixed clause text is concatenated.
func postWhere(f repository.PostFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.GroupID != "" {
		clauses = append(clauses, `p.group_id = ?`)
		args = append(args, f.GroupID)
	}
	if f.AuthorID != "" {
		clauses = append(clauses, `p.author_id = ?`)
		args = append(args, f.AuthorID)
	}
	if f.FollowerID != "" {
		clauses = append(clauses, `p.author_id IN (SELECT author_id FROM follows WHERE user_id = ?)`)
		args = append(args, f.FollowerID)
	}
	if f.Search != "" {
		clauses = append(clauses, `p.text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.Search)+"%")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// nullIfEmpty maps both nil and "" to SQL NULL for the optional group.
func nullIfEmpty(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
