package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

var _ repository.CommentRepository = (*DB)(nil)

type commentRow struct {
	ID             string    `db:"id"`
	PostID         string    `db:"post_id"`
	AuthorID       string    `db:"author_id"`
	Text           string    `db:"text"`
	Created        time.Time `db:"created"`
	AuthorUsername string    `db:"author_username"`
}

// CreateComment attaches a comment to a post.
// A post_id that does not exist fails the foreign key check.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.Created = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, author_id, text, created)
		 VALUES (?, ?, ?, ?, ?)`,
		comment.ID, comment.PostID, comment.AuthorID, comment.Text, comment.Created,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating comment on post %s: %w", comment.PostID, err)
	}
	return nil
}

// ListComments returns a post's comments, oldest first, so a thread reads
// top to bottom.
func (db *DB) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	var rows []commentRow
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT c.id, c.post_id, c.author_id, c.text, c.created,
		        u.username AS author_username
		 FROM comments c
		 JOIN users u ON u.id = c.author_id
		 WHERE c.post_id = ?
		 ORDER BY c.created ASC, c.id ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for post %s: %w", postID, err)
	}

	comments := make([]model.Comment, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, model.Comment{
			ID:       r.ID,
			PostID:   r.PostID,
			AuthorID: r.AuthorID,
			Text:     r.Text,
			Created:  r.Created,
			Author:   model.User{ID: r.AuthorID, Username: r.AuthorUsername},
		})
	}
	return comments, nil
}
