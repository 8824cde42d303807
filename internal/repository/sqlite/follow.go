package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

var _ repository.FollowRepository = (*DB)(nil)

// GetOrCreateFollow makes userID follow authorID, idempotently.
//
// ON CONFLICT DO NOTHING:
// The UNIQUE(user_id, author_id) constraint is the real guard against
// duplicates. If the edge already exists, the INSERT affects zero rows instead
// of failing, and we read back whichever row is stored. Two concurrent
// "follow" clicks therefore still end with exactly one edge.
func (db *DB) GetOrCreateFollow(ctx context.Context, userID, authorID string) (*model.Follow, bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO follows (id, user_id, author_id, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, author_id) DO NOTHING`,
		xid.New().String(), userID, authorID, time.Now().UTC(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: creating follow %s -> %s: %w", userID, authorID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	var f model.Follow
	err = db.conn.GetContext(ctx, &f,
		`SELECT id, user_id, author_id, created_at FROM follows
		 WHERE user_id = ? AND author_id = ?`,
		userID, authorID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: reading follow %s -> %s: %w", userID, authorID, err)
	}

	return &f, rowsAffected > 0, nil
}

// DeleteFollow removes the edge if it exists. Unfollowing someone you do not
// follow is a no-op, reported through deleted=false.
func (db *DB) DeleteFollow(ctx context.Context, userID, authorID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE user_id = ? AND author_id = ?`, userID, authorID)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting follow %s -> %s: %w", userID, authorID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (db *DB) IsFollowing(ctx context.Context, userID, authorID string) (bool, error) {
	var exists bool
	err := db.conn.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE user_id = ? AND author_id = ?)`,
		userID, authorID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow %s -> %s: %w", userID, authorID, err)
	}
	return exists, nil
}

// CountFollowers counts the users following authorID.
func (db *DB) CountFollowers(ctx context.Context, authorID string) (int, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM follows WHERE author_id = ?`, authorID); err != nil {
		return 0, fmt.Errorf("sqlite: counting followers of %s: %w", authorID, err)
	}
	return n, nil
}

// CountFollowing counts the authors userID follows.
func (db *DB) CountFollowing(ctx context.Context, userID string) (int, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM follows WHERE user_id = ?`, userID); err != nil {
		return 0, fmt.Errorf("sqlite: counting following of %s: %w", userID, err)
	}
	return n, nil
}
