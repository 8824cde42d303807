package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, password_hash, github_id, created_at, updated_at`

// CreateUser inserts a new account and fills in its ID and timestamps.
//
// Usernames are UNIQUE in the schema, so a second "bobby" is rejected by
// SQLite itself. We translate that into apperror.Conflict so the signup form
// can show "already taken" instead of a 500.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (:id, :username, :email, :password_hash, :github_id, :created_at, :updated_at)`,
		user,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: creating user %q: %w", user.Username, err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, "id", id, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByUsername is the lookup behind every /<username>/ URL.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, "username", username, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// GetUserByGitHubID finds the account linked to a GitHub identity.
func (db *DB) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return db.getUser(ctx, "github id", fmt.Sprint(githubID), `SELECT `+userColumns+` FROM users WHERE github_id = ?`, githubID)
}

// getUser runs a single-row user query.
//
// sqlx.GetContext scans the row into the struct by matching the `db` tags
// against the column names, so the column order in SELECT no longer has to
// match a hand-written Scan() call.
func (db *DB) getUser(ctx context.Context, by, key, query string, arg any) (*model.User, error) {
	var u model.User
	if err := db.conn.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", key)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s %s: %w", by, key, err)
	}
	return &u, nil
}

// UpdateUser saves username, email, password hash and GitHub link.
// created_at is never touched.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	result, err := db.conn.NamedExecContext(ctx,
		`UPDATE users
		 SET username = :username, email = :email, password_hash = :password_hash,
		     github_id = :github_id, updated_at = :updated_at
		 WHERE id = :id`,
		user,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// DeleteUser removes an account.
//
// CASCADE:
// posts, comments and follows all reference users(id) with ON DELETE CASCADE,
// so the author's posts (and the comments on them), their comments on other
// posts, and every follow edge in either direction go with them.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}
