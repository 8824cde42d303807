// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Username is the public identity: it appears in every profile and post URL,
// so it is unique and never empty. GitHubID is only set for accounts that
// signed in through GitHub at least once.
//
// WHY PasswordHash string (not *string)?
// GitHub-only accounts have no password. An empty hash can never match a
// bcrypt comparison, so the zero value is safe and simpler than a pointer.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     *int64    `json:"githubId"  db:"github_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// String returns the username, so templates and logs can print a User directly.
func (u User) String() string {
	return u.Username
}
