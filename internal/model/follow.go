package model

import "time"

// Follow is a directed edge: UserID receives AuthorID's posts in their feed.
// At most one Follow exists per (UserID, AuthorID) pair, and a user can never
// follow themselves.
type Follow struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	AuthorID  string    `json:"authorId"  db:"author_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// FollowStats are the counters shown on a profile page.
type FollowStats struct {
	Posts     int `json:"posts"`
	Followers int `json:"followers"`
	Following int `json:"following"`
}
