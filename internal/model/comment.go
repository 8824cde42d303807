package model

import "time"

// Comment is a reply to a post. Comments can only be created, never edited
// or deleted through the application; they disappear with their post or author.
type Comment struct {
	ID       string    `json:"id"`
	PostID   string    `json:"postId"`
	AuthorID string    `json:"authorId"`
	Text     string    `json:"text"`
	Created  time.Time `json:"created"`

	Author User `json:"author"`
}
