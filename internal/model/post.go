package model

import "time"

// titleLength is how many characters of the text make up a post's display title.
const titleLength = 15

// Post is a text entry written by a single author.
//
// PubDate is assigned once, when the post is inserted, and is never written
// again: editing text, group or image leaves it untouched.
//
// Author and Group are populated by the repository from a JOIN so that list
// pages can show "by bobby in Bobby's posts" without an extra query per row.
// GroupID is a pointer because the group is optional (NULL in the database).
type Post struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	PubDate  time.Time `json:"pubDate"`
	AuthorID string    `json:"authorId"`
	GroupID  *string   `json:"groupId,omitempty"`
	Image    string    `json:"image,omitempty"` // storage key, e.g. "posts/small.gif"; empty = no image

	Author User   `json:"author"`
	Group  *Group `json:"group,omitempty"`
}

// Title returns the first 15 characters of the text (rune-aware).
func (p Post) Title() string {
	r := []rune(p.Text)
	if len(r) <= titleLength {
		return p.Text
	}
	return string(r[:titleLength])
}

func (p Post) String() string {
	return p.Title()
}

// HasGroup reports whether the post is attached to a group.
func (p Post) HasGroup() bool {
	return p.GroupID != nil && *p.GroupID != ""
}
