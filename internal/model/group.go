package model

// Group is a named category that posts may optionally belong to.
// Groups are created by an operator (see cmd/blogctl) and are never deleted
// automatically; deleting one leaves its posts in place with no group.
type Group struct {
	ID          string `json:"id"          db:"id"`
	Title       string `json:"title"       db:"title"`
	Slug        string `json:"slug"        db:"slug"`
	Description string `json:"description" db:"description"`
}

func (g Group) String() string {
	return g.Title
}
