package form

import (
	"fmt"
	"net/http"
	"strings"
)

// CommentForm is the single-textarea form under a post.
type CommentForm struct {
	Text   string `form:"text" validate:"required"`
	Errors Errors
}

func NewCommentForm() *CommentForm {
	return &CommentForm{Errors: Errors{}}
}

func (f *CommentForm) Bind(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("form: parsing comment form: %w", err)
	}
	f.Text = strings.TrimSpace(r.PostFormValue("text"))
	return nil
}

func (f *CommentForm) Valid() bool {
	check(f, f.Errors)
	return !f.Errors.Any()
}
