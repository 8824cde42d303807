package form

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sakif/blog/internal/model"
)

// maxMultipartMemory is how much of a multipart body ParseMultipartForm keeps
// in memory before spilling file parts to temporary files.
const maxMultipartMemory = 8 << 20

// PostForm is the create/edit post form.
type PostForm struct {
	Text       string `form:"text" validate:"required"`
	Group      string `form:"group"`
	Image      *Upload
	ClearImage bool

	// CurrentImage is the stored image key when editing, so the template can
	// show it next to the "clear" checkbox.
	CurrentImage string

	Groups []model.Group
	Errors Errors
}

// NewPostForm returns an empty form offering groups as choices.
func NewPostForm(groups []model.Group) *PostForm {
	return &PostForm{Groups: groups, Errors: Errors{}}
}

// PostFormFor pre-fills a form with an existing post for the edit page.
func PostFormFor(p *model.Post, groups []model.Group) *PostForm {
	f := NewPostForm(groups)
	f.Text = p.Text
	if p.GroupID != nil {
		f.Group = *p.GroupID
	}
	f.CurrentImage = p.Image
	return f
}

// Bind reads the submitted fields. It accepts both multipart (the real form,
// because of the file input) and urlencoded bodies.
//
// An oversized upload is not a request error: it becomes a message on the
// image field so the author gets their text back with an explanation.
func (f *PostForm) Bind(r *http.Request) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxImageSize+maxMultipartMemory)

	err := r.ParseMultipartForm(maxMultipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		f.Errors.Add("image", imageTooLargeMessage())
		return nil
	}
	if err != nil {
		return fmt.Errorf("form: parsing post form: %w", err)
	}

	f.Text = strings.TrimSpace(r.PostFormValue("text"))
	f.Group = strings.TrimSpace(r.PostFormValue("group"))
	f.ClearImage = r.PostFormValue("image-clear") != ""

	if r.MultipartForm == nil {
		return nil
	}
	upload, err := readUpload(r, "image")
	if errors.Is(err, errImageTooLarge) {
		f.Errors.Add("image", imageTooLargeMessage())
		return nil
	}
	if err != nil {
		return fmt.Errorf("form: reading image: %w", err)
	}
	f.Image = upload
	return nil
}

// Valid checks every field and reports whether the form can be saved.
func (f *PostForm) Valid() bool {
	check(f, f.Errors)

	if f.Group != "" && !f.hasGroup(f.Group) {
		f.Errors.Add("group", msgInvalidChoice)
	}

	if f.Image != nil {
		if err := checkImage(f.Image); err != nil {
			f.Errors.Add("image", msgInvalidImage)
		}
	}

	return !f.Errors.Any()
}

// GroupID is the chosen group as the model stores it: nil for "no group".
func (f *PostForm) GroupID() *string {
	if f.Group == "" {
		return nil
	}
	id := f.Group
	return &id
}

// Selected reports whether id is the chosen group, for the <select> template.
func (f *PostForm) Selected(id string) bool {
	return f.Group == id
}

func (f *PostForm) hasGroup(id string) bool {
	for _, g := range f.Groups {
		if g.ID == id {
			return true
		}
	}
	return false
}

func imageTooLargeMessage() string {
	return fmt.Sprintf("Ensure the image is at most %d MB.", MaxImageSize>>20)
}
