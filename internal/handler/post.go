package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/form"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/service"
)

// PostHandler serves the listing pages and the post create/edit forms.
type PostHandler struct {
	posts    *service.PostService
	comments *service.CommentService
	follows  *service.FollowService
	render   *Renderer
	logger   *slog.Logger
}

func NewPostHandler(
	posts *service.PostService,
	comments *service.CommentService,
	follows *service.FollowService,
	render *Renderer,
	logger *slog.Logger,
) *PostHandler {
	return &PostHandler{
		posts:    posts,
		comments: comments,
		follows:  follows,
		render:   render,
		logger:   logger,
	}
}

// HandleIndex lists every post, newest first.
//
// HTTP: GET /?page=N
func (h *PostHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := h.posts.ListIndex(r.Context(), r.URL.Query().Get("page"))
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	h.render.HTML(w, r, http.StatusOK, tmplIndex, data{"Page": page})
}

// HandleGroup lists one group's posts.
//
// HTTP: GET /group/{slug}/?page=N
func (h *PostHandler) HandleGroup(w http.ResponseWriter, r *http.Request) {
	group, page, err := h.posts.ListGroup(r.Context(), chi.URLParam(r, "slug"), r.URL.Query().Get("page"))
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	h.render.HTML(w, r, http.StatusOK, tmplGroup, data{"Group": group, "Page": page})
}

// HandleProfile lists one author's posts with their counters and a
// follow/unfollow button for other signed-in users.
//
// HTTP: GET /{username}/?page=N
func (h *PostHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	author, page, err := h.posts.ListProfile(r.Context(), chi.URLParam(r, "username"), r.URL.Query().Get("page"))
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	d, err := h.authorData(r, author)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	d["Page"] = page
	h.render.HTML(w, r, http.StatusOK, tmplProfile, d)
}

// HandleFeed lists posts by the authors the viewer follows.
//
// HTTP: GET /follow/?page=N (login required)
func (h *PostHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	page, err := h.posts.ListFeed(r.Context(), viewerID(r), r.URL.Query().Get("page"))
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	h.render.HTML(w, r, http.StatusOK, tmplFollow, data{"Page": page})
}

// HandleView shows one post with its comments.
//
// HTTP: GET /{username}/{postID}/
func (h *PostHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), chi.URLParam(r, "username"), chi.URLParam(r, "postID"))
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	d, err := h.postData(r, post, form.NewCommentForm())
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	h.render.HTML(w, r, http.StatusOK, tmplPost, d)
}

// HandleNew shows and processes the create form.
//
// HTTP: GET, POST /new/ (login required)
//
// An invalid submission re-renders the form with its errors and a 200.
// A valid one redirects to the home page.
func (h *PostHandler) HandleNew(w http.ResponseWriter, r *http.Request) {
	groups, err := h.posts.Groups(r.Context())
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	f := form.NewPostForm(groups)
	if r.Method == http.MethodGet {
		h.render.HTML(w, r, http.StatusOK, tmplNew, data{"Form": f, "IsEdit": false})
		return
	}

	if err := f.Bind(r); err != nil {
		h.logger.Warn("invalid post form", slog.String("error", err.Error()))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if !f.Valid() {
		h.render.HTML(w, r, http.StatusOK, tmplNew, data{"Form": f, "IsEdit": false})
		return
	}

	_, err = h.posts.Create(r.Context(), viewerID(r), postInput(f))
	if h.formError(f, err) {
		h.render.HTML(w, r, http.StatusOK, tmplNew, data{"Form": f, "IsEdit": false})
		return
	}
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	redirect(w, r, "/")
}

// HandleEdit shows and processes the edit form.
//
// HTTP: GET, POST /{username}/{postID}/edit/ (login required)
//
// Anyone but the author is sent back to the post instead of seeing an error.
func (h *PostHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	postID := chi.URLParam(r, "postID")
	back := postURL(username, postID)

	post, err := h.posts.Get(r.Context(), username, postID)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	if post.AuthorID != viewerID(r) {
		redirect(w, r, back)
		return
	}

	groups, err := h.posts.Groups(r.Context())
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	f := form.PostFormFor(post, groups)
	d := data{"Form": f, "Post": post, "IsEdit": true}
	if r.Method == http.MethodGet {
		h.render.HTML(w, r, http.StatusOK, tmplNew, d)
		return
	}

	if err := f.Bind(r); err != nil {
		h.logger.Warn("invalid post form", slog.String("error", err.Error()))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if !f.Valid() {
		h.render.HTML(w, r, http.StatusOK, tmplNew, d)
		return
	}

	_, err = h.posts.Update(r.Context(), viewerID(r), username, postID, postInput(f))
	switch {
	case errors.Is(err, apperror.ErrForbidden):
		redirect(w, r, back)
	case h.formError(f, err):
		h.render.HTML(w, r, http.StatusOK, tmplNew, d)
	case err != nil:
		h.render.Error(w, r, err)
	default:
		redirect(w, r, back)
	}
}

// formError copies a service validation error onto the form. It reports
// whether there was one.
func (h *PostHandler) formError(f *form.PostForm, err error) bool {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
		return false
	}
	field := appErr.Field
	if field == "" {
		field = form.NonField
	}
	f.Errors.Add(field, appErr.Message)
	return true
}

// authorData is what the author card on the profile and post pages needs.
func (h *PostHandler) authorData(r *http.Request, author *model.User) (data, error) {
	stats, err := h.follows.Stats(r.Context(), author.ID)
	if err != nil {
		return nil, err
	}
	following, err := h.follows.IsFollowing(r.Context(), viewerID(r), author.ID)
	if err != nil {
		return nil, err
	}
	return data{"Author": author, "Stats": stats, "Following": following}, nil
}

// postData is what post.html and comments.html need.
func (h *PostHandler) postData(r *http.Request, post *model.Post, f *form.CommentForm) (data, error) {
	d, err := h.authorData(r, &post.Author)
	if err != nil {
		return nil, err
	}
	comments, err := h.comments.List(r.Context(), post.ID)
	if err != nil {
		return nil, err
	}
	d["Post"] = post
	d["Comments"] = comments
	d["Form"] = f
	return d, nil
}

func postInput(f *form.PostForm) service.PostInput {
	in := service.PostInput{
		Text:       f.Text,
		GroupID:    f.GroupID(),
		ClearImage: f.ClearImage,
	}
	if f.Image != nil {
		in.Image = &service.ImageInput{
			Filename:    f.Image.Filename,
			ContentType: f.Image.ContentType,
			Data:        f.Image.Data,
		}
	}
	return in
}
