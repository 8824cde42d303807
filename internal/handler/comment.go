package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/form"
)

// HandleComment shows the comment form on its own page and processes it.
//
// HTTP: GET, POST /{username}/{postID}/comment/ (login required)
//
// A valid comment redirects back to the post. An empty one re-renders the
// post's comments with the error under the form.
func (h *PostHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	postID := chi.URLParam(r, "postID")

	post, err := h.posts.Get(r.Context(), username, postID)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	f := form.NewCommentForm()
	if r.Method == http.MethodPost {
		if err := f.Bind(r); err != nil {
			h.logger.Warn("invalid comment form", slog.String("error", err.Error()))
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		if f.Valid() {
			_, err := h.comments.Add(r.Context(), viewerID(r), username, postID, f.Text)
			if err == nil {
				redirect(w, r, postURL(username, postID))
				return
			}
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
				h.render.Error(w, r, err)
				return
			}
			f.Errors.Add("text", appErr.Message)
		}
	}

	d, err := h.postData(r, post, f)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	h.render.HTML(w, r, http.StatusOK, tmplComments, d)
}
