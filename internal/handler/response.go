package handler

// RESPONSE HELPERS:
// These functions standardise how handlers turn service errors into pages.
//
// ERROR MAPPING:
// The service layer returns apperror values. This is the one place where
// they become HTTP:
//
//	apperror.ErrNotFound        → 404 page
//	apperror.ErrUnauthenticated → redirect to the login page, ?next= the current URL
//	anything else               → 500 page (details only in the log)
//
// Validation errors never get here: handlers catch them and re-render the
// form with a 200. Forbidden never gets here either: each handler redirects
// to a page that makes sense for it (an edit by a non-author goes back to
// the post).
//
// errors.Is() walks the entire error chain (via Unwrap()), so a wrapped
//
//	fmt.Errorf("listing posts: %w", apperror.NotFound(...))
//
// still maps to a 404.

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
)

func (rn *Renderer) Error(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		rn.NotFound(w, r)
	case errors.Is(err, apperror.ErrUnauthenticated):
		http.Redirect(w, r, auth.LoginURL(r.URL.RequestURI()), http.StatusFound)
	default:
		// NEVER expose internal error details to the visitor.
		// The raw message might contain SQL or file paths.
		rn.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		rn.ServerError(w, r)
	}
}

// NotFound renders the custom 404 page.
func (rn *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rn.HTML(w, r, http.StatusNotFound, tmpl404, nil)
}

// ServerError renders the custom 500 page.
func (rn *Renderer) ServerError(w http.ResponseWriter, r *http.Request) {
	rn.HTML(w, r, http.StatusInternalServerError, tmpl500, nil)
}

// redirect is a 302, which is what a browser form flow expects after a POST.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusFound)
}

// viewerID is the signed-in user's ID. Only call it behind auth.RequireLogin.
func viewerID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

func profileURL(username string) string {
	return "/" + username + "/"
}

func postURL(username, postID string) string {
	return "/" + username + "/" + postID + "/"
}
