package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/service"
)

// FollowHandler turns the follow/unfollow links into follow edges.
//
// Both are plain GET links on the profile page, so both end in a redirect
// and never render anything themselves.
type FollowHandler struct {
	follows  *service.FollowService
	accounts *service.AccountService
	render   *Renderer
	logger   *slog.Logger
}

func NewFollowHandler(follows *service.FollowService, accounts *service.AccountService, render *Renderer, logger *slog.Logger) *FollowHandler {
	return &FollowHandler{follows: follows, accounts: accounts, render: render, logger: logger}
}

// HandleFollow follows the author and goes back to their profile.
//
// HTTP: GET /{username}/follow/ (login required)
//
// Following yourself does nothing and lands on your own profile.
func (h *FollowHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	_, err := h.follows.Follow(r.Context(), viewerID(r), username)
	switch {
	case errors.Is(err, apperror.ErrValidation):
		h.toOwnProfile(w, r)
	case err != nil:
		h.render.Error(w, r, err)
	default:
		redirect(w, r, profileURL(username))
	}
}

// HandleUnfollow unfollows the author and goes back to their profile.
//
// HTTP: GET /{username}/unfollow/ (login required)
//
// Unfollowing yourself does nothing and lands on the home page.
func (h *FollowHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	me, err := h.accounts.GetUserByID(r.Context(), viewerID(r))
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	if me.Username == username {
		redirect(w, r, "/")
		return
	}

	if _, err := h.follows.Unfollow(r.Context(), me.ID, username); err != nil {
		h.render.Error(w, r, err)
		return
	}
	redirect(w, r, profileURL(username))
}

func (h *FollowHandler) toOwnProfile(w http.ResponseWriter, r *http.Request) {
	me, err := h.accounts.GetUserByID(r.Context(), viewerID(r))
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	redirect(w, r, profileURL(me.Username))
}
