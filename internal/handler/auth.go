package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/form"
	"github.com/sakif/blog/internal/service"
)

// AuthHandler manages signup, login, logout and the optional GitHub OAuth flow.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignup         → create a password account and sign it in
//   - HandleLogin          → check a username and password, set the session cookie
//   - HandleLogout         → clear the session cookie
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → receive the code, find or create the user, set the cookie
//
// DEPENDENCY CHAIN:
//   - accounts *service.AccountService → users, passwords and session tokens
//   - github   *auth.GitHubProvider    → the OAuth code exchange (nil when not configured)
type AuthHandler struct {
	accounts *service.AccountService
	github   *auth.GitHubProvider
	render   *Renderer
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil.
func NewAuthHandler(accounts *service.AccountService, github *auth.GitHubProvider, render *Renderer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		github:   github,
		render:   render,
		logger:   logger,
	}
}

// HandleSignup shows and processes the signup form.
//
// HTTP: GET, POST /auth/signup/
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	f := form.NewSignupForm()
	if r.Method == http.MethodGet {
		h.render.HTML(w, r, http.StatusOK, tmplSignup, data{"Form": f})
		return
	}

	if err := f.Bind(r); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if !f.Valid() {
		h.render.HTML(w, r, http.StatusOK, tmplSignup, data{"Form": f})
		return
	}

	result, err := h.accounts.Signup(r.Context(), f.Username, f.Email, f.Password)
	switch {
	case errors.Is(err, apperror.ErrConflict):
		f.Errors.Add("username", "A user with that username already exists.")
		h.render.HTML(w, r, http.StatusOK, tmplSignup, data{"Form": f})
		return
	case errors.Is(err, apperror.ErrValidation):
		f.Errors.Add(form.NonField, err.Error())
		h.render.HTML(w, r, http.StatusOK, tmplSignup, data{"Form": f})
		return
	case err != nil:
		h.render.Error(w, r, err)
		return
	}

	auth.SetSessionCookie(w, r, result.Token, h.accounts.TokenTTL())
	redirect(w, r, "/")
}

// HandleLogin shows and processes the login form.
//
// HTTP: GET, POST /auth/login/?next=/path/
//
// After a successful login the browser goes to ?next= when that is a local
// path, otherwise to the home page.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	f := form.NewLoginForm()
	d := data{"Form": f, "GitHubEnabled": h.github != nil}

	if r.Method == http.MethodGet {
		f.Next = r.URL.Query().Get("next")
		h.render.HTML(w, r, http.StatusOK, tmplLogin, d)
		return
	}

	if err := f.Bind(r); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if !f.Valid() {
		h.render.HTML(w, r, http.StatusOK, tmplLogin, d)
		return
	}

	result, err := h.accounts.Login(r.Context(), f.Username, f.Password)
	if errors.Is(err, apperror.ErrUnauthenticated) {
		h.logger.Info("login failed", slog.String("username", f.Username))
		f.InvalidCredentials()
		h.render.HTML(w, r, http.StatusOK, tmplLogin, d)
		return
	}
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	auth.SetSessionCookie(w, r, result.Token, h.accounts.TokenTTL())
	redirect(w, r, auth.SafeNext(f.Next, "/"))
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout/ (GET is accepted too, for a plain link)
//
// Sessions are stateless JWTs, so "logout" just means deleting the
// client-side cookie. The token stays technically valid until it expires,
// but without the cookie the browser can't send it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	redirect(w, r, "/")
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// We generate a random state string and store it in a short-lived cookie.
// When GitHub calls back, HandleGitHubCallback verifies the state matches.
// This proves the callback was initiated by this browser, not a CSRF attacker.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state, err := auth.NewState()
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user profile
//  3. Find the local user by GitHub ID, or create one
//  4. Set the session cookie
//  5. Redirect to the home page
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie(auth.StateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state cookie is single-use
	http.SetCookie(w, &http.Cookie{
		Name:   auth.StateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// The user pressed "Cancel" on GitHub
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		redirect(w, r, auth.LoginPath)
		return
	}

	// --- Step 2: Exchange code for GitHub user profile ---
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	// --- Step 3: Find or create the local user ---
	result, err := h.accounts.LoginOrRegisterGitHub(r.Context(), ghUser, form.IsReserved)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	// --- Step 4 and 5 ---
	auth.SetSessionCookie(w, r, result.Token, h.accounts.TokenTTL())
	redirect(w, r, "/")
}
