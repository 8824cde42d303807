package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CookieName is the session cookie.
const CookieName = "session"

// LoginPath is where anonymous visitors are sent when a page needs a login.
const LoginPath = "/auth/login/"

type contextKey string

const userIDKey contextKey = "userID"

// UserExists reports whether a user ID from a valid token still belongs to
// an account.
type UserExists func(ctx context.Context, userID string) bool

// Session reads the session cookie on every request. A valid token puts the
// user ID into the context; a missing or broken one leaves the request
// anonymous. It never rejects a request: pages decide for themselves
// whether they need a login (see RequireLogin).
//
// STALE SESSIONS:
// A JWT stays valid until it expires, even if its account was deleted in
// the meantime. When exists is set, such a token is treated like a broken
// one and its cookie is cleared, so login-required pages send the visitor
// to the login form instead of failing on a user that is not there.
func Session(tokens *TokenService, exists UserExists) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(CookieName); err == nil {
				userID, err := tokens.Validate(cookie.Value)
				switch {
				case err != nil:
				case exists != nil && !exists(r.Context(), userID):
					ClearSessionCookie(w)
				default:
					r = r.WithContext(WithUserID(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLogin redirects anonymous visitors to the login page, remembering
// where they were going in ?next=.
//
// It must run after Session.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginURL builds "/auth/login/?next=<path>".
//
// Slashes are left unescaped ("?next=/new/" rather than "?next=%2Fnew%2F"),
// which is both valid in a query string and what people expect to read.
func LoginURL(next string) string {
	return LoginPath + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// SafeNext returns next if it is a local path, otherwise fallback.
//
// Only paths starting with a single "/" are accepted. "//evil.example" and
// "https://evil.example" would send a freshly logged-in user off-site.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return fallback
	}
	return next
}

// WithUserID returns a context carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the signed-in user's ID, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// SetSessionCookie stores token in the session cookie.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
