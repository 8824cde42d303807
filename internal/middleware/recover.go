package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recover turns a panic in a handler into the site's 500 page.
//
// chi ships a Recoverer too, but it answers with a bare status line. Here
// the visitor gets the same error page as for any other server fault, and
// the stack goes to the structured log with the request path.
//
// http.ErrAbortHandler is re-panicked: net/http uses it to abort a response
// on purpose and handles it itself.
func Recover(logger *slog.Logger, serverError http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					slog.String("path", r.URL.Path),
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)
				serverError.ServeHTTP(w, r)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
