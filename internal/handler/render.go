// Package handler contains HTTP request handlers for the blog.
//
// WHAT IS A HANDLER?
// In Go, an HTTP handler is anything that implements the http.Handler interface:
//
//	type Handler interface {
//	    ServeHTTP(ResponseWriter, *Request)
//	}
//
// Or more commonly, we use http.HandlerFunc, a function with the right signature
// that automatically satisfies the Handler interface. Chi's router accepts these directly.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (URL params, query, form body)
// 2. Call the service layer
// 3. Render a template or redirect
//
// Handlers should NOT contain business logic. They are the glue between HTTP and the services.
package handler

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
)

// Page templates, by the name handlers render them with.
const (
	tmplIndex    = "index.html"
	tmplGroup    = "group.html"
	tmplProfile  = "profile.html"
	tmplPost     = "post.html"
	tmplNew      = "new.html"
	tmplComments = "comments.html"
	tmplFollow   = "follow.html"
	tmplLogin    = "auth/login.html"
	tmplSignup   = "auth/signup.html"
	tmplAuthor   = "about/author.html"
	tmplTech     = "about/tech.html"
	tmpl404      = "misc/404.html"
	tmpl500      = "misc/500.html"
)

var pages = []string{
	tmplIndex, tmplGroup, tmplProfile, tmplPost, tmplNew, tmplComments, tmplFollow,
	tmplLogin, tmplSignup, tmplAuthor, tmplTech, tmpl404, tmpl500,
}

// ViewerSource looks up the signed-in user for the page header.
type ViewerSource interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// data is what a handler passes to its template. Render adds the keys every
// page shares: Viewer, Path and Year.
type data map[string]any

// Renderer holds one parsed template set per page.
//
// WHY ONE SET PER PAGE?
// Every page defines its own "title" and "content" blocks. Parsed into a
// single set they would overwrite each other, so each page is parsed
// together with base.html and the includes into a set of its own.
// Parsing happens once at startup; a broken template fails New, not a request.
type Renderer struct {
	pages   map[string]*template.Template
	viewers ViewerSource
	logger  *slog.Logger
}

// NewRenderer parses the page templates found under templates/ in fsys.
// mediaURL turns a stored image key into the address templates link to.
func NewRenderer(fsys fs.FS, mediaURL func(string) string, viewers ViewerSource, logger *slog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"mediaURL":     mediaURL,
		"linebreaksbr": linebreaksbr,
		"date":         formatDate,
	}

	r := &Renderer{
		pages:   make(map[string]*template.Template, len(pages)),
		viewers: viewers,
		logger:  logger,
	}
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(fsys,
			"templates/base.html",
			"templates/includes/*.html",
			"templates/"+page,
		)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// HTML renders page with status.
//
// The page is rendered into a buffer first. If the template fails halfway,
// the visitor gets the 500 page instead of half a page with a 200 status.
func (rn *Renderer) HTML(w http.ResponseWriter, r *http.Request, status int, page string, d data) {
	tmpl, ok := rn.pages[page]
	if !ok {
		rn.logger.Error("unknown template", slog.String("template", page))
		rn.fallback(w)
		return
	}

	if d == nil {
		d = data{}
	}
	d["Viewer"] = rn.viewer(r)
	d["Path"] = r.URL.Path
	d["Year"] = time.Now().Year()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", d); err != nil {
		rn.logger.Error("failed to render template",
			slog.String("template", page),
			slog.String("error", err.Error()),
		)
		if page == tmpl500 {
			rn.fallback(w)
			return
		}
		rn.HTML(w, r, http.StatusInternalServerError, tmpl500, nil)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// viewer is the signed-in user or nil. A session for a user that no longer
// exists renders as a guest.
func (rn *Renderer) viewer(r *http.Request) *model.User {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	u, err := rn.viewers.GetUserByID(r.Context(), id)
	if err != nil {
		return nil
	}
	return u
}

func (rn *Renderer) fallback(w http.ResponseWriter) {
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// linebreaksbr escapes text and turns newlines into <br>.
func linebreaksbr(text string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

func formatDate(t time.Time) string {
	return t.Format("2 January 2006 15:04")
}
