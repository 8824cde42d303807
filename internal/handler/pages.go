package handler

import "net/http"

// PageHandler serves the pages that need no service: the about pages and
// the error pages.
type PageHandler struct {
	render *Renderer
}

func NewPageHandler(render *Renderer) *PageHandler {
	return &PageHandler{render: render}
}

// HTTP: GET /about/author/
func (h *PageHandler) HandleAboutAuthor(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, tmplAuthor, nil)
}

// HTTP: GET /about/tech/
func (h *PageHandler) HandleAboutTech(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, tmplTech, nil)
}

// HandleNotFound is the router's fallback for unknown paths.
func (h *PageHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.render.NotFound(w, r)
}

// HandleServerError is what panic recovery renders.
func (h *PageHandler) HandleServerError(w http.ResponseWriter, r *http.Request) {
	h.render.ServerError(w, r)
}
