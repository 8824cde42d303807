package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/sakif/blog/internal/auth"
)

// PageCache keeps whole rendered pages for a fixed window.
//
// WHY CACHE WHOLE PAGES?
// The home page is the busiest page and the most expensive one (a COUNT and
// a JOIN per request). For a short window every visitor can be served the
// same bytes. The price is staleness: a post created or deleted during the
// window does not show up (or disappear) until the entry expires or Flush
// is called. Nothing invalidates entries on write.
//
// The key is the request URI plus the viewer, because the page header
// differs between guests and each signed-in user.
type PageCache struct {
	store *cache.Cache
	ttl   time.Duration
}

type cachedPage struct {
	header http.Header
	body   []byte
}

// NewPageCache returns a cache whose entries live for ttl.
func NewPageCache(ttl time.Duration) *PageCache {
	return &PageCache{
		store: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Flush drops every cached page.
func (c *PageCache) Flush() {
	c.store.Flush()
}

// size is the number of cached pages, expired ones included until the janitor runs.
func (c *PageCache) size() int {
	return c.store.ItemCount()
}

// Middleware serves GET requests from the cache and stores 200 responses.
func (c *PageCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key := cacheKey(r)
		if v, ok := c.store.Get(key); ok {
			page := v.(*cachedPage)
			for k, vals := range page.header {
				w.Header()[k] = vals
			}
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(http.StatusOK)
			w.Write(page.body)
			return
		}

		rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-Cache", "MISS")
		next.ServeHTTP(rec, r)

		if rec.status == http.StatusOK {
			header := w.Header().Clone()
			header.Del("X-Cache")
			header.Del("Set-Cookie")
			c.store.Set(key, &cachedPage{header: header, body: rec.buf.Bytes()}, c.ttl)
		}
	})
}

func cacheKey(r *http.Request) string {
	viewer, _ := auth.UserIDFromContext(r.Context())
	return r.URL.RequestURI() + "\x00" + viewer
}

// recordingWriter passes the response through while keeping a copy of the body.
type recordingWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (rw *recordingWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	rw.buf.Write(b)
	return rw.ResponseWriter.Write(b)
}
