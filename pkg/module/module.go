// Package module mounts self-contained HTTP handlers under single-segment
// path prefixes (/api, /scalar), each with its own middleware chain.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/JaimeStill/verne/pkg/middleware"
)

// Module serves the requests under its prefix. The inner handler sees paths
// with the prefix removed.
type Module struct {
	prefix string
	inner  http.Handler
	chain  middleware.Chain
}

// New creates a Module at prefix, which must be a single segment such as
// "/api". It panics on an invalid prefix.
func New(prefix string, inner http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{prefix: prefix, inner: inner}
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware to the module's chain.
func (m *Module) Use(mw middleware.Middleware) {
	m.chain.Use(mw)
}

// Handler returns the inner handler wrapped with the module's middleware.
func (m *Module) Handler() http.Handler {
	return m.chain.Then(m.inner)
}

// Serve removes the prefix from the request path and dispatches to the
// wrapped inner handler. Paths outside the prefix are not found.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	rest, ok := strings.CutPrefix(req.URL.Path, m.prefix)
	if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
		http.NotFound(w, req)
		return
	}
	if rest == "" {
		rest = "/"
	}

	m.Handler().ServeHTTP(w, withPath(req, rest))
}

func withPath(req *http.Request, path string) *http.Request {
	u := *req.URL
	u.Path = path
	u.RawPath = ""

	r := req.Clone(req.Context())
	r.URL = &u
	return r
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1 || prefix == "/":
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	case url.PathEscape(prefix[1:]) != prefix[1:]:
		return fmt.Errorf("module prefix must not need escaping: %s", prefix)
	}
	return nil
}
