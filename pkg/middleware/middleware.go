// Package middleware provides the HTTP middleware applied to each module:
// CORS, request logging, per-client rate limiting, and bearer auth.
package middleware

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain is an ordered middleware stack. The first middleware added is the
// outermost. The zero value is an empty chain.
type Chain struct {
	stack []Middleware
}

// Use appends middleware to the chain.
func (c *Chain) Use(mw ...Middleware) {
	c.stack = append(c.stack, mw...)
}

// Len returns the number of middleware in the chain.
func (c *Chain) Len() int {
	return len(c.stack)
}

// Then wraps handler with every middleware in the chain.
func (c *Chain) Then(handler http.Handler) http.Handler {
	for i := len(c.stack) - 1; i >= 0; i-- {
		handler = c.stack[i](handler)
	}
	return handler
}
