package handler

import (
	"context"
	"net/http"
	"time"
)

// Context defines the contract for request contexts in the framework.
// It embeds context.Context so request-scoped values and cancellation
// propagate to every downstream call.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	Param(key string) string
	SetValue(key, val any)
}

// RequestContext is the default Context implementation. It delegates all
// context.Context methods to the request's context, so deadlines and
// cancellation from the HTTP server apply unchanged.
type RequestContext struct {
	w      http.ResponseWriter
	r      *http.Request
	params map[string]string
}

// NewContext creates a RequestContext bound to the given request.
func NewContext(w http.ResponseWriter, r *http.Request, params map[string]string) *RequestContext {
	return &RequestContext{w: w, r: r, params: params}
}

// Deadline returns the time when work done on behalf of this context should be canceled.
func (c *RequestContext) Deadline() (deadline time.Time, ok bool) {
	return c.r.Context().Deadline()
}

// Done returns a channel that's closed when work done on behalf of this context should be canceled.
func (c *RequestContext) Done() <-chan struct{} {
	return c.r.Context().Done()
}

// Err returns a non-nil error value after Done is closed.
func (c *RequestContext) Err() error {
	return c.r.Context().Err()
}

// Value returns the value associated with this context for key, or nil.
func (c *RequestContext) Value(key any) any {
	return c.r.Context().Value(key)
}

// SetValue stores a value in the request's context. The value can be
// retrieved with Value for the remainder of the request; nothing stored
// here outlives the request.
func (c *RequestContext) SetValue(key, val any) {
	ctx := context.WithValue(c.r.Context(), key, val)
	c.r = c.r.WithContext(ctx)
}

// Request returns the HTTP request associated with this context.
func (c *RequestContext) Request() *http.Request {
	return c.r
}

// ResponseWriter returns the HTTP response writer associated with this context.
func (c *RequestContext) ResponseWriter() http.ResponseWriter {
	return c.w
}

// Param returns the value of the URL parameter for the given key.
// Without an explicit params map it falls back to the pattern values
// the HTTP mux extracted from the route.
func (c *RequestContext) Param(key string) string {
	if c.params != nil {
		return c.params[key]
	}
	return c.r.PathValue(key)
}
