// Package router provides a small type-safe HTTP router built around the
// handler package's typed contexts. Routes are registered with Go 1.22
// method-aware patterns; handlers return renderable responses instead of
// writing directly, so middleware can decorate both directions of a request.
package router

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/dmitrymomot/flowpilot/core/handler"
)

// Route describes a single registered route.
type Route struct {
	Method  string
	Pattern string
}

// Router dispatches requests to typed handlers through a middleware chain.
type Router[C handler.Context] struct {
	mux          *http.ServeMux
	middlewares  []handler.Middleware[C]
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request, map[string]string) C
	logger       *slog.Logger
	routes       []Route
	registered   bool
}

// Option configures a Router.
type Option[C handler.Context] func(*Router[C])

// WithContextFactory sets the factory used to build a request context per request.
// Required for any context type other than *handler.RequestContext.
func WithContextFactory[C handler.Context](fn func(http.ResponseWriter, *http.Request, map[string]string) C) Option[C] {
	return func(r *Router[C]) {
		r.newContext = fn
	}
}

// WithErrorHandler overrides the default error handler.
func WithErrorHandler[C handler.Context](fn handler.ErrorHandler[C]) Option[C] {
	return func(r *Router[C]) {
		if fn != nil {
			r.errorHandler = fn
		}
	}
}

// WithLogger sets the logger used for panics that occur after the response
// has started.
func WithLogger[C handler.Context](log *slog.Logger) Option[C] {
	return func(r *Router[C]) {
		if log != nil {
			r.logger = log
		}
	}
}

// New creates a router with the given options.
func New[C handler.Context](opts ...Option[C]) *Router[C] {
	r := &Router[C]{
		mux:          http.NewServeMux(),
		errorHandler: defaultErrorHandler[C],
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.newContext == nil {
		r.newContext = func(w http.ResponseWriter, req *http.Request, params map[string]string) C {
			var zero C
			if _, ok := any(zero).(*handler.RequestContext); ok {
				return any(handler.NewContext(w, req, params)).(C)
			}
			panic(ErrNoContextFactory)
		}
	}

	return r
}

// Use appends middleware to the router. All middleware must be registered
// before any route; registration order is execution order.
func (r *Router[C]) Use(middlewares ...handler.Middleware[C]) {
	if r.registered {
		panic("router: all middlewares must be defined before routes")
	}
	r.middlewares = append(r.middlewares, middlewares...)
}

// Get registers a handler for GET requests.
func (r *Router[C]) Get(pattern string, h handler.HandlerFunc[C]) {
	r.Method(http.MethodGet, pattern, h)
}

// Post registers a handler for POST requests.
func (r *Router[C]) Post(pattern string, h handler.HandlerFunc[C]) {
	r.Method(http.MethodPost, pattern, h)
}

// Put registers a handler for PUT requests.
func (r *Router[C]) Put(pattern string, h handler.HandlerFunc[C]) {
	r.Method(http.MethodPut, pattern, h)
}

// Delete registers a handler for DELETE requests.
func (r *Router[C]) Delete(pattern string, h handler.HandlerFunc[C]) {
	r.Method(http.MethodDelete, pattern, h)
}

// Method registers a handler for the given HTTP method and pattern.
func (r *Router[C]) Method(method, pattern string, h handler.HandlerFunc[C]) {
	if len(pattern) == 0 || pattern[0] != '/' {
		panic(fmt.Errorf("%w: %q", ErrInvalidPattern, pattern))
	}
	r.registered = true
	r.routes = append(r.routes, Route{Method: method, Pattern: pattern})

	chained := handler.Chain(r.middlewares, h)
	r.mux.HandleFunc(method+" "+pattern, func(w http.ResponseWriter, req *http.Request) {
		r.serve(w, req, chained)
	})
}

// Routes returns all registered routes.
func (r *Router[C]) Routes() []Route {
	return r.routes
}

// ServeHTTP implements http.Handler.
func (r *Router[C]) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// serve runs a single request through the chained handler with panic
// recovery and centralized error handling.
func (r *Router[C]) serve(w http.ResponseWriter, req *http.Request, fn handler.HandlerFunc[C]) {
	ww := newResponseWriter(w)
	ctx := r.newContext(ww, req, nil)

	defer func() {
		if p := recover(); p != nil {
			perr := &panicError{value: p, stack: debug.Stack()}
			if ww.Written() {
				// Too late for an error response; log and move on.
				r.logger.Error("panic after response written",
					"value", perr.value,
					"stack", string(perr.stack),
					"path", req.URL.Path,
					"method", req.Method,
					"status", ww.Status(),
				)
				return
			}
			r.errorHandler(ctx, perr)
		}
	}()

	response := fn(ctx)
	if response == nil {
		r.errorHandler(ctx, ErrNilResponse)
		return
	}

	if err := response(ww, req); err != nil {
		r.errorHandler(ctx, err)
	}
}
