package router_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flowpilot/core/handler"
	"github.com/dmitrymomot/flowpilot/core/response"
	"github.com/dmitrymomot/flowpilot/core/router"
)

type testCtx = *handler.RequestContext

func TestRouterDispatch(t *testing.T) {
	t.Parallel()

	t.Run("routes by method and pattern", func(t *testing.T) {
		t.Parallel()
		r := router.New[testCtx]()
		r.Get("/things", func(ctx testCtx) handler.Response {
			return response.String("list")
		})
		r.Post("/things", func(ctx testCtx) handler.Response {
			return response.StringWithStatus("created", http.StatusCreated)
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "list", rec.Body.String())

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/things", nil))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("path parameters reach the handler", func(t *testing.T) {
		t.Parallel()
		r := router.New[testCtx]()
		r.Get("/things/{id}", func(ctx testCtx) handler.Response {
			return response.String(ctx.Param("id"))
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/42", nil))
		assert.Equal(t, "42", rec.Body.String())
	})

	t.Run("unknown route is 404", func(t *testing.T) {
		t.Parallel()
		r := router.New[testCtx]()
		r.Get("/known", func(ctx testCtx) handler.Response { return response.NoContent() })

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRouterErrors(t *testing.T) {
	t.Parallel()

	t.Run("handler error maps through status code", func(t *testing.T) {
		t.Parallel()
		r := router.New[testCtx]()
		r.Get("/fail", func(ctx testCtx) handler.Response {
			return response.Error(response.ErrNotFound.WithMessage("nothing here"))
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "nothing here")
	})

	t.Run("plain error is a 500", func(t *testing.T) {
		t.Parallel()
		r := router.New[testCtx]()
		r.Get("/fail", func(ctx testCtx) handler.Response {
			return response.Error(errors.New("boom"))
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("nil response is a 500", func(t *testing.T) {
		t.Parallel()
		r := router.New[testCtx]()
		r.Get("/nil", func(ctx testCtx) handler.Response { return nil })

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nil", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("panic is recovered into an error response", func(t *testing.T) {
		t.Parallel()
		r := router.New[testCtx]()
		r.Get("/panic", func(ctx testCtx) handler.Response {
			panic("kaboom")
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("custom error handler receives the error", func(t *testing.T) {
		t.Parallel()
		var got error
		r := router.New(router.WithErrorHandler[testCtx](func(ctx testCtx, err error) {
			got = err
			ctx.ResponseWriter().WriteHeader(http.StatusTeapot)
		}))
		sentinel := errors.New("sentinel")
		r.Get("/fail", func(ctx testCtx) handler.Response {
			return response.Error(sentinel)
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.ErrorIs(t, got, sentinel)
	})
}

func TestRouterMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("runs in registration order", func(t *testing.T) {
		t.Parallel()
		var order []string
		mw := func(name string) handler.Middleware[testCtx] {
			return func(next handler.HandlerFunc[testCtx]) handler.HandlerFunc[testCtx] {
				return func(ctx testCtx) handler.Response {
					order = append(order, name)
					return next(ctx)
				}
			}
		}

		r := router.New[testCtx]()
		r.Use(mw("first"), mw("second"))
		r.Get("/", func(ctx testCtx) handler.Response {
			order = append(order, "endpoint")
			return response.NoContent()
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, []string{"first", "second", "endpoint"}, order)
	})

	t.Run("middleware can short-circuit", func(t *testing.T) {
		t.Parallel()
		r := router.New[testCtx]()
		r.Use(func(next handler.HandlerFunc[testCtx]) handler.HandlerFunc[testCtx] {
			return func(ctx testCtx) handler.Response {
				return response.Error(response.ErrForbidden)
			}
		})
		r.Get("/", func(ctx testCtx) handler.Response {
			t.Fatal("endpoint must not run")
			return nil
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("registering middleware after a route panics", func(t *testing.T) {
		t.Parallel()
		r := router.New[testCtx]()
		r.Get("/", func(ctx testCtx) handler.Response { return response.NoContent() })

		require.Panics(t, func() {
			r.Use(func(next handler.HandlerFunc[testCtx]) handler.HandlerFunc[testCtx] { return next })
		})
	})
}
