package middleware

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/flowpilot/auth"
	"github.com/dmitrymomot/flowpilot/core/handler"
)

// ProviderBinding constructs a fresh identity-provider client and session
// validator for each request and binds both to the context. Client state
// (cookie reads, recorded upstream headers) never crosses requests.
//
// After the rest of the chain runs, upstream provider response headers
// that passed the allow-list are copied onto the response before the body
// renders. Headers outside the allow-list never reach the browser.
func ProviderBinding[C handler.Context](cfg auth.Config, log *slog.Logger) handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			client := auth.NewClient(cfg, ctx.Request())
			auth.BindClient(ctx, client)
			auth.BindValidator(ctx, auth.NewValidator(client, log))

			resp := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				for name, values := range client.UpstreamHeaders() {
					for _, v := range values {
						w.Header().Add(name, v)
					}
				}
				return resp(w, r)
			}
		}
	}
}
