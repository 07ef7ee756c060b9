package optimize

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/flowpilot/auth"
	"github.com/dmitrymomot/flowpilot/content"
	"github.com/dmitrymomot/flowpilot/core/handler"
	"github.com/dmitrymomot/flowpilot/core/response"
	"github.com/dmitrymomot/flowpilot/storage"
)

// connectionProvider names the source-control platform whose connection
// the optimizer reads files through.
const connectionProvider = "github"

// Request is the optimization request body.
type Request struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Path  string `json:"path"`
	Ref   string `json:"ref,omitempty"`
}

// validate returns a field->problem map, empty when the request is fine.
func (r Request) validate() map[string]any {
	problems := map[string]any{}
	if r.Owner == "" {
		problems["owner"] = "required"
	}
	if r.Repo == "" {
		problems["repo"] = "required"
	}
	if r.Path == "" {
		problems["path"] = "required"
	}
	return problems
}

// UserStore is the slice of the storage layer the handler needs.
type UserStore interface {
	GetSettings(ctx context.Context, userID uuid.UUID) (storage.Settings, error)
	GetConnection(ctx context.Context, userID uuid.UUID, provider string) (storage.Connection, error)
}

// ContentService resolves workflow file content, reporting availability
// rather than errors.
type ContentService interface {
	Workflow(ctx context.Context, token string, ref content.FileRef) (string, bool)
}

// GeneratorFactory builds a generation backend for the user's settings.
type GeneratorFactory func(ctx context.Context, apiKey, model string) (Generator, error)

// Handler serves optimization requests.
type Handler struct {
	store      UserStore
	content    ContentService
	generators GeneratorFactory
}

// NewHandler wires the optimization endpoint's dependencies. A nil
// factory uses the default backend selection.
func NewHandler(store UserStore, contentSvc ContentService, factory GeneratorFactory) *Handler {
	if factory == nil {
		factory = NewGenerator
	}
	return &Handler{store: store, content: contentSvc, generators: factory}
}

// Optimize handles an optimization request end to end: verified user,
// valid request, configured settings, linked provider account, content
// fetch with degradation, then a streamed generation.
//
// The checks run cheapest first so an unauthenticated or malformed
// request never touches storage or external APIs.
func Optimize[C handler.Context](h *Handler) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		user := auth.UserFromContext(ctx)
		if user == nil {
			return response.Error(response.ErrUnauthorized)
		}

		var req Request
		if err := json.NewDecoder(ctx.Request().Body).Decode(&req); err != nil {
			return response.Error(response.ErrBadRequest.
				WithMessage("request body is not valid JSON"))
		}
		if problems := req.validate(); len(problems) > 0 {
			return response.Error(response.ErrBadRequest.
				WithMessage("invalid optimization request").
				WithDetails(problems))
		}

		settings, err := h.store.GetSettings(ctx, user.ID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return response.Error(err)
		}
		if err != nil || !settings.Configured() {
			return response.Error(response.ErrBadRequest.
				WithCode("settings_not_configured").
				WithMessage("generation settings are not configured"))
		}

		conn, err := h.store.GetConnection(ctx, user.ID, connectionProvider)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return response.Error(response.ErrUnauthorized.
					WithCode("github_not_connected").
					WithMessage("no linked github account"))
			}
			return response.Error(err)
		}

		fileRef := content.FileRef{Owner: req.Owner, Repo: req.Repo, Path: req.Path, Ref: req.Ref}
		text, available := h.content.Workflow(ctx, conn.AccessToken, fileRef)

		gen, err := h.generators(ctx, settings.APIKey, settings.Model)
		if err != nil {
			if errors.Is(err, ErrInvalidAPIKey) || errors.Is(err, ErrModelNotSupported) {
				return response.Error(response.ErrBadRequest.
					WithCode("settings_not_configured").
					WithError(err))
			}
			return response.Error(err)
		}

		prompt := Prompt{WorkflowPath: req.Path, Content: text, Degraded: !available}

		stream := response.TextStream(func(w io.Writer) error {
			return gen.Optimize(ctx, prompt, response.FlushWriter{W: w})
		})
		return func(w http.ResponseWriter, r *http.Request) error {
			if !available {
				// Lets clients surface that the answer is generic advice,
				// not a rewrite of their actual file.
				w.Header().Set("X-Content-Degraded", "true")
			}
			return stream(w, r)
		}
	}
}
