package content

import (
	"context"
	"io"
	"log/slog"

	"github.com/dmitrymomot/flowpilot/core/logger"
)

// FileFetcher reads a workflow file on behalf of a user. Fetcher is the
// production implementation; tests substitute a fake to exercise
// degradation without a network.
type FileFetcher interface {
	WorkflowFile(ctx context.Context, token string, ref FileRef) (string, error)
}

// Service resolves workflow file content for the optimizer: cache first,
// provider API second, graceful degradation last. A fetch failure is not
// fatal to the caller, it only means the content is unavailable.
type Service struct {
	fetcher FileFetcher
	cache   *Cache
	log     *slog.Logger
}

// NewService wires the fetcher and cache. The cache may be nil, in which
// case every call goes to the provider.
func NewService(fetcher FileFetcher, cache *Cache, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{fetcher: fetcher, cache: cache, log: log}
}

// Workflow returns the file's content and whether it was available. A
// false return means the caller should degrade, not fail: the fetch
// error is logged here and never propagated.
func (s *Service) Workflow(ctx context.Context, token string, ref FileRef) (string, bool) {
	if s.cache != nil {
		if text, ok := s.cache.Get(ctx, ref); ok {
			return text, true
		}
	}

	text, err := s.fetcher.WorkflowFile(ctx, token, ref)
	if err != nil {
		s.log.WarnContext(ctx, "workflow fetch failed, degrading",
			logger.Component("content"),
			slog.String("file", ref.String()),
			logger.Error(err),
		)
		return "", false
	}

	if s.cache != nil {
		s.cache.Set(ctx, ref, text)
	}
	return text, true
}
