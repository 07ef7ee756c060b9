// Package content fetches CI workflow files from the user's source-control
// provider, with a cache in front and graceful degradation behind.
package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v74/github"
)

// FileRef identifies a workflow file in a repository.
type FileRef struct {
	Owner string
	Repo  string
	Path  string
	Ref   string
}

// Key returns a stable cache key for the reference.
func (f FileRef) Key() string {
	ref := f.Ref
	if ref == "" {
		ref = "HEAD"
	}
	return strings.Join([]string{"wf", f.Owner, f.Repo, f.Path, ref}, ":")
}

func (f FileRef) String() string {
	return fmt.Sprintf("%s/%s/%s@%s", f.Owner, f.Repo, f.Path, f.Ref)
}

// Config provides environment-based configuration for content fetching.
type Config struct {
	// FetchTimeout bounds a single provider API call.
	FetchTimeout time.Duration `env:"CONTENT_FETCH_TIMEOUT" envDefault:"10s"`

	// CacheTTL is how long fetched files stay cached.
	CacheTTL time.Duration `env:"CONTENT_CACHE_TTL" envDefault:"5m"`
}

// Fetcher reads workflow files through the GitHub API using the user's
// connection token.
type Fetcher struct {
	timeout time.Duration

	// newClient is swapped in tests to point at a local server.
	newClient func(token string) *github.Client
}

// NewFetcher creates a fetcher with the given per-call timeout.
func NewFetcher(cfg Config) *Fetcher {
	return &Fetcher{
		timeout: cfg.FetchTimeout,
		newClient: func(token string) *github.Client {
			return github.NewClient(nil).WithAuthToken(token)
		},
	}
}

// WorkflowFile fetches the file's decoded content. The token is the
// user's provider connection token, never a service-wide credential.
func (f *Fetcher) WorkflowFile(ctx context.Context, token string, ref FileRef) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	client := f.newClient(token)

	var opts *github.RepositoryContentGetOptions
	if ref.Ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: ref.Ref}
	}

	file, _, _, err := client.Repositories.GetContents(ctx, ref.Owner, ref.Repo, ref.Path, opts)
	if err != nil {
		return "", fmt.Errorf("content: fetch %s: %w", ref, err)
	}
	if file == nil {
		return "", fmt.Errorf("content: %s is a directory, not a file", ref)
	}

	text, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("content: decode %s: %w", ref, err)
	}
	return text, nil
}
