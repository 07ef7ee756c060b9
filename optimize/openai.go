package optimize

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI default model constant.
const OpenAIGPT4oMini = "gpt-4o-mini"

// OpenAI implements Generator using OpenAI's streaming chat API. The
// client is built per user with their own API key.
type OpenAI struct {
	client  openai.Client
	model   string
	reqOpts []option.RequestOption
}

// OpenAIOption is a functional option for configuring OpenAI.
type OpenAIOption func(*OpenAI)

// WithOpenAIHTTPClient sets a custom HTTP client, mainly for tests.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(o *OpenAI) {
		if client != nil {
			o.reqOpts = append(o.reqOpts, option.WithHTTPClient(client))
		}
	}
}

// WithOpenAIBaseURL points the client at an alternate API endpoint.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(o *OpenAI) {
		if url != "" {
			o.reqOpts = append(o.reqOpts, option.WithBaseURL(url))
		}
	}
}

// NewOpenAI creates a new OpenAI generator.
func NewOpenAI(apiKey, model string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}

	o := &OpenAI{
		model:   model,
		reqOpts: []option.RequestOption{option.WithAPIKey(apiKey)},
	}
	if o.model == "" {
		o.model = OpenAIGPT4oMini
	}

	for _, opt := range opts {
		opt(o)
	}

	o.client = openai.NewClient(o.reqOpts...)
	return o, nil
}

// Optimize streams the rewritten workflow to out chunk by chunk.
func (o *OpenAI) Optimize(ctx context.Context, p Prompt, out io.Writer) error {
	stream := o.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstruction),
			openai.UserMessage(userPrompt(p)),
		},
	})
	defer stream.Close()

	wrote := false
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if _, err := io.WriteString(out, delta); err != nil {
			return fmt.Errorf("%w: writing chunk: %w", ErrGenerationFailed, err)
		}
		wrote = true
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if !wrote {
		return ErrNoContentReturned
	}
	return nil
}
