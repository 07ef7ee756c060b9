package optimize

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/genai"
)

// Google default model constant.
const GoogleGeminiFlash = "gemini-2.0-flash"

// Google implements Generator using Google's Generative AI streaming API.
type Google struct {
	client *genai.Client
	model  string
}

// GoogleOption is a functional option for configuring Google.
type GoogleOption func(*Google)

// NewGoogle creates a new Google generator with API key authentication.
func NewGoogle(ctx context.Context, apiKey, model string, opts ...GoogleOption) (*Google, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}

	g := &Google{model: model}
	if g.model == "" {
		g.model = GoogleGeminiFlash
	}

	for _, opt := range opts {
		opt(g)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClientCreationFailed, err)
	}
	g.client = client

	return g, nil
}

// Optimize streams the rewritten workflow to out chunk by chunk.
func (g *Google) Optimize(ctx context.Context, p Prompt, out io.Writer) error {
	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt(p), genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}

	wrote := false
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, config) {
		if err != nil {
			return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		if _, err := io.WriteString(out, text); err != nil {
			return fmt.Errorf("%w: writing chunk: %w", ErrGenerationFailed, err)
		}
		wrote = true
	}
	if !wrote {
		return ErrNoContentReturned
	}
	return nil
}
