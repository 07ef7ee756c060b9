// Package optimize turns a CI workflow file into an improved version by
// streaming a model-generated rewrite back to the caller. Two generation
// backends are supported, selected by the model name the user configured.
package optimize

import (
	"context"
	"io"
	"strings"
)

// Prompt carries everything a generation needs.
type Prompt struct {
	// WorkflowPath is the repository path of the file, for context in the
	// instructions.
	WorkflowPath string

	// Content is the current workflow file text. Empty when the fetch
	// degraded; Degraded is set in that case.
	Content string

	// Degraded marks a generation running without the actual file
	// content. The backend still produces general guidance.
	Degraded bool
}

// Generator produces an optimized workflow, writing output chunks to out
// as the backend emits them. Implementations flush nothing themselves;
// callers wrap out when incremental delivery matters.
type Generator interface {
	Optimize(ctx context.Context, p Prompt, out io.Writer) error
}

const systemInstruction = `You are an expert in CI workflow configuration.
Rewrite the provided workflow file to be faster and cheaper while keeping
its behavior: add dependency caching where missing, remove redundant
steps, tighten triggers, and pin actions to immutable versions. Reply
with the improved workflow file followed by a short list of the changes
made.`

// degradedNotice replaces the file content when the fetch failed, so the
// model produces general advice instead of hallucinating a file.
const degradedNotice = `The workflow file could not be retrieved. Provide
general optimization guidance for a typical CI workflow at this path
instead of rewriting a specific file.`

// userPrompt renders the generation request text for either backend.
func userPrompt(p Prompt) string {
	var b strings.Builder
	b.WriteString("Workflow file: ")
	b.WriteString(p.WorkflowPath)
	b.WriteString("\n\n")
	if p.Degraded || p.Content == "" {
		b.WriteString(degradedNotice)
		return b.String()
	}
	b.WriteString("```yaml\n")
	b.WriteString(p.Content)
	if !strings.HasSuffix(p.Content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```")
	return b.String()
}

// NewGenerator selects a backend for the user's configured model. Models
// named gemini-* run on the Google backend; everything else goes to the
// OpenAI-compatible one.
func NewGenerator(ctx context.Context, apiKey, model string) (Generator, error) {
	if strings.HasPrefix(model, "gemini-") {
		return NewGoogle(ctx, apiKey, model)
	}
	return NewOpenAI(apiKey, model)
}
