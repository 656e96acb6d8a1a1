// Package llm defines the Provider interface for Large Language Model
// backends.
//
// The pipeline uses LLM completions for two narrow jobs: classifying the work
// context of a transcript and proposing corrections for ambiguous phrases.
// Both are single-shot prompt-in, text-out calls, so the interface is a plain
// Complete method without streaming or tool calling.
//
// Implementations must be safe for concurrent use.
package llm

import "context"

// Usage holds token accounting information returned by the LLM backend.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the prompt.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// Prompt must be non-empty.
type CompletionRequest struct {
	// SystemPrompt is an optional high-priority instruction injected before
	// the user prompt.
	SystemPrompt string

	// Prompt is the user-role content driving the response.
	Prompt string

	// Temperature controls output randomness. The pipeline's analysis calls
	// use low values for repeatable output. Zero means the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens. Zero means the provider
	// default.
	MaxTokens int

	// JSONResponse asks the model to emit a single JSON object. Providers
	// with a native JSON output mode enable it; others rely on the prompt
	// alone, so callers must still tolerate surrounding prose or code fences.
	JSONResponse bool
}

// CompletionResponse is the model's full reply.
type CompletionResponse struct {
	// Content is the text of the reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
//
// Complete must respect ctx cancellation. The returned response is non-nil
// exactly when the error is nil.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
