package ports

import "context"

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// Complete sends a prompt and returns the raw model text
	Complete(ctx context.Context, prompt string) (string, error)

	// Name identifies the provider in logs and metrics
	Name() string
}
