package providers

import (
	"context"
)

// Config represents the configuration for a vision LLM call
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	// Image is a PNG-encoded image sent alongside the prompt.
	Image []byte
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}
