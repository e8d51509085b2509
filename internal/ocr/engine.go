// Package ocr recognizes text in region images using either a local
// Tesseract engine or a vision-capable LLM provider.
package ocr

import (
	"context"
	"fmt"
	"strings"
)

// Config holds per-call engine settings.
type Config struct {
	Language    string
	PageSegMode int
}

// DefaultConfig treats the region as a single uniform block of English text.
func DefaultConfig() Config {
	return Config{Language: "eng", PageSegMode: 6}
}

// Engine recognizes text in a PNG-encoded image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img []byte, cfg Config) (string, error)
}

// Settings selects and configures an Engine.
type Settings struct {
	Provider     string
	Model        string
	OllamaURL    string
	OpenAIURL    string
	OpenAIAPIKey string
	GeminiAPIKey string
}

// NewEngine returns the engine for settings.Provider. An empty provider
// selects tesseract.
func NewEngine(s Settings) (Engine, error) {
	switch strings.ToLower(s.Provider) {
	case "", "tesseract":
		return NewTesseract(), nil
	case "ollama", "openai", "gemini":
		return NewVision(s), nil
	default:
		return nil, fmt.Errorf("unsupported OCR provider: %s", s.Provider)
	}
}
