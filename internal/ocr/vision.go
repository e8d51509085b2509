package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/regionocr/internal/gemini"
	"github.com/lehigh-university-libraries/regionocr/internal/ollama"
	"github.com/lehigh-university-libraries/regionocr/internal/openai"
	"github.com/lehigh-university-libraries/regionocr/internal/providers"
)

const transcriptionPrompt = `Transcribe all text visible in this image exactly as written.
Language hint: %s.
Preserve the reading order. Do not add commentary, formatting, or explanations.
If the image contains no text, respond with nothing.`

// Vision recognizes text by asking a vision LLM to transcribe the image.
type Vision struct {
	name     string
	model    string
	provider providers.Provider
}

// NewVision builds a Vision engine for s.Provider.
func NewVision(s Settings) *Vision {
	name := strings.ToLower(s.Provider)
	model := s.Model
	if model == "" {
		model = defaultModel(name)
	}

	var p providers.Provider
	switch name {
	case "openai":
		p = openai.New(s.OpenAIAPIKey, s.OpenAIURL)
	case "gemini":
		p = gemini.New(s.GeminiAPIKey)
	default:
		name = "ollama"
		p = ollama.New(s.OllamaURL)
	}
	return newVision(name, model, p)
}

func newVision(name, model string, p providers.Provider) *Vision {
	return &Vision{name: name, model: model, provider: p}
}

func (v *Vision) Name() string { return v.name }

func (v *Vision) Recognize(ctx context.Context, img []byte, cfg Config) (string, error) {
	lang := cfg.Language
	if lang == "" {
		lang = "eng"
	}
	text, err := v.provider.ExtractText(ctx, providers.Config{
		Model:       v.model,
		Temperature: 0.0,
		Prompt:      fmt.Sprintf(transcriptionPrompt, lang),
		Image:       img,
	})
	if err != nil {
		return "", fmt.Errorf("%s transcription failed: %w", v.name, err)
	}
	return text, nil
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			return model
		}
		return "gpt-4o"
	case "gemini":
		if model := os.Getenv("GEMINI_MODEL"); model != "" {
			return model
		}
		return "gemini-1.5-flash"
	default:
		if model := os.Getenv("OLLAMA_MODEL"); model != "" {
			return model
		}
		return "mistral-small3.2:24b"
	}
}
