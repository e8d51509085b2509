// Package config loads service settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/regionocr/internal/ocr"
	"github.com/lehigh-university-libraries/regionocr/internal/preprocess"
	"github.com/lehigh-university-libraries/regionocr/internal/storage"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr             string             `yaml:"addr"`
	UploadDir        string             `yaml:"upload_dir"`
	MaxUploadBytes   int64              `yaml:"max_upload_bytes"`
	DPI              int                `yaml:"dpi"`
	PdftoppmPath     string             `yaml:"pdftoppm_path"`
	Workers          int                `yaml:"workers"`
	CORSOrigins      []string           `yaml:"cors_origins"`
	Store            StoreConfig        `yaml:"store"`
	OCR              OCRConfig          `yaml:"ocr"`
	UploadPreprocess preprocess.Options `yaml:"upload_preprocess"`
}

type StoreConfig struct {
	Backend       string        `yaml:"backend"`
	TTL           time.Duration `yaml:"ttl"`
	MaxEntries    int           `yaml:"max_entries"`
	RedisURL      string        `yaml:"redis_url"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type OCRConfig struct {
	Provider          string `yaml:"provider"`
	Language          string `yaml:"language"`
	PageSegMode       int    `yaml:"page_seg_mode"`
	Model             string `yaml:"model"`
	OllamaURL         string `yaml:"ollama_url"`
	OpenAIURL         string `yaml:"openai_url"`
	OpenAIAPIKey      string `yaml:"openai_api_key"`
	GeminiAPIKey      string `yaml:"gemini_api_key"`
	PreprocessRegions bool   `yaml:"preprocess_regions"`
}

// Default returns the built-in settings.
func Default() Config {
	ocrDefaults := ocr.DefaultConfig()
	return Config{
		Addr:           ":8000",
		UploadDir:      "uploads",
		MaxUploadBytes: 50 << 20,
		DPI:            300,
		PdftoppmPath:   "pdftoppm",
		Workers:        4,
		Store: StoreConfig{
			Backend:       "memory",
			TTL:           24 * time.Hour,
			MaxEntries:    1000,
			SweepInterval: 10 * time.Minute,
		},
		OCR: OCRConfig{
			Provider:    "tesseract",
			Language:    ocrDefaults.Language,
			PageSegMode: ocrDefaults.PageSegMode,
		},
		UploadPreprocess: preprocess.UploadOptions(),
	}
}

// Load reads path (if non-empty) over the defaults and then applies
// environment overrides. The result is not validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	setString(&c.Addr, "REGIONOCR_ADDR")
	setString(&c.UploadDir, "UPLOAD_DIR")
	setString(&c.PdftoppmPath, "PDFTOPPM_PATH")
	setString(&c.Store.Backend, "STORE_BACKEND")
	setString(&c.Store.RedisURL, "REDIS_URL")
	setString(&c.OCR.Provider, "OCR_PROVIDER")
	setString(&c.OCR.Model, "OCR_MODEL")
	setString(&c.OCR.OllamaURL, "OLLAMA_URL")
	setString(&c.OCR.OpenAIURL, "OPENAI_BASE_URL")
	setString(&c.OCR.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.OCR.GeminiAPIKey, "GEMINI_API_KEY")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.CORSOrigins = append(c.CORSOrigins, origin)
			}
		}
	}

	var errs []error
	errs = append(errs, setInt(&c.DPI, "RASTER_DPI"), setInt(&c.Workers, "WORKERS"))
	if v := os.Getenv("STORE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("STORE_TTL: %w", err))
		} else {
			c.Store.TTL = d
		}
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.UploadDir == "" {
		errs = append(errs, errors.New("upload_dir must not be empty"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max_upload_bytes must be positive"))
	}
	if c.DPI < 36 || c.DPI > 2400 {
		errs = append(errs, fmt.Errorf("dpi %d out of range 36-2400", c.DPI))
	}
	if c.Workers < 1 {
		errs = append(errs, errors.New("workers must be at least 1"))
	}
	switch c.Store.Backend {
	case "memory":
	case "redis":
		if c.Store.RedisURL == "" {
			errs = append(errs, errors.New("store.redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if c.Store.TTL < 0 {
		errs = append(errs, errors.New("store.ttl must not be negative"))
	}
	switch c.OCR.Provider {
	case "tesseract", "ollama", "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("unknown ocr provider %q", c.OCR.Provider))
	}
	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
		errs = append(errs, fmt.Errorf("ocr.page_seg_mode %d out of range 0-13", c.OCR.PageSegMode))
	}
	return errors.Join(errs...)
}

// StoreOptions converts the store section for storage.Open.
func (c Config) StoreOptions() storage.Options {
	return storage.Options{
		Backend:    c.Store.Backend,
		TTL:        c.Store.TTL,
		MaxEntries: c.Store.MaxEntries,
		RedisURL:   c.Store.RedisURL,
	}
}

// EngineSettings converts the ocr section for ocr.NewEngine.
func (c Config) EngineSettings() ocr.Settings {
	return ocr.Settings{
		Provider:     c.OCR.Provider,
		Model:        c.OCR.Model,
		OllamaURL:    c.OCR.OllamaURL,
		OpenAIURL:    c.OCR.OpenAIURL,
		OpenAIAPIKey: c.OCR.OpenAIAPIKey,
		GeminiAPIKey: c.OCR.GeminiAPIKey,
	}
}

// RecognizeConfig returns the per-call recognition settings.
func (c Config) RecognizeConfig() ocr.Config {
	return ocr.Config{Language: c.OCR.Language, PageSegMode: c.OCR.PageSegMode}
}
