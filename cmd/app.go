package cmd

import (
	"context"
	"fmt"

	"github.com/lehigh-university-libraries/regionocr/internal/config"
	"github.com/lehigh-university-libraries/regionocr/internal/documents"
	"github.com/lehigh-university-libraries/regionocr/internal/ocr"
	"github.com/lehigh-university-libraries/regionocr/internal/rasterize"
	"github.com/lehigh-university-libraries/regionocr/internal/storage"
)

// newDocumentService wires the store, rasterizer and OCR engine named in cfg.
func newDocumentService(ctx context.Context, cfg config.Config) (*documents.Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := storage.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, err
	}

	engine, err := ocr.NewEngine(cfg.EngineSettings())
	if err != nil {
		return nil, err
	}

	rasterizer := rasterize.NewPdftoppm(cfg.PdftoppmPath)
	if !rasterizer.Available() {
		return nil, fmt.Errorf("pdftoppm not found at %q; install poppler-utils or set PDFTOPPM_PATH", rasterizer.Path)
	}

	svc, err := documents.NewService(documents.Settings{
		UploadDir:         cfg.UploadDir,
		DPI:               cfg.DPI,
		Workers:           cfg.Workers,
		UploadPreprocess:  cfg.UploadPreprocess,
		OCR:               cfg.RecognizeConfig(),
		PreprocessRegions: cfg.OCR.PreprocessRegions,
	}, store, rasterizer, engine)
	if err != nil {
		return nil, err
	}
	return svc, nil
}
