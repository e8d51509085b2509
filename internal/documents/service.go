// Package documents manages uploaded PDFs: rasterizing and cleaning their
// pages, serving page images and recognizing text in page regions.
package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/regionocr/internal/apperr"
	"github.com/lehigh-university-libraries/regionocr/internal/models"
	"github.com/lehigh-university-libraries/regionocr/internal/ocr"
	"github.com/lehigh-university-libraries/regionocr/internal/preprocess"
	"github.com/lehigh-university-libraries/regionocr/internal/rasterize"
	"github.com/lehigh-university-libraries/regionocr/internal/region"
	"github.com/lehigh-university-libraries/regionocr/internal/storage"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/image/draw"
)

const (
	pdfFilename = "document.pdf"
	rasterDir   = "raster"

	// Upload directories younger than this are never swept, so an upload
	// still rasterizing is not removed before its document is stored.
	sweepGrace = time.Hour
)

// Settings configures a Service.
type Settings struct {
	UploadDir         string
	DPI               int
	Workers           int
	UploadPreprocess  preprocess.Options
	OCR               ocr.Config
	PreprocessRegions bool
}

// Service handles document uploads and region OCR
type Service struct {
	settings   Settings
	store      storage.Store
	rasterizer rasterize.Rasterizer
	engine     ocr.Engine
	pool       *ants.Pool
	pageCount  func(pdfPath string) (int, error)
	now        func() time.Time
}

// NewService creates a Service with a worker pool of settings.Workers.
func NewService(settings Settings, store storage.Store, rasterizer rasterize.Rasterizer, engine ocr.Engine) (*Service, error) {
	workers := settings.Workers
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return &Service{
		settings:   settings,
		store:      store,
		rasterizer: rasterizer,
		engine:     engine,
		pool:       pool,
		pageCount:  rasterize.PageCount,
		now:        time.Now,
	}, nil
}

// Close releases the worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// Upload stores the PDF read from r, rasterizes and preprocesses every page
// and registers the document. On failure nothing is left on disk.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (doc *models.Document, err error) {
	id := uuid.NewString()
	dir := filepath.Join(s.settings.UploadDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.StorageFailed, "Failed to store PDF.", err)
	}
	defer func() {
		if err != nil {
			if rmErr := os.RemoveAll(dir); rmErr != nil {
				slog.Error("Failed to clean up upload", "pdf_id", id, "err", rmErr)
			}
		}
	}()

	pdfPath := filepath.Join(dir, pdfFilename)
	if err := writeFile(pdfPath, r); err != nil {
		return nil, apperr.Wrap(apperr.StorageFailed, "Failed to store PDF.", err)
	}

	pages, err := s.pageCount(pdfPath)
	if err != nil {
		return nil, apperr.Wrap(apperr.UnsupportedInput, "Invalid or unreadable PDF.", err)
	}

	rendered, err := s.rasterizer.Rasterize(ctx, pdfPath, filepath.Join(dir, rasterDir), s.settings.DPI)
	if err != nil {
		return nil, apperr.Wrap(apperr.RasterizeFailed, "Failed to convert PDF to images.", err)
	}
	if len(rendered) != pages {
		slog.Warn("Rasterizer page count differs from PDF", "pdf_id", id, "pdf_pages", pages, "rendered", len(rendered))
	}

	doc = &models.Document{
		ID:        id,
		Filename:  filename,
		PDFPath:   pdfPath,
		PageDir:   dir,
		Pages:     len(rendered),
		CreatedAt: s.now(),
	}

	if err := s.preparePages(ctx, doc, rendered); err != nil {
		return nil, apperr.Wrap(apperr.RasterizeFailed, "Failed to process page images.", err)
	}
	if err := os.RemoveAll(filepath.Join(dir, rasterDir)); err != nil {
		slog.Warn("Failed to remove raster output", "pdf_id", id, "err", err)
	}

	if err := s.store.Put(ctx, doc); err != nil {
		return nil, apperr.Wrap(apperr.StorageFailed, "Failed to register PDF.", err)
	}

	slog.Info("PDF uploaded", "pdf_id", id, "filename", filename, "pages", doc.Pages)
	return doc, nil
}

// preparePages preprocesses each rendered page on the worker pool and writes
// it as page_N.png.
func (s *Service) preparePages(ctx context.Context, doc *models.Document, rendered []string) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i, src := range rendered {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		page, src := i+1, src
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			if err := s.preparePage(src, doc.PagePath(page)); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("page %d: %w", page, err))
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, fmt.Errorf("page %d: %w", page, submitErr))
			mu.Unlock()
		}
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (s *Service) preparePage(src, dst string) error {
	raw, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("failed to decode page: %w", err)
	}
	img, err := preprocess.FromImage(raw)
	if err != nil {
		return err
	}
	out := preprocess.Preprocess(img, s.settings.UploadPreprocess)
	if err := imaging.Save(out.Std(), dst); err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}
	return nil
}

// Get returns the document registered under id.
func (s *Service) Get(ctx context.Context, id string) (*models.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.New(apperr.NotFound, "PDF not found.")
	}
	doc, err := s.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.New(apperr.NotFound, "PDF not found.")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageFailed, "Failed to look up PDF.", err)
	}
	return doc, nil
}

// PagePath returns the image path of a 1-based page after checking it exists.
func (s *Service) PagePath(ctx context.Context, id string, page int) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if page < 1 || page > doc.Pages {
		return "", apperr.New(apperr.InvalidPage, "Invalid page number.")
	}
	path := doc.PagePath(page)
	if _, err := os.Stat(path); err != nil {
		return "", apperr.Wrap(apperr.NotFound, "Image not found.", err)
	}
	return path, nil
}

// Preview returns the page scaled to width pixels wide as PNG. Pages already
// narrower than width are returned at their own size.
func (s *Service) Preview(ctx context.Context, id string, page, width int) ([]byte, error) {
	if width < 1 {
		return nil, apperr.New(apperr.UnsupportedInput, "Invalid preview width.")
	}
	path, err := s.PagePath(ctx, id, page)
	if err != nil {
		return nil, err
	}
	src, err := imaging.Open(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageFailed, "Failed to read page image.", err)
	}

	out := src
	if b := src.Bounds(); b.Dx() > width {
		height := b.Dy() * width / b.Dx()
		if height < 1 {
			height = 1
		}
		dst := image.NewNRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to encode preview.", err)
	}
	return buf.Bytes(), nil
}

// ExtractText recognizes the text inside the requested region of a stored
// page.
func (s *Service) ExtractText(ctx context.Context, req models.OCRRequest) (string, error) {
	box, err := region.FromSlice(req.BBox)
	if err != nil {
		return "", err
	}
	path, err := s.PagePath(ctx, req.PDFID, req.PageNumber)
	if err != nil {
		return "", err
	}
	page, err := imaging.Open(path)
	if err != nil {
		return "", apperr.Wrap(apperr.StorageFailed, "Failed to read page image.", err)
	}

	text, err := s.RecognizeRegion(ctx, page, box, req.Preprocess)
	if err != nil {
		return "", err
	}
	slog.Info("OCR complete", "pdf_id", req.PDFID, "page", req.PageNumber, "engine", s.engine.Name(), "chars", len(text))
	return text, nil
}

// RecognizeRegion crops page to box, optionally preprocesses the crop and
// returns the normalized text found in it.
func (s *Service) RecognizeRegion(ctx context.Context, page image.Image, box region.BoundingBox, opts preprocess.Options) (string, error) {
	crop, err := region.Crop(page, box)
	if err != nil {
		return "", err
	}

	if s.settings.PreprocessRegions {
		img, err := preprocess.FromImage(crop)
		if err != nil {
			return "", err
		}
		crop = preprocess.Preprocess(img, opts).Std()
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, crop); err != nil {
		return "", apperr.Wrap(apperr.Internal, "Failed to encode region.", err)
	}

	raw, err := s.engine.Recognize(ctx, buf.Bytes(), s.settings.OCR)
	if err != nil {
		return "", apperr.Wrap(apperr.OCRFailed, "OCR processing failed.", err)
	}
	return ocr.NormalizeText(raw), nil
}

// Delete unregisters the document and removes its files.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.StorageFailed, "Failed to delete PDF.", err)
	}
	if err := os.RemoveAll(doc.PageDir); err != nil {
		return apperr.Wrap(apperr.StorageFailed, "Failed to delete PDF files.", err)
	}
	slog.Info("PDF deleted", "pdf_id", id)
	return nil
}

// Sweep removes upload directories whose document has expired or been
// evicted from the store. It returns the number of directories removed.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.settings.UploadDir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list upload directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || s.now().Sub(info.ModTime()) < sweepGrace {
			continue
		}
		_, err = s.store.Get(ctx, entry.Name())
		if !errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.settings.UploadDir, entry.Name())); err != nil {
			slog.Warn("Failed to sweep upload", "dir", entry.Name(), "err", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		slog.Info("Swept expired uploads", "removed", removed)
	}
	return removed, nil
}

// Cleanup clears the store and deletes the upload directory.
func (s *Service) Cleanup(ctx context.Context) error {
	var errs []error
	if err := s.store.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := os.RemoveAll(s.settings.UploadDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove upload directory: %w", err))
	}
	return errors.Join(errs...)
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
