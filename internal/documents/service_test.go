package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/lehigh-university-libraries/regionocr/internal/apperr"
	"github.com/lehigh-university-libraries/regionocr/internal/models"
	"github.com/lehigh-university-libraries/regionocr/internal/ocr"
	"github.com/lehigh-university-libraries/regionocr/internal/preprocess"
	"github.com/lehigh-university-libraries/regionocr/internal/region"
	"github.com/lehigh-university-libraries/regionocr/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRasterizer writes one solid page image of the given size per page.
type fakeRasterizer struct {
	pages  int
	width  int
	height int
	err    error
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _, outDir string, _ int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	for i := 1; i <= f.pages; i++ {
		img := imaging.New(f.width, f.height, color.NRGBA{R: 240, G: 235, B: 220, A: 255})
		path := filepath.Join(outDir, fmt.Sprintf("raster-%d.png", i))
		if err := imaging.Save(img, path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

type fakeEngine struct {
	mu     sync.Mutex
	text   string
	err    error
	images [][]byte
	cfg    ocr.Config
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(_ context.Context, img []byte, cfg ocr.Config) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, img)
	f.cfg = cfg
	return f.text, f.err
}

func (f *fakeEngine) lastImage(t *testing.T) image.Image {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.images)
	img, err := png.Decode(bytes.NewReader(f.images[len(f.images)-1]))
	require.NoError(t, err)
	return img
}

type fixture struct {
	svc    *Service
	store  *storage.MemoryStore
	raster *fakeRasterizer
	engine *fakeEngine
	dir    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  storage.NewMemory(time.Hour, 10),
		raster: &fakeRasterizer{pages: 2, width: 100, height: 200},
		engine: &fakeEngine{text: "exam-\nple   text\n"},
		dir:    filepath.Join(t.TempDir(), "uploads"),
	}
	svc, err := NewService(Settings{
		UploadDir:        f.dir,
		DPI:              72,
		Workers:          2,
		UploadPreprocess: preprocess.UploadOptions(),
		OCR:              ocr.DefaultConfig(),
	}, f.store, f.raster, f.engine)
	require.NoError(t, err)
	svc.pageCount = func(string) (int, error) { return f.raster.pages, nil }
	t.Cleanup(svc.Close)
	f.svc = svc
	return f
}

func (f *fixture) upload(t *testing.T) *models.Document {
	t.Helper()
	doc, err := f.svc.Upload(context.Background(), "scan.pdf", strings.NewReader("%PDF-1.4 fake"))
	require.NoError(t, err)
	return doc
}

func TestUploadStoresPages(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)

	assert.Equal(t, 2, doc.Pages)
	assert.Equal(t, "scan.pdf", doc.Filename)
	assert.FileExists(t, doc.PDFPath)
	assert.NoDirExists(t, filepath.Join(doc.PageDir, rasterDir))

	for page := 1; page <= 2; page++ {
		img, err := imaging.Open(doc.PagePath(page))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 100, 200), img.Bounds())
		_, isGray := img.(*image.Gray)
		assert.True(t, isGray, "upload options convert pages to grayscale")
	}

	stored, err := f.store.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Pages, stored.Pages)
}

func TestUploadRasterizeFailureCleansUp(t *testing.T) {
	f := newFixture(t)
	f.raster.err = errors.New("pdftoppm exploded")

	_, err := f.svc.Upload(context.Background(), "scan.pdf", strings.NewReader("%PDF"))
	require.Error(t, err)
	assert.Equal(t, apperr.RasterizeFailed, apperr.CodeOf(err))

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 0, f.store.Len())
}

func TestUploadRejectsUnreadablePDF(t *testing.T) {
	f := newFixture(t)
	f.svc.pageCount = func(string) (int, error) { return 0, errors.New("not a PDF file") }

	_, err := f.svc.Upload(context.Background(), "scan.pdf", strings.NewReader("hello"))
	assert.Equal(t, apperr.UnsupportedInput, apperr.CodeOf(err))

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPagePathValidation(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)
	ctx := context.Background()

	path, err := f.svc.PagePath(ctx, doc.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, doc.PagePath(2), path)

	_, err = f.svc.PagePath(ctx, doc.ID, 0)
	assert.Equal(t, apperr.InvalidPage, apperr.CodeOf(err))
	_, err = f.svc.PagePath(ctx, doc.ID, 3)
	assert.Equal(t, apperr.InvalidPage, apperr.CodeOf(err))

	_, err = f.svc.PagePath(ctx, "00000000-0000-0000-0000-000000000000", 1)
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))
	_, err = f.svc.PagePath(ctx, "../../etc", 1)
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))

	require.NoError(t, os.Remove(doc.PagePath(1)))
	_, err = f.svc.PagePath(ctx, doc.ID, 1)
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)

	data, err := f.svc.Preview(context.Background(), doc.ID, 1, 50)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 50, 100), img.Bounds())

	data, err = f.svc.Preview(context.Background(), doc.ID, 1, 500)
	require.NoError(t, err)
	img, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())

	_, err = f.svc.Preview(context.Background(), doc.ID, 1, 0)
	assert.Equal(t, apperr.UnsupportedInput, apperr.CodeOf(err))
}

func TestExtractText(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)

	text, err := f.svc.ExtractText(context.Background(), models.OCRRequest{
		PDFID:      doc.ID,
		PageNumber: 1,
		BBox:       []float64{10, 20, 50, 60},
		Preprocess: preprocess.DefaultOptions(),
	})
	require.NoError(t, err)

	assert.Equal(t, "example text", text)
	assert.Equal(t, image.Rect(0, 0, 40, 80), f.engine.lastImage(t).Bounds())
	assert.Equal(t, ocr.DefaultConfig(), f.engine.cfg)
}

func TestExtractTextErrors(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)
	ctx := context.Background()

	_, err := f.svc.ExtractText(ctx, models.OCRRequest{PDFID: doc.ID, PageNumber: 1, BBox: []float64{50, 20, 10, 60}})
	assert.Equal(t, apperr.InvalidBoundingBox, apperr.CodeOf(err))

	_, err = f.svc.ExtractText(ctx, models.OCRRequest{PDFID: doc.ID, PageNumber: 1, BBox: []float64{1, 2}})
	assert.Equal(t, apperr.InvalidBoundingBox, apperr.CodeOf(err))

	_, err = f.svc.ExtractText(ctx, models.OCRRequest{PDFID: doc.ID, PageNumber: 9, BBox: []float64{0, 0, 10, 10}})
	assert.Equal(t, apperr.InvalidPage, apperr.CodeOf(err))

	f.engine.err = errors.New("tesseract crashed")
	_, err = f.svc.ExtractText(ctx, models.OCRRequest{PDFID: doc.ID, PageNumber: 1, BBox: []float64{0, 0, 10, 10}})
	assert.Equal(t, apperr.OCRFailed, apperr.CodeOf(err))
}

func TestRecognizeRegionPreprocessing(t *testing.T) {
	f := newFixture(t)
	f.svc.settings.PreprocessRegions = true
	page := imaging.New(100, 100, color.NRGBA{R: 200, G: 10, B: 10, A: 255})

	_, err := f.svc.RecognizeRegion(context.Background(), page, region100(), preprocess.Options{Grayscale: true})
	require.NoError(t, err)

	_, isGray := f.engine.lastImage(t).(*image.Gray)
	assert.True(t, isGray)

	f.svc.settings.PreprocessRegions = false
	_, err = f.svc.RecognizeRegion(context.Background(), page, region100(), preprocess.Options{Grayscale: true})
	require.NoError(t, err)
	_, isGray = f.engine.lastImage(t).(*image.Gray)
	assert.False(t, isGray, "region is sent verbatim unless region preprocessing is enabled")
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Delete(ctx, doc.ID))
	assert.NoDirExists(t, doc.PageDir)
	_, err := f.svc.Get(ctx, doc.ID)
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))

	err = f.svc.Delete(ctx, doc.ID)
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))
}

func TestSweepRemovesOrphans(t *testing.T) {
	f := newFixture(t)
	kept := f.upload(t)
	orphan := f.upload(t)
	ctx := context.Background()
	require.NoError(t, f.store.Delete(ctx, orphan.ID))

	removed, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed, "fresh directories are within the grace period")

	f.svc.now = func() time.Time { return time.Now().Add(2 * sweepGrace) }
	removed, err = f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.DirExists(t, kept.PageDir)
	assert.NoDirExists(t, orphan.PageDir)
}

func TestCleanup(t *testing.T) {
	f := newFixture(t)
	f.upload(t)

	require.NoError(t, f.svc.Cleanup(context.Background()))
	assert.NoDirExists(t, f.dir)
	assert.Equal(t, 0, f.store.Len())
}

func region100() region.BoundingBox {
	return region.BoundingBox{0, 0, 100, 100}
}
