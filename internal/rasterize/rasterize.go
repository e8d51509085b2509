// Package rasterize renders PDF pages to PNG files with an external
// rasterizer and reads page counts for validation.
package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Rasterizer renders every page of a PDF into outDir and returns the image
// paths in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error)
}

// Pdftoppm shells out to poppler's pdftoppm.
type Pdftoppm struct {
	Path string
}

// NewPdftoppm returns a Pdftoppm using the binary at path, or "pdftoppm" from
// PATH when empty.
func NewPdftoppm(path string) *Pdftoppm {
	if path == "" {
		path = "pdftoppm"
	}
	return &Pdftoppm{Path: path}
}

// Available reports whether the binary can be found.
func (p *Pdftoppm) Available() bool {
	_, err := exec.LookPath(p.Path)
	return err == nil
}

var pageSuffix = regexp.MustCompile(`-(\d+)\.png$`)

const outputPrefix = "raster"

func (p *Pdftoppm) Rasterize(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	prefix := filepath.Join(outDir, outputPrefix)
	cmd := exec.CommandContext(ctx, p.Path, "-r", strconv.Itoa(dpi), "-png", pdfPath, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	slog.Debug("Rasterizing PDF", "pdf", pdfPath, "dpi", dpi)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages for %s", pdfPath)
	}

	// pdftoppm zero-pads page numbers to the width of the page count, so sort
	// numerically rather than lexically.
	sort.Slice(matches, func(i, j int) bool {
		return pageNumber(matches[i]) < pageNumber(matches[j])
	})
	return matches, nil
}

func pageNumber(path string) int {
	m := pageSuffix.FindStringSubmatch(path)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// PageCount opens the PDF and returns its number of pages.
func PageCount(pdfPath string) (n int, err error) {
	// ledongthuc/pdf panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("failed to read PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()
	n = r.NumPage()
	if n <= 0 {
		return 0, fmt.Errorf("PDF has no pages")
	}
	return n, nil
}
