package rasterize

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePDF(t *testing.T, pages int) string {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 16)
	for i := 1; i <= pages; i++ {
		doc.AddPage()
		doc.Cell(40, 10, fmt.Sprintf("Page %d", i))
	}
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, doc.OutputFileAndClose(path))
	return path
}

func TestPageCount(t *testing.T) {
	n, err := PageCount(writePDF(t, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPageCountRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	_, err := PageCount(path)
	assert.Error(t, err)
}

func TestPageNumberOrdering(t *testing.T) {
	assert.Equal(t, 2, pageNumber("/tmp/raster-02.png"))
	assert.Equal(t, 10, pageNumber("/tmp/raster-10.png"))
	assert.Equal(t, 0, pageNumber("/tmp/other.png"))
}

func TestPdftoppmRasterize(t *testing.T) {
	p := NewPdftoppm("")
	if !p.Available() {
		t.Skip("pdftoppm not installed")
	}
	out := t.TempDir()

	paths, err := p.Rasterize(context.Background(), writePDF(t, 2), out, 36)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	f, err := os.Open(paths[0])
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	// A4 at 36 dpi is roughly 298×421.
	assert.InDelta(t, 298, img.Bounds().Dx(), 2)
	assert.InDelta(t, 421, img.Bounds().Dy(), 2)
}

func TestPdftoppmMissingBinary(t *testing.T) {
	p := NewPdftoppm(filepath.Join(t.TempDir(), "no-such-pdftoppm"))
	assert.False(t, p.Available())

	_, err := p.Rasterize(context.Background(), "x.pdf", t.TempDir(), 72)
	assert.Error(t, err)
}
