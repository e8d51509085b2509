// Package fetch downloads PDFs from remote URLs for upload.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/lehigh-university-libraries/regionocr/internal/apperr"
)

var pdfMagic = []byte("%PDF-")

// Fetcher retrieves PDFs over HTTP(S)
type Fetcher struct {
	HTTPClient *http.Client
	MaxBytes   int64
}

// NewFetcher creates a new PDF fetcher that refuses bodies over maxBytes
func NewFetcher(maxBytes int64) *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		MaxBytes: maxBytes,
	}
}

// Fetch downloads rawURL and returns the body and a filename derived from
// the URL path. The body must start with the PDF header.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, "", apperr.New(apperr.UnsupportedInput, "pdf_url must be an http or https URL.")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.UnsupportedInput, "Invalid pdf_url.", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.UnsupportedInput, "Failed to download PDF.", fmt.Errorf("failed to fetch PDF: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", apperr.Wrap(apperr.UnsupportedInput, "Failed to download PDF.",
			fmt.Errorf("PDF URL returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxBytes+1))
	if err != nil {
		return nil, "", apperr.Wrap(apperr.UnsupportedInput, "Failed to download PDF.", fmt.Errorf("failed to read PDF data: %w", err))
	}
	if int64(len(data)) > f.MaxBytes {
		return nil, "", apperr.New(apperr.UnsupportedInput, "File too large.")
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, "", apperr.New(apperr.UnsupportedInput, "Only PDF files are supported.")
	}

	filename := path.Base(u.Path)
	if filename == "/" || filename == "." {
		filename = "document.pdf"
	}
	return data, filename, nil
}
