package models

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/regionocr/internal/preprocess"
)

// Document represents an uploaded PDF and its rasterized pages
type Document struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	PDFPath   string    `json:"pdf_path"`
	PageDir   string    `json:"page_dir"`
	Pages     int       `json:"pages"`
	CreatedAt time.Time `json:"created_at"`
}

// PagePath returns the path of the 1-based page image
func (d *Document) PagePath(page int) string {
	return filepath.Join(d.PageDir, fmt.Sprintf("page_%d.png", page))
}

// PDFUploadResponse is returned by the upload endpoint
type PDFUploadResponse struct {
	PDFID string `json:"pdf_id"`
	Pages int    `json:"pages"`
}

// OCRRequest selects a region of a page to recognize
type OCRRequest struct {
	PDFID      string             `json:"pdf_id"`
	PageNumber int                `json:"page_number"`
	BBox       []float64          `json:"bbox"`
	Preprocess preprocess.Options `json:"preprocess"`
}

// OCRResponse carries the normalized text of a region
type OCRResponse struct {
	Text string `json:"text"`
}

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// RegionText is one row of extracted region text, used for exports
type RegionText struct {
	Page int       `json:"page" yaml:"page" parquet:"page"`
	BBox []float64 `json:"bbox" yaml:"bbox" parquet:"bbox,list"`
	Text string    `json:"text" yaml:"text" parquet:"text"`
}
