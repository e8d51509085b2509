// Package export writes extracted region text as plain text, YAML or
// Parquet.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/regionocr/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Format names an output encoding.
type Format string

const (
	Text    Format = "text"
	YAML    Format = "yaml"
	Parquet Format = "parquet"
)

// FormatFor picks the format from a file extension; anything unrecognized
// is plain text.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	case ".parquet":
		return Parquet
	default:
		return Text
	}
}

// Write encodes rows to w in the given format.
func Write(w io.Writer, format Format, rows []models.RegionText) error {
	switch format {
	case YAML:
		return WriteYAML(w, rows)
	case Parquet:
		return WriteParquet(w, rows)
	default:
		return WriteText(w, rows)
	}
}

// WriteText prints one "page N: text" line per row.
func WriteText(w io.Writer, rows []models.RegionText) error {
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "page %d: %s\n", row.Page, row.Text); err != nil {
			return err
		}
	}
	return nil
}

func WriteYAML(w io.Writer, rows []models.RegionText) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

func WriteParquet(w io.Writer, rows []models.RegionText) error {
	writer := parquet.NewGenericWriter[models.RegionText](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// ReadParquet loads every row written by WriteParquet.
func ReadParquet(r io.ReaderAt, size int64) ([]models.RegionText, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	reader := parquet.NewGenericReader[models.RegionText](pf)
	defer reader.Close()

	rows := make([]models.RegionText, pf.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}
	return rows[:n], nil
}
