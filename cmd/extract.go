package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/regionocr/internal/export"
	"github.com/lehigh-university-libraries/regionocr/internal/models"
	"github.com/lehigh-university-libraries/regionocr/internal/preprocess"
	"github.com/spf13/cobra"
)

func newExtractCmd(opts *rootOptions) *cobra.Command {
	var (
		bbox   []float64
		pages  []int
		output string
	)

	cmd := &cobra.Command{
		Use:   "extract PDF",
		Short: "OCR the same region on pages of a PDF",
		Long: `Rasterizes a PDF with the configured settings and recognizes the text inside
one bounding box on each selected page.

The bounding box is x1,y1,x2,y2 in percent of the page width and height.
Results go to stdout as text, or to --output as YAML (.yaml) or Parquet (.parquet).`,
		Example: `  # Header band of every page
  regionocr extract report.pdf --bbox 0,0,100,10

  # Pages 1 and 3 to Parquet
  regionocr extract report.pdf --bbox 10,20,50,60 --pages 1,3 --output regions.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			workDir, err := os.MkdirTemp("", "regionocr-extract-")
			if err != nil {
				return fmt.Errorf("failed to create work directory: %w", err)
			}
			defer os.RemoveAll(workDir)
			cfg.UploadDir = workDir
			cfg.Store.Backend = "memory"

			ctx := cmd.Context()
			svc, err := newDocumentService(ctx, cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open PDF: %w", err)
			}
			doc, err := svc.Upload(ctx, filepath.Base(args[0]), f)
			f.Close()
			if err != nil {
				return err
			}

			selected := pages
			if len(selected) == 0 {
				for p := 1; p <= doc.Pages; p++ {
					selected = append(selected, p)
				}
			}

			rows := make([]models.RegionText, 0, len(selected))
			for _, page := range selected {
				text, err := svc.ExtractText(ctx, models.OCRRequest{
					PDFID:      doc.ID,
					PageNumber: page,
					BBox:       bbox,
					Preprocess: preprocess.DefaultOptions(),
				})
				if err != nil {
					return fmt.Errorf("page %d: %w", page, err)
				}
				rows = append(rows, models.RegionText{Page: page, BBox: bbox, Text: text})
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				out, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer out.Close()
				w = out
			}
			if err := export.Write(w, export.FormatFor(output), rows); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d regions to %s\n", len(rows), output)
			}
			return nil
		},
	}

	cmd.Flags().Float64SliceVar(&bbox, "bbox", nil, "Region as x1,y1,x2,y2 percentages (required)")
	cmd.Flags().IntSliceVar(&pages, "pages", nil, "Pages to process (default all)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file; format from extension (.yaml, .parquet, otherwise text)")
	_ = cmd.MarkFlagRequired("bbox")

	return cmd
}
