// Package preprocess implements the image cleanup that runs ahead of OCR:
// grayscale conversion, median denoising, adaptive Gaussian thresholding,
// skew correction and contrast enhancement, in that order.
//
// Every stage returns a new image; inputs are never modified, so a pipeline
// run may share its input with concurrent callers.
package preprocess

import "encoding/json"

// Options toggles the individual pipeline stages.
type Options struct {
	Grayscale bool `json:"grayscale" yaml:"grayscale"`
	Denoise   bool `json:"denoise" yaml:"denoise"`
	Threshold bool `json:"threshold" yaml:"threshold"`
	Deskew    bool `json:"deskew" yaml:"deskew"`
	Contrast  bool `json:"contrast" yaml:"contrast"`
}

// DefaultOptions enables every stage.
func DefaultOptions() Options {
	return Options{
		Grayscale: true,
		Denoise:   true,
		Threshold: true,
		Deskew:    true,
		Contrast:  true,
	}
}

// UploadOptions is applied to every page when a PDF is uploaded. Threshold
// and deskew are left to the caller so the stored pages stay readable.
func UploadOptions() Options {
	return Options{
		Grayscale: true,
		Denoise:   true,
		Contrast:  true,
	}
}

// UnmarshalJSON leaves flags missing from the payload enabled.
func (o *Options) UnmarshalJSON(data []byte) error {
	type plain Options
	opts := plain(DefaultOptions())
	if err := json.Unmarshal(data, &opts); err != nil {
		return err
	}
	*o = Options(opts)
	return nil
}

// Preprocess runs the enabled stages over img and returns the result, which
// always has the dimensions of img. Its channel layout is whatever the last
// stage produced: Gray as soon as any of grayscale, denoise or threshold ran,
// otherwise the layout of img.
//
// Denoise and threshold operate on a single channel and convert Color input
// first, so either of them forces the rest of the run onto the Gray path.
func Preprocess(img Image, opts Options) Image {
	cur := img
	if opts.Grayscale {
		cur = ToGray(cur)
	}
	if opts.Denoise {
		cur = MedianBlur(ToGray(cur))
	}
	if opts.Threshold {
		cur = AdaptiveThreshold(ToGray(cur))
	}
	if opts.Deskew {
		cur = Deskew(cur)
	}
	if opts.Contrast {
		cur = EnhanceContrast(cur)
	}
	return cur
}
