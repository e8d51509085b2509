package preprocess

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/lehigh-university-libraries/regionocr/internal/apperr"
)

// Image is a page image tagged with its channel layout. The only
// implementations are Gray and Color.
type Image interface {
	image.Image
	// Channels is 1 for Gray and 3 for Color.
	Channels() int
	// Std returns the underlying standard library image, suitable for
	// encoding without losing the channel layout.
	Std() image.Image
	sealed()
}

// Gray is a single-channel page image.
type Gray struct{ *image.Gray }

func (Gray) Channels() int { return 1 }
func (g Gray) Std() image.Image { return g.Gray }
func (Gray) sealed() {}
func (g Gray) width() int { return g.Rect.Dx() }
func (g Gray) height() int { return g.Rect.Dy() }
func (g Gray) at(x, y int) uint8 { return g.Pix[y*g.Stride+x] }
func (g Gray) set(x, y int, v uint8) { g.Pix[y*g.Stride+x] = v }

// Color is a three-channel page image. Alpha is carried along but never
// used as a working channel.
type Color struct{ *image.NRGBA }

func (Color) Channels() int { return 3 }
func (c Color) Std() image.Image { return c.NRGBA }
func (Color) sealed() {}

// NewGray returns a zeroed single-channel image of the given size.
func NewGray(width, height int) Gray {
	return Gray{image.NewGray(image.Rect(0, 0, width, height))}
}

// FromImage converts a decoded image into the pipeline representation.
// Grayscale sources become Gray, everything else Color. The result never
// shares pixels with img and always has its origin at (0, 0).
func FromImage(img image.Image) (Image, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, apperr.New(apperr.UnsupportedInput, "Image has no pixels.")
	}
	b := img.Bounds()
	switch src := img.(type) {
	case *image.Gray:
		dst := NewGray(b.Dx(), b.Dy())
		draw.Draw(dst.Gray, dst.Rect, src, b.Min, draw.Src)
		return dst, nil
	case Gray:
		return FromImage(src.Gray)
	case Color:
		return FromImage(src.NRGBA)
	default:
		return Color{imaging.Clone(img)}, nil
	}
}

// ToGray collapses img to a single channel using the luma weights
// 0.299, 0.587 and 0.114. Gray input is returned as is.
func ToGray(img Image) Gray {
	switch src := img.(type) {
	case Gray:
		return src
	case Color:
		return grayFromNRGBA(imaging.Grayscale(src.NRGBA))
	default:
		panic("preprocess: unknown image variant")
	}
}

// grayFromNRGBA packs the red channel of an already desaturated image.
func grayFromNRGBA(src *image.NRGBA) Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := NewGray(w, h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := range out {
			out[x] = row[x*4]
		}
	}
	return dst
}
