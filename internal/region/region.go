// Package region turns a percentage bounding box into a pixel rectangle and
// crops page images to it.
package region

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lehigh-university-libraries/regionocr/internal/apperr"
)

const invalidBoxMessage = "Invalid bounding box."

// BoundingBox is [x1, y1, x2, y2], each a percentage (0-100) of the page
// width or height.
type BoundingBox [4]float64

// FromSlice validates the length of a decoded bbox list.
func FromSlice(v []float64) (BoundingBox, error) {
	var b BoundingBox
	if len(v) != len(b) {
		return b, apperr.Wrap(apperr.InvalidBoundingBox, invalidBoxMessage,
			fmt.Errorf("expected 4 coordinates, got %d", len(v)))
	}
	copy(b[:], v)
	return b, nil
}

// Rect scales the box against a width×height image. Coordinates are
// truncated toward zero. The rectangle must be non-empty, correctly ordered
// and inside the image.
func (b BoundingBox) Rect(width, height int) (image.Rectangle, error) {
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return image.Rectangle{}, apperr.Wrap(apperr.InvalidBoundingBox, invalidBoxMessage,
				fmt.Errorf("non-finite coordinate in %v", b))
		}
	}
	x1 := int(b[0] / 100 * float64(width))
	y1 := int(b[1] / 100 * float64(height))
	x2 := int(b[2] / 100 * float64(width))
	y2 := int(b[3] / 100 * float64(height))

	if x1 < 0 || y1 < 0 || x2 > width || y2 > height {
		return image.Rectangle{}, apperr.Wrap(apperr.InvalidBoundingBox, invalidBoxMessage,
			fmt.Errorf("box (%d,%d)-(%d,%d) outside %dx%d image", x1, y1, x2, y2, width, height))
	}
	if x1 >= x2 || y1 >= y2 {
		return image.Rectangle{}, apperr.Wrap(apperr.InvalidBoundingBox, invalidBoxMessage,
			fmt.Errorf("box (%d,%d)-(%d,%d) is empty or inverted", x1, y1, x2, y2))
	}
	// Not image.Rect: it would silently reorder inverted corners.
	return image.Rectangle{Min: image.Point{X: x1, Y: y1}, Max: image.Point{X: x2, Y: y2}}, nil
}

// Crop returns the part of img selected by b, with its origin at (0, 0).
func Crop(img image.Image, b BoundingBox) (image.Image, error) {
	size := img.Bounds().Size()
	rect, err := b.Rect(size.X, size.Y)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, rect.Add(img.Bounds().Min)), nil
}
