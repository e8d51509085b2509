package preprocess

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tiltedBar draws a white 120×20 bar centred in a black canvas whose long
// axis descends to the right by tilt degrees.
func tiltedBar(size int, tilt float64) Gray {
	g := NewGray(size, size)
	rad := tilt * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	c := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			u := dx*cos + dy*sin
			v := -dx*sin + dy*cos
			if math.Abs(u) <= 60 && math.Abs(v) <= 10 {
				g.set(x, y, 255)
			}
		}
	}
	return g
}

func skewOf(g Gray) float64 {
	return correctionAngle(minAreaRectAngle(convexHull(foregroundExtremes(g))))
}

func TestSkewEstimate(t *testing.T) {
	tests := []struct {
		name string
		tilt float64
	}{
		{"descending", 5},
		{"ascending", -5},
		{"steeper", 12},
		{"level", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := skewOf(tiltedBar(200, tt.tilt))
			assert.InDelta(t, tt.tilt, got, 1.0)
		})
	}
}

func TestDeskewStraightensBar(t *testing.T) {
	tilted := tiltedBar(200, 6)

	out := Deskew(tilted)

	gray, ok := out.(Gray)
	require.True(t, ok)
	assert.InDelta(t, 0, skewOf(thresholdAt(gray, 128)), 1.5)
}

func thresholdAt(g Gray, level uint8) Gray {
	dst := NewGray(g.width(), g.height())
	for i, v := range g.Pix {
		if v >= level {
			dst.Pix[i] = 255
		}
	}
	return dst
}

func TestDeskewBlankImageIsNoop(t *testing.T) {
	blank := NewGray(50, 40)

	out := Deskew(blank)

	assert.Equal(t, blank, out)
}

func TestDeskewBlankColorIsNoop(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 255
	}
	img, err := FromImage(src)
	require.NoError(t, err)

	out := Preprocess(img, Options{Deskew: true})

	require.Equal(t, 3, out.Channels())
	assert.Equal(t, src.Pix, out.(Color).Pix)
}

func TestCorrectionAngle(t *testing.T) {
	tests := []struct {
		rect float64
		want float64
	}{
		{-90, 0},
		{-85, -5},
		{-45, 45},
		{-5, 5},
		{-60, -30},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, correctionAngle(tt.rect), 1e-9, "rect angle %v", tt.rect)
	}
}

func TestRotateZeroIsIdentity(t *testing.T) {
	g := tiltedBar(40, 10)

	out := Rotate(g, 0).(Gray)

	assert.Equal(t, g.Pix, out.Pix)
}

func TestRotatePreservesColor(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 30, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 30; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 8), G: 100, B: uint8(y * 10), A: 255})
		}
	}
	img, err := FromImage(src)
	require.NoError(t, err)

	out := Rotate(img, 7)

	assert.Equal(t, 3, out.Channels())
	assert.Equal(t, img.Bounds(), out.Bounds())
	// Replicated borders keep the canvas opaque.
	for i := 3; i < len(out.(Color).Pix); i += 4 {
		require.Equal(t, uint8(255), out.(Color).Pix[i])
	}
}

func TestConvexHullSquare(t *testing.T) {
	pts := []point{{0, 0}, {0, 4}, {2, 2}, {4, 0}, {4, 4}, {1, 3}}

	hull := convexHull(pts)

	assert.Len(t, hull, 4)
	assert.InDelta(t, -90, minAreaRectAngle(hull), 1e-9)
}
