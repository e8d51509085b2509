package preprocess

import (
	"image"
	"math"
	"sort"
)

// point is a pixel location in row/column order.
type point struct{ r, c float64 }

// Deskew estimates the rotation of the foreground (non-zero pixels of the
// gray view) and rotates img about its centre to undo it. An image with no
// foreground is returned unchanged.
func Deskew(img Image) Image {
	gray := ToGray(img)
	pts := foregroundExtremes(gray)
	if len(pts) == 0 {
		return img
	}
	angle := correctionAngle(minAreaRectAngle(convexHull(pts)))
	if angle == 0 {
		return img
	}
	return Rotate(img, angle)
}

// foregroundExtremes returns, for each row, the leftmost and rightmost
// non-zero pixel. Their convex hull equals the hull of all non-zero pixels.
// Points come out sorted by row, then column.
func foregroundExtremes(g Gray) []point {
	w, h := g.width(), g.height()
	var pts []point
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		first, last := -1, -1
		for x, v := range row {
			if v > 0 {
				if first < 0 {
					first = x
				}
				last = x
			}
		}
		if first < 0 {
			continue
		}
		pts = append(pts, point{float64(y), float64(first)})
		if last != first {
			pts = append(pts, point{float64(y), float64(last)})
		}
	}
	return pts
}

func cross(o, a, b point) float64 {
	return (a.r-o.r)*(b.c-o.c) - (a.c-o.c)*(b.r-o.r)
}

// convexHull is Andrew's monotone chain. It returns the hull in
// counter-clockwise order without repeating the first point.
func convexHull(pts []point) []point {
	if !sort.SliceIsSorted(pts, func(i, j int) bool { return less(pts[i], pts[j]) }) {
		sorted := append([]point(nil), pts...)
		sort.Slice(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
		pts = sorted
	}
	if len(pts) < 3 {
		return pts
	}
	hull := make([]point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

func less(a, b point) bool {
	if a.r != b.r {
		return a.r < b.r
	}
	return a.c < b.c
}

// minAreaRectAngle finds the minimum-area rectangle enclosing the hull with
// rotating calipers and returns the orientation of its sides in degrees,
// folded into [-90, 0). A hull without edges reports -90 (axis aligned).
func minAreaRectAngle(hull []point) float64 {
	if len(hull) < 2 {
		return -90
	}
	bestArea := math.Inf(1)
	bestTheta := 0.0
	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		er, ec := b.r-a.r, b.c-a.c
		norm := math.Hypot(er, ec)
		if norm == 0 {
			continue
		}
		er, ec = er/norm, ec/norm
		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			u := p.r*er + p.c*ec
			v := -p.r*ec + p.c*er
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}
		if area := (maxU - minU) * (maxV - minV); area < bestArea {
			bestArea = area
			bestTheta = math.Atan2(ec, er) * 180 / math.Pi
		}
	}
	folded := math.Mod(bestTheta, 90)
	if folded < 0 {
		folded += 90
	}
	if folded > 90-1e-9 {
		folded = 0
	}
	return folded - 90
}

// correctionAngle maps a rectangle angle in [-90, 0) onto the rotation that
// straightens the content, in (-45, 45].
func correctionAngle(rectAngle float64) float64 {
	if rectAngle < -45 {
		return -(90 + rectAngle)
	}
	return -rectAngle
}

// Rotate turns img counter-clockwise by angle degrees about the pixel
// (w/2, h/2) using bicubic interpolation. Samples outside the source repeat
// the nearest edge pixel. The channel layout is preserved.
func Rotate(img Image, angle float64) Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	cx, cy := float64(w/2), float64(h/2)
	rad := angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	srcAt := func(x, y int) (float64, float64) {
		dx, dy := float64(x)-cx, float64(y)-cy
		return cos*dx - sin*dy + cx, sin*dx + cos*dy + cy
	}

	switch src := img.(type) {
	case Gray:
		dst := NewGray(w, h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				sx, sy := srcAt(x, y)
				v := bicubic(sx, sy, w, h, func(px, py int) float64 { return float64(src.at(px, py)) })
				dst.set(x, y, saturate(math.Round(v)))
			}
		}
		return dst
	case Color:
		dst := Color{image.NewNRGBA(image.Rect(0, 0, w, h))}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				sx, sy := srcAt(x, y)
				o := y*dst.Stride + x*4
				for ch := 0; ch < 4; ch++ {
					v := bicubic(sx, sy, w, h, func(px, py int) float64 {
						return float64(src.Pix[py*src.Stride+px*4+ch])
					})
					dst.Pix[o+ch] = saturate(math.Round(v))
				}
			}
		}
		return dst
	default:
		panic("preprocess: unknown image variant")
	}
}

const cubicA = -0.75

func cubicWeight(t float64) float64 {
	t = math.Abs(t)
	switch {
	case t <= 1:
		return ((cubicA+2)*t-(cubicA+3))*t*t + 1
	case t < 2:
		return ((cubicA*t-5*cubicA)*t+8*cubicA)*t - 4*cubicA
	default:
		return 0
	}
}

func bicubic(sx, sy float64, w, h int, at func(x, y int) float64) float64 {
	x0, y0 := int(math.Floor(sx)), int(math.Floor(sy))
	fx, fy := sx-float64(x0), sy-float64(y0)
	var sum float64
	for j := -1; j <= 2; j++ {
		wy := cubicWeight(float64(j) - fy)
		if wy == 0 {
			continue
		}
		py := clampInt(y0+j, 0, h-1)
		var row float64
		for i := -1; i <= 2; i++ {
			wx := cubicWeight(float64(i) - fx)
			if wx == 0 {
				continue
			}
			row += wx * at(clampInt(x0+i, 0, w-1), py)
		}
		sum += wy * row
	}
	return sum
}
