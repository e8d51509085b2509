package preprocess

import (
	"math"

	"github.com/disintegration/imaging"
)

const (
	medianKernel    = 3
	thresholdWindow = 31
	thresholdOffset = 2
	contrastFactor  = 1.5
)

// MedianBlur replaces every pixel with the median of its 3×3 neighbourhood.
// Pixels beyond the edge repeat the nearest edge pixel.
func MedianBlur(src Gray) Gray {
	w, h := src.width(), src.height()
	dst := NewGray(w, h)
	var window [medianKernel * medianKernel]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				yy := clampInt(y+dy, 0, h-1)
				for dx := -1; dx <= 1; dx++ {
					window[n] = src.at(clampInt(x+dx, 0, w-1), yy)
					n++
				}
			}
			dst.set(x, y, median9(&window))
		}
	}
	return dst
}

func median9(v *[9]uint8) uint8 {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j-1] > v[j]; j-- {
			v[j-1], v[j] = v[j], v[j-1]
		}
	}
	return v[4]
}

// gaussianSigma is the sigma OpenCV derives for a Gaussian kernel of the
// given size when none is supplied.
func gaussianSigma(ksize int) float64 {
	return 0.3*(float64(ksize-1)*0.5-1) + 0.8
}

// AdaptiveThreshold binarizes src against a Gaussian-weighted mean of the
// 31×31 window around each pixel minus 2. Pixels above the local threshold
// become white, the rest black.
func AdaptiveThreshold(src Gray) Gray {
	// imaging.Blur uses a radius of ceil(3*sigma), which for sigma 5 is
	// exactly the 31 pixel window.
	mean := imaging.Blur(src.Gray, gaussianSigma(thresholdWindow))
	w, h := src.width(), src.height()
	dst := NewGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := int(mean.Pix[y*mean.Stride+x*4])
			if int(src.at(x, y)) > m-thresholdOffset {
				dst.set(x, y, 255)
			}
		}
	}
	return dst
}

// EnhanceContrast boosts contrast by a factor of 1.5. Gray pixels are scaled
// directly and saturated; Color images are stretched around mid-grey.
func EnhanceContrast(img Image) Image {
	switch src := img.(type) {
	case Gray:
		dst := NewGray(src.width(), src.height())
		for i, v := range src.Pix[:len(dst.Pix)] {
			dst.Pix[i] = saturate(math.RoundToEven(float64(v) * contrastFactor))
		}
		return dst
	case Color:
		// AdjustContrast scales by 1/(2-v) for v = (100+pct)/100 above one.
		return Color{imaging.AdjustContrast(src.NRGBA, 100*(1-1/contrastFactor))}
	default:
		panic("preprocess: unknown image variant")
	}
}

func saturate(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
