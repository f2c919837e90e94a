package strip

import (
	"image/color"

	"github.com/chewxy/math32"
)

// HSV converts hue (degrees), saturation and value (percent) to a color
// using integer arithmetic.
func HSV(h, s, v uint32) color.RGBA {
	h %= 360
	if s > 100 {
		s = 100
	}
	if v > 100 {
		v = 100
	}

	hi := v * 255 / 100
	lo := hi * (100 - s) / 100

	// Adjustment by position within the 60 degree sector
	adj := (hi - lo) * (h % 60) / 60

	var r, g, b uint32
	switch h / 60 {
	case 0:
		r, g, b = hi, lo+adj, lo
	case 1:
		r, g, b = hi-adj, hi, lo
	case 2:
		r, g, b = lo, hi, lo+adj
	case 3:
		r, g, b = lo, hi-adj, hi
	case 4:
		r, g, b = lo+adj, lo, hi
	default:
		r, g, b = hi, lo, hi-adj
	}

	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 0xFF}
}

// GammaTable returns a lookup table mapping linear intensities to gamma
// corrected ones.
func GammaTable(gamma float32) [256]byte {
	var table [256]byte
	for i := range table {
		v := math32.Pow(float32(i)/255, gamma)*255 + 0.5
		table[i] = byte(math32.Min(v, 255))
	}
	return table
}
