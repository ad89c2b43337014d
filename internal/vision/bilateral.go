package vision

import "math"

// BilateralParams configures the edge-preserving smoothing filter.
type BilateralParams struct {
	Diameter   int     // pixel neighbourhood diameter
	SigmaColor float64 // similarity sigma in colour space
	SigmaSpace float64 // similarity sigma in coordinate space
}

// DefaultBilateralParams returns the webcam-noise defaults.
func DefaultBilateralParams() BilateralParams {
	return BilateralParams{Diameter: 5, SigmaColor: 50, SigmaSpace: 50}
}

// Bilateral applies edge-preserving non-linear smoothing: each output pixel
// is a weighted average of its neighbourhood where weights fall off with
// both spatial distance and colour difference, so flat regions are smoothed
// while edges survive.
func Bilateral(f *Frame, params BilateralParams) *Frame {
	d := params.Diameter
	if d < 1 {
		d = 1
	}
	radius := d / 2

	// Precompute the spatial kernel and a colour-difference weight table.
	spatial := make([]float64, d*d)
	twoSigmaSpace := 2 * params.SigmaSpace * params.SigmaSpace
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			dist2 := float64(dx*dx + dy*dy)
			spatial[(dy+radius)*d+(dx+radius)] = math.Exp(-dist2 / twoSigmaSpace)
		}
	}
	var colorWeight [256]float64
	twoSigmaColor := 2 * params.SigmaColor * params.SigmaColor
	for i := range colorWeight {
		colorWeight[i] = math.Exp(-float64(i*i) / twoSigmaColor)
	}

	out := &Frame{
		Width:  f.Width,
		Height: f.Height,
		Pixels: make([]uint8, len(f.Pixels)),
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			center := (y*f.Width + x) * Channels
			for c := 0; c < Channels; c++ {
				cv := int(f.Pixels[center+c])
				var sum, norm float64
				for dy := -radius; dy <= radius; dy++ {
					sy := clampInt(y+dy, 0, f.Height-1)
					for dx := -radius; dx <= radius; dx++ {
						sx := clampInt(x+dx, 0, f.Width-1)
						sv := int(f.Pixels[(sy*f.Width+sx)*Channels+c])
						diff := sv - cv
						if diff < 0 {
							diff = -diff
						}
						w := spatial[(dy+radius)*d+(dx+radius)] * colorWeight[diff]
						sum += w * float64(sv)
						norm += w
					}
				}
				out.Pixels[center+c] = uint8(sum/norm + 0.5)
			}
		}
	}
	return out
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
