package vision

import "math"

// BT.601 luma coefficients for grayscale conversion.
const (
	lumaRed   = 0.299
	lumaGreen = 0.587
	lumaBlue  = 0.114
)

// Gray converts a colour frame to a single-channel intensity plane.
func Gray(f *Frame) []uint8 {
	gray := make([]uint8, f.Width*f.Height)
	for i := 0; i < len(gray); i++ {
		p := i * Channels
		v := lumaRed*float64(f.Pixels[p]) +
			lumaGreen*float64(f.Pixels[p+1]) +
			lumaBlue*float64(f.Pixels[p+2])
		gray[i] = uint8(v + 0.5)
	}
	return gray
}

// gaussianKernel builds a normalised 1D Gaussian kernel of the given odd
// size. Sigma follows the conventional size-derived formula so callers only
// choose the kernel width.
func gaussianKernel(size int) []float64 {
	if size%2 == 0 {
		size++
	}
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	kernel := make([]float64, size)
	half := size / 2
	var sum float64
	for i := range kernel {
		x := float64(i - half)
		kernel[i] = math.Exp(-x * x / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// GaussianBlur applies a separable Gaussian blur to an intensity plane.
// Edges are handled by clamping sample coordinates to the plane bounds.
func GaussianBlur(gray []uint8, width, height, kernelSize int) []uint8 {
	kernel := gaussianKernel(kernelSize)
	half := len(kernel) / 2

	// Horizontal pass into a float buffer, then vertical pass back to bytes.
	tmp := make([]float64, len(gray))
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			var acc float64
			for k, w := range kernel {
				sx := x + k - half
				if sx < 0 {
					sx = 0
				} else if sx >= width {
					sx = width - 1
				}
				acc += w * float64(gray[row+sx])
			}
			tmp[row+x] = acc
		}
	}

	out := make([]uint8, len(gray))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var acc float64
			for k, w := range kernel {
				sy := y + k - half
				if sy < 0 {
					sy = 0
				} else if sy >= height {
					sy = height - 1
				}
				acc += w * tmp[sy*width+x]
			}
			out[y*width+x] = uint8(acc + 0.5)
		}
	}
	return out
}

// MeanAbsDiff computes the mean absolute difference between two intensity
// planes of equal length. This is the motion score used by the adaptive
// sampler: 0 for identical planes, up to 255 for full-range change.
func MeanAbsDiff(a, b []uint8) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrLengthMismatch
	}
	if len(a) == 0 {
		return 0, ErrEmptyFrame
	}
	var sum int64
	for i := range a {
		d := int64(a[i]) - int64(b[i])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return float64(sum) / float64(len(a)), nil
}

// GammaLUT builds a 256-entry lookup table applying the power-law transform
// out = in^(1/gamma). Gamma > 1 brightens, < 1 darkens.
func GammaLUT(gamma float64) [256]uint8 {
	var lut [256]uint8
	inv := 1.0 / gamma
	for i := 0; i < 256; i++ {
		v := math.Pow(float64(i)/255.0, inv) * 255.0
		if v > 255 {
			v = 255
		}
		lut[i] = uint8(v + 0.5)
	}
	return lut
}

// ApplyLUT maps every channel of the frame through the lookup table.
func ApplyLUT(f *Frame, lut [256]uint8) *Frame {
	out := f.Clone()
	for i, v := range out.Pixels {
		out.Pixels[i] = lut[v]
	}
	return out
}
