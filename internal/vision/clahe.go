package vision

// CLAHEParams configures contrast-limited adaptive histogram equalization.
type CLAHEParams struct {
	TileGridX int     // tiles across
	TileGridY int     // tiles down
	ClipLimit float64 // contrast limit relative to the uniform bin count
}

// DefaultCLAHEParams returns the standard 8x8 grid with a 2.0 clip limit.
func DefaultCLAHEParams() CLAHEParams {
	return CLAHEParams{TileGridX: 8, TileGridY: 8, ClipLimit: 2.0}
}

// CLAHE applies contrast-limited adaptive histogram equalization to the
// luminance channel of a colour frame, leaving chrominance untouched. The
// frame is converted to a luminance/chrominance space, the luminance plane
// is equalized per tile with clipped histograms and bilinear interpolation
// between tile mappings, and the planes are recomposed.
func CLAHE(f *Frame, params CLAHEParams) *Frame {
	y, cb, cr := splitYCbCr(f)
	eq := equalizeLuminance(y, f.Width, f.Height, params)
	return mergeYCbCr(eq, cb, cr, f.Width, f.Height)
}

// splitYCbCr decomposes an interleaved colour frame into luminance and two
// chrominance planes (JPEG-style YCbCr).
func splitYCbCr(f *Frame) (y, cb, cr []float64) {
	n := f.Width * f.Height
	y = make([]float64, n)
	cb = make([]float64, n)
	cr = make([]float64, n)
	for i := 0; i < n; i++ {
		p := i * Channels
		r := float64(f.Pixels[p])
		g := float64(f.Pixels[p+1])
		b := float64(f.Pixels[p+2])
		y[i] = 0.299*r + 0.587*g + 0.114*b
		cb[i] = 128 - 0.168736*r - 0.331264*g + 0.5*b
		cr[i] = 128 + 0.5*r - 0.418688*g - 0.081312*b
	}
	return y, cb, cr
}

// mergeYCbCr recomposes luminance and chrominance planes into an interleaved
// colour frame, clamping to the 8-bit range.
func mergeYCbCr(y, cb, cr []float64, width, height int) *Frame {
	pixels := make([]uint8, width*height*Channels)
	for i := 0; i < width*height; i++ {
		p := i * Channels
		pixels[p] = clampByte(y[i] + 1.402*(cr[i]-128))
		pixels[p+1] = clampByte(y[i] - 0.344136*(cb[i]-128) - 0.714136*(cr[i]-128))
		pixels[p+2] = clampByte(y[i] + 1.772*(cb[i]-128))
	}
	return &Frame{Width: width, Height: height, Pixels: pixels}
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

const histogramBins = 256

// equalizeLuminance runs the tile-based equalization over a luminance plane.
func equalizeLuminance(y []float64, width, height int, params CLAHEParams) []float64 {
	tx, ty := params.TileGridX, params.TileGridY
	if tx < 1 {
		tx = 1
	}
	if ty < 1 {
		ty = 1
	}
	if tx > width {
		tx = width
	}
	if ty > height {
		ty = height
	}

	// Per-tile clipped-histogram CDF mappings.
	maps := make([][histogramBins]float64, tx*ty)
	tileW := (width + tx - 1) / tx
	tileH := (height + ty - 1) / ty
	for tyi := 0; tyi < ty; tyi++ {
		for txi := 0; txi < tx; txi++ {
			x0, y0 := txi*tileW, tyi*tileH
			x1, y1 := minInt(x0+tileW, width), minInt(y0+tileH, height)
			maps[tyi*tx+txi] = tileMapping(y, width, x0, y0, x1, y1, params.ClipLimit)
		}
	}

	// Bilinear interpolation between the four surrounding tile mappings.
	out := make([]float64, len(y))
	for py := 0; py < height; py++ {
		fy := (float64(py)+0.5)/float64(tileH) - 0.5
		ty0 := int(fy)
		if fy < 0 {
			ty0 = 0
			fy = 0
		}
		ty1 := minInt(ty0+1, ty-1)
		wy := fy - float64(ty0)
		if ty0 >= ty {
			ty0, ty1, wy = ty-1, ty-1, 0
		}

		for px := 0; px < width; px++ {
			fx := (float64(px)+0.5)/float64(tileW) - 0.5
			tx0 := int(fx)
			if fx < 0 {
				tx0 = 0
				fx = 0
			}
			tx1 := minInt(tx0+1, tx-1)
			wx := fx - float64(tx0)
			if tx0 >= tx {
				tx0, tx1, wx = tx-1, tx-1, 0
			}

			bin := int(y[py*width+px])
			if bin > histogramBins-1 {
				bin = histogramBins - 1
			}
			top := (1-wx)*maps[ty0*tx+tx0][bin] + wx*maps[ty0*tx+tx1][bin]
			bottom := (1-wx)*maps[ty1*tx+tx0][bin] + wx*maps[ty1*tx+tx1][bin]
			out[py*width+px] = (1-wy)*top + wy*bottom
		}
	}
	return out
}

// tileMapping builds the clipped-histogram equalization mapping for one tile.
func tileMapping(y []float64, width, x0, y0, x1, y1 int, clipLimit float64) [histogramBins]float64 {
	var hist [histogramBins]float64
	count := 0
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			bin := int(y[py*width+px])
			if bin > histogramBins-1 {
				bin = histogramBins - 1
			}
			hist[bin]++
			count++
		}
	}

	var mapping [histogramBins]float64
	if count == 0 {
		for i := range mapping {
			mapping[i] = float64(i)
		}
		return mapping
	}

	// Clip bins above the limit and redistribute the excess uniformly.
	if clipLimit > 0 {
		limit := clipLimit * float64(count) / histogramBins
		if limit < 1 {
			limit = 1
		}
		var excess float64
		for i := range hist {
			if hist[i] > limit {
				excess += hist[i] - limit
				hist[i] = limit
			}
		}
		share := excess / histogramBins
		for i := range hist {
			hist[i] += share
		}
	}

	var cdf float64
	for i := range hist {
		cdf += hist[i]
		mapping[i] = cdf * 255.0 / float64(count)
	}
	return mapping
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
