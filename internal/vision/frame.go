// Package vision owns the raw frame representation and the pure image-filter
// primitives used by the sampling and preprocessing stages: grayscale
// conversion, Gaussian blur, frame differencing, contrast-limited adaptive
// histogram equalization, edge-preserving bilateral smoothing, and gamma
// correction. All functions are stateless; none retain references to their
// inputs.
package vision

import (
	"errors"
	"fmt"
)

// Channels is the number of interleaved colour channels per pixel.
const Channels = 3

// Frame is a dense 8-bit colour image, row-major, three interleaved channels
// per pixel. Frames are treated as immutable once admitted to the pipeline:
// every filter returns a new buffer and never writes to its input.
type Frame struct {
	Width  int
	Height int
	Pixels []uint8 // len = Width * Height * Channels
}

// Frame validation errors.
var (
	ErrEmptyFrame     = errors.New("vision: empty pixel buffer")
	ErrBadDimensions  = errors.New("vision: non-positive frame dimensions")
	ErrSizeMismatch   = errors.New("vision: pixel buffer size does not match dimensions")
	ErrLengthMismatch = errors.New("vision: plane length mismatch")
)

// NewFrame wraps a pixel buffer in a Frame after validating its shape.
func NewFrame(width, height int, pixels []uint8) (*Frame, error) {
	f := &Frame{Width: width, Height: height, Pixels: pixels}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks the frame for malformed input: non-positive dimensions or
// a pixel buffer whose length disagrees with Width*Height*Channels.
func (f *Frame) Validate() error {
	if f == nil || len(f.Pixels) == 0 {
		return ErrEmptyFrame
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrBadDimensions, f.Width, f.Height)
	}
	if len(f.Pixels) != f.Width*f.Height*Channels {
		return fmt.Errorf("%w: have %d bytes, want %d",
			ErrSizeMismatch, len(f.Pixels), f.Width*f.Height*Channels)
	}
	return nil
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	pixels := make([]uint8, len(f.Pixels))
	copy(pixels, f.Pixels)
	return &Frame{Width: f.Width, Height: f.Height, Pixels: pixels}
}

// CropTop returns a new frame containing the top ratio of the frame height.
// The ratio is clamped to (0, 1]; at least one row is always kept.
func (f *Frame) CropTop(ratio float64) *Frame {
	if ratio >= 1.0 || ratio <= 0 {
		return f.Clone()
	}
	rows := int(float64(f.Height) * ratio)
	if rows < 1 {
		rows = 1
	}
	pixels := make([]uint8, rows*f.Width*Channels)
	copy(pixels, f.Pixels[:len(pixels)])
	return &Frame{Width: f.Width, Height: rows, Pixels: pixels}
}
