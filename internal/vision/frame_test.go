package vision

import (
	"errors"
	"testing"
)

func TestNewFrame_Valid(t *testing.T) {
	pixels := make([]uint8, 4*3*Channels)
	f, err := NewFrame(4, 3, pixels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Width != 4 || f.Height != 3 {
		t.Errorf("dimensions = %dx%d, want 4x3", f.Width, f.Height)
	}
}

func TestNewFrame_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		pixels []uint8
		want   error
	}{
		{"empty buffer", 4, 3, nil, ErrEmptyFrame},
		{"zero width", 0, 3, make([]uint8, 9), ErrBadDimensions},
		{"negative height", 4, -1, make([]uint8, 12), ErrBadDimensions},
		{"size mismatch", 4, 3, make([]uint8, 10), ErrSizeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFrame(tt.width, tt.height, tt.pixels)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFrame_Clone_Independent(t *testing.T) {
	base, err := NewFrame(2, 2, make([]uint8, 2*2*Channels))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clone := base.Clone()
	clone.Pixels[0] = 200

	if base.Pixels[0] != 0 {
		t.Error("mutating clone modified original frame")
	}
}

func TestFrame_CropTop(t *testing.T) {
	f, err := NewFrame(2, 10, make([]uint8, 2*10*Channels))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cropped := f.CropTop(0.7)
	if cropped.Height != 7 {
		t.Errorf("cropped height = %d, want 7", cropped.Height)
	}
	if cropped.Width != 2 {
		t.Errorf("cropped width = %d, want 2", cropped.Width)
	}
	if err := cropped.Validate(); err != nil {
		t.Errorf("cropped frame invalid: %v", err)
	}

	// Ratio >= 1 returns a full copy.
	full := f.CropTop(1.0)
	if full.Height != 10 {
		t.Errorf("full crop height = %d, want 10", full.Height)
	}
}
