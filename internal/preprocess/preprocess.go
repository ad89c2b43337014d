// Package preprocess normalizes admitted frames before feature extraction.
// The stages run in a fixed order and are individually toggleable: gamma
// correction, lighting normalization (CLAHE on the luminance channel), then
// edge-preserving denoise (bilateral filter). An optional top-of-frame ROI
// crop biases work toward the face region; it is off by default because
// detections below the crop line are silently dropped.
package preprocess

import (
	"github.com/vigil-data/proctor/internal/vision"
)

// Config holds the preprocessing toggles and stage parameters.
type Config struct {
	EnableCLAHE     bool
	EnableBilateral bool
	EnableGamma     bool
	GammaValue      float64
	CLAHE           vision.CLAHEParams
	Bilateral       vision.BilateralParams

	EnableROI bool
	ROIRatio  float64 // fraction of frame height kept from the top
}

// DefaultConfig enables lighting normalization and denoise, leaves gamma
// correction and ROI extraction off.
func DefaultConfig() Config {
	return Config{
		EnableCLAHE:     true,
		EnableBilateral: true,
		EnableGamma:     false,
		GammaValue:      1.2,
		CLAHE:           vision.DefaultCLAHEParams(),
		Bilateral:       vision.DefaultBilateralParams(),
		EnableROI:       false,
		ROIRatio:        0.7,
	}
}

// ROIInfo describes the crop applied to a frame, if any. Downstream
// coordinates reported in crop space must be rescaled back to full-frame
// space through it.
type ROIInfo struct {
	Enabled        bool
	OriginalWidth  int
	OriginalHeight int
	RegionHeight   int
	Ratio          float64 // RegionHeight / OriginalHeight
}

// RescaleY maps a normalized y coordinate from crop space back to
// full-frame space. Width is unchanged by a top crop.
func (r ROIInfo) RescaleY(y float64) float64 {
	if !r.Enabled {
		return y
	}
	return y * r.Ratio
}

// RescaleBox maps a normalized (x, y, w, h) box from crop space back to
// full-frame space.
func (r ROIInfo) RescaleBox(box [4]float64) [4]float64 {
	if !r.Enabled {
		return box
	}
	return [4]float64{box[0], box[1] * r.Ratio, box[2], box[3] * r.Ratio}
}

// Preprocessor applies the enabled stages to admitted frames.
type Preprocessor struct {
	cfg      Config
	gammaLUT [256]uint8
}

// New creates a preprocessor for the given configuration.
func New(cfg Config) *Preprocessor {
	p := &Preprocessor{cfg: cfg}
	if cfg.EnableGamma {
		gamma := cfg.GammaValue
		if gamma <= 0 {
			gamma = 1.0
		}
		p.gammaLUT = vision.GammaLUT(gamma)
	}
	return p
}

// Apply runs the enabled stages in their fixed order and returns the
// processed frame. The input frame is never modified. With every stage
// disabled the input is returned as-is.
func (p *Preprocessor) Apply(frame *vision.Frame) *vision.Frame {
	out := frame
	if p.cfg.EnableGamma {
		out = vision.ApplyLUT(out, p.gammaLUT)
	}
	if p.cfg.EnableCLAHE {
		out = vision.CLAHE(out, p.cfg.CLAHE)
	}
	if p.cfg.EnableBilateral {
		out = vision.Bilateral(out, p.cfg.Bilateral)
	}
	return out
}

// ExtractROI crops the frame to the configured top region. When ROI is
// disabled the original frame is returned with a pass-through ROIInfo.
func (p *Preprocessor) ExtractROI(frame *vision.Frame) (*vision.Frame, ROIInfo) {
	info := ROIInfo{
		OriginalWidth:  frame.Width,
		OriginalHeight: frame.Height,
		RegionHeight:   frame.Height,
		Ratio:          1.0,
	}
	if !p.cfg.EnableROI {
		return frame, info
	}

	cropped := frame.CropTop(p.cfg.ROIRatio)
	info.Enabled = true
	info.RegionHeight = cropped.Height
	info.Ratio = float64(cropped.Height) / float64(frame.Height)
	return cropped, info
}
