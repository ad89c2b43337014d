// Package config loads and validates the pipeline tuning. A single JSON
// document covers every stage so the same file drives startup
// configuration and runtime updates; fields left out of the JSON keep
// their built-in defaults, making partial overrides safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vigil-data/proctor/internal/detect"
	"github.com/vigil-data/proctor/internal/headpose"
	"github.com/vigil-data/proctor/internal/objectfilter"
	"github.com/vigil-data/proctor/internal/preprocess"
	"github.com/vigil-data/proctor/internal/risk"
	"github.com/vigil-data/proctor/internal/sampler"
)

// TuningConfig is the root tuning document. All fields are pointers so an
// absent field is distinguishable from an explicit zero; the builder
// methods substitute defaults for nil fields.
type TuningConfig struct {
	// Sampler params
	EnableAdaptiveSampling *bool    `json:"enable_adaptive_sampling,omitempty"`
	MotionThreshold        *float64 `json:"motion_threshold,omitempty"`
	MinFPS                 *float64 `json:"min_fps,omitempty"`
	MaxFPS                 *float64 `json:"max_fps,omitempty"`
	BlurKernel             *int     `json:"blur_kernel,omitempty"`

	// Preprocessor params
	EnablePreprocessing *bool    `json:"enable_preprocessing,omitempty"`
	EnableGamma         *bool    `json:"enable_gamma,omitempty"`
	GammaValue          *float64 `json:"gamma_value,omitempty"`
	EnableROI           *bool    `json:"enable_roi,omitempty"`
	ROIRatio            *float64 `json:"roi_ratio,omitempty"`

	// Head pose params
	YawThreshold         *float64 `json:"yaw_threshold,omitempty"`
	PitchThreshold       *float64 `json:"pitch_threshold,omitempty"`
	MinorYawThreshold    *float64 `json:"minor_yaw_threshold,omitempty"`
	MinorPitchThreshold  *float64 `json:"minor_pitch_threshold,omitempty"`
	SmoothingWindow      *int     `json:"smoothing_window,omitempty"`
	ConsistencyThreshold *float64 `json:"consistency_threshold,omitempty"`
	DecayFactor          *float64 `json:"decay_factor,omitempty"`

	// Object filter params
	GeneralConfidence *float64 `json:"general_confidence,omitempty"`
	PersonConfidence  *float64 `json:"person_confidence,omitempty"`

	// Detection coordination params
	TimeoutMs *int `json:"timeout_ms,omitempty"`

	// Behavior window params
	WindowSize *int `json:"window_size,omitempty"`

	// Risk scoring params
	GazeWeight        *int     `json:"gaze_weight,omitempty"`
	ItemWeight        *int     `json:"item_weight,omitempty"`
	PersonsWeight     *int     `json:"persons_weight,omitempty"`
	PatternWeight     *int     `json:"pattern_weight,omitempty"`
	AlertLowMax       *int     `json:"alert_low_max,omitempty"`
	AlertMediumMax    *int     `json:"alert_medium_max,omitempty"`
	AlertHighMax      *int     `json:"alert_high_max,omitempty"`
	ScoreCap          *int     `json:"score_cap,omitempty"`
	ExtendedDeviation *float64 `json:"extended_deviation_seconds,omitempty"`
	CriticalDeviation *float64 `json:"critical_deviation_seconds,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// EmptyTuningConfig returns a TuningConfig with all fields nil, meaning
// every stage runs on its defaults.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The path must
// carry a .json extension and the file must stay under the max size.
// Fields omitted from the JSON retain their defaults, so partial configs
// are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that set fields carry usable values.
func (c *TuningConfig) Validate() error {
	if c.MotionThreshold != nil && *c.MotionThreshold < 0 {
		return fmt.Errorf("motion_threshold must be non-negative, got %f", *c.MotionThreshold)
	}
	if c.MinFPS != nil && *c.MinFPS <= 0 {
		return fmt.Errorf("min_fps must be positive, got %f", *c.MinFPS)
	}
	if c.MaxFPS != nil && *c.MaxFPS <= 0 {
		return fmt.Errorf("max_fps must be positive, got %f", *c.MaxFPS)
	}
	if c.MinFPS != nil && c.MaxFPS != nil && *c.MinFPS > *c.MaxFPS {
		return fmt.Errorf("min_fps %f exceeds max_fps %f", *c.MinFPS, *c.MaxFPS)
	}
	if c.BlurKernel != nil && (*c.BlurKernel < 1 || *c.BlurKernel%2 == 0) {
		return fmt.Errorf("blur_kernel must be a positive odd number, got %d", *c.BlurKernel)
	}
	if c.ROIRatio != nil && (*c.ROIRatio <= 0 || *c.ROIRatio > 1) {
		return fmt.Errorf("roi_ratio must be in (0,1], got %f", *c.ROIRatio)
	}
	if c.GammaValue != nil && *c.GammaValue <= 0 {
		return fmt.Errorf("gamma_value must be positive, got %f", *c.GammaValue)
	}
	if c.ConsistencyThreshold != nil && (*c.ConsistencyThreshold < 0 || *c.ConsistencyThreshold > 1) {
		return fmt.Errorf("consistency_threshold must be in [0,1], got %f", *c.ConsistencyThreshold)
	}
	if c.DecayFactor != nil && (*c.DecayFactor < 0 || *c.DecayFactor >= 1) {
		return fmt.Errorf("decay_factor must be in [0,1), got %f", *c.DecayFactor)
	}
	if c.GeneralConfidence != nil && (*c.GeneralConfidence < 0 || *c.GeneralConfidence > 1) {
		return fmt.Errorf("general_confidence must be in [0,1], got %f", *c.GeneralConfidence)
	}
	if c.PersonConfidence != nil && (*c.PersonConfidence < 0 || *c.PersonConfidence > 1) {
		return fmt.Errorf("person_confidence must be in [0,1], got %f", *c.PersonConfidence)
	}
	if c.TimeoutMs != nil && *c.TimeoutMs <= 0 {
		return fmt.Errorf("timeout_ms must be positive, got %d", *c.TimeoutMs)
	}
	if c.WindowSize != nil && *c.WindowSize < 1 {
		return fmt.Errorf("window_size must be at least 1, got %d", *c.WindowSize)
	}
	return nil
}

// SamplerConfig builds the motion sampler tuning.
func (c *TuningConfig) SamplerConfig() sampler.Config {
	def := sampler.DefaultConfig()
	return sampler.Config{
		Enabled:         boolOr(c.EnableAdaptiveSampling, def.Enabled),
		MotionThreshold: floatOr(c.MotionThreshold, def.MotionThreshold),
		MinFPS:          floatOr(c.MinFPS, def.MinFPS),
		MaxFPS:          floatOr(c.MaxFPS, def.MaxFPS),
		BlurKernel:      intOr(c.BlurKernel, def.BlurKernel),
	}
}

// PreprocessConfig builds the preprocessor tuning. Disabling
// preprocessing turns off every enhancement stage at once.
func (c *TuningConfig) PreprocessConfig() preprocess.Config {
	def := preprocess.DefaultConfig()
	cfg := def
	if !boolOr(c.EnablePreprocessing, true) {
		cfg.EnableCLAHE = false
		cfg.EnableBilateral = false
		cfg.EnableGamma = false
	} else {
		cfg.EnableGamma = boolOr(c.EnableGamma, def.EnableGamma)
	}
	cfg.GammaValue = floatOr(c.GammaValue, def.GammaValue)
	cfg.EnableROI = boolOr(c.EnableROI, def.EnableROI)
	cfg.ROIRatio = floatOr(c.ROIRatio, def.ROIRatio)
	return cfg
}

// HeadPoseConfig builds the gaze tracking tuning.
func (c *TuningConfig) HeadPoseConfig() headpose.Config {
	def := headpose.DefaultConfig()
	return headpose.Config{
		YawThreshold:         floatOr(c.YawThreshold, def.YawThreshold),
		PitchThreshold:       floatOr(c.PitchThreshold, def.PitchThreshold),
		MinorYawThreshold:    floatOr(c.MinorYawThreshold, def.MinorYawThreshold),
		MinorPitchThreshold:  floatOr(c.MinorPitchThreshold, def.MinorPitchThreshold),
		SmoothingWindow:      intOr(c.SmoothingWindow, def.SmoothingWindow),
		ConsistencyThreshold: floatOr(c.ConsistencyThreshold, def.ConsistencyThreshold),
		DecayFactor:          floatOr(c.DecayFactor, def.DecayFactor),
	}
}

// ObjectFilterConfig builds the detection gating tuning. The forbidden
// class map always comes from the built-in policy.
func (c *TuningConfig) ObjectFilterConfig() objectfilter.Config {
	def := objectfilter.DefaultConfig()
	def.GeneralThreshold = floatOr(c.GeneralConfidence, def.GeneralThreshold)
	def.PersonThreshold = floatOr(c.PersonConfidence, def.PersonThreshold)
	return def
}

// DetectionTimeout returns the shared fan-out deadline.
func (c *TuningConfig) DetectionTimeout() time.Duration {
	if c.TimeoutMs == nil {
		return detect.DefaultTimeout
	}
	return time.Duration(*c.TimeoutMs) * time.Millisecond
}

// GetWindowSize returns the behavior window capacity.
func (c *TuningConfig) GetWindowSize() int {
	return intOr(c.WindowSize, 30)
}

// RiskConfig builds the scoring tuning.
func (c *TuningConfig) RiskConfig() risk.Config {
	def := risk.DefaultConfig()
	return risk.Config{
		GazeWeight:        intOr(c.GazeWeight, def.GazeWeight),
		ItemWeight:        intOr(c.ItemWeight, def.ItemWeight),
		PersonsWeight:     intOr(c.PersonsWeight, def.PersonsWeight),
		PatternWeight:     intOr(c.PatternWeight, def.PatternWeight),
		LowMax:            intOr(c.AlertLowMax, def.LowMax),
		MediumMax:         intOr(c.AlertMediumMax, def.MediumMax),
		HighMax:           intOr(c.AlertHighMax, def.HighMax),
		ScoreCap:          intOr(c.ScoreCap, def.ScoreCap),
		ExtendedDeviation: floatOr(c.ExtendedDeviation, def.ExtendedDeviation),
		CriticalDeviation: floatOr(c.CriticalDeviation, def.CriticalDeviation),
	}
}
