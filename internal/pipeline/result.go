package pipeline

import (
	"github.com/vigil-data/proctor/internal/behavior"
	"github.com/vigil-data/proctor/internal/headpose"
	"github.com/vigil-data/proctor/internal/objectfilter"
	"github.com/vigil-data/proctor/internal/risk"
)

// SamplerStats is the per-session admission telemetry carried in result
// metadata and session summaries.
type SamplerStats struct {
	TotalFrames     int     `json:"total_frames"`
	ProcessedFrames int     `json:"processed_frames"`
	SkippedFrames   int     `json:"skipped_frames"`
	SkipRatio       float64 `json:"skip_ratio"`
}

// StageTimings records wall-clock milliseconds spent per stage for one
// processed frame. Skipped frames carry only the total.
type StageTimings struct {
	PreprocessMs float64 `json:"preprocess_ms"`
	DetectMs     float64 `json:"detect_ms"`
	ScoreMs      float64 `json:"score_ms"`
	TotalMs      float64 `json:"total_ms"`
}

// ProcessingMetadata describes how a frame moved through the pipeline:
// whether it was admitted, what the motion sampler saw, which detector
// branches degraded and how long the stages took.
type ProcessingMetadata struct {
	FrameSkipped   bool    `json:"frame_skipped"`
	SkipReason     string  `json:"skip_reason,omitempty"`
	MotionScore    float64 `json:"motion_score"`
	MotionDetected bool    `json:"motion_detected"`

	// LandmarksDegraded and ObjectsDegraded mark detector branches that
	// failed or timed out and were replaced by safe defaults. Degraded
	// evidence should be read with lower confidence.
	LandmarksDegraded bool `json:"landmarks_degraded"`
	ObjectsDegraded   bool `json:"objects_degraded"`

	Sampler SamplerStats `json:"sampler"`
	Timings StageTimings `json:"timings"`
}

// Result is the per-frame pipeline output. Skipped frames return the last
// cached assessment with FrameSkipped set and the motion telemetry
// refreshed.
type Result struct {
	SessionID string  `json:"session_id"`
	Timestamp float64 `json:"timestamp"`

	Pose     headpose.Estimate   `json:"pose"`
	Objects  objectfilter.Signal `json:"objects"`
	Behavior behavior.Snapshot   `json:"behavior"`
	Risk     risk.Assessment     `json:"risk"`
	Metadata ProcessingMetadata  `json:"metadata"`
}

// SessionSummary is the aggregate view of a session, served over HTTP and
// returned by EndSession.
type SessionSummary struct {
	SessionID       string            `json:"session_id"`
	StartedAtUnix   int64             `json:"started_at_unix"`
	DurationSeconds float64           `json:"duration_seconds"`
	Sampler         SamplerStats      `json:"sampler"`
	Behavior        behavior.Snapshot `json:"behavior"`
	Scoring         risk.Config       `json:"scoring"`
}
