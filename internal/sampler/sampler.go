// Package sampler implements motion-gated admission control for incoming
// frames. Static scenes are sampled at a floor rate, active scenes up to a
// ceiling rate, and everything in between is skipped before the expensive
// detection path runs.
package sampler

import (
	"github.com/vigil-data/proctor/internal/vision"
)

// Admission reasons reported for observability.
const (
	ReasonFirstFrame       = "first_frame"
	ReasonMotion           = "motion_detected"
	ReasonFloorInterval    = "min_fps_interval"
	ReasonSamplingDisabled = "sampling_disabled"
	ReasonThrottled        = "throttled"
	ReasonStatic           = "static"
)

// DefaultBlurKernel is the Gaussian kernel width applied before frame
// differencing. A strong blur suppresses sensor noise that would otherwise
// register as motion.
const DefaultBlurKernel = 21

// Config holds the admission-control tuning parameters.
type Config struct {
	Enabled         bool    // false turns the sampler into an admit-all pass-through
	MotionThreshold float64 // mean-abs-diff threshold on the 0-255 scale
	MinFPS          float64 // floor sampling rate for static scenes
	MaxFPS          float64 // ceiling sampling rate under motion
	BlurKernel      int     // Gaussian kernel width for noise suppression
}

// DefaultConfig returns moderate-sensitivity defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		MotionThreshold: 10.0,
		MinFPS:          2.0,
		MaxFPS:          10.0,
		BlurKernel:      DefaultBlurKernel,
	}
}

// State is the per-session sampler state. It is owned by the session
// registry; the sampler itself holds no cross-call state.
type State struct {
	prevGray        []uint8 // blurred intensity plane of last admitted frame
	lastProcessedAt float64 // capture timestamp of last admitted frame (seconds)

	// Counters for observability.
	TotalFrames     int
	ProcessedFrames int
}

// NewState returns empty per-session sampler state.
func NewState() *State {
	return &State{}
}

// SkipRatio returns the fraction of frames skipped so far.
func (s *State) SkipRatio() float64 {
	if s.TotalFrames == 0 {
		return 0
	}
	return 1.0 - float64(s.ProcessedFrames)/float64(s.TotalFrames)
}

// Decision is the admission outcome for one frame.
type Decision struct {
	Admit          bool
	MotionScore    float64
	MotionDetected bool
	Reason         string
	ElapsedSeconds float64 // since last admitted frame; 0 on bootstrap
}

// Sampler decides per frame whether processing is worth the cost.
type Sampler struct {
	cfg Config
}

// New creates a sampler with the given configuration.
func New(cfg Config) *Sampler {
	if cfg.BlurKernel < 3 {
		cfg.BlurKernel = DefaultBlurKernel
	}
	return &Sampler{cfg: cfg}
}

// Decide evaluates one frame against the per-session state. The state is
// updated in place: on admission the reference plane and timestamp advance;
// on skip only the frame counter moves, so the next comparison still runs
// against the last admitted frame. The timestamp is the frame's capture
// time in monotonic seconds.
func (s *Sampler) Decide(frame *vision.Frame, st *State, timestamp float64) Decision {
	st.TotalFrames++

	gray := vision.GaussianBlur(vision.Gray(frame), frame.Width, frame.Height, s.cfg.BlurKernel)

	// Bootstrap: no reference plane yet, always admit.
	if st.prevGray == nil {
		st.prevGray = gray
		st.lastProcessedAt = timestamp
		st.ProcessedFrames++
		return Decision{Admit: true, MotionDetected: true, Reason: ReasonFirstFrame}
	}

	motionScore := 0.0
	if score, err := vision.MeanAbsDiff(st.prevGray, gray); err == nil {
		motionScore = score
	}
	motionDetected := motionScore > s.cfg.MotionThreshold
	elapsed := timestamp - st.lastProcessedAt

	decision := Decision{
		MotionScore:    motionScore,
		MotionDetected: motionDetected,
		ElapsedSeconds: elapsed,
	}

	if !s.cfg.Enabled {
		// Pass-through: every frame is admitted, motion score is still
		// reported for telemetry.
		decision.Admit = true
		decision.Reason = ReasonSamplingDisabled
	} else {
		minInterval := 1.0 / s.cfg.MaxFPS
		maxInterval := 1.0 / s.cfg.MinFPS
		switch {
		case motionDetected && elapsed >= minInterval:
			decision.Admit = true
			decision.Reason = ReasonMotion
		case elapsed >= maxInterval:
			// Floor rate: admit even when static so slow changes are caught.
			decision.Admit = true
			decision.Reason = ReasonFloorInterval
		case motionDetected:
			decision.Reason = ReasonThrottled
		default:
			decision.Reason = ReasonStatic
		}
	}

	if decision.Admit {
		st.prevGray = gray
		st.lastProcessedAt = timestamp
		st.ProcessedFrames++
	}
	return decision
}
