package headpose

import "math"

// Deviation tiers reported alongside the raw angles.
const (
	DeviationNone   = "none"
	DeviationMinor  = "minor"
	DeviationScreen = "screen"
)

// Config holds the deviation thresholds and temporal smoothing tuning for
// gaze tracking.
type Config struct {
	// YawThreshold and PitchThreshold bound the looking-at-screen cone in
	// degrees. Exceeding either counts as a screen deviation.
	YawThreshold   float64
	PitchThreshold float64

	// MinorYawThreshold and MinorPitchThreshold mark the softer warning
	// tier below the screen thresholds.
	MinorYawThreshold   float64
	MinorPitchThreshold float64

	// SmoothingWindow is the number of recent frames averaged before the
	// thresholds are applied, damping single-frame solver jitter.
	SmoothingWindow int

	// ConsistencyThreshold is the fraction of the recent window that must
	// be past-threshold before a deviation is declared sustained.
	ConsistencyThreshold float64

	// DecayFactor multiplies the accumulated deviation duration on every
	// processed frame where no sustained deviation holds.
	DecayFactor float64
}

// DefaultConfig returns the standard gaze tracking tuning.
func DefaultConfig() Config {
	return Config{
		YawThreshold:         45.0,
		PitchThreshold:       30.0,
		MinorYawThreshold:    30.0,
		MinorPitchThreshold:  25.0,
		SmoothingWindow:      5,
		ConsistencyThreshold: 0.6,
		DecayFactor:          0.9,
	}
}

// State carries the per-session temporal context: smoothing histories,
// the sustained-deviation flag and the accumulated deviation duration.
// Frames where no face is visible leave the state untouched.
type State struct {
	yawHistory       []float64
	pitchHistory     []float64
	deviationHistory []bool

	deviating bool
	duration  float64
}

// NewState returns an empty per-session state.
func NewState() *State {
	return &State{}
}

// Deviating reports whether the session is currently in a sustained
// deviation.
func (s *State) Deviating() bool { return s.deviating }

// Duration returns the accumulated deviation duration in seconds.
func (s *State) Duration() float64 { return s.duration }

// Estimate is the per-frame gaze result.
type Estimate struct {
	FaceDetected bool `json:"face_detected"`

	// Smoothed angles in degrees, the values the thresholds apply to.
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`

	// RawYaw and RawPitch are the single-frame solver outputs before
	// smoothing, kept for diagnostics.
	RawYaw   float64 `json:"raw_yaw"`
	RawPitch float64 `json:"raw_pitch"`

	// Deviation is the instantaneous tier for this frame.
	Deviation string `json:"deviation"`

	// Sustained reports whether the deviation has held across enough of
	// the recent window to count against the session.
	Sustained bool `json:"sustained"`

	// Consistency is the fraction of the recent window past threshold.
	Consistency float64 `json:"consistency"`

	// Duration is the accumulated deviation time in seconds after this
	// frame's accrual or decay.
	Duration float64 `json:"duration"`

	// Confidence reflects the reprojection fit of the pose solve, in
	// [0,1]. Zero when the solve failed or no face was visible.
	Confidence float64 `json:"confidence"`
}

// Estimator converts landmarks into smoothed angles and drives the
// deviation state machine. It holds no per-session data itself.
type Estimator struct {
	cfg   Config
	model [LandmarkCount]Point3
}

// NewEstimator builds an estimator with the given tuning.
func NewEstimator(cfg Config) *Estimator {
	if cfg.SmoothingWindow < 1 {
		cfg.SmoothingWindow = 1
	}
	return &Estimator{cfg: cfg, model: CanonicalModel()}
}

// Estimate processes one frame's landmarks for a session. lm is nil when
// no face was detected; such frames report no deviation and do not
// advance the accrual or decay, while the internal state is preserved so
// a brief occlusion does not reset the temporal context. dt is the
// elapsed time in seconds since the previous processed frame.
func (e *Estimator) Estimate(lm *Landmarks, width, height int, st *State, dt float64) Estimate {
	if lm == nil {
		return Estimate{
			FaceDetected: false,
			Deviation:    DeviationNone,
			Duration:     st.duration,
		}
	}

	cam := CameraForFrame(width, height)
	var image [LandmarkCount]Point2
	for i, p := range lm.points() {
		image[i] = Point2{X: p.X * float64(width), Y: p.Y * float64(height)}
	}

	var rawYaw, rawPitch, rawRoll, confidence float64
	pose, err := SolvePnP(e.model, image, cam)
	if err == nil {
		rawYaw, rawPitch, rawRoll = EulerAngles(pose.R)
		rmse := ReprojectionRMSE(pose, e.model, image, cam)
		confidence = 1 / (1 + rmse/5)
	}

	st.yawHistory = pushBounded(st.yawHistory, rawYaw, e.cfg.SmoothingWindow)
	st.pitchHistory = pushBounded(st.pitchHistory, rawPitch, e.cfg.SmoothingWindow)
	yaw := meanOf(st.yawHistory)
	pitch := meanOf(st.pitchHistory)

	tier := e.classify(yaw, pitch)
	screen := tier == DeviationScreen
	st.deviationHistory = pushBoundedBool(st.deviationHistory, screen, e.cfg.SmoothingWindow)
	consistency := trueFraction(st.deviationHistory)

	if consistency >= e.cfg.ConsistencyThreshold {
		st.deviating = true
		st.duration += dt
	} else {
		st.deviating = false
		st.duration *= e.cfg.DecayFactor
	}

	return Estimate{
		FaceDetected: true,
		Yaw:          yaw,
		Pitch:        pitch,
		Roll:         rawRoll,
		RawYaw:       rawYaw,
		RawPitch:     rawPitch,
		Deviation:    tier,
		Sustained:    st.deviating,
		Consistency:  consistency,
		Duration:     st.duration,
		Confidence:   confidence,
	}
}

func (e *Estimator) classify(yaw, pitch float64) string {
	ay, ap := math.Abs(yaw), math.Abs(pitch)
	switch {
	case ay > e.cfg.YawThreshold || ap > e.cfg.PitchThreshold:
		return DeviationScreen
	case ay > e.cfg.MinorYawThreshold || ap > e.cfg.MinorPitchThreshold:
		return DeviationMinor
	default:
		return DeviationNone
	}
}

func pushBounded(s []float64, v float64, n int) []float64 {
	s = append(s, v)
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s
}

func pushBoundedBool(s []bool, v bool, n int) []bool {
	s = append(s, v)
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s
}

func meanOf(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

func trueFraction(s []bool) float64 {
	if len(s) == 0 {
		return 0
	}
	count := 0
	for _, v := range s {
		if v {
			count++
		}
	}
	return float64(count) / float64(len(s))
}
