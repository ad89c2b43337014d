package headpose

import (
	"testing"

	"github.com/vigil-data/proctor/internal/testutil"
)

// testConfig keeps thresholds and windows small so transitions can be
// driven with a handful of frames.
func testConfig() Config {
	return Config{
		YawThreshold:         20,
		PitchThreshold:       15,
		MinorYawThreshold:    10,
		MinorPitchThreshold:  8,
		SmoothingWindow:      3,
		ConsistencyThreshold: 0.6,
		DecayFactor:          0.9,
	}
}

// faceAt renders landmarks for a face at the given yaw and pitch.
func faceAt(t *testing.T, yaw, pitch float64) *Landmarks {
	t.Helper()
	return projectLandmarks(t, composeRotation(yaw, pitch, 0), Point3{0, 0, 450}, 640, 480)
}

func TestEstimateFrontalFace(t *testing.T) {
	e := NewEstimator(testConfig())
	st := NewState()

	est := e.Estimate(faceAt(t, 0, 0), 640, 480, st, 0.1)
	if !est.FaceDetected {
		t.Fatal("face not detected")
	}
	testutil.AssertInDelta(t, est.Yaw, 0, 0.1)
	testutil.AssertInDelta(t, est.Pitch, 0, 0.1)
	if est.Deviation != DeviationNone {
		t.Fatalf("deviation = %q, want %q", est.Deviation, DeviationNone)
	}
	if est.Confidence <= 0.9 {
		t.Fatalf("confidence = %v, want > 0.9 for an exact fit", est.Confidence)
	}
}

func TestEstimateDeviationTiers(t *testing.T) {
	e := NewEstimator(testConfig())

	cases := []struct {
		name       string
		yaw, pitch float64
		want       string
	}{
		{"centred", 0, 0, DeviationNone},
		{"minor turn", 14, 0, DeviationMinor},
		{"minor tilt", 0, 11, DeviationMinor},
		{"full turn", 30, 0, DeviationScreen},
		{"full tilt negative", 0, -25, DeviationScreen},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			est := e.Estimate(faceAt(t, tc.yaw, tc.pitch), 640, 480, NewState(), 0.1)
			if est.Deviation != tc.want {
				t.Fatalf("yaw=%v pitch=%v: deviation = %q, want %q (smoothed yaw=%v pitch=%v)",
					tc.yaw, tc.pitch, est.Deviation, tc.want, est.Yaw, est.Pitch)
			}
		})
	}
}

func TestEstimateDurationAccrualAndDecay(t *testing.T) {
	e := NewEstimator(testConfig())
	st := NewState()

	// Sustained deviation accrues dt per frame.
	var est Estimate
	for i := 0; i < 4; i++ {
		est = e.Estimate(faceAt(t, 30, 0), 640, 480, st, 0.5)
	}
	if !est.Sustained {
		t.Fatal("expected sustained deviation after repeated off-screen frames")
	}
	testutil.AssertInDelta(t, est.Duration, 2.0, 1e-9)

	// Returning to centre decays the duration multiplicatively once the
	// recent window drops below the consistency threshold. The duration
	// shrinks but never reaches zero.
	prev := est.Duration
	decayed := false
	for i := 0; i < 6; i++ {
		est = e.Estimate(faceAt(t, 0, 0), 640, 480, st, 0.5)
		if !est.Sustained {
			decayed = true
			if est.Duration >= prev {
				t.Fatalf("duration %v did not shrink from %v", est.Duration, prev)
			}
			if est.Duration <= 0 {
				t.Fatalf("duration decayed to %v, want > 0", est.Duration)
			}
		}
		prev = est.Duration
	}
	if !decayed {
		t.Fatal("deviation never cleared after returning to centre")
	}
}

func TestEstimateNoFaceIsAGap(t *testing.T) {
	e := NewEstimator(testConfig())
	st := NewState()

	for i := 0; i < 3; i++ {
		e.Estimate(faceAt(t, 30, 0), 640, 480, st, 0.5)
	}
	before := st.Duration()

	est := e.Estimate(nil, 640, 480, st, 5.0)
	if est.FaceDetected {
		t.Fatal("face reported on nil landmarks")
	}
	if st.Duration() != before {
		t.Fatalf("no-face frame changed duration: %v -> %v", before, st.Duration())
	}
	// No face means no deviation evidence: the frame must not keep the
	// gaze violation firing while the candidate is out of view.
	if est.Sustained {
		t.Fatal("no-face frame reported a sustained deviation")
	}
	if est.Deviation != DeviationNone {
		t.Fatalf("deviation = %q, want %q", est.Deviation, DeviationNone)
	}

	// The temporal context survives the gap: the next off-screen frame
	// keeps accruing rather than starting over.
	est = e.Estimate(faceAt(t, 30, 0), 640, 480, st, 0.5)
	testutil.AssertInDelta(t, est.Duration, before+0.5, 1e-9)
}

func TestEstimateSmoothingDampsSpike(t *testing.T) {
	e := NewEstimator(testConfig())
	st := NewState()

	e.Estimate(faceAt(t, 0, 0), 640, 480, st, 0.1)
	e.Estimate(faceAt(t, 0, 0), 640, 480, st, 0.1)
	est := e.Estimate(faceAt(t, 30, 0), 640, 480, st, 0.1)

	// One spike averaged over a 3 frame window stays near 10 degrees.
	testutil.AssertInDelta(t, est.Yaw, 10, 0.5)
	if est.Sustained {
		t.Fatal("single spike should not sustain a deviation")
	}
}
