package headpose

import (
	"errors"
	"math"
	"testing"

	"github.com/vigil-data/proctor/internal/testutil"
)

func rotX(deg float64) Mat3 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Mat3{1, 0, 0, 0, c, -s, 0, s, c}
}

func rotY(deg float64) Mat3 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Mat3{c, 0, s, 0, 1, 0, -s, 0, c}
}

func rotZ(deg float64) Mat3 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Mat3{c, -s, 0, s, c, 0, 0, 0, 1}
}

// composeRotation builds R = Rz(roll) * Ry(yaw) * Rx(pitch), the
// convention EulerAngles decomposes.
func composeRotation(yaw, pitch, roll float64) Mat3 {
	return rotZ(roll).Mul(rotY(yaw)).Mul(rotX(pitch))
}

func TestEulerAnglesKnownRotations(t *testing.T) {
	cases := []struct {
		name             string
		yaw, pitch, roll float64
	}{
		{"identity", 0, 0, 0},
		{"yaw only", 25, 0, 0},
		{"pitch only", 0, -18, 0},
		{"roll only", 0, 0, 12},
		{"combined", 30, -15, 8},
		{"negative yaw", -40, 10, -5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			yaw, pitch, roll := EulerAngles(composeRotation(tc.yaw, tc.pitch, tc.roll))
			testutil.AssertInDelta(t, yaw, tc.yaw, 1e-9)
			testutil.AssertInDelta(t, pitch, tc.pitch, 1e-9)
			testutil.AssertInDelta(t, roll, tc.roll, 1e-9)
		})
	}
}

func TestRotationFromVectorMatchesAxisRotations(t *testing.T) {
	angle := 33.0 * math.Pi / 180

	got := RotationFromVector(angle, 0, 0)
	want := rotX(33)
	for i := range got {
		testutil.AssertInDelta(t, got[i], want[i], 1e-12)
	}

	got = RotationFromVector(0, angle, 0)
	want = rotY(33)
	for i := range got {
		testutil.AssertInDelta(t, got[i], want[i], 1e-12)
	}
}

func TestRotationFromVectorSmallAngleIsIdentity(t *testing.T) {
	got := RotationFromVector(0, 0, 0)
	want := Identity()
	if got != want {
		t.Fatalf("zero vector: got %v, want identity", got)
	}
}

// projectLandmarks renders the canonical model under a known pose into
// normalized landmark coordinates.
func projectLandmarks(t *testing.T, r Mat3, tr Point3, width, height int) *Landmarks {
	t.Helper()
	cam := CameraForFrame(width, height)
	var pts [LandmarkCount]Point2
	for i, p := range CanonicalModel() {
		w := r.MulVec(p)
		q := Point3{X: w.X + tr.X, Y: w.Y + tr.Y, Z: w.Z + tr.Z}
		u, v, err := projectPoint(q, cam)
		testutil.AssertNoError(t, err)
		pts[i] = Point2{X: u / float64(width), Y: v / float64(height)}
	}
	return &Landmarks{
		NoseTip:          pts[0],
		Chin:             pts[1],
		LeftEyeCorner:    pts[2],
		RightEyeCorner:   pts[3],
		LeftMouthCorner:  pts[4],
		RightMouthCorner: pts[5],
	}
}

func TestSolvePnPRecoversKnownPose(t *testing.T) {
	const width, height = 640, 480
	cam := CameraForFrame(width, height)

	cases := []struct {
		name       string
		yaw, pitch float64
		tr         Point3
	}{
		{"frontal centred", 0, 0, Point3{0, 0, 450}},
		{"turned right", 20, 0, Point3{10, -5, 400}},
		{"tilted down", 0, 15, Point3{-20, 12, 500}},
		{"combined off-centre", -25, 10, Point3{30, 8, 380}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := composeRotation(tc.yaw, tc.pitch, 0)
			lm := projectLandmarks(t, r, tc.tr, width, height)

			var image [LandmarkCount]Point2
			for i, p := range lm.points() {
				image[i] = Point2{X: p.X * width, Y: p.Y * height}
			}
			pose, err := SolvePnP(CanonicalModel(), image, cam)
			testutil.AssertNoError(t, err)

			yaw, pitch, roll := EulerAngles(pose.R)
			testutil.AssertInDelta(t, yaw, tc.yaw, 1e-4)
			testutil.AssertInDelta(t, pitch, tc.pitch, 1e-4)
			testutil.AssertInDelta(t, roll, 0, 1e-4)
			testutil.AssertInDelta(t, pose.T.X, tc.tr.X, 1e-2)
			testutil.AssertInDelta(t, pose.T.Y, tc.tr.Y, 1e-2)
			testutil.AssertInDelta(t, pose.T.Z, tc.tr.Z, 1e-2)

			if rmse := ReprojectionRMSE(pose, CanonicalModel(), image, cam); rmse > 1e-6 {
				t.Fatalf("reprojection RMSE = %g, want near zero", rmse)
			}
		})
	}
}

func TestSolvePnPDegenerateLandmarks(t *testing.T) {
	cam := CameraForFrame(640, 480)
	var image [LandmarkCount]Point2
	for i := range image {
		image[i] = Point2{X: 320, Y: 240}
	}
	_, err := SolvePnP(CanonicalModel(), image, cam)
	if !errors.Is(err, ErrDegenerateLandmarks) {
		t.Fatalf("got error %v, want ErrDegenerateLandmarks", err)
	}
}
