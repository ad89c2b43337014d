// Package headpose turns named 2D facial landmarks into yaw/pitch/roll
// angles and a per-session deviation state with hysteresis and decay. The
// pose is recovered by solving the perspective-n-point correspondence
// between a fixed canonical 3D face model and the observed landmarks under
// a fixed camera intrinsic approximation.
package headpose

// Point2 is a 2D point. Landmarks arrive normalized to [0,1]² frame space;
// internally the solver works in pixel coordinates.
type Point2 struct {
	X, Y float64
}

// Point3 is a 3D point in the canonical model frame, millimetre scale.
type Point3 struct {
	X, Y, Z float64
}

// Landmarks is the named set of 2D facial points consumed by the solver,
// in normalized [0,1]² frame space.
type Landmarks struct {
	NoseTip          Point2
	Chin             Point2
	LeftEyeCorner    Point2
	RightEyeCorner   Point2
	LeftMouthCorner  Point2
	RightMouthCorner Point2
}

// LandmarkCount is the number of model/image correspondences used by the
// solver.
const LandmarkCount = 6

// points returns the landmarks in canonical model order.
func (l *Landmarks) points() [LandmarkCount]Point2 {
	return [LandmarkCount]Point2{
		l.NoseTip,
		l.Chin,
		l.LeftEyeCorner,
		l.RightEyeCorner,
		l.LeftMouthCorner,
		l.RightMouthCorner,
	}
}

// CanonicalModel returns the fixed 3D face model in camera-aligned axes:
// x right, y down, z away from the camera. The nose tip is the origin; the
// chin sits below it and the eye line above, all slightly behind the nose.
func CanonicalModel() [LandmarkCount]Point3 {
	return [LandmarkCount]Point3{
		{0.0, 0.0, 0.0},      // nose tip
		{0.0, 63.6, 12.5},    // chin
		{-43.3, -32.7, 26.0}, // left eye outer corner
		{43.3, -32.7, 26.0},  // right eye outer corner
		{-28.9, 28.9, 24.1},  // left mouth corner
		{28.9, 28.9, 24.1},   // right mouth corner
	}
}

// Camera is the fixed pinhole intrinsic approximation: focal length equal
// to the frame width, principal point at the frame centre, no distortion.
type Camera struct {
	FocalLength float64
	CX, CY      float64
}

// CameraForFrame builds the intrinsic approximation for a frame size.
func CameraForFrame(width, height int) Camera {
	return Camera{
		FocalLength: float64(width),
		CX:          float64(width) / 2,
		CY:          float64(height) / 2,
	}
}
