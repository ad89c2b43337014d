package headpose

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Pose is a recovered rigid transform mapping canonical model coordinates
// into the camera frame.
type Pose struct {
	R Mat3
	T Point3
}

const (
	pnpMaxIterations = 40
	pnpConvergence   = 1e-10
)

var (
	// ErrDegenerateLandmarks means the observed points are too collapsed
	// for a pose to be recovered, typically a zero eye-corner spread.
	ErrDegenerateLandmarks = errors.New("headpose: degenerate landmark configuration")

	// ErrBehindCamera means the refinement drove a model point behind the
	// image plane, so the pose hypothesis is invalid.
	ErrBehindCamera = errors.New("headpose: model point behind camera")
)

// projectPoint maps a camera-frame point onto the image plane in pixels.
func projectPoint(q Point3, cam Camera) (u, v float64, err error) {
	if q.Z < 1e-6 {
		return 0, 0, ErrBehindCamera
	}
	u = cam.FocalLength*q.X/q.Z + cam.CX
	v = cam.FocalLength*q.Y/q.Z + cam.CY
	return u, v, nil
}

// SolvePnP recovers the pose of the canonical model from observed image
// points in pixel coordinates. The solve is Gauss-Newton refinement of
// the reprojection residual, seeded from the nose position and the eye
// corner spread, with the rotation updated through small axis-angle
// increments.
func SolvePnP(model [LandmarkCount]Point3, image [LandmarkCount]Point2, cam Camera) (Pose, error) {
	// Depth seed from the eye corner baseline, lateral seed from the nose.
	modelSpread := dist3(model[2], model[3])
	imageSpread := math.Hypot(image[3].X-image[2].X, image[3].Y-image[2].Y)
	if imageSpread < 1e-6 {
		return Pose{}, ErrDegenerateLandmarks
	}
	tz := cam.FocalLength * modelSpread / imageSpread
	pose := Pose{
		R: Identity(),
		T: Point3{
			X: (image[0].X - cam.CX) * tz / cam.FocalLength,
			Y: (image[0].Y - cam.CY) * tz / cam.FocalLength,
			Z: tz,
		},
	}

	jac := mat.NewDense(2*LandmarkCount, 6, nil)
	res := mat.NewVecDense(2*LandmarkCount, nil)
	var delta mat.VecDense

	for iter := 0; iter < pnpMaxIterations; iter++ {
		for i, p := range model {
			w := pose.R.MulVec(p)
			q := Point3{X: w.X + pose.T.X, Y: w.Y + pose.T.Y, Z: w.Z + pose.T.Z}
			u, v, err := projectPoint(q, cam)
			if err != nil {
				return Pose{}, err
			}
			res.SetVec(2*i, image[i].X-u)
			res.SetVec(2*i+1, image[i].Y-v)

			invZ := 1 / q.Z
			f := cam.FocalLength
			// Rows of d(u,v)/dq for the pinhole projection.
			au := Point3{X: f * invZ, Y: 0, Z: -f * q.X * invZ * invZ}
			av := Point3{X: 0, Y: f * invZ, Z: -f * q.Y * invZ * invZ}
			// d(u,v)/dδω = w × a for a left-multiplied axis-angle update.
			setJacobianRow(jac, 2*i, cross3(w, au), au)
			setJacobianRow(jac, 2*i+1, cross3(w, av), av)
		}

		var qr mat.QR
		qr.Factorize(jac)
		if err := qr.SolveVecTo(&delta, false, res); err != nil {
			return Pose{}, fmt.Errorf("headpose: pose refinement failed: %w", err)
		}

		dR := RotationFromVector(delta.AtVec(0), delta.AtVec(1), delta.AtVec(2))
		pose.R = dR.Mul(pose.R)
		pose.T.X += delta.AtVec(3)
		pose.T.Y += delta.AtVec(4)
		pose.T.Z += delta.AtVec(5)

		if mat.Norm(&delta, 2) < pnpConvergence {
			break
		}
	}
	return pose, nil
}

// ReprojectionRMSE measures the pixel-space fit of a pose against the
// observed points. Points behind the camera are treated as maximal error.
func ReprojectionRMSE(pose Pose, model [LandmarkCount]Point3, image [LandmarkCount]Point2, cam Camera) float64 {
	var sum float64
	for i, p := range model {
		w := pose.R.MulVec(p)
		q := Point3{X: w.X + pose.T.X, Y: w.Y + pose.T.Y, Z: w.Z + pose.T.Z}
		u, v, err := projectPoint(q, cam)
		if err != nil {
			return math.Inf(1)
		}
		du, dv := image[i].X-u, image[i].Y-v
		sum += du*du + dv*dv
	}
	return math.Sqrt(sum / (2 * LandmarkCount))
}

func setJacobianRow(jac *mat.Dense, row int, rot, trans Point3) {
	jac.Set(row, 0, rot.X)
	jac.Set(row, 1, rot.Y)
	jac.Set(row, 2, rot.Z)
	jac.Set(row, 3, trans.X)
	jac.Set(row, 4, trans.Y)
	jac.Set(row, 5, trans.Z)
}

func cross3(a, b Point3) Point3 {
	return Point3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func dist3(a, b Point3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
