package headpose

import "math"

// Mat3 is a 3x3 rotation matrix in row-major order.
type Mat3 [9]float64

// Identity returns the identity rotation.
func Identity() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// MulVec applies the rotation to a point.
func (m Mat3) MulVec(p Point3) Point3 {
	return Point3{
		X: m[0]*p.X + m[1]*p.Y + m[2]*p.Z,
		Y: m[3]*p.X + m[4]*p.Y + m[5]*p.Z,
		Z: m[6]*p.X + m[7]*p.Y + m[8]*p.Z,
	}
}

// Mul returns the matrix product m*n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = m[r*3]*n[c] + m[r*3+1]*n[3+c] + m[r*3+2]*n[6+c]
		}
	}
	return out
}

// RotationFromVector converts a Rodrigues axis-angle vector to a rotation
// matrix. The vector direction is the rotation axis and its magnitude the
// angle in radians.
func RotationFromVector(rx, ry, rz float64) Mat3 {
	theta := math.Sqrt(rx*rx + ry*ry + rz*rz)
	if theta < 1e-12 {
		return Identity()
	}
	kx, ky, kz := rx/theta, ry/theta, rz/theta
	s, c := math.Sin(theta), math.Cos(theta)
	t := 1 - c
	return Mat3{
		t*kx*kx + c, t*kx*ky - s*kz, t*kx*kz + s*ky,
		t*kx*ky + s*kz, t*ky*ky + c, t*ky*kz - s*kx,
		t*kx*kz - s*ky, t*ky*kz + s*kx, t*kz*kz + c,
	}
}

// EulerAngles decomposes a rotation into yaw, pitch and roll in degrees
// under the fixed convention R = Rz(roll) * Ry(yaw) * Rx(pitch), with the
// camera-aligned axes used by the canonical model (y down, z forward).
// Yaw is the horizontal head turn and pitch the vertical tilt.
func EulerAngles(m Mat3) (yaw, pitch, roll float64) {
	sy := math.Sqrt(m[0]*m[0] + m[3]*m[3])
	if sy < 1e-9 {
		// Gimbal lock: roll and pitch are coupled, attribute to pitch.
		yaw = math.Atan2(-m[6], sy)
		pitch = math.Atan2(-m[5], m[4])
		roll = 0
	} else {
		yaw = math.Atan2(-m[6], sy)
		pitch = math.Atan2(m[7], m[8])
		roll = math.Atan2(m[3], m[0])
	}
	const radToDeg = 180 / math.Pi
	return yaw * radToDeg, pitch * radToDeg, roll * radToDeg
}
