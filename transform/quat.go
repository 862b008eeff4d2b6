package transform

import "math"

// Quat is a rotation quaternion.
type Quat struct {
	X, Y, Z, W float64
}

// IdentityQuat returns the no-rotation quaternion.
func IdentityQuat() Quat {
	return Quat{W: 1}
}

// QuatFromEuler builds a quaternion from Euler angles in radians.
// The rotation applies X first, then Y, then Z (q = qz * qy * qx).
func QuatFromEuler(x, y, z float64) Quat {
	sx, cx := math.Sincos(x / 2)
	sy, cy := math.Sincos(y / 2)
	sz, cz := math.Sincos(z / 2)

	return Quat{
		X: sx*cy*cz - cx*sy*sz,
		Y: cx*sy*cz + sx*cy*sz,
		Z: cx*cy*sz - sx*sy*cz,
		W: cx*cy*cz + sx*sy*sz,
	}
}

// Mat4 returns the rotation matrix for q. q is assumed to be normalized.
func (q Quat) Mat4() Mat4 {
	x2, y2, z2 := q.X+q.X, q.Y+q.Y, q.Z+q.Z
	xx, yx, yy := q.X*x2, q.Y*x2, q.Y*y2
	zx, zy, zz := q.Z*x2, q.Z*y2, q.Z*z2
	wx, wy, wz := q.W*x2, q.W*y2, q.W*z2

	return Mat4{
		1 - yy - zz, yx + wz, zx - wy, 0,
		yx - wz, 1 - xx - zz, zy + wx, 0,
		zx + wy, zy - wx, 1 - xx - yy, 0,
		0, 0, 0, 1,
	}
}
