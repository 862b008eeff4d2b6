package transform

import "math"

// Mat4 is a 4x4 matrix stored in column-major order:
//
//	| 0  4  8  12 |
//	| 1  5  9  13 |
//	| 2  6  10 14 |
//	| 3  7  11 15 |
//
// Element (row r, column c) lives at index c*4+r.
type Mat4 [16]float64

// Identity4 returns the 4x4 identity matrix.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation creates a translation matrix.
func Translation(v Vec3) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		v.X, v.Y, v.Z, 1,
	}
}

// Scaling creates a scaling matrix.
func Scaling(v Vec3) Mat4 {
	return Mat4{
		v.X, 0, 0, 0,
		0, v.Y, 0, 0,
		0, 0, v.Z, 0,
		0, 0, 0, 1,
	}
}

// At returns the element at row r, column c.
func (m Mat4) At(r, c int) float64 {
	return m[c*4+r]
}

// Mul returns m * o. Applied to a point, o acts first.
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[c*4+r] = m[r]*o[c*4] +
				m[4+r]*o[c*4+1] +
				m[8+r]*o[c*4+2] +
				m[12+r]*o[c*4+3]
		}
	}
	return out
}

// MulVec4 returns m * v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		X: m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		Y: m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		Z: m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		W: m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// TransformPoint applies m to p with w = 1 and drops w.
// No perspective divide is performed.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	r := m.MulVec4(p.Point())
	return Vec3{X: r.X, Y: r.Y, Z: r.Z}
}

// ApproxEqual reports whether every element differs by at most eps.
func (m Mat4) ApproxEqual(o Mat4, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > eps {
			return false
		}
	}
	return true
}

// LookAt builds a right-handed view matrix for a camera at eye looking at
// target. A camera sitting on its target yields the identity.
func LookAt(eye, target, up Vec3) Mat4 {
	z := eye.Sub(target)
	if z.Length() < 1e-6 {
		return Identity4()
	}
	z = z.Normalize()
	x := up.Cross(z).Normalize()
	y := z.Cross(x).Normalize()

	return Mat4{
		x.X, y.X, z.X, 0,
		x.Y, y.Y, z.Y, 0,
		x.Z, y.Z, z.Z, 0,
		-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1,
	}
}

// PerspectiveMatrix builds a symmetric perspective projection mapping the
// view frustum to clip space with NDC z in [-1, 1]. An infinite far plane
// is supported.
func PerspectiveMatrix(fovY, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovY/2)
	if aspect == 0 {
		aspect = 1
	}
	m := Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, -1, -1,
		0, 0, -2 * near, 0,
	}
	if !math.IsInf(far, 1) && far != near {
		nf := 1 / (near - far)
		m[10] = (far + near) * nf
		m[14] = 2 * far * near * nf
	}
	return m
}
