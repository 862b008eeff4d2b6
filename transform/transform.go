// Package transform holds the 3D math behind the compositor's visibility
// and layout pipeline: vectors, quaternions, column-major 4x4 matrices and
// the cached model/view/projection [Transform].
//
// Pixels are never drawn through these matrices. They answer questions
// such as "where would this corner land on screen" and "is 3D active".
package transform

import "math"

// Default perspective settings.
const (
	DefaultFOV    = math.Pi / 4 // 45 degrees
	DefaultAspect = 800.0 / 600.0
	DefaultNear   = 0.1
	DefaultFar    = 1000.0
)

// Perspective describes a symmetric perspective frustum.
// FOV is the vertical field of view in radians.
type Perspective struct {
	FOV    float64
	Aspect float64
	Near   float64
	Far    float64
}

// DefaultPerspective returns a 45 degree frustum with a 4:3 aspect.
func DefaultPerspective() Perspective {
	return Perspective{
		FOV:    DefaultFOV,
		Aspect: DefaultAspect,
		Near:   DefaultNear,
		Far:    DefaultFar,
	}
}

// Matrix returns the projection matrix for p.
func (p Perspective) Matrix() Mat4 {
	return PerspectiveMatrix(p.FOV, p.Aspect, p.Near, p.Far)
}

// Transform is a rotation/translation/scale triple with a lazily derived
// model matrix. The zero value is not usable; call New.
type Transform struct {
	rotation    Vec3
	translation Vec3
	scale       Vec3

	model Mat4
	dirty bool
}

// New returns an identity transform with unit scale.
func New() *Transform {
	return &Transform{
		scale: V3(1, 1, 1),
		model: Identity4(),
	}
}

// SetRotation sets the Euler rotation in radians.
func (t *Transform) SetRotation(x, y, z float64) {
	t.rotation = V3(x, y, z)
	t.dirty = true
}

// SetTranslation sets the translation.
func (t *Transform) SetTranslation(x, y, z float64) {
	t.translation = V3(x, y, z)
	t.dirty = true
}

// SetScale sets the per-axis scale.
func (t *Transform) SetScale(x, y, z float64) {
	t.scale = V3(x, y, z)
	t.dirty = true
}

// Rotation returns the Euler rotation in radians.
func (t *Transform) Rotation() Vec3 { return t.rotation }

// Translation returns the translation.
func (t *Transform) Translation() Vec3 { return t.translation }

// Scale returns the per-axis scale.
func (t *Transform) Scale() Vec3 { return t.scale }

// ModelMatrix returns the model matrix, recomputing it only after a setter
// has run. The steps are post-multiplied in order: scale, rotate, translate.
func (t *Transform) ModelMatrix() Mat4 {
	if !t.dirty {
		return t.model
	}
	m := Identity4()
	m = m.Mul(Scaling(t.scale))
	m = m.Mul(QuatFromEuler(t.rotation.X, t.rotation.Y, t.rotation.Z).Mat4())
	m = m.Mul(Translation(t.translation))
	t.model = m
	t.dirty = false
	return m
}

// ViewMatrix returns a look-at view matrix. It is never cached.
func (t *Transform) ViewMatrix(eye, target, up Vec3) Mat4 {
	return LookAt(eye, target, up)
}

// DefaultViewMatrix looks from eye at the world origin with +Y up.
func (t *Transform) DefaultViewMatrix(eye Vec3) Mat4 {
	return LookAt(eye, Vec3{}, V3(0, 1, 0))
}

// ProjectionMatrix returns the perspective projection. It is never cached.
func (t *Transform) ProjectionMatrix(p Perspective) Mat4 {
	return p.Matrix()
}

// MVPMatrix returns projection * view * model for a camera at eye looking
// at the origin.
func (t *Transform) MVPMatrix(eye Vec3, p Perspective) Mat4 {
	return t.ProjectionMatrix(p).Mul(t.DefaultViewMatrix(eye)).Mul(t.ModelMatrix())
}
