package diorama

import (
	"math"

	"github.com/BenjaminBenetti/diorama-bg/projector"
	"github.com/BenjaminBenetti/diorama-bg/staging"
	"github.com/BenjaminBenetti/diorama-bg/transform"
)

const (
	// DefaultCameraDistance is the default camera Z position.
	DefaultCameraDistance = 5.0

	// DefaultPerspectiveStrength is the default depth scale strength.
	DefaultPerspectiveStrength = 1.0

	// ActiveEpsilon is the rotation length above which 3D is active.
	ActiveEpsilon = 0.001

	// Bounds of the depth-based scale applied by LayerAffine.
	MinDepthScale = 0.5
	MaxDepthScale = 1.2

	// skewFactor is the skew applied per radian-sine of yaw or pitch to a
	// layer at normalized depth 0.5.
	skewFactor = 0.3

	// minForeshorten keeps the yaw/pitch scale away from a singular matrix.
	minForeshorten = 0.05

	// strengthRamp is the rotation length at which the depth scale reaches
	// full strength. Below it the scale fades in so that leaving the
	// inactive state does not make layers jump.
	strengthRamp = math.Pi / 6
)

// View is the global 3D staging state owned by a Compositor and passed by
// pointer into the render-time math.
type View struct {
	// Rotation is the global Euler rotation in radians.
	Rotation transform.Vec3
	// Camera is the camera position. The camera always looks at the origin.
	Camera transform.Vec3
	// Perspective holds FOV (radians), aspect and clip distances.
	Perspective transform.Perspective
	// PerspectiveStrength scales the depth-based size change.
	PerspectiveStrength float64
}

// Active reports whether the rotation is far enough from zero for 3D
// effects to apply.
func (v *View) Active() bool {
	return v.Rotation.Length() > ActiveEpsilon
}

// MVP returns projection * view * model for the global rotation.
func (v *View) MVP(global *transform.Transform) transform.Mat4 {
	global.SetRotation(v.Rotation.X, v.Rotation.Y, v.Rotation.Z)
	return global.MVPMatrix(v.Camera, v.Perspective)
}

// DepthScale returns the clamped size multiplier for a layer at depth.
// Layers at the origin plane keep their size; deeper ones shrink.
func (v *View) DepthScale(depth float64) float64 {
	ref := v.Camera.Length()
	if ref < 1e-6 {
		ref = projector.DefaultReferenceDistance
	}
	dist := v.Camera.Distance(staging.Anchor(depth))
	ramp := math.Min(1, v.Rotation.Length()/strengthRamp)
	s := projector.PerspectiveScale(dist, v.PerspectiveStrength*ramp, ref)
	return math.Max(MinDepthScale, math.Min(MaxDepthScale, s))
}

// LayerAffine approximates the view's rotation for one layer with a 2D
// affine transform about the center of a width x height canvas:
//
//  1. translate to the center
//  2. rotate natively by the Z angle
//  3. yaw: horizontal scale by cos(Y) and vertical skew by sin(Y)
//  4. pitch: vertical scale by cos(X) and horizontal skew by sin(X)
//  5. uniform depth scale clamped to [MinDepthScale, MaxDepthScale]
//  6. translate back
//
// normDepth in [0, 1] is the layer's depth relative to the other layers;
// deeper layers skew more, which produces the parallax between layers.
// At zero rotation the result is the identity.
func LayerAffine(v *View, width, height, depth, normDepth float64) Matrix {
	cx, cy := width/2, height/2
	rx, ry, rz := v.Rotation.X, v.Rotation.Y, v.Rotation.Z
	k := skewFactor * (0.5 + normDepth)

	m := Translate(cx, cy)
	m = m.Multiply(Rotate(rz))
	m = m.Multiply(Scale(foreshorten(math.Cos(ry)), 1))
	m = m.Multiply(Shear(0, math.Sin(ry)*k))
	m = m.Multiply(Scale(1, foreshorten(math.Cos(rx))))
	m = m.Multiply(Shear(math.Sin(rx)*k, 0))
	s := v.DepthScale(depth)
	m = m.Multiply(Scale(s, s))
	return m.Multiply(Translate(-cx, -cy))
}

// foreshorten keeps the sign of c, which mirrors a layer seen from behind,
// but never lets its magnitude drop below minForeshorten.
func foreshorten(c float64) float64 {
	if math.Abs(c) < minForeshorten {
		return math.Copysign(minForeshorten, c)
	}
	return c
}
