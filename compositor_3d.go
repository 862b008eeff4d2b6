package diorama

import (
	"github.com/BenjaminBenetti/diorama-bg/projector"
	"github.com/BenjaminBenetti/diorama-bg/staging"
	"github.com/BenjaminBenetti/diorama-bg/transform"
)

// SetRotation sets the global rotation in radians. (0, 0, 0) turns 3D off.
func (c *Compositor) SetRotation(x, y, z float64) {
	c.view.Rotation = transform.V3(x, y, z)
}

// Rotation returns the global rotation in radians.
func (c *Compositor) Rotation() transform.Vec3 {
	return c.view.Rotation
}

// SetCameraPosition moves the camera. It always looks at the origin.
func (c *Compositor) SetCameraPosition(x, y, z float64) {
	c.view.Camera = transform.V3(x, y, z)
}

// CameraPosition returns the camera position.
func (c *Compositor) CameraPosition() transform.Vec3 {
	return c.view.Camera
}

// SetFieldOfView sets the vertical field of view in degrees.
func (c *Compositor) SetFieldOfView(deg float64) {
	c.view.Perspective.FOV = transform.ToRadians(deg)
}

// FieldOfView returns the vertical field of view in degrees.
func (c *Compositor) FieldOfView() float64 {
	return transform.ToDegrees(c.view.Perspective.FOV)
}

// SetPerspectiveStrength sets how strongly depth changes layer size while
// 3D is active. Zero disables the effect.
func (c *Compositor) SetPerspectiveStrength(s float64) {
	c.view.PerspectiveStrength = s
}

// Is3DActive reports whether the global rotation is non-zero.
func (c *Compositor) Is3DActive() bool {
	return c.view.Active()
}

// View returns a copy of the 3D staging state.
func (c *Compositor) View() View {
	return c.view
}

// MVP returns the global model-view-projection matrix computed by the last
// Render. ok is false if that render had 3D inactive.
func (c *Compositor) MVP() (mvp transform.Mat4, ok bool) {
	return c.mvp, c.hasMVP
}

// ProjectLayer projects l's corners through the current view, whether or
// not 3D is active. The aspect used is the canvas's.
func (c *Compositor) ProjectLayer(l Layer) []projector.Projected {
	v := c.view
	v.Perspective.Aspect = c.canvas.Aspect()
	return c.proj.ProjectPoints(l.Vertices3D(), v.MVP(transform.New()))
}

// AutoSetDepths spaces layer depths linearly by stacking index.
func (c *Compositor) AutoSetDepths(spacing, start float64) {
	staging.AutoSetDepths(c.layers, spacing, start)
}

// StageDepths spreads layer depths over [0, maxDepth] with a power curve.
func (c *Compositor) StageDepths(maxDepth, curve float64) {
	staging.StagedDepths(c.layers, maxDepth, curve)
}

// SuggestPerspective returns a field of view and camera distance suited to
// the current depth spread. Nothing is applied.
func (c *Compositor) SuggestPerspective() staging.Suggestion {
	return staging.SuggestPerspective(c.layers)
}

// ApplySuggestion sets the field of view and moves the camera along +Z to
// the suggested distance.
func (c *Compositor) ApplySuggestion(s staging.Suggestion) {
	c.view.Perspective.FOV = s.FOV
	c.view.Camera = transform.V3(0, 0, s.CameraDistance)
}
