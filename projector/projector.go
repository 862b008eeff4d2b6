// Package projector maps 3D points through a model-view-projection matrix
// onto surface pixel coordinates and provides the culling helpers built on
// top of that mapping.
package projector

import (
	"math"

	"github.com/BenjaminBenetti/diorama-bg/transform"
)

const (
	// DefaultReferenceDistance is the distance at which PerspectiveScale
	// returns 1.
	DefaultReferenceDistance = 5.0

	// DefaultCullMargin is the pixel margin used by IsOutsideBounds callers
	// that have no better value.
	DefaultCullMargin = 50.0

	// minScaleDistance keeps PerspectiveScale away from division by zero.
	minScaleDistance = 0.1
)

// Point is a position on the drawing surface in pixels.
type Point struct {
	X, Y float64
}

// Bounds is an axis-aligned pixel rectangle.
type Bounds struct {
	Min, Max Point
}

// Rect returns the bounds of a width x height surface anchored at the origin.
func Rect(width, height float64) Bounds {
	return Bounds{Max: Point{X: width, Y: height}}
}

// Projected is the result of projecting one point. Visible is false when
// the point fell behind the camera or outside the clip range; X and Y are
// meaningless in that case.
type Projected struct {
	Point
	Visible bool
}

// VertexSource exposes world-space corner vertices for culling.
type VertexSource interface {
	Vertices3D() []transform.Vec3
}

// Projector converts normalized device coordinates to surface pixels.
type Projector struct {
	width  float64
	height float64
}

// New creates a projector for a width x height surface.
func New(width, height int) *Projector {
	return &Projector{width: float64(width), height: float64(height)}
}

// SetSize updates the surface dimensions.
func (p *Projector) SetSize(width, height int) {
	p.width = float64(width)
	p.height = float64(height)
}

// Size returns the surface dimensions.
func (p *Projector) Size() (width, height float64) {
	return p.width, p.height
}

// Bounds returns the full surface rectangle.
func (p *Projector) Bounds() Bounds {
	return Rect(p.width, p.height)
}

// ProjectPoint projects pt through mvp. It reports false, without an error,
// when w is zero or the normalized z is outside [-1, 1].
func (p *Projector) ProjectPoint(pt transform.Vec3, mvp transform.Mat4) (Point, bool) {
	clip := mvp.MulVec4(pt.Point())
	if clip.W == 0 {
		return Point{}, false
	}
	nx := clip.X / clip.W
	ny := clip.Y / clip.W
	nz := clip.Z / clip.W
	if nz < -1 || nz > 1 || math.IsNaN(nz) {
		return Point{}, false
	}

	return Point{
		X: (nx + 1) / 2 * p.width,
		Y: (1 - ny) / 2 * p.height,
	}, true
}

// ProjectPoints projects every point. The result has the same length and
// order as pts so callers can correlate indices.
func (p *Projector) ProjectPoints(pts []transform.Vec3, mvp transform.Mat4) []Projected {
	out := make([]Projected, len(pts))
	for i, pt := range pts {
		sp, ok := p.ProjectPoint(pt, mvp)
		out[i] = Projected{Point: sp, Visible: ok}
	}
	return out
}

// IsOutsideBounds reports whether none of src's vertices projects visibly
// inside b expanded by margin.
func (p *Projector) IsOutsideBounds(src VertexSource, mvp transform.Mat4, b Bounds, margin float64) bool {
	projected := p.ProjectPoints(src.Vertices3D(), mvp)
	visible := make([]Point, 0, len(projected))
	for _, pp := range projected {
		if pp.Visible {
			visible = append(visible, pp.Point)
		}
	}
	return len(ClipToBounds(visible, b, margin)) == 0
}

// PerspectiveScale is a distance based size heuristic independent of any
// matrix. It returns 1 when strength is 0, and otherwise
// 1 + (referenceDistance/max(|z|, 0.1) - 1) * strength.
func PerspectiveScale(z, strength, referenceDistance float64) float64 {
	if strength == 0 {
		return 1
	}
	d := math.Max(math.Abs(z), minScaleDistance)
	return 1 + (referenceDistance/d-1)*strength
}

// ClipToBounds returns the points inside b expanded by margin on every side.
func ClipToBounds(points []Point, b Bounds, margin float64) []Point {
	out := make([]Point, 0, len(points))
	for _, pt := range points {
		if pt.X >= b.Min.X-margin && pt.X <= b.Max.X+margin &&
			pt.Y >= b.Min.Y-margin && pt.Y <= b.Max.Y+margin {
			out = append(out, pt)
		}
	}
	return out
}
