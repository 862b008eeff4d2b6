package diorama

import (
	"context"
	"sync"

	"github.com/BenjaminBenetti/diorama-bg/transform"
)

// LayerState is the lifecycle state of a layer.
type LayerState int

const (
	// LayerUnloaded means no load has been attempted yet.
	LayerUnloaded LayerState = iota
	// LayerLoading means a load is in flight.
	LayerLoading
	// LayerLoaded means the layer can paint.
	LayerLoaded
	// LayerFailed means the last load attempt failed.
	LayerFailed
)

// String returns the state name.
func (s LayerState) String() string {
	switch s {
	case LayerUnloaded:
		return "unloaded"
	case LayerLoading:
		return "loading"
	case LayerLoaded:
		return "loaded"
	case LayerFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Layer is one drawable unit of the composite.
//
// Implementations must be safe for concurrent use between Load (which may
// run on a background goroutine) and the render-side methods.
type Layer interface {
	// StackIndex is the 2D ordering key. Lower is closer to the viewer.
	StackIndex() int

	// Depth is the synthetic distance behind the origin plane.
	Depth() float64
	SetDepth(z float64)

	// State reports the lifecycle state.
	State() LayerState

	// Load prepares the layer for painting. Calls made while a load is in
	// flight share its outcome. Loading a loaded layer is a no-op.
	Load(ctx context.Context) error

	// Render paints the layer into c using c's current transform. stack is
	// a read-only snapshot of all layers in paint order. Rendering an
	// unloaded layer paints nothing and is not an error.
	Render(c *Canvas, stack []Layer) error

	// Vertices3D returns the layer's corners in world space.
	Vertices3D() []transform.Vec3
}

// unitCorners is the unit plane every layer is modeled as.
var unitCorners = [4]transform.Vec3{
	{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1},
}

// BaseLayer carries the identity shared by all layer kinds: stacking
// index, depth, the per-layer transform and lifecycle state. Embed it to
// build a new layer kind.
type BaseLayer struct {
	mu         sync.Mutex
	stackIndex int
	depth      float64
	xf         *transform.Transform
	state      LayerState
}

// NewBaseLayer creates a base layer whose depth defaults to its stacking
// index.
func NewBaseLayer(stackIndex int) *BaseLayer {
	b := &BaseLayer{
		stackIndex: stackIndex,
		xf:         transform.New(),
	}
	b.setDepthLocked(float64(stackIndex))
	return b
}

// StackIndex returns the stacking index.
func (b *BaseLayer) StackIndex() int {
	return b.stackIndex
}

// Depth returns the depth.
func (b *BaseLayer) Depth() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.depth
}

// SetDepth sets the depth and moves the layer to (0, 0, -z).
func (b *BaseLayer) SetDepth(z float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setDepthLocked(z)
}

func (b *BaseLayer) setDepthLocked(z float64) {
	b.depth = z
	b.xf.SetTranslation(0, 0, -z)
}

// State returns the lifecycle state.
func (b *BaseLayer) State() LayerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *BaseLayer) setState(s LayerState) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// ModelMatrix returns the layer's model matrix.
func (b *BaseLayer) ModelMatrix() transform.Mat4 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.xf.ModelMatrix()
}

// Vertices3D returns the unit plane corners through the layer's model
// matrix: a 2x2 square centered on (0, 0, -depth).
func (b *BaseLayer) Vertices3D() []transform.Vec3 {
	return b.scaledVertices(1)
}

func (b *BaseLayer) scaledVertices(xExtent float64) []transform.Vec3 {
	m := b.ModelMatrix()
	out := make([]transform.Vec3, len(unitCorners))
	for i, v := range unitCorners {
		v.X *= xExtent
		out[i] = m.TransformPoint(v)
	}
	return out
}
