package diorama

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/BenjaminBenetti/diorama-bg/projector"
	"github.com/BenjaminBenetti/diorama-bg/staging"
	"github.com/BenjaminBenetti/diorama-bg/transform"
)

// maxConcurrentLoads bounds the loads AddLayers runs at once.
const maxConcurrentLoads = 8

// Compositor owns an ordered set of layers and the single canvas they are
// painted onto, plus the global rotation, camera and perspective state.
//
// A Compositor is not safe for concurrent use. Layer loads may finish on
// other goroutines, but every Compositor method must be called from the
// goroutine that drives rendering. Mutating the layer set from inside a
// layer's Render is not supported.
type Compositor struct {
	container Container
	canvas    *Canvas
	proj      *projector.Projector
	layers    []Layer

	view   View
	global *transform.Transform
	mvp    transform.Mat4
	hasMVP bool

	cull       bool
	cullMargin float64
}

// New creates a compositor drawing for container. The canvas is sized to
// the container's measured size, or DefaultWidth x DefaultHeight if it
// reports none.
func New(container Container, opts ...Option) (*Compositor, error) {
	if isNilContainer(container) {
		return nil, ErrInvalidContainer
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	w, h := measure(container)
	c := &Compositor{
		container: container,
		canvas:    NewCanvas(w, h, o.canvas...),
		proj:      projector.New(w, h),
		view: View{
			Camera:              o.camera,
			Perspective:         o.perspective,
			PerspectiveStrength: o.strength,
		},
		global:     transform.New(),
		cull:       o.cull,
		cullMargin: o.cullMargin,
	}
	c.view.Perspective.Aspect = c.canvas.Aspect()
	return c, nil
}

// Canvas returns the drawing surface.
func (c *Compositor) Canvas() *Canvas {
	return c.canvas
}

// AddLayer appends layer and waits for it to load. If loading fails the
// layer is removed again before the error is returned, so callers never
// observe a half-added layer.
func (c *Compositor) AddLayer(ctx context.Context, layer Layer) error {
	if err := c.checkNew(layer); err != nil {
		return err
	}
	c.layers = append(c.layers, layer)

	if err := layer.Load(ctx); err != nil {
		c.RemoveLayer(layer)
		return err
	}
	Logger().Info("diorama: layer added",
		"stackIndex", layer.StackIndex(), "depth", layer.Depth(), "layers", len(c.layers))
	return nil
}

// AddLayers appends all layers and loads them concurrently. Layers that
// fail to load are removed; their errors are joined in the result.
func (c *Compositor) AddLayers(ctx context.Context, layers ...Layer) error {
	for i, l := range layers {
		if err := c.checkNew(l); err != nil {
			return err
		}
		if slices.Contains(layers[:i], l) {
			return ErrDuplicateLayer
		}
	}
	c.layers = append(c.layers, layers...)

	// The group only bounds concurrency. Each load records its own error
	// and returns nil so that one failure does not cancel the others.
	errs := make([]error, len(layers))
	var g errgroup.Group
	g.SetLimit(maxConcurrentLoads)
	for i, l := range layers {
		g.Go(func() error {
			errs[i] = l.Load(ctx)
			return nil
		})
	}
	g.Wait()

	for i, err := range errs {
		if err != nil {
			c.RemoveLayer(layers[i])
		}
	}
	return errors.Join(errs...)
}

func (c *Compositor) checkNew(layer Layer) error {
	if layer == nil {
		return ErrNilLayer
	}
	if slices.Contains(c.layers, layer) {
		return ErrDuplicateLayer
	}
	return nil
}

// RemoveLayer removes layer and reports whether it was present. A load
// still in flight for the layer completes against the orphaned layer.
func (c *Compositor) RemoveLayer(layer Layer) bool {
	i := slices.Index(c.layers, layer)
	if i < 0 {
		return false
	}
	c.layers = slices.Delete(c.layers, i, i+1)
	Logger().Info("diorama: layer removed", "stackIndex", layer.StackIndex(), "layers", len(c.layers))
	return true
}

// Clear removes every layer and wipes the canvas.
func (c *Compositor) Clear() {
	c.layers = nil
	c.canvas.Clear()
}

// Layers returns a snapshot of the layers in insertion order.
func (c *Compositor) Layers() []Layer {
	return slices.Clone(c.layers)
}

// LayerByStackIndex returns the first layer with stacking index i.
func (c *Compositor) LayerByStackIndex(i int) (Layer, bool) {
	for _, l := range c.layers {
		if l.StackIndex() == i {
			return l, true
		}
	}
	return nil, false
}

// RenderOrder returns the layers in paint order: farthest first, so the
// lowest stacking index among equal depths is painted last.
func (c *Compositor) RenderOrder() []Layer {
	return staging.SortByDepth(c.layers)
}

// Render redraws the canvas synchronously. It never blocks on loading:
// layers that are not loaded yet paint nothing this frame. A layer that
// fails or panics is logged and skipped; the remaining layers still paint.
func (c *Compositor) Render() {
	c.canvas.Clear()

	active := c.view.Active()
	c.hasMVP = false
	if active {
		c.view.Perspective.Aspect = c.canvas.Aspect()
		c.mvp = c.view.MVP(c.global)
		c.hasMVP = true
	}

	order := c.RenderOrder()
	minDepth, maxDepth := depthRange(order)
	w, h := float64(c.canvas.Width()), float64(c.canvas.Height())
	bounds := c.proj.Bounds()

	painted := 0
	for _, l := range order {
		if active && c.cull && c.proj.IsOutsideBounds(l, c.mvp, bounds, c.cullMargin) {
			Logger().Debug("diorama: layer culled", "stackIndex", l.StackIndex(), "depth", l.Depth())
			continue
		}
		depth := l.Depth()
		m := LayerAffine(&c.view, w, h, depth, normalizeDepth(depth, minDepth, maxDepth))
		if c.renderLayer(l, order, m) {
			painted++
		}
	}
	Logger().Debug("diorama: render pass",
		"layers", len(order), "painted", painted, "active3D", active,
		"width", c.canvas.Width(), "height", c.canvas.Height())
}

// renderLayer paints one layer under m and always restores the canvas
// state, including after a panic. It reports whether the layer succeeded.
func (c *Compositor) renderLayer(l Layer, stack []Layer, m Matrix) (ok bool) {
	depth := c.canvas.Depth()
	c.canvas.Push()
	defer c.canvas.unwind(depth)
	defer func() {
		if r := recover(); r != nil {
			Logger().Warn("diorama: layer render panicked",
				"stackIndex", l.StackIndex(), "panic", fmt.Sprint(r))
			ok = false
		}
	}()

	if !m.IsIdentity() {
		c.canvas.Transform(m)
	}
	if err := l.Render(c.canvas, stack); err != nil {
		Logger().Warn("diorama: layer render failed", "stackIndex", l.StackIndex(), "err", err)
		return false
	}
	return true
}

// Resize re-measures the container, resizes the canvas and projection
// bookkeeping to match, and re-renders.
func (c *Compositor) Resize() {
	w, h := measure(c.container)
	if err := c.canvas.Resize(w, h); err != nil {
		// measure never yields a non-positive size.
		Logger().Warn("diorama: resize failed", "err", err)
		return
	}
	c.proj.SetSize(w, h)
	c.view.Perspective.Aspect = c.canvas.Aspect()
	c.Render()
}

func depthRange(layers []Layer) (lo, hi float64) {
	for i, l := range layers {
		d := l.Depth()
		if i == 0 || d < lo {
			lo = d
		}
		if i == 0 || d > hi {
			hi = d
		}
	}
	return lo, hi
}

// normalizeDepth maps depth into [0, 1] over [lo, hi]. A zero spread maps
// everything to 0.
func normalizeDepth(depth, lo, hi float64) float64 {
	if hi-lo <= 0 {
		return 0
	}
	return (depth - lo) / (hi - lo)
}
