package diorama

import (
	"image/color"

	"github.com/BenjaminBenetti/diorama-bg/projector"
	"github.com/BenjaminBenetti/diorama-bg/transform"
)

// CanvasOption configures a Canvas during creation.
//
// Example:
//
//	cv := diorama.NewCanvas(800, 600, diorama.WithBackground(color.Black))
type CanvasOption func(*canvasOptions)

type canvasOptions struct {
	background    color.Color
	interpolation Interpolation
}

func defaultCanvasOptions() canvasOptions {
	return canvasOptions{
		background:    color.Transparent,
		interpolation: InterpBilinear,
	}
}

// WithBackground sets the color the canvas is cleared to before each frame.
func WithBackground(c color.Color) CanvasOption {
	return func(o *canvasOptions) {
		o.background = c
	}
}

// WithInterpolation sets the bitmap resampling mode.
func WithInterpolation(i Interpolation) CanvasOption {
	return func(o *canvasOptions) {
		o.interpolation = i
	}
}

// Option configures a Compositor during creation.
//
// Example:
//
//	c, err := diorama.New(container,
//	    diorama.WithCanvasOptions(diorama.WithBackground(color.Black)),
//	    diorama.WithCulling(projector.DefaultCullMargin),
//	)
type Option func(*options)

type options struct {
	canvas      []CanvasOption
	perspective transform.Perspective
	camera      transform.Vec3
	strength    float64
	cull        bool
	cullMargin  float64
}

func defaultOptions() options {
	return options{
		perspective: transform.DefaultPerspective(),
		camera:      transform.V3(0, 0, DefaultCameraDistance),
		strength:    DefaultPerspectiveStrength,
		cullMargin:  projector.DefaultCullMargin,
	}
}

// WithCanvasOptions forwards options to the compositor's canvas.
func WithCanvasOptions(opts ...CanvasOption) Option {
	return func(o *options) {
		o.canvas = append(o.canvas, opts...)
	}
}

// WithPerspective sets the initial perspective settings. The aspect is
// overwritten from the canvas size before each 3D render.
func WithPerspective(p transform.Perspective) Option {
	return func(o *options) {
		o.perspective = p
	}
}

// WithCameraPosition sets the initial camera position.
func WithCameraPosition(pos transform.Vec3) Option {
	return func(o *options) {
		o.camera = pos
	}
}

// WithPerspectiveStrength scales the depth-based size change applied while
// 3D is active. Zero disables it.
func WithPerspectiveStrength(s float64) Option {
	return func(o *options) {
		o.strength = s
	}
}

// WithCulling skips layers whose corners all project further than margin
// pixels outside the canvas while 3D is active.
func WithCulling(margin float64) Option {
	return func(o *options) {
		o.cull = true
		o.cullMargin = margin
	}
}
