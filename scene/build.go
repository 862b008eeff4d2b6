package scene

import (
	"context"
	"fmt"

	diorama "github.com/BenjaminBenetti/diorama-bg"
	"github.com/BenjaminBenetti/diorama-bg/loader"
	"github.com/BenjaminBenetti/diorama-bg/staging"
	"github.com/BenjaminBenetti/diorama-bg/transform"
)

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	loader        loader.Loader
	width, height int
	extra         []diorama.Option
}

// WithLoader sets the loader used for every layer. By default layers use a
// loader.Default rooted at the scene directory.
func WithLoader(l loader.Loader) Option {
	return func(o *buildOptions) {
		o.loader = l
	}
}

// WithSize overrides the scene's canvas size. Zero keeps the scene value.
func WithSize(width, height int) Option {
	return func(o *buildOptions) {
		o.width, o.height = width, height
	}
}

// WithCompositorOptions appends options applied after the scene's own.
func WithCompositorOptions(opts ...diorama.Option) Option {
	return func(o *buildOptions) {
		o.extra = append(o.extra, opts...)
	}
}

// Build creates a compositor for s, loads every layer and applies staging
// and the 3D settings. Layers that fail to load are left out; their errors
// are returned together with the otherwise usable compositor.
func Build(ctx context.Context, s *Scene, opts ...Option) (*diorama.Compositor, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions{width: s.Width, height: s.Height}
	for _, opt := range opts {
		opt(&o)
	}
	if o.width == 0 || o.height == 0 {
		o.width, o.height = s.Width, s.Height
	}
	if o.loader == nil {
		o.loader = loader.New(loader.WithBaseDir(s.Dir))
	}

	c, err := diorama.New(&diorama.FixedContainer{Width: o.width, Height: o.height},
		append(s.compositorOptions(), o.extra...)...)
	if err != nil {
		return nil, err
	}
	if s.FOV > 0 {
		c.SetFieldOfView(s.FOV)
	}

	layers := make([]diorama.Layer, 0, len(s.Layers))
	for _, l := range s.Layers {
		layers = append(layers, s.imageLayer(l, o.loader))
	}
	loadErr := c.AddLayers(ctx, layers...)

	switch s.Staging.Mode {
	case StagingAuto:
		spacing := s.Staging.Spacing
		if spacing == 0 {
			spacing = staging.DefaultSpacing
		}
		c.AutoSetDepths(spacing, s.Staging.Start)
	case StagingStaged:
		maxDepth, curve := s.Staging.MaxDepth, s.Staging.Curve
		if maxDepth == 0 {
			maxDepth = staging.DefaultMaxDepth
		}
		if curve == 0 {
			curve = staging.DefaultCurve
		}
		c.StageDepths(maxDepth, curve)
	}
	if s.Staging.Suggest {
		sg := c.SuggestPerspective()
		c.ApplySuggestion(sg)
		diorama.Logger().Debug("scene: applied perspective suggestion",
			"fov", sg.FOVDegrees(), "cameraDistance", sg.CameraDistance)
	}

	c.SetRotation(
		transform.ToRadians(s.Rotation.X),
		transform.ToRadians(s.Rotation.Y),
		transform.ToRadians(s.Rotation.Z),
	)
	diorama.Logger().Info("scene: built",
		"layers", len(c.Layers()), "requested", len(s.Layers),
		"width", c.Canvas().Width(), "height", c.Canvas().Height())

	if loadErr != nil {
		return c, fmt.Errorf("scene: %w", loadErr)
	}
	return c, nil
}

func (s *Scene) compositorOptions() []diorama.Option {
	// Validate has already checked these parse.
	bg, _ := diorama.ParseHex(s.Background)
	interp, _ := diorama.ParseInterpolation(s.Interpolation)

	opts := []diorama.Option{
		diorama.WithCanvasOptions(diorama.WithBackground(bg), diorama.WithInterpolation(interp)),
	}
	if s.Camera != nil {
		opts = append(opts, diorama.WithCameraPosition(transform.V3(s.Camera.X, s.Camera.Y, s.Camera.Z)))
	}
	if s.PerspectiveStrength != nil {
		opts = append(opts, diorama.WithPerspectiveStrength(*s.PerspectiveStrength))
	}
	if s.CullMargin != nil {
		opts = append(opts, diorama.WithCulling(*s.CullMargin))
	}
	return opts
}

func (s *Scene) imageLayer(l Layer, ld loader.Loader) *diorama.ImageLayer {
	fit, _ := diorama.ParseFitMode(l.Fit)
	opts := []diorama.LayerOption{diorama.WithLoader(ld), diorama.WithFit(fit)}
	if l.Depth != nil {
		opts = append(opts, diorama.WithDepth(*l.Depth))
	}
	if l.Opacity != nil {
		opts = append(opts, diorama.WithOpacity(*l.Opacity))
	}
	return diorama.NewImageLayer(l.Src, l.Index, opts...)
}
