package diorama

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"golang.org/x/sync/singleflight"

	"github.com/BenjaminBenetti/diorama-bg/loader"
	"github.com/BenjaminBenetti/diorama-bg/transform"
)

// FitMode controls how a bitmap is placed inside the canvas.
type FitMode int

const (
	// FitContain scales the bitmap to fit entirely, letterboxing or
	// pillarboxing the remainder.
	FitContain FitMode = iota
	// FitCover scales the bitmap to fill the canvas, cropping the overflow.
	FitCover
	// FitStretch ignores the bitmap aspect and fills the canvas.
	FitStretch
)

// String returns the fit mode name as used in scene files.
func (f FitMode) String() string {
	switch f {
	case FitCover:
		return "cover"
	case FitStretch:
		return "stretch"
	default:
		return "contain"
	}
}

// ParseFitMode parses a name produced by FitMode.String.
func ParseFitMode(s string) (FitMode, error) {
	switch s {
	case "", "contain":
		return FitContain, nil
	case "cover":
		return FitCover, nil
	case "stretch":
		return FitStretch, nil
	}
	return FitContain, fmt.Errorf("diorama: unknown fit mode %q", s)
}

// errNoImage is returned when a loader reports success without a bitmap.
var errNoImage = errors.New("loader returned no image")

// LayerOption configures an ImageLayer.
type LayerOption func(*ImageLayer)

// WithLoader sets the loader used to fetch the layer's bitmap.
func WithLoader(l loader.Loader) LayerOption {
	return func(il *ImageLayer) {
		il.loader = l
	}
}

// WithDepth overrides the default depth (the stacking index).
func WithDepth(z float64) LayerOption {
	return func(il *ImageLayer) {
		il.SetDepth(z)
	}
}

// WithFit sets how the bitmap is placed inside the canvas.
func WithFit(f FitMode) LayerOption {
	return func(il *ImageLayer) {
		il.fit = f
	}
}

// WithOpacity sets the layer opacity in (0, 1].
func WithOpacity(a float64) LayerOption {
	return func(il *ImageLayer) {
		il.opacity = math.Max(0, math.Min(1, a))
	}
}

// ImageLayer is a layer backed by a bitmap that is fetched asynchronously.
type ImageLayer struct {
	*BaseLayer

	src     string
	loader  loader.Loader
	fit     FitMode
	opacity float64

	flight singleflight.Group

	// Guarded by BaseLayer.mu.
	img     image.Image
	loadErr error
}

// NewImageLayer creates an unloaded image layer for src.
func NewImageLayer(src string, stackIndex int, opts ...LayerOption) *ImageLayer {
	l := &ImageLayer{
		BaseLayer: NewBaseLayer(stackIndex),
		src:       src,
		opacity:   1,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.loader == nil {
		l.loader = loader.New()
	}
	propagateLogger(l.loader)
	return l
}

// Source returns the image source.
func (l *ImageLayer) Source() string {
	return l.src
}

// Fit returns the fit mode.
func (l *ImageLayer) Fit() FitMode {
	return l.fit
}

// Opacity returns the layer opacity.
func (l *ImageLayer) Opacity() float64 {
	return l.opacity
}

// Bitmap returns the decoded image, or nil until loaded.
func (l *ImageLayer) Bitmap() image.Image {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.img
}

// Err returns the error of the last failed load, if any.
func (l *ImageLayer) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadErr
}

// Load fetches and decodes the bitmap. Concurrent calls share a single
// fetch and its outcome. A failed layer may be loaded again.
func (l *ImageLayer) Load(ctx context.Context) error {
	if l.State() == LayerLoaded {
		return nil
	}
	_, err, _ := l.flight.Do("load", func() (any, error) {
		return nil, l.load(ctx)
	})
	return err
}

func (l *ImageLayer) load(ctx context.Context) error {
	l.mu.Lock()
	if l.state == LayerLoaded {
		l.mu.Unlock()
		return nil
	}
	l.state = LayerLoading
	l.mu.Unlock()

	img, err := l.loader.Load(ctx, l.src)
	if err == nil && img == nil {
		err = errNoImage
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.state = LayerFailed
		l.loadErr = err
		return fmt.Errorf("%w: %s: %w", ErrLayerLoad, l.src, err)
	}
	l.img = img
	l.loadErr = nil
	l.state = LayerLoaded
	Logger().Info("diorama: layer loaded", "src", l.src,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return nil
}

// loadInBackground starts a fire-and-forget load. Failures are logged.
func (l *ImageLayer) loadInBackground() {
	go func() {
		if err := l.Load(context.Background()); err != nil {
			Logger().Warn("diorama: background layer load failed", "src", l.src, "err", err)
		}
	}()
}

// Render paints the bitmap fitted into the canvas. Before the bitmap is
// available it starts loading and paints nothing.
func (l *ImageLayer) Render(c *Canvas, _ []Layer) error {
	l.mu.Lock()
	state, img := l.state, l.img
	l.mu.Unlock()

	switch state {
	case LayerLoaded:
	case LayerLoading:
		return nil
	default:
		l.loadInBackground()
		return nil
	}

	if l.opacity <= 0 {
		return nil
	}
	x, y, w, h := fitRect(img.Bounds(), float64(c.Width()), float64(c.Height()), l.fit)
	c.DrawImageEx(img, DrawImageOptions{
		X:         x,
		Y:         y,
		DstWidth:  w,
		DstHeight: h,
		Opacity:   l.opacity,
	})
	return nil
}

// AspectVertices3D is like Vertices3D but stretches the plane's X extent
// by the bitmap aspect once the bitmap is loaded.
func (l *ImageLayer) AspectVertices3D() []transform.Vec3 {
	img := l.Bitmap()
	if img == nil || img.Bounds().Dy() == 0 {
		return l.Vertices3D()
	}
	b := img.Bounds()
	return l.scaledVertices(float64(b.Dx()) / float64(b.Dy()))
}

// fitRect places an image of bounds b inside a w x h area.
func fitRect(b image.Rectangle, w, h float64, mode FitMode) (x, y, dw, dh float64) {
	iw, ih := float64(b.Dx()), float64(b.Dy())
	if iw == 0 || ih == 0 || mode == FitStretch {
		return 0, 0, w, h
	}
	s := math.Min(w/iw, h/ih)
	if mode == FitCover {
		s = math.Max(w/iw, h/ih)
	}
	dw, dh = iw*s, ih*s
	return (w - dw) / 2, (h - dh) / 2, dw, dh
}
