package diorama

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
)

// Default canvas dimensions, used when a container reports no size.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Interpolation selects how bitmaps are resampled when drawn.
type Interpolation int

const (
	// InterpBilinear performs linear interpolation between 4 neighboring pixels.
	InterpBilinear Interpolation = iota
	// InterpNearest selects the closest pixel. Fast, blocky when scaled.
	InterpNearest
	// InterpApproxBilinear is a faster, lower quality bilinear.
	InterpApproxBilinear
	// InterpCatmullRom is the highest quality and slowest mode.
	InterpCatmullRom
)

// String returns the interpolation name as used in scene files.
func (i Interpolation) String() string {
	switch i {
	case InterpNearest:
		return "nearest"
	case InterpApproxBilinear:
		return "approx-bilinear"
	case InterpCatmullRom:
		return "catmull-rom"
	default:
		return "bilinear"
	}
}

// ParseInterpolation parses a name produced by Interpolation.String.
func ParseInterpolation(s string) (Interpolation, error) {
	switch s {
	case "", "bilinear":
		return InterpBilinear, nil
	case "nearest":
		return InterpNearest, nil
	case "approx-bilinear":
		return InterpApproxBilinear, nil
	case "catmull-rom":
		return InterpCatmullRom, nil
	}
	return InterpBilinear, fmt.Errorf("diorama: unknown interpolation %q", s)
}

func (i Interpolation) interpolator() draw.Interpolator {
	switch i {
	case InterpNearest:
		return draw.NearestNeighbor
	case InterpApproxBilinear:
		return draw.ApproxBiLinear
	case InterpCatmullRom:
		return draw.CatmullRom
	default:
		return draw.BiLinear
	}
}

// Canvas is the shared drawing surface. It maintains an RGBA image, the
// current affine transform and a transform stack, much like an HTML canvas
// 2D context. Only affine operations are available; there is no 3D
// rasterizer behind it.
type Canvas struct {
	width  int
	height int
	img    *image.RGBA

	matrix Matrix
	stack  []Matrix

	background color.Color
	interp     Interpolation
}

// NewCanvas creates a canvas with the given dimensions. Non-positive
// dimensions fall back to DefaultWidth x DefaultHeight.
func NewCanvas(width, height int, opts ...CanvasOption) *Canvas {
	options := defaultCanvasOptions()
	for _, opt := range opts {
		opt(&options)
	}
	width, height = sanitizeSize(width, height)

	return &Canvas{
		width:      width,
		height:     height,
		img:        image.NewRGBA(image.Rect(0, 0, width, height)),
		matrix:     Identity(),
		stack:      make([]Matrix, 0, 8),
		background: options.background,
		interp:     options.interpolation,
	}
}

// sanitizeSize substitutes the default size when either dimension is
// not positive.
func sanitizeSize(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return DefaultWidth, DefaultHeight
	}
	return width, height
}

// Width returns the width of the canvas in pixels.
func (c *Canvas) Width() int {
	return c.width
}

// Height returns the height of the canvas in pixels.
func (c *Canvas) Height() int {
	return c.height
}

// Aspect returns width / height.
func (c *Canvas) Aspect() float64 {
	return float64(c.width) / float64(c.height)
}

// Image returns the backing image. It is reused across frames; copy it
// if it must outlive the next render.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Clear fills the entire canvas with the background color.
func (c *Canvas) Clear() {
	bg := c.background
	if bg == nil {
		bg = color.Transparent
	}
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
}

// Resize changes the canvas dimensions, reallocating the pixel buffer.
// The transform and its stack are preserved. Returns an error if width or
// height is <= 0.
func (c *Canvas) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("diorama: invalid dimensions: width=%d, height=%d (both must be > 0)", width, height)
	}
	if c.width == width && c.height == height {
		return nil
	}
	c.width = width
	c.height = height
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

// Push saves the current transform.
func (c *Canvas) Push() {
	c.stack = append(c.stack, c.matrix)
}

// Pop restores the last saved transform.
func (c *Canvas) Pop() {
	if len(c.stack) == 0 {
		return
	}
	c.matrix = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// Depth returns the number of saved states.
func (c *Canvas) Depth() int {
	return len(c.stack)
}

// unwind pops saved states until only depth remain.
func (c *Canvas) unwind(depth int) {
	for len(c.stack) > depth {
		c.Pop()
	}
}

// Translate applies a translation to the transformation matrix.
func (c *Canvas) Translate(x, y float64) {
	c.matrix = c.matrix.Multiply(Translate(x, y))
}

// Scale applies a scaling transformation.
func (c *Canvas) Scale(x, y float64) {
	c.matrix = c.matrix.Multiply(Scale(x, y))
}

// Rotate applies a rotation (angle in radians).
func (c *Canvas) Rotate(angle float64) {
	c.matrix = c.matrix.Multiply(Rotate(angle))
}

// Shear applies a shear transformation.
func (c *Canvas) Shear(x, y float64) {
	c.matrix = c.matrix.Multiply(Shear(x, y))
}

// Transform multiplies the current transformation matrix by m (current * m).
func (c *Canvas) Transform(m Matrix) {
	c.matrix = c.matrix.Multiply(m)
}

// GetTransform returns a copy of the current transformation matrix.
func (c *Canvas) GetTransform() Matrix {
	return c.matrix
}

// DrawImageOptions specifies parameters for drawing an image.
type DrawImageOptions struct {
	// X, Y specify the top-left corner in user space.
	X, Y float64

	// DstWidth and DstHeight specify the size in user space.
	// If zero, the source dimensions are used.
	DstWidth  float64
	DstHeight float64

	// SrcRect restricts sampling to part of the source. Nil means all of it.
	SrcRect *image.Rectangle

	// Opacity in (0, 1]. Zero means fully opaque.
	Opacity float64
}

// DrawImage draws img with its top-left corner at (x, y) scaled to w x h
// in user space. The full current transform, including rotation and skew,
// is applied.
func (c *Canvas) DrawImage(img image.Image, x, y, w, h float64) {
	c.DrawImageEx(img, DrawImageOptions{X: x, Y: y, DstWidth: w, DstHeight: h})
}

// DrawImageEx draws an image with advanced options.
func (c *Canvas) DrawImageEx(img image.Image, opts DrawImageOptions) {
	if img == nil {
		return
	}
	sr := img.Bounds()
	if opts.SrcRect != nil {
		sr = opts.SrcRect.Intersect(sr)
	}
	if sr.Empty() || opts.Opacity < 0 {
		return
	}
	if opts.Opacity == 0 || opts.Opacity > 1 {
		opts.Opacity = 1
	}

	dstW := opts.DstWidth
	dstH := opts.DstHeight
	if dstW == 0 {
		dstW = float64(sr.Dx())
	}
	if dstH == 0 {
		dstH = float64(sr.Dy())
	}

	// Source pixel space -> user space -> device space.
	s2d := c.matrix.
		Multiply(Translate(opts.X, opts.Y)).
		Multiply(Scale(dstW/float64(sr.Dx()), dstH/float64(sr.Dy()))).
		Multiply(Translate(-float64(sr.Min.X), -float64(sr.Min.Y)))
	if _, ok := s2d.Invert(); !ok {
		return
	}

	var dopts *draw.Options
	if opts.Opacity < 1 {
		a := uint16(opts.Opacity * 0xffff)
		dopts = &draw.Options{SrcMask: image.NewUniform(color.Alpha16{A: a})}
	}
	c.interp.interpolator().Transform(c.img, s2d.Aff3(), img, sr, draw.Over, dopts)
}

// EncodePNG writes the canvas as PNG to w.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return png.Encode(w, c.img)
}

// SavePNG saves the canvas to a PNG file.
func (c *Canvas) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("diorama: create %s: %w", path, err)
	}
	if err := c.EncodePNG(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("diorama: encode %s: %w", path, err)
	}
	return f.Close()
}
