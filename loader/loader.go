// Package loader fetches and decodes layer bitmaps.
//
// Sources are file paths, file:// URLs or http(s):// URLs. Content is
// sniffed before decoding so misnamed files still load. Supported formats:
// PNG, JPEG, GIF, WebP, BMP, TIFF and TGA.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// DefaultMaxBytes caps how much data a single source may provide.
const DefaultMaxBytes = 64 << 20

var (
	// ErrEmptySource is returned for an empty source string.
	ErrEmptySource = errors.New("loader: empty source")

	// ErrUnsupportedFormat is returned when the content is not a known image.
	ErrUnsupportedFormat = errors.New("loader: unsupported image format")

	// ErrTooLarge is returned when a source exceeds the byte limit.
	ErrTooLarge = errors.New("loader: source exceeds size limit")
)

// Loader fetches and decodes a bitmap. Implementations must be safe for
// concurrent use.
type Loader interface {
	Load(ctx context.Context, src string) (image.Image, error)
}

// Func adapts a function to the Loader interface.
type Func func(ctx context.Context, src string) (image.Image, error)

// Load calls f(ctx, src).
func (f Func) Load(ctx context.Context, src string) (image.Image, error) {
	return f(ctx, src)
}

// Option configures a Default loader.
type Option func(*Default)

// WithHTTPClient sets the client used for http(s) sources.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Default) {
		d.client = c
	}
}

// WithMaxBytes sets the per-source byte limit.
func WithMaxBytes(n int64) Option {
	return func(d *Default) {
		d.maxBytes = n
	}
}

// WithBaseDir resolves relative file paths against dir.
func WithBaseDir(dir string) Option {
	return func(d *Default) {
		d.baseDir = dir
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Default) {
		d.SetLogger(l)
	}
}

// Default loads images from the local filesystem and over HTTP.
type Default struct {
	client   *http.Client
	maxBytes int64
	baseDir  string
	logger   atomic.Pointer[slog.Logger]
}

// New creates a Default loader.
func New(opts ...Option) *Default {
	d := &Default{
		client:   http.DefaultClient,
		maxBytes: DefaultMaxBytes,
	}
	d.logger.Store(slog.New(slog.DiscardHandler))
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetLogger replaces the diagnostics logger. Nil restores silence.
func (d *Default) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	d.logger.Store(l)
}

// Load fetches src and decodes it.
func (d *Default) Load(ctx context.Context, src string) (image.Image, error) {
	if strings.TrimSpace(src) == "" {
		return nil, ErrEmptySource
	}
	data, err := d.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data, src)
	if err != nil {
		return nil, fmt.Errorf("loader: decode %s: %w", src, err)
	}
	d.logger.Load().Debug("loader: decoded image",
		"src", src, "bytes", len(data), "mime", Sniff(data),
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return img, nil
}

func (d *Default) fetch(ctx context.Context, src string) ([]byte, error) {
	u, err := url.Parse(src)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return d.fetchHTTP(ctx, src)
		case "file":
			return d.readFile(ctx, u.Path)
		}
	}
	return d.readFile(ctx, src)
}

func (d *Default) readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(d.baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()

	data, err := d.readLimited(f)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	return data, nil
}

func (d *Default) fetchHTTP(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("loader: request %s: %w", src, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loader: fetch %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: src, StatusCode: resp.StatusCode}
	}
	data, err := d.readLimited(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", src, err)
	}
	return data, nil
}

func (d *Default) readLimited(r io.Reader) ([]byte, error) {
	if d.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, d.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > d.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// StatusError reports a non-200 HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("loader: fetch %s: unexpected status %d %s",
		e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Decode decodes data. The content is sniffed first; TGA has no magic
// number and is chosen by the name's extension instead.
func Decode(data []byte, name string) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrUnsupportedFormat
	}
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		return tga.Decode(bytes.NewReader(data))
	}
	if !filetype.IsImage(data) {
		return nil, ErrUnsupportedFormat
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return nil, err
	}
	return img, nil
}

// Sniff returns the detected MIME type of data, or "" if unknown.
func Sniff(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}
