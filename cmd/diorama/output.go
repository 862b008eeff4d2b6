package main

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// encoder writes img in one output format.
type encoder func(w io.Writer, img image.Image) error

var encoders = map[string]encoder{
	".png":  png.Encode,
	".jpg":  encodeJPEG,
	".jpeg": encodeJPEG,
	".webp": encodeWebP,
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: 92})
}

func encodeWebP(w io.Writer, img image.Image) error {
	return nativewebp.Encode(w, img, nil)
}

// encoderFor picks the encoder from the output file extension.
func encoderFor(path string) (encoder, error) {
	enc, ok := encoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("unsupported output format %q (use .png, .jpg or .webp)", filepath.Ext(path))
	}
	return enc, nil
}

// writeImage encodes img to path, creating parent directories as needed.
func writeImage(path string, img image.Image) error {
	enc, err := encoderFor(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := enc(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// framePath returns the output path of frame i out of n: the base path
// for a single frame, otherwise the base name with a zero-padded suffix.
func framePath(base string, i, n int) string {
	if n <= 1 {
		return base
	}
	ext := filepath.Ext(base)
	width := len(fmt.Sprint(n - 1))
	return fmt.Sprintf("%s_%0*d%s", strings.TrimSuffix(base, ext), width, i, ext)
}

// sweepAngle returns the yaw offset in degrees of frame i out of n when
// sweeping total degrees centered on the scene's own rotation.
func sweepAngle(total float64, i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return total * (float64(i)/float64(n-1) - 0.5)
}
