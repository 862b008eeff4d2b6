// Package scene reads declarative compositor descriptions from TOML or YAML
// files and builds ready-to-render compositors from them.
//
// A minimal TOML scene:
//
//	width = 1280
//	height = 720
//	background = "#101820"
//	rotation = { x = 0, y = 12, z = 0 }
//
//	[staging]
//	mode = "staged"
//
//	[[layers]]
//	src = "sky.png"
//	index = 2
//
//	[[layers]]
//	src = "hills.png"
//	index = 1
//	fit = "cover"
//
// Angles are in degrees. Relative layer sources resolve against the
// directory of the scene file.
package scene

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	diorama "github.com/BenjaminBenetti/diorama-bg"
)

// Format identifies a scene file encoding.
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
)

// Staging modes.
const (
	StagingNone   = ""
	StagingAuto   = "auto"
	StagingStaged = "staged"
)

var (
	// ErrUnknownFormat is returned for file extensions other than .toml,
	// .yaml and .yml.
	ErrUnknownFormat = errors.New("scene: unknown format")

	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("scene: invalid scene")
)

// Vec3 is a vector in scene files.
type Vec3 struct {
	X float64 `toml:"x" yaml:"x"`
	Y float64 `toml:"y" yaml:"y"`
	Z float64 `toml:"z" yaml:"z"`
}

// Staging selects how layer depths are assigned after loading. Staging
// overrides explicit layer depths.
type Staging struct {
	// Mode is "", "auto" or "staged".
	Mode string `toml:"mode" yaml:"mode"`

	// Auto mode.
	Spacing float64 `toml:"spacing" yaml:"spacing"`
	Start   float64 `toml:"start" yaml:"start"`

	// Staged mode.
	MaxDepth float64 `toml:"max_depth" yaml:"max_depth"`
	Curve    float64 `toml:"curve" yaml:"curve"`

	// Suggest applies the suggested field of view and camera distance
	// once depths are final.
	Suggest bool `toml:"suggest" yaml:"suggest"`
}

// Layer describes one image layer.
type Layer struct {
	Src     string   `toml:"src" yaml:"src"`
	Index   int      `toml:"index" yaml:"index"`
	Depth   *float64 `toml:"depth" yaml:"depth"`
	Fit     string   `toml:"fit" yaml:"fit"`
	Opacity *float64 `toml:"opacity" yaml:"opacity"`
}

// Scene is a decoded scene file.
type Scene struct {
	Width         int    `toml:"width" yaml:"width"`
	Height        int    `toml:"height" yaml:"height"`
	Background    string `toml:"background" yaml:"background"`
	Interpolation string `toml:"interpolation" yaml:"interpolation"`

	// Rotation is the global rotation in degrees.
	Rotation Vec3  `toml:"rotation" yaml:"rotation"`
	Camera   *Vec3 `toml:"camera" yaml:"camera"`
	// FOV is the vertical field of view in degrees. Zero keeps the default.
	FOV                 float64  `toml:"fov" yaml:"fov"`
	PerspectiveStrength *float64 `toml:"perspective_strength" yaml:"perspective_strength"`
	// CullMargin enables culling with the given margin in pixels.
	CullMargin *float64 `toml:"cull_margin" yaml:"cull_margin"`

	Staging Staging `toml:"staging" yaml:"staging"`
	Layers  []Layer `toml:"layers" yaml:"layers"`

	// Dir is the directory relative layer sources resolve against. Load
	// sets it to the scene file's directory.
	Dir string `toml:"-" yaml:"-"`
}

type decoder interface {
	Decode(v any) error
}

// decoders builds a strict decoder per format: unknown keys are errors.
var decoders = map[Format]func(r io.Reader) decoder{
	TOML: func(r io.Reader) decoder {
		return toml.NewDecoder(r).DisallowUnknownFields()
	},
	YAML: func(r io.Reader) decoder {
		d := yaml.NewDecoder(r)
		d.KnownFields(true)
		return d
	},
}

// FormatOf returns the format implied by a file name's extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Decode reads and validates a scene in the given format.
func Decode(r io.Reader, f Format) (*Scene, error) {
	newDecoder, ok := decoders[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	s := &Scene{}
	if err := newDecoder(r).Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("scene: decode %s: %w", f, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the scene file at path. The format follows the extension.
func Load(path string) (*Scene, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: open: %w", err)
	}
	defer fp.Close()

	s, err := Decode(fp, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	s.Dir = filepath.Dir(path)
	return s, nil
}

// Validate checks value ranges and enumerations.
func (s *Scene) Validate() error {
	var errs []error
	if s.Width < 0 || s.Height < 0 {
		errs = append(errs, fmt.Errorf("negative size %dx%d", s.Width, s.Height))
	}
	if _, err := diorama.ParseHex(s.Background); err != nil {
		errs = append(errs, err)
	}
	if _, err := diorama.ParseInterpolation(s.Interpolation); err != nil {
		errs = append(errs, err)
	}
	if s.FOV < 0 || s.FOV >= 180 {
		errs = append(errs, fmt.Errorf("fov %v out of range (0, 180)", s.FOV))
	}
	if s.CullMargin != nil && *s.CullMargin < 0 {
		errs = append(errs, fmt.Errorf("negative cull margin %v", *s.CullMargin))
	}
	switch s.Staging.Mode {
	case StagingNone, StagingAuto, StagingStaged:
	default:
		errs = append(errs, fmt.Errorf("unknown staging mode %q", s.Staging.Mode))
	}
	if s.Staging.Curve < 0 || s.Staging.MaxDepth < 0 {
		errs = append(errs, errors.New("staging curve and max_depth must not be negative"))
	}
	for i, l := range s.Layers {
		if l.Src == "" {
			errs = append(errs, fmt.Errorf("layer %d: empty src", i))
		}
		if _, err := diorama.ParseFitMode(l.Fit); err != nil {
			errs = append(errs, fmt.Errorf("layer %d: %w", i, err))
		}
		if l.Opacity != nil && (*l.Opacity < 0 || *l.Opacity > 1) {
			errs = append(errs, fmt.Errorf("layer %d: opacity %v out of range [0, 1]", i, *l.Opacity))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
