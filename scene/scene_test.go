package scene

import (
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	diorama "github.com/BenjaminBenetti/diorama-bg"
	"github.com/BenjaminBenetti/diorama-bg/loader"
)

const tomlScene = `
width = 320
height = 200
background = "#102030"
interpolation = "nearest"
rotation = { x = 0, y = 15, z = 0 }
camera = { x = 0, y = 0, z = 8 }
fov = 50
perspective_strength = 0.5
cull_margin = 20

[staging]
mode = "staged"
max_depth = 10
curve = 1

[[layers]]
src = "sky.png"
index = 2

[[layers]]
src = "hills.png"
index = 1
fit = "cover"
opacity = 0.75

[[layers]]
src = "trees.png"
index = 0
depth = 0.5
`

const yamlScene = `
width: 320
height: 200
background: "#102030"
interpolation: nearest
rotation: {x: 0, y: 15, z: 0}
camera: {x: 0, y: 0, z: 8}
fov: 50
perspective_strength: 0.5
cull_margin: 20
staging:
  mode: staged
  max_depth: 10
  curve: 1
layers:
  - src: sky.png
    index: 2
  - src: hills.png
    index: 1
    fit: cover
    opacity: 0.75
  - src: trees.png
    index: 0
    depth: 0.5
`

func memLoader() loader.Func {
	return func(_ context.Context, src string) (image.Image, error) {
		if strings.HasPrefix(src, "missing") {
			return nil, os.ErrNotExist
		}
		img := image.NewRGBA(image.Rect(0, 0, 4, 2))
		for i := range img.Pix {
			img.Pix[i] = 0xff
		}
		return img, nil
	}
}

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"toml", TOML, tomlScene},
		{"yaml", YAML, yamlScene},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Decode(strings.NewReader(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if s.Width != 320 || s.Height != 200 || s.Background != "#102030" || s.Interpolation != "nearest" {
				t.Errorf("canvas fields = %+v", s)
			}
			if s.Rotation != (Vec3{Y: 15}) || s.Camera == nil || *s.Camera != (Vec3{Z: 8}) {
				t.Errorf("rotation = %+v, camera = %+v", s.Rotation, s.Camera)
			}
			if s.FOV != 50 || s.PerspectiveStrength == nil || *s.PerspectiveStrength != 0.5 {
				t.Errorf("fov = %v, strength = %v", s.FOV, s.PerspectiveStrength)
			}
			if s.CullMargin == nil || *s.CullMargin != 20 {
				t.Errorf("cull margin = %v", s.CullMargin)
			}
			if s.Staging != (Staging{Mode: StagingStaged, MaxDepth: 10, Curve: 1}) {
				t.Errorf("staging = %+v", s.Staging)
			}
			if len(s.Layers) != 3 {
				t.Fatalf("layers = %d, want 3", len(s.Layers))
			}
			hills := s.Layers[1]
			if hills.Src != "hills.png" || hills.Index != 1 || hills.Fit != "cover" ||
				hills.Opacity == nil || *hills.Opacity != 0.75 || hills.Depth != nil {
				t.Errorf("layer 1 = %+v", hills)
			}
			if d := s.Layers[2].Depth; d == nil || *d != 0.5 {
				t.Errorf("layer 2 depth = %v", d)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		data    string
		wantErr error
	}{
		{"unknown format", Format("json"), `{}`, ErrUnknownFormat},
		{"unknown toml key", TOML, "widht = 3\n", nil},
		{"unknown yaml key", YAML, "widht: 3\n", nil},
		{"malformed toml", TOML, "width = = 3\n", nil},
		{"bad fit", TOML, "[[layers]]\nsrc = \"a.png\"\nfit = \"tile\"\n", ErrInvalid},
		{"bad opacity", YAML, "layers:\n  - src: a.png\n    opacity: 2\n", ErrInvalid},
		{"empty src", YAML, "layers:\n  - index: 3\n", ErrInvalid},
		{"bad background", TOML, "background = \"#zz\"\n", ErrInvalid},
		{"bad interpolation", TOML, "interpolation = \"lanczos\"\n", ErrInvalid},
		{"bad staging", TOML, "[staging]\nmode = \"random\"\n", ErrInvalid},
		{"negative size", YAML, "width: -1\n", ErrInvalid},
		{"fov out of range", YAML, "fov: 200\n", ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.data), tt.format)
			if err == nil {
				t.Fatal("Decode() should fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, f := range []Format{TOML, YAML} {
		s, err := Decode(strings.NewReader(""), f)
		if err != nil {
			t.Errorf("%s: Decode(empty) error = %v", f, err)
			continue
		}
		if len(s.Layers) != 0 || s.Width != 0 {
			t.Errorf("%s: empty scene = %+v", f, s)
		}
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"scene.toml", TOML, false},
		{"scene.YAML", YAML, false},
		{"dir/scene.yml", YAML, false},
		{"scene.json", "", true},
		{"scene", "", true},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.name)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("FormatOf(%q) = %q, %v", tt.name, got, err)
		}
	}
}

func TestBuild(t *testing.T) {
	s, err := Decode(strings.NewReader(tomlScene), TOML)
	if err != nil {
		t.Fatal(err)
	}
	c, err := Build(context.Background(), s, WithLoader(memLoader()))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if c.Canvas().Width() != 320 || c.Canvas().Height() != 200 {
		t.Errorf("canvas = %dx%d", c.Canvas().Width(), c.Canvas().Height())
	}
	if len(c.Layers()) != 3 {
		t.Fatalf("layers = %d, want 3", len(c.Layers()))
	}
	// Staged with curve 1 over [0, 10] overrides the explicit depth.
	for idx, want := range map[int]float64{0: 0, 1: 5, 2: 10} {
		l, ok := c.LayerByStackIndex(idx)
		if !ok {
			t.Fatalf("layer %d missing", idx)
		}
		if l.Depth() != want {
			t.Errorf("layer %d depth = %v, want %v", idx, l.Depth(), want)
		}
	}
	hills, _ := c.LayerByStackIndex(1)
	if il := hills.(*diorama.ImageLayer); il.Fit() != diorama.FitCover || il.Opacity() != 0.75 {
		t.Errorf("hills fit=%v opacity=%v", il.Fit(), il.Opacity())
	}

	if math.Abs(c.FieldOfView()-50) > 1e-9 {
		t.Errorf("FieldOfView() = %v", c.FieldOfView())
	}
	if c.CameraPosition().Z != 8 || c.View().PerspectiveStrength != 0.5 {
		t.Errorf("camera = %+v, strength = %v", c.CameraPosition(), c.View().PerspectiveStrength)
	}
	if !c.Is3DActive() || math.Abs(c.Rotation().Y-15*math.Pi/180) > 1e-12 {
		t.Errorf("rotation = %+v", c.Rotation())
	}

	c.Render()
	if got := c.Canvas().Image().RGBAAt(160, 100); got.A != 0xff {
		t.Errorf("center pixel = %v, want opaque", got)
	}
}

func TestBuildOptions(t *testing.T) {
	s := &Scene{
		Staging: Staging{Mode: StagingAuto, Spacing: 2, Start: 1, Suggest: true},
		Layers: []Layer{
			{Src: "a.png", Index: 0},
			{Src: "missing.png", Index: 1},
			{Src: "b.png", Index: 2},
		},
	}
	c, err := Build(context.Background(), s, WithLoader(memLoader()), WithSize(64, 48))
	if !errors.Is(err, diorama.ErrLayerLoad) {
		t.Fatalf("Build() error = %v, want ErrLayerLoad", err)
	}
	if c == nil {
		t.Fatal("Build() should return the compositor despite load errors")
	}
	if c.Canvas().Width() != 64 || c.Canvas().Height() != 48 {
		t.Errorf("canvas = %dx%d, want 64x48", c.Canvas().Width(), c.Canvas().Height())
	}
	if len(c.Layers()) != 2 {
		t.Fatalf("layers = %d, want 2", len(c.Layers()))
	}
	// Auto staging ranks the surviving layers: depths 1 and 3.
	a, _ := c.LayerByStackIndex(0)
	b, _ := c.LayerByStackIndex(2)
	if a.Depth() != 1 || b.Depth() != 3 {
		t.Errorf("depths = %v, %v, want 1, 3", a.Depth(), b.Depth())
	}
	// Spread 2 suggests 30 degrees at distance avg+5 = 7.
	if math.Abs(c.FieldOfView()-30) > 1e-9 || c.CameraPosition().Z != 7 {
		t.Errorf("fov = %v, camera = %+v", c.FieldOfView(), c.CameraPosition())
	}
	if c.Is3DActive() {
		t.Error("zero rotation should leave 3D off")
	}

	if _, err := Build(context.Background(), &Scene{Staging: Staging{Mode: "x"}}); !errors.Is(err, ErrInvalid) {
		t.Errorf("Build(invalid) error = %v", err)
	}
}

func TestLoadResolvesRelativeSources(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	fp, err := os.Create(filepath.Join(dir, "layer.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(fp, img); err != nil {
		t.Fatal(err)
	}
	if err := fp.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "scene.yaml")
	data := "width: 16\nheight: 16\nlayers:\n  - src: layer.png\n    index: 0\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Dir != dir {
		t.Errorf("Dir = %q, want %q", s.Dir, dir)
	}
	c, err := Build(context.Background(), s)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	c.Render()
	if got := c.Canvas().Image().RGBAAt(8, 8); got.A != 0xff {
		t.Errorf("center pixel = %v, want the layer", got)
	}

	if _, err := Load(filepath.Join(dir, "scene.json")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Load(json) error = %v", err)
	}
	if _, err := Load(filepath.Join(dir, "absent.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(absent) error = %v", err)
	}
}
