package main

import (
	"context"
	"image"
	"path/filepath"
	"testing"

	"github.com/BenjaminBenetti/diorama-bg/loader"
)

func TestAffects(t *testing.T) {
	dir := t.TempDir()
	scenePath := filepath.Join(dir, "scene.toml")
	images := loader.NewCache(loader.Func(func(context.Context, string) (image.Image, error) {
		return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
	}), 4)
	for _, src := range []string{"sky.png", filepath.Join(dir, "abs.png")} {
		if _, err := images.Load(context.Background(), src); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name string
		file string
		want bool
	}{
		{"scene itself", scenePath, true},
		{"cached relative source", filepath.Join(dir, "sky.png"), true},
		{"cached absolute source", filepath.Join(dir, "abs.png"), true},
		{"already forgotten", filepath.Join(dir, "sky.png"), false},
		{"unrelated file", filepath.Join(dir, "notes.txt"), false},
	}
	for _, tt := range tests {
		if got := affects(images, scenePath, tt.file); got != tt.want {
			t.Errorf("%s: affects(%q) = %v, want %v", tt.name, tt.file, got, tt.want)
		}
	}
}
