// Command diorama renders a layered background scene to an image file.
//
// Usage:
//
//	diorama -scene scene.toml -output frame.png
//	diorama -scene scene.yaml -output sweep.webp -frames 24 -sweep 40
//	diorama -scene scene.toml -output live.png -watch
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	diorama "github.com/BenjaminBenetti/diorama-bg"
	"github.com/BenjaminBenetti/diorama-bg/loader"
	"github.com/BenjaminBenetti/diorama-bg/scene"
	"github.com/BenjaminBenetti/diorama-bg/transform"
)

type config struct {
	scene   string
	output  string
	width   int
	height  int
	frames  int
	sweep   float64
	watch   bool
	timeout time.Duration

	// images is shared by every render so that re-renders reuse decoded
	// layer bitmaps.
	images *loader.Cache
}

func main() {
	var (
		cfg     config
		verbose = flag.Bool("v", false, "verbose (debug) logging")
	)
	flag.StringVar(&cfg.scene, "scene", "scene.toml", "scene file (.toml, .yaml or .yml)")
	flag.StringVar(&cfg.output, "output", "diorama.png", "output file (.png, .jpg or .webp)")
	flag.IntVar(&cfg.width, "width", 0, "override the scene width")
	flag.IntVar(&cfg.height, "height", 0, "override the scene height")
	flag.IntVar(&cfg.frames, "frames", 1, "number of frames to render")
	flag.Float64Var(&cfg.sweep, "sweep", 0, "total yaw sweep in degrees across all frames")
	flag.BoolVar(&cfg.watch, "watch", false, "re-render whenever the scene or one of its images changes")
	flag.DurationVar(&cfg.timeout, "timeout", 30*time.Second, "layer load timeout")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	diorama.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if _, err := encoderFor(cfg.output); err != nil {
		log.Fatal(err)
	}
	if cfg.frames < 1 {
		log.Fatalf("invalid -frames %d", cfg.frames)
	}

	dir, err := filepath.Abs(filepath.Dir(cfg.scene))
	if err != nil {
		log.Fatal(err)
	}
	cfg.images = loader.NewCache(loader.New(loader.WithBaseDir(dir)), loader.DefaultCacheSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := render(ctx, cfg); err != nil {
		if !cfg.watch {
			log.Fatal(err)
		}
		log.Printf("render failed: %v", err)
	}
	if cfg.watch {
		if err := watch(ctx, cfg); err != nil {
			log.Fatal(err)
		}
	}
}

// render loads the scene and writes every frame.
func render(ctx context.Context, cfg config) error {
	s, err := scene.Load(cfg.scene)
	if err != nil {
		return err
	}

	loadCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()
	c, err := scene.Build(loadCtx, s,
		scene.WithSize(cfg.width, cfg.height),
		scene.WithLoader(cfg.images),
	)
	if c == nil {
		return err
	}
	if err != nil {
		// Failed layers are already dropped; render the rest.
		log.Printf("warning: %v", err)
	}

	base := c.Rotation()
	for i := 0; i < cfg.frames; i++ {
		yaw := transform.ToRadians(sweepAngle(cfg.sweep, i, cfg.frames))
		c.SetRotation(base.X, base.Y+yaw, base.Z)
		c.Render()

		path := framePath(cfg.output, i, cfg.frames)
		if err := writeImage(path, c.Canvas().Image()); err != nil {
			return err
		}
		log.Printf("wrote %s (%dx%d, 3D %v)", path, c.Canvas().Width(), c.Canvas().Height(), c.Is3DActive())
	}
	return nil
}

// watch re-renders whenever the scene file, or a cached layer image next to
// it, is written or replaced. The directory is watched rather than the file
// so that editors saving via rename are seen.
func watch(ctx context.Context, cfg config) error {
	target, err := filepath.Abs(cfg.scene)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	log.Printf("watching %s", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !affects(cfg.images, target, event.Name) {
				continue
			}
			if err := render(ctx, cfg); err != nil {
				log.Printf("render failed: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			log.Printf("watch error: %v", err)
		}
	}
}

// affects reports whether a change to name requires a re-render: either it
// is the scene file itself or a layer image that was cached, which is then
// dropped from the cache.
func affects(images *loader.Cache, scenePath, name string) bool {
	name = filepath.Clean(name)
	if name == scenePath {
		return true
	}
	rel, err := filepath.Rel(filepath.Dir(scenePath), name)
	if err != nil {
		return false
	}
	// Sources may be spelled relative to the scene or absolute.
	forgotRel := images.Forget(rel)
	forgotAbs := images.Forget(name)
	return forgotRel || forgotAbs
}
