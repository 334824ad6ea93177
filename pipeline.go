package mipblur

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// Feature is a configured blur effect: the settings it was created from and
// the pass built from them. Creating a feature is where configuration errors
// surface; a feature that fails to create never reaches a pipeline.
type Feature struct {
	settings Settings
	pass     *Pass
}

// NewFeature validates s and creates the pass drawing through dev.
func NewFeature(dev Device, s Settings) (*Feature, error) {
	p, err := NewPass(dev, s)
	if err != nil {
		return nil, fmt.Errorf("create feature %q: %w", s.PassTag, err)
	}
	return &Feature{settings: p.settings, pass: p}, nil
}

// Settings returns the normalized settings the feature was created with.
func (f *Feature) Settings() Settings { return f.settings }

// Pass returns the feature's pass.
func (f *Feature) Pass() *Pass { return f.pass }

// Pipeline is a minimal host: it runs every enqueued pass once per frame in
// PassEvent order, always releasing each pass's frame resources.
type Pipeline struct {
	// CaptureDir is the directory captures are written to.
	CaptureDir string

	device       Device
	passes       []*Pass
	frame        uint64
	captureQueue []string
	lastCaptures []string
}

// NewPipeline creates a pipeline whose passes draw through dev.
func NewPipeline(dev Device) *Pipeline {
	return &Pipeline{device: dev, CaptureDir: "captures"}
}

// Device returns the pipeline's device.
func (pl *Pipeline) Device() Device { return pl.device }

// NewFeature creates a feature on the pipeline's device and enqueues its pass.
func (pl *Pipeline) NewFeature(s Settings) (*Feature, error) {
	f, err := NewFeature(pl.device, s)
	if err != nil {
		return nil, err
	}
	pl.Enqueue(f.pass)
	return f, nil
}

// Add enqueues a feature created with the package-level NewFeature.
func (pl *Pipeline) Add(f *Feature) {
	pl.Enqueue(f.pass)
}

// Enqueue adds p to the pipeline. Passes are kept sorted by event; passes
// sharing an event run in the order they were enqueued.
func (pl *Pipeline) Enqueue(p *Pass) {
	pl.passes = append(pl.passes, p)
	sort.SliceStable(pl.passes, func(i, j int) bool {
		return pl.passes[i].Event() < pl.passes[j].Event()
	})
}

// Passes returns the enqueued passes in execution order.
func (pl *Pipeline) Passes() []*Pass { return pl.passes }

// Frame returns the number of frames rendered.
func (pl *Pipeline) Frame() uint64 { return pl.frame }

// LastCaptures returns the files written after the most recent frame.
func (pl *Pipeline) LastCaptures() []string { return pl.lastCaptures }

// RenderFrame runs configure, execute and cleanup for every pass against the
// camera buffer color. A pass whose frame is skipped leaves color as it was
// and the frame continues with the next pass; skips are logged, not
// returned. Call-order violations are returned joined.
func (pl *Pipeline) RenderFrame(color Texture, desc Descriptor, cam Camera) error {
	pl.frame++
	var errs []error
	for _, p := range pl.passes {
		if err := pl.runPass(p, color, desc, cam); err != nil {
			errs = append(errs, err)
		}
	}
	pl.lastCaptures = pl.flushCaptures(color)
	return errors.Join(errs...)
}

func (pl *Pipeline) runPass(p *Pass, color Texture, desc Descriptor, cam Camera) (err error) {
	defer func() {
		if rerr := p.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	if err := p.Configure(color, desc); err != nil {
		return pl.frameError(p, err)
	}
	if err := p.Execute(cam); err != nil {
		return pl.frameError(p, err)
	}
	return nil
}

// frameError logs skipped frames and passes every other error through.
func (pl *Pipeline) frameError(p *Pass, err error) error {
	if errors.Is(err, ErrFrameSkipped) {
		p.logf(slog.LevelWarn, "frame skipped", "frame", pl.frame, "err", err)
		return nil
	}
	return err
}
