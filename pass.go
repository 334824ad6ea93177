package mipblur

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// State is the position of a pass in its per-frame lifecycle.
type State uint8

const (
	StateUnconfigured State = iota // created, no frame configured yet
	StateConfigured                // Configure succeeded or skipped the frame
	StateExecuted                  // Execute ran (fully or skipped)
	StateReleased                  // frame resources freed
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "Unconfigured"
	case StateConfigured:
		return "Configured"
	case StateExecuted:
		return "Executed"
	case StateReleased:
		return "Released"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// FrameStats describes the most recent frame of a pass.
type FrameStats struct {
	Frame       uint64
	Levels      int
	Draws       int
	Allocations int
	Releases    int
	// Skipped is set when the frame was abandoned and the camera buffer left
	// unmodified.
	Skipped bool
}

// Pass blurs a camera color buffer with a box-filtered mip pyramid.
//
// A host drives it once per frame: Configure, then Execute, then Release.
// Release must run even when Configure or Execute fail. A Pass is not safe
// for concurrent use.
type Pass struct {
	id       uuid.UUID
	settings Settings
	device   Device
	state    State

	planner Planner
	pyramid Pyramid

	color  Texture
	desc   Descriptor
	source Texture
	// targets is the level arena: slot i-1 holds level i. Its length always
	// equals the current level count; it is rebuilt wholesale on resize.
	targets     []Texture
	outstanding int
	skip        error

	buf   commandBuffer
	stats FrameStats
	frame uint64
}

// NewPass creates a pass drawing through dev. Settings are validated; a
// missing material is a configuration error and no pass is created.
func NewPass(dev Device, s Settings) (*Pass, error) {
	if dev == nil {
		return nil, ErrNoDevice
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Pass{
		id:       uuid.New(),
		settings: s.normalized(),
		device:   dev,
	}, nil
}

// ID returns the unique identifier of this pass, used in log records.
func (p *Pass) ID() uuid.UUID { return p.id }

// Tag returns the pass label.
func (p *Pass) Tag() string { return p.settings.PassTag }

// Event returns the pipeline insertion point.
func (p *Pass) Event() PassEvent { return p.settings.Event }

// State returns the lifecycle state.
func (p *Pass) State() State { return p.state }

// BlurLevel returns the current blur strength.
func (p *Pass) BlurLevel() int { return p.settings.BlurLevel }

// SetBlurLevel sets the blur strength, clamped to [0, MaxBlurLevel]. It takes
// effect at the next Execute.
func (p *Pass) SetBlurLevel(v int) {
	p.settings.BlurLevel = clampBlurLevel(v)
}

// Pyramid returns the level table of the current screen size.
func (p *Pass) Pyramid() Pyramid { return p.pyramid }

// Planner returns the planner owned by this pass.
func (p *Pass) Planner() *Planner { return &p.planner }

// Commands returns the sequence recorded by the last Execute. The slice is
// reused by the next Configure; the textures it references are invalid after
// Release.
func (p *Pass) Commands() []Command { return p.buf.cmds }

// Outstanding returns the number of textures allocated by this pass and not
// yet released.
func (p *Pass) Outstanding() int { return p.outstanding }

// Stats returns the statistics of the most recent frame.
func (p *Pass) Stats() FrameStats { return p.stats }

// Configure prepares a frame: it copies color into a new mip-chained source
// texture and rebuilds the level table when desc's size changed since the
// previous frame.
//
// A failure skips the frame: the pass still moves to StateConfigured so the
// host's Execute and Release calls stay valid, and the returned error wraps
// ErrFrameSkipped.
func (p *Pass) Configure(color Texture, desc Descriptor) error {
	switch p.state {
	case StateConfigured, StateExecuted:
		// The previous frame was never released. Free it before reuse so its
		// targets do not leak into a resized arena.
		_ = p.violation("Configure")
		p.releaseFrame()
	}

	p.frame++
	p.stats = FrameStats{Frame: p.frame}
	p.state = StateConfigured
	p.skip = nil
	p.buf.reset()

	if color == nil || desc.Width <= 0 || desc.Height <= 0 {
		return p.skipFrame(fmt.Errorf("%w: %dx%d", ErrInvalidTarget, desc.Width, desc.Height))
	}
	p.color, p.desc = color, desc

	pyr, changed := p.planner.Plan(desc.Width, desc.Height)
	p.pyramid = pyr
	if changed || len(p.targets) != pyr.LevelCount {
		p.releaseTargets()
		p.targets = make([]Texture, pyr.LevelCount)
		p.logf(slog.LevelDebug, "level table rebuilt",
			"width", desc.Width, "height", desc.Height, "levels", pyr.LevelCount)
	}
	p.stats.Levels = pyr.LevelCount

	src, err := p.device.NewMipTexture(color, desc.mipDescriptor())
	if err != nil {
		return p.skipFrame(fmt.Errorf("source mip texture: %w", err))
	}
	p.source = src
	p.track()
	return nil
}

// levelStep is one iteration of the up-sampling loop. It reads readLevel's
// input and writes the result into arena slot writeSlot, which holds level
// readLevel (slot = level-1). writeSlot is -1 for the camera target.
type levelStep struct {
	readLevel int
	writeSlot int
	viewport  Size
	input     Texture
	inputMip  int
}

// stepFor builds the step for level i. The coarsest level reads the source
// mip chain at mip i; finer levels read the previous step's target.
func (p *Pass) stepFor(i int) levelStep {
	n := p.pyramid.LevelCount
	st := levelStep{readLevel: i, writeSlot: i - 1}
	if i == 0 {
		st.viewport = p.desc.Size()
	} else {
		st.viewport = p.pyramid.Level(i)
	}
	if i == n {
		st.input, st.inputMip = p.source, i
	} else {
		st.input = p.targets[i]
	}
	return st
}

// Execute records the pyramid from the coarsest level down to level 0 and
// submits it. Level 0 is written into the camera buffer. The camera's view
// and projection are restored once, after the last level.
//
// If a level target cannot be allocated nothing is submitted, leaving the
// camera buffer unmodified, and the error wraps ErrFrameSkipped. Targets
// allocated before the failure are freed by Release.
func (p *Pass) Execute(cam Camera) error {
	if p.state != StateConfigured {
		return p.violation("Execute")
	}
	p.state = StateExecuted
	if p.skip != nil {
		return p.skip
	}

	p.buf.reset()
	ident := mgl32.Ident4()
	for i := p.pyramid.LevelCount; i >= 0; i-- {
		st := p.stepFor(i)
		target := p.color
		if st.writeSlot >= 0 {
			t, err := p.device.NewTarget(Descriptor{
				Width:  st.viewport.Width,
				Height: st.viewport.Height,
				Format: p.desc.Format,
			})
			if err != nil {
				p.buf.reset()
				return p.skipFrame(fmt.Errorf("level %d target: %w", i, err))
			}
			p.targets[st.writeSlot] = t
			p.track()
			target = t
		}

		p.buf.setViewProjection(ident, ident)
		p.buf.setViewport(st.viewport)
		p.buf.draw(target, p.settings.Material, FilterParams{
			Source:    p.source,
			Input:     st.input,
			InputMip:  st.inputMip,
			MipCount:  p.pyramid.LevelCount,
			Level:     st.readLevel,
			BlurLevel: p.settings.BlurLevel,
			Viewport:  st.viewport,
		})
	}
	p.buf.setViewProjection(cam.View, cam.Projection)
	p.stats.Draws = p.buf.draws()

	if err := p.device.Submit(p.buf.cmds); err != nil {
		return p.skipFrame(fmt.Errorf("submit: %w", err))
	}
	return nil
}

// Release frees the source mip texture and every level target of the
// frame. It is valid after Configure or Execute, including skipped frames.
// Calling it again is a call-order violation that leaves the pass unchanged.
func (p *Pass) Release() error {
	if p.state != StateConfigured && p.state != StateExecuted {
		return p.violation("Release")
	}
	p.releaseFrame()
	p.state = StateReleased
	p.logf(slog.LevelDebug, "frame released",
		"frame", p.stats.Frame,
		"levels", p.stats.Levels,
		"draws", p.stats.Draws,
		"allocations", p.stats.Allocations,
		"releases", p.stats.Releases,
		"skipped", p.stats.Skipped)
	return nil
}

func (p *Pass) releaseFrame() {
	if p.source != nil {
		p.device.Release(p.source)
		p.source = nil
		p.untrack()
	}
	p.releaseTargets()
	p.color = nil
	p.skip = nil
}

func (p *Pass) releaseTargets() {
	for i, t := range p.targets {
		if t == nil {
			continue
		}
		p.device.Release(t)
		p.targets[i] = nil
		p.untrack()
	}
}

func (p *Pass) track() {
	p.outstanding++
	p.stats.Allocations++
}

func (p *Pass) untrack() {
	p.outstanding--
	p.stats.Releases++
}

func (p *Pass) skipFrame(cause error) error {
	p.skip = fmt.Errorf("%w: %s: %w", ErrFrameSkipped, p.settings.PassTag, cause)
	p.stats.Skipped = true
	return p.skip
}

// violation reports a call made in the wrong state. In debug mode it panics;
// otherwise it logs and returns ErrInvalidSequence.
func (p *Pass) violation(op string) error {
	err := fmt.Errorf("%w: %s called in state %s", ErrInvalidSequence, op, p.state)
	if p.settings.Debug {
		panic(err)
	}
	p.logf(slog.LevelWarn, "call order violation", "op", op, "state", p.state.String())
	return err
}

func (p *Pass) logf(level slog.Level, msg string, args ...any) {
	l := Logger()
	ctx := context.Background()
	if !l.Enabled(ctx, level) {
		return
	}
	l.Log(ctx, level, "mipblur: "+msg, append([]any{"pass", p.settings.PassTag, "id", p.id.String()}, args...)...)
}
