package mipblur

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// CommandType identifies the kind of recorded command.
type CommandType uint8

const (
	CommandSetViewProjection CommandType = iota // replace view and projection
	CommandSetViewport                          // restrict drawing to a rect
	CommandDraw                                 // full-screen draw of a material
)

func (t CommandType) String() string {
	switch t {
	case CommandSetViewProjection:
		return "SetViewProjection"
	case CommandSetViewport:
		return "SetViewport"
	case CommandDraw:
		return "Draw"
	default:
		return "Unknown"
	}
}

// FilterParams are the bindings for a single filter draw. They are passed
// with the draw itself; nothing is left bound between draws.
type FilterParams struct {
	// Source is the mip-chained copy of the camera buffer.
	Source Texture
	// Input is the texture the filter up-samples: Source for the coarsest
	// level, the previous level's target otherwise.
	Input Texture
	// InputMip is the mip of Input to sample (LevelCount for Source, else 0).
	InputMip int
	// MipCount is the coarsest level index of the pyramid.
	MipCount int
	// Level is the level being drawn, descending from MipCount to 0.
	Level int
	// BlurLevel is the user blur strength, 0..MaxBlurLevel.
	BlurLevel int
	// Viewport is the size of the area being written.
	Viewport Size
}

// Weight returns the blend factor toward the filtered input, BlurLevel
// normalised to [0, 1].
func (p FilterParams) Weight() float32 {
	return float32(clampBlurLevel(p.BlurLevel)) / MaxBlurLevel
}

// Command is a single recorded instruction. Only the fields relevant to Type
// are set.
type Command struct {
	Type CommandType

	// CommandSetViewProjection
	View, Projection mgl32.Mat4

	// CommandSetViewport
	Viewport image.Rectangle

	// CommandDraw
	Target   Texture
	Material Material
	Params   FilterParams
}

// commandBuffer is a reusable ordered command list. After warmup recording a
// frame does not allocate.
type commandBuffer struct {
	cmds []Command
}

func (b *commandBuffer) reset() {
	b.cmds = b.cmds[:0]
}

func (b *commandBuffer) setViewProjection(view, proj mgl32.Mat4) {
	b.cmds = append(b.cmds, Command{Type: CommandSetViewProjection, View: view, Projection: proj})
}

func (b *commandBuffer) setViewport(s Size) {
	b.cmds = append(b.cmds, Command{Type: CommandSetViewport, Viewport: image.Rect(0, 0, s.Width, s.Height)})
}

func (b *commandBuffer) draw(target Texture, m Material, p FilterParams) {
	b.cmds = append(b.cmds, Command{Type: CommandDraw, Target: target, Material: m, Params: p})
}

// draws counts the draw commands in the buffer.
func (b *commandBuffer) draws() int {
	n := 0
	for i := range b.cmds {
		if b.cmds[i].Type == CommandDraw {
			n++
		}
	}
	return n
}
