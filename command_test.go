package mipblur

import (
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestFilterParamsWeight(t *testing.T) {
	tests := []struct {
		blur int
		want float32
	}{
		{0, 0},
		{25, 0.5},
		{50, 1},
		{80, 1},
		{-3, 0},
	}
	for _, tt := range tests {
		if got := (FilterParams{BlurLevel: tt.blur}).Weight(); got != tt.want {
			t.Errorf("Weight(%d) = %v, want %v", tt.blur, got, tt.want)
		}
	}
}

func TestCommandBufferReuse(t *testing.T) {
	var b commandBuffer
	b.setViewProjection(mgl32.Ident4(), mgl32.Ident4())
	b.setViewport(Size{8, 4})
	b.draw(nil, fakeMaterial{}, FilterParams{Level: 2})
	if len(b.cmds) != 3 || b.draws() != 1 {
		t.Fatalf("len = %d, draws = %d", len(b.cmds), b.draws())
	}
	if b.cmds[1].Viewport != image.Rect(0, 0, 8, 4) {
		t.Errorf("viewport = %v", b.cmds[1].Viewport)
	}

	capBefore := cap(b.cmds)
	b.reset()
	if len(b.cmds) != 0 {
		t.Errorf("len after reset = %d", len(b.cmds))
	}
	b.draw(nil, fakeMaterial{}, FilterParams{})
	if cap(b.cmds) != capBefore {
		t.Error("reset should keep the backing array")
	}
}

func TestCommandTypeString(t *testing.T) {
	tests := map[CommandType]string{
		CommandSetViewProjection: "SetViewProjection",
		CommandSetViewport:       "SetViewport",
		CommandDraw:              "Draw",
		CommandType(42):          "Unknown",
	}
	for ct, want := range tests {
		if got := ct.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", uint8(ct), got, want)
		}
	}
}
