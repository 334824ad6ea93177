package mipblur

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// fakeTexture is a sized handle recorded by fakeDevice.
type fakeTexture struct {
	name     string
	size     Size
	mips     int
	released bool
}

func (t *fakeTexture) Size() Size     { return t.size }
func (t *fakeTexture) MipLevels() int { return max(t.mips, 1) }
func (t *fakeTexture) String() string { return t.name }

type fakeMaterial struct{}

func (fakeMaterial) MaterialName() string { return "fake" }

// fakeDevice records allocations and submitted commands. failAt makes the
// failAt-th allocation (1-based) fail; 0 disables failure.
type fakeDevice struct {
	allocs    []*fakeTexture
	live      int
	failAt    int
	submitted [][]Command
	submitErr error
}

func (d *fakeDevice) newTexture(name string, desc Descriptor, mips int) (Texture, error) {
	if d.failAt > 0 && len(d.allocs)+1 == d.failAt {
		d.failAt = 0
		return nil, fmt.Errorf("%w: %s", ErrOutOfMemory, name)
	}
	t := &fakeTexture{name: name, size: desc.Size(), mips: mips}
	d.allocs = append(d.allocs, t)
	d.live++
	return t, nil
}

func (d *fakeDevice) NewMipTexture(src Texture, desc Descriptor) (Texture, error) {
	mips := 1
	if desc.Mipmaps && desc.AutoGenerateMips {
		mips = LevelCount(desc.Width, desc.Height) + 1
	}
	return d.newTexture("source", desc, mips)
}

func (d *fakeDevice) NewTarget(desc Descriptor) (Texture, error) {
	return d.newTexture(fmt.Sprintf("target%dx%d", desc.Width, desc.Height), desc, 1)
}

func (d *fakeDevice) Release(t Texture) {
	ft := t.(*fakeTexture)
	if ft.released {
		panic("double release of " + ft.name)
	}
	ft.released = true
	d.live--
}

func (d *fakeDevice) Submit(cmds []Command) error {
	if d.submitErr != nil {
		return d.submitErr
	}
	d.submitted = append(d.submitted, append([]Command(nil), cmds...))
	return nil
}

// draws returns the draw commands of the last submission.
func (d *fakeDevice) draws() []Command {
	if len(d.submitted) == 0 {
		return nil
	}
	var out []Command
	for _, c := range d.submitted[len(d.submitted)-1] {
		if c.Type == CommandDraw {
			out = append(out, c)
		}
	}
	return out
}

// testCamera is a non-identity camera used to check restoration.
func testCamera() Camera {
	return Camera{
		View:       mgl32.Translate3D(1, 2, 3),
		Projection: mgl32.Perspective(mgl32.DegToRad(60), 16.0/9.0, 0.1, 100),
	}
}

func newTestPass(t testing.TB, dev Device, blur int) *Pass {
	t.Helper()
	s := DefaultSettings()
	s.Material = fakeMaterial{}
	s.BlurLevel = blur
	p, err := NewPass(dev, s)
	if err != nil {
		t.Fatalf("NewPass: %v", err)
	}
	return p
}
