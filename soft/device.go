// Package soft is a CPU reference implementation of the mipblur device
// contract. It renders into image.RGBA buffers and is meant for tests,
// offline tools and checking GPU output against a known-good result.
package soft

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/transform"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	xdraw "golang.org/x/image/draw"

	"github.com/phanxgames/mipblur"
)

// Texture is a CPU texture. Camera buffers wrapped with NewTexture are
// borrowed; textures created by a Device are owned by it.
type Texture struct {
	mips     []*image.RGBA
	owned    bool
	released bool
}

// NewTexture wraps a caller-owned image for use as a camera buffer.
func NewTexture(img *image.RGBA) *Texture {
	return &Texture{mips: []*image.RGBA{img}}
}

// Image returns the full-size image.
func (t *Texture) Image() *image.RGBA { return t.mips[0] }

// Size implements mipblur.Texture.
func (t *Texture) Size() mipblur.Size {
	b := t.mips[0].Bounds()
	return mipblur.Size{Width: b.Dx(), Height: b.Dy()}
}

// MipLevels implements mipblur.MipTexture.
func (t *Texture) MipLevels() int { return len(t.mips) }

// Mip returns mip level i, clamped to the chain.
func (t *Texture) Mip(i int) *image.RGBA {
	return t.mips[min(max(i, 0), len(t.mips)-1)]
}

// Released reports whether the owning device has released the texture.
func (t *Texture) Released() bool { return t.released }

// BoxMaterial is the filter drawn by Device: the input is up-scaled to the
// viewport, box blurred with Radius and blended over the level's source mip
// by the blur weight.
type BoxMaterial struct {
	Radius float64
}

// NewBoxMaterial returns a box material with radius 1 (a 3x3 kernel).
func NewBoxMaterial() *BoxMaterial {
	return &BoxMaterial{Radius: 1}
}

// MaterialName implements mipblur.Material.
func (m *BoxMaterial) MaterialName() string { return "SoftBox" }

// Device is a mipblur.Device rendering on the CPU.
type Device struct {
	live        int
	allocations int
	failAfter   int
	submits     int

	view, proj mgl32.Mat4
	viewport   image.Rectangle
}

// NewDevice creates a device with fault injection disabled.
func NewDevice() *Device {
	return &Device{
		failAfter: -1,
		view:      mgl32.Ident4(),
		proj:      mgl32.Ident4(),
	}
}

// FailAfter makes every allocation after the next n successful ones fail
// with mipblur.ErrOutOfMemory. A negative n disables fault injection.
func (d *Device) FailAfter(n int) {
	if n < 0 {
		d.failAfter = -1
		return
	}
	d.failAfter = d.allocations + n
}

func (d *Device) allocate(s mipblur.Size) (*image.RGBA, error) {
	if d.failAfter >= 0 && d.allocations >= d.failAfter {
		return nil, fmt.Errorf("%w: %dx%d", mipblur.ErrOutOfMemory, s.Width, s.Height)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", mipblur.ErrInvalidTarget, s.Width, s.Height)
	}
	d.allocations++
	return image.NewRGBA(image.Rect(0, 0, s.Width, s.Height)), nil
}

// NewMipTexture implements mipblur.Device. Level 0 is an exact copy of src;
// further levels are bilinear down-scales of the previous one.
func (d *Device) NewMipTexture(src mipblur.Texture, desc mipblur.Descriptor) (mipblur.Texture, error) {
	s, ok := src.(*Texture)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a soft texture", mipblur.ErrInvalidTarget, src)
	}
	levels := 1
	if desc.Mipmaps {
		levels = mipblur.LevelCount(desc.Width, desc.Height) + 1
	}
	img, err := d.allocate(desc.Size())
	if err != nil {
		return nil, err
	}
	t := &Texture{mips: make([]*image.RGBA, levels), owned: true}
	t.mips[0] = img
	scaleInto(img, s.Image())

	for i := 1; i < levels; i++ {
		ls := mipblur.LevelSize(desc.Width, desc.Height, i)
		mip := image.NewRGBA(image.Rect(0, 0, ls.Width, ls.Height))
		if desc.AutoGenerateMips {
			xdraw.BiLinear.Scale(mip, mip.Bounds(), t.mips[i-1], t.mips[i-1].Bounds(), xdraw.Src, nil)
		}
		t.mips[i] = mip
	}
	d.live++
	return t, nil
}

// NewTarget implements mipblur.Device.
func (d *Device) NewTarget(desc mipblur.Descriptor) (mipblur.Texture, error) {
	img, err := d.allocate(desc.Size())
	if err != nil {
		return nil, err
	}
	d.live++
	return &Texture{mips: []*image.RGBA{img}, owned: true}, nil
}

// Release implements mipblur.Device. Borrowed and already released textures
// are ignored.
func (d *Device) Release(t mipblur.Texture) {
	st, ok := t.(*Texture)
	if !ok || !st.owned || st.released {
		return
	}
	st.released = true
	d.live--
}

// Submit implements mipblur.Device.
func (d *Device) Submit(cmds []mipblur.Command) error {
	d.submits++
	for i := range cmds {
		cmd := &cmds[i]
		switch cmd.Type {
		case mipblur.CommandSetViewProjection:
			d.view, d.proj = cmd.View, cmd.Projection
		case mipblur.CommandSetViewport:
			d.viewport = cmd.Viewport
		case mipblur.CommandDraw:
			if err := d.draw(cmd); err != nil {
				return fmt.Errorf("command %d: %w", i, err)
			}
		}
	}
	return nil
}

func (d *Device) draw(cmd *mipblur.Command) error {
	m, ok := cmd.Material.(*BoxMaterial)
	if !ok {
		return fmt.Errorf("%w: %T", mipblur.ErrUnsupportedMaterial, cmd.Material)
	}
	target, ok := cmd.Target.(*Texture)
	if !ok {
		return fmt.Errorf("%w: target %T", mipblur.ErrInvalidTarget, cmd.Target)
	}
	source, ok := cmd.Params.Source.(*Texture)
	if !ok {
		return fmt.Errorf("%w: source %T", mipblur.ErrInvalidTarget, cmd.Params.Source)
	}
	input, ok := cmd.Params.Input.(*Texture)
	if !ok {
		return fmt.Errorf("%w: input %T", mipblur.ErrInvalidTarget, cmd.Params.Input)
	}
	if target.released || source.released || input.released {
		return fmt.Errorf("%w: draw references a released texture", mipblur.ErrInvalidTarget)
	}

	dst := target.Image()
	vp := d.viewport.Add(dst.Bounds().Min).Intersect(dst.Bounds())
	if vp.Empty() {
		return nil
	}
	w, h := vp.Dx(), vp.Dy()
	base := fit(source.Mip(cmd.Params.Level), w, h)

	weight := cmd.Params.Weight()
	if weight == 0 {
		draw.Draw(dst, vp, base, base.Bounds().Min, draw.Src)
		return nil
	}
	boxed := blur.Box(fit(input.Mip(cmd.Params.InputMip), w, h), m.Radius)
	blend(dst, vp, base, boxed, weight)
	return nil
}

// fit returns img when it is already w x h, else a linear resize of it.
func fit(img *image.RGBA, w, h int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	return transform.Resize(img, w, h, transform.Linear)
}

// scaleInto copies src over the whole of dst, scaling when sizes differ.
func scaleInto(dst, src *image.RGBA) {
	if dst.Bounds().Size() == src.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
}

// blend writes lerp(a, b, t) into the vp region of dst. a and b are vp-sized.
func blend(dst *image.RGBA, vp image.Rectangle, a, b *image.RGBA, t float32) {
	ab, bb := a.Bounds(), b.Bounds()
	for y := 0; y < vp.Dy(); y++ {
		do := dst.PixOffset(vp.Min.X, vp.Min.Y+y)
		ao := a.PixOffset(ab.Min.X, ab.Min.Y+y)
		bo := b.PixOffset(bb.Min.X, bb.Min.Y+y)
		for x := 0; x < vp.Dx()*4; x++ {
			av := float32(a.Pix[ao+x])
			bv := float32(b.Pix[bo+x])
			dst.Pix[do+x] = uint8(math32.Round(av + (bv-av)*t))
		}
	}
}

// ReadPixels implements mipblur.PixelReader.
func (d *Device) ReadPixels(t mipblur.Texture) (*image.NRGBA, error) {
	st, ok := t.(*Texture)
	if !ok {
		return nil, fmt.Errorf("%w: %T", mipblur.ErrInvalidTarget, t)
	}
	src := st.Image()
	out := image.NewNRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out, nil
}

// Live returns the number of owned textures not yet released.
func (d *Device) Live() int { return d.live }

// Allocations returns the number of successful allocations.
func (d *Device) Allocations() int { return d.allocations }

// Submits returns the number of Submit calls.
func (d *Device) Submits() int { return d.submits }

// ViewProjection returns the view and projection set by the last submitted
// command.
func (d *Device) ViewProjection() (view, proj mgl32.Mat4) { return d.view, d.proj }

// Viewport returns the viewport set by the last submitted command.
func (d *Device) Viewport() image.Rectangle { return d.viewport }
