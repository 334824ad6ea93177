package mipblur

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

// EbitenTexture is a Texture backed by ebiten images. Textures created by an
// EbitenDevice are views into pooled images; camera buffers wrapped with
// NewEbitenTexture are borrowed and never pooled.
type EbitenTexture struct {
	mips  []*ebiten.Image // exact-size views, mips[0] is full size
	bases []*ebiten.Image // pooled backing images, nil for borrowed textures
}

// NewEbitenTexture wraps a caller-owned image, typically the screen passed to
// ebiten.Game.Draw, for use as a camera buffer.
func NewEbitenTexture(img *ebiten.Image) *EbitenTexture {
	return &EbitenTexture{mips: []*ebiten.Image{img}}
}

// Image returns the full-size image.
func (t *EbitenTexture) Image() *ebiten.Image { return t.mips[0] }

// Size implements Texture.
func (t *EbitenTexture) Size() Size {
	b := t.mips[0].Bounds()
	return Size{b.Dx(), b.Dy()}
}

// MipLevels implements MipTexture.
func (t *EbitenTexture) MipLevels() int { return len(t.mips) }

// Mip returns mip level i, clamped to the chain.
func (t *EbitenTexture) Mip(i int) *ebiten.Image {
	return t.mips[min(max(i, 0), len(t.mips)-1)]
}

// EbitenDevice is a Device drawing with Ebitengine. Ebitengine exposes no mip
// chains, so NewMipTexture builds one with linear-filtered half-scale draws.
// View and projection commands are tracked as state only; all draws are
// screen-space blits.
type EbitenDevice struct {
	pool     renderTexturePool
	view     mgl32.Mat4
	proj     mgl32.Mat4
	viewport image.Rectangle

	imgOp    ebiten.DrawImageOptions
	vertices [4]ebiten.Vertex
	indices  []uint16
}

// NewEbitenDevice creates a device with an empty render texture pool.
func NewEbitenDevice() *EbitenDevice {
	return &EbitenDevice{
		view:    mgl32.Ident4(),
		proj:    mgl32.Ident4(),
		indices: []uint16{0, 1, 2, 1, 2, 3},
	}
}

// acquire returns a pooled base image and its exact-size view.
func (d *EbitenDevice) acquire(s Size) (base, view *ebiten.Image) {
	base = d.pool.Acquire(s.Width, s.Height)
	view = base.SubImage(image.Rect(0, 0, s.Width, s.Height)).(*ebiten.Image)
	return base, view
}

// NewMipTexture implements Device.
func (d *EbitenDevice) NewMipTexture(src Texture, desc Descriptor) (Texture, error) {
	s, ok := src.(*EbitenTexture)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not an ebiten texture", ErrInvalidTarget, src)
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidTarget, desc.Width, desc.Height)
	}
	levels := 1
	if desc.Mipmaps {
		levels = LevelCount(desc.Width, desc.Height) + 1
	}

	t := &EbitenTexture{
		mips:  make([]*ebiten.Image, levels),
		bases: make([]*ebiten.Image, levels),
	}
	prev := s.Image()
	for i := range levels {
		base, view := d.acquire(LevelSize(desc.Width, desc.Height, i))
		t.bases[i], t.mips[i] = base, view
		if i == 0 {
			d.blit(view, prev, ebiten.FilterNearest)
		} else if desc.AutoGenerateMips {
			d.blit(view, prev, ebiten.FilterLinear)
		}
		prev = view
	}
	return t, nil
}

// NewTarget implements Device.
func (d *EbitenDevice) NewTarget(desc Descriptor) (Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidTarget, desc.Width, desc.Height)
	}
	base, view := d.acquire(desc.Size())
	return &EbitenTexture{
		mips:  []*ebiten.Image{view},
		bases: []*ebiten.Image{base},
	}, nil
}

// Release implements Device. Borrowed textures are ignored.
func (d *EbitenDevice) Release(t Texture) {
	et, ok := t.(*EbitenTexture)
	if !ok {
		return
	}
	for i, base := range et.bases {
		d.pool.Release(base)
		et.bases[i] = nil
	}
	et.bases = et.bases[:0]
}

// Submit implements Device.
func (d *EbitenDevice) Submit(cmds []Command) error {
	for i := range cmds {
		cmd := &cmds[i]
		switch cmd.Type {
		case CommandSetViewProjection:
			d.view, d.proj = cmd.View, cmd.Projection
		case CommandSetViewport:
			d.viewport = cmd.Viewport
		case CommandDraw:
			if err := d.draw(cmd); err != nil {
				return fmt.Errorf("command %d: %w", i, err)
			}
		}
	}
	return nil
}

// draw fills the viewport of the target with the source mip at the draw's
// level, then draws the material over it sampling the up-scaled input.
func (d *EbitenDevice) draw(cmd *Command) error {
	m, ok := cmd.Material.(*KageMaterial)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedMaterial, cmd.Material)
	}
	target, ok := cmd.Target.(*EbitenTexture)
	if !ok {
		return fmt.Errorf("%w: target %T", ErrInvalidTarget, cmd.Target)
	}
	source, ok := cmd.Params.Source.(*EbitenTexture)
	if !ok {
		return fmt.Errorf("%w: source %T", ErrInvalidTarget, cmd.Params.Source)
	}
	input, ok := cmd.Params.Input.(*EbitenTexture)
	if !ok {
		return fmt.Errorf("%w: input %T", ErrInvalidTarget, cmd.Params.Input)
	}

	dstImg := target.Image()
	vp := d.viewport.Add(dstImg.Bounds().Min).Intersect(dstImg.Bounds())
	if vp.Empty() {
		return nil
	}
	dst := dstImg.SubImage(vp).(*ebiten.Image)

	d.imgOp.Blend = ebiten.BlendCopy
	d.blitOp(dst, source.Mip(cmd.Params.Level), ebiten.FilterLinear)

	if cmd.Params.Weight() == 0 {
		return nil
	}
	in := input.Mip(cmd.Params.InputMip)
	d.setQuad(vp, in.Bounds())
	dst.DrawTrianglesShader(d.vertices[:], d.indices, m.Shader(), m.bind(in, cmd.Params))
	return nil
}

// blit scales src over the whole of dst, replacing its contents.
func (d *EbitenDevice) blit(dst, src *ebiten.Image, filter ebiten.Filter) {
	d.imgOp.Blend = ebiten.BlendCopy
	d.blitOp(dst, src, filter)
}

func (d *EbitenDevice) blitOp(dst, src *ebiten.Image, filter ebiten.Filter) {
	sb, db := src.Bounds(), dst.Bounds()
	op := &d.imgOp
	op.GeoM.Reset()
	op.ColorScale.Reset()
	op.GeoM.Scale(float64(db.Dx())/float64(sb.Dx()), float64(db.Dy())/float64(sb.Dy()))
	op.GeoM.Translate(float64(db.Min.X), float64(db.Min.Y))
	op.Filter = filter
	dst.DrawImage(src, op)
}

// setQuad fills the vertex buffer with a quad covering dst and sampling all
// of src.
func (d *EbitenDevice) setQuad(dst, src image.Rectangle) {
	dx0, dy0 := float32(dst.Min.X), float32(dst.Min.Y)
	dx1, dy1 := float32(dst.Max.X), float32(dst.Max.Y)
	sx0, sy0 := float32(src.Min.X), float32(src.Min.Y)
	sx1, sy1 := float32(src.Max.X), float32(src.Max.Y)
	corners := [4][4]float32{
		{dx0, dy0, sx0, sy0},
		{dx1, dy0, sx1, sy0},
		{dx0, dy1, sx0, sy1},
		{dx1, dy1, sx1, sy1},
	}
	for i, c := range corners {
		d.vertices[i] = ebiten.Vertex{
			DstX: c[0], DstY: c[1],
			SrcX: c[2], SrcY: c[3],
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		}
	}
}

// ViewProjection returns the view and projection set by the last submitted
// command.
func (d *EbitenDevice) ViewProjection() (view, proj mgl32.Mat4) {
	return d.view, d.proj
}

// Viewport returns the viewport set by the last submitted command.
func (d *EbitenDevice) Viewport() image.Rectangle {
	return d.viewport
}

// Live returns the number of pooled images currently handed out.
func (d *EbitenDevice) Live() int {
	return d.pool.live
}

// Dispose deallocates every idle pooled image.
func (d *EbitenDevice) Dispose() {
	d.pool.Dispose()
}

// ReadPixels implements PixelReader. Ebitengine only allows reading pixels
// while the game loop is running.
func (d *EbitenDevice) ReadPixels(t Texture) (*image.NRGBA, error) {
	et, ok := t.(*EbitenTexture)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidTarget, t)
	}
	img := et.Image()
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pixels := make([]byte, 4*w*h)
	img.ReadPixels(pixels)
	return unpremultiply(pixels, w, h), nil
}
