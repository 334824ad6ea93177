package soft

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanxgames/mipblur"
)

func checkerboard(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c := color.RGBA{A: 255}
			if (x+y)%2 == 0 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// variance of the red channel.
func variance(img *image.RGBA) float64 {
	var sum, sq float64
	n := 0
	for i := 0; i < len(img.Pix); i += 4 {
		v := float64(img.Pix[i])
		sum += v
		sq += v * v
		n++
	}
	mean := sum / float64(n)
	return sq/float64(n) - mean*mean
}

func newPass(t *testing.T, dev *Device, blur int) *mipblur.Pass {
	t.Helper()
	s := mipblur.DefaultSettings()
	s.Material = NewBoxMaterial()
	s.BlurLevel = blur
	p, err := mipblur.NewPass(dev, s)
	require.NoError(t, err)
	return p
}

func frame(p *mipblur.Pass, img *image.RGBA, cam mipblur.Camera) error {
	b := img.Bounds()
	desc := mipblur.Descriptor{Width: b.Dx(), Height: b.Dy()}
	defer p.Release()
	if err := p.Configure(NewTexture(img), desc); err != nil {
		return err
	}
	return p.Execute(cam)
}

func TestMipChain(t *testing.T) {
	dev := NewDevice()
	src := NewTexture(checkerboard(40, 24))
	desc := mipblur.Descriptor{Width: 40, Height: 24, Mipmaps: true, AutoGenerateMips: true}

	tex, err := dev.NewMipTexture(src, desc)
	require.NoError(t, err)
	mt := tex.(*Texture)
	require.Equal(t, 6, mt.MipLevels())
	for i := range mt.MipLevels() {
		want := mipblur.LevelSize(40, 24, i)
		b := mt.Mip(i).Bounds()
		assert.Equal(t, want, mipblur.Size{Width: b.Dx(), Height: b.Dy()}, "mip %d", i)
	}
	assert.Equal(t, src.Image().Pix, mt.Mip(0).Pix, "level 0 is an exact copy")
	assert.Equal(t, 1, dev.Live())

	dev.Release(tex)
	dev.Release(tex)
	dev.Release(src)
	assert.Zero(t, dev.Live())
	assert.True(t, mt.Released())
}

func TestMipChainWithoutMipmaps(t *testing.T) {
	dev := NewDevice()
	tex, err := dev.NewMipTexture(NewTexture(checkerboard(8, 8)), mipblur.Descriptor{Width: 8, Height: 8})
	require.NoError(t, err)
	assert.Equal(t, 1, tex.(*Texture).MipLevels())
}

func TestBlurLevelZeroPassesThrough(t *testing.T) {
	dev := NewDevice()
	img := checkerboard(64, 48)
	want := append([]uint8(nil), img.Pix...)

	require.NoError(t, frame(newPass(t, dev, 0), img, mipblur.IdentityCamera()))
	assert.Equal(t, want, img.Pix)
	assert.Zero(t, dev.Live())
}

func TestFullBlurReducesVariance(t *testing.T) {
	dev := NewDevice()
	img := checkerboard(64, 64)
	before := variance(img)

	require.NoError(t, frame(newPass(t, dev, mipblur.MaxBlurLevel), img, mipblur.IdentityCamera()))
	after := variance(img)
	assert.Less(t, after, before/4, "variance %v -> %v", before, after)
}

func TestBlurIsMonotonicInLevel(t *testing.T) {
	prev := variance(checkerboard(32, 32))
	for _, level := range []int{10, 30, 50} {
		img := checkerboard(32, 32)
		require.NoError(t, frame(newPass(t, NewDevice(), level), img, mipblur.IdentityCamera()))
		v := variance(img)
		assert.Less(t, v, prev, "level %d", level)
		prev = v
	}
}

func TestAllocationFailureLeavesImageUnchanged(t *testing.T) {
	dev := NewDevice()
	dev.FailAfter(3)
	img := checkerboard(64, 64)
	want := append([]uint8(nil), img.Pix...)

	err := frame(newPass(t, dev, 40), img, mipblur.IdentityCamera())
	require.ErrorIs(t, err, mipblur.ErrFrameSkipped)
	assert.ErrorIs(t, err, mipblur.ErrOutOfMemory)
	assert.Equal(t, want, img.Pix)
	assert.Zero(t, dev.Submits())
	assert.Zero(t, dev.Live())
	assert.Equal(t, 3, dev.Allocations())

	dev.FailAfter(-1)
	require.NoError(t, frame(newPass(t, dev, 40), img, mipblur.IdentityCamera()))
	assert.Equal(t, 1, dev.Submits())
}

func TestCameraTransformsRestored(t *testing.T) {
	dev := NewDevice()
	cam := mipblur.Camera{
		View:       mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
		Projection: mgl32.Ortho2D(0, 16, 16, 0),
	}
	require.NoError(t, frame(newPass(t, dev, 25), checkerboard(16, 16), cam))

	view, proj := dev.ViewProjection()
	assert.Equal(t, cam.View, view)
	assert.Equal(t, cam.Projection, proj)
	// The viewport is not restored: it is left at the level 0 area.
	assert.Equal(t, image.Rect(0, 0, 16, 16), dev.Viewport())
}

func TestUnsupportedMaterial(t *testing.T) {
	dev := NewDevice()
	s := mipblur.DefaultSettings()
	s.Material = mipblur.NewBoxFilterMaterial()
	p, err := mipblur.NewPass(dev, s)
	require.NoError(t, err)

	img := checkerboard(16, 16)
	want := append([]uint8(nil), img.Pix...)
	err = frame(p, img, mipblur.IdentityCamera())
	require.ErrorIs(t, err, mipblur.ErrFrameSkipped)
	assert.ErrorIs(t, err, mipblur.ErrUnsupportedMaterial)
	assert.Equal(t, want, img.Pix)
	assert.Zero(t, dev.Live())
}

func TestReadPixels(t *testing.T) {
	dev := NewDevice()
	img := checkerboard(4, 2)
	out, err := dev.ReadPixels(NewTexture(img))
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.Pix)

	_, err = dev.ReadPixels(nil)
	assert.ErrorIs(t, err, mipblur.ErrInvalidTarget)
}
