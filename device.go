package mipblur

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// Format is the pixel format of a render target.
type Format uint8

const (
	FormatRGBA8   Format = iota // 8-bit unsigned normalized RGBA
	FormatRGBA16F               // 16-bit float RGBA (HDR camera buffers)
)

// Descriptor describes a texture or render target allocation.
type Descriptor struct {
	Width, Height int
	Format        Format
	// Mipmaps requests a full mip chain down to 1x1.
	Mipmaps bool
	// AutoGenerateMips asks the device to fill the chain from level 0.
	AutoGenerateMips bool
}

// Size returns the descriptor dimensions.
func (d Descriptor) Size() Size {
	return Size{d.Width, d.Height}
}

// mipDescriptor returns a copy of d configured for a full generated chain.
func (d Descriptor) mipDescriptor() Descriptor {
	d.Mipmaps = true
	d.AutoGenerateMips = true
	return d
}

// Texture is a device-owned image: the camera color buffer, the source mip
// texture or a transient level target.
type Texture interface {
	Size() Size
}

// MipTexture is a texture carrying a generated mip chain.
type MipTexture interface {
	Texture
	// MipLevels returns the number of levels in the chain, including level 0.
	MipLevels() int
}

// Material is the opaque full-screen filter drawn at every level. Devices
// type-assert it to the material types they know how to bind.
type Material interface {
	MaterialName() string
}

// Device is the graphics backend contract the pass requires.
//
// Allocation calls happen while the pass records a frame; Submit receives the
// whole ordered command sequence once the frame has been recorded. Textures
// passed to Release must not be referenced afterwards.
type Device interface {
	// NewMipTexture allocates a texture with an automatically generated mip
	// chain and fills it with a full copy of src.
	NewMipTexture(src Texture, desc Descriptor) (Texture, error)
	// NewTarget allocates a transient render target.
	NewTarget(desc Descriptor) (Texture, error)
	// Release frees a texture created by this device.
	Release(t Texture)
	// Submit executes cmds in order.
	Submit(cmds []Command) error
}

// PixelReader is implemented by devices that can read a texture back to
// straight-alpha pixels.
type PixelReader interface {
	ReadPixels(t Texture) (*image.NRGBA, error)
}

// Camera carries the host's view and projection transforms for the frame.
type Camera struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

// IdentityCamera returns a camera with identity view and projection.
func IdentityCamera() Camera {
	return Camera{View: mgl32.Ident4(), Projection: mgl32.Ident4()}
}
