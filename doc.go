// Package mipblur approximates a large blur kernel on a camera color buffer
// with a box-filtered image pyramid, after "The Power of Box Filters:
// Real-time Approximation to Large Convolution Kernel by Box-filtered Image
// Pyramid" (https://dl.acm.org/doi/pdf/10.1145/3355088.3365143).
//
// Each frame the camera buffer is copied into a texture with a generated mip
// chain. A [Pass] then walks the pyramid from the coarsest level down to level
// 0, drawing a small box filter at every level that up-samples the coarser
// result, and writes level 0 back into the camera buffer. The level count is
// floor(log2(max(width, height))) and is recomputed only when the buffer size
// changes.
//
// # Quick start
//
// With Ebitengine, wrap the screen and run a [Pipeline] at the end of Draw:
//
//	dev := mipblur.NewEbitenDevice()
//	s := mipblur.DefaultSettings()
//	s.Material = mipblur.NewBoxFilterMaterial()
//	pl := mipblur.NewPipeline(dev)
//	if _, err := pl.NewFeature(s); err != nil {
//		log.Fatal(err)
//	}
//
//	func (g *Game) Draw(screen *ebiten.Image) {
//		// ... draw the scene ...
//		b := screen.Bounds()
//		desc := mipblur.Descriptor{Width: b.Dx(), Height: b.Dy()}
//		_ = pl.RenderFrame(mipblur.NewEbitenTexture(screen), desc, mipblur.IdentityCamera())
//	}
//
// # Frame lifecycle
//
// A host that does not use [Pipeline] calls [Pass.Configure], [Pass.Execute]
// and [Pass.Release] once each per frame, in that order. Release must run even
// when the frame failed. Out-of-order calls return [ErrInvalidSequence], or
// panic when [Settings.Debug] is set. Allocation failures skip the frame
// ([ErrFrameSkipped]) and leave the camera buffer untouched.
//
// # Devices
//
// The pass records [Command] values and hands them to a [Device]. This
// package ships [EbitenDevice]; package soft provides a CPU reference device
// used by the mipblur command and the tests.
//
// # Animation
//
// [BlurTween] eases the blur level over time using [gween].
//
// [gween]: https://github.com/tanema/gween
package mipblur
