package mipblur

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Capture queues a labeled capture of the camera buffer, taken after the
// current or next RenderFrame has composited every pass. The PNG is written
// to CaptureDir with a timestamped filename. Requires a device implementing
// PixelReader; otherwise the queue is dropped with a warning.
func (pl *Pipeline) Capture(label string) {
	pl.captureQueue = append(pl.captureQueue, label)
}

// flushCaptures writes one PNG per queued label and empties the queue. It
// returns the paths written.
func (pl *Pipeline) flushCaptures(color Texture) []string {
	if len(pl.captureQueue) == 0 {
		return nil
	}
	defer func() { pl.captureQueue = pl.captureQueue[:0] }()

	reader, ok := pl.device.(PixelReader)
	if !ok {
		Logger().Warn("mipblur: capture: device cannot read pixels", "device", fmt.Sprintf("%T", pl.device))
		return nil
	}
	if err := os.MkdirAll(pl.CaptureDir, 0o755); err != nil {
		Logger().Warn("mipblur: capture: mkdir", "dir", pl.CaptureDir, "err", err)
		return nil
	}
	img, err := reader.ReadPixels(color)
	if err != nil {
		Logger().Warn("mipblur: capture: read pixels", "err", err)
		return nil
	}

	stamp := time.Now().Format("20060102_150405")
	var written []string
	for _, label := range pl.captureQueue {
		path := filepath.Join(pl.CaptureDir, fmt.Sprintf("%s_%06d_%s.png", stamp, pl.frame, sanitizeLabel(label)))
		if err := writePNG(path, img); err != nil {
			Logger().Warn("mipblur: capture", "err", err)
			continue
		}
		written = append(written, path)
	}
	return written
}

// unpremultiply converts premultiplied RGBA bytes to straight-alpha NRGBA.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(pixels) && i+3 < len(img.Pix); i += 4 {
		r, g, b, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			b = uint8(min(int(b)*255/int(a), 255))
		}
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return img
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
