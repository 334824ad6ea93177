// Command mipblur blurs a PNG image with the box-filtered mip pyramid on the
// CPU reference device.
//
//	mipblur -in photo.png -out blurred.png -level 30
//	mipblur -in photo.png -out blurred.png -config blur.yaml -v
package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/phanxgames/mipblur"
	"github.com/phanxgames/mipblur/soft"
)

func main() {
	in := flag.String("in", "", "input PNG file")
	out := flag.String("out", "", "output PNG file")
	level := flag.Int("level", -1, "blur level 0-50 (overrides -config)")
	config := flag.String("config", "", "settings file (.yaml, .yml or .toml)")
	verbose := flag.Bool("v", false, "log pyramid stats to stderr")
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		mipblur.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	settings := mipblur.DefaultSettings()
	if *config != "" {
		s, err := mipblur.LoadSettings(*config)
		if err != nil {
			log.Fatal(err)
		}
		settings = s
	}
	if *level >= 0 {
		settings.BlurLevel = *level
	}

	if err := run(*in, *out, settings); err != nil {
		log.Fatal(err)
	}
}

func run(inPath, outPath string, settings mipblur.Settings) error {
	src, err := readPNG(inPath)
	if err != nil {
		return err
	}

	dev := soft.NewDevice()
	settings.Material = soft.NewBoxMaterial()
	pl := mipblur.NewPipeline(dev)
	if _, err := pl.NewFeature(settings); err != nil {
		return err
	}

	b := src.Bounds()
	desc := mipblur.Descriptor{Width: b.Dx(), Height: b.Dy(), Format: mipblur.FormatRGBA8}
	if err := pl.RenderFrame(soft.NewTexture(src), desc, mipblur.IdentityCamera()); err != nil {
		return err
	}
	return writePNG(outPath, src)
}

func readPNG(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}

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
