package raster

import (
	"context"
	"image"
	_ "image/gif"  // Register GIF decoder.
	_ "image/jpeg" // Register JPEG decoder.
	_ "image/png"  // Register PNG decoder.
	"math"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	_ "golang.org/x/image/bmp" // Register BMP decoder.
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // Register TIFF decoder.
	_ "golang.org/x/image/webp" // Register WEBP decoder.
)

// PreprocessOptions tune [Preprocess].
type PreprocessOptions struct {
	// MinWidth upscales narrower images to this width. 0 disables upscaling.
	MinWidth int
}

// Preprocess decodes src, converts it to grayscale, upscales it when it is
// narrower than opts.MinWidth and binarizes it with Otsu's threshold. The
// result is a PNG in a private temp dir.
func Preprocess(ctx context.Context, src string, opts PreprocessOptions) (*PageImage, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, eris.Wrap(err, "open image")
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return nil, eris.Wrapf(err, "decode %s", filepath.Base(src))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gray := Binarize(Upscale(Grayscale(img), opts.MinWidth))

	dir, err := makeTempDir()
	if err != nil {
		return nil, eris.Wrap(err, "create temp dir")
	}
	out := filepath.Join(dir, "preprocessed.png")
	if err := writePNG(out, gray); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return newPageImage(dir, out), nil
}

// Grayscale converts img to 8-bit gray with origin at (0, 0).
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// Upscale limits.
const (
	maxUpscaleFactor = 4
	maxUpscalePixels = 40_000_000
)

// Upscale enlarges img toward minWidth, keeping the aspect ratio, when it is
// narrower. Otherwise img is returned unchanged. See upscaleSize for limits.
func Upscale(img *image.Gray, minWidth int) *image.Gray {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	nw, nh := upscaleSize(w, h, minWidth)
	if nw <= w {
		return img
	}
	dst := image.NewGray(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// upscaleSize returns the target size for a w x h image. The width grows to
// minWidth but at most maxUpscaleFactor times, and the result never exceeds
// maxUpscalePixels. A result no wider than w means no scaling.
func upscaleSize(w, h, minWidth int) (int, int) {
	if minWidth <= 0 || w <= 0 || h <= 0 || w >= minWidth {
		return w, h
	}
	nw := minWidth
	if nw > w*maxUpscaleFactor {
		nw = w * maxUpscaleFactor
	}
	if area := float64(nw) * float64(h) * float64(nw) / float64(w); area > maxUpscalePixels {
		nw = int(float64(nw) * math.Sqrt(maxUpscalePixels/area))
	}
	if nw <= w {
		return w, h
	}
	nh := h * nw / w
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// OtsuThreshold returns the gray level that maximizes the between-class
// variance of the image histogram.
func OtsuThreshold(img *image.Gray) uint8 {
	var hist [256]int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			hist[row[x]]++
		}
	}

	total := b.Dx() * b.Dy()
	if total == 0 {
		return 127
	}
	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var sumB float64
	var wB int
	var best float64
	var threshold uint8
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// Binarize maps every pixel above the Otsu threshold to white and the rest
// to black, in place.
func Binarize(img *image.Gray) *image.Gray {
	t := OtsuThreshold(img)
	for i, v := range img.Pix {
		if v > t {
			img.Pix[i] = 0xff
		} else {
			img.Pix[i] = 0
		}
	}
	return img
}
