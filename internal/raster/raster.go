package raster

import (
	"context"
	"image"
	"image/png"
	"os"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/backmassage/ocrrename/internal/config"
)

// Rasterizer renders a single page of a PDF. page is 1-based.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, page, dpi int) (*PageImage, error)
}

// PageImage is a raster image on disk owned by one worker until released.
type PageImage struct {
	Path string

	dir  string
	once sync.Once
}

func newPageImage(dir, path string) *PageImage {
	return &PageImage{Path: path, dir: dir}
}

// Release removes the image and its temp dir. Safe to call more than once
// and on a nil receiver.
func (p *PageImage) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		if p.dir != "" {
			_ = os.RemoveAll(p.dir)
		}
	})
}

// New returns the rasterizer selected by cfg.
func New(cfg config.PDFConfig) Rasterizer {
	if cfg.Backend == config.PDFFitz {
		return &FitzRasterizer{}
	}
	return &PopplerRasterizer{Command: cfg.Command}
}

// makeTempDir creates the private working directory for one render.
func makeTempDir() (string, error) {
	return os.MkdirTemp("", "ocrrename-raster-*")
}

// writePNG encodes img to path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return eris.Wrapf(err, "encode %s", path)
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}
