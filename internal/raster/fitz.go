package raster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"github.com/rotisserie/eris"
)

// FitzRasterizer renders pages in-process with MuPDF through go-fitz.
type FitzRasterizer struct{}

// Rasterize opens pdfPath, checks the page bounds and writes the rendered
// page as PNG into a private temp dir.
func (r *FitzRasterizer) Rasterize(ctx context.Context, pdfPath string, page, dpi int) (*PageImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindFailed, Path: pdfPath, Page: page, Err: err}
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, &Error{Kind: KindCorruptDocument, Path: pdfPath, Page: page, Err: eris.Wrap(err, "open document")}
	}
	defer doc.Close()

	if n := doc.NumPage(); page < 1 || page > n {
		return nil, &Error{Kind: KindPageOutOfRange, Path: pdfPath, Page: page,
			Err: fmt.Errorf("document has %d page(s)", n)}
	}

	img, err := doc.ImageDPI(page-1, float64(dpi))
	if err != nil {
		return nil, &Error{Kind: KindCorruptDocument, Path: pdfPath, Page: page, Err: eris.Wrap(err, "render page")}
	}

	dir, err := makeTempDir()
	if err != nil {
		return nil, &Error{Kind: KindFailed, Path: pdfPath, Page: page, Err: eris.Wrap(err, "create temp dir")}
	}
	out := filepath.Join(dir, "page.png")
	if err := writePNG(out, img); err != nil {
		_ = os.RemoveAll(dir)
		return nil, &Error{Kind: KindFailed, Path: pdfPath, Page: page, Err: err}
	}
	return newPageImage(dir, out), nil
}

// PageCount returns the number of pages in a PDF. Used by inspect mode.
func PageCount(pdfPath string) (int, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return 0, eris.Wrapf(err, "open %s", pdfPath)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}
