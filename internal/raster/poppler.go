package raster

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/backmassage/ocrrename/internal/tool"
)

// PopplerRasterizer renders pages with poppler-utils' pdftoppm.
type PopplerRasterizer struct {
	Command string // Default: "pdftoppm".
}

func (r *PopplerRasterizer) command() string {
	if r.Command == "" {
		return "pdftoppm"
	}
	return r.Command
}

// Args returns the pdftoppm argument list for rendering page of pdfPath to
// outPrefix.png. Exported for tests.
func Args(pdfPath string, page, dpi int, outPrefix string) []string {
	p := strconv.Itoa(page)
	return []string{
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", p, "-l", p,
		"-singlefile",
		pdfPath, outPrefix,
	}
}

// Rasterize runs pdftoppm into a private temp dir and returns the PNG.
func (r *PopplerRasterizer) Rasterize(ctx context.Context, pdfPath string, page, dpi int) (*PageImage, error) {
	dir, err := makeTempDir()
	if err != nil {
		return nil, &Error{Kind: KindFailed, Path: pdfPath, Page: page, Err: eris.Wrap(err, "create temp dir")}
	}
	prefix := filepath.Join(dir, "page")

	res := tool.Run(ctx, tool.Options{}, r.command(), Args(pdfPath, page, dpi, prefix)...)
	if res.Err != nil {
		_ = os.RemoveAll(dir)
		if ctx.Err() != nil {
			return nil, &Error{Kind: KindFailed, Path: pdfPath, Page: page, Err: ctx.Err()}
		}
		if tool.IsNotFound(res.Err) {
			return nil, &Error{Kind: KindRendererUnavailable, Path: pdfPath, Page: page,
				Err: eris.Wrapf(res.Err, "run %s", r.command())}
		}
		return nil, &Error{Kind: ClassifyStderr(res.Stderr), Path: pdfPath, Page: page,
			Err: eris.Wrapf(res.Err, "%s: %s", r.command(), firstLine(res.Stderr))}
	}

	out := prefix + ".png"
	if _, err := os.Stat(out); err != nil {
		_ = os.RemoveAll(dir)
		kind := ClassifyStderr(res.Stderr)
		if kind == KindFailed {
			kind = KindCorruptDocument
		}
		return nil, &Error{Kind: kind, Path: pdfPath, Page: page,
			Err: eris.Errorf("%s produced no image: %s", r.command(), firstLine(res.Stderr))}
	}
	return newPageImage(dir, out), nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
