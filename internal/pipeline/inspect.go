package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/backmassage/ocrrename/internal/config"
	"github.com/backmassage/ocrrename/internal/display"
	"github.com/backmassage/ocrrename/internal/naming"
	"github.com/backmassage/ocrrename/internal/probe"
	"github.com/backmassage/ocrrename/internal/raster"
	"github.com/backmassage/ocrrename/internal/term"
)

// inspectComponents is the order metadata is printed in.
var inspectComponents = []string{"date", "vendor", "amount", "invoice", "reference", "custom"}

// Inspect runs rasterize and extract on a single file and prints the raw
// text, the metadata components and the name each mode would produce.
// Nothing on disk is renamed.
func (r *Runner) Inspect(ctx context.Context, path string, w io.Writer) error {
	in, err := probe.ProbeFS(r.fs, path)
	if err != nil {
		return err
	}
	start := r.now()

	img := in.Path
	if in.Kind == probe.KindPDF {
		page, err := r.pdf.Rasterize(ctx, in.Path, r.cfg.PDF.Page, r.cfg.PDF.DPI)
		if err != nil {
			return err
		}
		defer page.Release()
		img = page.Path
	}
	preprocessed, pre := "off", ""
	if r.cfg.OCR.Preprocess {
		p, err := raster.Preprocess(ctx, img, raster.PreprocessOptions{MinWidth: r.cfg.OCR.MinWidth})
		if err != nil {
			preprocessed = "skipped (" + err.Error() + ")"
		} else {
			defer p.Release()
			pre = p.Path
			preprocessed = "grayscale + threshold"
		}
	}

	res, err := r.recognize(ctx, in.Name(), img, pre)
	if err != nil {
		return err
	}
	elapsed := r.now().Sub(start)

	conf := "n/a"
	if res.Confidence >= 0 {
		conf = fmt.Sprintf("%.1f", res.Confidence)
	}
	format := in.Format
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(in.Ext()), ".")
	}

	fmt.Fprintf(w, "%s %s (%s %s, %s)\n", term.Cyan.Sprint("File:"), in.Name(), in.Kind, format, display.FormatBytes(in.Size))
	fmt.Fprintf(w, "%s %s, confidence %s, %s\n", term.Cyan.Sprint("Engine:"), res.Engine, conf, display.FormatDuration(elapsed))
	fmt.Fprintf(w, "%s %s\n", term.Cyan.Sprint("Preprocess:"), preprocessed)

	fmt.Fprintln(w)
	fmt.Fprintln(w, term.Blue.Sprint("--- Recognized text ---"))
	if res.Empty() {
		fmt.Fprintln(w, term.Dim.Sprint("(no text)"))
	} else {
		fmt.Fprintln(w, res.Text)
	}

	nc := r.cfg.Naming
	md := naming.ExtractMetadata(res.Text, nc.SearchTerm, nc.Currency, nc.Placeholder)
	fmt.Fprintln(w)
	fmt.Fprintln(w, term.Blue.Sprint("--- Components ---"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range inspectComponents {
		v := md.Get(c)
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", c, v)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, term.Blue.Sprint("--- Name ---"))
	now := r.now()
	active := naming.Derive(res.Text, in.Name(), r.rules, now)
	fmt.Fprintf(w, "%s  (%s)\n", term.Green.Sprint(active.Filename()), active.Rule)

	alt := r.rules
	if alt.Mode == config.NamingComponents {
		alt.Mode = config.NamingFirstLine
	} else {
		alt.Mode = config.NamingComponents
	}
	other := naming.Derive(res.Text, in.Name(), alt, now)
	fmt.Fprintf(w, "%s  (%s, with --mode %s)\n", other.Filename(), other.Rule, alt.Mode)
	fmt.Fprintf(w, "%s\n", term.Dim.Sprint("target directory: "+r.targetDir(in.Path)))
	return nil
}

func (r *Runner) targetDir(source string) string {
	if r.cfg.OutputDir != "" {
		return r.cfg.OutputDir
	}
	return filepath.Dir(source)
}
