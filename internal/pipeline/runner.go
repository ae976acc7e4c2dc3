package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/backmassage/ocrrename/internal/config"
	"github.com/backmassage/ocrrename/internal/display"
	"github.com/backmassage/ocrrename/internal/logging"
	"github.com/backmassage/ocrrename/internal/naming"
	"github.com/backmassage/ocrrename/internal/ocr"
	"github.com/backmassage/ocrrename/internal/planner"
	"github.com/backmassage/ocrrename/internal/probe"
	"github.com/backmassage/ocrrename/internal/raster"
	"github.com/backmassage/ocrrename/internal/report"
)

// excerptLen is the number of characters of recognized text kept in the report.
const excerptLen = 80

// Deps are the collaborators a Runner drives. Nil fields get the
// implementation selected by the config.
type Deps struct {
	FS         afero.Fs
	Engine     ocr.Engine
	Rasterizer raster.Rasterizer
	Now        func() time.Time
	Progress   io.Writer // Progress bar output. Default: os.Stderr.
}

// Runner processes one batch.
type Runner struct {
	cfg      *config.Config
	log      *logging.Logger
	fs       afero.Fs
	engine   ocr.Engine
	pdf      raster.Rasterizer
	now      func() time.Time
	progress io.Writer

	rules    naming.Rules
	resolver *naming.CollisionResolver
	scanned  atomic.Int64
}

// NewRunner wires a Runner from cfg. It fails only when the OCR engine
// cannot be constructed (e.g. gosseract requested but not compiled in).
func NewRunner(cfg *config.Config, log *logging.Logger, deps Deps) (*Runner, error) {
	r := &Runner{
		cfg:      cfg,
		log:      log,
		fs:       deps.FS,
		engine:   deps.Engine,
		pdf:      deps.Rasterizer,
		now:      deps.Now,
		progress: deps.Progress,
		rules:    naming.RulesFrom(cfg.Naming),
	}
	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.progress == nil {
		r.progress = os.Stderr
	}
	if r.pdf == nil {
		r.pdf = raster.New(cfg.PDF)
	}
	if r.engine == nil {
		e, err := ocr.New(cfg.OCR)
		if err != nil {
			return nil, err
		}
		r.engine = e
	}
	r.resolver = naming.NewCollisionResolver(r.fs)
	return r, nil
}

// Close releases the OCR engine.
func (r *Runner) Close() error { return r.engine.Close() }

// Run is the top-level batch entry point. It discovers files, processes
// them in discovery order (concurrently when cfg.Jobs > 1) and returns the
// report. The report is returned even when err is non-nil if discovery
// succeeded. Cancelling ctx stops new files from starting; files already
// in flight run to completion.
func (r *Runner) Run(ctx context.Context) (*report.Report, RunStats, error) {
	var stats RunStats
	started := r.now()

	files, err := Discover(r.fs, r.cfg.InputDir, DiscoverOptions{
		Recursive: r.cfg.Recursive,
		Exclude:   r.cfg.ExcludeList(),
	})
	if err != nil {
		return nil, stats, fmt.Errorf("file discovery failed: %w", err)
	}

	rep := report.New(files, r.cfg.DryRun, started)
	r.logBatchHeader(len(files))

	if r.cfg.OutputDir != "" && !r.cfg.DryRun {
		if err := r.fs.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
			rep.Finish(r.now(), false)
			return rep, stats, fmt.Errorf("cannot create output directory: %w", err)
		}
	}

	bar := r.newProgressBar(len(files))
	// In-flight files are not cancelled; ctx only gates new work.
	work := context.WithoutCancel(ctx)
	now := started
	seq := newTurns()

	var g errgroup.Group
	g.SetLimit(r.cfg.Jobs)
	for i, path := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			defer seq.done(i)
			// The slot may have been granted after cancellation.
			if ctx.Err() != nil {
				return nil
			}
			e := r.processFile(work, i, path, now, seq)
			rep.Set(e)
			r.logOutcome(e, len(files))
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	if bar != nil {
		_ = bar.Finish()
	}

	interrupted := ctx.Err() != nil
	rep.Finish(r.now(), interrupted)
	stats.Summary = rep.Summary
	stats.BytesScanned = r.scanned.Load()
	stats.Elapsed = rep.Finished.Sub(started)

	if interrupted {
		r.log.Warn("Interrupted: %d file(s) not processed", stats.Skipped)
	}
	r.logSummary(&stats)
	return rep, stats, nil
}

// processFile walks one file through the state machine and returns its
// report entry. It never returns an error: failures become entries.
// Probing, rasterizing and OCR run freely; naming and renaming wait for the
// file's turn in seq.
func (r *Runner) processFile(ctx context.Context, idx int, path string, now time.Time, seq *turns) report.Entry {
	e := report.Entry{Index: idx, Source: path, Confidence: -1}
	fail := func(stage report.Stage, format string, err error) report.Entry {
		e.Outcome = report.OutcomeFailed
		e.Stage = stage
		e.Reason = fmt.Sprintf(format, err)
		return e
	}

	// --- Probe ---
	in, err := probe.ProbeFS(r.fs, path)
	if err != nil {
		return fail(report.StageProbe, "unreadable input: %v", err)
	}
	r.scanned.Add(in.Size)

	// --- Rasterize (PDF only) ---
	img := in.Path
	if in.Kind == probe.KindPDF {
		page, err := r.pdf.Rasterize(ctx, in.Path, r.cfg.PDF.Page, r.cfg.PDF.DPI)
		if err != nil {
			return fail(report.StageRasterize, "rasterization failed: %v", err)
		}
		defer page.Release()
		img = page.Path
	}

	// --- Preprocess (best effort) ---
	pre := ""
	if r.cfg.OCR.Preprocess {
		p, err := raster.Preprocess(ctx, img, raster.PreprocessOptions{MinWidth: r.cfg.OCR.MinWidth})
		if err != nil {
			r.log.Debug("Preprocessing skipped for %s: %v", in.Name(), err)
		} else {
			defer p.Release()
			pre = p.Path
		}
	}

	// --- Extract ---
	res, err := r.recognize(ctx, in.Name(), img, pre)
	if err != nil {
		return fail(report.StageExtract, "extraction failed: %v", err)
	}
	e.Confidence = res.Confidence
	e.Excerpt = display.Excerpt(res.Text, excerptLen)

	// --- Name and plan (in discovery order) ---
	seq.wait(idx)
	cand := naming.Derive(res.Text, in.Name(), r.rules, now)
	plan, err := planner.BuildPlan(in.Path, cand, r.targetDir(in.Path), r.resolver)
	if err != nil {
		return fail(report.StageRename, "rename failed: %v", err)
	}
	e.Dest = plan.Dest

	if plan.Action == planner.ActionNoop {
		e.Outcome = report.OutcomeNoop
		e.Reason = plan.Reason
		return e
	}
	if plan.Suffix > 0 {
		e.Reason = fmt.Sprintf("name taken, added suffix _%d", plan.Suffix)
	}
	if r.cfg.DryRun {
		e.Outcome = report.OutcomePlanned
		return e
	}

	// --- Rename ---
	if err := r.rename(plan); err != nil {
		r.resolver.Release(plan.Dest)
		e.Dest = ""
		return fail(report.StageRename, "rename failed: %v", err)
	}
	e.Outcome = report.OutcomeRenamed
	return e
}

// recognize runs OCR on the preprocessed image when there is one. An empty
// result or an unreadable-image error there is retried once on the raw
// image, since thresholding can wipe out faint or colored print.
func (r *Runner) recognize(ctx context.Context, name, raw, pre string) (ocr.Result, error) {
	if pre == "" {
		return r.engine.Recognize(ctx, raw)
	}
	res, err := r.engine.Recognize(ctx, pre)
	switch {
	case err == nil && !res.Empty():
		return res, nil
	case err != nil && !errors.Is(err, ocr.ErrUnreadableImage):
		return res, err
	}
	r.log.Debug("Retry %s: raw image", name)
	return r.engine.Recognize(ctx, raw)
}

// rename moves plan.Source to plan.Dest after a last check that Dest is
// still free. Dest may only exist when it is Source itself, as with a
// case-only rename on a case-insensitive filesystem.
func (r *Runner) rename(plan *planner.Plan) error {
	dst, err := r.fs.Stat(plan.Dest)
	switch {
	case err == nil:
		src, serr := r.fs.Stat(plan.Source)
		if serr != nil || !os.SameFile(src, dst) {
			return &RenameError{Source: plan.Source, Dest: plan.Dest, Err: os.ErrExist}
		}
	case !errors.Is(err, os.ErrNotExist):
		return &RenameError{Source: plan.Source, Dest: plan.Dest, Err: err}
	}
	if err := r.fs.Rename(plan.Source, plan.Dest); err != nil {
		return &RenameError{Source: plan.Source, Dest: plan.Dest, Err: err}
	}
	return nil
}

func (r *Runner) newProgressBar(total int) *progressbar.ProgressBar {
	if !r.cfg.Progress || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionSetDescription("ocr"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(r.progress, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// --- Logging helpers ---

func (r *Runner) logBatchHeader(total int) {
	r.log.Info("Found %d file(s) in %s", total, r.cfg.InputDir)
	if total == 0 {
		r.log.Warn("No supported files found")
		return
	}
	r.log.Info("OCR: %s (lang %s, psm %d), PDF: %s page %d at %d dpi",
		r.engine.Name(), r.cfg.OCR.Language, r.cfg.OCR.PageSegMode,
		r.cfg.PDF.Backend, r.cfg.PDF.Page, r.cfg.PDF.DPI)
	r.log.Info("Naming: %s, max %d chars, fallback %s", r.cfg.Naming.Mode, r.cfg.Naming.MaxLength, r.cfg.Naming.Fallback)
	if r.cfg.OutputDir != "" {
		r.log.Info("Output: %s", r.cfg.OutputDir)
	}
	if r.cfg.Jobs > 1 {
		r.log.Info("Workers: %d", r.cfg.Jobs)
	}
	if r.cfg.DryRun {
		r.log.Warn("Dry run: no files will be renamed")
	}
}

func (r *Runner) logOutcome(e report.Entry, total int) {
	r.log.Debug("[%d/%d] %s: %q", e.Index+1, total, filepath.Base(e.Source), e.Excerpt)
	r.log.Outcome(e.Source, string(e.Outcome), e.Dest, e.Reason)
}

func (r *Runner) logSummary(stats *RunStats) {
	r.log.Info("==============================")
	if r.cfg.DryRun {
		r.log.Info("Done (dry run): %d planned, %d unchanged, %d failed", stats.Planned, stats.Noop, stats.Failed)
	} else {
		r.log.Info("Done: %d renamed, %d unchanged, %d failed", stats.Renamed, stats.Noop, stats.Failed)
	}
	r.log.Info("  Scanned %s in %s", display.FormatBytes(stats.BytesScanned), display.FormatDuration(stats.Elapsed))
	if stats.Failed > 0 {
		r.log.Warn("  %d file(s) could not be renamed; originals were left untouched", stats.Failed)
	}
}
