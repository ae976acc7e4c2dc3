// Package check provides system diagnostics (--check mode) and the startup
// dependency validation (CheckDeps) for tesseract, its language data, and
// the PDF renderer.
package check

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/backmassage/ocrrename/internal/config"
	"github.com/backmassage/ocrrename/internal/ocr"
	"github.com/backmassage/ocrrename/internal/tool"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
// Each one means the run cannot start; no file is touched.
var (
	ErrTesseractNotFound  = errors.New("tesseract not found")
	ErrPdftoppmNotFound   = errors.New("pdftoppm not found")
	ErrLanguageMissing    = errors.New("tesseract language data missing")
	ErrBackendUnavailable = errors.New("OCR backend not available in this build")
)

// Logger is the subset of logging.Logger used by RunCheck.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// IsDependencyMissing reports whether err came from CheckDeps.
func IsDependencyMissing(err error) bool {
	return errors.Is(err, ErrTesseractNotFound) ||
		errors.Is(err, ErrPdftoppmNotFound) ||
		errors.Is(err, ErrLanguageMissing) ||
		errors.Is(err, ErrBackendUnavailable)
}

// CheckDeps is the startup validation: the configured OCR backend must be
// usable with the requested languages, and the configured PDF renderer must
// be present. All problems are collected rather than stopping at the first.
func CheckDeps(ctx context.Context, cfg *config.Config) error {
	var errs error

	switch cfg.OCR.Backend {
	case config.OCRGosseract:
		if !ocr.GosseractCompiled() {
			errs = multierr.Append(errs, fmt.Errorf("%w: rebuild with -tags gosseract", ErrBackendUnavailable))
		}
	default:
		errs = multierr.Append(errs, checkTesseract(ctx, cfg.OCR))
	}

	if cfg.PDF.Backend == config.PDFPoppler {
		if _, err := tool.Lookup(cfg.PDF.Command); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: %q (install poppler-utils or use --pdf-backend fitz)", ErrPdftoppmNotFound, cfg.PDF.Command))
		}
	}
	return errs
}

func checkTesseract(ctx context.Context, cfg config.OCRConfig) error {
	if _, err := tool.Lookup(cfg.Command); err != nil {
		return fmt.Errorf("%w: %q (install tesseract-ocr or set --tesseract)", ErrTesseractNotFound, cfg.Command)
	}
	// A custom tessdata dir is not visible to --list-langs; trust the user.
	if cfg.TessdataDir != "" {
		return nil
	}
	langs, err := ocr.ListLanguages(ctx, cfg.Command)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTesseractNotFound, err)
	}
	if missing := ocr.MissingLanguages(cfg.Language, langs); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrLanguageMissing, strings.Join(missing, ", "))
	}
	return nil
}

// RunCheck runs the interactive --check flow: prints the availability of
// tesseract, its languages, the PDF renderers and the optional backends.
// Everything is logged; the returned error is the CheckDeps result.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) error {
	log.Info("=== System Check ===")

	checkTesseractVersion(ctx, cfg, log)
	checkLanguages(ctx, cfg, log)
	checkPdftoppm(ctx, cfg, log)
	checkBackends(cfg, log)

	err := CheckDeps(ctx, cfg)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			log.Error("%v", e)
		}
		return err
	}
	log.Success("All dependencies for the current configuration are available")
	return nil
}

func checkTesseractVersion(ctx context.Context, cfg *config.Config, log Logger) {
	path, err := tool.Lookup(cfg.OCR.Command)
	if err != nil {
		log.Error("tesseract not found (%s)", cfg.OCR.Command)
		return
	}
	v, err := ocr.Version(ctx, path)
	if err != nil {
		log.Warn("tesseract found at %s but --version failed: %v", path, err)
		return
	}
	log.Success("tesseract: %s (%s)", v, path)
}

func checkLanguages(ctx context.Context, cfg *config.Config, log Logger) {
	langs, err := ocr.ListLanguages(ctx, cfg.OCR.Command)
	if err != nil {
		log.Debug("could not list languages: %v", err)
		return
	}
	log.Info("Languages: %s", strings.Join(langs, " "))
	if missing := ocr.MissingLanguages(cfg.OCR.Language, langs); len(missing) > 0 {
		log.Warn("Requested language(s) not installed: %s", strings.Join(missing, ", "))
	}
}

func checkPdftoppm(ctx context.Context, cfg *config.Config, log Logger) {
	path, err := tool.Lookup(cfg.PDF.Command)
	if err != nil {
		log.Warn("pdftoppm not found (%s)", cfg.PDF.Command)
		return
	}
	// pdftoppm -v prints its version on stderr and may exit non-zero.
	res := tool.Run(ctx, tool.Options{}, path, "-v")
	line := res.Stderr
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if line == "" {
		line = "version unknown"
	}
	log.Success("pdftoppm: %s (%s)", line, path)
}

func checkBackends(cfg *config.Config, log Logger) {
	log.Info("PDF backends: %s (selected: %s)", strings.Join([]string{string(config.PDFPoppler), string(config.PDFFitz)}, ", "), cfg.PDF.Backend)
	if ocr.GosseractCompiled() {
		log.Success("gosseract backend compiled in")
	} else {
		log.Info("gosseract backend not compiled in (build with -tags gosseract)")
	}
}
