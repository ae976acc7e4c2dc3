package ocr

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/backmassage/ocrrename/internal/config"
)

// Engine recognizes text in a single image file.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (Result, error)
	Close() error
}

// Result is the outcome of one successful recognition.
type Result struct {
	Text       string
	Confidence float64 // 0-100, or -1 when the engine does not report it.
	Engine     string
}

// Empty reports whether no usable text was recognized.
func (r Result) Empty() bool { return strings.TrimSpace(r.Text) == "" }

// Options configure an engine.
type Options struct {
	Command     string
	Language    string
	PageSegMode int
	TessdataDir string
}

// OptionsFrom copies the OCR settings out of cfg.
func OptionsFrom(cfg config.OCRConfig) Options {
	return Options{
		Command:     cfg.Command,
		Language:    cfg.Language,
		PageSegMode: cfg.PageSegMode,
		TessdataDir: cfg.TessdataDir,
	}
}

// New returns the engine selected by cfg.
func New(cfg config.OCRConfig) (Engine, error) {
	if cfg.Backend == config.OCRGosseract {
		return newGosseract(OptionsFrom(cfg))
	}
	return NewTesseract(OptionsFrom(cfg)), nil
}

// Kind classifies recognition failures.
type Kind int

const (
	KindFailed Kind = iota
	KindEngineUnavailable
	KindLanguageMissing
	KindUnreadableImage
)

func (k Kind) String() string {
	switch k {
	case KindEngineUnavailable:
		return "OCR engine unavailable"
	case KindLanguageMissing:
		return "language data missing"
	case KindUnreadableImage:
		return "unreadable image"
	default:
		return "recognition failed"
	}
}

// Sentinel errors.
var (
	ErrEngineUnavailable  = errors.New("OCR engine unavailable")
	ErrLanguageMissing    = errors.New("language data missing")
	ErrUnreadableImage    = errors.New("unreadable image")
	ErrBackendNotCompiled = errors.New("gosseract backend not compiled in; rebuild with -tags gosseract")
)

// Error is returned by every Engine on failure.
type Error struct {
	Kind   Kind
	Engine string
	Path   string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %s", e.Engine, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s: %v", e.Engine, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match an Error against the sentinel for its kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrEngineUnavailable:
		return e.Kind == KindEngineUnavailable
	case ErrLanguageMissing:
		return e.Kind == KindLanguageMissing
	case ErrUnreadableImage:
		return e.Kind == KindUnreadableImage
	}
	return false
}

// Pre-compiled regexes for classifying tesseract stderr. Checked in order by
// [ClassifyStderr]; the first match wins.
var (
	reLanguage = regexp.MustCompile(
		`(?i)Failed loading language|Error opening data file|` +
			`Could not initialize tesseract|Failed to initialize TessBaseAPI|TESSDATA_PREFIX`)

	reImage = regexp.MustCompile(
		`(?i)Error in pix\w*Read|Image file .* cannot be read|` +
			`Unsupported image type|cannot open input file|Leptonica Error`)
)

// ClassifyStderr maps tesseract stderr onto a failure kind.
func ClassifyStderr(stderr string) Kind {
	switch {
	case reLanguage.MatchString(stderr):
		return KindLanguageMissing
	case reImage.MatchString(stderr):
		return KindUnreadableImage
	default:
		return KindFailed
	}
}
