package raster

import (
	"errors"
	"fmt"
	"regexp"
)

// Kind classifies rasterization failures.
type Kind int

const (
	KindFailed Kind = iota
	KindPageOutOfRange
	KindCorruptDocument
	KindRendererUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindPageOutOfRange:
		return "page out of range"
	case KindCorruptDocument:
		return "corrupt or unreadable document"
	case KindRendererUnavailable:
		return "renderer unavailable"
	default:
		return "render failed"
	}
}

// Sentinels matched by [Error.Is].
var (
	ErrPageOutOfRange      = errors.New("page out of range")
	ErrCorruptDocument     = errors.New("corrupt or unreadable document")
	ErrRendererUnavailable = errors.New("renderer unavailable")
)

// Error is returned by every Rasterizer on failure.
type Error struct {
	Kind Kind
	Path string
	Page int
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (page %d): %s", e.Path, e.Page, e.Kind)
	}
	return fmt.Sprintf("%s (page %d): %s: %v", e.Path, e.Page, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match an Error against the sentinel for its kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrPageOutOfRange:
		return e.Kind == KindPageOutOfRange
	case ErrCorruptDocument:
		return e.Kind == KindCorruptDocument
	case ErrRendererUnavailable:
		return e.Kind == KindRendererUnavailable
	}
	return false
}

// Pre-compiled regexes for classifying pdftoppm stderr. Checked in order by
// [ClassifyStderr]; the first match wins.
var (
	rePageRange = regexp.MustCompile(
		`(?i)Wrong page range given|first page \(\d+\) can not be after the last page|` +
			`Invalid page number|page \d+ out of range`)

	reCorrupt = regexp.MustCompile(
		`(?i)Syntax Error|Couldn't find trailer|Couldn't read xref|xref table|` +
			`May not be a PDF file|Couldn't open file|Incorrect password|` +
			`Document stream is empty|PDF file is damaged|Internal Error`)
)

// ClassifyStderr maps pdftoppm stderr onto a failure kind.
func ClassifyStderr(stderr string) Kind {
	switch {
	case rePageRange.MatchString(stderr):
		return KindPageOutOfRange
	case reCorrupt.MatchString(stderr):
		return KindCorruptDocument
	default:
		return KindFailed
	}
}
