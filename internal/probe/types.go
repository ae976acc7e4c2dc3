package probe

import (
	"path/filepath"
	"strings"
)

// Kind is the tagged variant of an input file.
type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindPDF
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// InputFile is one file selected for processing. Kind is fixed once the file
// has been probed.
type InputFile struct {
	Path   string
	Size   int64
	Kind   Kind
	Format string // Sniffed format: png, jpeg, gif, tiff, bmp, webp, pdf.
}

// Name returns the base name of the file.
func (f *InputFile) Name() string { return filepath.Base(f.Path) }

// Ext returns the original extension verbatim, including the dot.
func (f *InputFile) Ext() string { return filepath.Ext(f.Path) }

// supportedExts maps lower-cased extensions to the kind they imply.
var supportedExts = map[string]Kind{
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".tif":  KindImage,
	".tiff": KindImage,
	".bmp":  KindImage,
	".gif":  KindImage,
	".webp": KindImage,
	".pdf":  KindPDF,
}

// KindFromExt returns the kind implied by the extension of path
// (case-insensitive), or KindUnknown.
func KindFromExt(path string) Kind {
	return supportedExts[strings.ToLower(filepath.Ext(path))]
}

// IsSupported reports whether path has a supported extension.
func IsSupported(path string) bool { return KindFromExt(path) != KindUnknown }
