package probe

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Sentinel errors for files that cannot be processed.
var (
	ErrEmptyFile   = errors.New("file is empty")
	ErrUnsupported = errors.New("unsupported file type")
)

// sniffLen is enough for every signature below (WEBP needs 12 bytes).
const sniffLen = 16

type signature struct {
	format string
	kind   Kind
	match  func(b []byte) bool
}

func prefix(p string) func([]byte) bool {
	return func(b []byte) bool { return bytes.HasPrefix(b, []byte(p)) }
}

var signatures = []signature{
	{"pdf", KindPDF, prefix("%PDF-")},
	{"png", KindImage, prefix("\x89PNG\r\n\x1a\n")},
	{"jpeg", KindImage, prefix("\xff\xd8\xff")},
	{"gif", KindImage, prefix("GIF87a")},
	{"gif", KindImage, prefix("GIF89a")},
	{"tiff", KindImage, prefix("II*\x00")},
	{"tiff", KindImage, prefix("MM\x00*")},
	{"bmp", KindImage, prefix("BM")},
	{"webp", KindImage, func(b []byte) bool {
		return len(b) >= 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == "WEBP"
	}},
}

// Sniff identifies the format from the leading bytes of a file.
func Sniff(head []byte) (format string, kind Kind) {
	for _, s := range signatures {
		if s.match(head) {
			return s.format, s.kind
		}
	}
	return "", KindUnknown
}

// Probe stats and sniffs path on the OS filesystem.
func Probe(path string) (*InputFile, error) {
	return ProbeFS(afero.NewOsFs(), path)
}

// ProbeFS stats and sniffs path on fsys. Zero-byte files return
// [ErrEmptyFile]. Files whose content matches no known signature keep the
// kind implied by their extension; files with neither return [ErrUnsupported].
func ProbeFS(fsys afero.Fs, path string) (*InputFile, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	in := &InputFile{Path: path, Size: st.Size(), Kind: KindFromExt(path)}
	if format, kind := Sniff(head[:n]); kind != KindUnknown {
		in.Format, in.Kind = format, kind
	}
	if in.Kind == KindUnknown {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
	return in, nil
}
