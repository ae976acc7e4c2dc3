//go:build !gosseract

package ocr

// newGosseract reports that the cgo backend was not compiled in.
func newGosseract(Options) (Engine, error) {
	return nil, ErrBackendNotCompiled
}

// GosseractCompiled reports whether the gosseract backend is available.
func GosseractCompiled() bool { return false }
