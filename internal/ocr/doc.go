// Package ocr recognizes text in raster images.
//
// Two engines implement [Engine]:
//   - [Tesseract] runs the tesseract command-line program per image.
//   - The gosseract engine links libtesseract through cgo. It is compiled
//     only with the "gosseract" build tag:
//
//	go build -tags gosseract ./cmd/ocrrename
//
// Without the tag, selecting it returns [ErrBackendNotCompiled].
//
// A successful run that finds no text is not an error; it yields a [Result]
// with empty Text.
package ocr
