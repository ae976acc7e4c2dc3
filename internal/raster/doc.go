// Package raster turns one page of a PDF into a raster image the OCR engine
// can read, and optionally cleans images up before recognition.
//
// Two rasterizers implement [Rasterizer]:
//   - [PopplerRasterizer] runs poppler's pdftoppm in a private temp dir and
//     classifies its stderr into [Error] kinds.
//   - [FitzRasterizer] renders in-process with MuPDF (go-fitz).
//
// Every successful call returns a [PageImage] whose Release removes the
// temporary files; callers defer it immediately. On error nothing is left
// behind.
//
// [Preprocess] converts an image to grayscale, upscales narrow scans and
// binarizes with Otsu's threshold. Its failures are never fatal to a file.
package raster
