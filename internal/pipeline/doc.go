// Package pipeline is the batch driver: it discovers input files, walks each
// one through rasterize, extract, name and rename, and collects the outcomes
// into a [report.Report].
//
// Per-file states:
//
//	Enumerated -> Rasterized (PDF only) -> Extracted -> Named -> Renamed | Noop | Failed
//
// Any failure ends the file in Failed with the stage recorded; the original
// file is never modified in that case. Files run sequentially unless
// --jobs is above 1, in which case a bounded errgroup runs them
// concurrently. Report order is always discovery order.
//
// Files: discover.go (enumeration), runner.go (batch loop and per-file
// state machine), inspect.go (single-file debug view), stats.go, errors.go.
package pipeline
