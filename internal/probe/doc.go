// Package probe classifies input files. A file's [Kind] is derived from its
// extension when it is enumerated and confirmed by sniffing the leading magic
// bytes; when the two disagree the magic bytes win, so a PDF saved as
// "scan.png" is still rasterized.
package probe
