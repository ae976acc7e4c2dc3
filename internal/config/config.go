// Package config holds runtime configuration: defaults, layered loading
// (YAML file, .env, environment, CLI flags) and validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gobwas/glob"
)

// --- Enum types for validated string fields ---

// OCRBackend selects the text extractor implementation.
type OCRBackend string

const (
	OCRTesseract OCRBackend = "tesseract" // tesseract CLI (default).
	OCRGosseract OCRBackend = "gosseract" // libtesseract via cgo; needs -tags gosseract.
)

// PDFBackend selects the document rasterizer implementation.
type PDFBackend string

const (
	PDFPoppler PDFBackend = "pdftoppm" // poppler-utils pdftoppm (default).
	PDFFitz    PDFBackend = "fitz"     // in-process MuPDF via go-fitz.
)

// NamingMode selects how a name is derived from recognized text.
type NamingMode string

const (
	NamingFirstLine  NamingMode = "first-line" // First usable line of text (default).
	NamingComponents NamingMode = "components" // Metadata components (date, vendor, ...).
)

// Fallback controls naming when recognized text yields nothing usable.
type Fallback string

const (
	FallbackKeep        Fallback = "keep"        // Keep the original name (no-op).
	FallbackPlaceholder Fallback = "placeholder" // Use Naming.Placeholder.
)

// ReportFormat is the on-disk format of the batch report.
type ReportFormat string

const (
	ReportText ReportFormat = "text"
	ReportJSON ReportFormat = "json"
	ReportYAML ReportFormat = "yaml"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// LogFormat selects console output encoding.
type LogFormat string

const (
	LogText LogFormat = "text"
	LogJSON LogFormat = "json"
)

// Valid naming components, in the order they are documented.
var validComponents = []string{"date", "vendor", "amount", "invoice", "reference", "custom", "timestamp"}

// Config holds all runtime settings. It is built once by [Load] and then
// passed by pointer to every component; nothing reads ambient globals.
type Config struct {
	// Paths.
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"` // Empty: rename in place.
	Recursive bool   `yaml:"recursive"`
	Exclude   string `yaml:"exclude"` // Comma list of glob patterns.

	// Behavior.
	DryRun bool `yaml:"dry_run"`
	Jobs   int  `yaml:"jobs"` // Default: 1 (sequential).

	OCR    OCRConfig    `yaml:"ocr"`
	PDF    PDFConfig    `yaml:"pdf"`
	Naming NamingConfig `yaml:"naming"`

	// Report.
	ReportPath   string       `yaml:"report"`
	ReportFormat ReportFormat `yaml:"report_format"`

	// Display and logging.
	Verbose   bool      `yaml:"verbose"`
	ColorMode ColorMode `yaml:"color"`
	LogFormat LogFormat `yaml:"log_format"`
	LogFile   string    `yaml:"log_file"`
	Progress  bool      `yaml:"progress"`

	// Modes (command line only).
	CheckOnly   bool   `yaml:"-"`
	InspectPath string `yaml:"-"`
}

// OCRConfig configures the text extractor.
type OCRConfig struct {
	Backend     OCRBackend `yaml:"backend"`
	Command     string     `yaml:"command"`      // Default: "tesseract".
	Language    string     `yaml:"language"`     // Default: "eng". "+"-joined for several.
	PageSegMode int        `yaml:"psm"`          // Default: 3 (fully automatic).
	TessdataDir string     `yaml:"tessdata_dir"` // Optional --tessdata-dir.
	Preprocess  bool       `yaml:"preprocess"`   // Default: true.
	MinWidth    int        `yaml:"min_width"`    // Upscale narrower images. Default: 1000 px.
}

// PDFConfig configures the document rasterizer.
type PDFConfig struct {
	Backend PDFBackend `yaml:"backend"`
	Command string     `yaml:"command"` // Default: "pdftoppm".
	Page    int        `yaml:"page"`    // 1-based. Default: 1.
	DPI     int        `yaml:"dpi"`     // Default: 300.
}

// NamingConfig configures the naming rule engine.
type NamingConfig struct {
	Mode          NamingMode `yaml:"mode"`
	MaxLength     int        `yaml:"max_length"`    // Runes, extension excluded. Default: 64.
	Replacement   string     `yaml:"replacement"`   // Default: "_".
	Transliterate bool       `yaml:"transliterate"` // Default: true.
	Fallback      Fallback   `yaml:"fallback"`
	Placeholder   string     `yaml:"placeholder"` // Default: "OCR_Scan".

	// Components mode.
	Components string `yaml:"components"` // Comma list. Default: "date,vendor".
	Prefix     string `yaml:"prefix"`
	Separator  string `yaml:"separator"` // Default: "_".
	SearchTerm string `yaml:"search"`
	Currency   string `yaml:"currency"` // Default: "USD" when no symbol is printed.
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// the file, environment and flag layers are applied.
func DefaultConfig() Config {
	return Config{
		Jobs: 1,
		OCR: OCRConfig{
			Backend:     OCRTesseract,
			Command:     "tesseract",
			Language:    "eng",
			PageSegMode: 3,
			Preprocess:  true,
			MinWidth:    1000,
		},
		PDF: PDFConfig{
			Backend: PDFPoppler,
			Command: "pdftoppm",
			Page:    1,
			DPI:     300,
		},
		Naming: NamingConfig{
			Mode:          NamingFirstLine,
			MaxLength:     64,
			Replacement:   "_",
			Transliterate: true,
			Fallback:      FallbackKeep,
			Placeholder:   "OCR_Scan",
			Components:    "date,vendor",
			Separator:     "_",
			Currency:      "USD",
		},
		ReportFormat: ReportText,
		ColorMode:    ColorAuto,
		LogFormat:    LogText,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// ComponentList returns the parsed, lower-cased naming components.
func (n NamingConfig) ComponentList() []string {
	var out []string
	for _, c := range strings.Split(n.Components, ",") {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// ExcludeList returns the parsed discovery exclude patterns.
func (c *Config) ExcludeList() []string {
	var out []string
	for _, p := range strings.Split(c.Exclude, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks enum fields and numeric ranges. Outside of check and
// inspect modes it also requires the input directory.
func (c *Config) Validate() error {
	switch c.OCR.Backend {
	case OCRTesseract, OCRGosseract:
	default:
		return fmt.Errorf("invalid OCR backend %q (use 'tesseract' or 'gosseract')", c.OCR.Backend)
	}
	switch c.PDF.Backend {
	case PDFPoppler, PDFFitz:
	default:
		return fmt.Errorf("invalid PDF backend %q (use 'pdftoppm' or 'fitz')", c.PDF.Backend)
	}
	switch c.Naming.Mode {
	case NamingFirstLine, NamingComponents:
	default:
		return fmt.Errorf("invalid naming mode %q (use 'first-line' or 'components')", c.Naming.Mode)
	}
	switch c.Naming.Fallback {
	case FallbackKeep, FallbackPlaceholder:
	default:
		return fmt.Errorf("invalid fallback %q (use 'keep' or 'placeholder')", c.Naming.Fallback)
	}
	switch c.ReportFormat {
	case ReportText, ReportJSON, ReportYAML:
	default:
		return fmt.Errorf("invalid report format %q (use 'text', 'json' or 'yaml')", c.ReportFormat)
	}
	switch c.LogFormat {
	case LogText, LogJSON:
	default:
		return fmt.Errorf("invalid log format %q (use 'text' or 'json')", c.LogFormat)
	}
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color mode %q", c.ColorMode)
	}

	if strings.TrimSpace(c.OCR.Language) == "" {
		return errors.New("OCR language must not be empty")
	}
	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
		return fmt.Errorf("page segmentation mode must be 0-13 (got %d)", c.OCR.PageSegMode)
	}
	if c.OCR.MinWidth < 0 {
		return fmt.Errorf("min width must not be negative (got %d)", c.OCR.MinWidth)
	}
	if c.PDF.Page < 1 {
		return fmt.Errorf("PDF page must be 1 or greater (got %d)", c.PDF.Page)
	}
	if c.PDF.DPI < 72 || c.PDF.DPI > 1200 {
		return fmt.Errorf("DPI must be between 72 and 1200 (got %d)", c.PDF.DPI)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be 1 or greater (got %d)", c.Jobs)
	}
	if c.Naming.MaxLength < 1 {
		return fmt.Errorf("max length must be 1 or greater (got %d)", c.Naming.MaxLength)
	}
	if c.Naming.Replacement == "" {
		c.Naming.Replacement = "_"
	}
	if !isNameSafe(c.Naming.Replacement) {
		return fmt.Errorf("invalid replacement %q (use letters, digits, '_', '-' or '.')", c.Naming.Replacement)
	}
	if c.Naming.Fallback == FallbackPlaceholder && strings.TrimSpace(c.Naming.Placeholder) == "" {
		return errors.New("placeholder fallback needs a non-empty placeholder")
	}
	if c.Naming.Mode == NamingComponents {
		comps := c.Naming.ComponentList()
		if len(comps) == 0 && c.Naming.SearchTerm == "" {
			return errors.New("components mode needs at least one component")
		}
		for _, comp := range comps {
			if !isValidComponent(comp) {
				return fmt.Errorf("unknown naming component %q (use %s)", comp, strings.Join(validComponents, ", "))
			}
		}
	}

	for _, p := range c.ExcludeList() {
		if _, err := glob.Compile(p, '/'); err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %v", p, err)
		}
	}

	if c.CheckOnly || c.InspectPath != "" {
		return nil
	}
	if c.InputDir == "" {
		return errors.New("need an input directory")
	}
	return nil
}

func isValidComponent(name string) bool {
	for _, v := range validComponents {
		if v == name {
			return true
		}
	}
	return false
}

// ValidatePaths rejects an output directory nested inside a recursively
// scanned input directory, which would make discovery pick up its own
// output. Both arguments must be absolute, symlink-resolved paths; an empty
// outputAbs means in-place renaming.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	if outputAbs == "" || outputAbs == inputAbs || !c.Recursive {
		return nil
	}
	sep := string(filepath.Separator)
	if strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside a recursively scanned input directory")
	}
	return nil
}

// isNameSafe reports whether s may be inserted into a filename stem: no
// path separators, no characters the sanitizer would strip.
func isNameSafe(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_-.", r) {
			continue
		}
		return false
	}
	return true
}
