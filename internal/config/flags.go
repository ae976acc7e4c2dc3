package config

// This file implements CLI flag definitions on a pflag.FlagSet (owned by the
// cobra root command) and the final layering step. Flags are grouped into
// paths, OCR, PDF, naming, output and display. Negated flags (e.g.
// --no-preprocess) are applied after the other layers so Config defaults
// hold unless set.

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Flags binds command-line flags to a Config and remembers the options that
// live outside of it.
type Flags struct {
	fs      *pflag.FlagSet
	cfg     *Config
	negated negatedFlags

	ConfigFile string
	EnvFile    string
}

// negatedFlags holds boolean flags that invert a default.
type negatedFlags struct {
	noPreprocess    bool
	noTransliterate bool
	forceColor      bool
	noColor         bool
}

// flags that configure the loader itself and must not be replayed onto Config.
var loaderFlags = map[string]bool{
	"config":   true,
	"env-file": true,
	"help":     true,
	"version":  true,
}

// BindFlags registers all flags on fs, writing into cfg. cfg should hold
// [DefaultConfig] so help output shows real defaults.
func BindFlags(fs *pflag.FlagSet, cfg *Config) *Flags {
	f := &Flags{fs: fs, cfg: cfg}
	definePathFlags(fs, cfg)
	defineOCRFlags(fs, cfg, &f.negated)
	definePDFFlags(fs, cfg)
	defineNamingFlags(fs, cfg, &f.negated)
	defineOutputFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &f.negated)
	fs.StringVarP(&f.ConfigFile, "config", "c", "", "YAML config file")
	fs.StringVar(&f.EnvFile, "env-file", "", "dotenv file (default: ./.env when present)")
	return f
}

// Resolve rebuilds cfg from all layers after flag parsing: defaults, config
// file, environment, then every flag the user actually set. args are the
// positional arguments left by the parser.
func (f *Flags) Resolve(args []string, lookup func(string) (string, bool)) error {
	type setFlag struct{ name, value string }
	var changed []setFlag
	f.fs.Visit(func(fl *pflag.Flag) {
		if !loaderFlags[fl.Name] {
			changed = append(changed, setFlag{fl.Name, fl.Value.String()})
		}
	})

	*f.cfg = DefaultConfig()
	if f.ConfigFile != "" {
		if err := LoadFile(f.ConfigFile, f.cfg); err != nil {
			return err
		}
	}
	if err := LoadEnvFile(f.EnvFile); err != nil {
		return err
	}
	if err := ApplyEnv(f.cfg, lookup); err != nil {
		return err
	}
	for _, s := range changed {
		if err := f.fs.Set(s.name, s.value); err != nil {
			return fmt.Errorf("--%s: %w", s.name, err)
		}
	}
	applyNegatedFlags(f.cfg, &f.negated)

	if len(args) > 1 {
		return fmt.Errorf("expected one input directory, got %d arguments", len(args))
	}
	if len(args) == 1 {
		f.cfg.InputDir = NormalizeDirArg(args[0])
	}
	if f.cfg.OutputDir != "" {
		f.cfg.OutputDir = NormalizeDirArg(f.cfg.OutputDir)
	}
	return nil
}

// definePathFlags registers -o/--output, -r/--recursive, --exclude, -n/--dry-run, -j/--jobs.
func definePathFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.OutputDir, "output", "o", cfg.OutputDir, "Move renamed files into this directory (default: rename in place)")
	fs.BoolVarP(&cfg.Recursive, "recursive", "r", cfg.Recursive, "Scan subdirectories")
	fs.StringVar(&cfg.Exclude, "exclude", cfg.Exclude, "Comma-separated glob patterns of files to skip (e.g. '*_orig.*,drafts/**')")
	fs.BoolVarP(&cfg.DryRun, "dry-run", "n", cfg.DryRun, "Report planned renames without touching files")
	fs.IntVarP(&cfg.Jobs, "jobs", "j", cfg.Jobs, "Files processed in parallel")
}

// defineOCRFlags registers -l/--lang, --ocr-backend, --tesseract, --psm, --tessdata-dir, --no-preprocess.
func defineOCRFlags(fs *pflag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.StringVarP(&cfg.OCR.Language, "lang", "l", cfg.OCR.Language, "OCR language (e.g. eng, deu, eng+fra)")
	fs.Var(newEnumValue(&cfg.OCR.Backend, OCRTesseract, OCRGosseract), "ocr-backend", "OCR backend: tesseract | gosseract")
	fs.StringVar(&cfg.OCR.Command, "tesseract", cfg.OCR.Command, "tesseract binary")
	fs.IntVar(&cfg.OCR.PageSegMode, "psm", cfg.OCR.PageSegMode, "tesseract page segmentation mode (0-13)")
	fs.StringVar(&cfg.OCR.TessdataDir, "tessdata-dir", cfg.OCR.TessdataDir, "tesseract language data directory")
	fs.IntVar(&cfg.OCR.MinWidth, "min-width", cfg.OCR.MinWidth, "Upscale images narrower than this many pixels (0 disables)")
	fs.BoolVar(&n.noPreprocess, "no-preprocess", false, "Skip grayscale/threshold preprocessing")
}

// definePDFFlags registers --pdf-backend, --pdftoppm, --page, --dpi.
func definePDFFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.Var(newEnumValue(&cfg.PDF.Backend, PDFPoppler, PDFFitz), "pdf-backend", "PDF rasterizer: pdftoppm | fitz")
	fs.StringVar(&cfg.PDF.Command, "pdftoppm", cfg.PDF.Command, "pdftoppm binary")
	fs.IntVar(&cfg.PDF.Page, "page", cfg.PDF.Page, "PDF page to recognize (1-based)")
	fs.IntVar(&cfg.PDF.DPI, "dpi", cfg.PDF.DPI, "PDF rasterization resolution")
}

// defineNamingFlags registers the naming rule parameters.
func defineNamingFlags(fs *pflag.FlagSet, cfg *Config, n *negatedFlags) {
	nc := &cfg.Naming
	fs.Var(newEnumValue(&nc.Mode, NamingFirstLine, NamingComponents), "mode", "Naming mode: first-line | components")
	fs.IntVar(&nc.MaxLength, "max-length", nc.MaxLength, "Maximum name length in characters (extension excluded)")
	fs.StringVar(&nc.Replacement, "replacement", nc.Replacement, "Replacement for spaces and illegal characters")
	fs.Var(newEnumValue(&nc.Fallback, FallbackKeep, FallbackPlaceholder), "fallback", "When no text is found: keep | placeholder")
	fs.StringVar(&nc.Placeholder, "placeholder", nc.Placeholder, "Name used by --fallback placeholder")
	fs.StringVar(&nc.Components, "components", nc.Components, "Components mode order: date,vendor,amount,invoice,reference,custom,timestamp")
	fs.StringVar(&nc.Prefix, "prefix", nc.Prefix, "Components mode prefix")
	fs.StringVar(&nc.Separator, "separator", nc.Separator, "Components mode separator")
	fs.StringVar(&nc.SearchTerm, "search", nc.SearchTerm, "Custom term to find in the text; the match leads the name")
	fs.StringVar(&nc.Currency, "currency", nc.Currency, "Currency code for amounts printed without a symbol")
	fs.BoolVar(&n.noTransliterate, "no-transliterate", false, "Keep accented letters instead of folding them to ASCII")
}

// defineOutputFlags registers --report, --report-format, --progress.
func defineOutputFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ReportPath, "report", cfg.ReportPath, "Write the batch report to this file")
	fs.Var(newEnumValue(&cfg.ReportFormat, ReportText, ReportJSON, ReportYAML), "report-format", "Report format: text | json | yaml")
	fs.BoolVar(&cfg.Progress, "progress", cfg.Progress, "Show a progress bar on stderr")
}

// defineDisplayFlags registers logging, color and the check/inspect modes.
func defineDisplayFlags(fs *pflag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")
	fs.Var(newEnumValue(&cfg.LogFormat, LogText, LogJSON), "log-format", "Console log format: text | json")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append JSON logs to file")
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.StringVar(&cfg.InspectPath, "inspect", "", "Show recognized text and the proposed name for one file")
}

// applyNegatedFlags copies negated flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noPreprocess {
		cfg.OCR.Preprocess = false
	}
	if n.noTransliterate {
		cfg.Naming.Transliterate = false
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// enumValue adapts a string-backed enum to pflag.Value, rejecting values
// outside the allowed set.
type enumValue[T ~string] struct {
	p       *T
	allowed []T
}

func newEnumValue[T ~string](p *T, allowed ...T) *enumValue[T] {
	return &enumValue[T]{p: p, allowed: allowed}
}

func (e *enumValue[T]) String() string { return string(*e.p) }

func (e *enumValue[T]) Type() string { return "string" }

func (e *enumValue[T]) Set(s string) error {
	v := T(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range e.allowed {
		if a == v {
			*e.p = v
			return nil
		}
	}
	names := make([]string, len(e.allowed))
	for i, a := range e.allowed {
		names[i] = "'" + string(a) + "'"
	}
	return fmt.Errorf("invalid value %q (use %s)", s, strings.Join(names, " or "))
}
