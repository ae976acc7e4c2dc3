package naming

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/backmassage/ocrrename/internal/config"
)

// Rule names recorded on a [Candidate].
const (
	RuleFirstLine   = "first-line"
	RuleComponents  = "components"
	RuleKeep        = "fallback-keep"
	RulePlaceholder = "fallback-placeholder"
)

// defaultPlaceholder is used when the configured placeholder sanitizes to nothing.
const defaultPlaceholder = "OCR_Scan"

// Rules is the naming configuration applied by [Derive].
type Rules struct {
	Mode          config.NamingMode
	MaxLength     int
	Replacement   string
	Transliterate bool
	Fallback      config.Fallback
	Placeholder   string

	Components []string
	Prefix     string
	Separator  string
	SearchTerm string
	Currency   string
}

// RulesFrom builds Rules from the naming section of the config.
func RulesFrom(cfg config.NamingConfig) Rules {
	return Rules{
		Mode:          cfg.Mode,
		MaxLength:     cfg.MaxLength,
		Replacement:   cfg.Replacement,
		Transliterate: cfg.Transliterate,
		Fallback:      cfg.Fallback,
		Placeholder:   cfg.Placeholder,
		Components:    cfg.ComponentList(),
		Prefix:        cfg.Prefix,
		Separator:     cfg.Separator,
		SearchTerm:    cfg.SearchTerm,
		Currency:      cfg.Currency,
	}
}

// Candidate is a derived filename before collision resolution.
type Candidate struct {
	Stem string // Without extension.
	Ext  string // Original extension, verbatim.
	Rule string // Which rule produced Stem.
}

// Filename returns Stem + Ext.
func (c Candidate) Filename() string { return c.Stem + c.Ext }

// Fallback reports whether Stem came from a fallback rule.
func (c Candidate) Fallback() bool { return c.Rule == RuleKeep || c.Rule == RulePlaceholder }

// Derive maps recognized text and the original filename to a candidate name.
// It is total: every input yields a non-empty Stem.
func Derive(text, originalName string, r Rules, now time.Time) Candidate {
	ext := filepath.Ext(originalName)
	if strings.TrimSpace(text) != "" {
		switch r.Mode {
		case config.NamingComponents:
			md := ExtractMetadata(text, r.SearchTerm, r.Currency, r.Placeholder)
			if stem := normalize(Compose(md, r, now), r); stem != "" {
				return Candidate{Stem: stem, Ext: ext, Rule: RuleComponents}
			}
		default:
			if stem := firstLine(text, r); stem != "" {
				return Candidate{Stem: stem, Ext: ext, Rule: RuleFirstLine}
			}
		}
	}
	return fallback(originalName, ext, r)
}

// firstLine returns the first line whose normalized form is non-empty.
func firstLine(text string, r Rules) string {
	for _, line := range strings.Split(text, "\n") {
		if stem := normalize(line, r); stem != "" {
			return stem
		}
	}
	return ""
}

func fallback(originalName, ext string, r Rules) Candidate {
	if r.Fallback == config.FallbackPlaceholder {
		stem := normalize(r.Placeholder, r)
		if stem == "" {
			stem = defaultPlaceholder
		}
		return Candidate{Stem: stem, Ext: ext, Rule: RulePlaceholder}
	}
	return Candidate{Stem: strings.TrimSuffix(originalName, ext), Ext: ext, Rule: RuleKeep}
}
