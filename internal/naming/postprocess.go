package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Transliterate folds accented letters to their base form ("Café" ->
// "Cafe"). Letters without a decomposition (ß, ø, non-Latin scripts) are
// kept.
func Transliterate(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// allowedRune reports whether r may appear in a filename stem as is.
func allowedRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.'
}

// Sanitize replaces every rune that is not a letter, digit, '-' or '.' with
// repl, collapses runs of repl and trims separators from both ends. Windows
// device names (CON, NUL, COM1, ...) get repl appended.
func Sanitize(s, repl string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if allowedRune(r) {
			if pending && b.Len() > 0 {
				b.WriteString(repl)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	out := trimSeparators(b.String(), repl)
	if isReservedName(out) {
		out += repl
	}
	return out
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// trimSeparators removes '_', '.', '-' and repl from both ends of s.
func trimSeparators(s, repl string) string {
	for {
		before := s
		s = strings.Trim(s, "_.-")
		if repl != "" {
			s = strings.TrimPrefix(s, repl)
			s = strings.TrimSuffix(s, repl)
		}
		if s == before {
			return s
		}
	}
}

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// isReservedName reports whether stem is a Windows device name, with or
// without a trailing extension-like part ("nul.txt").
func isReservedName(stem string) bool {
	base := stem
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return reservedNames[strings.ToUpper(base)]
}

// normalize runs the full pipeline on one piece of text. The result may be
// empty.
func normalize(s string, r Rules) string {
	if r.Transliterate {
		s = Transliterate(s)
	}
	s = Sanitize(s, r.Replacement)
	s = Truncate(s, r.MaxLength)
	s = trimSeparators(s, r.Replacement)
	if isReservedName(s) {
		s += r.Replacement
	}
	return s
}
