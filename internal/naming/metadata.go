package naming

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Metadata holds the components mined from recognized text. Empty fields
// were not found.
type Metadata struct {
	Date      string
	Vendor    string
	Amount    string
	Invoice   string
	Reference string
	Custom    string
}

// Get returns the named component.
func (m Metadata) Get(name string) string {
	switch name {
	case "date":
		return m.Date
	case "vendor":
		return m.Vendor
	case "amount":
		return m.Amount
	case "invoice":
		return m.Invoice
	case "reference":
		return m.Reference
	case "custom":
		return m.Custom
	}
	return ""
}

// metadataRule pairs a compiled regex with an extraction function. Rules
// are evaluated in order by [ExtractMetadata]; a rule that finds nothing
// leaves its field empty.
type metadataRule struct {
	Name    string
	Pattern *regexp.Regexp
	Extract func(text string, re *regexp.Regexp, md *Metadata, opts extractOptions)
}

type extractOptions struct {
	currency string
}

var (
	reDate = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)

	reAmount = regexp.MustCompile(
		`(?i)(?:total|amount|s)?\s*([$€£])?\s*(\d{1,3}(?:[,.\s]?\d{3})*[.,]\d{2})`)

	reInvoice = regexp.MustCompile(
		`(?i)\b(?:invoice|inv|bill|statement)\b\.?\s*(?:number|num|no\.?)?\s*[:#\s]*([a-zA-Z0-9-]{3,20})`)

	reReference = regexp.MustCompile(
		`(?i)\b(?:reference|ref|po)\b\.?\s*(?:number|num|no\.?)?\s*[:#\s]*([a-zA-Z0-9-]{3,20})`)

	reVendorStrip = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)
	reIDStrip     = regexp.MustCompile(`[^a-zA-Z0-9-]`)
	rePrefixStrip = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
	reSpaces      = regexp.MustCompile(`\s+`)
)

var currencySymbols = map[string]string{"$": "USD", "€": "EUR", "£": "GBP"}

var metadataRules = []metadataRule{
	{"date", reDate, func(text string, re *regexp.Regexp, md *Metadata, _ extractOptions) {
		if m := re.FindString(text); m != "" {
			md.Date = normalizeDate(m)
		}
	}},
	{"amount", reAmount, func(text string, re *regexp.Regexp, md *Metadata, o extractOptions) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return
		}
		cur := o.currency
		if c, ok := currencySymbols[m[1]]; ok {
			cur = c
		}
		amount := strings.NewReplacer(",", "", " ", "", "\t", "", "\n", "").Replace(m[2])
		if cur == "" {
			md.Amount = amount
		} else {
			md.Amount = cur + "-" + amount
		}
	}},
	{"invoice", reInvoice, func(text string, re *regexp.Regexp, md *Metadata, _ extractOptions) {
		md.Invoice = firstID(text, re)
	}},
	{"reference", reReference, func(text string, re *regexp.Regexp, md *Metadata, _ extractOptions) {
		if md.Invoice == "" {
			md.Reference = firstID(text, re)
		}
	}},
}

// ExtractMetadata mines text for naming components. searchTerm, when set,
// fills Custom; vendorDefault is used when the first line has no usable
// characters.
func ExtractMetadata(text, searchTerm, currency, vendorDefault string) Metadata {
	var md Metadata
	opts := extractOptions{currency: currency}
	for _, rule := range metadataRules {
		rule.Extract(text, rule.Pattern, &md, opts)
	}
	md.Vendor = vendor(text, vendorDefault)
	if searchTerm != "" {
		md.Custom = customMatch(text, searchTerm)
	}
	return md
}

// Compose joins the components listed in r (prefix first) with r.Separator.
// Missing date and timestamp values come from now. When nothing is found the
// result is "<date><sep>EMPTY_OCR".
func Compose(md Metadata, r Rules, now time.Time) string {
	var parts []string
	if p := strings.TrimSpace(rePrefixStrip.ReplaceAllString(r.Prefix, "")); p != "" {
		parts = append(parts, p)
	}

	comps := r.Components
	if r.SearchTerm != "" && !contains(comps, "custom") {
		comps = append([]string{"custom"}, comps...)
	}
	for _, c := range comps {
		var v string
		switch c {
		case "date":
			v = md.Date
			if v == "" {
				v = now.Format("20060102")
			}
		case "timestamp":
			v = now.Format("150405")
		default:
			v = md.Get(c)
		}
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		parts = []string{now.Format("20060102"), "EMPTY_OCR"}
	}
	return strings.Join(parts, r.Separator)
}

// normalizeDate renders a recognized date as YYYY-MM-DD when it parses
// (month first, as printed on US receipts), otherwise keeps it with '/'
// turned into '-'.
func normalizeDate(s string) string {
	if t, err := dateparse.ParseAny(s); err == nil {
		return t.Format("2006-01-02")
	}
	return strings.ReplaceAll(s, "/", "-")
}

// firstID returns the first captured identifier that contains a digit,
// upper-cased and without surrounding hyphens.
func firstID(text string, re *regexp.Regexp) string {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if id := strings.Trim(m[1], "-"); strings.ContainsAny(id, "0123456789") {
			return strings.ToUpper(id)
		}
	}
	return ""
}

// vendor takes the first non-empty line, keeps ASCII letters, digits,
// spaces and hyphens, and cuts it to 20 characters.
func vendor(text, def string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v := strings.TrimSpace(reVendorStrip.ReplaceAllString(line, ""))
		if len(v) > 20 {
			v = strings.TrimSpace(v[:20])
		}
		v = reSpaces.ReplaceAllString(v, "_")
		if v != "" {
			return v
		}
		break
	}
	return def
}

// customMatch finds term in text. A numeric term matches the longest run of
// digits and hyphens starting with it; any other term matches the
// surrounding word, case-insensitively.
func customMatch(text, term string) string {
	quoted := regexp.QuoteMeta(term)
	var match string
	if isDigits(term) {
		re := regexp.MustCompile(quoted + `[\d-]*`)
		for _, m := range re.FindAllString(text, -1) {
			if len(m) > len(match) {
				match = m
			}
		}
	} else {
		re := regexp.MustCompile(`(?i)[a-zA-Z0-9-]*` + quoted + `[a-zA-Z0-9-]*`)
		match = re.FindString(text)
	}
	return strings.Trim(reIDStrip.ReplaceAllString(match, ""), "_")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
