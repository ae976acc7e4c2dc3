package ocr

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/backmassage/ocrrename/internal/tool"
)

// Tesseract runs the tesseract command-line program. Safe for concurrent use.
type Tesseract struct {
	opts Options
}

// NewTesseract returns a CLI engine. Empty Command and Language default to
// "tesseract" and "eng".
func NewTesseract(opts Options) *Tesseract {
	if opts.Command == "" {
		opts.Command = "tesseract"
	}
	if opts.Language == "" {
		opts.Language = "eng"
	}
	return &Tesseract{opts: opts}
}

func (t *Tesseract) Name() string { return "tesseract" }

func (t *Tesseract) Close() error { return nil }

// Args returns the tesseract argument list for imagePath. Text goes to
// outBase.txt and word boxes to outBase.tsv. Exported for tests.
func (t *Tesseract) Args(imagePath, outBase string) []string {
	args := []string{imagePath, outBase, "-l", t.opts.Language, "--psm", strconv.Itoa(t.opts.PageSegMode)}
	if t.opts.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.opts.TessdataDir)
	}
	return append(args, "txt", "tsv")
}

// Recognize runs tesseract on imagePath. Text is read from the txt output
// (stdout when the file is missing) and Confidence is the mean word
// confidence from the tsv output, or -1 without one.
func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (Result, error) {
	dir, err := os.MkdirTemp("", "ocrrename-tess-")
	if err != nil {
		return Result{}, &Error{Kind: KindFailed, Engine: t.Name(), Path: imagePath, Err: eris.Wrap(err, "create temp dir")}
	}
	defer os.RemoveAll(dir)
	base := filepath.Join(dir, "out")

	res := tool.Run(ctx, tool.Options{}, t.opts.Command, t.Args(imagePath, base)...)
	if res.Err != nil {
		e := &Error{Engine: t.Name(), Path: imagePath}
		switch {
		case ctx.Err() != nil:
			e.Kind, e.Err = KindFailed, ctx.Err()
		case tool.IsNotFound(res.Err):
			e.Kind, e.Err = KindEngineUnavailable, eris.Wrapf(res.Err, "run %s", t.opts.Command)
		default:
			e.Kind = ClassifyStderr(res.Stderr)
			e.Err = eris.Wrapf(res.Err, "exit %d: %s", tool.ExitCode(res.Err), lastLine(res.Stderr))
		}
		return Result{}, e
	}

	text := res.Stdout
	if b, err := os.ReadFile(base + ".txt"); err == nil {
		text = string(b)
	}
	conf := -1.0
	if b, err := os.ReadFile(base + ".tsv"); err == nil {
		conf = MeanWordConfidence(string(b))
	}
	return Result{
		Text:       normalizeText(text),
		Confidence: conf,
		Engine:     t.Name(),
	}, nil
}

// MeanWordConfidence averages the conf column over the word rows (level 5)
// of tesseract's tsv output. Rows with a negative confidence or no text are
// ignored. It returns -1 when there are no such rows.
func MeanWordConfidence(tsv string) float64 {
	lines := strings.Split(strings.ReplaceAll(tsv, "\r\n", "\n"), "\n")
	if len(lines) == 0 {
		return -1
	}
	levelCol, confCol, textCol := -1, -1, -1
	for i, name := range strings.Split(lines[0], "\t") {
		switch strings.TrimSpace(name) {
		case "level":
			levelCol = i
		case "conf":
			confCol = i
		case "text":
			textCol = i
		}
	}
	if levelCol < 0 || confCol < 0 || textCol < 0 {
		return -1
	}

	var sum float64
	var n int
	for _, line := range lines[1:] {
		f := strings.Split(line, "\t")
		if len(f) <= max(levelCol, confCol, textCol) || f[levelCol] != "5" || strings.TrimSpace(f[textCol]) == "" {
			continue
		}
		c, err := strconv.ParseFloat(f[confCol], 64)
		if err != nil || c < 0 {
			continue
		}
		sum += c
		n++
	}
	if n == 0 {
		return -1
	}
	return sum / float64(n)
}

// ListLanguages returns the languages tesseract has data for. Older
// versions print the list on stderr, so both streams are read.
func ListLanguages(ctx context.Context, command string) ([]string, error) {
	res := tool.Run(ctx, tool.Options{}, command, "--list-langs")
	if res.Err != nil {
		return nil, eris.Wrapf(res.Err, "%s --list-langs", command)
	}
	var langs []string
	for _, line := range strings.Split(res.Stdout+"\n"+res.Stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of available languages") || strings.Contains(line, " ") {
			continue
		}
		langs = append(langs, line)
	}
	return langs, nil
}

// MissingLanguages returns the parts of a "+"-joined language string that are
// not in available.
func MissingLanguages(lang string, available []string) []string {
	have := make(map[string]bool, len(available))
	for _, l := range available {
		have[l] = true
	}
	var missing []string
	for _, l := range strings.Split(lang, "+") {
		l = strings.TrimSpace(l)
		if l != "" && !have[l] {
			missing = append(missing, l)
		}
	}
	return missing
}

// Version returns the first line of `tesseract --version`.
func Version(ctx context.Context, command string) (string, error) {
	res := tool.Run(ctx, tool.Options{}, command, "--version")
	if res.Err != nil {
		return "", eris.Wrapf(res.Err, "%s --version", command)
	}
	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		out = res.Stderr
	}
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}
	return strings.TrimSpace(out), nil
}

// normalizeText converts CRLF, drops form feeds and trims the result.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "")
	return strings.TrimSpace(s)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
