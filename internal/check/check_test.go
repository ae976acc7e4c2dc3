package check

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/ocrrename/internal/config"
)

type mockLogger struct {
	lines []string
}

func (m *mockLogger) add(level, f string, a ...interface{}) {
	m.lines = append(m.lines, level+" "+fmt.Sprintf(f, a...))
}
func (m *mockLogger) Info(f string, a ...interface{})    { m.add("INFO", f, a...) }
func (m *mockLogger) Success(f string, a ...interface{}) { m.add("SUCCESS", f, a...) }
func (m *mockLogger) Warn(f string, a ...interface{})    { m.add("WARN", f, a...) }
func (m *mockLogger) Error(f string, a ...interface{})   { m.add("ERROR", f, a...) }
func (m *mockLogger) Debug(f string, a ...interface{})   { m.add("DEBUG", f, a...) }

// fakeTools writes shell stand-ins for tesseract and pdftoppm.
func fakeTools(t *testing.T) (tesseract, pdftoppm string) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	dir := t.TempDir()
	tesseract = filepath.Join(dir, "tesseract")
	pdftoppm = filepath.Join(dir, "pdftoppm")
	require.NoError(t, os.WriteFile(tesseract, []byte(`#!/bin/sh
case "$1" in
  --list-langs) echo "List of available languages in \"/usr/share/tessdata/\" (2):"; echo eng; echo osd ;;
  --version) echo "tesseract 5.3.0" ;;
esac
`), 0o755))
	require.NoError(t, os.WriteFile(pdftoppm, []byte("#!/bin/sh\necho 'pdftoppm version 22.02.0' >&2\n"), 0o755))
	return tesseract, pdftoppm
}

func testConfig(tesseract, pdftoppm string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.OCR.Command = tesseract
	cfg.PDF.Command = pdftoppm
	return &cfg
}

func TestCheckDeps_AllPresent(t *testing.T) {
	tess, pdf := fakeTools(t)
	assert.NoError(t, CheckDeps(context.Background(), testConfig(tess, pdf)))
}

func TestCheckDeps_MissingBinaries(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(filepath.Join(dir, "no-tesseract"), filepath.Join(dir, "no-pdftoppm"))

	err := CheckDeps(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTesseractNotFound)
	assert.ErrorIs(t, err, ErrPdftoppmNotFound)
	assert.True(t, IsDependencyMissing(err))
}

func TestCheckDeps_FitzSkipsPdftoppm(t *testing.T) {
	tess, _ := fakeTools(t)
	cfg := testConfig(tess, filepath.Join(t.TempDir(), "absent"))
	cfg.PDF.Backend = config.PDFFitz
	assert.NoError(t, CheckDeps(context.Background(), cfg))
}

func TestCheckDeps_MissingLanguage(t *testing.T) {
	tess, pdf := fakeTools(t)
	cfg := testConfig(tess, pdf)
	cfg.OCR.Language = "eng+deu"

	err := CheckDeps(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrLanguageMissing)
	assert.ErrorContains(t, err, "deu")
	assert.NotErrorIs(t, err, ErrTesseractNotFound)
}

func TestCheckDeps_TessdataDirSkipsLanguageCheck(t *testing.T) {
	tess, pdf := fakeTools(t)
	cfg := testConfig(tess, pdf)
	cfg.OCR.Language = "deu"
	cfg.OCR.TessdataDir = t.TempDir()
	assert.NoError(t, CheckDeps(context.Background(), cfg))
}

func TestCheckDeps_GosseractWithoutTag(t *testing.T) {
	_, pdf := fakeTools(t)
	cfg := testConfig("tesseract", pdf)
	cfg.OCR.Backend = config.OCRGosseract

	err := CheckDeps(context.Background(), cfg)
	if err == nil {
		t.Skip("built with -tags gosseract")
	}
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestIsDependencyMissing(t *testing.T) {
	assert.False(t, IsDependencyMissing(nil))
	assert.False(t, IsDependencyMissing(os.ErrNotExist))
	assert.True(t, IsDependencyMissing(fmt.Errorf("wrapped: %w", ErrLanguageMissing)))
}

func TestRunCheck(t *testing.T) {
	tess, pdf := fakeTools(t)
	log := &mockLogger{}

	require.NoError(t, RunCheck(context.Background(), testConfig(tess, pdf), log))
	assert.Contains(t, log.lines, "SUCCESS tesseract: tesseract 5.3.0 ("+tess+")")
	assert.Contains(t, log.lines, "INFO Languages: eng osd")
	assert.Contains(t, log.lines, "SUCCESS pdftoppm: pdftoppm version 22.02.0 ("+pdf+")")
}

func TestRunCheck_ReportsEveryMissingDependency(t *testing.T) {
	dir := t.TempDir()
	log := &mockLogger{}

	err := RunCheck(context.Background(), testConfig(filepath.Join(dir, "t"), filepath.Join(dir, "p")), log)
	require.Error(t, err)

	var errs int
	for _, l := range log.lines {
		if len(l) > 5 && l[:5] == "ERROR" {
			errs++
		}
	}
	// One from the tesseract probe, two from CheckDeps.
	assert.Equal(t, 3, errs)
}
