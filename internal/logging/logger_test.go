package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/ocrrename/internal/config"
)

func newTestLogger(t *testing.T, mutate func(*config.Config)) (*Logger, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	if mutate != nil {
		mutate(&cfg)
	}
	var out, errOut bytes.Buffer
	l, err := New(&cfg, &out, &errOut)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, &out, &errOut
}

func TestLogger_ConsoleLevels(t *testing.T) {
	l, out, errOut := newTestLogger(t, nil)

	l.Info("scanning %d files", 3)
	l.Success("done")
	l.Warn("careful")
	l.Error("broken")
	l.Debug("hidden")

	stdout := out.String()
	assert.Contains(t, stdout, "[INFO] scanning 3 files")
	assert.Contains(t, stdout, "[SUCCESS] done")
	assert.Contains(t, stdout, "[WARN] careful")
	assert.NotContains(t, stdout, "broken", "errors go to stderr")
	assert.NotContains(t, stdout, "hidden", "debug needs verbose")
	assert.Contains(t, errOut.String(), "[ERROR] broken")
}

func TestLogger_VerboseShowsDebug(t *testing.T) {
	l, out, _ := newTestLogger(t, func(c *config.Config) { c.Verbose = true })
	l.Debug("details")
	assert.Contains(t, out.String(), "[DEBUG] details")
}

func TestLogger_JSONFormat(t *testing.T) {
	l, out, _ := newTestLogger(t, func(c *config.Config) { c.LogFormat = config.LogJSON })
	l.Outcome("/scans/a.png", "renamed", "/scans/Invoice.png", "")

	var evt map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &evt))
	assert.Equal(t, "success", evt["level"])
	assert.Equal(t, "/scans/a.png", evt["file"])
	assert.Equal(t, "renamed", evt["outcome"])
	assert.Equal(t, "/scans/Invoice.png", evt["dest"])
	assert.Equal(t, "a.png -> Invoice.png", evt["message"])
}

func TestLogger_OutcomeFailedIsWarning(t *testing.T) {
	l, out, errOut := newTestLogger(t, nil)
	l.Outcome("/scans/b.pdf", "failed", "", "rasterization failed: corrupt")
	assert.Contains(t, out.String(), "[WARN] b.pdf")
	assert.Contains(t, out.String(), "rasterization failed")
	assert.Empty(t, errOut.String())
}

func TestLogger_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ocrrename.log")
	l, _, _ := newTestLogger(t, func(c *config.Config) { c.LogFile = path })
	l.Info("to file")
	l.Error("also to file")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"level":"info"`)
	assert.Contains(t, lines[0], `"message":"to file"`)
	assert.Contains(t, lines[1], `"level":"error"`)
}

func TestLogger_CloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	l, _, _ := newTestLogger(t, func(c *config.Config) { c.LogFile = path })
	assert.NoError(t, l.Close())
	assert.NoError(t, l.Close())
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Info("nothing")
	l.Outcome("a", "noop", "", "")
	assert.NoError(t, l.Close())
}
