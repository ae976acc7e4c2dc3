package tool

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRun_CapturesOutput(t *testing.T) {
	requireSh(t)
	res := Run(context.Background(), Options{}, "sh", "-c", "echo out; echo '  err  ' >&2")
	require.NoError(t, res.Err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err", res.Stderr)
	assert.Equal(t, 0, ExitCode(res.Err))
}

func TestRun_TeeAndEnv(t *testing.T) {
	requireSh(t)
	var tee bytes.Buffer
	res := Run(context.Background(), Options{Tee: &tee, Env: []string{"OCRRENAME_TOOL_TEST=42"}},
		"sh", "-c", `echo "$OCRRENAME_TOOL_TEST" >&2; exit 3`)
	assert.Equal(t, "42", res.Stderr)
	assert.Equal(t, "42\n", tee.String())
	assert.Equal(t, 3, ExitCode(res.Err))
	assert.False(t, IsNotFound(res.Err))
}

func TestRun_Missing(t *testing.T) {
	res := Run(context.Background(), Options{}, "ocrrename-definitely-not-installed")
	assert.True(t, IsNotFound(res.Err))
	assert.Equal(t, -1, ExitCode(res.Err))

	res = Run(context.Background(), Options{}, filepath.Join(t.TempDir(), "nope"))
	assert.True(t, IsNotFound(res.Err))
}

func TestRun_Cancelled(t *testing.T) {
	requireSh(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := Run(ctx, Options{}, "sh", "-c", "sleep 5")
	assert.Error(t, res.Err)
}

func TestIsNotFound_Nil(t *testing.T) {
	assert.False(t, IsNotFound(nil))
}
