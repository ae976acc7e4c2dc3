// Package tool runs the external programs ocrrename depends on (pdftoppm,
// tesseract) and captures their output for error classification.
package tool

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os/exec"
	"strings"
)

// Result holds the outcome of a single invocation.
type Result struct {
	Stdout string
	Stderr string
	Err    error
}

// Options tune a single invocation.
type Options struct {
	// Tee, when non-nil, also receives stderr in real time (verbose mode).
	Tee io.Writer
	// Env is appended to the inherited environment.
	Env []string
}

// Run executes name with args. Stderr is captured silently unless opts.Tee
// is set. The process is killed when ctx is cancelled.
func Run(ctx context.Context, opts Options, name string, args ...string) Result {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), opts.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if opts.Tee != nil {
		cmd.Stderr = io.MultiWriter(&stderr, opts.Tee)
	} else {
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	return Result{
		Stdout: stdout.String(),
		Stderr: strings.TrimSpace(stderr.String()),
		Err:    err,
	}
}

// IsNotFound reports whether err means the program itself could not be
// started: not on PATH, a missing explicit path, or a file that is not
// executable.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return true
	}
	var pe *fs.PathError
	return errors.As(err, &pe) && errors.Is(pe.Err, fs.ErrPermission)
}

// ExitCode returns the process exit code, or -1 when the process did not
// run to completion.
func ExitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	if err == nil {
		return 0
	}
	return -1
}

// Lookup resolves a program name or path to an executable path.
func Lookup(name string) (string, error) {
	return exec.LookPath(name)
}
