// Command ocrrename renames scanned images and PDFs after the text an OCR
// engine finds in them.
//
// It parses flags, layers configuration, checks that tesseract and the PDF
// renderer are available, and then runs the batch pipeline (or the --check
// and --inspect modes).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/backmassage/ocrrename/internal/check"
	"github.com/backmassage/ocrrename/internal/config"
	"github.com/backmassage/ocrrename/internal/display"
	"github.com/backmassage/ocrrename/internal/logging"
	"github.com/backmassage/ocrrename/internal/pipeline"
	"github.com/backmassage/ocrrename/internal/report"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

// Process exit codes.
const (
	exitOK          = 0
	exitFailed      = 1 // At least one file could not be renamed.
	exitUsage       = 2
	exitDependency  = 3
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.DefaultConfig()
	code := exitOK

	cmd := &cobra.Command{
		Use:   "ocrrename [flags] <input_dir>",
		Short: "Rename scanned documents after the text OCR finds in them",
		Long: `ocrrename reads every image and PDF in a directory, runs OCR on it
(tesseract, first PDF page by default) and renames the file after the
recognized text. Nothing leaves the machine.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	cmd.Flags().BoolP("version", "V", false, "Print version and exit")
	cmd.SetVersionTemplate("ocrrename {{.Version}}\n")
	flags := config.BindFlags(cmd.Flags(), &cfg)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := flags.Resolve(args, os.LookupEnv); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		code = execute(&cfg, stdout, stderr)
		return nil
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "ocrrename: %v\n", err)
		fmt.Fprintln(stderr, "Run 'ocrrename --help' for usage.")
		return exitUsage
	}
	return code
}

// execute runs a validated configuration and returns the exit code.
func execute(cfg *config.Config, stdout, stderr io.Writer) int {
	// Bootstrap: the logger doesn't exist yet, so errors go to stderr.
	log, err := logging.New(cfg, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "ocrrename: %v\n", err)
		return exitUsage
	}
	defer log.Close()

	if cfg.LogFormat == config.LogText {
		display.PrintBanner(stdout, version)
	}

	// Cancel on SIGINT/SIGTERM so the pipeline stops between files.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, finishing files in progress…")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.CheckOnly {
		if err := check.RunCheck(ctx, cfg, log); err != nil {
			return exitDependency
		}
		return exitOK
	}

	if cfg.InspectPath == "" {
		if code := resolvePaths(cfg, log); code != exitOK {
			return code
		}
	}

	// Fail fast, before anything on disk is touched.
	if err := check.CheckDeps(ctx, cfg); err != nil {
		log.Error("Missing dependency: %v", err)
		return exitDependency
	}

	runner, err := pipeline.NewRunner(cfg, log, pipeline.Deps{Progress: stderr})
	if err != nil {
		log.Error("%v", err)
		return exitDependency
	}
	defer runner.Close()

	if cfg.InspectPath != "" {
		if err := runner.Inspect(ctx, cfg.InspectPath, stdout); err != nil {
			log.Error("Inspect %s: %v", cfg.InspectPath, err)
			return exitFailed
		}
		return exitOK
	}

	rep, stats, runErr := runner.Run(ctx)
	if rep != nil {
		writeReport(cfg, rep, stdout, log)
	}
	switch {
	case runErr != nil:
		log.Error("%v", runErr)
		return exitFailed
	case rep.Interrupted:
		return exitInterrupted
	case !stats.OK():
		return exitFailed
	}
	return exitOK
}

// resolvePaths checks the input directory and rejects an output directory
// nested inside a recursively scanned input.
func resolvePaths(cfg *config.Config, log *logging.Logger) int {
	st, err := os.Stat(cfg.InputDir)
	if err != nil {
		log.Error("Input not found: %s", cfg.InputDir)
		return exitUsage
	}
	if !st.IsDir() {
		log.Error("Input is not a directory: %s", cfg.InputDir)
		return exitUsage
	}
	if cfg.OutputDir == "" {
		return exitOK
	}

	inputAbs, err := absPath(cfg.InputDir)
	if err != nil {
		log.Error("Cannot resolve input path: %s", cfg.InputDir)
		return exitUsage
	}
	outputAbs, err := absPath(cfg.OutputDir)
	if err != nil {
		log.Error("Cannot resolve output path: %s", cfg.OutputDir)
		return exitUsage
	}
	if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		log.Error("%v", err)
		log.Error("Choose an output path outside: %s", cfg.InputDir)
		return exitUsage
	}
	return exitOK
}

// writeReport writes the report to cfg.ReportPath ("-" for stdout). A
// failure to write it is logged but does not change the exit code.
func writeReport(cfg *config.Config, rep *report.Report, stdout io.Writer, log *logging.Logger) {
	switch cfg.ReportPath {
	case "":
		return
	case "-":
		if err := rep.Write(stdout, cfg.ReportFormat); err != nil {
			log.Error("Cannot write report: %v", err)
		}
	default:
		if err := rep.WriteFile(cfg.ReportPath, cfg.ReportFormat); err != nil {
			log.Error("Cannot write report %s: %v", cfg.ReportPath, err)
			return
		}
		log.Info("Report written to %s", cfg.ReportPath)
	}
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input vs output directory hierarchies. A missing leaf (an output
// directory not created yet) resolves through its nearest existing parent.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	parent := filepath.Dir(abs)
	if parent == abs {
		return abs, nil
	}
	p, err := absPath(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(p, filepath.Base(abs)), nil
}
