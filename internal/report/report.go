// Package report collects the per-file outcomes of a batch run and writes
// them as a text table, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/backmassage/ocrrename/internal/config"
)

// Outcome is the final state of one file.
type Outcome string

const (
	OutcomeRenamed Outcome = "renamed"
	OutcomeNoop    Outcome = "noop"
	OutcomeFailed  Outcome = "failed"
	OutcomePlanned Outcome = "planned" // Dry run: would be renamed.
	OutcomeSkipped Outcome = "skipped" // Never started: the run was interrupted.
)

// Stage names the step at which a file failed.
type Stage string

const (
	StageProbe     Stage = "probe"
	StageRasterize Stage = "rasterize"
	StageExtract   Stage = "extract"
	StageRename    Stage = "rename"
)

// Entry is one line of the report, in discovery order.
type Entry struct {
	Index      int     `json:"index" yaml:"index"`
	Source     string  `json:"source" yaml:"source"`
	Dest       string  `json:"dest,omitempty" yaml:"dest,omitempty"`
	Outcome    Outcome `json:"outcome" yaml:"outcome"`
	Stage      Stage   `json:"stage,omitempty" yaml:"stage,omitempty"`
	Reason     string  `json:"reason,omitempty" yaml:"reason,omitempty"`
	Excerpt    string  `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Report is the result of one run. Entries has one slot per discovered file;
// workers fill only their own slot.
type Report struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	Started     time.Time `json:"started" yaml:"started"`
	Finished    time.Time `json:"finished" yaml:"finished"`
	DryRun      bool      `json:"dry_run" yaml:"dry_run"`
	Interrupted bool      `json:"interrupted" yaml:"interrupted"`
	Summary     Summary   `json:"summary" yaml:"summary"`
	Entries     []Entry   `json:"entries" yaml:"entries"`
}

// Summary counts entries per outcome. Skipped counts files never started
// because the run was interrupted.
type Summary struct {
	Total   int `json:"total" yaml:"total"`
	Renamed int `json:"renamed" yaml:"renamed"`
	Planned int `json:"planned" yaml:"planned"`
	Noop    int `json:"noop" yaml:"noop"`
	Failed  int `json:"failed" yaml:"failed"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

// New starts a report for the discovered files. Every slot starts out as
// skipped with its source filled in, so files an interrupted run never
// reached are still listed by path.
func New(sources []string, dryRun bool, started time.Time) *Report {
	entries := make([]Entry, len(sources))
	for i, src := range sources {
		entries[i] = Entry{Index: i, Source: src, Outcome: OutcomeSkipped, Confidence: -1}
	}
	return &Report{
		RunID:   uuid.NewString(),
		Started: started,
		DryRun:  dryRun,
		Entries: entries,
	}
}

// Set stores the entry at its index.
func (r *Report) Set(e Entry) {
	r.Entries[e.Index] = e
}

// Finish stamps the end time and recomputes the summary.
func (r *Report) Finish(at time.Time, interrupted bool) {
	r.Finished = at
	r.Interrupted = interrupted
	r.Summary = r.Summarize()
}

// Summarize counts outcomes. Entries an interrupted run never reached count
// as skipped.
func (r *Report) Summarize() Summary {
	s := Summary{Total: len(r.Entries)}
	for _, e := range r.Entries {
		switch e.Outcome {
		case OutcomeRenamed:
			s.Renamed++
		case OutcomePlanned:
			s.Planned++
		case OutcomeNoop:
			s.Noop++
		case OutcomeFailed:
			s.Failed++
		default:
			s.Skipped++
		}
	}
	return s
}

// Failures returns the failed entries.
func (r *Report) Failures() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Outcome == OutcomeFailed {
			out = append(out, e)
		}
	}
	return out
}

// Write encodes the report to w in the given format.
func (r *Report) Write(w io.Writer, format config.ReportFormat) error {
	switch format {
	case config.ReportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case config.ReportYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return r.writeText(w)
	}
}

// WriteFile writes the report to path, creating parent directories.
func (r *Report) WriteFile(path string, format config.ReportFormat) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Write(f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (r *Report) writeText(w io.Writer) error {
	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "ocrrename run %s%s\n", r.RunID, mode)
	fmt.Fprintf(w, "started %s, finished %s\n", r.Started.Format(time.RFC3339), r.Finished.Format(time.RFC3339))
	if r.Interrupted {
		fmt.Fprintln(w, "interrupted: remaining files were not processed")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tOUTCOME\tSOURCE\tDEST\tDETAIL")
	for _, e := range r.Entries {
		outcome := string(e.Outcome)
		detail := e.Reason
		if e.Stage != "" {
			detail = string(e.Stage) + ": " + detail
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Index+1, outcome, e.Source, e.Dest, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := r.Summary
	_, err := fmt.Fprintf(w, "\n%d files: %d renamed, %d planned, %d unchanged, %d failed, %d skipped\n",
		s.Total, s.Renamed, s.Planned, s.Noop, s.Failed, s.Skipped)
	return err
}
