package pipeline

import (
	"time"

	"github.com/backmassage/ocrrename/internal/report"
)

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	report.Summary
	BytesScanned int64 // Size of every input that was probed successfully.
	Elapsed      time.Duration
}

// OK reports whether no file failed.
func (s *RunStats) OK() bool { return s.Failed == 0 }
