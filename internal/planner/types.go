package planner

// Action describes the per-file decision.
type Action int

const (
	ActionRename Action = iota
	ActionNoop
)

func (a Action) String() string {
	if a == ActionNoop {
		return "noop"
	}
	return "rename"
}

// Plan holds the decision for a single file. Dest is unique in its
// directory (on disk and among this run's claims) when the plan is built.
type Plan struct {
	Action Action
	Source string
	Dest   string
	Suffix int    // Collision suffix appended to the name; 0 when none.
	Rule   string // Naming rule that produced the name.
	Reason string // Why the file is left in place (ActionNoop only).
}
