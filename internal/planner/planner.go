package planner

import (
	"fmt"
	"path/filepath"

	"github.com/backmassage/ocrrename/internal/naming"
)

// Resolver claims unique destination paths. Implemented by
// [naming.CollisionResolver].
type Resolver interface {
	Resolve(source, desired string) (dest string, suffix int, err error)
}

// BuildPlan resolves the destination for source in targetDir and decides
// whether a rename is needed. targetDir is the output directory, or the
// source's own directory for in-place renames.
func BuildPlan(source string, cand naming.Candidate, targetDir string, r Resolver) (*Plan, error) {
	source = filepath.Clean(source)
	desired := filepath.Join(targetDir, cand.Filename())

	dest, suffix, err := r.Resolve(source, desired)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", desired, err)
	}

	plan := &Plan{
		Action: ActionRename,
		Source: source,
		Dest:   dest,
		Suffix: suffix,
		Rule:   cand.Rule,
	}
	if dest == source {
		plan.Action = ActionNoop
		switch cand.Rule {
		case naming.RuleKeep:
			plan.Reason = "no usable text; keeping original name"
		default:
			plan.Reason = "name already matches"
		}
	}
	return plan, nil
}
