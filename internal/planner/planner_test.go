package planner

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/ocrrename/internal/naming"
)

func resolverWith(t *testing.T, files ...string) *naming.CollisionResolver {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, nil, 0o644))
	}
	return naming.NewCollisionResolver(fs)
}

func TestBuildPlan_Rename(t *testing.T) {
	r := resolverWith(t, "/in/scan1.png")
	cand := naming.Candidate{Stem: "Invoice_2024-01", Ext: ".png", Rule: naming.RuleFirstLine}

	plan, err := BuildPlan("/in/scan1.png", cand, "/in", r)
	require.NoError(t, err)
	assert.Equal(t, ActionRename, plan.Action)
	assert.Equal(t, "/in/Invoice_2024-01.png", plan.Dest)
	assert.Zero(t, plan.Suffix)
	assert.Equal(t, naming.RuleFirstLine, plan.Rule)
}

func TestBuildPlan_FallbackKeepIsNoop(t *testing.T) {
	r := resolverWith(t, "/in/blank.png")
	cand := naming.Candidate{Stem: "blank", Ext: ".png", Rule: naming.RuleKeep}

	plan, err := BuildPlan("/in/blank.png", cand, "/in", r)
	require.NoError(t, err)
	assert.Equal(t, ActionNoop, plan.Action)
	assert.Equal(t, "/in/blank.png", plan.Dest)
	assert.Contains(t, plan.Reason, "no usable text")
}

func TestBuildPlan_AlreadyNamed(t *testing.T) {
	r := resolverWith(t, "/in/Contract_A.pdf")
	cand := naming.Candidate{Stem: "Contract_A", Ext: ".pdf", Rule: naming.RuleFirstLine}

	plan, err := BuildPlan("/in/Contract_A.pdf", cand, "/in/", r)
	require.NoError(t, err)
	assert.Equal(t, ActionNoop, plan.Action)
	assert.Equal(t, "name already matches", plan.Reason)
}

func TestBuildPlan_Collision(t *testing.T) {
	r := resolverWith(t, "/in/a.png", "/in/b.png")
	cand := naming.Candidate{Stem: "Receipt", Ext: ".png", Rule: naming.RuleFirstLine}

	first, err := BuildPlan("/in/a.png", cand, "/in", r)
	require.NoError(t, err)
	second, err := BuildPlan("/in/b.png", cand, "/in", r)
	require.NoError(t, err)

	assert.Equal(t, "/in/Receipt.png", first.Dest)
	assert.Equal(t, "/in/Receipt_1.png", second.Dest)
	assert.Equal(t, 1, second.Suffix)
}

func TestBuildPlan_OutputDirectory(t *testing.T) {
	r := resolverWith(t, "/in/doc.pdf")
	cand := naming.Candidate{Stem: "Contract_A", Ext: ".pdf", Rule: naming.RuleFirstLine}

	plan, err := BuildPlan("/in/doc.pdf", cand, "/out", r)
	require.NoError(t, err)
	assert.Equal(t, ActionRename, plan.Action)
	assert.Equal(t, "/out/Contract_A.pdf", plan.Dest)
}

type failingResolver struct{}

func (failingResolver) Resolve(string, string) (string, int, error) {
	return "", 0, errors.New("permission denied")
}

func TestBuildPlan_ResolverError(t *testing.T) {
	_, err := BuildPlan("/in/a.png", naming.Candidate{Stem: "x", Ext: ".png"}, "/in", failingResolver{})
	assert.ErrorContains(t, err, "permission denied")
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "rename", ActionRename.String())
	assert.Equal(t, "noop", ActionNoop.String())
}
