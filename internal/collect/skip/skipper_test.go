package skip

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artifactresolve/collector/pkg/resolve/artifact"
)

func dependency(gid, aid, version string) artifact.Dependency {
	return artifact.NewDependency(artifact.New(gid, aid, "", "jar", version), "compile")
}

func node(d artifact.Dependency) *artifact.DependencyNode {
	return artifact.NewNode(&d)
}

func parents(depth int) []*artifact.DependencyNode {
	out := make([]*artifact.DependencyNode, depth)
	for i := range out {
		d := dependency("g", "p", "1.0")
		out[i] = artifact.NewNode(&d)
	}
	return out
}

func TestSkipper_DisabledAlwaysExpands(t *testing.T) {
	s := New(false)
	d := dependency("g", "a", "1.0")

	assert.Equal(t, DecisionExpand, s.Evaluate(d, parents(1)))
	assert.Equal(t, DecisionExpand, s.Evaluate(d, parents(3)))
}

func TestSkipper_FirstOccurrenceExpands(t *testing.T) {
	s := New(true)
	d := dependency("g", "a", "1.0")

	assert.Equal(t, DecisionExpand, s.Evaluate(d, parents(1)))
}

func TestSkipper_DeeperVersionConflictIsSkipped(t *testing.T) {
	s := New(true)
	winner := dependency("g", "a", "2.0")
	loser := dependency("g", "a", "1.0")

	assert.Equal(t, DecisionExpand, s.Evaluate(winner, parents(1)))
	assert.Equal(t, DecisionVersionConflict, s.Evaluate(loser, parents(2)))

	version, ok := s.WinnerVersion(winner.Artifact.Versionless())
	assert.True(t, ok)
	assert.Equal(t, "2.0", version, "the shallower occurrence remains the winner")
}

func TestSkipper_ShallowerOccurrenceForcesResolution(t *testing.T) {
	s := New(true)
	deep := dependency("g", "a", "1.0")
	shallow := dependency("g", "a", "2.0")

	assert.Equal(t, DecisionExpand, s.Evaluate(deep, parents(3)))
	assert.Equal(t, DecisionForceResolution, s.Evaluate(shallow, parents(1)))

	version, _ := s.WinnerVersion(deep.Artifact.Versionless())
	assert.Equal(t, "2.0", version, "force resolution replaces the stale deeper winner")
}

func TestSkipper_ExactDuplicateAtPrefixPathIsSkipped(t *testing.T) {
	s := New(true)
	d := dependency("g", "a", "1.0")

	p := parents(2)
	assert.Equal(t, DecisionExpand, s.Evaluate(d, p))
	// Re-evaluating the identical dependency at the same (or a deeper,
	// prefix-extending) parent path must be treated as a duplicate, not a
	// version conflict, even though it shares the identity record.
	assert.Equal(t, DecisionDuplicate, s.Evaluate(d, p))
}

func TestSkipper_SupersededAfterForceResolution(t *testing.T) {
	s := New(true)
	deep := dependency("g", "a", "1.0")
	shallow := dependency("g", "a", "2.0")

	assert.Equal(t, DecisionExpand, s.Evaluate(deep, parents(3)))
	assert.False(t, s.Superseded(deep, 3), "still the winner until something shallower arrives")

	assert.Equal(t, DecisionForceResolution, s.Evaluate(shallow, parents(1)))
	assert.True(t, s.Superseded(deep, 3), "the deeper subtree is stale once a shallower version wins")
	assert.False(t, s.Superseded(shallow, 1))
}

func TestSkipper_SameDepthSiblingIsDuplicate(t *testing.T) {
	s := New(true)
	d := dependency("g", "a", "1.0")

	left := dependency("g", "left", "1.0")
	right := dependency("g", "right", "1.0")
	root := dependency("g", "root", "1.0")
	underLeft := []*artifact.DependencyNode{node(root), node(left)}
	underRight := []*artifact.DependencyNode{node(root), node(right)}

	assert.Equal(t, DecisionExpand, s.Evaluate(d, underLeft))
	// A second sighting under a sibling parent at the same depth cannot
	// win conflict resolution either - duplicate, not force-resolution.
	assert.Equal(t, DecisionDuplicate, s.Evaluate(d, underRight))
}
