package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artifactresolve/collector/pkg/resolve/artifact"
)

func node(gid, aid, version string) *artifact.DependencyNode {
	d := artifact.NewDependency(artifact.New(gid, aid, "", "jar", version), "compile")
	n := artifact.NewNode(&d)
	n.Version = version
	return n
}

func TestDetect_NoCollision(t *testing.T) {
	parents := []*artifact.DependencyNode{node("g", "root", "1.0"), node("g", "a", "1.0")}
	candidate := artifact.NewDependency(artifact.New("g", "b", "", "jar", "1.0"), "compile")

	assert.Equal(t, -1, Detect(parents, candidate))
}

func TestDetect_FindsSmallestIndex(t *testing.T) {
	parents := []*artifact.DependencyNode{node("g", "a", "1.0"), node("g", "b", "1.0"), node("g", "a", "2.0")}
	candidate := artifact.NewDependency(artifact.New("g", "a", "", "jar", "3.0"), "compile")

	// Versionless identity matches both index 0 and index 2; Detect must
	// return the shallowest (smallest index).
	assert.Equal(t, 0, Detect(parents, candidate))
}

func TestDetect_IgnoresSyntheticRootParent(t *testing.T) {
	root := artifact.NewNode(nil)
	parents := []*artifact.DependencyNode{root}
	candidate := artifact.NewDependency(artifact.New("g", "a", "", "jar", "1.0"), "compile")

	assert.Equal(t, -1, Detect(parents, candidate))
	assert.True(t, IsRootlessRoot(root))
}

func TestTerminus_SharesAncestorChildren(t *testing.T) {
	ancestor := node("g", "a", "1.0")
	child := node("g", "c", "1.0")
	ancestor.AddChild(child)

	candidate := artifact.NewDependency(artifact.New("g", "a", "", "jar", "1.0"), "compile")
	term := Terminus(candidate, ancestor)

	assert.Equal(t, ancestor.Children, term.Children)
	assert.Equal(t, ancestor.Version, term.Version)
}
