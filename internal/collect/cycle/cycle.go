// Package cycle implements the parent-stack cycle detector: it walks the
// active ancestor list to find versionless identity collisions before a
// candidate child is inserted into the graph.
package cycle

import "github.com/artifactresolve/collector/pkg/resolve/artifact"

// Detect returns the smallest index i such that parents[i] shares
// versionless identity with candidate, or -1 if there is no collision.
func Detect(parents []*artifact.DependencyNode, candidate artifact.Dependency) int {
	want := candidate.Artifact.Versionless()
	for i, p := range parents {
		if p.Dependency == nil {
			continue
		}
		if p.Dependency.Artifact.Versionless() == want {
			return i
		}
	}
	return -1
}

// IsRootlessRoot reports whether node is the synthetic root produced when
// a CollectRequest carries no root dependency. A cycle hit on the rootless
// root falls through as normal traversal rather than producing a terminus.
func IsRootlessRoot(node *artifact.DependencyNode) bool {
	return node.Dependency == nil
}

// Terminus builds the cycle-terminus child: it shares the ancestor's
// children by reference so the cycle is represented without infinite
// expansion, and must not be enqueued for further work.
func Terminus(candidate artifact.Dependency, ancestor *artifact.DependencyNode) *artifact.DependencyNode {
	return artifact.CycleTerminus(&candidate, ancestor)
}
