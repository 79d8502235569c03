// Package transform invokes the graph-transformation hook: an external
// post-processor (conflict resolver, scope calculator) applied once over
// the assembled graph after the main breadth-first loop drains.
package transform

import (
	"context"
	"fmt"

	"github.com/artifactresolve/collector/pkg/resolve/artifact"
)

// Context is the string-keyed property bag passed to the transformer.
type Context map[string]any

// GraphTransformer rewrites a node's children arbitrarily - typical uses
// are picking winners among conflicting versions or computing effective
// scope. An implementation is an external collaborator; the core never
// ships one.
type GraphTransformer interface {
	TransformGraph(ctx context.Context, root *artifact.DependencyNode, tctx Context) (*artifact.DependencyNode, error)
}

// Outcome records whether the hook ran, and if it failed, the error and
// the pre-transform root that must be retained as the result: a
// transformer failure is recorded, never allowed to suppress the
// already-collected graph.
type Outcome struct {
	Ran   bool
	Root  *artifact.DependencyNode
	Error error
}

// Apply runs transformer (if non-nil) over root. On success Outcome.Root
// is the transformer's rewritten graph; on failure or absence it is the
// original root, untouched.
func Apply(ctx context.Context, transformer GraphTransformer, root *artifact.DependencyNode, tctx Context) Outcome {
	if transformer == nil {
		return Outcome{Root: root}
	}
	rewritten, err := safeTransform(ctx, transformer, root, tctx)
	if err != nil {
		return Outcome{Ran: true, Root: root, Error: err}
	}
	return Outcome{Ran: true, Root: rewritten}
}

// safeTransform recovers a panicking transformer into an error, since an
// external collaborator's failure must never abort collection or corrupt
// the already-assembled graph.
func safeTransform(ctx context.Context, transformer GraphTransformer, root *artifact.DependencyNode, tctx Context) (result *artifact.DependencyNode, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("graph transformer panicked: %v", r)
		}
	}()
	return transformer.TransformGraph(ctx, root, tctx)
}
