package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artifactresolve/collector/pkg/resolve/artifact"
)

type fakeTransformer struct {
	rewritten *artifact.DependencyNode
	err       error
	panics    bool
}

func (f fakeTransformer) TransformGraph(ctx context.Context, root *artifact.DependencyNode, tctx Context) (*artifact.DependencyNode, error) {
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.rewritten, nil
}

func TestApply_NilTransformerIsNoop(t *testing.T) {
	root := artifact.NewNode(nil)
	outcome := Apply(context.Background(), nil, root, Context{})

	assert.False(t, outcome.Ran)
	assert.Same(t, root, outcome.Root)
}

func TestApply_SuccessfulTransformReturnsRewrittenGraph(t *testing.T) {
	original := artifact.NewNode(nil)
	rewritten := artifact.NewNode(nil)

	outcome := Apply(context.Background(), fakeTransformer{rewritten: rewritten}, original, Context{})

	assert.True(t, outcome.Ran)
	assert.Same(t, rewritten, outcome.Root)
	assert.NoError(t, outcome.Error)
}

func TestApply_FailedTransformRetainsPreTransformRoot(t *testing.T) {
	original := artifact.NewNode(nil)
	failure := errors.New("transform failed")

	outcome := Apply(context.Background(), fakeTransformer{err: failure}, original, Context{})

	assert.True(t, outcome.Ran)
	assert.Same(t, original, outcome.Root, "the pre-transform graph must be retained on failure")
	assert.ErrorIs(t, outcome.Error, failure)
}

func TestApply_PanicIsRecoveredAsError(t *testing.T) {
	original := artifact.NewNode(nil)

	outcome := Apply(context.Background(), fakeTransformer{panics: true}, original, Context{})

	assert.True(t, outcome.Ran)
	assert.Same(t, original, outcome.Root)
	assert.Error(t, outcome.Error)
}
