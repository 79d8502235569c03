package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDependencyNode_AddChildPreservesOrder(t *testing.T) {
	root := NewNode(nil)
	depA := NewDependency(New("g", "a", "", "jar", "1.0"), "compile")
	depB := NewDependency(New("g", "b", "", "jar", "1.0"), "compile")

	root.AddChild(NewNode(&depA))
	root.AddChild(NewNode(&depB))

	assert.Len(t, root.Children, 2)
	assert.Equal(t, &depA, root.Children[0].Dependency)
	assert.Equal(t, &depB, root.Children[1].Dependency)
}

func TestDependencyNode_StampPremanagedVerbose(t *testing.T) {
	d := NewDependency(New("g", "a", "", "jar", "2.0"), "compile")
	n := NewNode(&d)

	snap := Premanaged{Bits: ManagedVersion, Version: "1.0"}
	n.StampPremanaged(snap)

	assert.Equal(t, ManagedVersion, n.ManagedBits)
	assert.Equal(t, snap, n.Data["premanaged"])
}

func TestCycleTerminus_SharesChildrenByReference(t *testing.T) {
	ancestorDep := NewDependency(New("g", "a", "", "jar", "1.0"), "compile")
	ancestor := NewNode(&ancestorDep)
	ancestor.Version = "1.0"
	grandchildDep := NewDependency(New("g", "c", "", "jar", "1.0"), "compile")
	ancestor.AddChild(NewNode(&grandchildDep))

	candidate := NewDependency(New("g", "a", "", "jar", "1.0"), "compile")
	terminus := CycleTerminus(&candidate, ancestor)

	assert.Equal(t, ancestor.Children, terminus.Children)
	assert.Same(t, ancestor.Children[0], terminus.Children[0], "terminus must share the ancestor's child nodes by pointer, not deep-copy them")
	assert.Equal(t, "1.0", terminus.Version)
}
