package artifact

// ManagedBits is a bitmask of the Dependency fields a Manager policy
// rewrote relative to the premanaged capture. Zero means dependency
// management left the dependency untouched.
type ManagedBits uint8

const (
	ManagedVersion ManagedBits = 1 << iota
	ManagedScope
	ManagedOptional
	ManagedProperties
	ManagedExclusions
)

// Has reports whether bit is set in m.
func (m ManagedBits) Has(bit ManagedBits) bool {
	return m&bit != 0
}

// Premanaged is the snapshot of a Dependency's field values taken before a
// Manager policy rewrote them. Only fields actually overridden are
// meaningful; callers consult Bits to know which.
type Premanaged struct {
	Bits       ManagedBits
	Version    string
	Scope      Scope
	Optional   bool
	Properties Properties
	Exclusions []Exclusion
}

// RemoteRepository is the minimal repository identity the collector needs:
// an ID for digesting/ordering and an opaque handle the DescriptorReader
// and VersionRangeResolver collaborators interpret. The collector never
// inspects Handle itself.
type RemoteRepository struct {
	ID     string
	Handle any
}

// DependencyNode is the mutable vertex of the result graph built by
// Collect. Only the synthetic root, built for a request that has no root
// dependency, carries a nil Dependency.
type DependencyNode struct {
	Dependency *Dependency

	Children []*DependencyNode

	Version           string
	VersionConstraint string

	Repositories []RemoteRepository

	RequestContext string

	Aliases []Artifact

	Relocations []Artifact

	ManagedBits ManagedBits

	// Data is the opaque per-node metadata map. In verbose mode it holds
	// the "premanaged" key populated from Premanaged; callers may stash
	// additional keys without the collector caring.
	Data map[string]any
}

// NewNode constructs a node for dep with no children and an empty data map.
func NewNode(dep *Dependency) *DependencyNode {
	return &DependencyNode{
		Dependency: dep,
		Data:       make(map[string]any),
	}
}

// AddChild appends child to n's child list, preserving insertion order as
// required by the breadth-first collector's determinism guarantee.
func (n *DependencyNode) AddChild(child *DependencyNode) {
	n.Children = append(n.Children, child)
}

// StampPremanaged records p on the node's data map under the "premanaged"
// key, for verbose-management mode.
func (n *DependencyNode) StampPremanaged(p Premanaged) {
	if n.Data == nil {
		n.Data = make(map[string]any)
	}
	n.Data["premanaged"] = p
	n.ManagedBits = p.Bits
}

// CycleTerminus builds a child node representing a dependency cycle: it
// shares the ancestor's children by reference (not by copy) and carries
// the ancestor's resolved version/constraint/premanaged state. The
// returned node must not be enqueued for further expansion.
func CycleTerminus(dep *Dependency, ancestor *DependencyNode) *DependencyNode {
	n := &DependencyNode{
		Dependency:        dep,
		Children:          ancestor.Children,
		Version:           ancestor.Version,
		VersionConstraint: ancestor.VersionConstraint,
		Repositories:      ancestor.Repositories,
		RequestContext:    ancestor.RequestContext,
		ManagedBits:       ancestor.ManagedBits,
		Data:              ancestor.Data,
	}
	return n
}
