// Package premanaged implements the capture-before-rewrite bookkeeping for
// dependency management: recording which fields a Manager policy overrode
// on a dependency, and applying those overrides while honoring the
// "version management disabled for this hop" relocation rule.
package premanaged

import (
	"github.com/artifactresolve/collector/pkg/resolve/artifact"
	"github.com/artifactresolve/collector/pkg/resolve/dep"
)

// Apply runs a Manager's overrides against d, returning the rewritten
// dependency and the premanaged snapshot of the fields that changed.
//
// disableVersionMgmt suppresses the version override: it is set by the
// breadth-first collector exactly when following a relocation whose
// group+artifact are unchanged from the original, so a manager cannot
// re-bump a version the relocation has already pinned.
func Apply(d artifact.Dependency, override dep.ManagedOverride, disableVersionMgmt bool) (artifact.Dependency, artifact.Premanaged) {
	snap := artifact.Premanaged{}
	bits := override.Bits
	if disableVersionMgmt {
		bits &^= artifact.ManagedVersion
	}

	if bits.Has(artifact.ManagedVersion) {
		snap.Version = d.Artifact.Version
		snap.Bits |= artifact.ManagedVersion
		d.Artifact = d.Artifact.WithVersion(override.Version)
	}
	if bits.Has(artifact.ManagedScope) {
		snap.Scope = d.Scope
		snap.Bits |= artifact.ManagedScope
		d.Scope = override.Scope
	}
	if bits.Has(artifact.ManagedOptional) {
		snap.Optional = d.Optional
		snap.Bits |= artifact.ManagedOptional
		d.Optional = override.Optional
	}
	if bits.Has(artifact.ManagedProperties) {
		snap.Properties = d.Artifact.Properties
		snap.Bits |= artifact.ManagedProperties
		d.Artifact = d.Artifact.WithProperties(override.Properties)
	}
	if bits.Has(artifact.ManagedExclusions) {
		snap.Exclusions = d.Exclusions
		snap.Bits |= artifact.ManagedExclusions
		d.Exclusions = override.Exclusions
	}

	return d, snap
}

// StampIfVerbose stamps the premanaged snapshot onto the node's data map
// when verbose mode is enabled; otherwise only the bitmask is kept, so
// non-verbose collections skip the bookkeeping nobody will read.
func StampIfVerbose(node *artifact.DependencyNode, snap artifact.Premanaged, verbose bool) {
	if verbose {
		node.StampPremanaged(snap)
		return
	}
	node.ManagedBits = snap.Bits
}
