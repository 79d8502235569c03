// Package dep defines the contracts through which the collector consumes
// its external collaborators: the artifact-descriptor reader, the
// version-range resolver, the remote-repository manager, and the four
// dependency-management policies. None of these are implemented here; the
// collector only depends on the interfaces.
package dep

import (
	"context"

	"github.com/artifactresolve/collector/pkg/resolve/artifact"
)

// RequestTrace carries a breadcrumb of the call that produced a given
// collaborator request. It is opaque to the core: the collector leaves the
// Trace field of its own requests nil and copies no trace onto Result;
// collaborators may attach their own nested trace.
type RequestTrace struct {
	Context string
	Parent  *RequestTrace
}

// DescriptorRequest is the input to DescriptorReader.Read.
type DescriptorRequest struct {
	Artifact     artifact.Artifact
	Repositories []artifact.RemoteRepository
	Context      string
	Trace        *RequestTrace
}

// DescriptorResult is the parsed POM-equivalent: declared dependencies,
// managed dependencies, declared repositories, relocations and aliases.
type DescriptorResult struct {
	Artifact            artifact.Artifact
	Relocations         []artifact.Artifact
	Dependencies        []artifact.Dependency
	ManagedDependencies []artifact.Dependency
	Repositories        []artifact.RemoteRepository
	Aliases             []artifact.Artifact
	RepositoryOfOrigin  string
}

// Empty reports whether the descriptor declares no dependencies, managed
// dependencies or relocations - the shape a system-scoped artifact with a
// local path and no descriptor to read produces.
func (r DescriptorResult) Empty() bool {
	return len(r.Dependencies) == 0 && len(r.ManagedDependencies) == 0 && len(r.Relocations) == 0
}

// DescriptorReader reads the descriptor for a single artifact. A
// non-nil error is a descriptor-read failure; the pool caches it as the
// NO_DESCRIPTOR sentinel (see pool.DataPool).
type DescriptorReader interface {
	Read(ctx context.Context, req DescriptorRequest) (DescriptorResult, error)
}

// VersionRangeRequest is the input to VersionRangeResolver.Resolve.
type VersionRangeRequest struct {
	Artifact     artifact.Artifact
	Repositories []artifact.RemoteRepository
	Context      string
	Trace        *RequestTrace
}

// VersionRangeResult carries the ascending-ordered list of versions
// matching a range request, the constraint expression that produced them,
// and an optional per-version repository pin.
type VersionRangeResult struct {
	Versions             []string
	Constraint           string
	RepositoryPerVersion map[string]artifact.RemoteRepository
}

// VersionRangeResolver resolves a version range or single version
// expression against a repository set.
type VersionRangeResolver interface {
	Resolve(ctx context.Context, req VersionRangeRequest) (VersionRangeResult, error)
}

// RemoteRepositoryManager merges two repository lists by id, applying
// mirror/policy rewriting. dominant entries win on id collision; recessive
// is marked "raw" when it has not yet had mirrors/policies applied.
type RemoteRepositoryManager interface {
	Aggregate(ctx context.Context, session any, dominant, recessive []artifact.RemoteRepository, recessiveIsRaw bool) []artifact.RemoteRepository
}

// PolicyContext is the opaque, string-keyed bag passed to DeriveChild so a
// policy can compute its successor for the next depth level.
type PolicyContext map[string]any

// Selector decides whether a candidate dependency should be included at
// all (dropping unwanted scopes, optionals, or excluded coordinates).
type Selector interface {
	SelectDependency(d artifact.Dependency) bool
	DeriveChild(ctx PolicyContext) Selector
}

// ManagedOverride carries the values a Manager wants to override on a
// dependency. Bits names the fields to override: a field whose bit is not
// set is ignored, and a field whose bit is set is applied even when its
// value is the zero value.
type ManagedOverride struct {
	Bits       artifact.ManagedBits
	Version    string
	Scope      artifact.Scope
	Optional   bool
	Properties artifact.Properties
	Exclusions []artifact.Exclusion
}

// Manager computes dependency-management overrides for a candidate,
// consulting the managed-dependencies list inherited at the current depth.
type Manager interface {
	ManageDependency(d artifact.Dependency, managed []artifact.Dependency) ManagedOverride
	DeriveChild(ctx PolicyContext) Manager
}

// Traverser decides whether an included dependency's own children should
// be expanded.
type Traverser interface {
	TraverseDependency(d artifact.Dependency) bool
	DeriveChild(ctx PolicyContext) Traverser
}

// VersionFilter trims a candidate-version list, preserving order
// (highest-version last).
type VersionFilter interface {
	FilterVersions(d artifact.Dependency, versions []string) []string
	DeriveChild(ctx PolicyContext) VersionFilter
}
