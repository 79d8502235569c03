// Package management wires the four dependency-management policies
// (Selector, Manager, Traverser, VersionFilter) together into the
// per-candidate pipeline, and supplies classic default implementations
// suitable for tests and for callers that do not need Maven's full
// scope-inheritance subtleties.
package management

import (
	"sort"
	"strings"

	"github.com/artifactresolve/collector/pkg/resolve/artifact"
	"github.com/artifactresolve/collector/pkg/resolve/dep"
)

// Policies bundles one depth level's four policy objects.
type Policies struct {
	Selector  dep.Selector
	Manager   dep.Manager
	Traverser dep.Traverser
	Filter    dep.VersionFilter
}

// DeriveChild derives the next depth level's policies by calling each
// policy's own DeriveChild. A policy that is depth-invariant is expected
// to return itself.
func (p Policies) DeriveChild(ctx dep.PolicyContext) Policies {
	return Policies{
		Selector:  p.Selector.DeriveChild(ctx),
		Manager:   p.Manager.DeriveChild(ctx),
		Traverser: p.Traverser.DeriveChild(ctx),
		Filter:    p.Filter.DeriveChild(ctx),
	}
}

// ScopeSelector is the classic-Maven selector variant: it includes a
// dependency unless its scope is in the excluded set or it is optional and
// optionals are disallowed at this depth.
type ScopeSelector struct {
	ExcludedScopes map[artifact.Scope]bool
	AllowOptional  bool
}

func NewScopeSelector(excluded ...artifact.Scope) ScopeSelector {
	m := make(map[artifact.Scope]bool, len(excluded))
	for _, s := range excluded {
		m[s] = true
	}
	return ScopeSelector{ExcludedScopes: m, AllowOptional: true}
}

func (s ScopeSelector) SelectDependency(d artifact.Dependency) bool {
	if s.ExcludedScopes[d.Scope] {
		return false
	}
	if d.Optional && !s.AllowOptional {
		return false
	}
	return true
}

// DeriveChild returns a selector identical except optionals are never
// traversed past the first depth, matching Maven's "optional dependencies
// are a leaf" convention.
func (s ScopeSelector) DeriveChild(ctx dep.PolicyContext) dep.Selector {
	return ScopeSelector{ExcludedScopes: s.ExcludedScopes, AllowOptional: false}
}

// CacheKey makes ScopeSelector Digestible: its state is fully described by
// the excluded-scope set and the allow-optional flag. Scopes are sorted so
// equal selectors always digest identically.
func (s ScopeSelector) CacheKey() (string, bool) {
	scopes := make([]string, 0, len(s.ExcludedScopes))
	for scope := range s.ExcludedScopes {
		scopes = append(scopes, string(scope))
	}
	sort.Strings(scopes)
	key := strings.Join(scopes, ",")
	if s.AllowOptional {
		key += "|opt"
	}
	return key, true
}

// ClassicManager applies a managed-dependencies list by versionless key,
// overriding version/scope/exclusions exactly where the managed list names
// an override, mirroring classic Maven <dependencyManagement> semantics.
type ClassicManager struct{}

func (ClassicManager) ManageDependency(d artifact.Dependency, managed []artifact.Dependency) dep.ManagedOverride {
	for _, m := range managed {
		if m.Artifact.Versionless() != d.Artifact.Versionless() {
			continue
		}
		override := dep.ManagedOverride{}
		if m.Artifact.Version != "" && m.Artifact.Version != d.Artifact.Version {
			override.Bits |= artifact.ManagedVersion
			override.Version = m.Artifact.Version
		}
		if m.Scope != "" && m.Scope != d.Scope {
			override.Bits |= artifact.ManagedScope
			override.Scope = m.Scope
		}
		if len(m.Exclusions) > 0 {
			override.Bits |= artifact.ManagedExclusions
			override.Exclusions = append(d.Exclusions, m.Exclusions...)
		}
		return override
	}
	return dep.ManagedOverride{}
}

func (m ClassicManager) DeriveChild(ctx dep.PolicyContext) dep.Manager {
	return m
}

// CacheKey: ClassicManager carries no state, so every instance digests
// identically.
func (ClassicManager) CacheKey() (string, bool) {
	return "classic", true
}

// AlwaysTraverse expands the children of every included dependency,
// optional ones included; it is the default traverser used by tests and by callers
// that do not need per-scope traversal cutoffs.
type AlwaysTraverse struct{}

func (AlwaysTraverse) TraverseDependency(d artifact.Dependency) bool {
	return true
}

func (t AlwaysTraverse) DeriveChild(ctx dep.PolicyContext) dep.Traverser {
	return t
}

func (AlwaysTraverse) CacheKey() (string, bool) {
	return "always", true
}

// HighestVersionFilter keeps only the single highest version, matching the
// common "pick the newest match" policy. Input is expected ascending
// (lowest first); output preserves that order (a single-element slice
// trivially does).
type HighestVersionFilter struct{}

func (HighestVersionFilter) FilterVersions(d artifact.Dependency, versions []string) []string {
	if len(versions) == 0 {
		return versions
	}
	return versions[len(versions)-1:]
}

func (f HighestVersionFilter) DeriveChild(ctx dep.PolicyContext) dep.VersionFilter {
	return f
}

func (HighestVersionFilter) CacheKey() (string, bool) {
	return "highest", true
}

// Default returns the classic-Maven policy set: scope-based selection
// (no scopes excluded), dependency-management overrides, unconditional
// traversal, and highest-version-wins filtering.
func Default() Policies {
	return Policies{
		Selector:  NewScopeSelector(),
		Manager:   ClassicManager{},
		Traverser: AlwaysTraverse{},
		Filter:    HighestVersionFilter{},
	}
}
