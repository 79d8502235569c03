// Package pool implements the resolution-scoped data pool: artifact and
// dependency interning plus three memo caches (version range, descriptor,
// child-subgraph). A DataPool is created fresh for every Collect call and
// is never shared across resolutions.
package pool

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/artifactresolve/collector/pkg/metrics"
	"github.com/artifactresolve/collector/pkg/resolve/artifact"
	"github.com/artifactresolve/collector/pkg/resolve/dep"
)

// descriptorEntry is what the descriptor LRU actually stores: either a real
// result or the NO_DESCRIPTOR marker meaning "already tried, don't retry"
// rather than a miss.
type descriptorEntry struct {
	result   dep.DescriptorResult
	sentinel bool
}

// LookupStatus is the three-way result the pool reports for a memo lookup:
// the pool never errors, it reports present, absent, or sentinel.
type LookupStatus int

const (
	StatusAbsent LookupStatus = iota
	StatusPresent
	StatusSentinel
)

// defaultCacheSize bounds the descriptor and child-subgraph LRUs. A single
// resolution rarely touches more than a few thousand distinct coordinates;
// this is generous headroom, not a tuned production value.
const defaultCacheSize = 8192

// Digestible is implemented by policy objects (Selector/Manager/Traverser/
// VersionFilter) that can produce a stable value digest for use in the
// child-subgraph memo key. A policy that cannot produce one returns
// ok=false, which forces a cache miss for that node; the pool never falls
// back to identity comparison.
type Digestible interface {
	CacheKey() (key string, ok bool)
}

// DataPool is the single-resolution cache behind the collector. It is not
// safe for concurrent use; collection is single-threaded by design, so the
// pool need only guarantee "compute once per key".
type DataPool struct {
	artifacts    map[artifact.Coordinate]artifact.Artifact
	dependencies map[string]artifact.Dependency

	versionRanges map[string]dep.VersionRangeResult

	descriptors *lru.Cache[string, descriptorEntry]

	children *lru.Cache[string, []*artifact.DependencyNode]

	// childKeysByIdentity tracks which child-subgraph keys were stored for
	// each versionless identity, so a force-resolution decision can evict
	// exactly the now-stale entries.
	childKeysByIdentity map[artifact.VersionlessKey][]string

	metrics *metrics.CollectorMetrics
}

// New constructs an empty DataPool. The LRU caches are sized generously;
// a resolution's actual working set rarely approaches the bound.
func New() *DataPool {
	descriptors, err := lru.New[string, descriptorEntry](defaultCacheSize)
	if err != nil {
		// Only returned for a non-positive size, which defaultCacheSize
		// never is; a panic here indicates a programming error.
		panic(fmt.Sprintf("pool: descriptor cache: %v", err))
	}
	children, err := lru.New[string, []*artifact.DependencyNode](defaultCacheSize)
	if err != nil {
		panic(fmt.Sprintf("pool: child-subgraph cache: %v", err))
	}
	return &DataPool{
		artifacts:           make(map[artifact.Coordinate]artifact.Artifact),
		dependencies:        make(map[string]artifact.Dependency),
		versionRanges:       make(map[string]dep.VersionRangeResult),
		descriptors:         descriptors,
		children:            children,
		childKeysByIdentity: make(map[artifact.VersionlessKey][]string),
	}
}

// WithMetrics attaches a metrics sink for intern/memo hit-miss counters.
// A nil sink (the default) disables recording.
func (p *DataPool) WithMetrics(m *metrics.CollectorMetrics) *DataPool {
	p.metrics = m
	return p
}

func (p *DataPool) recordInternHit(kind string) {
	if p.metrics != nil {
		p.metrics.PoolInternHitsTotal.WithLabelValues(kind).Inc()
	}
}

func (p *DataPool) recordMemo(cache string, hit bool) {
	if p.metrics == nil {
		return
	}
	if hit {
		p.metrics.PoolMemoHitsTotal.WithLabelValues(cache).Inc()
	} else {
		p.metrics.PoolMemoMissesTotal.WithLabelValues(cache).Inc()
	}
}

// InternArtifact returns the canonical reference for a. Equal artifacts
// (same Coordinate) are interned to the same stored value, so
// InternArtifact(InternArtifact(x)) == InternArtifact(x).
func (p *DataPool) InternArtifact(a artifact.Artifact) artifact.Artifact {
	if existing, ok := p.artifacts[a.Coordinate]; ok {
		p.recordInternHit("artifact")
		return existing
	}
	p.artifacts[a.Coordinate] = a
	return a
}

// InternDependency returns the canonical reference for d, keyed on the
// dependency's full value digest (artifact, scope, optional, exclusions).
func (p *DataPool) InternDependency(d artifact.Dependency) artifact.Dependency {
	key := d.Key()
	if existing, ok := p.dependencies[key]; ok {
		p.recordInternHit("dependency")
		return existing
	}
	d.Artifact = p.InternArtifact(d.Artifact)
	p.dependencies[key] = d
	return d
}

// VersionRangeKey builds the range memo's composite key: the artifact
// coordinate minus version, the ordered repository list, and the raw
// unresolved version/range expression. The expression is folded in because
// two distinct range requests for the same GroupID:ArtifactID (e.g.
// "[1.0,2.0)" vs "[2.0,3.0)") must not collide.
func VersionRangeKey(a artifact.Artifact, repos []artifact.RemoteRepository) string {
	return fmt.Sprintf("%s:%s:%s:%s|%s|%s", a.GroupID, a.ArtifactID, a.Classifier, a.Extension, a.Version, repoDigest(repos))
}

// GetVersionRange returns a previously memoised range result for key.
func (p *DataPool) GetVersionRange(key string) (dep.VersionRangeResult, bool) {
	r, ok := p.versionRanges[key]
	p.recordMemo("version_range", ok)
	return r, ok
}

// PutVersionRange records a range result for key. A given key is populated
// at most once per resolution; callers must check GetVersionRange first.
func (p *DataPool) PutVersionRange(key string, result dep.VersionRangeResult) {
	p.versionRanges[key] = result
}

// DescriptorKey builds the descriptor memo's composite key: the artifact
// (including resolved version) and the ordered repository list.
func DescriptorKey(a artifact.Artifact, repos []artifact.RemoteRepository) string {
	return fmt.Sprintf("%s|%s", a.Coordinate.String(), repoDigest(repos))
}

// GetDescriptor reports the memoised state for key: present with a real
// result, sentinel if a prior read failed, or absent.
func (p *DataPool) GetDescriptor(key string) (dep.DescriptorResult, LookupStatus) {
	entry, ok := p.descriptors.Get(key)
	p.recordMemo("descriptor", ok)
	if !ok {
		return dep.DescriptorResult{}, StatusAbsent
	}
	if entry.sentinel {
		return dep.DescriptorResult{}, StatusSentinel
	}
	return entry.result, StatusPresent
}

// PutDescriptor records a successful descriptor read for key.
func (p *DataPool) PutDescriptor(key string, result dep.DescriptorResult) {
	p.descriptors.Add(key, descriptorEntry{result: result})
}

// PutDescriptorFailure records key as NO_DESCRIPTOR: a prior attempt
// failed and must not be retried.
func (p *DataPool) PutDescriptorFailure(key string) {
	p.descriptors.Add(key, descriptorEntry{sentinel: true})
}

// ChildKey builds the child-subgraph memo's composite key: the parent
// artifact, the child repository list, and a digest of the four derived
// child policy states. If any policy cannot produce a stable digest
// (Digestible returns ok=false), ok is false and the caller must treat
// this as an uncacheable node (always miss, never store).
func ChildKey(parent artifact.Artifact, repos []artifact.RemoteRepository, selector, manager, traverser, filter any) (key string, ok bool) {
	var parts []string
	for _, p := range []any{selector, manager, traverser, filter} {
		d, isDigestible := p.(Digestible)
		if !isDigestible {
			return "", false
		}
		k, kok := d.CacheKey()
		if !kok {
			return "", false
		}
		parts = append(parts, k)
	}
	return fmt.Sprintf("%s|%s|%s", parent.Coordinate.String(), repoDigest(repos), strings.Join(parts, ",")), true
}

// GetChildren returns the memoised child subtree for key, if any.
func (p *DataPool) GetChildren(key string) ([]*artifact.DependencyNode, bool) {
	children, ok := p.children.Get(key)
	p.recordMemo("children", ok)
	return children, ok
}

// PutChildren records the expanded child subtree for key. identity is the
// versionless identity of the parent artifact the subtree hangs under; it
// indexes the entry for InvalidateChildren.
func (p *DataPool) PutChildren(identity artifact.VersionlessKey, key string, children []*artifact.DependencyNode) {
	p.children.Add(key, children)
	p.childKeysByIdentity[identity] = append(p.childKeysByIdentity[identity], key)
}

// InvalidateChildren evicts every child-subgraph entry stored for identity.
// The collector calls this when a force-resolution decision makes earlier
// cached subtrees for that identity stale.
func (p *DataPool) InvalidateChildren(identity artifact.VersionlessKey) {
	for _, key := range p.childKeysByIdentity[identity] {
		p.children.Remove(key)
	}
	delete(p.childKeysByIdentity, identity)
}

func repoDigest(repos []artifact.RemoteRepository) string {
	ids := make([]string, len(repos))
	for i, r := range repos {
		ids[i] = r.ID
	}
	return artifact.SortRepositoryIDs(ids)
}
