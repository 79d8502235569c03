// Package skip implements the resolution skipper: an on-the-fly conflict
// pre-filter that avoids re-expanding subgraphs whose outcome a later
// conflict resolver (the graph-transformation hook) would discard, while
// preserving Maven's "nearest wins, then first declared" winner semantics.
package skip

import "github.com/artifactresolve/collector/pkg/resolve/artifact"

// Decision is the outcome of Evaluate for one candidate node.
type Decision int

const (
	// DecisionExpand means the node has not been seen before at this or a
	// shallower depth: proceed with normal expansion.
	DecisionExpand Decision = iota
	// DecisionDuplicate means an identical dependency has already been
	// seen at a parent path that is a prefix of (or equal to) this one, or
	// anywhere at the same or a shallower depth; such an occurrence can
	// never win conflict resolution.
	DecisionDuplicate
	// DecisionVersionConflict means a different version of the same
	// versionless identity has already won at a strictly shallower depth.
	DecisionVersionConflict
	// DecisionForceResolution means this occurrence is at an equal or
	// shallower depth than any prior one for the same identity: prior
	// caches for that identity are now stale and must be invalidated.
	DecisionForceResolution
)

// record is the skipper's per-versionless-identity bookkeeping.
type record struct {
	winnerVersion            string
	winnerDepth              int
	winnerParentPath         string
	forceResolution          bool
	skippedAsDuplicate       bool
	skippedAsVersionConflict bool
}

// seenDependency remembers the shallowest parent-path prefix at which an
// exact dependency (not just its versionless identity) has been observed,
// for the "exact duplicate" rule.
type seenDependency struct {
	parentPath string
	depth      int
}

// Skipper holds the conflict-prefilter state for one resolution. Mode
// "never" (Enabled=false) disables all skipping: every node is always
// re-expanded.
type Skipper struct {
	Enabled bool

	byIdentity   map[artifact.VersionlessKey]*record
	byDependency map[string]*seenDependency
}

// New constructs a Skipper. enabled corresponds to session option
// aether.dependencyCollector.bf.skipper.
func New(enabled bool) *Skipper {
	return &Skipper{
		Enabled:      enabled,
		byIdentity:   make(map[artifact.VersionlessKey]*record),
		byDependency: make(map[string]*seenDependency),
	}
}

// parentPathKey builds a stable string from the ordered parent node
// coordinates, used to test prefix relationships between parent paths.
func parentPathKey(parents []*artifact.DependencyNode) string {
	s := ""
	for _, p := range parents {
		if p.Dependency == nil {
			continue
		}
		s += p.Dependency.Artifact.Coordinate.String() + ">"
	}
	return s
}

func isPrefix(prefix, s string) bool {
	if len(prefix) > len(s) {
		return false
	}
	return s[:len(prefix)] == prefix
}

// Evaluate decides whether the candidate dependency at depth len(parents)
// should be expanded, skipped, or force-resolved. It is called BEFORE
// enqueuing a node's children; the re-check before caching the finished
// subtree goes through Superseded instead, which reads the same state
// without mutating it.
func (s *Skipper) Evaluate(dependency artifact.Dependency, parents []*artifact.DependencyNode) Decision {
	if !s.Enabled {
		return DecisionExpand
	}

	depth := len(parents)
	path := parentPathKey(parents)
	identity := dependency.Artifact.Versionless()
	depKey := identity.String() + "@" + dependency.Key()

	// Rule 1: a prior sighting at a prefix path, or anywhere at the same
	// or a shallower depth, makes this occurrence a duplicate - a deeper
	// (or later-declared equal-depth) occurrence can never win.
	if seen, ok := s.byDependency[depKey]; ok && (seen.depth <= depth || isPrefix(seen.parentPath, path)) {
		rec := s.ensureRecord(identity)
		rec.skippedAsDuplicate = true
		return DecisionDuplicate
	}
	s.byDependency[depKey] = &seenDependency{parentPath: path, depth: depth}

	rec, existed := s.byIdentity[identity]
	if !existed {
		rec = &record{winnerVersion: dependency.Artifact.Version, winnerDepth: depth, winnerParentPath: path}
		s.byIdentity[identity] = rec
		return DecisionExpand
	}

	if depth > rec.winnerDepth {
		rec.skippedAsVersionConflict = true
		return DecisionVersionConflict
	}

	// depth <= rec.winnerDepth: either the same occurrence re-evaluated,
	// or a genuinely shallower/equal-depth occurrence that must force
	// re-resolution and invalidate whatever the deeper winner had cached.
	rec.forceResolution = true
	rec.winnerVersion = dependency.Artifact.Version
	rec.winnerDepth = depth
	rec.winnerParentPath = path
	rec.skippedAsVersionConflict = false
	return DecisionForceResolution
}

func (s *Skipper) ensureRecord(identity artifact.VersionlessKey) *record {
	rec, ok := s.byIdentity[identity]
	if !ok {
		rec = &record{}
		s.byIdentity[identity] = rec
	}
	return rec
}

// Superseded reports whether a node for dependency at depth has lost to a
// shallower occurrence of a different version since it was first
// evaluated. The collector consults this again before caching a finished
// child subtree, so a subtree made stale by force resolution mid-drain is
// not re-published to the pool.
func (s *Skipper) Superseded(dependency artifact.Dependency, depth int) bool {
	if !s.Enabled {
		return false
	}
	rec, ok := s.byIdentity[dependency.Artifact.Versionless()]
	if !ok {
		return false
	}
	return rec.winnerDepth < depth && rec.winnerVersion != dependency.Artifact.Version
}

// WinnerVersion reports the version currently considered the winner for
// identity, and whether any occurrence has been recorded at all.
func (s *Skipper) WinnerVersion(identity artifact.VersionlessKey) (string, bool) {
	rec, ok := s.byIdentity[identity]
	if !ok {
		return "", false
	}
	return rec.winnerVersion, true
}
