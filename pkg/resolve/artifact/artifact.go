// Package artifact holds the immutable value types shared by the collector:
// artifact coordinates, dependencies, and the mutable graph node that ties
// them together.
package artifact

import (
	"fmt"
	"sort"
	"strings"
)

// Coordinate is the comparable 5-tuple identity of an Artifact, minus its
// property map. Two artifacts are equal iff their Coordinate is equal; the
// Version field participates in full equality but not in VersionlessKey.
type Coordinate struct {
	GroupID    string
	ArtifactID string
	Classifier string
	Extension  string
	Version    string
}

func (c Coordinate) String() string {
	if c.Classifier == "" {
		return fmt.Sprintf("%s:%s:%s:%s", c.GroupID, c.ArtifactID, c.Extension, c.Version)
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s", c.GroupID, c.ArtifactID, c.Extension, c.Classifier, c.Version)
}

// VersionlessKey is the 4-tuple (group, artifact, classifier, extension)
// used by the cycle detector and the resolution skipper to group nodes that
// can only have one winning version.
type VersionlessKey struct {
	GroupID    string
	ArtifactID string
	Classifier string
	Extension  string
}

func (k VersionlessKey) String() string {
	if k.Classifier == "" {
		return fmt.Sprintf("%s:%s:%s", k.GroupID, k.ArtifactID, k.Extension)
	}
	return fmt.Sprintf("%s:%s:%s:%s", k.GroupID, k.ArtifactID, k.Extension, k.Classifier)
}

// Properties is an opaque string-keyed property map. It is metadata, never
// part of an Artifact's identity.
type Properties map[string]string

// Clone returns a shallow copy safe to mutate independently of the original.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Artifact is the immutable coordinate value the whole engine trades in: a
// 5-tuple identity plus an opaque property bag. Two Artifact values are
// Equal iff their Coordinate matches; Properties never affect identity.
type Artifact struct {
	Coordinate
	Properties Properties
}

// New builds an Artifact with the given coordinates and no properties.
func New(groupID, artifactID, classifier, extension, version string) Artifact {
	return Artifact{Coordinate: Coordinate{
		GroupID:    groupID,
		ArtifactID: artifactID,
		Classifier: classifier,
		Extension:  extension,
		Version:    version,
	}}
}

// Equal reports whether two artifacts share the same 5-tuple coordinate.
// The property map is never consulted.
func (a Artifact) Equal(o Artifact) bool {
	return a.Coordinate == o.Coordinate
}

// Versionless returns the 4-tuple identity used for cycle detection and
// conflict grouping.
func (a Artifact) Versionless() VersionlessKey {
	return VersionlessKey{
		GroupID:    a.GroupID,
		ArtifactID: a.ArtifactID,
		Classifier: a.Classifier,
		Extension:  a.Extension,
	}
}

// WithVersion returns a copy of the artifact with Version replaced. Used
// when rewriting a range request artifact to a concrete resolved version.
func (a Artifact) WithVersion(version string) Artifact {
	a.Version = version
	return a
}

// WithProperties returns a copy of the artifact with its property map
// replaced. The receiver is left untouched.
func (a Artifact) WithProperties(props Properties) Artifact {
	a.Properties = props
	return a
}

func (a Artifact) String() string {
	return a.Coordinate.String()
}

// SortRepositoryIDs returns a deterministic, "|"-joined digest of
// repository identifiers, used by the data pool to build composite cache
// keys over an ordered repository list. The input order is preserved in
// the digest (repository order is itself significant for resolution), only
// the join character is added.
func SortRepositoryIDs(ids []string) string {
	// Repository order matters (nearer-wins precedence), so this is a
	// join, not a sort - kept here because every memo-key builder in the
	// pool needs the exact same join logic.
	return strings.Join(ids, "|")
}

// sortedExclusionDigest is used by Dependency.key to build a
// order-independent digest of the exclusion set.
func sortedExclusionDigest(exclusions []Exclusion) string {
	if len(exclusions) == 0 {
		return ""
	}
	parts := make([]string, len(exclusions))
	for i, e := range exclusions {
		parts[i] = e.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
