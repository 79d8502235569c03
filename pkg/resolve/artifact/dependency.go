package artifact

import "fmt"

// Exclusion identifies a (group, artifact, classifier, extension) pattern
// to prune from a dependency's transitive graph. A "*" component, or an
// empty Classifier/Extension, matches any value for that component.
type Exclusion struct {
	GroupID    string
	ArtifactID string
	Classifier string
	Extension  string
}

func (e Exclusion) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", e.GroupID, e.ArtifactID, e.classifierOrWildcard(), e.extensionOrWildcard())
}

func (e Exclusion) classifierOrWildcard() string {
	if e.Classifier == "" {
		return "*"
	}
	return e.Classifier
}

func (e Exclusion) extensionOrWildcard() string {
	if e.Extension == "" {
		return "*"
	}
	return e.Extension
}

// Matches reports whether the exclusion covers the given versionless key,
// honoring the "*" wildcard in every component. An unset Classifier or
// Extension also matches any value; an unset GroupID or ArtifactID matches
// only an empty one.
func (e Exclusion) Matches(k VersionlessKey) bool {
	if e.GroupID != "*" && e.GroupID != k.GroupID {
		return false
	}
	if e.ArtifactID != "*" && e.ArtifactID != k.ArtifactID {
		return false
	}
	if e.Classifier != "" && e.Classifier != "*" && e.Classifier != k.Classifier {
		return false
	}
	if e.Extension != "" && e.Extension != "*" && e.Extension != k.Extension {
		return false
	}
	return true
}

// Scope is the dependency scope token (e.g. "compile", "runtime", "test",
// "provided", "system"). The collector treats it as an opaque string; scope
// inheritance/combination rules live in the Manager policy, not here.
type Scope string

// Dependency pairs an Artifact with the scope/optionality/exclusions that
// govern how it is traversed. It is immutable value data: all of the
// collector's graph-shaping decisions mutate DependencyNode, never a
// Dependency.
type Dependency struct {
	Artifact   Artifact
	Scope      Scope
	Optional   bool
	Exclusions []Exclusion
}

// NewDependency builds a Dependency with the given artifact and scope and
// no exclusions.
func NewDependency(a Artifact, scope Scope) Dependency {
	return Dependency{Artifact: a, Scope: scope}
}

// WithExclusions returns a copy of the dependency with Exclusions replaced.
func (d Dependency) WithExclusions(exclusions []Exclusion) Dependency {
	d.Exclusions = exclusions
	return d
}

// Excludes reports whether any exclusion in the set matches k.
func (d Dependency) Excludes(k VersionlessKey) bool {
	for _, e := range d.Exclusions {
		if e.Matches(k) {
			return true
		}
	}
	return false
}

// key returns a digest suitable for use as (part of) an interning or memo
// key: it folds in the artifact coordinate, scope, optionality and the
// exclusion set, since two Dependency values with the same artifact but
// different exclusions must not collapse to the same node.
func (d Dependency) key() string {
	return fmt.Sprintf("%s|%s|%t|%s", d.Artifact.Coordinate.String(), d.Scope, d.Optional, sortedExclusionDigest(d.Exclusions))
}

// Key exposes the Dependency's interning digest to packages outside
// artifact (the data pool and the resolution skipper both key their state
// off of it).
func (d Dependency) Key() string {
	return d.key()
}
