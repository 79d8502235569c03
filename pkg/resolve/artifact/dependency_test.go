package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExclusion_MatchesWildcard(t *testing.T) {
	wildcardGroup := Exclusion{GroupID: "*", ArtifactID: "aid"}
	wildcardArtifact := Exclusion{GroupID: "gid", ArtifactID: "*"}
	exact := Exclusion{GroupID: "gid", ArtifactID: "aid"}

	key := VersionlessKey{GroupID: "gid", ArtifactID: "aid", Extension: "jar"}
	other := VersionlessKey{GroupID: "gid", ArtifactID: "other", Extension: "jar"}

	assert.True(t, wildcardGroup.Matches(key))
	assert.True(t, wildcardArtifact.Matches(key))
	assert.True(t, exact.Matches(key))
	assert.False(t, exact.Matches(other))
}

func TestExclusion_MatchesClassifierAndExtension(t *testing.T) {
	pinned := Exclusion{GroupID: "gid", ArtifactID: "aid", Classifier: "sources", Extension: "jar"}
	sources := VersionlessKey{GroupID: "gid", ArtifactID: "aid", Classifier: "sources", Extension: "jar"}
	javadoc := VersionlessKey{GroupID: "gid", ArtifactID: "aid", Classifier: "javadoc", Extension: "jar"}
	pom := VersionlessKey{GroupID: "gid", ArtifactID: "aid", Classifier: "sources", Extension: "pom"}

	assert.True(t, pinned.Matches(sources))
	assert.False(t, pinned.Matches(javadoc))
	assert.False(t, pinned.Matches(pom))

	unqualified := Exclusion{GroupID: "gid", ArtifactID: "aid"}
	assert.True(t, unqualified.Matches(sources))
	assert.True(t, unqualified.Matches(javadoc))
}

func TestDependency_ExcludesChecksAllExclusions(t *testing.T) {
	d := NewDependency(New("gid", "aid", "", "jar", "1.0"), "compile").
		WithExclusions([]Exclusion{{GroupID: "ex1", ArtifactID: "*"}, {GroupID: "ex2", ArtifactID: "a2"}})

	assert.True(t, d.Excludes(VersionlessKey{GroupID: "ex1", ArtifactID: "whatever", Extension: "jar"}))
	assert.True(t, d.Excludes(VersionlessKey{GroupID: "ex2", ArtifactID: "a2", Extension: "jar"}))
	assert.False(t, d.Excludes(VersionlessKey{GroupID: "ex2", ArtifactID: "other", Extension: "jar"}))
}

func TestDependency_KeyDiffersOnExclusions(t *testing.T) {
	base := NewDependency(New("gid", "aid", "", "jar", "1.0"), "compile")
	withExclusion := base.WithExclusions([]Exclusion{{GroupID: "ex", ArtifactID: "a"}})

	assert.NotEqual(t, base.Key(), withExclusion.Key())
}

func TestDependency_KeySameRegardlessOfExclusionOrder(t *testing.T) {
	a := NewDependency(New("gid", "aid", "", "jar", "1.0"), "compile").
		WithExclusions([]Exclusion{{GroupID: "e1", ArtifactID: "a1"}, {GroupID: "e2", ArtifactID: "a2"}})
	b := NewDependency(New("gid", "aid", "", "jar", "1.0"), "compile").
		WithExclusions([]Exclusion{{GroupID: "e2", ArtifactID: "a2"}, {GroupID: "e1", ArtifactID: "a1"}})

	assert.Equal(t, a.Key(), b.Key())
}
