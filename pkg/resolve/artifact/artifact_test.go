package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArtifact_EqualIgnoresProperties(t *testing.T) {
	a := New("gid", "aid", "", "jar", "1.0").WithProperties(Properties{"k": "v"})
	b := New("gid", "aid", "", "jar", "1.0").WithProperties(Properties{"other": "x"})

	assert.True(t, a.Equal(b))
}

func TestArtifact_EqualRequiresAllCoordinates(t *testing.T) {
	base := New("gid", "aid", "", "jar", "1.0")
	cases := []Artifact{
		New("other", "aid", "", "jar", "1.0"),
		New("gid", "other", "", "jar", "1.0"),
		New("gid", "aid", "cls", "jar", "1.0"),
		New("gid", "aid", "", "pom", "1.0"),
		New("gid", "aid", "", "jar", "2.0"),
	}
	for _, c := range cases {
		assert.False(t, base.Equal(c), "expected %s != %s", base, c)
	}
}

func TestArtifact_VersionlessIgnoresVersion(t *testing.T) {
	a := New("gid", "aid", "", "jar", "1.0")
	b := New("gid", "aid", "", "jar", "2.0")

	assert.Equal(t, a.Versionless(), b.Versionless())
}

func TestArtifact_WithVersionDoesNotMutateReceiver(t *testing.T) {
	a := New("gid", "aid", "", "jar", "1.0")
	b := a.WithVersion("2.0")

	assert.Equal(t, "1.0", a.Version)
	assert.Equal(t, "2.0", b.Version)
}

func TestProperties_CloneIsIndependent(t *testing.T) {
	p := Properties{"k": "v"}
	clone := p.Clone()
	clone["k"] = "changed"

	assert.Equal(t, "v", p["k"])
	assert.Nil(t, Properties(nil).Clone())
}

func TestCoordinate_StringIncludesClassifierOnlyWhenSet(t *testing.T) {
	plain := New("gid", "aid", "", "jar", "1.0")
	classified := New("gid", "aid", "sources", "jar", "1.0")

	assert.Equal(t, "gid:aid:jar:1.0", plain.String())
	assert.Equal(t, "gid:aid:jar:sources:1.0", classified.String())
}
