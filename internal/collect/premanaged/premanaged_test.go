package premanaged

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artifactresolve/collector/pkg/resolve/artifact"
	"github.com/artifactresolve/collector/pkg/resolve/dep"
)

func baseDependency() artifact.Dependency {
	return artifact.NewDependency(artifact.New("g", "a", "", "jar", "1.0"), "compile")
}

func TestApply_NoOverrideIsNoop(t *testing.T) {
	d := baseDependency()
	rewritten, snap := Apply(d, dep.ManagedOverride{}, false)

	assert.Equal(t, d, rewritten)
	assert.Equal(t, artifact.ManagedBits(0), snap.Bits)
}

func TestApply_VersionOverrideCapturesOriginal(t *testing.T) {
	d := baseDependency()
	override := dep.ManagedOverride{Bits: artifact.ManagedVersion, Version: "2.0"}

	rewritten, snap := Apply(d, override, false)

	assert.Equal(t, "2.0", rewritten.Artifact.Version)
	assert.Equal(t, "1.0", snap.Version, "premanaged snapshot must hold the pre-rewrite value")
	assert.True(t, snap.Bits.Has(artifact.ManagedVersion))
}

func TestApply_DisableVersionMgmtSuppressesVersionOverride(t *testing.T) {
	d := baseDependency()
	override := dep.ManagedOverride{
		Bits:    artifact.ManagedVersion | artifact.ManagedScope,
		Version: "2.0",
		Scope:   "runtime",
	}

	rewritten, snap := Apply(d, override, true)

	assert.Equal(t, "1.0", rewritten.Artifact.Version, "version override must be suppressed")
	assert.Equal(t, artifact.Scope("runtime"), rewritten.Scope, "scope override is unaffected by disableVersionMgmt")
	assert.False(t, snap.Bits.Has(artifact.ManagedVersion))
	assert.True(t, snap.Bits.Has(artifact.ManagedScope))
}

func TestApply_MultipleFieldsCaptureIndependently(t *testing.T) {
	d := baseDependency().WithExclusions([]artifact.Exclusion{{GroupID: "old", ArtifactID: "x"}})
	override := dep.ManagedOverride{
		Bits:       artifact.ManagedOptional | artifact.ManagedExclusions,
		Optional:   true,
		Exclusions: []artifact.Exclusion{{GroupID: "new", ArtifactID: "y"}},
	}

	rewritten, snap := Apply(d, override, false)

	assert.True(t, rewritten.Optional)
	assert.False(t, snap.Optional, "snapshot holds the premanaged (false) optional flag")
	assert.Equal(t, []artifact.Exclusion{{GroupID: "new", ArtifactID: "y"}}, rewritten.Exclusions)
	assert.Equal(t, []artifact.Exclusion{{GroupID: "old", ArtifactID: "x"}}, snap.Exclusions)
}

func TestStampIfVerbose_VerboseStampsDataMap(t *testing.T) {
	d := baseDependency()
	n := artifact.NewNode(&d)
	snap := artifact.Premanaged{Bits: artifact.ManagedVersion, Version: "1.0"}

	StampIfVerbose(n, snap, true)

	assert.Equal(t, snap, n.Data["premanaged"])
	assert.Equal(t, artifact.ManagedVersion, n.ManagedBits)
}

func TestStampIfVerbose_NonVerboseOnlyKeepsBitmask(t *testing.T) {
	d := baseDependency()
	n := artifact.NewNode(&d)
	snap := artifact.Premanaged{Bits: artifact.ManagedVersion, Version: "1.0"}

	StampIfVerbose(n, snap, false)

	assert.Nil(t, n.Data["premanaged"])
	assert.Equal(t, artifact.ManagedVersion, n.ManagedBits)
}
