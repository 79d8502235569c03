package management

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/artifactresolve/collector/pkg/resolve/artifact"
)

// BOMParser loads a managed-dependency override file - operationally a
// hand-maintained YAML "bill of materials" that a caller layers on top of
// whatever managed dependencies a descriptor itself declares, feeding the
// managed-dependencies list the collector inherits at each depth.
type BOMParser struct {
	validate *validator.Validate
}

// NewBOMParser builds a BOMParser with struct-tag validation enabled.
func NewBOMParser() *BOMParser {
	return &BOMParser{validate: validator.New()}
}

// bomDocument is the on-disk YAML shape.
type bomDocument struct {
	ManagedDependencies []bomEntry `yaml:"managedDependencies" validate:"dive"`
}

type bomEntry struct {
	GroupID    string   `yaml:"groupId" validate:"required"`
	ArtifactID string   `yaml:"artifactId" validate:"required"`
	Classifier string   `yaml:"classifier"`
	Extension  string   `yaml:"extension"`
	Version    string   `yaml:"version"`
	Scope      string   `yaml:"scope"`
	Exclusions []string `yaml:"exclusions"`
}

// Parse unmarshals a BOM document from YAML bytes and validates it,
// returning the managed-dependency list in document order.
func (p *BOMParser) Parse(data []byte) ([]artifact.Dependency, error) {
	var doc bomDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("management: invalid BOM YAML: %w", err)
	}
	if err := p.validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("management: BOM validation failed: %w", err)
	}

	out := make([]artifact.Dependency, 0, len(doc.ManagedDependencies))
	for _, e := range doc.ManagedDependencies {
		d := artifact.NewDependency(
			artifact.New(e.GroupID, e.ArtifactID, e.Classifier, defaultExtension(e.Extension), e.Version),
			artifact.Scope(e.Scope),
		)
		if len(e.Exclusions) > 0 {
			d = d.WithExclusions(parseExclusions(e.Exclusions))
		}
		out = append(out, d)
	}
	return out, nil
}

// ParseFile reads path and parses it as a BOM document.
func (p *BOMParser) ParseFile(path string) ([]artifact.Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("management: reading BOM file %s: %w", path, err)
	}
	return p.Parse(data)
}

// ParseString is a convenience wrapper over Parse for inline YAML.
func (p *BOMParser) ParseString(doc string) ([]artifact.Dependency, error) {
	return p.Parse([]byte(doc))
}

func defaultExtension(ext string) string {
	if ext == "" {
		return "jar"
	}
	return ext
}

// parseExclusions reads "groupId:artifactId[:classifier[:extension]]"
// tokens, matching the compact notation Maven BOM-style overrides use.
func parseExclusions(tokens []string) []artifact.Exclusion {
	out := make([]artifact.Exclusion, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, parseExclusionToken(t))
	}
	return out
}

func parseExclusionToken(token string) artifact.Exclusion {
	parts := strings.Split(token, ":")

	e := artifact.Exclusion{GroupID: "*", ArtifactID: "*"}
	if len(parts) > 0 {
		e.GroupID = parts[0]
	}
	if len(parts) > 1 {
		e.ArtifactID = parts[1]
	}
	if len(parts) > 2 {
		e.Classifier = parts[2]
	}
	if len(parts) > 3 {
		e.Extension = parts[3]
	}
	return e
}
