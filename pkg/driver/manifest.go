package driver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the package.yml a pscript project is described by: identity,
// the module search roots it contributes, and its dependencies (local path
// or git-sourced). Adapted from able's pkg/driver/manifest.go's Manifest/
// DependencySpec shape, simplified: a map of named targets, a flat module
// root list and dependencies; there are no workspaces.
type Manifest struct {
	Path    string   `yaml:"-"`
	Name    string   `yaml:"name"`
	Version string   `yaml:"version"`
	License string   `yaml:"license,omitempty"`
	Authors []string `yaml:"authors,omitempty"`

	Targets      map[string]TargetSpec     `yaml:"targets,omitempty"`
	ModuleRoots  []string                  `yaml:"module_roots,omitempty"`
	Dependencies map[string]DependencySpec `yaml:"dependencies,omitempty"`
}

// TargetSpec names one runnable entry point of a package (spec §6.4's "-f
// PATH" is the ad hoc equivalent for a bare script with no manifest).
type TargetSpec struct {
	Type string `yaml:"type"`
	Main string `yaml:"main"`
}

// DependencySpec names a module dependency, either vendored at a local path
// or fetched from a git remote. Grounded on able's DependencySpec (Version/
// Git/Rev/Tag/Branch/Path fields).
type DependencySpec struct {
	Path    string `yaml:"path,omitempty"`
	Git     string `yaml:"git,omitempty"`
	Rev     string `yaml:"rev,omitempty"`
	Tag     string `yaml:"tag,omitempty"`
	Branch  string `yaml:"branch,omitempty"`
	Version string `yaml:"version,omitempty"`
}

// ValidationError reports a structurally invalid manifest.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// LoadManifest reads and validates the package.yml at path.
func LoadManifest(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var m Manifest
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	m.Path = path
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if m.Name == "" {
		return &ValidationError{Path: m.Path, Message: "manifest must declare a name"}
	}
	for name, dep := range m.Dependencies {
		if dep.Path == "" && dep.Git == "" {
			return &ValidationError{Path: m.Path, Message: fmt.Sprintf("dependency %q must declare either path or git", name)}
		}
		if dep.Git != "" && dep.Path != "" {
			return &ValidationError{Path: m.Path, Message: fmt.Sprintf("dependency %q cannot declare both path and git", name)}
		}
	}
	return nil
}

// ResolvedModuleRoots returns this manifest's module roots, falling back to
// DefaultModuleRoots when none are declared.
func (m *Manifest) ResolvedModuleRoots() []string {
	if len(m.ModuleRoots) > 0 {
		return m.ModuleRoots
	}
	return append([]string(nil), DefaultModuleRoots...)
}
