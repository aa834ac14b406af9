package entities

import (
	"path"
	"strings"
)

// Requirement is a single declaration of a dependency inside a manifest file.
type Requirement struct {
	File        string   // Manifest that declares the requirement (e.g. "go.mod")
	Requirement string   // Version constraint as written in the manifest
	Groups      []string // Ecosystem-specific groups (e.g. "indirect", "dev")
	Source      string   // Source URL/path (without version ref)
}

// Dependency represents a versioned dependency found in a repository.
// Values are never mutated in place: a version change produces a new copy.
type Dependency struct {
	Name                 string
	Version              string
	PreviousVersion      string
	Requirements         []Requirement
	PreviousRequirements []Requirement
	PackageManager       string
}

// WithVersion returns a copy of the dependency moved to the given version and
// requirements, remembering the current ones as "previous".
func (d Dependency) WithVersion(version string, requirements []Requirement) Dependency {
	updated := d
	updated.PreviousVersion = d.Version
	updated.PreviousRequirements = cloneRequirements(d.Requirements)
	updated.Version = version
	updated.Requirements = cloneRequirements(requirements)
	return updated
}

// RequirementsChanged reports whether the dependency's requirements differ from
// the previous ones.
func (d Dependency) RequirementsChanged() bool {
	if len(d.Requirements) != len(d.PreviousRequirements) {
		return true
	}
	for i := range d.Requirements {
		if d.Requirements[i].File != d.PreviousRequirements[i].File ||
			d.Requirements[i].Requirement != d.PreviousRequirements[i].Requirement {
			return true
		}
	}
	return false
}

func cloneRequirements(reqs []Requirement) []Requirement {
	if reqs == nil {
		return nil
	}
	out := make([]Requirement, len(reqs))
	copy(out, reqs)
	return out
}

// FileOperation is the kind of change applied to a dependency file.
type FileOperation string

const (
	FileOperationCreate FileOperation = "create"
	FileOperationUpdate FileOperation = "update"
	FileOperationDelete FileOperation = "delete"
)

// DependencyFile is a manifest, lockfile or vendored blob inside a source directory.
type DependencyFile struct {
	Name      string // File name relative to Directory
	Directory string
	Content   string
	Operation FileOperation
	Vendored  bool
}

// Path returns the repository path of the file, rooted at "/".
func (f DependencyFile) Path() string {
	return path.Join(NormalizeDirectory(f.Directory), f.Name)
}

// NormalizeDirectory cleans a source directory so "", ".", "/" and "./" all map to "/".
func NormalizeDirectory(directory string) string {
	cleaned := path.Clean("/" + strings.TrimSpace(directory))
	return cleaned
}

// RequirementsUnlock is how much of a dependency's declared requirements an
// update may change.
type RequirementsUnlock string

const (
	UnlockNone RequirementsUnlock = "none"
	UnlockOwn  RequirementsUnlock = "own"
	UnlockAll  RequirementsUnlock = "all"
)

// UnlockStrategies lists the strategies from least to most disruptive.
var UnlockStrategies = []RequirementsUnlock{UnlockNone, UnlockOwn, UnlockAll} //nolint:gochecknoglobals // fixed order
