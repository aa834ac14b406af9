package entities

import "slices"

// IgnoreCondition excludes versions or bump classes of matching dependencies.
type IgnoreCondition struct {
	DependencyName string       `yaml:"dependency-name"` // pattern, "*" wildcard
	Versions       []string     `yaml:"versions"`        // exact versions or "*" patterns, e.g. "v2.*"
	UpdateTypes    []UpdateType `yaml:"update-types"`
}

// Ignores reports whether the condition rules out moving to version, given
// the bump class of that move.
func (c IgnoreCondition) Ignores(version string, updateType UpdateType) bool {
	if len(c.Versions) == 0 && len(c.UpdateTypes) == 0 {
		return true
	}
	if MatchesAny(c.Versions, version) {
		return true
	}
	return updateType != "" && slices.Contains(c.UpdateTypes, updateType)
}

// IgnoredBy reports whether any of the conditions rules out the move.
func IgnoredBy(conditions []IgnoreCondition, version string, updateType UpdateType) bool {
	for _, condition := range conditions {
		if condition.Ignores(version, updateType) {
			return true
		}
	}
	return false
}

// ClassifyBump compares major, minor and patch segments and returns the
// magnitude of the bump from current to latest. It returns false when latest
// is not greater than current.
func ClassifyBump(current, latest []int) (UpdateType, bool) {
	types := []UpdateType{UpdateTypeMajor, UpdateTypeMinor, UpdateTypePatch}
	for i, updateType := range types {
		cur, lat := segmentAt(current, i), segmentAt(latest, i)
		if lat > cur {
			return updateType, true
		}
		if lat < cur {
			return "", false
		}
	}
	return "", false
}

func segmentAt(segments []int, index int) int {
	if index < len(segments) {
		return segments[index]
	}
	return 0
}
