package entities

import "strings"

// Wildcard is the only metacharacter understood by MatchPattern.
const Wildcard = "*"

// MatchPattern reports whether name matches pattern, where "*" stands for zero
// or more characters of any kind. Matching is case-sensitive and no other
// character is special.
func MatchPattern(pattern, name string) bool {
	if pattern == Wildcard {
		return true
	}
	if !strings.Contains(pattern, Wildcard) {
		return pattern == name
	}

	parts := strings.Split(pattern, Wildcard)
	prefix, suffix := parts[0], parts[len(parts)-1]
	if !strings.HasPrefix(name, prefix) {
		return false
	}
	rest := name[len(prefix):]
	if len(rest) < len(suffix) || !strings.HasSuffix(rest, suffix) {
		return false
	}
	rest = rest[:len(rest)-len(suffix)]

	// greedy left-to-right is sufficient once both anchors are fixed
	for _, middle := range parts[1 : len(parts)-1] {
		idx := strings.Index(rest, middle)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(middle):]
	}
	return true
}

// MatchesAny reports whether name matches at least one of the patterns.
func MatchesAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if MatchPattern(pattern, name) {
			return true
		}
	}
	return false
}
