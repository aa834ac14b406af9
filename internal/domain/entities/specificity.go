package entities

import "strings"

const (
	// ExplicitMemberSpecificity is the ceiling: nothing is more specific than
	// naming a dependency outright (or matching its exact name).
	ExplicitMemberSpecificity = 1000
	// CatchAllSpecificity is the score of a group that declares no patterns.
	CatchAllSpecificity = 500
	// WildcardSpecificity is the score of the bare "*" pattern.
	WildcardSpecificity = 1

	patternBaseSpecificity = 100
	wildcardPenalty        = 10
	literalBonusThreshold  = 5
)

// PatternSpecificity scores a single pattern that is known to match name.
func PatternSpecificity(pattern, name string) int {
	if pattern == name {
		return ExplicitMemberSpecificity
	}
	if pattern == Wildcard {
		return WildcardSpecificity
	}

	score := patternBaseSpecificity -
		wildcardPenalty*strings.Count(pattern, Wildcard) +
		max(len(pattern)-literalBonusThreshold, 0)
	return max(score, 1)
}

// GroupSpecificity returns how narrowly the group targets the dependency. The
// second return value is false when the group cannot claim the dependency at
// all (excluded, or no pattern matches).
func GroupSpecificity(group DependencyGroup, dependency Dependency, directory string) (int, bool) {
	if group.IsExplicitMember(dependency.Name, directory) {
		return ExplicitMemberSpecificity, true
	}
	if group.Excludes(dependency.Name) {
		return 0, false
	}
	if !group.HasPatterns() {
		return CatchAllSpecificity, true
	}

	best, matched := 0, false
	for _, pattern := range group.Rules.Patterns {
		if !MatchPattern(pattern, dependency.Name) {
			continue
		}
		matched = true
		best = max(best, PatternSpecificity(pattern, dependency.Name))
	}
	return best, matched
}

// ArbitrationQuery describes one dependency whose group membership is in question.
type ArbitrationQuery struct {
	Dependency Dependency
	Directory  string
	AppliesTo  AppliesTo  // empty disables the applies-to filter
	UpdateType UpdateType // empty disables the update-types filter
}

// GroupScore is one row of a specificity comparison.
type GroupScore struct {
	Group     string
	Score     int
	Contained bool
}

// SpecificityScorer resolves overlapping group membership.
type SpecificityScorer struct {
	groups    []DependencyGroup
	container DependencyContainer
}

// NewSpecificityScorer creates a scorer over every configured group. A nil
// container falls back to the groups' own containment rules.
func NewSpecificityScorer(groups []DependencyGroup, container DependencyContainer) *SpecificityScorer {
	if container == nil {
		container = GroupContainment{}
	}
	return &SpecificityScorer{groups: groups, container: container}
}

// Groups returns the groups the scorer arbitrates between.
func (s *SpecificityScorer) Groups() []DependencyGroup {
	return s.groups
}

// BelongsToMoreSpecificGroup reports whether some other group claims the
// dependency with a strictly higher score than current, in which case current
// must not claim it.
func (s *SpecificityScorer) BelongsToMoreSpecificGroup(current DependencyGroup, query ArbitrationQuery) bool {
	_, found := s.moreSpecificGroup(current, query)
	return found
}

// MoreSpecificGroupName returns the name of the highest-scoring group that
// beats current, or "" when current keeps the dependency.
func (s *SpecificityScorer) MoreSpecificGroupName(current DependencyGroup, query ArbitrationQuery) string {
	winner, _ := s.moreSpecificGroup(current, query)
	return winner
}

// Scores lists the specificity of every configured group for the dependency,
// in configuration order.
func (s *SpecificityScorer) Scores(query ArbitrationQuery) []GroupScore {
	scores := make([]GroupScore, 0, len(s.groups))
	for _, group := range s.groups {
		score, contained := GroupSpecificity(group, query.Dependency, query.Directory)
		contained = contained && s.container.ContainsDependency(group, query.Dependency, query.Directory)
		scores = append(scores, GroupScore{Group: group.Name, Score: score, Contained: contained})
	}
	return scores
}

func (s *SpecificityScorer) moreSpecificGroup(current DependencyGroup, query ArbitrationQuery) (string, bool) {
	if !current.HasPatterns() || current.Excludes(query.Dependency.Name) {
		return "", false
	}

	currentScore, _ := GroupSpecificity(current, query.Dependency, query.Directory)
	if currentScore >= ExplicitMemberSpecificity {
		return "", false
	}

	winner, winnerScore := "", currentScore
	for _, other := range s.groups {
		if other.Name == current.Name {
			continue
		}
		if query.UpdateType != "" && !other.AllowsUpdateType(query.UpdateType) {
			continue
		}
		if query.AppliesTo != "" && other.AppliesTo != "" && other.AppliesTo != query.AppliesTo {
			continue
		}
		if !s.container.ContainsDependency(other, query.Dependency, query.Directory) {
			continue
		}

		score, contained := GroupSpecificity(other, query.Dependency, query.Directory)
		if contained && score > winnerScore {
			winner, winnerScore = other.Name, score
		}
	}
	return winner, winner != ""
}
