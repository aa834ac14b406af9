package message

import (
	"crypto/sha1" //nolint:gosec // branch digest, not security relevant
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
)

const (
	branchPrefix = "groupupdate"
	digestLength = 10
)

// PullRequestMessage is the branch, commit and pull request text for a change.
type PullRequestMessage struct {
	BranchName    string
	CommitMessage string
	Title         string
	Body          string
}

// Build renders the message for a group change.
func Build(change *entities.ChangeRecord, packageManager string) PullRequestMessage {
	return PullRequestMessage{
		BranchName:    BranchName(change, packageManager),
		CommitMessage: commitMessage(change),
		Title:         Title(change),
		Body:          body(change),
	}
}

// BranchName is stable for the same dependencies at the same versions, so a
// rerun finds the branch it created before.
func BranchName(change *entities.ChangeRecord, packageManager string) string {
	groupName := "ungrouped"
	if change.Group != nil {
		groupName = change.Group.Name
	}

	entries := make([]string, 0, len(change.UpdatedDependencies))
	for _, dep := range change.UpdatedDependencies {
		entries = append(entries, fmt.Sprintf("%s:%s@%s", dep.Directory, dep.Name, dep.Version))
	}
	sort.Strings(entries)
	sum := sha1.Sum([]byte(strings.Join(entries, ","))) //nolint:gosec // see import
	digest := hex.EncodeToString(sum[:])[:digestLength]

	return path.Join(branchPrefix, packageManager, sanitize(groupName)+"-"+digest)
}

// Title summarizes the change.
func Title(change *entities.ChangeRecord) string {
	names := change.DependencyNames()
	if change.Group == nil && len(change.UpdatedDependencies) == 1 {
		dep := change.UpdatedDependencies[0]
		return fmt.Sprintf("chore(deps): upgrade %s from %s to %s", dep.Name, dep.PreviousVersion, dep.Version)
	}

	groupName := "ungrouped"
	if change.Group != nil {
		groupName = change.Group.Name
	}
	if len(names) == 1 {
		return fmt.Sprintf("chore(deps): upgrade %s in the %s group", names[0], groupName)
	}
	return fmt.Sprintf("chore(deps): upgrade the %s group with %d updates", groupName, len(names))
}

// CloseComment explains why a pull request is being closed.
func CloseComment(dependencyNames []string, reason entities.CloseReason) string {
	switch reason {
	case entities.CloseReasonDependenciesChanged:
		return fmt.Sprintf(
			"Closing: the set of dependencies in this group changed, a new pull request replaces this one (%s).",
			strings.Join(dependencyNames, ", "),
		)
	case entities.CloseReasonUpdateNoLongerPossible:
		return fmt.Sprintf(
			"Closing: an update of %s is no longer possible.",
			strings.Join(dependencyNames, ", "),
		)
	default:
		return fmt.Sprintf("Closing (%s).", reason)
	}
}

func commitMessage(change *entities.ChangeRecord) string {
	var sb strings.Builder
	sb.WriteString(Title(change))
	sb.WriteString("\n\n")
	for _, dep := range change.UpdatedDependencies {
		sb.WriteString(fmt.Sprintf("- %s from %s to %s in %s\n", dep.Name, dep.PreviousVersion, dep.Version, dep.Directory))
	}
	return sb.String()
}

func body(change *entities.ChangeRecord) string {
	var sb strings.Builder
	sb.WriteString("## Summary\n\n")
	if change.Group != nil {
		sb.WriteString(fmt.Sprintf("Upgrades the `%s` dependency group:\n\n", change.Group.Name))
	} else {
		sb.WriteString("Upgrades the following dependencies:\n\n")
	}
	sb.WriteString("| Dependency | Current Version | New Version | Directory |\n")
	sb.WriteString("|------------|-----------------|-------------|-----------|\n")
	for _, dep := range change.UpdatedDependencies {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", dep.Name, dep.PreviousVersion, dep.Version, dep.Directory))
	}

	if len(change.Notices) > 0 {
		sb.WriteString("\n## Notices\n\n")
		for _, notice := range change.Notices {
			sb.WriteString(fmt.Sprintf("> **%s** %s\n>\n> %s\n\n", notice.Mode, notice.Title, notice.Description))
		}
	}

	sb.WriteString("\n---\n")
	sb.WriteString("*This PR was automatically created by [groupupdate](https://github.com/rios0rios0/groupupdate)*\n")
	return sb.String()
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, name)
}
