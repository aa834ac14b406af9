package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Experiment names understood by the engine.
const (
	ExperimentGroupMembershipEnforcement  = "group_membership_enforcement"
	ExperimentDependencyChangeValidation  = "dependency_change_validation"
	ExperimentRecordUpdateJobUnknownError = "record_update_job_unknown_error"
)

// RepositoryConfig identifies the repository the job updates.
type RepositoryConfig struct {
	Provider   string `yaml:"provider"`
	Owner      string `yaml:"owner"`
	Name       string `yaml:"name"`
	BaseBranch string `yaml:"base-branch"`
	Token      string `yaml:"token"` // Inline, ${ENV_VAR}, or file path
	LocalPath  string `yaml:"local-path"`
}

// Settings is the job definition for one update run.
type Settings struct {
	JobID                     string                `yaml:"job-id"`
	PackageManager            string                `yaml:"package-manager"`
	Directories               []string              `yaml:"directories"`
	Repository                RepositoryConfig      `yaml:"repository"`
	DependencyGroups          []DependencyGroup     `yaml:"dependency-groups"`
	IgnoreConditions          []IgnoreCondition     `yaml:"ignore-conditions"`
	ExistingGroupPullRequests []ExistingPullRequest `yaml:"existing-group-pull-requests"`
	UpdatingAPullRequest      bool                  `yaml:"updating-a-pull-request"`
	RefreshGroup              string                `yaml:"refresh-group"`
	SecurityUpdatesOnly       bool                  `yaml:"security-updates-only"`
	Experiments               map[string]bool       `yaml:"experiments"`
	DryRun                    bool                  `yaml:"dry-run"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// NewSettings reads and parses a job file, expanding environment variables
// and resolving token file paths.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	return ParseSettings(data)
}

// ParseSettings parses a job definition from YAML.
func ParseSettings(data []byte) (*Settings, error) {
	var settings Settings
	if unmarshalErr := yaml.Unmarshal(data, &settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	settings.Repository.Token = resolveToken(settings.Repository.Token)
	if settings.JobID == "" {
		settings.JobID = uuid.NewString()
	}
	if len(settings.Directories) == 0 {
		settings.Directories = []string{"/"}
	}
	for i, dir := range settings.Directories {
		settings.Directories[i] = NormalizeDirectory(dir)
	}

	if validateErr := validate(&settings); validateErr != nil {
		return nil, validateErr
	}
	return &settings, nil
}

// ExperimentEnabled reports whether the named experiment is switched on.
func (s *Settings) ExperimentEnabled(name string) bool {
	return s.Experiments[name]
}

// AppliesTo returns the run purpose groups must be configured for.
func (s *Settings) AppliesTo() AppliesTo {
	if s.SecurityUpdatesOnly {
		return AppliesToSecurityUpdates
	}
	return AppliesToVersionUpdates
}

// ActiveGroups returns the groups applicable to this run, restricted to the
// refreshed group when the job updates an existing pull request.
func (s *Settings) ActiveGroups() []DependencyGroup {
	var groups []DependencyGroup
	for _, group := range s.DependencyGroups {
		if !group.IsFor(s.AppliesTo()) {
			continue
		}
		if s.UpdatingAPullRequest && s.RefreshGroup != "" && group.Name != s.RefreshGroup {
			continue
		}
		groups = append(groups, group)
	}
	return groups
}

// ExistingPullRequestsFor returns the open pull requests attributed to a group.
func (s *Settings) ExistingPullRequestsFor(group string) []ExistingPullRequest {
	var prs []ExistingPullRequest
	for _, pr := range s.ExistingGroupPullRequests {
		if pr.GroupName == group {
			prs = append(prs, pr)
		}
	}
	return prs
}

// IsRefreshing reports whether this run refreshes the named group's pull request.
func (s *Settings) IsRefreshing(group string) bool {
	return s.UpdatingAPullRequest && s.RefreshGroup == group
}

// IgnoreConditionsFor returns the ignore conditions matching a dependency name.
func (s *Settings) IgnoreConditionsFor(name string) []IgnoreCondition {
	var conditions []IgnoreCondition
	for _, condition := range s.IgnoreConditions {
		if MatchPattern(condition.DependencyName, name) {
			conditions = append(conditions, condition)
		}
	}
	return conditions
}

// Repo converts the repository configuration into a Repository.
func (s *Settings) Repo() Repository {
	return Repository{
		Name:          s.Repository.Name,
		Organization:  s.Repository.Owner,
		DefaultBranch: s.Repository.BaseBranch,
		ProviderName:  s.Repository.Provider,
	}
}

// FindConfigFile searches for a job file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, homeDir, filepath.Join(homeDir, ".config"))
	}

	patterns := []string{
		".groupupdate.yaml",
		".groupupdate.yml",
		"groupupdate.yaml",
		"groupupdate.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

var validUpdateTypes = []UpdateType{UpdateTypeMajor, UpdateTypeMinor, UpdateTypePatch}

// validate checks for required configuration values.
func validate(settings *Settings) error {
	if settings.PackageManager == "" {
		return errors.New("package-manager is required")
	}

	seen := make(map[string]struct{}, len(settings.DependencyGroups))
	for i, group := range settings.DependencyGroups {
		if group.Name == "" {
			return fmt.Errorf("dependency-groups[%d].name is required", i)
		}
		if _, dup := seen[group.Name]; dup {
			return fmt.Errorf("dependency-groups[%d].name %q is duplicated", i, group.Name)
		}
		seen[group.Name] = struct{}{}

		switch group.AppliesTo {
		case "", AppliesToVersionUpdates, AppliesToSecurityUpdates:
		default:
			return fmt.Errorf("dependency-groups[%d].applies-to %q is not supported", i, group.AppliesTo)
		}
		for _, updateType := range group.Rules.UpdateTypes {
			if !slices.Contains(validUpdateTypes, updateType) {
				return fmt.Errorf("dependency-groups[%d].rules.update-types has unknown value %q", i, updateType)
			}
		}
	}

	if settings.UpdatingAPullRequest && settings.RefreshGroup != "" {
		if _, ok := seen[settings.RefreshGroup]; !ok {
			return fmt.Errorf("refresh-group %q is not a configured dependency group", settings.RefreshGroup)
		}
	}

	return nil
}
