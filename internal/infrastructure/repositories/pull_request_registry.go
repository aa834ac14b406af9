package repositories

import (
	"fmt"
	"sort"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	domainRepos "github.com/rios0rios0/groupupdate/internal/domain/repositories"
)

// PullRequestFactory creates a PullRequestRepository for a job.
type PullRequestFactory func(settings *entities.Settings) domainRepos.PullRequestRepository

// PullRequestRegistry manages all registered Git hosting implementations.
type PullRequestRegistry struct {
	factories map[string]PullRequestFactory
}

// NewPullRequestRegistry creates an empty pull request registry.
func NewPullRequestRegistry() *PullRequestRegistry {
	return &PullRequestRegistry{
		factories: make(map[string]PullRequestFactory),
	}
}

// Register adds a factory under the given provider name (e.g. "github").
func (r *PullRequestRegistry) Register(name string, factory PullRequestFactory) {
	r.factories[name] = factory
}

// Get returns a configured pull request repository for the given provider.
func (r *PullRequestRegistry) Get(name string, settings *entities.Settings) (domainRepos.PullRequestRepository, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %q", name)
	}
	return factory(settings), nil
}

// Names returns the sorted list of registered provider names.
func (r *PullRequestRegistry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
