package repositories

import (
	"fmt"
	"sort"

	domainRepos "github.com/rios0rios0/groupupdate/internal/domain/repositories"
)

// EcosystemRegistry manages all registered package ecosystems.
type EcosystemRegistry struct {
	ecosystems map[string]domainRepos.EcosystemRepository
}

// NewEcosystemRegistry creates an empty ecosystem registry.
func NewEcosystemRegistry() *EcosystemRegistry {
	return &EcosystemRegistry{
		ecosystems: make(map[string]domainRepos.EcosystemRepository),
	}
}

// Register adds an ecosystem under its package manager name.
func (r *EcosystemRegistry) Register(e domainRepos.EcosystemRepository) {
	r.ecosystems[e.Name()] = e
}

// Get returns the ecosystem for a package manager.
func (r *EcosystemRegistry) Get(packageManager string) (domainRepos.EcosystemRepository, error) {
	ecosystem, ok := r.ecosystems[packageManager]
	if !ok {
		return nil, fmt.Errorf("unknown package manager: %q", packageManager)
	}
	return ecosystem, nil
}

// Names returns the sorted list of registered package managers.
func (r *EcosystemRegistry) Names() []string {
	names := make([]string, 0, len(r.ecosystems))
	for name := range r.ecosystems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
