package repositories

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
	drRepo "github.com/rios0rios0/groupupdate/internal/infrastructure/repositories/dryrun"
	ghRepo "github.com/rios0rios0/groupupdate/internal/infrastructure/repositories/github"
	goRepo "github.com/rios0rios0/groupupdate/internal/infrastructure/repositories/gomod"
	rpRepo "github.com/rios0rios0/groupupdate/internal/infrastructure/repositories/reporter"
	tfRepo "github.com/rios0rios0/groupupdate/internal/infrastructure/repositories/terraform"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register pull request registry with all Git hosting factories
	if err := container.Provide(func() *PullRequestRegistry {
		reg := NewPullRequestRegistry()
		reg.Register("github", ghRepo.NewGitHubPullRequestRepository)
		reg.Register("dryrun", drRepo.NewDryRunPullRequestRepository)
		return reg
	}); err != nil {
		return err
	}

	// Register ecosystem registry with all package ecosystems
	if err := container.Provide(func() *EcosystemRegistry {
		reg := NewEcosystemRegistry()
		reg.Register(goRepo.NewGoModEcosystemRepository())
		reg.Register(tfRepo.NewTerraformEcosystemRepository())
		return reg
	}); err != nil {
		return err
	}

	if err := container.Provide(func() repositories.ErrorReporterRepository {
		return rpRepo.NewLogErrorReporterRepository()
	}); err != nil {
		return err
	}

	return nil
}
