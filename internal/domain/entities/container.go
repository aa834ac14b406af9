package entities

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all entity providers with the DIG container.
// Settings requires a job file path, so it is provided by the controllers layer.
func RegisterProviders(container *dig.Container) error {
	return container.Provide(func() DependencyContainer {
		return GroupContainment{}
	})
}
