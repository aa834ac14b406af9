package commands

import (
	"sync"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
)

// HandledDependencies remembers which dependencies were already processed in
// this run, per directory, so no individual pull request is raised for them.
// Directories may be processed concurrently.
type HandledDependencies struct {
	mu      sync.Mutex
	handled map[[2]string]struct{}
}

// NewHandledDependencies creates an empty set.
func NewHandledDependencies() *HandledDependencies {
	return &HandledDependencies{handled: make(map[[2]string]struct{})}
}

// Add marks a dependency as handled in a directory.
func (h *HandledDependencies) Add(directory, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled[[2]string{entities.NormalizeDirectory(directory), name}] = struct{}{}
}

// Contains reports whether a dependency was already handled in a directory.
func (h *HandledDependencies) Contains(directory, name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.handled[[2]string{entities.NormalizeDirectory(directory), name}]
	return ok
}

// Len returns the number of handled (directory, name) pairs.
func (h *HandledDependencies) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}
