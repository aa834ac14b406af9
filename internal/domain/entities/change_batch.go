package entities

import (
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"
)

// ErrNoFilesInDirectory is returned when a batch tracks no file for a directory.
var ErrNoFilesInDirectory = errors.New("no dependency files tracked for directory")

type batchEntry struct {
	file        DependencyFile
	changed     bool
	changeCount int
}

// MembershipEnforcement drops dependencies from a group's batch when another
// group claims them more specifically.
type MembershipEnforcement struct {
	Scorer    *SpecificityScorer
	Group     DependencyGroup
	AppliesTo AppliesTo
	// OnDropped is called for every dependency removed from the batch, with the
	// name of the group that claims it instead.
	OnDropped func(dependency UpdatedDependency, winner string)
}

// ChangeBatch accumulates per-dependency update results for one group run
// into a single consistent set of files and dependencies.
type ChangeBatch struct {
	files         map[string]*batchEntry
	fileOrder     []string
	vendored      map[string]*batchEntry
	vendoredOrder []string
	updated       []UpdatedDependency
	enforcement   *MembershipEnforcement
}

// ChangeBatchOption configures a ChangeBatch.
type ChangeBatchOption func(*ChangeBatch)

// WithMembershipEnforcement filters merged dependencies through group arbitration.
func WithMembershipEnforcement(enforcement MembershipEnforcement) ChangeBatchOption {
	return func(b *ChangeBatch) {
		b.enforcement = &enforcement
	}
}

// NewChangeBatch starts a batch from the files as they were read at run start.
// Vendored files are kept as an unchanged baseline until an update replaces them.
func NewChangeBatch(initialFiles []DependencyFile, opts ...ChangeBatchOption) *ChangeBatch {
	batch := &ChangeBatch{
		files:    make(map[string]*batchEntry, len(initialFiles)),
		vendored: make(map[string]*batchEntry),
	}
	for _, file := range initialFiles {
		if file.Vendored {
			batch.trackVendored(file, false)
			continue
		}
		batch.track(file, false)
	}
	for _, opt := range opts {
		opt(batch)
	}
	return batch
}

// CurrentFiles returns the latest snapshot of every file in directory, regular
// files first and vendored files after them.
func (b *ChangeBatch) CurrentFiles(directory string) ([]DependencyFile, error) {
	dir := NormalizeDirectory(directory)
	var files []DependencyFile
	for _, path := range b.fileOrder {
		entry := b.files[path]
		if NormalizeDirectory(entry.file.Directory) == dir {
			files = append(files, entry.file)
		}
	}
	for _, path := range b.vendoredOrder {
		entry := b.vendored[path]
		if NormalizeDirectory(entry.file.Directory) == dir {
			files = append(files, entry.file)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoFilesInDirectory, dir)
	}
	return files, nil
}

// Merge folds one change, produced for directory, into the batch.
func (b *ChangeBatch) Merge(change *ChangeRecord, directory string) {
	for _, dep := range change.UpdatedDependencies {
		dep.Directory = NormalizeDirectory(directory)
		if dep.Reason == "" {
			dep.Reason = SelectedByChecker
		}
		if b.dropped(dep) {
			continue
		}
		b.updated = append(b.updated, dep)
	}

	for _, file := range change.UpdatedFiles {
		if file.Vendored {
			b.trackVendored(file, true)
			continue
		}
		b.track(file, true)
	}
}

// AddUpdatedDependency records a dependency that was already updated as a side
// effect of an earlier update, without any file change of its own.
func (b *ChangeBatch) AddUpdatedDependency(dependency Dependency, directory string) {
	b.updated = append(b.updated, UpdatedDependency{
		Dependency: dependency,
		Directory:  NormalizeDirectory(directory),
		Reason:     SelectedAsSideEffect,
	})
}

// UpdatedFiles returns the regular files that changed at least once followed
// by every vendored file an update replaced.
func (b *ChangeBatch) UpdatedFiles() []DependencyFile {
	files := make([]DependencyFile, 0, len(b.fileOrder)+len(b.vendoredOrder))
	for _, path := range b.fileOrder {
		if entry := b.files[path]; entry.changed {
			files = append(files, entry.file)
		}
	}
	for _, path := range b.vendoredOrder {
		if entry := b.vendored[path]; entry.changed {
			files = append(files, entry.file)
		}
	}
	return files
}

// UpdatedDependencies returns every dependency merged so far, in merge order.
// The same dependency may appear more than once.
func (b *ChangeBatch) UpdatedDependencies() []UpdatedDependency {
	out := make([]UpdatedDependency, len(b.updated))
	copy(out, b.updated)
	return out
}

// ChangeCount returns how many times the regular file at path was replaced.
func (b *ChangeBatch) ChangeCount(path string) int {
	if entry, ok := b.files[path]; ok {
		return entry.changeCount
	}
	return 0
}

// TrackedFiles returns the number of regular file paths tracked by the batch.
func (b *ChangeBatch) TrackedFiles() int {
	return len(b.files)
}

// Finalize builds the group's aggregate change from the batch.
func (b *ChangeBatch) Finalize(group *DependencyGroup, notices []Notice) *ChangeRecord {
	return &ChangeRecord{
		UpdatedDependencies: b.UpdatedDependencies(),
		UpdatedFiles:        b.UpdatedFiles(),
		Group:               group,
		Notices:             notices,
	}
}

func (b *ChangeBatch) track(file DependencyFile, changed bool) {
	path := file.Path()
	entry, ok := b.files[path]
	if !ok {
		b.files[path] = &batchEntry{file: file, changed: changed}
		b.fileOrder = append(b.fileOrder, path)
		if changed {
			b.files[path].changeCount = 1
		}
		return
	}
	entry.file = file
	if changed {
		entry.changed = true
		entry.changeCount++
	}
}

// trackVendored replaces a vendored snapshot. Replaced vendored files count as
// changed whatever their content.
func (b *ChangeBatch) trackVendored(file DependencyFile, replaced bool) {
	path := file.Path()
	entry, ok := b.vendored[path]
	if !ok {
		entry = &batchEntry{}
		b.vendored[path] = entry
		b.vendoredOrder = append(b.vendoredOrder, path)
	}
	entry.file = file
	if replaced {
		entry.changed = true
		entry.changeCount++
	}
}

func (b *ChangeBatch) dropped(dep UpdatedDependency) bool {
	if b.enforcement == nil || b.enforcement.Scorer == nil {
		return false
	}

	winner := b.enforcement.Scorer.MoreSpecificGroupName(b.enforcement.Group, ArbitrationQuery{
		Dependency: dep.Dependency,
		Directory:  dep.Directory,
		AppliesTo:  b.enforcement.AppliesTo,
	})
	if winner == "" {
		return false
	}

	logger.WithFields(logger.Fields{
		"dependency": dep.Name,
		"directory":  dep.Directory,
		"group":      b.enforcement.Group.Name,
		"claimed_by": winner,
	}).Info("Dropping dependency from group: it belongs to a more specific group")
	if b.enforcement.OnDropped != nil {
		b.enforcement.OnDropped(dep, winner)
	}
	return true
}

// DirectoryChange is a finalized change together with the directory it was built for.
type DirectoryChange struct {
	Directory string
	Change    *ChangeRecord
}

// MergeDirectoryChanges combines per-directory changes into one. Dependencies
// are unique per (directory, name) and files per path; the first occurrence wins.
func MergeDirectoryChanges(changes []DirectoryChange, group *DependencyGroup) *ChangeRecord {
	merged := &ChangeRecord{Group: group}
	seenDeps := make(map[[2]string]struct{})
	seenFiles := make(map[string]struct{})

	for _, dc := range changes {
		if dc.Change == nil {
			continue
		}
		dir := NormalizeDirectory(dc.Directory)
		for _, dep := range dc.Change.UpdatedDependencies {
			key := [2]string{dir, dep.Name}
			if _, ok := seenDeps[key]; ok {
				continue
			}
			seenDeps[key] = struct{}{}
			dep.Directory = dir
			merged.UpdatedDependencies = append(merged.UpdatedDependencies, dep)
		}
		for _, file := range dc.Change.UpdatedFiles {
			if _, ok := seenFiles[file.Path()]; ok {
				continue
			}
			seenFiles[file.Path()] = struct{}{}
			merged.UpdatedFiles = append(merged.UpdatedFiles, file)
		}
		merged.Notices = append(merged.Notices, dc.Change.Notices...)
	}
	return merged
}
