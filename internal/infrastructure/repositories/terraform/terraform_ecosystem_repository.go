package terraform

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	logger "github.com/sirupsen/logrus"
	"github.com/zclconf/go-cty/cty"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
)

const (
	packageManager = "terraform"
	tfExtension    = ".tf"
	minMatchLen    = 6
)

var (
	refPattern          = regexp.MustCompile(`[?&]ref=([^&\s"]+)`)
	refParamPattern     = regexp.MustCompile(`[?&]ref=[^&\s"]+`)
	moduleSourcePattern = regexp.MustCompile(`(?s)module\s+"([^"]+)"\s*\{[^}]*source\s*=\s*"([^"]+)"`)
)

// TerraformEcosystemRepository implements repositories.EcosystemRepository for
// Terraform modules pinned to git refs ("?ref=v1.2.0").
type TerraformEcosystemRepository struct {
	tags TagLister
}

// NewTerraformEcosystemRepository creates the Terraform ecosystem backed by
// remote git tag listings.
func NewTerraformEcosystemRepository() repositories.EcosystemRepository {
	return &TerraformEcosystemRepository{tags: NewGitTagLister("")}
}

// NewTerraformEcosystemRepositoryWithTags creates the ecosystem with a custom tag source.
func NewTerraformEcosystemRepositoryWithTags(tags TagLister) repositories.EcosystemRepository {
	return &TerraformEcosystemRepository{tags: tags}
}

func (r *TerraformEcosystemRepository) Name() string { return packageManager }

// FetchFiles reads every .tf file directly inside the directory.
func (r *TerraformEcosystemRepository) FetchFiles(
	_ context.Context,
	filesystem billy.Filesystem,
	directory string,
) ([]entities.DependencyFile, error) {
	directory = entities.NormalizeDirectory(directory)
	root := strings.TrimPrefix(directory, "/")
	if root == "" {
		root = "."
	}

	entries, err := filesystem.ReadDir(root)
	if err != nil {
		return nil, entities.NewUpdaterError(
			entities.ErrorTypeDependencyFileNotFound,
			fmt.Errorf("failed to read %s: %w", directory, err),
			map[string]any{"file-path": directory},
		)
	}

	var files []entities.DependencyFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), tfExtension) {
			continue
		}
		content, readErr := util.ReadFile(filesystem, path.Join(root, entry.Name()))
		if readErr != nil {
			logger.Warnf("[terraform] Failed to read %s: %v", entry.Name(), readErr)
			continue
		}
		files = append(files, entities.DependencyFile{
			Name:      entry.Name(),
			Directory: directory,
			Content:   string(content),
			Operation: entities.FileOperationUpdate,
		})
	}

	if len(files) == 0 {
		return nil, entities.NewUpdaterError(
			entities.ErrorTypeDependencyFileNotFound,
			fmt.Errorf("no %s files in %s: %w", tfExtension, directory, fs.ErrNotExist),
			map[string]any{"file-path": directory},
		)
	}
	return files, nil
}

// ParseFiles collects git-sourced module blocks. Blocks that point at the same
// source become one dependency with one requirement per block.
func (r *TerraformEcosystemRepository) ParseFiles(
	_ context.Context,
	files []entities.DependencyFile,
) ([]entities.Dependency, error) {
	bySource := make(map[string]*entities.Dependency)
	var order []string

	for _, file := range files {
		if !strings.HasSuffix(file.Name, tfExtension) {
			continue
		}
		for _, ref := range scanTerraformFile(file.Content, file.Name) {
			name := dependencyName(ref.source)
			dep, ok := bySource[name]
			if !ok {
				dep = &entities.Dependency{Name: name, Version: ref.version, PackageManager: packageManager}
				bySource[name] = dep
				order = append(order, name)
			}
			dep.Requirements = append(dep.Requirements, entities.Requirement{
				File:        file.Name,
				Requirement: ref.version,
				Source:      ref.source,
			})
		}
	}

	deps := make([]entities.Dependency, 0, len(order))
	for _, name := range order {
		deps = append(deps, *bySource[name])
	}
	return deps, nil
}

// NewUpdateChecker creates a tag-backed checker for one module source.
func (r *TerraformEcosystemRepository) NewUpdateChecker(
	dependency entities.Dependency,
	_ []entities.DependencyFile,
	ignoreConditions []entities.IgnoreCondition,
) repositories.UpdateChecker {
	return newUpdateChecker(r.tags, dependency, ignoreConditions)
}

// UpdateFiles moves every "?ref=" of the updated modules to the new version.
func (r *TerraformEcosystemRepository) UpdateFiles(
	_ context.Context,
	_ entities.Dependency,
	updated []entities.Dependency,
	files []entities.DependencyFile,
) ([]entities.DependencyFile, error) {
	result := make([]entities.DependencyFile, 0, len(files))
	for _, file := range files {
		for _, dep := range updated {
			for _, req := range dep.PreviousRequirements {
				if req.File != file.Name {
					continue
				}
				file.Content = applyVersionUpgrade(file.Content, req.Source, req.Requirement, dep.Version)
			}
		}
		result = append(result, file)
	}
	return result, nil
}

// ParseVersion parses a tag such as "v1.2.0" or "1.2".
func (r *TerraformEcosystemRepository) ParseVersion(raw string) (repositories.Version, error) {
	return ParseTagVersion(raw)
}

// --- scanning ---

type moduleRef struct {
	label   string
	source  string
	version string
}

func scanTerraformFile(content, filePath string) []moduleRef {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL([]byte(content), filePath)
	if diags.HasErrors() || file.Body == nil {
		return scanWithRegex(content)
	}

	bodyContent, _, partialDiags := file.Body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "module", LabelNames: []string{"name"}},
		},
	})
	if partialDiags.HasErrors() {
		return scanWithRegex(content)
	}

	var refs []moduleRef
	for _, block := range bodyContent.Blocks {
		attrs, _ := block.Body.JustAttributes()
		sourceAttr, hasSource := attrs["source"]
		if !hasSource {
			continue
		}

		sourceVal, sourceDiags := sourceAttr.Expr.Value(&hcl.EvalContext{})
		if sourceDiags.HasErrors() || sourceVal.Type() != cty.String {
			continue
		}

		if ref, ok := newModuleRef(block.Labels[0], sourceVal.AsString()); ok {
			refs = append(refs, ref)
		} else {
			logger.Debugf("[terraform] Skipping module %q in %s: not a pinned git source", block.Labels[0], filePath)
		}
	}
	return refs
}

func scanWithRegex(content string) []moduleRef {
	var refs []moduleRef
	for _, match := range moduleSourcePattern.FindAllStringSubmatchIndex(content, -1) {
		if len(match) < minMatchLen {
			continue
		}
		if ref, ok := newModuleRef(content[match[2]:match[3]], content[match[4]:match[5]]); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func newModuleRef(label, source string) (moduleRef, bool) {
	if !isGitModule(source) {
		return moduleRef{}, false
	}
	version := extractVersion(source)
	if version == "" {
		return moduleRef{}, false
	}
	return moduleRef{label: label, source: removeVersionFromSource(source), version: version}, true
}

// --- source helpers ---

func isGitModule(source string) bool {
	return strings.HasPrefix(source, "git::") ||
		strings.HasPrefix(source, "git@") ||
		strings.Contains(source, "github.com") ||
		strings.Contains(source, "gitlab.com") ||
		strings.Contains(source, "bitbucket.org") ||
		strings.Contains(source, "dev.azure.com") ||
		strings.Contains(source, "_git/")
}

func extractVersion(source string) string {
	if matches := refPattern.FindStringSubmatch(source); len(matches) > 1 {
		return matches[1]
	}
	return ""
}

func removeVersionFromSource(source string) string {
	cleaned := refParamPattern.ReplaceAllString(source, "")
	if !strings.Contains(cleaned, "?") {
		if i := strings.Index(cleaned, "&"); i >= 0 {
			cleaned = cleaned[:i] + "?" + cleaned[i+1:]
		}
	}
	return cleaned
}

// dependencyName turns a module source into a stable name such as
// "github.com/acme/terraform-aws-vpc".
func dependencyName(source string) string {
	name := strings.TrimPrefix(source, "git::")
	if i := strings.Index(name, "?"); i >= 0 {
		name = name[:i]
	}
	for _, scheme := range []string{"https://", "http://", "ssh://"} {
		name = strings.TrimPrefix(name, scheme)
	}
	if strings.HasPrefix(name, "git@") {
		name = strings.Replace(strings.TrimPrefix(name, "git@"), ":", "/", 1)
	}
	if i := strings.Index(name, "//"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSuffix(name, ".git")
}

// remoteURL returns the clone URL of a module source.
func remoteURL(source string) string {
	url := strings.TrimPrefix(source, "git::")
	if i := strings.Index(url, "?"); i >= 0 {
		url = url[:i]
	}
	if scheme := strings.Index(url, "://"); scheme >= 0 {
		if i := strings.Index(url[scheme+3:], "//"); i >= 0 {
			url = url[:scheme+3+i]
		}
	} else if i := strings.Index(url, "//"); i >= 0 {
		url = url[:i]
	}
	if strings.HasPrefix(url, "git@") || strings.Contains(url, "://") {
		return url
	}
	return "https://" + strings.TrimSuffix(url, ".git") + ".git"
}

// --- upgrade application ---

func applyVersionUpgrade(content, source, currentVersion, newVersion string) string {
	oldSource := buildSourceWithVersion(source, currentVersion)
	if strings.Contains(content, oldSource) {
		return strings.ReplaceAll(content, oldSource, buildSourceWithVersion(source, newVersion))
	}

	base := source
	if i := strings.Index(base, "?"); i >= 0 {
		base = base[:i]
	}
	pattern := regexp.MustCompile(
		`("` + regexp.QuoteMeta(base) + `[^"]*[?&]ref=)` + regexp.QuoteMeta(currentVersion) + `([&"])`,
	)
	return pattern.ReplaceAllString(content, "${1}"+newVersion+"${2}")
}

func buildSourceWithVersion(source, version string) string {
	if strings.Contains(source, "?") {
		return source + "&ref=" + version
	}
	return source + "?ref=" + version
}
