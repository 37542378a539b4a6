package resolver

import (
	"path"
	"path/filepath"
	"strings"

	"ngbundle/entities"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// Request is one import edge presented to the strategies.
type Request struct {
	// Specifier as written in source.
	Specifier string

	// Specifier with backslashes turned into forward slashes.
	Normalized string

	// File containing the import; empty for entry points.
	Importer string
}

// NewRequest builds a Request for specifier imported from importer.
func NewRequest(specifier, importer string) Request {
	return Request{
		Specifier:  specifier,
		Normalized: strings.ReplaceAll(specifier, "\\", "/"),
		Importer:   importer,
	}
}

// IsRelative reports whether the specifier is relative to its importer.
func (r Request) IsRelative() bool {
	return strings.HasPrefix(r.Normalized, "./") || strings.HasPrefix(r.Normalized, "../")
}

// Strategy is one way of turning a specifier into a file.
// Attempt returns ok=false when it has no opinion.
type Strategy interface {
	Name() string
	Attempt(req Request) (resolved string, ok bool, err error)
}

// FullyQualified accepts specifiers that already name an existing file.
type FullyQualified struct {
	fs      afero.Fs
	baseDir string
}

// NewFullyQualified creates the fully-qualified strategy. Relative specifiers
// are checked against baseDir.
func NewFullyQualified(fs afero.Fs, baseDir string) *FullyQualified {
	return &FullyQualified{fs: fs, baseDir: baseDir}
}

func (s *FullyQualified) Name() string { return "fully-qualified" }

// Attempt returns the specifier unchanged when it names a regular file.
func (s *FullyQualified) Attempt(req Request) (string, bool, error) {
	p := req.Specifier
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.baseDir, p)
	}
	if !isFile(s.fs, p) {
		return "", false, nil
	}
	return req.Specifier, true, nil
}

// Relative resolves ./ and ../ specifiers against the importer, inside the
// output root.
type Relative struct {
	loc    *locator
	logger *log.Logger
}

func (s *Relative) Name() string { return "relative" }

// Attempt rebases the importer's directory onto the output root and joins the
// specifier to it.
func (s *Relative) Attempt(req Request) (string, bool, error) {
	if !req.IsRelative() {
		return "", false, nil
	}
	if req.Importer == "" {
		return "", false, &UsageError{Specifier: req.Specifier}
	}

	importerDir := filepath.Dir(req.Importer)
	absDir := importerDir
	if !filepath.IsAbs(absDir) {
		absDir = filepath.Join(s.loc.baseDir, absDir)
	}

	rel, err := filepath.Rel(s.loc.rootAbs(), absDir)
	if err == nil && !escapes(rel) {
		importerDir = rel
		if rel == "." {
			importerDir = ""
		}
	}

	candidate := filepath.Join(importerDir, filepath.FromSlash(req.Normalized))
	s.logger.Debug("relative import", "specifier", req.Specifier, "candidate", candidate)

	resolved, ok := s.loc.locate(candidate)
	return resolved, ok, nil
}

// escapes reports whether a relative path climbs out of its base.
func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Mapping resolves symbolic module names through the module mapping table.
type Mapping struct {
	loc      *locator
	mappings entities.ModuleMappings
	logger   *log.Logger
}

func (s *Mapping) Name() string { return "module-mapping" }

// Attempt substitutes the first matching key whose target exists. A matching
// key whose target is missing does not stop the scan.
func (s *Mapping) Attempt(req Request) (string, bool, error) {
	for _, mapping := range s.mappings {
		subPath, ok := matchMapping(req.Normalized, mapping.Name)
		if !ok {
			continue
		}

		// Mappings may point at typings (index.d.ts); the runtime file sits beside them.
		target := strings.TrimSuffix(mapping.Path, ".d.ts")
		mapped := path.Join(target, subPath)
		s.logger.Debug("module mapped", "specifier", req.Specifier, "mapped", mapped)

		resolved, found := s.loc.locate(mapped)
		if found {
			return resolved, true, nil
		}
	}
	return "", false, nil
}

// matchMapping reports whether specifier is key or lies under key, and returns
// the part after the key.
func matchMapping(specifier, key string) (string, bool) {
	if specifier == key {
		return "", true
	}
	if strings.HasPrefix(specifier, key+"/") {
		return specifier[len(key)+1:], true
	}
	return "", false
}

// Workspace resolves specifiers written relative to the workspace, falling back
// to the raw specifier.
type Workspace struct {
	loc       *locator
	workspace string
}

func (s *Workspace) Name() string { return "workspace" }

// Attempt strips the workspace prefix and looks the result up under the root.
func (s *Workspace) Attempt(req Request) (string, bool, error) {
	candidate := req.Specifier
	rel, err := filepath.Rel(s.workspace, req.Specifier)
	if err == nil && !strings.HasPrefix(rel, "..") {
		candidate = rel
	}

	resolved, ok := s.loc.locate(candidate)
	return resolved, ok, nil
}
