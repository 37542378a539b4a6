package resolver

import (
	"encoding/json"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// Extensions tried, in order, when a candidate does not name a file.
var probeExtensions = []string{".js", ".json"}

// locator checks candidates for existence under the output root.
type locator struct {
	fs      afero.Fs
	baseDir string
	rootDir string
	logger  *log.Logger
}

// isFile reports whether p exists and is a regular file.
func isFile(fs afero.Fs, p string) bool {
	info, err := fs.Stat(p)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// rootAbs returns the output root joined with the base directory.
func (l *locator) rootAbs() string {
	return filepath.Join(l.baseDir, l.rootDir)
}

// locate resolves a root-relative candidate to an existing file.
func (l *locator) locate(candidate string) (string, bool) {
	joined := filepath.Join(l.rootAbs(), filepath.FromSlash(candidate))
	l.logger.Debug("try to resolve", "candidate", candidate, "path", joined)

	found, ok := l.probe(joined)
	if !ok && l.rooted(candidate) {
		// The candidate already carries the root prefix.
		joined = filepath.Join(l.baseDir, filepath.FromSlash(candidate))
		l.logger.Debug("try to resolve", "candidate", candidate, "path", joined)
		found, ok = l.probe(joined)
	}
	if !ok {
		return "", false
	}

	return upgradeExtension(l.fs, found), true
}

// rooted reports whether candidate starts with the output root directory.
func (l *locator) rooted(candidate string) bool {
	root := path.Clean(filepath.ToSlash(l.rootDir))
	if root == "." || path.IsAbs(root) {
		return false
	}
	return strings.HasPrefix(path.Clean(filepath.ToSlash(candidate)), root+"/")
}

// probe looks for p as a file, then as a package directory.
func (l *locator) probe(p string) (string, bool) {
	found, ok := l.loadAsFile(p)
	if ok {
		return found, true
	}
	return l.loadAsDirectory(p)
}

// loadAsFile tries p verbatim and with each probe extension.
func (l *locator) loadAsFile(p string) (string, bool) {
	if isFile(l.fs, p) {
		return p, true
	}
	for _, ext := range probeExtensions {
		if isFile(l.fs, p+ext) {
			return p + ext, true
		}
	}
	return "", false
}

// loadAsDirectory follows package.json "main", then falls back to index files.
func (l *locator) loadAsDirectory(dir string) (string, bool) {
	pkgMain := l.packageMain(dir)
	if pkgMain != "" {
		entry := filepath.Join(dir, filepath.FromSlash(pkgMain))
		found, ok := l.loadAsFile(entry)
		if ok {
			return found, true
		}
		found, ok = l.loadIndex(entry)
		if ok {
			return found, true
		}
	}
	return l.loadIndex(dir)
}

// loadIndex tries index files inside dir.
func (l *locator) loadIndex(dir string) (string, bool) {
	for _, ext := range probeExtensions {
		p := filepath.Join(dir, "index"+ext)
		if isFile(l.fs, p) {
			return p, true
		}
	}
	return "", false
}

// packageMain returns the "main" field of dir/package.json, if any.
func (l *locator) packageMain(dir string) string {
	data, err := afero.ReadFile(l.fs, filepath.Join(dir, "package.json"))
	if err != nil {
		return ""
	}

	var pkg struct {
		Main string `json:"main"`
	}
	err = json.Unmarshal(data, &pkg)
	if err != nil {
		l.logger.Debug("ignoring unreadable package.json", "dir", dir, "err", err)
		return ""
	}
	return pkg.Main
}

// upgradeExtension prefers a sibling .mjs file over a resolved .js file.
func upgradeExtension(fs afero.Fs, p string) string {
	if filepath.Ext(p) != ".js" {
		return p
	}
	mjs := strings.TrimSuffix(p, ".js") + ".mjs"
	if isFile(fs, mjs) {
		return mjs
	}
	return p
}
