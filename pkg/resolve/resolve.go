// Package resolve is the Module Resolver Facade (spec §4.2): it translates
// an import specifier plus the file it appears in to an absolute path. The
// real TypeScript module resolution algorithm (node_modules lookup,
// package.json "exports" maps, ambient module declarations) is explicitly
// out of scope (spec §1, "TypeScript's own module resolver... consulted as
// an opaque function") — when a host bundler is driving the loader, it
// supplies its own Resolver satisfying the same interface (spec §6). This
// package is the default, filesystem-backed implementation used by the
// standalone CLI and MCP server: it discovers the nearest tsconfig the way
// the teacher's project config loader discovers `.uispec/config.yaml`
// (nearest-file-wins, falling back to defaults), and handles the two cases
// that do not require a real node resolver — relative specifiers and
// tsconfig path-mapped specifiers.
package resolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrUnresolvable is returned when a specifier cannot be mapped to a file
// this facade can see — bare package specifiers with no matching tsconfig
// path entry, most commonly. The orchestrator treats this as the hard
// failure spec §7 describes ("Unresolvable import specifier... propagate as
// a hard error from load") when, and only when, the unresolved dependency
// is actually reached while transforming a requested declaration.
var ErrUnresolvable = errors.New("resolve: specifier could not be resolved")

// candidateExtensions is the probe order for a specifier with no extension,
// matching the TypeScript resolver's own preference (spec §4.1 accepts
// .ts/.tsx/.d.ts).
var candidateExtensions = []string{".ts", ".tsx", ".d.ts"}

// Resolver implements the exportgraph.Resolver / transform-dependency
// resolution contract against the real filesystem.
type Resolver struct {
	configs *configCache
}

// New creates a filesystem-backed Resolver.
func New() *Resolver {
	return &Resolver{configs: newConfigCache()}
}

// Resolve maps specifier (as written in containingFile's import/export
// statement) to an absolute path. Relative specifiers ("./x", "../x") are
// resolved against containingFile's directory; bare specifiers are checked
// against the nearest tsconfig's `paths` map; anything else is
// unresolvable (spec §4.2: "signals unresolvable — handled by the
// orchestrator").
func (r *Resolver) Resolve(specifier, containingFile string) (string, error) {
	dir := filepath.Dir(containingFile)

	if isRelative(specifier) {
		abs := filepath.Clean(filepath.Join(dir, specifier))
		if resolved, ok := probeFile(abs); ok {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %q from %q", ErrUnresolvable, specifier, containingFile)
	}

	cfg := r.configs.nearestConfig(dir)
	if resolved, ok := r.resolveViaPaths(specifier, cfg); ok {
		return resolved, nil
	}

	return "", fmt.Errorf("%w: %q (no relative path and no tsconfig `paths` match)", ErrUnresolvable, specifier)
}

// resolveViaPaths applies tsconfig `compilerOptions.paths` mapping, which is
// the one piece of real node-style resolution this facade implements
// without reaching for an actual node_modules walk: each pattern's `*`
// matches the remainder of the specifier, substituted into each candidate
// target relative to `baseUrl` (or the config's own directory when baseUrl
// is unset).
func (r *Resolver) resolveViaPaths(specifier string, cfg *resolvedConfig) (string, bool) {
	if len(cfg.paths) == 0 {
		return "", false
	}
	base := cfg.dir
	if cfg.baseURL != "" {
		base = filepath.Join(cfg.dir, cfg.baseURL)
	}

	for pattern, targets := range cfg.paths {
		suffix, ok := matchPathPattern(pattern, specifier)
		if !ok {
			continue
		}
		for _, target := range targets {
			candidate := strings.Replace(target, "*", suffix, 1)
			abs := filepath.Join(base, candidate)
			if resolved, ok := probeFile(abs); ok {
				return resolved, true
			}
		}
	}
	return "", false
}

// matchPathPattern matches a tsconfig `paths` key (at most one `*`) against
// specifier, returning the text the `*` would have captured.
func matchPathPattern(pattern, specifier string) (string, bool) {
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		if pattern == specifier {
			return "", true
		}
		return "", false
	}
	prefix, suffix := pattern[:star], pattern[star+1:]
	if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) {
		return "", false
	}
	return specifier[len(prefix) : len(specifier)-len(suffix)], true
}

// InScope reports whether file falls within the include/exclude globs of
// the tsconfig governing it, using doublestar for `**`-aware matching —
// the same glob engine the teacher's catalog source discovery walk uses
// (pkg/scanner/discovery.go). An empty include list means "everything not
// excluded", matching tsconfig's own default.
func (r *Resolver) InScope(file string) bool {
	cfg := r.configs.nearestConfig(filepath.Dir(file))
	rel, err := filepath.Rel(cfg.dir, file)
	if err != nil {
		rel = file
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range cfg.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	if len(cfg.include) == 0 {
		return true
	}
	for _, pattern := range cfg.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") || specifier == "." || specifier == ".."
}

// probeFile tries specifier as given, then with each candidate extension,
// then as a directory index file — the same ordered fallback spec §4.1
// expects the parser facade to accept (.ts/.tsx/.d.ts) plus the
// barrel-file convention of an index file per directory.
func probeFile(path string) (string, bool) {
	if hasKnownExtension(path) {
		if fileExists(path) {
			return path, true
		}
		return "", false
	}

	if fileExists(path) {
		return path, true
	}
	for _, ext := range candidateExtensions {
		if candidate := path + ext; fileExists(candidate) {
			return candidate, true
		}
	}
	for _, ext := range candidateExtensions {
		if candidate := filepath.Join(path, "index"+ext); fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func hasKnownExtension(path string) bool {
	for _, ext := range candidateExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return strings.HasSuffix(path, ".ts") || strings.HasSuffix(path, ".tsx")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
