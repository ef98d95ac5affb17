// Package tsparse is the Parser Facade (spec §4.1): it wraps the external
// tree-sitter TypeScript grammar, accepts (absolute path, source text), and
// returns an AST the rest of the pipeline treats as a black box syntax tree
// to walk. It caches parsed trees keyed by absolute path so that repeated
// demand-driven traversal of the same file (the export-graph resolver
// re-entering a barrel, the linker re-requesting a dependency) does not
// re-parse.
package tsparse

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	lru "github.com/hashicorp/golang-lru/v2"
	ts "github.com/tree-sitter/go-tree-sitter"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// ParsedFile is the AST produced by the parser facade for one source file.
type ParsedFile struct {
	Path     string
	Source   []byte
	Tree     *ts.Tree
	Variant  Variant
	Ambient  bool
	HasError bool
}

// Manager parses TypeScript/TSX source and caches the resulting trees by
// absolute path. A file whose name ends in .d.ts is parsed as ambient (spec
// §4.1): no further handling changes, but callers can skip runtime-only
// transforms using ParsedFile.Ambient.
type Manager struct {
	pools map[Variant]*grammarPool
	langs map[Variant]*ts.Language
	cache *lru.Cache[string, *ParsedFile]
	qm    *queryManager

	mu     sync.RWMutex
	logger *slog.Logger
}

// Config controls the parser facade's AST cache size.
type Config struct {
	// MaxCachedFiles bounds the number of parsed trees kept resident.
	// Zero uses a sensible default (spec's loader cache is meant to be
	// "persistent across requests" but coarse-grained, not unbounded).
	MaxCachedFiles int
}

// DefaultConfig returns sensible defaults for most workspaces.
func DefaultConfig() Config {
	return Config{MaxCachedFiles: 10000}
}

// NewManager creates a Manager. A nil logger uses slog.Default().
func NewManager(cfg Config, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxCachedFiles <= 0 {
		cfg.MaxCachedFiles = DefaultConfig().MaxCachedFiles
	}

	cache, err := lru.New[string, *ParsedFile](cfg.MaxCachedFiles)
	if err != nil {
		return nil, fmt.Errorf("tsparse: failed to create AST cache: %w", err)
	}

	return &Manager{
		pools:  make(map[Variant]*grammarPool),
		langs:  make(map[Variant]*ts.Language),
		cache:  cache,
		qm:     newQueryManager(),
		logger: logger,
	}, nil
}

// Query returns the compiled query named name for the grammar variant that
// produced pf, compiling and caching it on first use.
func (m *Manager) Query(pf *ParsedFile, name QueryName) (*ts.Query, error) {
	m.mu.RLock()
	lang, ok := m.langs[pf.Variant]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tsparse: no language registered for variant %d; parse a file of that variant first", pf.Variant)
	}
	return m.qm.get(lang, pf.Variant, name)
}

// Parse returns the cached tree for path if present, otherwise parses source
// with the appropriate grammar variant, caches it, and returns it. A source
// with syntax errors still yields a tree: it is cached and returned with
// HasError set, not as an error, and its exports are gathered from that
// tree. An error is returned only when no tree is produced at all.
func (m *Manager) Parse(path string, source []byte) (*ParsedFile, error) {
	m.mu.RLock()
	if pf, ok := m.cache.Get(path); ok {
		m.mu.RUnlock()
		return pf, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if pf, ok := m.cache.Get(path); ok {
		return pf, nil
	}

	variant := DetectVariant(path)
	pool, err := m.getOrCreatePool(variant)
	if err != nil {
		return nil, fmt.Errorf("tsparse: failed to get grammar pool: %w", err)
	}

	parser, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("tsparse: failed to acquire parser: %w", err)
	}
	tree := parser.Parse(source, nil)
	pool.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("tsparse: parser returned no tree for %s", path)
	}

	pf := &ParsedFile{
		Path:     path,
		Source:   source,
		Tree:     tree,
		Variant:  variant,
		Ambient:  IsAmbient(path),
		HasError: tree.RootNode().HasError(),
	}
	if pf.HasError {
		m.logger.Warn("parse tree contains errors", "file", path)
	}

	m.cache.Add(path, pf)
	return pf, nil
}

// Invalidate drops the cached tree for path, if any (spec §4.8 invalidation).
func (m *Manager) Invalidate(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Remove(path)
}

// Close releases all parser pools and closes all cached trees.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pf := range m.cache.Keys() {
		if v, ok := m.cache.Peek(pf); ok && v.Tree != nil {
			v.Tree.Close()
		}
	}
	m.cache.Purge()

	for _, pool := range m.pools {
		pool.close()
	}
	m.pools = make(map[Variant]*grammarPool)
}

func (m *Manager) getOrCreatePool(variant Variant) (*grammarPool, error) {
	if pool, ok := m.pools[variant]; ok {
		return pool, nil
	}

	var langPtr unsafe.Pointer
	switch variant {
	case VariantTSX:
		langPtr = ts_typescript.LanguageTSX()
	default:
		langPtr = ts_typescript.LanguageTypescript()
	}

	m.langs[variant] = ts.NewLanguage(langPtr)

	pool := newGrammarPool(variant, langPtr, defaultPoolSize(), m.logger)
	m.pools[variant] = pool
	return pool, nil
}
