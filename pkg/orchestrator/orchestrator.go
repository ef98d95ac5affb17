// Package orchestrator is the Loader Orchestrator (spec §4.9): the
// top-level `load(filePath, requestedSymbols?)` entry point. It consults the
// cache, determines which requested symbols are missing, drives the
// gatherer/export-graph resolver to find where each missing symbol is
// really declared, transforms the needed declarations (locally or via a
// recursive `load` of the originating file), hands the result to the
// linker, and writes newly linked symbols back to the cache.
package orchestrator

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/tsdocgraph/loader/pkg/docnode"
	"github.com/tsdocgraph/loader/pkg/exportgraph"
	"github.com/tsdocgraph/loader/pkg/gatherer"
	"github.com/tsdocgraph/loader/pkg/host"
	"github.com/tsdocgraph/loader/pkg/linker"
	"github.com/tsdocgraph/loader/pkg/loadercache"
	"github.com/tsdocgraph/loader/pkg/transform"
	"github.com/tsdocgraph/loader/pkg/tsparse"
)

// Loader is the orchestrator. One Loader is shared by every concurrent
// `Load` call against a project (spec §5: "concurrent load requests for
// different entry files may run in parallel; they share a single cache").
type Loader struct {
	parser   *tsparse.Manager
	gatherer *gatherer.Gatherer
	graphs   *exportgraph.Builder
	cache    *loadercache.Cache
	host     host.Host
	logger   *slog.Logger
}

// New creates a Loader. host supplies file contents and module resolution
// (spec §6); a nil logger uses slog.Default().
func New(parser *tsparse.Manager, h host.Host, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	g := gatherer.New(parser)
	return &Loader{
		parser:   parser,
		gatherer: g,
		graphs:   exportgraph.New(parser, g, h, h),
		cache:    loadercache.New(parser),
		host:     h,
		logger:   logger,
	}
}

// Invalidate evicts filePath's AST, export graph, and symbol-cache entries
// (spec §4.8/§4.9). Wired by the host's optional invalidate(path) signal.
func (l *Loader) Invalidate(filePath string) {
	l.graphs.Invalidate(filePath)
	l.cache.Invalidate(filePath)
}

// Cache exposes the underlying loader cache for observability (stats) and
// for wiring an external invalidate signal (spec §6).
func (l *Loader) Cache() *loadercache.Cache { return l.cache }

// progressSet is the per-top-level-call in-progress tracker (spec §4.9:
// "maintains its own [in-progress set] and passes it through the
// recursion"). Keyed by filePath plus a canonical rendering of the
// requested symbol subset, since two different subsets for the same file
// are independent in-flight loads until one of them re-enters the other's
// exact key (spec §4.9's circular-dependency cut).
type progressSet map[string]bool

func progressKey(filePath string, symbols []string) string {
	if symbols == nil {
		return filePath + "\x00*"
	}
	sorted := append([]string(nil), symbols...)
	sort.Strings(sorted)
	key := filePath
	for _, s := range sorted {
		key += "\x00" + s
	}
	return key
}

// Load is the top-level entry point (spec §4.9). requestedSymbols == nil
// means "all known exports"; an empty (non-nil) slice asks for nothing.
func (l *Loader) Load(filePath string, requestedSymbols []string) (*docnode.Asset, error) {
	return l.load(filePath, requestedSymbols, make(progressSet))
}

func (l *Loader) load(filePath string, requestedSymbols []string, inProgress progressSet) (*docnode.Asset, error) {
	key := progressKey(filePath, requestedSymbols)
	if inProgress[key] {
		// Step 5's circular-dependency cut: a repeat entry returns an empty
		// stub instead of recursing. Not cached — the next request re-traverses.
		return docnode.NewAsset(filePath), nil
	}
	inProgress[key] = true
	defer delete(inProgress, key)

	graph, err := l.graphs.Build(filePath, exportgraph.InProgress(inProgress))
	if err != nil {
		return nil, err
	}

	names := requestedSymbols
	if names == nil {
		names = graphNames(graph)
	}

	found := docnode.NewSymbolMap()
	symbols := make(map[string]string)
	var unfound []unfoundName

	for _, name := range names {
		entry, ok := graph.Get(name)
		if !ok {
			// Requested export not found in the originating file: silently
			// drop (spec §7).
			continue
		}
		cacheID := docnode.NewNodeID(entry.File, entry.LocalName)
		if entry.Namespace {
			cacheID = docnode.NewNodeID(entry.File, "*")
		}
		if node, ok := l.cache.GetSymbol(cacheID); ok {
			found.Set(name, cloneRenamed(node, name))
			symbols[name] = name
			continue
		}
		unfound = append(unfound, unfoundName{publicName: name, entry: entry, cacheID: cacheID})
	}

	if len(unfound) == 0 {
		return &docnode.Asset{ID: filePath, Exports: found, Links: docnode.NewSymbolMap(), Symbols: symbols}, nil
	}

	linked, err := l.resolveUnfound(filePath, unfound, inProgress)
	if err != nil {
		return nil, err
	}

	for pair := linked.Exports.Oldest(); pair != nil; pair = pair.Next() {
		found.Set(pair.Key, pair.Value)
		symbols[pair.Key] = pair.Key
	}

	return &docnode.Asset{ID: filePath, Exports: found, Links: linked.Links, Symbols: symbols}, nil
}

type unfoundName struct {
	publicName string
	entry      *exportgraph.Entry
	cacheID    docnode.NodeID
}

// resolveUnfound builds the primary file's raw (pre-link) export tree for
// the missing names, gathers the dependency assets the linker needs
// (both the file's own real imports and the cross-file declarations a
// re-export ultimately points at), links, and caches every newly linked
// symbol under its declaration identity (spec §4.9 steps 4-6).
func (l *Loader) resolveUnfound(filePath string, unfound []unfoundName, inProgress progressSet) (*linker.Result, error) {
	rawExports := docnode.NewSymbolMap()
	dependencies := make(map[string]*linker.Asset)

	var local []unfoundName
	var foreign []unfoundName
	for _, u := range unfound {
		if u.entry.File == filePath && !u.entry.Namespace {
			local = append(local, u)
		} else {
			foreign = append(foreign, u)
		}
	}

	var tfm *transform.Transformer
	if len(local) > 0 {
		src, err := l.host.GetSource(filePath)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: read %s: %w", filePath, err)
		}
		pf, err := l.parser.Parse(filePath, []byte(src))
		if err != nil {
			// Parse error: treat file as having no exports for this pass
			// (spec §7); the requested local names simply stay unresolved.
			l.logger.Warn("parse error, file contributes no exports", "file", filePath, "error", err)
			tfm = nil
		} else {
			gathered, err := l.gatherer.Gather(pf)
			if err != nil {
				return nil, fmt.Errorf("orchestrator: gather %s: %w", filePath, err)
			}
			tfm = transform.New(filePath, pf.Source, func(kind string) {
				l.logger.Warn("unknown AST kind in transformer", "file", filePath, "kind", kind)
			})
			tfm.SetScope(typeScopeNodes(gathered))
			tfm.ScanImports(pf.Tree.RootNode())
			for _, u := range local {
				node := u.entry.DeclarationNode
				if node == nil {
					if ts := gathered.Resolve(u.entry.LocalName); ts != nil {
						node = ts.Node
					}
				}
				raw := tfm.Declaration(node, u.entry.LocalName)
				rawExports.Set(u.publicName, cloneRenamed(raw, u.publicName))
			}
		}
	}

	if tfm != nil {
		if err := l.loadRealDependencies(filePath, tfm, dependencies, inProgress); err != nil {
			return nil, err
		}
	}

	for _, u := range foreign {
		node, depAsset, err := l.resolveForeign(u.entry, inProgress)
		if err != nil {
			return nil, err
		}
		rawExports.Set(u.publicName, cloneRenamed(node, u.publicName))
		if depAsset != nil {
			dependencies[u.entry.File] = depAsset
		}
	}

	primary := &linker.Asset{ID: filePath, Exports: rawExports, Links: docnode.NewSymbolMap()}
	result := linker.New(primary, dependencies).Link()

	for _, u := range unfound {
		if node, ok := result.Exports.Get(u.publicName); ok {
			l.cache.PutSymbol(u.cacheID, stripRename(node))
		}
	}

	return result, nil
}

// loadRealDependencies resolves and recursively loads every dependency the
// transformer actually observed while walking the needed local
// declarations (spec §4.9 "the transformer also emits dependency records
// that must each be loaded"), demand-driven: a dependency never referenced
// by the requested declarations never appears in tfm.Dependencies, so it is
// never resolved or loaded (spec §8 "imports {F} from 'foo' but only
// exports unrelated declarations succeeds even if 'foo' is unresolvable").
func (l *Loader) loadRealDependencies(filePath string, tfm *transform.Transformer, dependencies map[string]*linker.Asset, inProgress progressSet) error {
	for specifier, dep := range tfm.Dependencies {
		resolved, err := l.host.Resolve(specifier, filePath)
		if err != nil {
			// A dependency actually reached by a requested declaration that
			// cannot be resolved is a hard failure (spec §7).
			return fmt.Errorf("orchestrator: unresolvable import %q from %s: %w", specifier, filePath, err)
		}

		var subset []string
		full := false
		for _, imp := range dep.Imports {
			if imp.Type == "namespace" {
				full = true
				break
			}
			subset = append(subset, imp.SourceName)
		}

		var requested []string
		if !full {
			requested = subset
		}

		depAsset, err := l.load(resolved, requested, inProgress)
		if err != nil {
			return err
		}
		dependencies[specifier] = &linker.Asset{ID: resolved, Exports: depAsset.Exports, Links: depAsset.Links}
	}
	return nil
}

// resolveForeign handles an unfound name whose originating declaration
// lives in a different file than the one being loaded: either a plain
// cross-file re-export (recursively load the originating file for just
// that symbol and take its already-linked value) or a namespace re-export
// (synthesize an object aggregating every export of the aliased module).
func (l *Loader) resolveForeign(entry *exportgraph.Entry, inProgress progressSet) (*docnode.Node, *linker.Asset, error) {
	if entry.Namespace {
		depAsset, err := l.load(entry.File, nil, inProgress)
		if err != nil {
			return nil, nil, err
		}
		return namespaceObject(entry.File, depAsset), &linker.Asset{ID: entry.File, Exports: depAsset.Exports, Links: depAsset.Links}, nil
	}

	depAsset, err := l.load(entry.File, []string{entry.LocalName}, inProgress)
	if err != nil {
		return nil, nil, err
	}
	node, ok := depAsset.Exports.Get(entry.LocalName)
	if !ok {
		// The originating file could not produce this symbol (cycle stub,
		// or a dangling re-export) — render as an unresolved identifier
		// rather than failing the whole load.
		return &docnode.Node{Kind: docnode.KindIdentifier, Name: entry.LocalName}, nil, nil
	}
	return node, &linker.Asset{ID: entry.File, Exports: depAsset.Exports, Links: depAsset.Links}, nil
}

// namespaceObject builds a synthetic `object` node whose properties are
// every export of the aliased module — the closest documentation-node
// analogue of `import * as ns` / `export * as ns` available in the closed
// node-variant set (spec §3 has no dedicated namespace variant).
func namespaceObject(file string, asset *docnode.Asset) *docnode.Node {
	props := docnode.NewPropertyMap()
	for pair := asset.Exports.Oldest(); pair != nil; pair = pair.Next() {
		props.Set(pair.Key, &docnode.Node{
			Kind:          docnode.KindProperty,
			Name:          pair.Key,
			PropertyValue: pair.Value,
		})
	}
	return &docnode.Node{Kind: docnode.KindObject, Properties: props, ID: docnode.NewNodeID(file, "*")}
}

// typeScopeNodes flattens a gathered file's type-scope table (spec §4.3)
// into the bare name->AST-node map the transformer wires up via SetScope,
// so same-file identifier references resolve to their real declaration
// instead of a bare identifier (spec §4.5, §8 scenarios 4/5).
func typeScopeNodes(gathered *gatherer.Result) map[string]*tsparse.ASTNode {
	scope := make(map[string]*tsparse.ASTNode, len(gathered.TypeScope))
	for name, entry := range gathered.TypeScope {
		scope[name] = entry.Node
	}
	return scope
}

func graphNames(graph *exportgraph.Graph) []string {
	var out []string
	for pair := graph.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// cloneRenamed returns n with Name overridden to publicName, leaving its Id
// (the stable declaration identity) untouched — a consumer-side rename
// never changes where a symbol's id points (spec §8 scenario 2).
func cloneRenamed(n *docnode.Node, publicName string) *docnode.Node {
	if n == nil {
		return nil
	}
	cp := n.Clone()
	cp.Name = publicName
	return cp
}

// stripRename undoes cloneRenamed's display-name override before caching:
// the symbol cache is keyed by declaration identity and must hold the
// declaration's own canonical name, not whatever public alias first warmed
// the cache (a later request under a different alias must not see the
// first caller's name).
func stripRename(n *docnode.Node) *docnode.Node {
	if n == nil || n.ID.Empty() {
		return n
	}
	cp := n.Clone()
	cp.Name = n.ID.Symbol()
	return cp
}
