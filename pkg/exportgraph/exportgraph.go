// Package exportgraph is the Export-Graph Resolver (spec §4.4): for a file
// F it returns a mapping publicName -> SourceExport naming every symbol
// exported from F, whether declared in F or reached transitively through
// re-exports and wildcards.
package exportgraph

import (
	"fmt"

	om "github.com/wk8/go-ordered-map/v2"

	"github.com/tsdocgraph/loader/pkg/gatherer"
	"github.com/tsdocgraph/loader/pkg/tsparse"
)

// Entry is one resolved export: where its declaration actually lives.
type Entry struct {
	File            string
	LocalName       string
	DeclarationNode *tsparse.ASTNode
	// Namespace marks a namespace re-export (`export * as ns from "x"`):
	// LocalName is empty and DeclarationNode is nil; File names the module
	// the namespace aliases in full.
	Namespace bool
}

// Graph is publicName -> Entry, insertion-ordered so serialized output keeps
// the declaration order a consumer would expect.
type Graph = om.OrderedMap[string, *Entry]

// Resolve converts a raw module specifier plus the file it appears in to an
// absolute path.
type Resolver interface {
	Resolve(specifier, containingFile string) (string, error)
}

// Source supplies file text for parsing.
type Source interface {
	GetSource(path string) (string, error)
}

// InProgress is the caller's per-task cycle-cutting set (spec §4.9): the
// orchestrator owns it and passes it through so a cycle yields an empty,
// temporary graph for the re-entered file rather than recursing forever.
type InProgress map[string]bool

// Builder builds export graphs, caching one per file path.
type Builder struct {
	parser   *tsparse.Manager
	gatherer *gatherer.Gatherer
	resolver Resolver
	source   Source

	cache map[string]*Graph
}

// New creates a Builder. parser and gatherer are the facade/gatherer this
// builder parses and classifies files with; resolver and source are the
// host-provided module resolution and file-content hooks (spec §6).
func New(parser *tsparse.Manager, g *gatherer.Gatherer, resolver Resolver, source Source) *Builder {
	return &Builder{
		parser:   parser,
		gatherer: g,
		resolver: resolver,
		source:   source,
		cache:    make(map[string]*Graph),
	}
}

// Invalidate drops the cached graph for path (spec §4.8).
func (b *Builder) Invalidate(path string) {
	delete(b.cache, path)
}

// Build returns the export graph for file, building and caching it (and
// everything it transitively pulls in) if not already cached. inProgress is
// shared with the top-level load task; a file already in inProgress yields
// an empty graph instead of recursing (step 6 of §4.4, cycle handling).
func (b *Builder) Build(file string, inProgress InProgress) (*Graph, error) {
	if g, ok := b.cache[file]; ok {
		return g, nil
	}

	if inProgress[file] {
		return om.New[string, *Entry](), nil
	}
	inProgress[file] = true
	defer delete(inProgress, file)

	src, err := b.source.GetSource(file)
	if err != nil {
		return nil, fmt.Errorf("exportgraph: failed to read %s: %w", file, err)
	}

	pf, err := b.parser.Parse(file, []byte(src))
	if err != nil {
		return nil, fmt.Errorf("exportgraph: failed to parse %s: %w", file, err)
	}

	gathered, err := b.gatherer.Gather(pf)
	if err != nil {
		return nil, fmt.Errorf("exportgraph: failed to gather exports for %s: %w", file, err)
	}

	graph := om.New[string, *Entry]()

	// Step 3: seed with F's own source exports, including namespace
	// re-exports, which point back at F with the namespace marker.
	for _, se := range gathered.Source {
		if se.Namespace {
			graph.Set(se.PublicName, &Entry{File: file, Namespace: true})
			continue
		}
		localName := se.LocalName
		if localName == "" {
			localName = se.PublicName
		}
		graph.Set(se.PublicName, &Entry{File: file, LocalName: localName, DeclarationNode: se.DeclarationNode})
	}

	// Step 4: external re-exports, one resolved-and-followed lookup each.
	// Missing targets are skipped silently — must not abort the whole load.
	for _, ext := range gathered.External {
		sourceFile, err := b.resolver.Resolve(ext.SourceFile, file)
		if err != nil {
			continue
		}
		depGraph, err := b.Build(sourceFile, inProgress)
		if err != nil {
			continue
		}
		if entry, ok := depGraph.Get(ext.SourceName); ok {
			graph.Set(ext.ExportName, entry)
		}
	}

	// Step 5: wildcard exports merge every entry from the target without
	// overwriting names already present; a same-file renamed re-export
	// processed above (step 4) does overwrite, which the ordering here
	// already guarantees since step 4 ran first.
	for _, wc := range gathered.Wildcards {
		sourceFile, err := b.resolver.Resolve(wc.SourceFile, file)
		if err != nil {
			continue
		}
		depGraph, err := b.Build(sourceFile, inProgress)
		if err != nil {
			continue
		}
		for pair := depGraph.Oldest(); pair != nil; pair = pair.Next() {
			if _, exists := graph.Get(pair.Key); !exists {
				graph.Set(pair.Key, pair.Value)
			}
		}
	}

	b.cache[file] = graph
	return graph, nil
}
