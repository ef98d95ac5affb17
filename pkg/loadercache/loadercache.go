// Package loadercache is the Loader Cache (spec §4.8): three maps keyed by
// absolute file path (parsed AST, per-file export map) or by NodeId (linked
// symbol), with invalidation scoped to exactly one file's declarations.
package loadercache

import (
	"sync"

	"github.com/tsdocgraph/loader/pkg/docnode"
	"github.com/tsdocgraph/loader/pkg/exportgraph"
	"github.com/tsdocgraph/loader/pkg/tsparse"
)

// Cache holds the three loader-level caches described in spec §4.8. The AST
// cache itself lives in tsparse.Manager (constructor-scoped, LRU-bounded);
// this type owns the two caches specific to the loader pipeline: per-file
// export graphs and per-symbol linked nodes.
type Cache struct {
	mu sync.RWMutex

	exportGraphs map[string]*exportgraph.Graph
	symbols      map[docnode.NodeID]*docnode.Node

	parser *tsparse.Manager
}

// New creates an empty loader cache backed by parser for AST invalidation.
func New(parser *tsparse.Manager) *Cache {
	return &Cache{
		exportGraphs: make(map[string]*exportgraph.Graph),
		symbols:      make(map[docnode.NodeID]*docnode.Node),
		parser:       parser,
	}
}

// GetExportGraph returns the cached export graph for file, if present.
func (c *Cache) GetExportGraph(file string) (*exportgraph.Graph, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.exportGraphs[file]
	return g, ok
}

// PutExportGraph caches the export graph resolved for file.
func (c *Cache) PutExportGraph(file string, graph *exportgraph.Graph) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exportGraphs[file] = graph
}

// GetSymbol returns the cached linked node for id, if present.
func (c *Cache) GetSymbol(id docnode.NodeID) (*docnode.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.symbols[id]
	return n, ok
}

// PutSymbol caches the linked node for id.
func (c *Cache) PutSymbol(id docnode.NodeID, n *docnode.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.symbols[id] = n
}

// Invalidate evicts file's AST (via the parser facade), its export-graph
// entry, and every symbol cache entry whose NodeId belongs to file.
// Re-exports living in other files survive — their declaration node has
// not changed, only file's has (spec §4.8).
func (c *Cache) Invalidate(file string) {
	if c.parser != nil {
		c.parser.Invalidate(file)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.exportGraphs, file)
	for id := range c.symbols {
		if id.File() == file {
			delete(c.symbols, id)
		}
	}
}

// Stats reports current occupancy for observability.
type Stats struct {
	ExportGraphs int
	Symbols      int
}

// Stats returns current cache sizes.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{ExportGraphs: len(c.exportGraphs), Symbols: len(c.symbols)}
}
