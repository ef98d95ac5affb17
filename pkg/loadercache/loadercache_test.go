package loadercache

import (
	"testing"

	om "github.com/wk8/go-ordered-map/v2"

	"github.com/stretchr/testify/require"

	"github.com/tsdocgraph/loader/pkg/docnode"
	"github.com/tsdocgraph/loader/pkg/exportgraph"
	"github.com/tsdocgraph/loader/pkg/tsparse"
)

func newCache(t *testing.T) *Cache {
	t.Helper()
	m, err := tsparse.NewManager(tsparse.DefaultConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return New(m)
}

func TestCache_SymbolRoundTrip(t *testing.T) {
	c := newCache(t)
	id := docnode.NewNodeID("/src/foo.ts", "Foo")

	_, ok := c.GetSymbol(id)
	require.False(t, ok)

	c.PutSymbol(id, &docnode.Node{Kind: docnode.KindInterface, Name: "Foo", ID: id})

	n, ok := c.GetSymbol(id)
	require.True(t, ok)
	require.Equal(t, "Foo", n.Name)
}

func TestCache_ExportGraphRoundTrip(t *testing.T) {
	c := newCache(t)

	_, ok := c.GetExportGraph("/src/foo.ts")
	require.False(t, ok)

	graph := om.New[string, *exportgraph.Entry]()
	graph.Set("Foo", &exportgraph.Entry{File: "/src/foo.ts", LocalName: "Foo"})
	c.PutExportGraph("/src/foo.ts", graph)

	got, ok := c.GetExportGraph("/src/foo.ts")
	require.True(t, ok)
	require.Equal(t, 1, got.Len())
}

func TestCache_InvalidateDropsExportGraphAndOwnedSymbolsOnly(t *testing.T) {
	c := newCache(t)

	graph := om.New[string, *exportgraph.Entry]()
	c.PutExportGraph("/src/foo.ts", graph)

	fooID := docnode.NewNodeID("/src/foo.ts", "Foo")
	barID := docnode.NewNodeID("/src/bar.ts", "Bar")
	c.PutSymbol(fooID, &docnode.Node{Kind: docnode.KindInterface, Name: "Foo"})
	c.PutSymbol(barID, &docnode.Node{Kind: docnode.KindInterface, Name: "Bar"})

	c.Invalidate("/src/foo.ts")

	_, ok := c.GetExportGraph("/src/foo.ts")
	require.False(t, ok)

	_, ok = c.GetSymbol(fooID)
	require.False(t, ok)

	_, ok = c.GetSymbol(barID)
	require.True(t, ok, "symbols owned by an unrelated file must survive invalidation")
}

func TestCache_StatsReflectsOccupancy(t *testing.T) {
	c := newCache(t)
	c.PutSymbol(docnode.NewNodeID("/src/foo.ts", "Foo"), &docnode.Node{Kind: docnode.KindInterface})
	c.PutExportGraph("/src/foo.ts", om.New[string, *exportgraph.Entry]())

	stats := c.Stats()
	require.Equal(t, 1, stats.ExportGraphs)
	require.Equal(t, 1, stats.Symbols)
}
