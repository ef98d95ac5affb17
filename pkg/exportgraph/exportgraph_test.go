package exportgraph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsdocgraph/loader/pkg/gatherer"
	"github.com/tsdocgraph/loader/pkg/tsparse"
)

type fakeSource map[string]string

func (f fakeSource) GetSource(path string) (string, error) {
	src, ok := f[path]
	if !ok {
		return "", fmt.Errorf("no source for %s", path)
	}
	return src, nil
}

type fakeResolver struct{ base map[string]string }

func (r fakeResolver) Resolve(specifier, containingFile string) (string, error) {
	if p, ok := r.base[specifier]; ok {
		return p, nil
	}
	return "", fmt.Errorf("cannot resolve %s", specifier)
}

func newBuilder(t *testing.T, files map[string]string, resolve map[string]string) *Builder {
	t.Helper()
	m, err := tsparse.NewManager(tsparse.DefaultConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(m.Close)

	return New(m, gatherer.New(m), fakeResolver{base: resolve}, fakeSource(files))
}

func TestBuilder_FollowsRenamedReExport(t *testing.T) {
	b := newBuilder(t, map[string]string{
		"/src/foo.ts":   `export interface Foo {}`,
		"/src/index.ts": `export { Foo as Bar } from "./foo"`,
	}, map[string]string{"./foo": "/src/foo.ts"})

	graph, err := b.Build("/src/index.ts", InProgress{})
	require.NoError(t, err)

	entry, ok := graph.Get("Bar")
	require.True(t, ok)
	require.Equal(t, "/src/foo.ts", entry.File)
	require.Equal(t, "Foo", entry.LocalName)
}

func TestBuilder_WildcardDoesNotOverwriteExisting(t *testing.T) {
	b := newBuilder(t, map[string]string{
		"/src/foo.ts":   `export interface Foo {}`,
		"/src/index.ts": `export { Foo as Bar } from "./foo"; export * from "./foo"`,
	}, map[string]string{"./foo": "/src/foo.ts"})

	graph, err := b.Build("/src/index.ts", InProgress{})
	require.NoError(t, err)

	bar, ok := graph.Get("Bar")
	require.True(t, ok)
	require.Equal(t, "Foo", bar.LocalName)

	foo, ok := graph.Get("Foo")
	require.True(t, ok)
	require.Equal(t, "/src/foo.ts", foo.File)
}

func TestBuilder_MissingReExportTargetSkippedSilently(t *testing.T) {
	b := newBuilder(t, map[string]string{
		"/src/index.ts": `export { Missing } from "./gone"`,
	}, map[string]string{})

	graph, err := b.Build("/src/index.ts", InProgress{})
	require.NoError(t, err)
	require.Equal(t, 0, graph.Len())
}

func TestBuilder_CycleYieldsEmptyGraphForReenteredFile(t *testing.T) {
	b := newBuilder(t, map[string]string{
		"/src/a.ts": `export * from "./b"`,
		"/src/b.ts": `export * from "./a"`,
	}, map[string]string{"./a": "/src/a.ts", "./b": "/src/b.ts"})

	graph, err := b.Build("/src/a.ts", InProgress{})
	require.NoError(t, err)
	require.Equal(t, 0, graph.Len())
}
