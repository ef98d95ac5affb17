package gatherer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsdocgraph/loader/pkg/tsparse"
)

func mustParse(t *testing.T, path, src string) (*tsparse.Manager, *tsparse.ParsedFile) {
	t.Helper()
	m, err := tsparse.NewManager(tsparse.DefaultConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(m.Close)

	pf, err := m.Parse(path, []byte(src))
	require.NoError(t, err)
	return m, pf
}

func TestGatherer_ClassifiesSourceExport(t *testing.T) {
	m, pf := mustParse(t, "/src/a.ts", `export interface Foo { bar: string }`)
	res, err := New(m).Gather(pf)
	require.NoError(t, err)
	require.Len(t, res.Source, 1)
	require.Equal(t, "Foo", res.Source[0].PublicName)
}

func TestGatherer_ClassifiesExternalReExportWithRename(t *testing.T) {
	m, pf := mustParse(t, "/src/index.ts", `export { Foo as Bar } from "./foo"`)
	res, err := New(m).Gather(pf)
	require.NoError(t, err)
	require.Len(t, res.External, 1)
	require.Equal(t, "Bar", res.External[0].ExportName)
	require.Equal(t, "Foo", res.External[0].SourceName)
	require.Equal(t, "./foo", res.External[0].SourceFile)
}

func TestGatherer_ClassifiesWildcardExport(t *testing.T) {
	m, pf := mustParse(t, "/src/index.ts", `export * from "./foo"`)
	res, err := New(m).Gather(pf)
	require.NoError(t, err)
	require.Len(t, res.Wildcards, 1)
	require.Equal(t, "./foo", res.Wildcards[0].SourceFile)
}

func TestGatherer_BuildsTypeScopeTable(t *testing.T) {
	m, pf := mustParse(t, "/src/a.ts", `type Foo = string; interface Bar {}`)
	res, err := New(m).Gather(pf)
	require.NoError(t, err)
	require.NotNil(t, res.Resolve("Foo"))
	require.NotNil(t, res.Resolve("Bar"))
	require.Nil(t, res.Resolve("Missing"))
}

func TestGatherer_DefaultExportProducesNoEntries(t *testing.T) {
	m, pf := mustParse(t, "/src/a.ts", `export default function Foo() {}`)
	res, err := New(m).Gather(pf)
	require.NoError(t, err)
	require.Empty(t, res.Source)
	require.Empty(t, res.External)
}
