package tsparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManager_Parse_CachesByPath(t *testing.T) {
	m, err := NewManager(DefaultConfig(), nil)
	require.NoError(t, err)
	defer m.Close()

	src := []byte("export interface Foo { bar: string }")
	pf1, err := m.Parse("/src/a.ts", src)
	require.NoError(t, err)
	require.False(t, pf1.HasError)
	require.Equal(t, VariantTypeScript, pf1.Variant)

	pf2, err := m.Parse("/src/a.ts", src)
	require.NoError(t, err)
	require.Same(t, pf1, pf2)
}

func TestManager_Parse_DetectsTSX(t *testing.T) {
	m, err := NewManager(DefaultConfig(), nil)
	require.NoError(t, err)
	defer m.Close()

	pf, err := m.Parse("/src/widget.tsx", []byte("export const Widget = () => <div />"))
	require.NoError(t, err)
	require.Equal(t, VariantTSX, pf.Variant)
}

func TestManager_Parse_MarksAmbientDeclarationFiles(t *testing.T) {
	m, err := NewManager(DefaultConfig(), nil)
	require.NoError(t, err)
	defer m.Close()

	pf, err := m.Parse("/src/globals.d.ts", []byte("declare const x: number"))
	require.NoError(t, err)
	require.True(t, pf.Ambient)
}

func TestManager_Invalidate_ForcesReparse(t *testing.T) {
	m, err := NewManager(DefaultConfig(), nil)
	require.NoError(t, err)
	defer m.Close()

	src := []byte("export type A = string")
	pf1, err := m.Parse("/src/a.ts", src)
	require.NoError(t, err)

	m.Invalidate("/src/a.ts")

	pf2, err := m.Parse("/src/a.ts", src)
	require.NoError(t, err)
	require.NotSame(t, pf1, pf2)
}

func TestManager_Query_CompilesAndCachesQuery(t *testing.T) {
	m, err := NewManager(DefaultConfig(), nil)
	require.NoError(t, err)
	defer m.Close()

	pf, err := m.Parse("/src/a.ts", []byte("export interface Foo {}"))
	require.NoError(t, err)

	q1, err := m.Query(pf, QuerySymbols)
	require.NoError(t, err)
	require.NotNil(t, q1)

	q2, err := m.Query(pf, QuerySymbols)
	require.NoError(t, err)
	require.Same(t, q1, q2)
}
