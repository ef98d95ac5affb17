package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsdocgraph/loader/pkg/docnode"
	"github.com/tsdocgraph/loader/pkg/tsparse"
)

func parseDecl(t *testing.T, src, declName string) (*tsparse.ASTNode, []byte) {
	t.Helper()
	m, err := tsparse.NewManager(tsparse.DefaultConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(m.Close)

	pf, err := m.Parse("/src/a.ts", []byte(src))
	require.NoError(t, err)

	root := pf.Tree.RootNode()
	var found *tsparse.ASTNode
	var walk func(n *tsparse.ASTNode)
	walk = func(n *tsparse.ASTNode) {
		if found != nil || n == nil {
			return
		}
		if name := n.ChildByFieldName("name"); name != nil && name.Utf8Text(pf.Source) == declName {
			found = n
			return
		}
		count := n.NamedChildCount()
		for i := uint(0); i < count; i++ {
			walk(n.NamedChild(uint32(i)))
		}
	}
	walk(root)
	require.NotNil(t, found, "declaration %q not found", declName)
	return found, pf.Source
}

func TestTransformer_InterfaceProperties(t *testing.T) {
	node, src := parseDecl(t, `interface Foo { bar: string; baz?: number }`, "Foo")
	tr := New("/src/a.ts", src, nil)
	n := tr.Declaration(node, "Foo")

	require.Equal(t, docnode.KindInterface, n.Kind)
	bar, ok := n.Properties.Get("bar")
	require.True(t, ok)
	require.Equal(t, docnode.KindString, bar.PropertyValue.Kind)

	baz, ok := n.Properties.Get("baz")
	require.True(t, ok)
	require.True(t, baz.Optional)
}

func TestTransformer_TypeAliasToApplication(t *testing.T) {
	node, src := parseDecl(t, `type Foo = Array<string>;`, "Foo")
	tr := New("/src/a.ts", src, nil)
	n := tr.Declaration(node, "Foo")

	require.Equal(t, docnode.KindAlias, n.Kind)
	require.Equal(t, docnode.KindApplication, n.AliasValue.Kind)
}

func TestTransformer_FunctionReturningJSXIsComponent(t *testing.T) {
	node, src := parseDecl(t, `function Widget(props: Props) { return <div/> }`, "Widget")
	tr := New("/src/a.ts", src, nil)
	n := tr.Declaration(node, "Widget")

	require.Equal(t, docnode.KindComponent, n.Kind)
	require.NotNil(t, n.Props)
}

func TestTransformer_PlainFunctionStaysFunction(t *testing.T) {
	node, src := parseDecl(t, `function add(a: number, b: number): number { return a + b }`, "add")
	tr := New("/src/a.ts", src, nil)
	n := tr.Declaration(node, "add")

	require.Equal(t, docnode.KindFunction, n.Kind)
	require.Len(t, n.Parameters, 2)
	require.Equal(t, docnode.KindNumber, n.ReturnType.Kind)
}

func TestTransformer_JSDocDescriptionAndAccess(t *testing.T) {
	node, src := parseDecl(t, "/**\n * Does a thing.\n * @private\n */\ninterface Foo {}", "Foo")
	tr := New("/src/a.ts", src, nil)
	n := tr.Declaration(node, "Foo")

	require.Equal(t, "Does a thing.", n.Description)
	require.Equal(t, docnode.AccessPrivate, n.Access)
}

func TestTransformer_EnumMembers(t *testing.T) {
	node, src := parseDecl(t, `enum Color { Red = "red", Blue = "blue" }`, "Color")
	tr := New("/src/a.ts", src, nil)
	n := tr.Declaration(node, "Color")

	require.Equal(t, docnode.KindEnum, n.Kind)
	require.Len(t, n.Members, 2)
	require.Equal(t, "Red", n.Members[0].Name)
	require.Equal(t, "red", *n.Members[0].Value)
}

// parseFile parses src and returns its root node alongside the source bytes,
// for tests that need to scan imports before walking a declaration.
func parseFile(t *testing.T, src string) (*tsparse.ASTNode, []byte) {
	t.Helper()
	m, err := tsparse.NewManager(tsparse.DefaultConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(m.Close)

	pf, err := m.Parse("/src/a.ts", []byte(src))
	require.NoError(t, err)
	return pf.Tree.RootNode(), pf.Source
}

func findNamedDecl(root *tsparse.ASTNode, src []byte, declName string) *tsparse.ASTNode {
	var found *tsparse.ASTNode
	var walk func(n *tsparse.ASTNode)
	walk = func(n *tsparse.ASTNode) {
		if found != nil || n == nil {
			return
		}
		if name := n.ChildByFieldName("name"); name != nil && name.Utf8Text(src) == declName {
			found = n
			return
		}
		count := n.NamedChildCount()
		for i := uint(0); i < count; i++ {
			walk(n.NamedChild(uint32(i)))
		}
	}
	walk(root)
	return found
}

func TestTransformer_ImportedIdentifierBecomesReference(t *testing.T) {
	src := `import { Base } from "./base"
type Used = Base`
	root, source := parseFile(t, src)
	decl := findNamedDecl(root, source, "Used")
	require.NotNil(t, decl)

	tr := New("/src/a.ts", source, nil)
	tr.ScanImports(root)
	require.Empty(t, tr.Dependencies, "scanning imports alone must not register a dependency")

	n := tr.Declaration(decl, "Used")
	require.Equal(t, docnode.KindAlias, n.Kind)
	require.Equal(t, docnode.KindReference, n.AliasValue.Kind)
	require.Equal(t, "./base", n.AliasValue.Specifier)
	require.Equal(t, "Base", n.AliasValue.Imported)

	dep, ok := tr.Dependencies["./base"]
	require.True(t, ok, "walking a declaration that reaches an imported identifier must register its dependency")
	require.Len(t, dep.Imports, 1)
	require.Equal(t, "Base", dep.Imports[0].SourceName)
}

func TestTransformer_UnreferencedImportNeverBecomesDependency(t *testing.T) {
	src := `import { Unused } from "./does-not-matter"
interface Used { bar: string }`
	root, source := parseFile(t, src)
	decl := findNamedDecl(root, source, "Used")
	require.NotNil(t, decl)

	tr := New("/src/a.ts", source, nil)
	tr.ScanImports(root)
	n := tr.Declaration(decl, "Used")

	require.Equal(t, docnode.KindInterface, n.Kind)
	require.Empty(t, tr.Dependencies, "an import never reached by a requested declaration must stay unregistered")
}

func TestTransformer_RenamedImportKeepsOriginalSourceName(t *testing.T) {
	src := `import { Base as Renamed } from "./base"
type Used = Renamed`
	root, source := parseFile(t, src)
	decl := findNamedDecl(root, source, "Used")
	require.NotNil(t, decl)

	tr := New("/src/a.ts", source, nil)
	tr.ScanImports(root)
	n := tr.Declaration(decl, "Used")

	require.Equal(t, docnode.KindReference, n.AliasValue.Kind)
	require.Equal(t, "Base", n.AliasValue.Imported)
	require.Equal(t, "Renamed", n.AliasValue.Local)
}
