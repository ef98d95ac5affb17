package linker

import (
	"testing"

	"github.com/stretchr/testify/require"
	om "github.com/wk8/go-ordered-map/v2"

	"github.com/tsdocgraph/loader/pkg/docnode"
)

func asset(exports map[string]*docnode.Node) *Asset {
	m := om.New[string, *docnode.Node]()
	for k, v := range exports {
		m.Set(k, v)
	}
	return &Asset{Exports: m, Links: om.New[string, *docnode.Node]()}
}

func TestLinker_ResolvesReferenceAcrossDependency(t *testing.T) {
	target := &docnode.Node{Kind: docnode.KindInterface, ID: "b.ts:Foo", Name: "Foo", Properties: docnode.NewPropertyMap()}
	dep := asset(map[string]*docnode.Node{"Foo": target})

	ref := &docnode.Node{Kind: docnode.KindReference, Specifier: "./b", Imported: "Foo", Local: "Foo"}
	primary := asset(map[string]*docnode.Node{"Bar": ref})

	l := New(primary, map[string]*Asset{"./b": dep})
	result := l.Link()

	n, ok := result.Exports.Get("Bar")
	require.True(t, ok)
	require.Equal(t, docnode.KindInterface, n.Kind)
	require.Equal(t, "Foo", n.Name)
}

func TestLinker_UnresolvedReferenceBecomesIdentifier(t *testing.T) {
	ref := &docnode.Node{Kind: docnode.KindReference, Specifier: "./missing", Imported: "Foo", Local: "Foo"}
	primary := asset(map[string]*docnode.Node{"Bar": ref})

	l := New(primary, map[string]*Asset{})
	result := l.Link()

	n, ok := result.Exports.Get("Bar")
	require.True(t, ok)
	require.Equal(t, docnode.KindIdentifier, n.Kind)
	require.Equal(t, "Foo", n.Name)
}

func TestLinker_MergesInterfaceExtensionsMostDerivedWins(t *testing.T) {
	baseProps := docnode.NewPropertyMap()
	baseProps.Set("id", &docnode.Node{Kind: docnode.KindProperty, Name: "id", PropertyValue: &docnode.Node{Kind: docnode.KindString}})
	baseProps.Set("label", &docnode.Node{Kind: docnode.KindProperty, Name: "label", PropertyValue: &docnode.Node{Kind: docnode.KindString}})
	base := &docnode.Node{Kind: docnode.KindInterface, ID: "a.ts:Base", Name: "Base", Properties: baseProps}

	derivedProps := docnode.NewPropertyMap()
	derivedProps.Set("label", &docnode.Node{Kind: docnode.KindProperty, Name: "label", PropertyValue: &docnode.Node{Kind: docnode.KindNumber}})
	derived := &docnode.Node{Kind: docnode.KindInterface, ID: "a.ts:Derived", Name: "Derived", Properties: derivedProps, Extends: []*docnode.Node{base}}

	primary := asset(map[string]*docnode.Node{"Derived": derived})
	l := New(primary, map[string]*Asset{})
	result := l.Link()

	n, ok := result.Exports.Get("Derived")
	require.True(t, ok)
	require.Equal(t, docnode.KindInterface, n.Kind)

	id, ok := n.Properties.Get("id")
	require.True(t, ok)
	require.Equal(t, docnode.NodeID("a.ts:Base"), id.InheritedFrom)

	label, ok := n.Properties.Get("label")
	require.True(t, ok)
	require.Equal(t, docnode.KindNumber, label.PropertyValue.Kind)
	require.Equal(t, docnode.NodeID(""), label.InheritedFrom)
}

func TestLinker_NonRootInterfaceBecomesLinkAndIsCollected(t *testing.T) {
	inner := &docnode.Node{Kind: docnode.KindInterface, ID: "a.ts:Inner", Name: "Inner", Properties: docnode.NewPropertyMap()}
	outer := &docnode.Node{
		Kind:       docnode.KindInterface,
		ID:         "a.ts:Outer",
		Name:       "Outer",
		Properties: propsOf("nested", &docnode.Node{Kind: docnode.KindProperty, Name: "nested", PropertyValue: inner}),
	}

	primary := asset(map[string]*docnode.Node{"Outer": outer})
	l := New(primary, map[string]*Asset{})
	result := l.Link()

	n, _ := result.Exports.Get("Outer")
	nested, ok := n.Properties.Get("nested")
	require.True(t, ok)
	require.Equal(t, docnode.KindLink, nested.PropertyValue.Kind)
	require.Equal(t, docnode.NodeID("a.ts:Inner"), nested.PropertyValue.LinkID)

	_, ok = result.Links.Get("a.ts:Inner")
	require.True(t, ok)
}

func TestLinker_OmitRemovesListedKeys(t *testing.T) {
	props := docnode.NewPropertyMap()
	props.Set("id", &docnode.Node{Kind: docnode.KindProperty, Name: "id"})
	props.Set("secret", &docnode.Node{Kind: docnode.KindProperty, Name: "secret"})
	iface := &docnode.Node{Kind: docnode.KindInterface, ID: "a.ts:Full", Name: "Full", Properties: props}

	secretLiteral := "secret"
	application := &docnode.Node{
		Kind:           docnode.KindApplication,
		Base:           &docnode.Node{Kind: docnode.KindIdentifier, Name: "Omit"},
		TypeParameters: []*docnode.Node{iface, {Kind: docnode.KindString, Value: &secretLiteral}},
	}

	primary := asset(map[string]*docnode.Node{"Public": application})
	l := New(primary, map[string]*Asset{})
	result := l.Link()

	n, ok := result.Exports.Get("Public")
	require.True(t, ok)
	require.Equal(t, docnode.KindInterface, n.Kind)
	_, hasSecret := n.Properties.Get("secret")
	require.False(t, hasSecret)
	_, hasID := n.Properties.Get("id")
	require.True(t, hasID)
}

func TestLinker_KeyofInterfaceYieldsUnionOfKeys(t *testing.T) {
	props := docnode.NewPropertyMap()
	props.Set("a", &docnode.Node{Kind: docnode.KindProperty, Name: "a"})
	props.Set("b", &docnode.Node{Kind: docnode.KindProperty, Name: "b"})
	iface := &docnode.Node{Kind: docnode.KindInterface, ID: "a.ts:Keys", Name: "Keys", Properties: props}

	keyof := &docnode.Node{Kind: docnode.KindTypeOp, Operator: docnode.OpKeyof, OperandOf: iface}
	primary := asset(map[string]*docnode.Node{"K": keyof})

	l := New(primary, map[string]*Asset{})
	result := l.Link()

	n, ok := result.Exports.Get("K")
	require.True(t, ok)
	require.Equal(t, docnode.KindUnion, n.Kind)
	require.Len(t, n.Elements, 2)
	require.Equal(t, "a", *n.Elements[0].Value)
	require.Equal(t, "b", *n.Elements[1].Value)
}

func propsOf(name string, n *docnode.Node) *docnode.PropertyMap {
	m := docnode.NewPropertyMap()
	m.Set(name, n)
	return m
}
