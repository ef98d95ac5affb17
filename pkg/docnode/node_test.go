package docnode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeID_Roundtrip(t *testing.T) {
	id := NewNodeID("/src/a.ts", "Foo")
	assert.Equal(t, NodeID("/src/a.ts:Foo"), id)
	assert.Equal(t, "/src/a.ts", id.File())
	assert.Equal(t, "Foo", id.Symbol())
}

func TestPropertyMap_PreservesInsertionOrder(t *testing.T) {
	props := NewPropertyMap()
	props.Set("c", &Node{Kind: KindProperty, Name: "c"})
	props.Set("a", &Node{Kind: KindProperty, Name: "a"})
	props.Set("b", &Node{Kind: KindProperty, Name: "b"})

	var order []string
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		order = append(order, pair.Key)
	}
	assert.Equal(t, []string{"c", "a", "b"}, order)
}

func TestNode_Clone_DeepCopiesParams(t *testing.T) {
	n := &Node{Kind: KindFunction, Params: map[string]string{"x": "first"}}
	cp := n.Clone()
	cp.Params["x"] = "second"
	assert.Equal(t, "first", n.Params["x"])
	assert.Equal(t, "second", cp.Params["x"])
}

func TestAsset_ExportsSerializePreservingOrder(t *testing.T) {
	a := NewAsset("/src/index.ts")
	a.Exports.Set("Foo", &Node{Kind: KindInterface, Name: "Foo"})
	a.Exports.Set("Bar", &Node{Kind: KindAlias, Name: "Bar"})

	data, err := json.Marshal(a.Exports)
	require.NoError(t, err)
	assert.Equal(t, `{"Foo":{"type":"interface","name":"Foo"},"Bar":{"type":"alias","name":"Bar"}}`, string(data))
}

func TestKind_IsLinkable(t *testing.T) {
	assert.True(t, KindInterface.IsLinkable())
	assert.True(t, KindAlias.IsLinkable())
	assert.False(t, KindFunction.IsLinkable())
}
