package transform

import (
	"strings"

	"github.com/tsdocgraph/loader/pkg/docnode"
	"github.com/tsdocgraph/loader/pkg/tsparse"
)

func (t *Transformer) transformInterface(node *tsparse.ASTNode, name string) *docnode.Node {
	n := &docnode.Node{
		Kind: docnode.KindInterface,
		ID:   t.nodeID(name),
		Name: name,
	}
	t.GlobalTypes[name] = &GlobalType{Name: name, Node: node}

	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		n.TypeParameters = t.typeParameterList(tp)
	}
	if ext := node.ChildByFieldName("extends"); ext != nil || node.ChildByFieldName("heritage") != nil {
		clause := ext
		if clause == nil {
			clause = node.ChildByFieldName("heritage")
		}
		n.Extends = t.heritageList(clause)
	}
	body := node.ChildByFieldName("body")
	if body != nil {
		obj := t.transformObjectType(body)
		n.Properties = obj.Properties
	} else {
		n.Properties = docnode.NewPropertyMap()
	}
	return n
}

func (t *Transformer) heritageList(node *tsparse.ASTNode) []*docnode.Node {
	if node == nil {
		return nil
	}
	var out []*docnode.Node
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(uint32(i))
		if child == nil {
			continue
		}
		out = append(out, t.transformTypeExpr(child))
	}
	return out
}

func (t *Transformer) typeParameterList(node *tsparse.ASTNode) []*docnode.Node {
	if node == nil {
		return nil
	}
	var out []*docnode.Node
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(uint32(i))
		if child == nil || child.GrammarName() != "type_parameter" {
			continue
		}
		out = append(out, t.transformTypeParameter(child))
	}
	return out
}

// transformClass is a `class` declaration emitted as an `interface` node per
// spec §4.5: base class appears in Extends; only fields, methods, and
// TS declare-methods are collected (constructors are skipped — they document
// no member of their own).
func (t *Transformer) transformClass(node *tsparse.ASTNode, name string) *docnode.Node {
	n := &docnode.Node{
		Kind:       docnode.KindInterface,
		ID:         t.nodeID(name),
		Name:       name,
		Properties: docnode.NewPropertyMap(),
	}
	t.GlobalTypes[name] = &GlobalType{Name: name, Node: node}

	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		n.TypeParameters = t.typeParameterList(tp)
	}

	if heritage := node.ChildByFieldName("heritage"); heritage != nil {
		count := heritage.NamedChildCount()
		for i := uint(0); i < count; i++ {
			clause := heritage.NamedChild(uint32(i))
			if clause == nil {
				continue
			}
			n.Extends = append(n.Extends, t.heritageList(clause)...)
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return n
	}
	count := body.NamedChildCount()
	for i := uint(0); i < count; i++ {
		member := body.NamedChild(uint32(i))
		if member == nil {
			continue
		}
		switch member.GrammarName() {
		case "constructor_declaration":
			continue
		case "method_definition", "method_signature", "abstract_method_signature":
			prop := t.transformClassMethod(member)
			if prop != nil {
				n.Properties.Set(prop.Name, prop)
			}
		case "public_field_definition":
			prop := t.transformClassField(member)
			if prop != nil {
				n.Properties.Set(prop.Name, prop)
			}
		}
	}
	return n
}

// transformClassMethod handles get/set accessors and ordinary methods per
// spec §4.5: a `get` accessor yields `property` typed by the return, a
// `set` yields `property` typed by the parameter, everything else yields
// `method` with a nested function signature.
func (t *Transformer) transformClassMethod(node *tsparse.ASTNode) *docnode.Node {
	name := t.text(node.ChildByFieldName("name"))
	if name == "" {
		return nil
	}

	kind := ""
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(uint32(i))
		if child == nil {
			continue
		}
		if child.GrammarName() == "get" {
			kind = "get"
		} else if child.GrammarName() == "set" {
			kind = "set"
		}
	}

	switch kind {
	case "get":
		retType := t.unwrapTypeAnnotation(node.ChildByFieldName("return_type"))
		return &docnode.Node{Kind: docnode.KindProperty, Name: name, PropertyValue: t.transformTypeExpr(retType)}
	case "set":
		params := node.ChildByFieldName("parameters")
		var valueType *tsparse.ASTNode
		if params != nil && params.NamedChildCount() > 0 {
			p := params.NamedChild(0)
			valueType = t.unwrapTypeAnnotation(p.ChildByFieldName("type"))
		}
		return &docnode.Node{Kind: docnode.KindProperty, Name: name, PropertyValue: t.transformTypeExpr(valueType)}
	default:
		fn := t.buildFunctionNode(node, "")
		return &docnode.Node{
			Kind:           docnode.KindMethod,
			Name:           name,
			Parameters:     fn.Parameters,
			ReturnType:     fn.ReturnType,
			TypeParameters: fn.TypeParameters,
		}
	}
}

func (t *Transformer) transformClassField(node *tsparse.ASTNode) *docnode.Node {
	name := t.text(node.ChildByFieldName("name"))
	if name == "" {
		return nil
	}
	typeAnn := t.unwrapTypeAnnotation(node.ChildByFieldName("type"))
	optional := node.ChildByFieldName("optional") != nil
	return &docnode.Node{
		Kind:          docnode.KindProperty,
		Name:          name,
		PropertyValue: t.transformTypeExpr(typeAnn),
		Optional:      optional,
	}
}

func (t *Transformer) transformTypeAlias(node *tsparse.ASTNode, name string) *docnode.Node {
	t.GlobalTypes[name] = &GlobalType{Name: name, Node: node}

	n := &docnode.Node{Kind: docnode.KindAlias, ID: t.nodeID(name), Name: name}
	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		n.TypeParameters = t.typeParameterList(tp)
	}
	n.AliasValue = t.transformTypeExpr(node.ChildByFieldName("value"))
	return n
}

func (t *Transformer) transformEnum(node *tsparse.ASTNode, name string) *docnode.Node {
	t.GlobalTypes[name] = &GlobalType{Name: name, Node: node}

	n := &docnode.Node{Kind: docnode.KindEnum, Name: name}
	body := node.ChildByFieldName("body")
	if body == nil {
		return n
	}
	count := body.NamedChildCount()
	for i := uint(0); i < count; i++ {
		member := body.NamedChild(uint32(i))
		if member == nil {
			continue
		}
		var memberName string
		var value *string
		switch member.GrammarName() {
		case "enum_assignment":
			memberName = t.text(member.ChildByFieldName("name"))
			if v := member.ChildByFieldName("value"); v != nil {
				s := strings.Trim(t.text(v), `"'`)
				value = &s
			}
		case "property_identifier":
			memberName = t.text(member)
		default:
			continue
		}
		if memberName == "" {
			continue
		}
		n.Members = append(n.Members, docnode.EnumMember{Name: memberName, Value: value})
	}
	return n
}

func (t *Transformer) transformLexicalDeclaration(node *tsparse.ASTNode, name string) *docnode.Node {
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		decl := node.NamedChild(uint32(i))
		if decl == nil || decl.GrammarName() != "variable_declarator" {
			continue
		}
		declName := t.text(decl.ChildByFieldName("name"))
		if declName == name || name == "" {
			return t.transformVariableDeclarator(decl, declName)
		}
	}
	return &docnode.Node{Kind: docnode.KindAny, Name: name}
}

// transformVariableDeclarator: no initializer produces an empty node (spec
// §4.5, "skipped upstream" by the caller); an object-literal initializer is
// treated as an `interface` node with the synthesized id `file:name`; any
// other initializer is recursed into as an expression/type and, when it is a
// JSX-returning arrow function (bare or wrapped in `forwardRef(...)` /
// `createHideableComponent(...)`), unwrapped the same way a function
// declaration would be.
func (t *Transformer) transformVariableDeclarator(node *tsparse.ASTNode, name string) *docnode.Node {
	value := node.ChildByFieldName("value")
	if value == nil {
		return &docnode.Node{Kind: docnode.KindAny, Name: name}
	}

	switch value.GrammarName() {
	case "object":
		obj := t.transformObjectLiteral(value)
		return &docnode.Node{Kind: docnode.KindInterface, ID: t.nodeID(name), Name: name, Properties: obj}
	case "arrow_function", "function_expression":
		if t.returnsJSX(value) {
			return t.transformComponentFunction(value, name)
		}
		return t.transformFunctionLike(value, name)
	case "call_expression":
		if t.unwrapComponentWrapper(value) != value && t.returnsJSX(value) {
			return t.transformComponentFunction(value, name)
		}
		typeAnn := t.unwrapTypeAnnotation(node.ChildByFieldName("type"))
		if typeAnn != nil {
			return t.transformTypeExpr(typeAnn)
		}
		return &docnode.Node{Kind: docnode.KindAny, Name: name}
	default:
		typeAnn := t.unwrapTypeAnnotation(node.ChildByFieldName("type"))
		if typeAnn != nil {
			return t.transformTypeExpr(typeAnn)
		}
		return &docnode.Node{Kind: docnode.KindAny, Name: name}
	}
}

func (t *Transformer) transformObjectLiteral(node *tsparse.ASTNode) *docnode.PropertyMap {
	props := docnode.NewPropertyMap()
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		pair := node.NamedChild(uint32(i))
		if pair == nil || pair.GrammarName() != "pair" {
			continue
		}
		key := t.text(pair.ChildByFieldName("key"))
		key = strings.Trim(key, `"'`)
		val := pair.ChildByFieldName("value")
		props.Set(key, &docnode.Node{Kind: docnode.KindProperty, Name: key, PropertyValue: t.transformTypeExpr(val)})
	}
	return props
}
