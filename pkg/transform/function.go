package transform

import (
	"github.com/tsdocgraph/loader/pkg/docnode"
	"github.com/tsdocgraph/loader/pkg/tsparse"
)

// transformFunctionDeclaration handles a top-level `function` declaration.
// Functions that return JSX — directly, via React.cloneElement, via
// react-dom's createPortal, or through an explicit `: JSX.Element` return
// type — are emitted as `component` nodes per spec §4.5; everything else
// yields a plain `function` node. `forwardRef(...)` and
// `createHideableComponent(...)` wrappers are unwrapped transparently
// before this check runs, since a variable declarator initializer is the
// usual shape those wrappers appear in (handled in transformVariableDeclarator
// and here for `function`-declaration-shaped exports assigned that way).
func (t *Transformer) transformFunctionDeclaration(node *tsparse.ASTNode, name string) *docnode.Node {
	if t.returnsJSX(node) {
		return t.transformComponentFunction(node, name)
	}
	return t.transformFunctionLike(node, name)
}

func (t *Transformer) transformFunctionLike(node *tsparse.ASTNode, name string) *docnode.Node {
	fn := t.buildFunctionNode(node, name)
	fn.Kind = docnode.KindFunction
	fn.ID = t.nodeID(name)
	fn.Name = name
	return fn
}

// transformComponentFunction emits a `component` node with props/ref taken
// from the first and second parameters' type annotations (spec §4.5).
func (t *Transformer) transformComponentFunction(node *tsparse.ASTNode, name string) *docnode.Node {
	unwrapped := t.unwrapComponentWrapper(node)
	params := unwrapped.ChildByFieldName("parameters")

	n := &docnode.Node{Kind: docnode.KindComponent, ID: t.nodeID(name), Name: name}
	if tp := unwrapped.ChildByFieldName("type_parameters"); tp != nil {
		n.TypeParameters = t.typeParameterList(tp)
	}
	if params != nil {
		if p0 := params.NamedChild(0); p0 != nil {
			n.Props = t.transformTypeExpr(t.unwrapTypeAnnotation(p0.ChildByFieldName("type")))
		}
		if p1 := params.NamedChild(1); p1 != nil {
			n.Ref = t.transformTypeExpr(t.unwrapTypeAnnotation(p1.ChildByFieldName("type")))
		}
	}
	return n
}

// unwrapComponentWrapper follows `forwardRef(fn)` / `createHideableComponent(fn)`
// call expressions down to the inner function literal, per spec §4.5.
func (t *Transformer) unwrapComponentWrapper(node *tsparse.ASTNode) *tsparse.ASTNode {
	if node.GrammarName() != "call_expression" {
		return node
	}
	callee := node.ChildByFieldName("function")
	if callee == nil {
		return node
	}
	switch t.text(callee) {
	case "forwardRef", "React.forwardRef", "createHideableComponent":
		args := node.ChildByFieldName("arguments")
		if args != nil {
			if inner := args.NamedChild(0); inner != nil {
				return t.unwrapComponentWrapper(inner)
			}
		}
	}
	return node
}

// returnsJSX reports whether fn (a function/arrow/method AST node) returns
// JSX directly, via React.cloneElement/createPortal, or declares an explicit
// `: JSX.Element` return type.
func (t *Transformer) returnsJSX(fn *tsparse.ASTNode) bool {
	unwrapped := t.unwrapComponentWrapper(fn)

	if rt := unwrapped.ChildByFieldName("return_type"); rt != nil {
		if inner := t.unwrapTypeAnnotation(rt); inner != nil {
			text := t.text(inner)
			if text == "JSX.Element" {
				return true
			}
		}
	}

	body := unwrapped.ChildByFieldName("body")
	if body == nil {
		return false
	}

	switch body.GrammarName() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	case "parenthesized_expression":
		if inner := body.NamedChild(0); inner != nil {
			return t.nodeIsJSXProducing(inner)
		}
	case "statement_block":
		return t.blockReturnsJSX(body)
	}
	return false
}

func (t *Transformer) blockReturnsJSX(block *tsparse.ASTNode) bool {
	count := block.NamedChildCount()
	for i := uint(0); i < count; i++ {
		stmt := block.NamedChild(uint32(i))
		if stmt == nil || stmt.GrammarName() != "return_statement" {
			continue
		}
		if arg := stmt.NamedChild(0); arg != nil && t.nodeIsJSXProducing(arg) {
			return true
		}
	}
	return false
}

func (t *Transformer) nodeIsJSXProducing(node *tsparse.ASTNode) bool {
	switch node.GrammarName() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	case "parenthesized_expression":
		if inner := node.NamedChild(0); inner != nil {
			return t.nodeIsJSXProducing(inner)
		}
	case "call_expression":
		callee := node.ChildByFieldName("function")
		if callee == nil {
			return false
		}
		switch t.text(callee) {
		case "cloneElement", "React.cloneElement", "createPortal", "ReactDOM.createPortal":
			return true
		}
	}
	return false
}

// buildFunctionNode extracts parameters, return type, and type parameters
// shared by function declarations, methods, and method signatures.
func (t *Transformer) buildFunctionNode(node *tsparse.ASTNode, name string) *docnode.Node {
	n := &docnode.Node{Kind: docnode.KindFunction, Name: name}

	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		n.TypeParameters = t.typeParameterList(tp)
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		n.Parameters = t.paramList(params)
	}

	if rt := node.ChildByFieldName("return_type"); rt != nil {
		n.ReturnType = t.transformTypeExpr(t.unwrapTypeAnnotation(rt))
	}

	return n
}

func (t *Transformer) paramList(node *tsparse.ASTNode) []*docnode.Param {
	var out []*docnode.Param
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		p := node.NamedChild(uint32(i))
		if p == nil {
			continue
		}
		param := t.param(p)
		if param != nil {
			out = append(out, param)
		}
	}
	return out
}

func (t *Transformer) param(node *tsparse.ASTNode) *docnode.Param {
	switch node.GrammarName() {
	case "required_parameter", "optional_parameter":
		nameNode := node.ChildByFieldName("pattern")
		if nameNode == nil {
			nameNode = node.ChildByFieldName("name")
		}
		name := t.text(nameNode)
		typeAnn := t.unwrapTypeAnnotation(node.ChildByFieldName("type"))
		return &docnode.Param{
			Name:     name,
			Value:    t.transformTypeExpr(typeAnn),
			Optional: node.GrammarName() == "optional_parameter",
		}
	case "rest_pattern":
		inner := node.NamedChild(0)
		return &docnode.Param{Name: t.text(inner), Rest: true}
	default:
		return nil
	}
}
