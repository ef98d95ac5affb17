// Package transform is the Transformer (spec §4.5): it converts a single
// AST declaration path into a documentation Node. It is stateless per call
// but parameterized by the file path for id synthesis, and maintains two
// side channels accumulated across a file's declarations: a dependency list
// and a table of type-only declarations the parser facade does not track as
// bindings.
package transform

import (
	"strings"

	"github.com/tsdocgraph/loader/pkg/docnode"
	"github.com/tsdocgraph/loader/pkg/tsparse"
)

// ImportedSymbol is one name an import statement binds.
type ImportedSymbol struct {
	Type       string // "symbol" | "default" | "namespace"
	LocalName  string
	SourceName string
}

// Dependency aggregates every import from a single specifier.
type Dependency struct {
	Specifier string
	Imports   []ImportedSymbol
}

// GlobalType maps a type-only declaration's name to the AST path it
// occupies, so identifier references the parser facade treats as unbound
// can still be resolved to a local type declaration.
type GlobalType struct {
	Name string
	Node *tsparse.ASTNode
}

// importBinding is one local-name -> import-source mapping, discovered by
// ScanImports ahead of any declaration walk. Recording it does not by
// itself create a Dependency: a binding only turns into one when a
// requested declaration's walk actually reaches an identifier with that
// name (transformIdentifierType), keeping dependency resolution
// demand-driven (spec §4.5/§4.9).
type importBinding struct {
	Specifier string
	Imported  string
	Type      string
}

// Transformer walks AST paths into docnode.Node values for a single file.
type Transformer struct {
	filePath string
	source   []byte

	Dependencies map[string]*Dependency
	GlobalTypes  map[string]*GlobalType

	importBindings map[string]importBinding
	registered     map[string]bool

	// resolvedLocal/resolvingLocal back resolveLocalType's same-file
	// identifier resolution (spec §4.3/§4.5): resolvedLocal memoizes a
	// name's transformed declaration so repeated references share one
	// result, resolvingLocal guards against unbounded transform-time
	// recursion on mutually-referential same-file types.
	resolvedLocal  map[string]*docnode.Node
	resolvingLocal map[string]bool

	loggedUnknown map[string]bool
	logUnknown    func(kind string)
}

// New creates a Transformer scoped to one file's source text.
func New(filePath string, source []byte, logUnknown func(kind string)) *Transformer {
	return &Transformer{
		filePath:       filePath,
		source:         source,
		Dependencies:   make(map[string]*Dependency),
		GlobalTypes:    make(map[string]*GlobalType),
		importBindings: make(map[string]importBinding),
		registered:     make(map[string]bool),
		resolvedLocal:  make(map[string]*docnode.Node),
		resolvingLocal: make(map[string]bool),
		loggedUnknown:  make(map[string]bool),
		logUnknown:     logUnknown,
	}
}

// SetScope wires the file-wide type-scope table the gatherer builds ahead
// of time (spec §4.3: "a separate pass collects type/interface/enum/class/
// declare-function identifiers and the AST path they occupy"), so
// transformIdentifierType can resolve a same-file reference to its actual
// declaration instead of falling back to a bare identifier node. Entries
// already registered by a declaration's own self-registration (see
// transformInterface et al. in declarations.go) are left untouched.
func (t *Transformer) SetScope(scope map[string]*tsparse.ASTNode) {
	for name, node := range scope {
		if _, ok := t.GlobalTypes[name]; !ok {
			t.GlobalTypes[name] = &GlobalType{Name: name, Node: node}
		}
	}
}

// ScanImports records every top-level import statement's local bindings so
// later identifier references can be recognized as imports (spec §4.5
// "Imports become reference nodes"). Call once per file, before walking any
// requested declaration; it only records metadata, it does not itself
// populate Dependencies.
func (t *Transformer) ScanImports(root *tsparse.ASTNode) {
	if root == nil {
		return
	}
	count := root.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := root.NamedChild(uint32(i))
		if child == nil || child.GrammarName() != "import_statement" {
			continue
		}
		t.scanImportStatement(child)
	}
}

func (t *Transformer) scanImportStatement(node *tsparse.ASTNode) {
	sourceNode := node.ChildByFieldName("source")
	specifier := strings.Trim(t.text(sourceNode), `"'`)

	clause := node.NamedChild(0)
	if clause == nil || clause.GrammarName() != "import_clause" {
		return
	}

	count := clause.NamedChildCount()
	for i := uint(0); i < count; i++ {
		part := clause.NamedChild(uint32(i))
		if part == nil {
			continue
		}
		switch part.GrammarName() {
		case "identifier":
			local := t.text(part)
			t.importBindings[local] = importBinding{Specifier: specifier, Imported: "default", Type: "default"}
		case "namespace_import":
			local := t.text(part.NamedChild(0))
			t.importBindings[local] = importBinding{Specifier: specifier, Imported: "*", Type: "namespace"}
		case "named_imports":
			specCount := part.NamedChildCount()
			for j := uint(0); j < specCount; j++ {
				spec := part.NamedChild(uint32(j))
				if spec == nil {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				aliasNode := spec.ChildByFieldName("alias")
				imported := t.text(nameNode)
				local := imported
				if aliasNode != nil {
					local = t.text(aliasNode)
				}
				t.importBindings[local] = importBinding{Specifier: specifier, Imported: imported, Type: "symbol"}
			}
		}
	}
}

// registerDependency records that the declaration currently being walked
// actually reached the import binding b, lazily creating or extending its
// Dependency entry. Each (specifier, imported) pair is recorded once per
// file even if several declarations reference it.
func (t *Transformer) registerDependency(name string, b importBinding) {
	key := b.Specifier + "\x00" + b.Imported
	if t.registered[key] {
		return
	}
	t.registered[key] = true

	dep, ok := t.Dependencies[b.Specifier]
	if !ok {
		dep = &Dependency{Specifier: b.Specifier}
		t.Dependencies[b.Specifier] = dep
	}
	dep.Imports = append(dep.Imports, ImportedSymbol{Type: b.Type, LocalName: name, SourceName: b.Imported})
}

func (t *Transformer) text(n *tsparse.ASTNode) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(t.source)
}

func (t *Transformer) nodeID(name string) docnode.NodeID {
	return docnode.NewNodeID(t.filePath, name)
}

// Declaration transforms a top-level named declaration node (the entry
// point the gatherer hands off for each source export) into a Node.
func (t *Transformer) Declaration(node *tsparse.ASTNode, name string) *docnode.Node {
	if node == nil {
		return &docnode.Node{Kind: docnode.KindAny, Name: name}
	}

	// Named declarations are memoized and cycle-guarded by name (not just
	// the resolveLocalType path below) so a same-file self-reference
	// reached while walking this very declaration's own body (e.g.
	// `interface A { next: A }`) degrades to a bare identifier instead of
	// recursing forever — spec §9's cyclic-type-reference note applies at
	// transform time here, ahead of the linker's own node-identity guard.
	if name != "" {
		if cached, ok := t.resolvedLocal[name]; ok {
			return cached
		}
		if t.resolvingLocal[name] {
			return &docnode.Node{Kind: docnode.KindIdentifier, Name: name}
		}
		t.resolvingLocal[name] = true
		defer delete(t.resolvingLocal, name)
	}

	n := t.dispatch(node, name)
	if n != nil && n.Name == "" {
		n.Name = name
	}
	t.attachDocComment(node, n)
	if name != "" {
		t.resolvedLocal[name] = n
	}
	return n
}

// dispatch is the structural dispatch table: one case per AST grammar kind
// the transformer recognizes, per spec §4.5. Unknown kinds are logged once
// and produce an empty node rather than aborting the whole load.
func (t *Transformer) dispatch(node *tsparse.ASTNode, name string) *docnode.Node {
	switch node.GrammarName() {
	case "interface_declaration":
		return t.transformInterface(node, name)
	case "class_declaration":
		return t.transformClass(node, name)
	case "type_alias_declaration":
		return t.transformTypeAlias(node, name)
	case "enum_declaration":
		return t.transformEnum(node, name)
	case "function_declaration":
		return t.transformFunctionDeclaration(node, name)
	case "lexical_declaration", "variable_declaration":
		return t.transformLexicalDeclaration(node, name)
	case "variable_declarator":
		return t.transformVariableDeclarator(node, name)

	// Type expressions (recursed into from the above).
	case "predefined_type":
		return t.transformPredefinedType(node)
	case "literal_type":
		return t.transformLiteralType(node)
	case "string", "number", "true", "false":
		return t.transformLiteralValue(node)
	case "array_type":
		return &docnode.Node{Kind: docnode.KindArray, ElementType: t.transformTypeExpr(node.ChildByFieldName("element"))}
	case "tuple_type":
		return &docnode.Node{Kind: docnode.KindTuple, Elements: t.namedChildNodes(node)}
	case "object_type", "interface_body":
		return t.transformObjectType(node)
	case "union_type":
		return &docnode.Node{Kind: docnode.KindUnion, Elements: t.namedChildNodes(node)}
	case "intersection_type":
		return &docnode.Node{Kind: docnode.KindIntersect, Elements: t.namedChildNodes(node)}
	case "template_literal_type":
		return t.transformTemplateLiteralType(node)
	case "type_identifier", "identifier", "nested_type_identifier":
		return t.transformIdentifierType(node)
	case "generic_type":
		return t.transformGenericType(node)
	case "parenthesized_type":
		return t.transformTypeExpr(node.NamedChild(0))
	case "type_parameter":
		return t.transformTypeParameter(node)
	case "import_statement":
		return t.transformImport(node)
	case "index_type_query", "type_query":
		return &docnode.Node{Kind: docnode.KindTypeOp, Operator: docnode.OpKeyof, OperandOf: t.transformTypeExpr(node.NamedChild(0))}
	case "readonly_type":
		return &docnode.Node{Kind: docnode.KindTypeOp, Operator: docnode.OpReadonly, OperandOf: t.transformTypeExpr(node.NamedChild(0))}
	case "conditional_type":
		return t.transformConditionalType(node)
	case "index_type_query_type", "lookup_type":
		return t.transformIndexedAccess(node)
	default:
		if t.logUnknown != nil && !t.loggedUnknown[node.GrammarName()] {
			t.loggedUnknown[node.GrammarName()] = true
			t.logUnknown(node.GrammarName())
		}
		return &docnode.Node{Kind: docnode.KindAny}
	}
}

// transformTypeExpr recurses into a type-position node, transparently
// unwrapping parentheses and `as` coercions per spec §4.5.
func (t *Transformer) transformTypeExpr(node *tsparse.ASTNode) *docnode.Node {
	if node == nil {
		return nil
	}
	switch node.GrammarName() {
	case "parenthesized_type":
		return t.transformTypeExpr(node.NamedChild(0))
	case "as_expression":
		if typeNode := node.ChildByFieldName("type"); typeNode != nil {
			return t.transformTypeExpr(typeNode)
		}
	}
	return t.dispatch(node, "")
}

func (t *Transformer) namedChildNodes(node *tsparse.ASTNode) []*docnode.Node {
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

func (t *Transformer) transformPredefinedType(node *tsparse.ASTNode) *docnode.Node {
	switch t.text(node) {
	case "any":
		return &docnode.Node{Kind: docnode.KindAny}
	case "null":
		return &docnode.Node{Kind: docnode.KindNull}
	case "undefined":
		return &docnode.Node{Kind: docnode.KindUndefined}
	case "void":
		return &docnode.Node{Kind: docnode.KindVoid}
	case "unknown":
		return &docnode.Node{Kind: docnode.KindUnknown}
	case "never":
		return &docnode.Node{Kind: docnode.KindNever}
	case "this":
		return &docnode.Node{Kind: docnode.KindThis}
	case "symbol":
		return &docnode.Node{Kind: docnode.KindSymbol}
	case "boolean":
		return &docnode.Node{Kind: docnode.KindBoolean}
	case "string":
		return &docnode.Node{Kind: docnode.KindString}
	case "number":
		return &docnode.Node{Kind: docnode.KindNumber}
	default:
		return &docnode.Node{Kind: docnode.KindAny}
	}
}

func (t *Transformer) transformLiteralType(node *tsparse.ASTNode) *docnode.Node {
	inner := node.NamedChild(0)
	if inner == nil {
		return &docnode.Node{Kind: docnode.KindAny}
	}
	return t.transformLiteralValue(inner)
}

func (t *Transformer) transformLiteralValue(node *tsparse.ASTNode) *docnode.Node {
	switch node.GrammarName() {
	case "string":
		v := strings.Trim(t.text(node), `"'`)
		return &docnode.Node{Kind: docnode.KindString, Value: &v}
	case "number":
		v := t.text(node)
		return &docnode.Node{Kind: docnode.KindNumber, Value: &v}
	case "true", "false":
		v := node.GrammarName()
		return &docnode.Node{Kind: docnode.KindBoolean, Value: &v}
	default:
		return &docnode.Node{Kind: docnode.KindAny}
	}
}

func (t *Transformer) transformObjectType(node *tsparse.ASTNode) *docnode.Node {
	props := docnode.NewPropertyMap()
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		member := node.NamedChild(uint32(i))
		if member == nil {
			continue
		}
		prop := t.transformMember(member)
		if prop != nil {
			props.Set(prop.Name, prop)
		}
	}
	return &docnode.Node{Kind: docnode.KindObject, Properties: props}
}

func (t *Transformer) transformMember(node *tsparse.ASTNode) *docnode.Node {
	switch node.GrammarName() {
	case "property_signature":
		name := t.text(node.ChildByFieldName("name"))
		typeAnn := t.unwrapTypeAnnotation(node.ChildByFieldName("type"))
		optional := node.ChildByFieldName("optional") != nil
		return &docnode.Node{
			Kind:          docnode.KindProperty,
			Name:          name,
			PropertyValue: t.transformTypeExpr(typeAnn),
			Optional:      optional,
		}
	case "method_signature":
		return t.transformMethodSignature(node)
	default:
		return nil
	}
}

func (t *Transformer) unwrapTypeAnnotation(node *tsparse.ASTNode) *tsparse.ASTNode {
	if node == nil {
		return nil
	}
	// `type_annotation` wraps ": Type"; the grammar exposes the type itself
	// as the sole named child.
	if node.GrammarName() == "type_annotation" {
		return node.NamedChild(0)
	}
	return node
}

func (t *Transformer) transformMethodSignature(node *tsparse.ASTNode) *docnode.Node {
	name := t.text(node.ChildByFieldName("name"))
	fn := t.buildFunctionNode(node, "")
	return &docnode.Node{
		Kind:           docnode.KindMethod,
		Name:           name,
		Parameters:     fn.Parameters,
		ReturnType:     fn.ReturnType,
		TypeParameters: fn.TypeParameters,
	}
}

func (t *Transformer) transformTemplateLiteralType(node *tsparse.ASTNode) *docnode.Node {
	var elements []*docnode.Node
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(uint32(i))
		if child == nil {
			continue
		}
		if child.GrammarName() == "string_fragment" {
			text := t.text(child)
			elements = append(elements, &docnode.Node{Kind: docnode.KindString, Value: &text})
			continue
		}
		elements = append(elements, t.transformTypeExpr(child))
	}
	return &docnode.Node{Kind: docnode.KindTemplate, Elements: elements}
}

func (t *Transformer) transformIdentifierType(node *tsparse.ASTNode) *docnode.Node {
	name := t.text(node)
	if node.GrammarName() == "nested_type_identifier" {
		// Qualified name A.B: the root identifier is the one that can be
		// import-bound (A.B's A); the linker inlines the rest as a property
		// lookup per spec §4.5, since at transform time A's declaration may
		// live in another file.
		root := name
		rest := ""
		if dot := strings.IndexByte(root, '.'); dot >= 0 {
			rest = root[dot+1:]
			root = root[:dot]
		}
		if binding, ok := t.importBindings[root]; ok {
			t.registerDependency(root, binding)
			return &docnode.Node{Kind: docnode.KindReference, Local: name, Imported: binding.Imported, Specifier: binding.Specifier}
		}
		if resolved := t.resolveLocalType(root); resolved != nil {
			if prop := lookupProperty(resolved, rest); prop != nil {
				return prop
			}
		}
		return &docnode.Node{Kind: docnode.KindIdentifier, Name: name}
	}
	if binding, ok := t.importBindings[name]; ok {
		t.registerDependency(name, binding)
		return &docnode.Node{Kind: docnode.KindReference, Local: name, Imported: binding.Imported, Specifier: binding.Specifier}
	}
	if resolved := t.resolveLocalType(name); resolved != nil {
		return resolved
	}
	return &docnode.Node{Kind: docnode.KindIdentifier, Name: name}
}

// resolveLocalType resolves a same-file identifier against the type-scope
// table (spec §4.3/§4.5): nil when name is not a known local declaration, in
// which case the caller's bare-identifier fallback applies. A name that is
// a known declaration always resolves to a Node — Declaration's own cycle
// guard degrades a self-reference (mutually-referential same-file types) to
// a bare identifier rather than recursing forever.
func (t *Transformer) resolveLocalType(name string) *docnode.Node {
	if cached, ok := t.resolvedLocal[name]; ok {
		return cached
	}
	gt, ok := t.GlobalTypes[name]
	if !ok || gt.Node == nil {
		return nil
	}
	// Declaration itself applies the resolvingLocal cycle guard and
	// resolvedLocal memoization (see its doc comment), so a direct
	// self-reference encountered here degrades the same way one reached
	// from within the declaration's own top-level transform would.
	return t.Declaration(gt.Node, name)
}

// lookupProperty finds propName among resolved's properties and returns
// that property's own value (spec §4.5: "inline that property's value").
func lookupProperty(resolved *docnode.Node, propName string) *docnode.Node {
	if resolved == nil || resolved.Properties == nil {
		return nil
	}
	prop, ok := resolved.Properties.Get(propName)
	if !ok || prop == nil {
		return nil
	}
	return prop.PropertyValue
}

func (t *Transformer) transformGenericType(node *tsparse.ASTNode) *docnode.Node {
	base := t.transformTypeExpr(node.ChildByFieldName("name"))
	argsNode := node.ChildByFieldName("type_arguments")
	if argsNode == nil {
		return base
	}
	var typeParams []*docnode.Node
	count := argsNode.NamedChildCount()
	for i := uint(0); i < count; i++ {
		arg := argsNode.NamedChild(uint32(i))
		if arg == nil {
			continue
		}
		typeParams = append(typeParams, t.transformTypeExpr(arg))
	}
	if len(typeParams) == 0 {
		// No arguments: the application is the base directly (spec §4.5).
		return base
	}
	return &docnode.Node{Kind: docnode.KindApplication, Base: base, TypeParameters: typeParams}
}

func (t *Transformer) transformTypeParameter(node *tsparse.ASTNode) *docnode.Node {
	name := t.text(node.ChildByFieldName("name"))
	var constraint, def *docnode.Node
	if c := node.ChildByFieldName("constraint"); c != nil {
		constraint = t.transformTypeExpr(t.unwrapTypeAnnotation(c))
	}
	if d := node.ChildByFieldName("value"); d != nil {
		def = t.transformTypeExpr(d)
	}
	return &docnode.Node{Kind: docnode.KindTypeParam, Name: name, Constraint: constraint, TypeParamDefault: def}
}

func (t *Transformer) transformConditionalType(node *tsparse.ASTNode) *docnode.Node {
	return &docnode.Node{
		Kind:        docnode.KindConditional,
		CheckType:   t.transformTypeExpr(node.ChildByFieldName("left")),
		ExtendsType: t.transformTypeExpr(node.ChildByFieldName("right")),
		TrueType:    t.transformTypeExpr(node.ChildByFieldName("consequence")),
		FalseType:   t.transformTypeExpr(node.ChildByFieldName("alternative")),
	}
}

func (t *Transformer) transformIndexedAccess(node *tsparse.ASTNode) *docnode.Node {
	return &docnode.Node{
		Kind:       docnode.KindIndexed,
		ObjectType: t.transformTypeExpr(node.ChildByFieldName("object")),
		IndexType:  t.transformTypeExpr(node.ChildByFieldName("index")),
	}
}

// transformImport builds one reference Node per imported binding and
// records each as a dependency (spec §4.5 "Imports become reference nodes").
func (t *Transformer) transformImport(node *tsparse.ASTNode) *docnode.Node {
	sourceNode := node.ChildByFieldName("source")
	specifier := strings.Trim(t.text(sourceNode), `"'`)

	dep, ok := t.Dependencies[specifier]
	if !ok {
		dep = &Dependency{Specifier: specifier}
		t.Dependencies[specifier] = dep
	}

	clause := node.NamedChild(0)
	if clause == nil || clause.GrammarName() != "import_clause" {
		return &docnode.Node{Kind: docnode.KindReference, Specifier: specifier}
	}

	var last *docnode.Node
	count := clause.NamedChildCount()
	for i := uint(0); i < count; i++ {
		part := clause.NamedChild(uint32(i))
		if part == nil {
			continue
		}
		switch part.GrammarName() {
		case "identifier":
			local := t.text(part)
			dep.Imports = append(dep.Imports, ImportedSymbol{Type: "default", LocalName: local, SourceName: "default"})
			last = &docnode.Node{Kind: docnode.KindReference, Local: local, Imported: "default", Specifier: specifier}
		case "namespace_import":
			local := t.text(part.NamedChild(0))
			dep.Imports = append(dep.Imports, ImportedSymbol{Type: "namespace", LocalName: local, SourceName: "*"})
			last = &docnode.Node{Kind: docnode.KindReference, Local: local, Imported: "*", Specifier: specifier}
		case "named_imports":
			specCount := part.NamedChildCount()
			for j := uint(0); j < specCount; j++ {
				spec := part.NamedChild(uint32(j))
				if spec == nil {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				aliasNode := spec.ChildByFieldName("alias")
				imported := t.text(nameNode)
				local := imported
				if aliasNode != nil {
					local = t.text(aliasNode)
				}
				dep.Imports = append(dep.Imports, ImportedSymbol{Type: "symbol", LocalName: local, SourceName: imported})
				last = &docnode.Node{Kind: docnode.KindReference, Local: local, Imported: imported, Specifier: specifier}
			}
		}
	}
	if last == nil {
		return &docnode.Node{Kind: docnode.KindReference, Specifier: specifier}
	}
	return last
}
