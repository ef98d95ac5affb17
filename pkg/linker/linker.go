// Package linker is the Linker / Partial Evaluator (spec §4.6-4.7): given
// the primary Asset for the file being loaded plus the Assets of its direct
// dependencies, it walks the transformed node tree, resolves `reference`
// nodes to concrete declarations, performs type-parameter substitution,
// interface-inheritance flattening, and `Omit`/`keyof` evaluation, and
// emits a deduplicated `links` map alongside the resolved exports.
package linker

import (
	"strings"

	om "github.com/wk8/go-ordered-map/v2"

	"github.com/tsdocgraph/loader/pkg/docnode"
)

// Asset is the linker's view of one file's transformed declarations: its
// exported nodes by public name, and (for dependency assets already
// linked) the links map a reference into it may need to fall back into.
type Asset struct {
	ID      string
	Exports *om.OrderedMap[string, *docnode.Node]
	Links   *om.OrderedMap[string, *docnode.Node]
}

// Result is the linker's output for one load: the resolved exports plus the
// deduplicated table of every linked (non-inlined) node reachable from them.
type Result struct {
	Exports *om.OrderedMap[string, *docnode.Node]
	Links   *om.OrderedMap[string, *docnode.Node]
}

// Linker runs Pass A (code resolution) and Pass B (link collection) for one
// primary asset against its dependency assets, keyed by the raw specifier
// each dependency was imported under (matching docnode.Node.Specifier on
// reference nodes).
type Linker struct {
	primary      *Asset
	dependencies map[string]*Asset

	nodeTable map[docnode.NodeID]*docnode.Node
}

// New creates a Linker for one load.
func New(primary *Asset, dependencies map[string]*Asset) *Linker {
	return &Linker{
		primary:      primary,
		dependencies: dependencies,
		nodeTable:    make(map[docnode.NodeID]*docnode.Node),
	}
}

// context carries the per-call visitor state spec §4.6 describes as a
// parameter stack and key stack, plus the contextual flags should-merge
// needs. Kept as an explicit struct rather than two raw stacks since Go
// lacks pattern matching on stack shape; the predicate in shouldMerge below
// implements the same decision spec §4.6 describes positionally.
type context struct {
	paramStack []map[string]*docnode.Node
	parentKey  string
	isRoot     bool
	inExtends  bool
	inKeyof    bool
	// grandParentBase is true when the immediate parent key is "base" (we
	// are inside an application) — spec §4.6's should-merge carve-out for
	// a merged ancestor two levels up (props/extends) reached through an
	// application.
	grandParentBase bool
	grandParentKey  string

	inProgress map[*docnode.Node]bool
}

func newContext() *context {
	return &context{inProgress: make(map[*docnode.Node]bool)}
}

func (c *context) child(key string) *context {
	cp := *c
	cp.grandParentBase = c.parentKey == "base"
	cp.grandParentKey = c.parentKey
	cp.parentKey = key
	cp.isRoot = false
	cp.inExtends = key == "extends"
	cp.inKeyof = key == "operand"
	return &cp
}

func (c *context) lookupParam(name string) (*docnode.Node, bool) {
	for i := len(c.paramStack) - 1; i >= 0; i-- {
		if v, ok := c.paramStack[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Link runs the full linker pipeline over every export of the primary asset
// and returns the resolved exports plus the deduplicated links map.
func (l *Linker) Link() *Result {
	resolved := om.New[string, *docnode.Node]()

	for pair := l.primary.Exports.Oldest(); pair != nil; pair = pair.Next() {
		ctx := newContext()
		ctx.isRoot = true
		n := l.visit(pair.Value, ctx)
		resolved.Set(pair.Key, n)
	}

	links := om.New[string, *docnode.Node]()
	for pair := resolved.Oldest(); pair != nil; pair = pair.Next() {
		l.collectLinks(pair.Value, links, make(map[*docnode.Node]bool))
	}

	return &Result{Exports: resolved, Links: links}
}

// shouldMerge implements spec §4.6's should-merge predicate: an
// alias/interface is merged inline (rather than linked) at the root of an
// export, as component props, in an extends position, as the operand of
// keyof, or (transitively) when reached through an application whose
// grandparent key was props/extends.
func (c *context) shouldMerge() bool {
	if c.isRoot || c.parentKey == "props" || c.inExtends || c.inKeyof {
		return true
	}
	if c.grandParentBase && (c.grandParentKey == "props" || c.grandParentKey == "extends") {
		return true
	}
	return false
}

func (l *Linker) visit(n *docnode.Node, ctx *context) *docnode.Node {
	if n == nil {
		return nil
	}

	if ctx.inProgress[n] {
		if n.ID != "" {
			return &docnode.Node{Kind: docnode.KindLink, LinkID: n.ID}
		}
		return n
	}
	ctx.inProgress[n] = true
	defer delete(ctx.inProgress, n)

	switch n.Kind {
	case docnode.KindReference:
		return l.visit(l.resolveReference(n), ctx)
	case docnode.KindApplication:
		return l.visitApplication(n, ctx)
	case docnode.KindIdentifier:
		return l.visitIdentifier(n, ctx)
	case docnode.KindInterface:
		return l.visitInterface(n, ctx)
	case docnode.KindAlias:
		return l.visitAlias(n, ctx)
	case docnode.KindTypeOp:
		if n.Operator == docnode.OpKeyof {
			return l.visitKeyof(n, ctx)
		}
		return l.visitGeneric(n, ctx)
	default:
		return l.visitGeneric(n, ctx)
	}
}

// resolveReference implements rule 1: look up Specifier in dependencies
// (falling back to the primary asset), index its exports by Imported; if
// absent, the node becomes identifier{name: local}. For a qualified local
// name A.B, the property B of the resolved A is inlined; when A has no such
// property the node becomes identifier{name: "A.B"}.
func (l *Linker) resolveReference(n *docnode.Node) *docnode.Node {
	asset, ok := l.dependencies[n.Specifier]
	if !ok {
		asset = l.primary
	}
	if asset != nil && asset.Exports != nil {
		if target, ok := asset.Exports.Get(n.Imported); ok {
			if dot := strings.IndexByte(n.Local, '.'); dot >= 0 {
				if v := l.resolveValue(target); v != nil && v.Properties != nil {
					if prop, ok := v.Properties.Get(n.Local[dot+1:]); ok && prop != nil && prop.PropertyValue != nil {
						return prop.PropertyValue
					}
				}
				return &docnode.Node{Kind: docnode.KindIdentifier, Name: n.Local}
			}
			return target
		}
	}
	return &docnode.Node{Kind: docnode.KindIdentifier, Name: n.Local}
}

// visitApplication implements rule 2 and rule 9: type parameters are
// visited first and held as the pending application; the base is then
// visited under a parameter-stack frame bound from the pending application
// when should-merge holds; the application itself collapses to its base
// when reached from a props position.
func (l *Linker) visitApplication(n *docnode.Node, ctx *context) *docnode.Node {
	pending := make([]*docnode.Node, len(n.TypeParameters))
	tpCtx := ctx.child("typeParameters")
	for i, tp := range n.TypeParameters {
		pending[i] = l.visit(tp, tpCtx)
	}

	baseCtx := ctx.child("base")
	base := l.visit(n.Base, baseCtx)

	if (base.Kind == docnode.KindAlias || base.Kind == docnode.KindInterface) && len(base.TypeParameters) > 0 && baseCtx.shouldMerge() {
		frame := make(map[string]*docnode.Node, len(base.TypeParameters))
		for i, tp := range base.TypeParameters {
			if i < len(pending) {
				frame[tp.Name] = pending[i]
			} else if tp.TypeParamDefault != nil {
				frame[tp.Name] = tp.TypeParamDefault
			}
		}
		// base has already been visited once above; re-walk it under the
		// new frame so identifier substitution (rule 5) and the
		// inheritance/keyof rules see the bound type parameters. The
		// in-progress guard is keyed by pointer identity and was released
		// when the first visit returned, so this second walk is safe.
		mergeCtx := ctx.child(ctx.parentKey)
		mergeCtx.paramStack = append(append([]map[string]*docnode.Node{}, ctx.paramStack...), frame)
		base = l.visit(base, mergeCtx)
	}

	// Rule 4: Omit<T, K> evaluation. Omit only ever appears as the base of
	// an application written `Omit<T, K>`, so the pending type-parameter
	// vector here is exactly [T, K].
	if base.Kind == docnode.KindIdentifier && base.Name == "Omit" && len(pending) == 2 {
		return l.visitOmit(pending[0], pending[1])
	}

	if ctx.parentKey == "props" {
		return base
	}

	return &docnode.Node{Kind: docnode.KindApplication, Base: base, TypeParameters: pending}
}

func (l *Linker) visitIdentifier(n *docnode.Node, ctx *context) *docnode.Node {
	// Rule 5: identifier bound by the top parameter-stack frame.
	if bound, ok := ctx.lookupParam(n.Name); ok {
		return bound
	}
	return n
}

// visitOmit evaluates Omit<T, K> once the full application (base plus
// pending type parameters) is known. Called from visitApplication before
// the application-collapse check, per rule 4 ("after recursing").
func (l *Linker) visitOmit(t *docnode.Node, keys *docnode.Node) *docnode.Node {
	resolved := l.resolveValue(t)
	if resolved == nil || (resolved.Kind != docnode.KindInterface && resolved.Kind != docnode.KindObject) {
		return t
	}

	omitSet := make(map[string]bool)
	for _, el := range l.resolveUnionElements(keys) {
		if el.Kind == docnode.KindString && el.Value != nil {
			omitSet[*el.Value] = true
		}
	}

	props := docnode.NewPropertyMap()
	if resolved.Properties != nil {
		for pair := resolved.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if omitSet[pair.Key] {
				continue
			}
			props.Set(pair.Key, pair.Value)
		}
	}

	return &docnode.Node{Kind: docnode.KindInterface, Name: resolved.Name, ID: resolved.ID, Properties: props}
}

func (l *Linker) visitKeyof(n *docnode.Node, ctx *context) *docnode.Node {
	operand := l.resolveValue(l.visit(n.OperandOf, ctx.child("operand")))
	if operand != nil && operand.Kind == docnode.KindInterface && operand.Properties != nil {
		var elements []*docnode.Node
		for pair := operand.Properties.Oldest(); pair != nil; pair = pair.Next() {
			key := pair.Key
			elements = append(elements, &docnode.Node{Kind: docnode.KindString, Value: &key})
		}
		return &docnode.Node{Kind: docnode.KindUnion, Elements: elements}
	}
	return &docnode.Node{Kind: docnode.KindTypeOp, Operator: docnode.OpKeyof, OperandOf: operand}
}

// visitInterface implements rule 6: inheritance is flattened via
// merge-extensions, the merged form stored by id, and either the merged
// form or a link is emitted depending on should-merge.
func (l *Linker) visitInterface(n *docnode.Node, ctx *context) *docnode.Node {
	frameCtx := ctx
	if ctx.isRoot && len(n.TypeParameters) > 0 {
		frame := make(map[string]*docnode.Node, len(n.TypeParameters))
		for _, tp := range n.TypeParameters {
			if tp.Constraint != nil {
				frame[tp.Name] = tp.Constraint
			}
		}
		frameCtx = ctx.child(ctx.parentKey)
		frameCtx.paramStack = append(append([]map[string]*docnode.Node{}, ctx.paramStack...), frame)
	}

	merged := l.mergeExtensions(n, frameCtx)
	if n.ID != "" {
		l.nodeTable[n.ID] = merged
	}

	if ctx.shouldMerge() || n.ID == "" {
		return merged
	}
	return &docnode.Node{Kind: docnode.KindLink, LinkID: n.ID}
}

// mergeExtensions recursively flattens extends into a single properties
// map: most-derived wins, inherited properties get InheritedFrom set to the
// originating interface's id unless already set. application bases and
// alias values are pre-unwrapped before merging.
func (l *Linker) mergeExtensions(n *docnode.Node, ctx *context) *docnode.Node {
	props := docnode.NewPropertyMap()
	var extendsOut []*docnode.Node

	for _, ext := range n.Extends {
		extCtx := ctx.child("extends")
		resolved := l.visit(ext, extCtx)
		resolved = l.resolveValue(resolved)
		if resolved == nil || resolved.Kind != docnode.KindInterface {
			if resolved != nil {
				extendsOut = append(extendsOut, resolved)
			}
			continue
		}
		if resolved.Properties != nil {
			for pair := resolved.Properties.Oldest(); pair != nil; pair = pair.Next() {
				prop := pair.Value.Clone()
				if prop.InheritedFrom == "" {
					prop.InheritedFrom = resolved.ID
				}
				props.Set(pair.Key, prop)
			}
		}
	}

	propsCtx := ctx.child("properties")
	if n.Properties != nil {
		for pair := n.Properties.Oldest(); pair != nil; pair = pair.Next() {
			props.Set(pair.Key, l.visit(pair.Value, propsCtx))
		}
	}

	return &docnode.Node{
		Kind:           docnode.KindInterface,
		ID:             n.ID,
		Name:           n.Name,
		Properties:     props,
		Extends:        extendsOut,
		TypeParameters: n.TypeParameters,
		Description:    n.Description,
		Access:         n.Access,
	}
}

// visitAlias implements rule 7: an alias used directly as props is
// inlined; otherwise it is stored in the node-table and replaced with a
// link.
func (l *Linker) visitAlias(n *docnode.Node, ctx *context) *docnode.Node {
	valueCtx := ctx.child("value")
	value := l.visit(n.AliasValue, valueCtx)
	merged := &docnode.Node{Kind: docnode.KindAlias, ID: n.ID, Name: n.Name, AliasValue: value, TypeParameters: n.TypeParameters, Description: n.Description}

	if n.ID != "" {
		l.nodeTable[n.ID] = merged
	}

	if ctx.parentKey == "props" {
		return value
	}
	if ctx.shouldMerge() || n.ID == "" {
		return merged
	}
	return &docnode.Node{Kind: docnode.KindLink, LinkID: n.ID}
}

// visitGeneric handles a node that has no bespoke rewrite rule. It recurses
// into elementType, elements, properties, parameter values, returnType,
// props, ref, propertyValue, indexType, objectType and the four conditional
// parts, threading the key stack by field name so should-merge and Omit
// evaluation downstream see correct context. Its other node-valued fields
// (type parameters and the operand of a type operator among them) are
// copied without being visited.
func (l *Linker) visitGeneric(n *docnode.Node, ctx *context) *docnode.Node {
	cp := *n

	if n.ElementType != nil {
		cp.ElementType = l.visit(n.ElementType, ctx.child("elementType"))
	}
	if len(n.Elements) > 0 {
		cp.Elements = make([]*docnode.Node, len(n.Elements))
		elCtx := ctx.child("elements")
		for i, el := range n.Elements {
			cp.Elements[i] = l.visit(el, elCtx)
		}
	}
	if n.Properties != nil {
		cp.Properties = docnode.NewPropertyMap()
		propsCtx := ctx.child("properties")
		for pair := n.Properties.Oldest(); pair != nil; pair = pair.Next() {
			cp.Properties.Set(pair.Key, l.visit(pair.Value, propsCtx))
		}
	}
	if n.Parameters != nil {
		cp.Parameters = make([]*docnode.Param, len(n.Parameters))
		paramCtx := ctx.child("parameters")
		for i, p := range n.Parameters {
			np := *p
			np.Value = l.visit(p.Value, paramCtx)
			cp.Parameters[i] = &np
		}
	}
	if n.ReturnType != nil {
		cp.ReturnType = l.visit(n.ReturnType, ctx.child("returnType"))
	}
	if n.Props != nil {
		cp.Props = l.visit(n.Props, ctx.child("props"))
	}
	if n.Ref != nil {
		cp.Ref = l.visit(n.Ref, ctx.child("ref"))
	}
	if n.PropertyValue != nil {
		cp.PropertyValue = l.visit(n.PropertyValue, ctx.child("propertyValue"))
	}
	if n.IndexType != nil {
		cp.IndexType = l.visit(n.IndexType, ctx.child("indexType"))
	}
	if n.ObjectType != nil {
		cp.ObjectType = l.visit(n.ObjectType, ctx.child("objectType"))
	}
	if n.CheckType != nil {
		cp.CheckType = l.visit(n.CheckType, ctx.child("checkType"))
		cp.ExtendsType = l.visit(n.ExtendsType, ctx.child("extendsType"))
		cp.TrueType = l.visit(n.TrueType, ctx.child("trueType"))
		cp.FalseType = l.visit(n.FalseType, ctx.child("falseType"))
	}

	return &cp
}

// collectLinks implements Pass B: walk the resolved tree once more; every
// link node's id is looked up in the local node-table then in dependency
// asset links, saved into the output links map. inherited properties'
// source ids are likewise saved. Already-saved ids are not re-expanded.
func (l *Linker) collectLinks(n *docnode.Node, links *om.OrderedMap[string, *docnode.Node], seen map[*docnode.Node]bool) {
	if n == nil || seen[n] {
		return
	}
	seen[n] = true

	if n.Kind == docnode.KindLink {
		l.saveLink(n.LinkID, links, seen)
		return
	}
	if n.InheritedFrom != "" {
		l.saveLink(n.InheritedFrom, links, seen)
	}

	for _, child := range childNodes(n) {
		l.collectLinks(child, links, seen)
	}
}

func (l *Linker) saveLink(id docnode.NodeID, links *om.OrderedMap[string, *docnode.Node], seen map[*docnode.Node]bool) {
	key := string(id)
	if _, ok := links.Get(key); ok {
		return
	}
	if target, ok := l.nodeTable[id]; ok {
		links.Set(key, target)
		l.collectLinks(target, links, seen)
		return
	}
	for _, dep := range l.dependencies {
		if dep.Links == nil {
			continue
		}
		if target, ok := dep.Links.Get(key); ok {
			links.Set(key, target)
			return
		}
	}
}

func childNodes(n *docnode.Node) []*docnode.Node {
	var out []*docnode.Node
	add := func(x *docnode.Node) {
		if x != nil {
			out = append(out, x)
		}
	}
	add(n.ElementType)
	out = append(out, n.Elements...)
	if n.Properties != nil {
		for pair := n.Properties.Oldest(); pair != nil; pair = pair.Next() {
			add(pair.Value)
		}
	}
	out = append(out, n.Extends...)
	for _, p := range n.Parameters {
		if p != nil {
			add(p.Value)
		}
	}
	add(n.ReturnType)
	add(n.Props)
	add(n.Ref)
	add(n.Base)
	add(n.AliasValue)
	add(n.OperandOf)
	add(n.PropertyValue)
	add(n.IndexType)
	add(n.ObjectType)
	add(n.CheckType)
	add(n.ExtendsType)
	add(n.TrueType)
	add(n.FalseType)
	return out
}

// resolveValue implements spec §4.7: collapse link (via node-table then
// dependencies), application (to its base), and alias (to its value)
// transitively until a concrete node is reached or no further collapse is
// possible.
func (l *Linker) resolveValue(n *docnode.Node) *docnode.Node {
	seen := make(map[docnode.NodeID]bool)
	for n != nil {
		switch n.Kind {
		case docnode.KindLink:
			if seen[n.LinkID] {
				return n
			}
			seen[n.LinkID] = true
			if target, ok := l.nodeTable[n.LinkID]; ok {
				n = target
				continue
			}
			resolved := false
			for _, dep := range l.dependencies {
				if dep.Links == nil {
					continue
				}
				if target, ok := dep.Links.Get(string(n.LinkID)); ok {
					n = target
					resolved = true
					break
				}
			}
			if !resolved {
				return n
			}
		case docnode.KindApplication:
			n = n.Base
		case docnode.KindAlias:
			n = n.AliasValue
		default:
			return n
		}
	}
	return n
}

// resolveUnionElements implements spec §4.7: flatten nested unions reached
// via aliases and links, yielding a flat sequence including embedded
// non-string elements unchanged.
func (l *Linker) resolveUnionElements(n *docnode.Node) []*docnode.Node {
	resolved := l.resolveValue(n)
	if resolved == nil {
		return nil
	}
	if resolved.Kind != docnode.KindUnion {
		return []*docnode.Node{resolved}
	}
	var out []*docnode.Node
	for _, el := range resolved.Elements {
		elResolved := l.resolveValue(el)
		if elResolved != nil && elResolved.Kind == docnode.KindUnion {
			out = append(out, l.resolveUnionElements(elResolved)...)
			continue
		}
		out = append(out, el)
	}
	return out
}
