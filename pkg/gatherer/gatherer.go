// Package gatherer is the Export Gatherer (spec §4.3): a single-file pass
// over one parsed AST that classifies every export statement into source
// exports, external re-exports, and wildcard re-exports, plus a type-scope
// table the orchestrator hands to the transformer for resolving names
// declared in the same file.
package gatherer

import (
	"strings"

	"github.com/tsdocgraph/loader/pkg/tsparse"
)

// SourceExport is a declaration whose definition lives in this file: a named
// export of a declaration, a locally exported rebinding, or a namespace
// re-export (`export * as Foo from "x"`, which is recorded here pointing at
// this file with Namespace set).
type SourceExport struct {
	PublicName string
	// LocalName is the name the declaration is bound to at its declaration
	// site, which differs from PublicName for a same-file rebinding
	// (`export {a as b}`). Set for every rebinding, equal to PublicName when
	// there is no alias; empty for an exported declaration.
	LocalName string
	// DeclarationNode is the AST node of the binding declaration. Nil for
	// namespace re-exports (no local declaration) and for rebindings whose
	// declaration the caller resolves by LocalName via the type-scope table.
	DeclarationNode *tsparseNodeRef
	Namespace       bool
}

// ExternalExport is a named (possibly renamed) re-export grouped by its
// source specifier: `export { a as b } from "./x"`.
type ExternalExport struct {
	ExportName string
	SourceName string
	SourceFile string // raw specifier, not yet resolved to an absolute path
}

// WildcardExport is `export * from "x"`: only the specifier is recorded.
type WildcardExport struct {
	SourceFile string
}

// TypeScopeEntry records where a type/interface/enum/class/declare-function
// identifier is declared, since the parser facade does not track type
// declarations as value bindings.
type TypeScopeEntry struct {
	Name string
	Node *tsparseNodeRef
}

// Result is the gatherer's full output for one file.
type Result struct {
	FilePath  string
	Source    []SourceExport
	External  []ExternalExport
	Wildcards []WildcardExport
	TypeScope map[string]*TypeScopeEntry
}

// tsparseNodeRef avoids importing go-tree-sitter's *ts.Node type directly in
// this file's public surface while keeping it concrete enough to hand to the
// transformer; it is a thin alias of tsparse.ASTNode.
type tsparseNodeRef = tsparse.ASTNode

// Gatherer runs the export/type-scope pass against an already-parsed file.
type Gatherer struct {
	parser *tsparse.Manager
}

// New creates a Gatherer backed by the given parser facade.
func New(parser *tsparse.Manager) *Gatherer {
	return &Gatherer{parser: parser}
}

// Gather classifies every export in pf and builds its type-scope table.
func (g *Gatherer) Gather(pf *tsparse.ParsedFile) (*Result, error) {
	res := &Result{
		FilePath:  pf.Path,
		TypeScope: make(map[string]*TypeScopeEntry),
	}

	if err := g.gatherExports(pf, res); err != nil {
		return nil, err
	}
	if err := g.gatherTypeScope(pf, res); err != nil {
		return nil, err
	}

	return res, nil
}

func (g *Gatherer) gatherExports(pf *tsparse.ParsedFile, res *Result) error {
	query, err := g.parser.Query(pf, tsparse.QueryExports)
	if err != nil {
		return err
	}
	matches, err := g.parser.Execute(pf, query)
	if err != nil {
		return err
	}

	for _, match := range matches {
		classifyExportMatch(match, res, pf.Source)
	}
	return nil
}

func classifyExportMatch(match tsparse.QueryMatch, res *Result, source []byte) {
	caps := match.Captures

	if wc := find(caps, "export.wildcard_source"); wc != nil {
		res.Wildcards = append(res.Wildcards, WildcardExport{SourceFile: unquote(wc.Text)})
		return
	}

	if ns := find(caps, "export.namespace_name"); ns != nil {
		src := find(caps, "export.namespace_source")
		if src != nil {
			// A namespace re-export names a binding that aliases the whole
			// module; recorded as a source export pointing at this file per
			// spec §4.3, not as an external export (it has no single
			// originating symbol name to follow).
			res.Source = append(res.Source, SourceExport{
				PublicName: ns.Text,
				Namespace:  true,
			})
		}
		return
	}

	if def := find(caps, "export.default_value"); def != nil {
		// Default exports are recognized but produce no entries (spec §4.3
		// explicit non-goal).
		_ = def
		return
	}

	if src := find(caps, "export.source"); src != nil {
		// export { a as b, c } from "./x" — one match per specifier list;
		// individual specifiers are exposed as repeated local/alias capture
		// pairs, walked positionally below.
		sourceFile := unquote(src.Text)
		locals := findAll(caps, "export.local")
		aliases := findAll(caps, "export.alias")
		for i, local := range locals {
			exportName := local.Text
			if i < len(aliases) && aliases[i] != nil {
				exportName = aliases[i].Text
			}
			res.External = append(res.External, ExternalExport{
				ExportName: exportName,
				SourceName: local.Text,
				SourceFile: sourceFile,
			})
		}
		return
	}

	// A plain `export { a as b }` with no source is a local rebinding: the
	// public name may differ from the local declaration name it points at.
	if locals := findAll(caps, "export.local"); len(locals) > 0 {
		aliases := findAll(caps, "export.alias")
		for i, local := range locals {
			publicName := local.Text
			localName := local.Text
			if i < len(aliases) && aliases[i] != nil {
				publicName = aliases[i].Text
			}
			res.Source = append(res.Source, SourceExport{
				PublicName:      publicName,
				LocalName:       localName,
				DeclarationNode: nil, // resolved by name via the binding/type-scope lookup below
			})
		}
		return
	}

	if decl := find(caps, "export.declaration"); decl != nil {
		// `export default function Foo() {}` also carries a declaration
		// field; the "default" keyword makes it a default export, which
		// produces no entry.
		if stmt := find(caps, "export.decl_stmt"); stmt != nil {
			for i := uint(0); i < stmt.Node.ChildCount(); i++ {
				if c := stmt.Node.Child(i); c != nil && c.GrammarName() == "default" {
					return
				}
			}
		}
		name := tsparse.DeclarationName(decl.Node, source)
		if name != "" {
			res.Source = append(res.Source, SourceExport{
				PublicName:      name,
				DeclarationNode: decl.Node,
			})
		}
	}
}

func (g *Gatherer) gatherTypeScope(pf *tsparse.ParsedFile, res *Result) error {
	query, err := g.parser.Query(pf, tsparse.QuerySymbols)
	if err != nil {
		return err
	}
	matches, err := g.parser.Execute(pf, query)
	if err != nil {
		return err
	}

	for _, match := range matches {
		name := find(match.Captures, "symbol.name")
		if name == nil {
			continue
		}
		// The whole-declaration capture (symbol.interface/alias/enum/class/
		// function/variable) is what the transformer dispatches on; symbol.name
		// only locates the identifier token within it, so TypeScopeEntry.Node
		// must point at the declaration, not the bare name.
		decl := declarationCapture(match.Captures)
		node := name.Node
		if decl != nil {
			node = decl.Node
		}
		res.TypeScope[name.Text] = &TypeScopeEntry{
			Name: name.Text,
			Node: node,
		}
	}
	return nil
}

// declarationCapture returns the capture that wraps an entire declaration
// (the symbol.interface/alias/enum/class/function/variable alternative that
// accompanies every symbol.name capture in the symbols query), so callers
// can resolve a scanned name to something transform.Transformer.Declaration
// can actually dispatch on.
func declarationCapture(caps []tsparse.QueryCapture) *tsparse.QueryCapture {
	for i := range caps {
		if caps[i].Name != "symbol.name" {
			return &caps[i]
		}
	}
	return nil
}

// Resolve looks name up in TypeScope (interfaces, type aliases, enums,
// classes, functions, variables captured by the symbols query all live
// there) and returns nil when it is absent — the gatherer does not
// separately track plain value bindings beyond what the symbols query
// already captures.
func (res *Result) Resolve(name string) *TypeScopeEntry {
	return res.TypeScope[name]
}

func find(caps []tsparse.QueryCapture, name string) *tsparse.QueryCapture {
	for i := range caps {
		if caps[i].Name == name {
			return &caps[i]
		}
	}
	return nil
}

func findAll(caps []tsparse.QueryCapture, name string) []*tsparse.QueryCapture {
	var out []*tsparse.QueryCapture
	for i := range caps {
		if caps[i].Name == name {
			out = append(out, &caps[i])
		}
	}
	return out
}

func unquote(s string) string {
	return strings.Trim(s, `"'`)
}
