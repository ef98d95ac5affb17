package tsparse

import (
	"fmt"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Query names the compiled tree-sitter queries the facade exposes; the
// export gatherer runs the exports and symbols queries. Kept TS-only: the teacher's equivalent
// table also carried a tree-sitter-javascript variant, dropped here since
// SPEC_FULL.md has no JS-file component (see DESIGN.md).
type QueryName string

const (
	// QueryImports locates import statements, including type-only imports
	// and namespace imports. No package in this module runs it: the
	// transformer reads import bindings by walking the tree (ScanImports).
	QueryImports QueryName = "imports"

	// QueryExports locates every export-affecting statement: named export
	// lists, `export default`, `export * from`, `export * as ns from`,
	// `export { a as b } from`, and declaration-level `export`/`export
	// type` prefixes (spec §4.3).
	QueryExports QueryName = "exports"

	// QuerySymbols locates top-level declarations usable as link or
	// transform entry points: interfaces, type aliases, enums, classes,
	// functions, and const/let/var declarators.
	QuerySymbols QueryName = "symbols"
)

const importsQuerySrc = `
(import_statement
  (import_clause) @import.clause) @import.stmt

(import_statement
  "type"
  (import_clause) @import.clause) @import.type_stmt
`

const exportsQuerySrc = `
(export_statement
  (export_clause
    (export_specifier
      name: (identifier) @export.local
      alias: (identifier)? @export.alias)) @export.clause
  source: (string)? @export.source) @export.stmt

(export_statement
  "type"
  (export_clause) @export.type_clause
  source: (string)? @export.type_source) @export.type_stmt

(export_statement
  "*"
  source: (string) @export.wildcard_source) @export.wildcard_stmt

(export_statement
  "*"
  "as"
  name: (identifier) @export.namespace_name
  source: (string) @export.namespace_source) @export.namespace_stmt

(export_statement
  "default"
  value: (_) @export.default_value) @export.default_stmt

(export_statement
  declaration: (_) @export.declaration) @export.decl_stmt
`

const symbolsQuerySrc = `
(interface_declaration
  name: (type_identifier) @symbol.name) @symbol.interface

(type_alias_declaration
  name: (type_identifier) @symbol.name) @symbol.alias

(enum_declaration
  name: (identifier) @symbol.name) @symbol.enum

(class_declaration
  name: (type_identifier) @symbol.name) @symbol.class

(function_declaration
  name: (identifier) @symbol.name) @symbol.function

(lexical_declaration
  (variable_declarator
    name: (identifier) @symbol.name)) @symbol.variable
`

// queryManager compiles and caches the fixed query set above against the
// language pointer for each grammar variant, lazily and once per variant.
type queryManager struct {
	mu      sync.Mutex
	queries map[Variant]map[QueryName]*ts.Query
}

func newQueryManager() *queryManager {
	return &queryManager{queries: make(map[Variant]map[QueryName]*ts.Query)}
}

var querySources = map[QueryName]string{
	QueryImports: importsQuerySrc,
	QueryExports: exportsQuerySrc,
	QuerySymbols: symbolsQuerySrc,
}

// QueryCapture is one named capture from a query match, with its matched
// node and the UTF-8 text it spans.
type QueryCapture struct {
	Name string
	Node *ts.Node
	Text string
}

// QueryMatch is one match of a compiled query against a tree, with its
// captures in declaration order.
type QueryMatch struct {
	PatternIndex uint32
	Captures     []QueryCapture
}

// Execute runs query against pf's tree and returns structured matches. The
// gatherer and transformer use this instead of touching tree-sitter's raw
// cursor/iterator API directly.
func (m *Manager) Execute(pf *ParsedFile, query *ts.Query) ([]QueryMatch, error) {
	if pf == nil || pf.Tree == nil {
		return nil, fmt.Errorf("tsparse: cannot execute query against nil tree")
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	names := query.CaptureNames()
	iter := cursor.Matches(query, pf.Tree.RootNode(), pf.Source)

	var matches []QueryMatch
	for {
		match := iter.Next()
		if match == nil {
			break
		}

		captures := make([]QueryCapture, 0, len(match.Captures))
		for _, c := range match.Captures {
			name := ""
			if int(c.Index) < len(names) {
				name = names[c.Index]
			}
			captures = append(captures, QueryCapture{
				Name: name,
				Node: &c.Node,
				Text: c.Node.Utf8Text(pf.Source),
			})
		}
		matches = append(matches, QueryMatch{PatternIndex: uint32(match.PatternIndex), Captures: captures})
	}

	return matches, nil
}

func (qm *queryManager) get(lang *ts.Language, variant Variant, name QueryName) (*ts.Query, error) {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	if byVariant, ok := qm.queries[variant]; ok {
		if q, ok := byVariant[name]; ok {
			return q, nil
		}
	} else {
		qm.queries[variant] = make(map[QueryName]*ts.Query)
	}

	src, ok := querySources[name]
	if !ok {
		return nil, fmt.Errorf("tsparse: unknown query %q", name)
	}

	q, qErr := ts.NewQuery(lang, src)
	if qErr != nil {
		return nil, fmt.Errorf("tsparse: failed to compile %s query: %w", name, qErr)
	}

	qm.queries[variant][name] = q
	return q, nil
}
