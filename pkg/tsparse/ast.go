package tsparse

import ts "github.com/tree-sitter/go-tree-sitter"

// ASTNode is the raw tree-sitter node type, re-exported so downstream
// packages (gatherer, transform, linker) depend only on tsparse rather than
// reaching past the facade into go-tree-sitter directly.
type ASTNode = ts.Node

// DeclarationName returns the name of whatever named declaration node wraps
// — interface, type alias, enum, class, function, or the first declarator of
// a lexical (const/let/var) declaration. Used when an `export <declaration>`
// match needs the symbol name the declaration binds. source must be the same
// byte slice the node was parsed from.
func DeclarationName(node *ASTNode, source []byte) string {
	if node == nil {
		return ""
	}

	switch node.GrammarName() {
	case "lexical_declaration", "variable_declaration":
		if declarator := node.NamedChild(0); declarator != nil {
			if name := declarator.ChildByFieldName("name"); name != nil {
				return name.Utf8Text(source)
			}
		}
		return ""
	default:
		if name := node.ChildByFieldName("name"); name != nil {
			return name.Utf8Text(source)
		}
		return ""
	}
}
