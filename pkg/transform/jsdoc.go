package transform

import (
	"strings"

	"github.com/tsdocgraph/loader/pkg/docnode"
	"github.com/tsdocgraph/loader/pkg/tsparse"
)

// attachDocComment looks at the declaration node's preceding sibling for a
// `/** ... */` block comment and, if present, parses it per spec §4.5:
// description, access tags (@private/@protected/@public, @deprecated maps to
// private), @default, @return/@returns, per-@param descriptions, and
// @selector. Parameter and return descriptions are distributed into the
// node's own Parameters/ReturnType sub-nodes for function/method/component
// nodes.
func (t *Transformer) attachDocComment(node *tsparse.ASTNode, n *docnode.Node) {
	if node == nil || n == nil {
		return
	}
	comment := node.PrevNamedSibling()
	if comment == nil || comment.GrammarName() != "comment" {
		return
	}
	raw := t.text(comment)
	if !strings.HasPrefix(raw, "/**") {
		return
	}

	doc := parseJSDoc(raw)

	n.Description = doc.description
	if doc.selector != "" {
		n.Selector = doc.selector
	}
	if doc.defaultValue != "" {
		n.Default = doc.defaultValue
	}
	if doc.access != "" {
		n.Access = doc.access
	}
	if doc.returnDesc != "" {
		n.Return = doc.returnDesc
	}
	if len(doc.params) > 0 {
		n.Params = doc.params
		distributeParamDescriptions(n, doc.params)
	}
}

func distributeParamDescriptions(n *docnode.Node, params map[string]string) {
	for _, p := range n.Parameters {
		if p == nil || p.Value == nil {
			continue
		}
		if desc, ok := params[p.Name]; ok {
			p.Value.Description = desc
		}
	}
}

type jsDoc struct {
	description  string
	access       docnode.Access
	defaultValue string
	returnDesc   string
	selector     string
	params       map[string]string
}

// parseJSDoc parses a `/** ... */` comment block into its tagged parts.
// Kept deliberately small: this repo's doc-comment surface (spec §4.5) is a
// fixed, well-known tag set, not general JSDoc/TSDoc — no example repo in
// the corpus parses doc comments, so this is hand-rolled against the
// stdlib, documented as a last resort in DESIGN.md.
func parseJSDoc(raw string) jsDoc {
	body := strings.TrimSuffix(strings.TrimPrefix(raw, "/**"), "*/")
	lines := strings.Split(body, "\n")

	doc := jsDoc{params: make(map[string]string)}
	var descLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)

		if !strings.HasPrefix(line, "@") {
			if line != "" {
				descLines = append(descLines, line)
			}
			continue
		}

		tag, rest := splitTag(line)
		switch tag {
		case "private":
			doc.access = docnode.AccessPrivate
		case "protected":
			doc.access = docnode.AccessProtected
		case "public":
			doc.access = docnode.AccessPublic
		case "deprecated":
			doc.access = docnode.AccessPrivate
		case "default":
			doc.defaultValue = rest
		case "return", "returns":
			doc.returnDesc = rest
		case "selector":
			doc.selector = rest
		case "param":
			name, desc := splitParam(rest)
			if name != "" {
				doc.params[name] = desc
			}
		}
	}

	doc.description = strings.TrimSpace(strings.Join(descLines, " "))
	return doc
}

func splitTag(line string) (tag, rest string) {
	line = strings.TrimPrefix(line, "@")
	parts := strings.SplitN(line, " ", 2)
	tag = parts[0]
	if len(parts) > 1 {
		rest = strings.TrimSpace(parts[1])
	}
	return
}

func splitParam(rest string) (name, desc string) {
	rest = strings.TrimPrefix(rest, "{")
	if idx := strings.Index(rest, "}"); idx >= 0 {
		rest = strings.TrimSpace(rest[idx+1:])
	}
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) == 0 {
		return "", ""
	}
	name = strings.TrimSuffix(strings.TrimPrefix(parts[0], "["), "]")
	if len(parts) > 1 {
		desc = strings.TrimSpace(strings.TrimPrefix(parts[1], "-"))
		desc = strings.TrimSpace(desc)
	}
	return
}
