package tsparse

import (
	"path/filepath"
	"strings"
)

// Variant distinguishes the two tree-sitter grammars the TypeScript binding
// ships: plain TypeScript and its JSX-enabled superset, TSX. Spec §4.1
// requires the parser facade to accept class fields, generics, JSX, dynamic
// import, export-from-default, export-namespace-from and private class
// members — the TSX grammar is a strict superset for the JSX productions, so
// Variant only needs to flip which one is requested.
type Variant int

const (
	VariantTypeScript Variant = iota
	VariantTSX
)

// String names the variant for log lines; unrecognized values fall back to
// "unknown" rather than panicking, since a bad Variant is a logging concern
// only.
func (v Variant) String() string {
	switch v {
	case VariantTypeScript:
		return "typescript"
	case VariantTSX:
		return "tsx"
	default:
		return "unknown"
	}
}

// DetectVariant chooses the grammar variant for a file by extension. `.d.ts`
// files are ambient (no runtime declarations required, spec §4.1) but are
// still parsed with the plain TypeScript grammar.
func DetectVariant(filePath string) Variant {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == ".tsx" {
		return VariantTSX
	}
	return VariantTypeScript
}

// IsAmbient reports whether filePath is a `.d.ts` ambient declaration file.
func IsAmbient(filePath string) bool {
	return strings.HasSuffix(strings.ToLower(filePath), ".d.ts")
}

// IsSupported reports whether filePath has an extension the parser facade
// can handle at all (spec is TypeScript-only; out of scope otherwise).
func IsSupported(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".ts", ".tsx", ".mts", ".cts":
		return true
	default:
		return false
	}
}
