// Package docnode defines the language-neutral documentation node tree that the
// rest of the pipeline (gatherer, transformer, linker) builds, resolves, and
// serializes. It is the Go analogue of a TypeScript discriminated union: one
// Kind field plus a closed set of optional attribute groups, instead of N
// separate node types, so the transformer and linker can pattern-switch on
// Kind the way the teacher's query layer pattern-switches on capture category.
package docnode

import (
	om "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies which variant of the Node union a given Node represents.
// String values are the lowercase discriminants used in the serialized output.
type Kind string

const (
	KindAny         Kind = "any"
	KindNull        Kind = "null"
	KindUndefined   Kind = "undefined"
	KindVoid        Kind = "void"
	KindUnknown     Kind = "unknown"
	KindNever       Kind = "never"
	KindThis        Kind = "this"
	KindSymbol      Kind = "symbol"
	KindBoolean     Kind = "boolean"
	KindString      Kind = "string"
	KindNumber      Kind = "number"
	KindArray       Kind = "array"
	KindTuple       Kind = "tuple"
	KindObject      Kind = "object"
	KindUnion       Kind = "union"
	KindIntersect   Kind = "intersection"
	KindTemplate    Kind = "template"
	KindTypeParam   Kind = "typeParameter"
	KindParam       Kind = "parameter"
	KindEnum        Kind = "enum"
	KindEnumMember  Kind = "enumMember"
	KindInterface   Kind = "interface"
	KindProperty    Kind = "property"
	KindMethod      Kind = "method"
	KindFunction    Kind = "function"
	KindComponent   Kind = "component"
	KindApplication Kind = "application"
	KindIdentifier  Kind = "identifier"
	KindReference   Kind = "reference"
	KindAlias       Kind = "alias"
	KindTypeOp      Kind = "typeOperator"
	KindKeyof       Kind = "keyof"
	KindConditional Kind = "conditional"
	KindIndexed     Kind = "indexedAccess"
	KindLink        Kind = "link"
)

// TypeOperator identifies the operator carried by a typeOperator node.
type TypeOperator string

const (
	OpKeyof    TypeOperator = "keyof"
	OpTypeof   TypeOperator = "typeof"
	OpReadonly TypeOperator = "readonly"
	OpUnique   TypeOperator = "unique"
)

// Access mirrors the JSDoc access tags a declaration may carry.
type Access string

const (
	AccessPublic    Access = "public"
	AccessProtected Access = "protected"
	AccessPrivate   Access = "private"
)

// PropertyMap is an insertion-order-preserving name -> (Property|Method) map.
// Source declaration order is part of the documented contract (spec §3, §8);
// a plain Go map cannot satisfy it, so every ordered mapping in this package
// is backed by orderedmap.OrderedMap.
type PropertyMap = om.OrderedMap[string, *Node]

// NewPropertyMap returns an empty, insertion-ordered property map.
func NewPropertyMap() *PropertyMap { return om.New[string, *Node]() }

// TemplateElement is one piece of a `template` node: either a literal string
// fragment or an embedded type expression.
type TemplateElement struct {
	Literal  string `json:"literal,omitempty"`
	Embedded *Node  `json:"embedded,omitempty"`
}

// Param describes one function/method parameter as carried on Function.
type Param struct {
	Name     string `json:"name"`
	Value    *Node  `json:"value"`
	Optional bool   `json:"optional"`
	Rest     bool   `json:"rest"`
}

// EnumMember is one member of an `enum` node; Value is nil when the member
// has no explicit initializer.
type EnumMember struct {
	Name  string  `json:"name"`
	Value *string `json:"value,omitempty"`
}

// Node is the single Go representation of every documentation node variant
// described in spec §3. Only the fields relevant to Kind are populated; this
// mirrors a tagged union without needing Go generics or an interface per
// variant, which keeps the transformer's dispatch table (pkg/transform) and
// the linker's generic walker (pkg/linker) simple: both operate on *Node
// uniformly and switch on Kind only where behavior actually differs.
type Node struct {
	Kind Kind `json:"type"`

	// Shared documentation fields (spec §3 "All share optional documentation fields").
	Description string            `json:"description,omitempty"`
	Access      Access            `json:"access,omitempty"`
	Default     string            `json:"default,omitempty"`
	Selector    string            `json:"selector,omitempty"`
	Return      string            `json:"returnDescription,omitempty"`
	Params      map[string]string `json:"params,omitempty"`

	// Identity. Only interface/alias/function/component nodes carry a
	// stable Id; it is the only thing permitted as a link target.
	ID   NodeID `json:"id,omitempty"`
	Name string `json:"name,omitempty"`

	// boolean/string/number literal value (absent means the bare keyword type).
	Value *string `json:"value,omitempty"`

	// array
	ElementType *Node `json:"elementType,omitempty"`

	// tuple / union / intersection / template share an ordered element list.
	Elements []*Node `json:"elements,omitempty"`

	// object / interface
	Properties *PropertyMap `json:"properties,omitempty"`

	// interface
	Extends []*Node `json:"extends,omitempty"`

	// property / method
	Optional      bool   `json:"optional,omitempty"`
	IndexType     *Node  `json:"indexType,omitempty"`
	InheritedFrom NodeID `json:"inheritedFrom,omitempty"`
	// PropertyValue is a property node's type (spec §3 property.value);
	// kept distinct from the literal-primitive Value string above since the
	// two variants use the same spec field name for different shapes.
	PropertyValue *Node `json:"value,omitempty"`

	// function / method value / component
	Parameters     []*Param `json:"parameters,omitempty"`
	ReturnType     *Node    `json:"returnNode,omitempty"`
	TypeParameters []*Node  `json:"typeParameters,omitempty"`

	// typeParameter
	Constraint       *Node `json:"constraint,omitempty"`
	TypeParamDefault *Node `json:"typeParamDefault,omitempty"`

	// parameter (when a Node itself represents a bare `parameter` kind,
	// distinct from the Param struct embedded on function/method nodes)
	ParamValue *Node `json:"paramValue,omitempty"`
	Rest       bool  `json:"rest,omitempty"`

	// enum
	Members []EnumMember `json:"members,omitempty"`

	// component
	Props *Node `json:"props,omitempty"`
	Ref   *Node `json:"ref,omitempty"`

	// application
	Base *Node `json:"base,omitempty"`

	// reference (never survives into linker output)
	Local     string `json:"local,omitempty"`
	Imported  string `json:"imported,omitempty"`
	Specifier string `json:"specifier,omitempty"`

	// alias
	AliasValue *Node `json:"aliasValue,omitempty"`

	// typeOperator / keyof
	Operator  TypeOperator `json:"operator,omitempty"`
	OperandOf *Node        `json:"operand,omitempty"`

	// conditional
	CheckType   *Node `json:"checkType,omitempty"`
	ExtendsType *Node `json:"extendsType,omitempty"`
	TrueType    *Node `json:"trueType,omitempty"`
	FalseType   *Node `json:"falseType,omitempty"`

	// indexedAccess
	ObjectType *Node `json:"objectType,omitempty"`

	// template
	TemplateParts []TemplateElement `json:"templateParts,omitempty"`

	// link (linker output only — the transformer never produces one)
	LinkID NodeID `json:"linkId,omitempty"`
}

// Clone returns a shallow copy of n with its own Params map header (callers
// that mutate Params on a shared prototype node — e.g. doc-comment
// attachment during transform — must not see that mutation through every
// other reference to the same *Node).
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cp := *n
	if n.Params != nil {
		cp.Params = make(map[string]string, len(n.Params))
		for k, v := range n.Params {
			cp.Params[k] = v
		}
	}
	return &cp
}

// IsLinkable reports whether a node of this kind is permitted as a link
// target (spec §3 invariant: "the only node kinds permitted as link targets").
func (k Kind) IsLinkable() bool {
	return k == KindInterface || k == KindAlias
}
