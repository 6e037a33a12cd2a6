// Package compiler is the batch-compiler facade (component B) together with
// a small concrete recursive-descent parser and type-checker for the target
// language. The spec treats the batch compiler as an external black box;
// this package is the self-contained stand-in a real deployment would
// replace with a call out to the actual toolchain, grounded on the shape
// the spec names for the AST (Contract, FuncDef, Ident, TypeId, CallExpr,
// ContractCallExpr) so every other component has something concrete to
// walk.
package compiler

import "github.com/ralph-lsp/ralph-lsp/internal/core"

// NodeKind is the closed set of AST node kinds the rest of the presentation
// compiler dispatches on.
type NodeKind int

const (
	KindFile NodeKind = iota
	KindImportStmt
	KindContract
	KindInterface
	KindScript
	KindFuncDef
	KindParam
	KindBlock
	KindReturnStmt
	KindExprStmt
	KindCallExpr
	KindContractCallExpr
	KindBinaryExpr
	KindFieldAccess
	KindIdent
	KindFuncId
	KindTypeId
	KindIntLiteral
	KindStringLiteral
)

// Node is a single position in the shared, immutable AST. Parent pointers
// are materialized at parse time (spec §9) so resolvers can walk upward
// without building cyclic structures that would complicate sharing the tree
// by reference across components.
type Node interface {
	Kind() NodeKind
	Index() core.SourceIndex
	Parent() Node
	Children() []Node
}

type base struct {
	kind   NodeKind
	index  core.SourceIndex
	parent Node
}

func (b *base) Kind() NodeKind          { return b.kind }
func (b *base) Index() core.SourceIndex { return b.index }
func (b *base) Parent() Node            { return b.parent }

// File is the root of a single parsed source file: zero or more imports
// followed by at most one top-level declaration (a Contract, Interface, or
// Script; an empty file has none). The spec's "Right branch of the contract | script variant"
// language refers to FileBody.Script being populated instead of
// FileBody.Contract.
type File struct {
	base
	URI     core.URI
	Imports []*ImportStmt
	Body    FileBody
}

// FileBody is the tagged contract|script|interface variant at file scope.
type FileBody struct {
	Contract  *ContractDecl
	Interface *InterfaceDecl
	Script    *ScriptDecl
}

// ImportStmt is a single `import "<folder>/<file>"` statement.
type ImportStmt struct {
	base
	Path string // the literal between the quotes, unparsed
}

// ContractDecl is `Contract Name(params) extends P1, P2 implements I1 { members }`.
type ContractDecl struct {
	base
	Name       *TypeId
	Params     []*Param
	Extends    []*TypeId
	Implements []*TypeId
	Funcs      []*FuncDef
}

// InterfaceDecl is `Interface Name extends P1 { signatures }`.
type InterfaceDecl struct {
	base
	Name    *TypeId
	Extends []*TypeId
	Funcs   []*FuncDef
}

// ScriptDecl is a top-level script: `TxScript Name(params) { body }`.
type ScriptDecl struct {
	base
	Name   *TypeId
	Params []*Param
	Body   *Block
}

// Param is a single function or contract parameter: `name: Type`.
type Param struct {
	base
	Name *Ident
	Type *TypeId
}

// FuncDef is a function definition or interface signature: `pub fn
// name(params) -> RetType { body }`. Body is nil for interface signatures.
type FuncDef struct {
	base
	Public  bool
	Id      *FuncId
	Params  []*Param
	RetType *TypeId // nil if the function returns nothing
	Body    *Block  // nil for abstract/interface signatures
}

// Signature returns the SourceIndex of the function's header — its name
// through its return type — used by go-to-definition to anchor a stable
// jump target instead of the whole body (spec §4.J "result coalescing").
func (f *FuncDef) Signature() core.SourceIndex {
	start := f.Id.Index().Offset
	end := f.Id.Index().End()
	if len(f.Params) > 0 {
		end = f.Params[len(f.Params)-1].Index().End()
	}
	if f.RetType != nil {
		end = f.RetType.Index().End()
	}
	return core.SourceIndex{FileURI: f.Id.Index().FileURI, Offset: start, Width: end - start}
}

// Block is a `{ ... }` statement list.
type Block struct {
	base
	Stmts []Node
}

// ReturnStmt is `return <expr>`.
type ReturnStmt struct {
	base
	Value Node
}

// ExprStmt wraps a bare expression used as a statement.
type ExprStmt struct {
	base
	Expr Node
}

// BinaryExpr is `lhs OP rhs`.
type BinaryExpr struct {
	base
	Op       string
	Lhs, Rhs Node
}

// CallExpr is a free function call: `foo(args)`, or, when IsBuiltIn is set,
// a call to a compiler-intrinsic function.
type CallExpr struct {
	base
	Id        *FuncId
	Args      []Node
	IsBuiltIn bool
}

// ContractCallExpr is a receiver-qualified call: `recv.method(args)`.
type ContractCallExpr struct {
	base
	Receiver Node
	CallId   *FuncId
	Args     []Node
}

// FieldAccess is `recv.field` where field is not a call.
type FieldAccess struct {
	base
	Receiver Node
	Field    *Ident
}

// Ident is a variable or field reference.
type Ident struct {
	base
	Name string
}

// FuncId is a function name appearing in a definition or call.
type FuncId struct {
	base
	Name string
}

// TypeId is a type name: a contract, interface, or primitive type
// reference.
type TypeId struct {
	base
	Name string
	// Tpe is a slot for an inferred type expression. Parse never sets it and
	// ContractCallExpr resolution does not read it: receivers are resolved
	// by name in the definition and completion packages.
	Tpe string
}

// IntLiteral is an integer literal expression.
type IntLiteral struct {
	base
	Value string
}

// StringLiteral is a string literal expression. Import paths are not
// StringLiteral nodes; they are kept only as ImportStmt.Path.
type StringLiteral struct {
	base
	Value string
}

// Children implementations below give walkDown (component I) a uniform way
// to descend the tree without each caller knowing every node's shape.

func (f *File) Children() []Node {
	out := make([]Node, 0, len(f.Imports)+1)
	for _, imp := range f.Imports {
		out = append(out, imp)
	}
	if f.Body.Contract != nil {
		out = append(out, f.Body.Contract)
	}
	if f.Body.Interface != nil {
		out = append(out, f.Body.Interface)
	}
	if f.Body.Script != nil {
		out = append(out, f.Body.Script)
	}
	return out
}

func (n *ImportStmt) Children() []Node { return nil }

func (c *ContractDecl) Children() []Node {
	out := []Node{c.Name}
	for _, p := range c.Params {
		out = append(out, p)
	}
	for _, t := range c.Extends {
		out = append(out, t)
	}
	for _, t := range c.Implements {
		out = append(out, t)
	}
	for _, fn := range c.Funcs {
		out = append(out, fn)
	}
	return out
}

func (i *InterfaceDecl) Children() []Node {
	out := []Node{i.Name}
	for _, t := range i.Extends {
		out = append(out, t)
	}
	for _, fn := range i.Funcs {
		out = append(out, fn)
	}
	return out
}

func (s *ScriptDecl) Children() []Node {
	out := []Node{s.Name}
	for _, p := range s.Params {
		out = append(out, p)
	}
	if s.Body != nil {
		out = append(out, s.Body)
	}
	return out
}

func (p *Param) Children() []Node { return []Node{p.Name, p.Type} }

func (f *FuncDef) Children() []Node {
	out := []Node{f.Id}
	for _, p := range f.Params {
		out = append(out, p)
	}
	if f.RetType != nil {
		out = append(out, f.RetType)
	}
	if f.Body != nil {
		out = append(out, f.Body)
	}
	return out
}

func (b *Block) Children() []Node { return b.Stmts }

func (r *ReturnStmt) Children() []Node {
	if r.Value == nil {
		return nil
	}
	return []Node{r.Value}
}

func (e *ExprStmt) Children() []Node { return []Node{e.Expr} }

func (b *BinaryExpr) Children() []Node { return []Node{b.Lhs, b.Rhs} }

func (c *CallExpr) Children() []Node {
	out := []Node{c.Id}
	out = append(out, c.Args...)
	return out
}

func (c *ContractCallExpr) Children() []Node {
	out := []Node{c.Receiver, c.CallId}
	out = append(out, c.Args...)
	return out
}

func (f *FieldAccess) Children() []Node { return []Node{f.Receiver, f.Field} }

func (i *Ident) Children() []Node { return nil }

func (f *FuncId) Children() []Node { return nil }

func (t *TypeId) Children() []Node { return nil }

func (i *IntLiteral) Children() []Node { return nil }

func (s *StringLiteral) Children() []Node { return nil }
