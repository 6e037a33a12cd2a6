package compiler

import (
	"fmt"

	"github.com/crossplane/crossplane-runtime/pkg/logging"

	"github.com/ralph-lsp/ralph-lsp/internal/core"
)

// Options mirrors the build file's compilerOptions, passed opaquely through
// to the batch compiler.
type Options struct {
	Raw map[string]interface{}
}

// Unit is one file handed to Compile: its parsed AST plus the URI it came
// from, so outcomes can be distributed back to their originating file
// (spec §4.F "distribute the per-contract outcomes back to their
// originating files").
type Unit struct {
	URI  core.URI
	File *File
}

// Outcome is the per-file result of a Compile call: a non-empty Errors marks
// a failed compile. Contracts names the file's top-level declaration whether
// or not Errors is empty.
type Outcome struct {
	URI       core.URI
	Contracts []string // names of contracts/interfaces/scripts compiled from this file
	Warnings  []core.CompilerMessage
	Errors    []core.CompilerMessage
}

// Compiler is the batch-compiler facade (component B): black-box calls into
// the parser and type-checker. Grounded on the teacher's functional-option
// constructors (e.g. manager.New, cache.NewLocal) for configuring
// long-lived collaborators.
type Compiler struct {
	log logging.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger overrides the default no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Compiler) { c.log = l }
}

// New constructs a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{log: logging.NewNopLogger()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ParseFile parses a single file's source text into an AST, per the
// batch-compiler's parse phase.
func (c *Compiler) ParseFile(uri core.URI, code string) ParseResult {
	return Parse(uri, code)
}

// Compile type-checks the flat list of parsed units against opts, producing
// one Outcome per unit. A minimal, self-contained type-checker: it verifies
// that every bare identifier referenced inside a function body is either a
// parameter or a contract field. Function names in calls are not checked —
// deliberately conservative, since the spec specifies this component's
// interface, not its internal semantics.
//
// extraTypes seeds the batch's visible-types set (dependency contracts and
// interfaces); every unit's own declared name is folded in too, so a
// receiver-qualified call naming another workspace file's contract directly
// (spec §8 E3's `A.f()`, where A is A.ral's own Contract name rather than a
// local parameter) resolves instead of being flagged as an undefined
// identifier.
func (c *Compiler) Compile(units []Unit, opts Options, extraTypes map[string]*File) []Outcome {
	types := make(map[string]*File, len(extraTypes)+len(units))
	for name, f := range extraTypes {
		types[name] = f
	}
	for _, u := range units {
		if u.File == nil {
			continue
		}
		if name, ok := typeName(u.File); ok {
			types[name] = u.File
		}
	}

	out := make([]Outcome, 0, len(units))
	for _, u := range units {
		out = append(out, c.compileUnit(u, types))
	}
	return out
}

// typeName returns the declared type name of a Contract or Interface file,
// mirroring search.TypeName's shape without importing search (which itself
// depends on this package).
func typeName(f *File) (string, bool) {
	switch {
	case f.Body.Contract != nil:
		return f.Body.Contract.Name.Name, true
	case f.Body.Interface != nil:
		return f.Body.Interface.Name.Name, true
	}
	return "", false
}

func (c *Compiler) compileUnit(u Unit, types map[string]*File) Outcome {
	o := Outcome{URI: u.URI}
	if u.File == nil {
		return o
	}

	var scope map[string]bool
	var name string
	switch {
	case u.File.Body.Contract != nil:
		name = u.File.Body.Contract.Name.Name
		scope = paramScope(u.File.Body.Contract.Params)
		for _, fn := range u.File.Body.Contract.Funcs {
			c.checkFunc(fn, scope, types, &o)
		}
	case u.File.Body.Interface != nil:
		name = u.File.Body.Interface.Name.Name
	case u.File.Body.Script != nil:
		name = u.File.Body.Script.Name.Name
		scope = paramScope(u.File.Body.Script.Params)
		c.checkBlock(u.File.Body.Script.Body, scope, types, &o)
	}
	if name != "" {
		o.Contracts = append(o.Contracts, name)
	}
	return o
}

func paramScope(params []*Param) map[string]bool {
	m := make(map[string]bool, len(params))
	for _, p := range params {
		m[p.Name.Name] = true
	}
	return m
}

func (c *Compiler) checkFunc(fn *FuncDef, outerScope map[string]bool, types map[string]*File, o *Outcome) {
	scope := map[string]bool{}
	for k := range outerScope {
		scope[k] = true
	}
	for _, p := range fn.Params {
		scope[p.Name.Name] = true
	}
	if fn.Body != nil {
		c.checkBlock(fn.Body, scope, types, o)
	}
}

func (c *Compiler) checkBlock(b *Block, scope map[string]bool, types map[string]*File, o *Outcome) {
	if b == nil {
		return
	}
	for _, stmt := range b.Stmts {
		c.checkNode(stmt, scope, types, o)
	}
}

// checkNode reports an undefined-identifier error for any bare Ident whose
// name is not in scope. It does not descend into ContractCallExpr/CallExpr
// argument identifiers beyond the same scope rule, and never flags
// FieldAccess/ContractCallExpr/CallExpr/FuncId/TypeId names themselves.
func (c *Compiler) checkNode(n Node, scope map[string]bool, types map[string]*File, o *Outcome) {
	switch v := n.(type) {
	case *ReturnStmt:
		if v.Value != nil {
			c.checkNode(v.Value, scope, types, o)
		}
	case *ExprStmt:
		c.checkNode(v.Expr, scope, types, o)
	case *BinaryExpr:
		c.checkNode(v.Lhs, scope, types, o)
		c.checkNode(v.Rhs, scope, types, o)
	case *CallExpr:
		for _, a := range v.Args {
			c.checkNode(a, scope, types, o)
		}
	case *ContractCallExpr:
		if !receiverNamesKnownType(v.Receiver, types) {
			c.checkNode(v.Receiver, scope, types, o)
		}
		for _, a := range v.Args {
			c.checkNode(a, scope, types, o)
		}
	case *FieldAccess:
		c.checkNode(v.Receiver, scope, types, o)
	case *Ident:
		if v.Name != "" && !scope[v.Name] {
			o.Errors = append(o.Errors, core.NewError(
				fmt.Sprintf("undefined identifier %q", v.Name), v.Index()))
		}
	}
}

// receiverNamesKnownType reports whether a ContractCallExpr's receiver is a
// bare identifier directly naming a known contract/interface type (spec §8
// E3's `A.f()` call, where A is A.ral's own type name rather than a local
// parameter). A receiver bound to a parameter whose declared type names one
// is left to the normal scope check in checkNode's *Ident case, which
// already accepts it regardless of the parameter's type.
func receiverNamesKnownType(receiver Node, types map[string]*File) bool {
	id, ok := receiver.(*Ident)
	if !ok {
		return false
	}
	_, known := types[id.Name]
	return known
}
