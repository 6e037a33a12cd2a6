package compiler

import (
	"fmt"

	"github.com/ralph-lsp/ralph-lsp/internal/core"
)

// builtinFuncs is the closed set of compiler-intrinsic function names,
// resolved by go-to-definition into the BuiltIn dependency subtree (spec
// §4.J) instead of the user's workspace.
var builtinFuncs = map[string]bool{
	"blake2b":     true,
	"keccak256":   true,
	"sha256":      true,
	"assert":      true,
	"panic":       true,
	"txCaller":    true,
	"blockTimeStamp": true,
}

// ParseResult is the outcome of parsing a single file: the AST Parse built
// (always non-nil, partial when there were syntax errors) and the list of
// syntax errors. A non-empty Errors marks the parse as failed; it is kept as
// two fields here since Parse is a leaf operation, not a tagged workspace
// state.
type ParseResult struct {
	File   *File
	Errors []core.CompilerMessage
}

// Parse runs the recursive-descent parser over code, producing a File AST
// or a set of syntax errors anchored at the offending token.
func Parse(uri core.URI, code string) ParseResult {
	p := &parser{uri: uri, src: code, tokens: lex(code)}
	file := p.parseFile()
	return ParseResult{File: file, Errors: p.errs}
}

type parser struct {
	uri    core.URI
	src    string
	tokens []token
	pos    int
	errs   []core.CompilerMessage
}

func (p *parser) cur() token {
	if p.pos >= len(p.tokens) {
		return token{kind: tokEOF, offset: len(p.src)}
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	t := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *parser) at(text string) bool {
	t := p.cur()
	return (t.kind == tokIdent || t.kind == tokPunct) && t.text == text
}

func (p *parser) expect(text string) token {
	if p.at(text) {
		return p.advance()
	}
	t := p.cur()
	p.errf(t.offset, len(t.text), "expected %q, found %q", text, t.text)
	return t
}

func (p *parser) errf(offset, width int, format string, args ...interface{}) {
	if width <= 0 {
		width = 1
	}
	msg := fmt.Sprintf(format, args...)
	p.errs = append(p.errs, core.NewError(msg, core.SourceIndex{FileURI: p.uri, Offset: offset, Width: width}))
}

func (p *parser) index(start int) core.SourceIndex {
	end := p.cur().offset
	if end <= start {
		end = start + 1
	}
	return core.SourceIndex{FileURI: p.uri, Offset: start, Width: end - start}
}

func (p *parser) parseFile() *File {
	start := p.cur().offset
	f := &File{URI: p.uri}
	f.kind = KindFile

	for p.at("import") {
		f.Imports = append(f.Imports, p.parseImport(f))
	}

	switch {
	case p.at("Contract"):
		c := p.parseContract(f)
		f.Body.Contract = c
	case p.at("Interface"):
		i := p.parseInterface(f)
		f.Body.Interface = i
	case p.at("TxScript"):
		s := p.parseScript(f)
		f.Body.Script = s
	case p.cur().kind == tokEOF:
		// empty file: no top-level declaration, nothing to report
	default:
		t := p.cur()
		p.errf(t.offset, len(t.text), "expected Contract, Interface, or TxScript, found %q", t.text)
	}

	f.index = p.index(start)
	return f
}

func (p *parser) parseImport(parent Node) *ImportStmt {
	start := p.cur().offset
	p.expect("import")
	str := p.cur()
	path := ""
	if str.kind == tokString {
		path = str.text
		p.advance()
	} else {
		p.errf(str.offset, len(str.text), "expected import path string")
	}
	n := &ImportStmt{Path: path}
	n.kind = KindImportStmt
	n.parent = parent
	n.index = p.index(start)
	return n
}

func (p *parser) parseTypeId(parent Node) *TypeId {
	t := p.cur()
	name := t.text
	if t.kind != tokIdent {
		p.errf(t.offset, 1, "expected type name, found %q", t.text)
	} else {
		p.advance()
	}
	n := &TypeId{Name: name}
	n.kind = KindTypeId
	n.parent = parent
	n.index = core.SourceIndex{FileURI: p.uri, Offset: t.offset, Width: maxInt(len(name), 1)}
	return n
}

func (p *parser) parseTypeIdList(parent Node) []*TypeId {
	var out []*TypeId
	out = append(out, p.parseTypeId(parent))
	for p.at(",") {
		p.advance()
		out = append(out, p.parseTypeId(parent))
	}
	return out
}

func (p *parser) parseParamList(parent Node) []*Param {
	p.expect("(")
	var out []*Param
	if !p.at(")") {
		out = append(out, p.parseParam(parent))
		for p.at(",") {
			p.advance()
			out = append(out, p.parseParam(parent))
		}
	}
	p.expect(")")
	return out
}

func (p *parser) parseParam(parent Node) *Param {
	start := p.cur().offset
	n := &Param{}
	n.kind = KindParam
	n.parent = parent
	nameTok := p.advance()
	id := &Ident{Name: nameTok.text}
	id.kind = KindIdent
	id.parent = n
	id.index = core.SourceIndex{FileURI: p.uri, Offset: nameTok.offset, Width: maxInt(len(nameTok.text), 1)}
	n.Name = id
	p.expect(":")
	n.Type = p.parseTypeId(n)
	n.index = p.index(start)
	return n
}

func (p *parser) parseContract(parent Node) *ContractDecl {
	start := p.cur().offset
	n := &ContractDecl{}
	n.kind = KindContract
	n.parent = parent
	p.expect("Contract")
	n.Name = p.parseTypeId(n)
	n.Params = p.parseParamList(n)
	if p.at("extends") {
		p.advance()
		n.Extends = p.parseTypeIdList(n)
	}
	if p.at("implements") {
		p.advance()
		n.Implements = p.parseTypeIdList(n)
	}
	p.expect("{")
	for !p.at("}") && p.cur().kind != tokEOF {
		n.Funcs = append(n.Funcs, p.parseFuncDef(n))
	}
	p.expect("}")
	n.index = p.index(start)
	return n
}

func (p *parser) parseInterface(parent Node) *InterfaceDecl {
	start := p.cur().offset
	n := &InterfaceDecl{}
	n.kind = KindInterface
	n.parent = parent
	p.expect("Interface")
	n.Name = p.parseTypeId(n)
	if p.at("extends") {
		p.advance()
		n.Extends = p.parseTypeIdList(n)
	}
	p.expect("{")
	for !p.at("}") && p.cur().kind != tokEOF {
		n.Funcs = append(n.Funcs, p.parseFuncDef(n))
	}
	p.expect("}")
	n.index = p.index(start)
	return n
}

func (p *parser) parseScript(parent Node) *ScriptDecl {
	start := p.cur().offset
	n := &ScriptDecl{}
	n.kind = KindScript
	n.parent = parent
	p.expect("TxScript")
	n.Name = p.parseTypeId(n)
	n.Params = p.parseParamList(n)
	n.Body = p.parseBlock(n)
	n.index = p.index(start)
	return n
}

func (p *parser) parseFuncDef(parent Node) *FuncDef {
	start := p.cur().offset
	n := &FuncDef{}
	n.kind = KindFuncDef
	n.parent = parent
	if p.at("pub") {
		p.advance()
		n.Public = true
	}
	p.expect("fn")
	idTok := p.cur()
	id := &FuncId{Name: idTok.text}
	id.kind = KindFuncId
	id.parent = n
	id.index = core.SourceIndex{FileURI: p.uri, Offset: idTok.offset, Width: maxInt(len(idTok.text), 1)}
	if idTok.kind == tokIdent {
		p.advance()
	} else {
		p.errf(idTok.offset, 1, "expected function name")
	}
	n.Id = id
	n.Params = p.parseParamList(n)
	if p.at("->") {
		p.advance()
		n.RetType = p.parseTypeId(n)
	}
	if p.at("{") {
		n.Body = p.parseBlock(n)
	}
	n.index = p.index(start)
	return n
}

func (p *parser) parseBlock(parent Node) *Block {
	start := p.cur().offset
	n := &Block{}
	n.kind = KindBlock
	n.parent = parent
	p.expect("{")
	for !p.at("}") && p.cur().kind != tokEOF {
		n.Stmts = append(n.Stmts, p.parseStmt(n))
	}
	p.expect("}")
	n.index = p.index(start)
	return n
}

func (p *parser) parseStmt(parent Node) Node {
	start := p.cur().offset
	if p.at("return") {
		p.advance()
		n := &ReturnStmt{}
		n.kind = KindReturnStmt
		n.parent = parent
		if !p.at("}") {
			n.Value = p.parseExpr(n)
		}
		n.index = p.index(start)
		return n
	}
	n := &ExprStmt{}
	n.kind = KindExprStmt
	n.parent = parent
	n.Expr = p.parseExpr(n)
	n.index = p.index(start)
	return n
}

func (p *parser) parseExpr(parent Node) Node {
	lhs := p.parsePostfix(parent)
	for p.at("+") || p.at("-") {
		opTok := p.advance()
		start := lhs.Index().Offset
		n := &BinaryExpr{Op: opTok.text, Lhs: lhs}
		n.kind = KindBinaryExpr
		n.parent = parent
		n.Rhs = p.parsePostfix(n)
		n.index = p.index(start)
		reparent(n.Lhs, n)
		lhs = n
	}
	return lhs
}

func (p *parser) parsePostfix(parent Node) Node {
	start := p.cur().offset
	recv := p.parsePrimary(parent)
	for {
		switch {
		case p.at("."):
			p.advance()
			nameTok := p.cur()
			if nameTok.kind == tokIdent {
				p.advance()
			}
			if p.at("(") {
				callId := &FuncId{Name: nameTok.text}
				callId.kind = KindFuncId
				callId.index = core.SourceIndex{FileURI: p.uri, Offset: nameTok.offset, Width: maxInt(len(nameTok.text), 1)}
				n := &ContractCallExpr{Receiver: recv, CallId: callId}
				n.kind = KindContractCallExpr
				n.parent = parent
				callId.parent = n
				n.Args = p.parseArgList(n)
				n.index = p.index(start)
				reparent(recv, n)
				recv = n
				continue
			}
			field := &Ident{Name: nameTok.text}
			field.kind = KindIdent
			field.index = core.SourceIndex{FileURI: p.uri, Offset: nameTok.offset, Width: maxInt(len(nameTok.text), 1)}
			n := &FieldAccess{Receiver: recv, Field: field}
			n.kind = KindFieldAccess
			n.parent = parent
			field.parent = n
			n.index = p.index(start)
			reparent(recv, n)
			recv = n
		case p.at("(") && recv.Kind() == KindIdent:
			ident := recv.(*Ident)
			callId := &FuncId{Name: ident.Name}
			callId.kind = KindFuncId
			callId.index = ident.Index()
			n := &CallExpr{Id: callId, IsBuiltIn: builtinFuncs[ident.Name]}
			n.kind = KindCallExpr
			n.parent = parent
			callId.parent = n
			n.Args = p.parseArgList(n)
			n.index = p.index(start)
			recv = n
		default:
			return recv
		}
	}
}

func (p *parser) parseArgList(parent Node) []Node {
	p.expect("(")
	var args []Node
	if !p.at(")") {
		args = append(args, p.parseExpr(parent))
		for p.at(",") {
			p.advance()
			args = append(args, p.parseExpr(parent))
		}
	}
	p.expect(")")
	return args
}

func (p *parser) parsePrimary(parent Node) Node {
	t := p.cur()
	switch t.kind {
	case tokInt:
		p.advance()
		n := &IntLiteral{Value: t.text}
		n.kind = KindIntLiteral
		n.parent = parent
		n.index = core.SourceIndex{FileURI: p.uri, Offset: t.offset, Width: len(t.text)}
		return n
	case tokString:
		p.advance()
		n := &StringLiteral{Value: t.text}
		n.kind = KindStringLiteral
		n.parent = parent
		n.index = core.SourceIndex{FileURI: p.uri, Offset: t.offset, Width: len(t.text) + 2}
		return n
	case tokIdent:
		p.advance()
		n := &Ident{Name: t.text}
		n.kind = KindIdent
		n.parent = parent
		n.index = core.SourceIndex{FileURI: p.uri, Offset: t.offset, Width: maxInt(len(t.text), 1)}
		return n
	case tokPunct:
		if t.text == "(" {
			p.advance()
			inner := p.parseExpr(parent)
			p.expect(")")
			return inner
		}
	}
	p.errf(t.offset, maxInt(len(t.text), 1), "unexpected token %q", t.text)
	p.advance()
	n := &Ident{Name: ""}
	n.kind = KindIdent
	n.parent = parent
	n.index = core.SourceIndex{FileURI: p.uri, Offset: t.offset, Width: 1}
	return n
}

// reparent fixes up child's parent pointer after it is wrapped by a new
// postfix/binary node constructed around it.
func reparent(child Node, newParent Node) {
	switch c := child.(type) {
	case *Ident:
		c.parent = newParent
	case *CallExpr:
		c.parent = newParent
	case *ContractCallExpr:
		c.parent = newParent
	case *FieldAccess:
		c.parent = newParent
	case *BinaryExpr:
		c.parent = newParent
	case *IntLiteral:
		c.parent = newParent
	case *StringLiteral:
		c.parent = newParent
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
