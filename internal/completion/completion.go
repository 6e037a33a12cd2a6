// Package completion implements §4.K: the completion dispatcher, which
// selects a context-appropriate suggester from the AST node under the
// cursor.
package completion

import (
	"github.com/ralph-lsp/ralph-lsp/internal/build"
	"github.com/ralph-lsp/ralph-lsp/internal/compiler"
	"github.com/ralph-lsp/ralph-lsp/internal/core"
	"github.com/ralph-lsp/ralph-lsp/internal/search"
	"github.com/ralph-lsp/ralph-lsp/internal/workspace"
)

// Kind is the closed set of suggestion kinds (spec §4.K).
type Kind int

const (
	KindVariable Kind = iota
	KindFunction
	KindType
	KindInterface
	KindKeyword
)

// Suggestion is one completion candidate.
type Suggestion struct {
	Label         string
	Detail        string
	Documentation string
	Insert        string
	Kind          Kind
}

// keywords are the grammar's reserved words, offered unconditionally inside
// a function body (spec §4.K "plus built-in functions").
var keywords = []string{"return", "pub", "fn", "extends", "implements", "import"}

// Resolve finds the deepest node at cursorOffset and dispatches completion:
// only inside a FuncDef body does it produce suggestions (spec §4.K "any
// other context → empty").
func Resolve(cursorOffset int, fileURI core.URI, file *compiler.File, ws workspace.State) []Suggestion {
	if file == nil {
		return nil
	}
	node := search.FindLast(file, cursorOffset)
	if node == nil {
		return nil
	}

	fn := enclosingFuncDef(node)
	if fn == nil || fn.Body == nil || !fn.Body.Index().Contains(cursorOffset) {
		return nil
	}

	workspaceSources := collectWorkspaceSources(ws)
	allSources := search.CollectParsed(workspaceSources, ws.Build.Dependency)

	self := search.TypedSource{URI: fileURI, File: file}

	var out []Suggestion
	out = append(out, localVariables(fn)...)
	out = append(out, inheritedSignatures(self, allSources)...)
	if recv, ok := receiverBeforeDot(node, cursorOffset); ok {
		out = append(out, receiverMembers(recv, self, allSources)...)
	}
	out = append(out, builtInFunctions(ws.Build.Dependency)...)
	out = append(out, keywordSuggestions()...)
	return out
}

func collectWorkspaceSources(ws workspace.State) []search.TypedSource {
	out := make([]search.TypedSource, 0, len(ws.Sources))
	for _, s := range ws.Sources {
		if s.File == nil {
			continue
		}
		out = append(out, search.TypedSource{URI: s.FileURI, File: s.File})
	}
	return out
}

func enclosingFuncDef(n compiler.Node) *compiler.FuncDef {
	for cur := n; cur != nil; cur = cur.Parent() {
		if fn, ok := cur.(*compiler.FuncDef); ok {
			return fn
		}
	}
	return nil
}

// localVariables offers every name bound in the enclosing function's scope
// table (spec §4.K "local variables visible at offset").
func localVariables(fn *compiler.FuncDef) []Suggestion {
	table := search.BuildScopeTable(fn)
	names := table.Names()
	out := make([]Suggestion, 0, len(names))
	for _, name := range names {
		out = append(out, Suggestion{Label: name, Insert: name, Kind: KindVariable})
	}
	return out
}

// inheritedSignatures offers every function signature visible through the
// owning contract/interface's extends/implements chain.
func inheritedSignatures(self search.TypedSource, allSources []search.TypedSource) []Suggestion {
	var out []Suggestion
	for _, parent := range search.CollectInheritanceInScope(self, allSources) {
		out = append(out, functionSuggestions(parent.File)...)
	}
	return out
}

func functionSuggestions(file *compiler.File) []Suggestion {
	var out []Suggestion
	for _, fn := range declFuncs(file) {
		out = append(out, Suggestion{
			Label:  fn.Id.Name,
			Detail: signatureDetail(fn),
			Insert: fn.Id.Name,
			Kind:   KindFunction,
		})
	}
	return out
}

func signatureDetail(fn *compiler.FuncDef) string {
	ret := ""
	if fn.RetType != nil {
		ret = " -> " + fn.RetType.Name
	}
	return fn.Id.Name + "(...)" + ret
}

func declFuncs(f *compiler.File) []*compiler.FuncDef {
	switch {
	case f.Body.Contract != nil:
		return f.Body.Contract.Funcs
	case f.Body.Interface != nil:
		return f.Body.Interface.Funcs
	}
	return nil
}

// receiverBeforeDot reports whether node is a FieldAccess/ContractCallExpr,
// returning its receiver expression. offset is not consulted: any cursor
// position for which FindLast returned the node itself counts.
func receiverBeforeDot(node compiler.Node, offset int) (compiler.Node, bool) {
	switch n := node.(type) {
	case *compiler.FieldAccess:
		return n.Receiver, true
	case *compiler.ContractCallExpr:
		return n.Receiver, true
	}
	return nil, false
}

// receiverMembers offers the contract members (function signatures) of the
// receiver expression's inferred type, once the cursor follows a '.' (spec
// §4.K). As with go-to-definition, type inference on the receiver is
// resolved via the same direct-name/parameter-type heuristics rather than an
// absent Tpe field.
func receiverMembers(receiver compiler.Node, self search.TypedSource, allSources []search.TypedSource) []Suggestion {
	id, ok := receiver.(*compiler.Ident)
	if !ok {
		return nil
	}
	if src, ok := sourceByTypeName(id.Name, allSources); ok {
		return functionSuggestions(src.File)
	}
	for _, p := range declParams(self.File) {
		if p.Name.Name == id.Name {
			if src, ok := sourceByTypeName(p.Type.Name, allSources); ok {
				return functionSuggestions(src.File)
			}
		}
	}
	return nil
}

func declParams(f *compiler.File) []*compiler.Param {
	switch {
	case f.Body.Contract != nil:
		return f.Body.Contract.Params
	case f.Body.Script != nil:
		return f.Body.Script.Params
	}
	return nil
}

func sourceByTypeName(name string, allSources []search.TypedSource) (search.TypedSource, bool) {
	for _, src := range allSources {
		if n, ok := search.TypeName(src.File); ok && n == name {
			return src, true
		}
	}
	return search.TypedSource{}, false
}

func builtInFunctions(dep *build.Dependency) []Suggestion {
	if dep == nil {
		return nil
	}
	var out []Suggestion
	for _, d := range dep.Sources[build.BuiltIn] {
		if d.File == nil {
			continue
		}
		out = append(out, functionSuggestions(d.File)...)
	}
	return out
}

func keywordSuggestions() []Suggestion {
	out := make([]Suggestion, 0, len(keywords))
	for _, k := range keywords {
		out = append(out, Suggestion{Label: k, Insert: k, Kind: KindKeyword})
	}
	return out
}
