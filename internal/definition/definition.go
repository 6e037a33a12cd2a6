// Package definition implements §4.J: go-to-definition resolution,
// dispatching on the AST node kind found under the cursor.
package definition

import (
	"github.com/ralph-lsp/ralph-lsp/internal/build"
	"github.com/ralph-lsp/ralph-lsp/internal/compiler"
	"github.com/ralph-lsp/ralph-lsp/internal/core"
	"github.com/ralph-lsp/ralph-lsp/internal/search"
	"github.com/ralph-lsp/ralph-lsp/internal/workspace"
)

// Location is one jump target: the file and the range within it.
type Location struct {
	URI   core.URI
	Index core.SourceIndex
}

// Resolve finds the deepest node at cursorOffset in file (read from fileURI)
// and dispatches to its defining location(s), per spec §4.J. An empty result
// means either no node matched or the node kind carries no definition.
func Resolve(cursorOffset int, fileURI core.URI, file *compiler.File, ws workspace.State) []Location {
	if file == nil {
		return nil
	}
	node := search.FindLast(file, cursorOffset)
	if node == nil {
		return nil
	}

	workspaceSources := collectWorkspaceSources(ws)
	allSources := search.CollectParsed(workspaceSources, ws.Build.Dependency)

	self := search.TypedSource{URI: fileURI, File: file}

	switch n := node.(type) {
	case *compiler.Ident:
		return resolveIdent(n, self, allSources)
	case *compiler.FuncId:
		return resolveFuncId(n, self, allSources, ws.Build.Dependency)
	case *compiler.TypeId:
		return resolveTypeId(n.Name, allSources)
	default:
		return nil
	}
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

// resolveIdent handles a variable/field reference: the local scope table of
// the enclosing function first, then the fields of the enclosing declaration
// itself and of its inherited parent chain.
func resolveIdent(id *compiler.Ident, self search.TypedSource, allSources []search.TypedSource) []Location {
	fn := enclosingFuncDef(id)
	if fn != nil {
		table := search.BuildScopeTable(fn)
		if param, ok := table.Lookup(id.Name, id.Index().Offset); ok {
			return []Location{{URI: self.URI, Index: param.Index()}}
		}
	}

	var locs []Location
	owners := append([]search.TypedSource{self}, search.CollectInheritanceInScope(self, allSources)...)
	for _, owner := range owners {
		locs = append(locs, fieldLocationsIn(owner, id.Name)...)
	}
	return locs
}

func fieldLocationsIn(src search.TypedSource, name string) []Location {
	var out []Location
	params := declParams(src.File)
	for _, p := range params {
		if p.Name.Name == name {
			out = append(out, Location{URI: src.URI, Index: p.Index()})
		}
	}
	return out
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

// resolveFuncId inspects the parent node of id to determine whether it is a
// call site (resolve to the definition) or a definition itself (resolve to
// its call sites, "find usages").
func resolveFuncId(id *compiler.FuncId, self search.TypedSource, allSources []search.TypedSource, dep *build.Dependency) []Location {
	switch parent := id.Parent().(type) {
	case *compiler.CallExpr:
		if parent.IsBuiltIn {
			return resolveBuiltIn(id.Name, dep)
		}
		return resolveFuncByName(id.Name, self, allSources)
	case *compiler.ContractCallExpr:
		return resolveContractCall(parent, id.Name, self, allSources)
	case *compiler.FuncDef:
		if parent.Id == id {
			return findUsages(id.Name, self, allSources)
		}
	}
	return nil
}

func resolveBuiltIn(name string, dep *build.Dependency) []Location {
	if dep == nil {
		return nil
	}
	for _, d := range dep.Sources[build.BuiltIn] {
		if d.File == nil {
			continue
		}
		if loc, ok := funcSignatureIn(d.URI, d.File, name); ok {
			return []Location{loc}
		}
	}
	return nil
}

func resolveFuncByName(name string, self search.TypedSource, allSources []search.TypedSource) []Location {
	var locs []Location
	sources := append([]search.TypedSource{self}, search.CollectInheritanceInScope(self, allSources)...)
	for _, src := range sources {
		if loc, ok := funcSignatureIn(src.URI, src.File, name); ok {
			locs = append(locs, loc)
		}
	}
	return locs
}

// resolveContractCall resolves a receiver-qualified call `recv.method(...)`.
// The AST never populates TypeId.Tpe with an inferred type (the spec names
// this as an absent-type-inference failure mode, §4.J "Failure modes"), so
// two groundable heuristics stand in for it: the receiver directly names a
// known contract/interface type (the spec §8 E3 style `A.f()` call, where A
// literally is the type name), or the receiver is a local identifier whose
// declared parameter type names one. Neither heuristic resolving is the
// documented failure mode: empty result.
func resolveContractCall(call *compiler.ContractCallExpr, methodName string, self search.TypedSource, allSources []search.TypedSource) []Location {
	recvSrc, ok := resolveReceiverSource(call.Receiver, self, allSources)
	if !ok {
		return nil
	}
	return resolveFuncByName(methodName, recvSrc, allSources)
}

// resolveReceiverSource resolves a ContractCallExpr's receiver to the
// TypedSource it names: either the receiver identifier directly names a
// known contract/interface type (the §8 E3 "A.f()" style call), or it is a
// local identifier bound to a parameter whose declared type names one.
func resolveReceiverSource(receiver compiler.Node, self search.TypedSource, allSources []search.TypedSource) (search.TypedSource, bool) {
	id, ok := receiver.(*compiler.Ident)
	if !ok {
		return search.TypedSource{}, false
	}
	if src, ok := sourceByTypeName(id.Name, allSources); ok {
		return src, true
	}
	for _, p := range declParams(self.File) {
		if p.Name.Name == id.Name {
			return sourceByTypeName(p.Type.Name, allSources)
		}
	}
	return search.TypedSource{}, false
}

func sourceByTypeName(name string, allSources []search.TypedSource) (search.TypedSource, bool) {
	for _, src := range allSources {
		if n, ok := search.TypeName(src.File); ok && n == name {
			return src, true
		}
	}
	return search.TypedSource{}, false
}

func resolveTypeId(name string, allSources []search.TypedSource) []Location {
	if src, ok := sourceByTypeName(name, allSources); ok {
		return []Location{{URI: src.URI, Index: src.File.Index()}}
	}
	return nil
}

// findUsages scans every source in scope for call expressions referencing
// defName (spec §4.J "find usages" on a FuncDef's own FuncId).
func findUsages(defName string, self search.TypedSource, allSources []search.TypedSource) []Location {
	var locs []Location
	sources := append([]search.TypedSource{self}, search.CollectImplementingChildren(self, allSources)...)
	for _, src := range sources {
		for _, node := range search.WalkDown(src.File) {
			switch n := node.(type) {
			case *compiler.CallExpr:
				if n.Id.Name == defName {
					locs = append(locs, Location{URI: src.URI, Index: n.Id.Index()})
				}
			case *compiler.ContractCallExpr:
				if n.CallId.Name == defName {
					locs = append(locs, Location{URI: src.URI, Index: n.CallId.Index()})
				}
			}
		}
	}
	return locs
}

func funcSignatureIn(uri core.URI, file *compiler.File, name string) (Location, bool) {
	for _, fn := range declFuncs(file) {
		if fn.Id.Name == name {
			return Location{URI: uri, Index: fn.Signature()}, true
		}
	}
	return Location{}, false
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

func enclosingFuncDef(n compiler.Node) *compiler.FuncDef {
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		if fn, ok := cur.(*compiler.FuncDef); ok {
			return fn
		}
	}
	return nil
}
