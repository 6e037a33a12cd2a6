// Package search implements §4.I (AST walk utilities, inheritance
// collectors) and component O, the per-function scope table.
package search

import (
	"sort"

	"github.com/ralph-lsp/ralph-lsp/internal/build"
	"github.com/ralph-lsp/ralph-lsp/internal/compiler"
	"github.com/ralph-lsp/ralph-lsp/internal/core"
)

// TypedSource pairs a parsed file with the URI it was read from — the
// "SourceLocation.Code view" the glossary's collectParsed assembles across
// workspace and dependency sources alike.
type TypedSource struct {
	URI  core.URI
	File *compiler.File
}

// CollectParsed concatenates workspace sources with dependency sources into
// a single list of TypedSource, the shared input every collector below
// walks over.
func CollectParsed(workspace []TypedSource, dep *build.Dependency) []TypedSource {
	if dep == nil {
		return workspace
	}
	out := make([]TypedSource, 0, len(workspace)+len(dep.All()))
	out = append(out, workspace...)
	for _, d := range dep.All() {
		if d.File == nil {
			continue
		}
		out = append(out, TypedSource{URI: d.URI, File: d.File})
	}
	return out
}

// FindLast performs a depth-first descent from root, returning the deepest
// node whose SourceIndex contains offset, or nil if root itself does not.
func FindLast(root compiler.Node, offset int) compiler.Node {
	if root == nil || !root.Index().Contains(offset) {
		return nil
	}
	best := root
	for _, child := range root.Children() {
		if found := FindLast(child, offset); found != nil {
			best = found
		}
	}
	return best
}

// WalkDown performs a pre-order traversal of root.
func WalkDown(root compiler.Node) []compiler.Node {
	if root == nil {
		return nil
	}
	out := []compiler.Node{root}
	for _, child := range root.Children() {
		out = append(out, WalkDown(child)...)
	}
	return out
}

// TypeName returns the declared type name of a Contract or Interface file,
// the identity collectInheritanceInScope/collectImplementingChildren key on.
func TypeName(f *compiler.File) (string, bool) {
	switch {
	case f.Body.Contract != nil:
		return f.Body.Contract.Name.Name, true
	case f.Body.Interface != nil:
		return f.Body.Interface.Name.Name, true
	}
	return "", false
}

func parentNames(f *compiler.File) []string {
	var ids []*compiler.TypeId
	switch {
	case f.Body.Contract != nil:
		ids = append(ids, f.Body.Contract.Extends...)
		ids = append(ids, f.Body.Contract.Implements...)
	case f.Body.Interface != nil:
		ids = append(ids, f.Body.Interface.Extends...)
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, id.Name)
	}
	return names
}

// CollectInheritanceInScope returns the transitive closure of src's
// extends/implements parents across allSources, excluding src itself,
// de-duplicated and cycle-safe via a visited-name worklist (spec §4.I,
// invariant 6).
func CollectInheritanceInScope(src TypedSource, allSources []TypedSource) []TypedSource {
	selfName, _ := TypeName(src.File)
	visited := map[string]bool{selfName: true}

	byName := make(map[string]TypedSource, len(allSources))
	for _, s := range allSources {
		if name, ok := TypeName(s.File); ok {
			byName[name] = s
		}
	}

	var result []TypedSource
	worklist := parentNames(src.File)
	for len(worklist) > 0 {
		name := worklist[0]
		worklist = worklist[1:]
		if visited[name] {
			continue
		}
		visited[name] = true

		parent, ok := byName[name]
		if !ok {
			continue
		}
		result = append(result, parent)
		worklist = append(worklist, parentNames(parent.File)...)
	}
	return result
}

// CollectImplementingChildren is the reverse of CollectInheritanceInScope:
// every source (transitively) naming src as a parent.
func CollectImplementingChildren(src TypedSource, allSources []TypedSource) []TypedSource {
	selfName, ok := TypeName(src.File)
	if !ok {
		return nil
	}
	visited := map[string]bool{selfName: true}

	var result []TypedSource
	frontier := []string{selfName}
	for len(frontier) > 0 {
		name := frontier[0]
		frontier = frontier[1:]

		for _, s := range allSources {
			sName, ok := TypeName(s.File)
			if !ok || visited[sName] {
				continue
			}
			for _, p := range parentNames(s.File) {
				if p == name {
					visited[sName] = true
					result = append(result, s)
					frontier = append(frontier, sName)
					break
				}
			}
		}
	}
	return result
}

// ScopeEntry is one name binding visible within a function, anchored at the
// offset it becomes visible from.
type ScopeEntry struct {
	Name   string
	Node   compiler.Node
	Offset int
}

// ScopeTable is the per-function name→node index, ordered by source offset
// for "nearest enclosing" lookups (glossary "Scope table").
type ScopeTable struct {
	entries []ScopeEntry
}

// BuildScopeTable indexes fn's parameters (the only bindings this language's
// grammar introduces outside of literals) by declaration offset.
func BuildScopeTable(fn *compiler.FuncDef) *ScopeTable {
	entries := make([]ScopeEntry, 0, len(fn.Params))
	for _, p := range fn.Params {
		entries = append(entries, ScopeEntry{Name: p.Name.Name, Node: p, Offset: p.Index().Offset})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Offset < entries[j].Offset })
	return &ScopeTable{entries: entries}
}

// Lookup finds the binding for name visible at atOffset: the latest entry
// at or before atOffset, matching "nearest enclosing" semantics.
func (t *ScopeTable) Lookup(name string, atOffset int) (compiler.Node, bool) {
	var found compiler.Node
	for _, e := range t.entries {
		if e.Offset > atOffset {
			break
		}
		if e.Name == name {
			found = e.Node
		}
	}
	return found, found != nil
}

// Names returns every bound name in the table, for completion's local
// variable suggestions (§4.K).
func (t *ScopeTable) Names() []string {
	out := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.Name)
	}
	return out
}
