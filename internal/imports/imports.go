// Package imports implements §4.G: the two-pass import resolver, syntactic
// extraction of import statements followed by type-checking them against a
// materialized dependency set.
package imports

import (
	"fmt"
	"strings"

	"github.com/ralph-lsp/ralph-lsp/internal/build"
	"github.com/ralph-lsp/ralph-lsp/internal/compiler"
	"github.com/ralph-lsp/ralph-lsp/internal/core"
)

const fileExt = ".ral"

// Import is a structured view of one `import "<folder>/<file>"` statement
// (spec §6).
type Import struct {
	Folder string
	File   string
	Index  core.SourceIndex
}

// Extract is the syntactic pass: it turns a parsed file's raw ImportStmt
// nodes into structured Imports. Only "folder/file" forms are recognized;
// anything else is reported on the statement's own SourceIndex.
func Extract(file *compiler.File) ([]Import, []core.CompilerMessage) {
	if file == nil {
		return nil, nil
	}
	var imports []Import
	var errs []core.CompilerMessage
	for _, stmt := range file.Imports {
		folder, name, ok := splitImportPath(stmt.Path)
		if !ok {
			errs = append(errs, core.NewError(
				fmt.Sprintf("malformed import path %q, expected \"<folder>/<file>\"", stmt.Path),
				stmt.Index()))
			continue
		}
		imports = append(imports, Import{Folder: folder, File: name, Index: stmt.Index()})
	}
	return imports, errs
}

func splitImportPath(path string) (folder, file string, ok bool) {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 || idx == len(path)-1 {
		return "", "", false
	}
	return path[:idx], path[idx+1:], true
}

// ErrorUnknown is the per-import diagnostic raised when no dependency
// source matches.
type ErrorUnknown struct {
	Import Import
}

func (e ErrorUnknown) Message() core.CompilerMessage {
	return core.NewError(
		fmt.Sprintf("unknown import %q: no such file in the %q dependency", e.Import.File, e.Import.Folder),
		e.Import.Index)
}

// stdFolder is the only dependency subtree users may import from;
// built-in is referenced by go-to-definition only, never importable
// (spec §6).
const stdFolder = "std"

// TypeCheck is the second pass: it resolves each Import against dep,
// returning the dependency sources actually referenced (the inputs to
// compilation) and one CompilerMessage per unresolved import.
func TypeCheck(imports []Import, dep *build.Dependency) ([]build.DependencySource, []core.CompilerMessage) {
	var used []build.DependencySource
	var errs []core.CompilerMessage
	if dep == nil {
		for _, imp := range imports {
			errs = append(errs, ErrorUnknown{Import: imp}.Message())
		}
		return nil, errs
	}
	for _, imp := range imports {
		if imp.Folder != stdFolder {
			errs = append(errs, ErrorUnknown{Import: imp}.Message())
			continue
		}
		src, ok := dep.ByRelativePath(build.Std, imp.File, fileExt)
		if !ok {
			errs = append(errs, ErrorUnknown{Import: imp}.Message())
			continue
		}
		used = append(used, src)
	}
	return used, errs
}
