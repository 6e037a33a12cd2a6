package imports

import (
	"testing"

	"github.com/ralph-lsp/ralph-lsp/internal/build"
	"github.com/ralph-lsp/ralph-lsp/internal/compiler"
	"github.com/ralph-lsp/ralph-lsp/internal/core"
)

func TestExtract(t *testing.T) {
	uri := core.NewURI("/ws/foo.ral")
	result := compiler.Parse(uri, `import "std/list"
Contract Foo() { }`)
	if len(result.Errors) > 0 {
		t.Fatalf("Parse(...): unexpected errors: %v", result.Errors)
	}

	imps, errs := Extract(result.File)
	if len(errs) != 0 {
		t.Fatalf("Extract(...): unexpected errors: %v", errs)
	}
	if len(imps) != 1 {
		t.Fatalf("Extract(...): want 1 import, got %d", len(imps))
	}
	if imps[0].Folder != "std" || imps[0].File != "list" {
		t.Errorf("Extract(...): want std/list, got %s/%s", imps[0].Folder, imps[0].File)
	}
}

func TestExtractMalformedPath(t *testing.T) {
	uri := core.NewURI("/ws/foo.ral")
	result := compiler.Parse(uri, `import "nofolder"
Contract Foo() { }`)
	if len(result.Errors) > 0 {
		t.Fatalf("Parse(...): unexpected errors: %v", result.Errors)
	}

	imps, errs := Extract(result.File)
	if len(imps) != 0 {
		t.Errorf("Extract(...): want no structured imports for a malformed path")
	}
	if len(errs) != 1 {
		t.Fatalf("Extract(...): want 1 error, got %d", len(errs))
	}
}

func TestTypeCheck(t *testing.T) {
	dep := &build.Dependency{Sources: map[build.DependencyID][]build.DependencySource{
		build.Std: {{RelativePath: "list.ral"}},
	}}

	cases := map[string]struct {
		reason  string
		imports []Import
		dep     *build.Dependency
		wantOk  int
		wantErr int
	}{
		"Resolved": {
			reason:  "An import naming a real std dependency resolves cleanly.",
			imports: []Import{{Folder: "std", File: "list"}},
			dep:     dep,
			wantOk:  1,
		},
		"WrongFolder": {
			reason:  "Only the std folder is importable; anything else is unknown.",
			imports: []Import{{Folder: "built-in", File: "list"}},
			dep:     dep,
			wantErr: 1,
		},
		"UnknownFile": {
			reason:  "A std import naming a file absent from the bundle is unknown.",
			imports: []Import{{Folder: "std", File: "missing"}},
			dep:     dep,
			wantErr: 1,
		},
		"NoDependencySet": {
			reason:  "Every import is unknown when no dependency set was loaded.",
			imports: []Import{{Folder: "std", File: "list"}},
			dep:     nil,
			wantErr: 1,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			used, errs := TypeCheck(tc.imports, tc.dep)
			if len(used) != tc.wantOk {
				t.Errorf("\n%s\nTypeCheck(...) resolved: want %d, got %d", tc.reason, tc.wantOk, len(used))
			}
			if len(errs) != tc.wantErr {
				t.Errorf("\n%s\nTypeCheck(...) errors: want %d, got %d", tc.reason, tc.wantErr, len(errs))
			}
		})
	}
}
