package definition

import (
	"testing"

	"github.com/ralph-lsp/ralph-lsp/internal/compiler"
	"github.com/ralph-lsp/ralph-lsp/internal/core"
	"github.com/ralph-lsp/ralph-lsp/internal/source"
	"github.com/ralph-lsp/ralph-lsp/internal/workspace"
)

func parseFile(t *testing.T, path, code string) *compiler.File {
	t.Helper()
	result := compiler.Parse(core.NewURI(path), code)
	if len(result.Errors) > 0 {
		t.Fatalf("Parse(%s): unexpected errors: %v", path, result.Errors)
	}
	return result.File
}

func stateOf(files map[string]*compiler.File) workspace.State {
	var sources []source.State
	for path, f := range files {
		sources = append(sources, source.State{Kind: source.Compiled, FileURI: core.NewURI(path), File: f})
	}
	return workspace.State{Sources: sources}
}

func TestResolveLocalParam(t *testing.T) {
	code := `Contract Foo(x: U256) {
  pub fn bar() {
    return x
  }
}`
	file := parseFile(t, "/ws/foo.ral", code)
	ws := stateOf(map[string]*compiler.File{"/ws/foo.ral": file})

	// Offset of the "x" inside "return x".
	ident := file.Body.Contract.Funcs[0].Body.Stmts[0].(*compiler.ReturnStmt).Value.(*compiler.Ident)

	got := Resolve(ident.Index().Offset, core.NewURI("/ws/foo.ral"), file, ws)
	if len(got) != 1 {
		t.Fatalf("Resolve(...): want 1 location, got %d", len(got))
	}
	if got[0].URI.Path() != "/ws/foo.ral" {
		t.Errorf("Resolve(...): want /ws/foo.ral, got %s", got[0].URI.Path())
	}
}

func TestResolveFuncCall(t *testing.T) {
	code := `Contract Foo() {
  pub fn helper() {
    return 1
  }
  pub fn bar() {
    return helper()
  }
}`
	file := parseFile(t, "/ws/foo.ral", code)
	ws := stateOf(map[string]*compiler.File{"/ws/foo.ral": file})

	call := file.Body.Contract.Funcs[1].Body.Stmts[0].(*compiler.ReturnStmt).Value.(*compiler.CallExpr)

	got := Resolve(call.Id.Index().Offset, core.NewURI("/ws/foo.ral"), file, ws)
	if len(got) != 1 {
		t.Fatalf("Resolve(...): want 1 location (the helper definition), got %d", len(got))
	}
}

func TestResolveFuncDefFindsUsages(t *testing.T) {
	code := `Contract Foo() {
  pub fn helper() {
    return 1
  }
  pub fn bar() {
    return helper()
  }
}`
	file := parseFile(t, "/ws/foo.ral", code)
	ws := stateOf(map[string]*compiler.File{"/ws/foo.ral": file})

	defID := file.Body.Contract.Funcs[0].Id

	got := Resolve(defID.Index().Offset, core.NewURI("/ws/foo.ral"), file, ws)
	if len(got) != 1 {
		t.Fatalf("Resolve(...): want 1 usage site, got %d", len(got))
	}
}

func TestResolveTypeId(t *testing.T) {
	base := parseFile(t, "/ws/base.ral", `Interface Base { }`)
	child := parseFile(t, "/ws/child.ral", `Contract Child() extends Base { }`)
	ws := stateOf(map[string]*compiler.File{
		"/ws/base.ral":  base,
		"/ws/child.ral": child,
	})

	extendsID := child.Body.Contract.Extends[0]
	got := Resolve(extendsID.Index().Offset, core.NewURI("/ws/child.ral"), child, ws)
	if len(got) != 1 {
		t.Fatalf("Resolve(...): want 1 location, got %d", len(got))
	}
	if got[0].URI.Path() != "/ws/base.ral" {
		t.Errorf("Resolve(...): want /ws/base.ral, got %s", got[0].URI.Path())
	}
}

func TestResolveContractCall(t *testing.T) {
	iface := parseFile(t, "/ws/iface.ral", `Interface Token {
  fn balanceOf() -> U256
}`)
	caller := parseFile(t, "/ws/caller.ral", `Contract Caller(token: Token) {
  pub fn check() {
    return token.balanceOf()
  }
}`)
	ws := stateOf(map[string]*compiler.File{
		"/ws/iface.ral":  iface,
		"/ws/caller.ral": caller,
	})

	call := caller.Body.Contract.Funcs[0].Body.Stmts[0].(*compiler.ReturnStmt).Value.(*compiler.ContractCallExpr)

	got := Resolve(call.CallId.Index().Offset, core.NewURI("/ws/caller.ral"), caller, ws)
	if len(got) != 1 {
		t.Fatalf("Resolve(...): want 1 location (the interface method), got %d", len(got))
	}
	if got[0].URI.Path() != "/ws/iface.ral" {
		t.Errorf("Resolve(...): want /ws/iface.ral, got %s", got[0].URI.Path())
	}
}

func TestResolveNoNodeAtOffset(t *testing.T) {
	file := parseFile(t, "/ws/foo.ral", `Contract Foo() { }`)
	ws := stateOf(map[string]*compiler.File{"/ws/foo.ral": file})

	got := Resolve(100000, core.NewURI("/ws/foo.ral"), file, ws)
	if got != nil {
		t.Errorf("Resolve(...): want nil for an offset outside the file, got %v", got)
	}
}
