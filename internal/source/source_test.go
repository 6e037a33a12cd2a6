package source

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/ralph-lsp/ralph-lsp/internal/access"
	"github.com/ralph-lsp/ralph-lsp/internal/compiler"
	"github.com/ralph-lsp/ralph-lsp/internal/core"
)

func TestSynchroniseKeepsExistingAndAddsNew(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/ws/src", 0o755); err != nil {
		t.Fatalf("MkdirAll: unexpected error: %v", err)
	}
	if err := afero.WriteFile(fs, "/ws/src/a.ral", []byte("Contract A() { }"), 0o644); err != nil {
		t.Fatalf("WriteFile: unexpected error: %v", err)
	}
	if err := afero.WriteFile(fs, "/ws/src/b.ral", []byte("Contract B() { }"), 0o644); err != nil {
		t.Fatalf("WriteFile: unexpected error: %v", err)
	}
	acc := access.New(fs)

	existing := State{Kind: Compiled, FileURI: core.NewURI("/ws/src/a.ral"), Contracts: []string{"A"}}
	out, err := Synchronise(core.NewURI("/ws/src"), []State{existing}, acc)
	if err != nil {
		t.Fatalf("Synchronise(...): unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Synchronise(...): want 2 tracked sources, got %d", len(out))
	}

	var a, b *State
	for i := range out {
		switch out[i].FileURI.String() {
		case core.NewURI("/ws/src/a.ral").String():
			a = &out[i]
		case core.NewURI("/ws/src/b.ral").String():
			b = &out[i]
		}
	}
	if a == nil || a.Kind != Compiled {
		t.Errorf("Synchronise(...): want a.ral to keep its Compiled state untouched, got %v", a)
	}
	if b == nil || b.Kind != OnDisk {
		t.Errorf("Synchronise(...): want b.ral to enter as OnDisk, got %v", b)
	}
}

func TestSynchroniseDropsFilesOutsideDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/ws/src", 0o755); err != nil {
		t.Fatalf("MkdirAll: unexpected error: %v", err)
	}
	acc := access.New(fs)

	stale := State{Kind: Compiled, FileURI: core.NewURI("/ws/other/stale.ral")}
	out, err := Synchronise(core.NewURI("/ws/src"), []State{stale}, acc)
	if err != nil {
		t.Fatalf("Synchronise(...): unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Synchronise(...): want the out-of-dir entry dropped, got %v", out)
	}
}

func TestCodeChanged(t *testing.T) {
	s := State{Kind: Compiled, FileURI: core.NewURI("/ws/src/a.ral"), Code: "old"}

	edited := "new code"
	got := CodeChanged(s, &edited)
	if got.Kind != UnCompiled || got.Code != "new code" {
		t.Errorf("CodeChanged(..., &text): want {UnCompiled, %q}, got %+v", "new code", got)
	}

	reverted := CodeChanged(s, nil)
	if reverted.Kind != OnDisk {
		t.Errorf("CodeChanged(..., nil): want OnDisk, got %v", reverted.Kind)
	}
}

func TestParseReadsFromDiskThenParses(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/ws/src", 0o755); err != nil {
		t.Fatalf("MkdirAll: unexpected error: %v", err)
	}
	if err := afero.WriteFile(fs, "/ws/src/a.ral", []byte("Contract A() { }"), 0o644); err != nil {
		t.Fatalf("WriteFile: unexpected error: %v", err)
	}
	acc := access.New(fs)
	comp := compiler.New()

	s := NewOnDisk(core.NewURI("/ws/src/a.ral"))
	got := Parse(s, comp, acc)
	if got.Kind != Parsed {
		t.Fatalf("Parse(...): want Parsed, got %v (errors: %v)", got.Kind, got.Errors)
	}
	if got.File == nil || got.File.Body.Contract == nil {
		t.Errorf("Parse(...): want a parsed Contract AST")
	}
}

func TestParseMissingFileIsErrorAccess(t *testing.T) {
	fs := afero.NewMemMapFs()
	acc := access.New(fs)
	comp := compiler.New()

	s := NewOnDisk(core.NewURI("/ws/src/missing.ral"))
	got := Parse(s, comp, acc)
	if got.Kind != ErrorAccess {
		t.Fatalf("Parse(...): want ErrorAccess for a missing file, got %v", got.Kind)
	}
	if got.AccessErr == nil {
		t.Errorf("Parse(...): want AccessErr populated")
	}
}

func TestParseSyntaxErrorIsErrorSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	acc := access.New(fs)
	comp := compiler.New()

	s := State{Kind: UnCompiled, FileURI: core.NewURI("/ws/src/a.ral"), Code: "Widget Foo() { }"}
	got := Parse(s, comp, acc)
	if got.Kind != ErrorSource {
		t.Fatalf("Parse(...): want ErrorSource for invalid syntax, got %v", got.Kind)
	}
	if len(got.Errors) == 0 {
		t.Errorf("Parse(...): want at least one syntax error recorded")
	}
}

func TestParseTerminalStatesAreUnchanged(t *testing.T) {
	fs := afero.NewMemMapFs()
	acc := access.New(fs)
	comp := compiler.New()

	compiled := State{Kind: Compiled, FileURI: core.NewURI("/ws/src/a.ral"), Contracts: []string{"A"}}
	if got := Parse(compiled, comp, acc); got.Kind != Compiled || len(got.Contracts) != 1 {
		t.Errorf("Parse(Compiled): want the state returned unchanged, got %+v", got)
	}
}

func TestApplyOutcomeSuccess(t *testing.T) {
	parsed := State{Kind: Parsed, FileURI: core.NewURI("/ws/src/a.ral"), Code: "Contract A() { }"}
	outcome := compiler.Outcome{Contracts: []string{"A"}}

	got := ApplyOutcome(parsed, outcome, nil)
	if got.Kind != Compiled {
		t.Fatalf("ApplyOutcome(...): want Compiled, got %v", got.Kind)
	}
	if len(got.Contracts) != 1 || got.Contracts[0] != "A" {
		t.Errorf("ApplyOutcome(...).Contracts: want [A], got %v", got.Contracts)
	}
}

func TestApplyOutcomeFailureKeepsPreviousParsed(t *testing.T) {
	parsed := State{Kind: Parsed, FileURI: core.NewURI("/ws/src/a.ral"), Code: "Contract A() { }"}
	outcome := compiler.Outcome{Errors: []core.CompilerMessage{core.NewError("undefined identifier \"x\"", core.ZeroIndex(parsed.FileURI))}}

	got := ApplyOutcome(parsed, outcome, nil)
	if got.Kind != ErrorSource {
		t.Fatalf("ApplyOutcome(...): want ErrorSource, got %v", got.Kind)
	}
	if got.Previous == nil || got.Previous.Kind != Parsed {
		t.Fatalf("ApplyOutcome(...): want Previous to retain the Parsed attempt, got %v", got.Previous)
	}
}
