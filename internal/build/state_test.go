package build

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ralph-lsp/ralph-lsp/internal/core"
)

func TestDependencyByRelativePath(t *testing.T) {
	std := DependencySource{RelativePath: "list.ral", Code: "contract List {}"}
	dep := &Dependency{Sources: map[DependencyID][]DependencySource{
		Std: {std},
	}}

	cases := map[string]struct {
		reason string
		rel    string
		ext    string
		want   bool
	}{
		"ExactMatch": {
			reason: "A relative path matching exactly (including extension) resolves.",
			rel:    "list.ral",
			ext:    ".ral",
			want:   true,
		},
		"MissingExtension": {
			reason: "A relative path missing the extension still resolves by appending it.",
			rel:    "list",
			ext:    ".ral",
			want:   true,
		},
		"NoMatch": {
			reason: "An unrelated relative path does not resolve.",
			rel:    "map",
			ext:    ".ral",
			want:   false,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := dep.ByRelativePath(Std, tc.rel, tc.ext)
			if diff := cmp.Diff(tc.want, ok); diff != "" {
				t.Errorf("\n%s\nByRelativePath(...): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestDependencyAll(t *testing.T) {
	dep := &Dependency{Sources: map[DependencyID][]DependencySource{
		Std:     {{RelativePath: "list.ral"}},
		BuiltIn: {{RelativePath: "address.ral"}, {RelativePath: "token.ral"}},
	}}

	got := dep.All()
	if diff := cmp.Diff(3, len(got)); diff != "" {
		t.Errorf("All(): want 3 combined sources, -want, +got:\n%s", diff)
	}
}

func TestDependencyIDString(t *testing.T) {
	if diff := cmp.Diff("std", Std.String()); diff != "" {
		t.Errorf("Std.String(): -want, +got:\n%s", diff)
	}
	if diff := cmp.Diff("built-in", BuiltIn.String()); diff != "" {
		t.Errorf("BuiltIn.String(): -want, +got:\n%s", diff)
	}
}

func TestStateIsCompiledAndIsErrored(t *testing.T) {
	uri := core.NewURI("/workspace/ralph.json")

	compiled := State{Kind: Compiled, BuildURI: uri}
	if !compiled.IsCompiled() {
		t.Errorf("IsCompiled(): want true for a Compiled state")
	}
	if compiled.IsErrored() {
		t.Errorf("IsErrored(): want false for a Compiled state")
	}

	errored := State{Kind: Errored, BuildURI: uri}
	if errored.IsCompiled() {
		t.Errorf("IsCompiled(): want false for an Errored state")
	}
	if !errored.IsErrored() {
		t.Errorf("IsErrored(): want true for an Errored state")
	}
}
