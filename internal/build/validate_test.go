package build

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/ralph-lsp/ralph-lsp/internal/access"
	"github.com/ralph-lsp/ralph-lsp/internal/core"
)

func TestValidateBuildURI(t *testing.T) {
	workspace := core.NewURI("/workspace")

	cases := map[string]struct {
		reason   string
		buildURI core.URI
		wantErr  bool
	}{
		"DirectlyInRoot": {
			reason:   "A build file directly under the workspace root is valid.",
			buildURI: workspace.Join("ralph.json"),
			wantErr:  false,
		},
		"Nested": {
			reason:   "A build file nested beneath the workspace root is invalid.",
			buildURI: workspace.Join("nested", "ralph.json"),
			wantErr:  true,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, isErr := ValidateBuildURI(workspace, tc.buildURI)
			if isErr != tc.wantErr {
				t.Errorf("\n%s\nValidateBuildURI(...): want isErr=%v, got %v", tc.reason, tc.wantErr, isErr)
			}
		})
	}
}

func TestValidateAccumulatesErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	acc := access.New(fs)
	workspace := core.NewURI("/workspace")
	buildURI := workspace.Join("ralph.json")

	parsed := State{
		Kind:     Parsed,
		BuildURI: buildURI,
		Code:     `{"contractPath": "src", "artifactPath": "../outside"}`,
		Config:   Config{ContractPath: "src", ArtifactPath: "../outside"},
	}

	got := Validate(parsed, workspace, acc)

	if got.Kind != Errored {
		t.Fatalf("Validate(...).Kind: want Errored, got %v", got.Kind)
	}
	// contractPath doesn't exist on disk, artifactPath is outside the
	// workspace: both are independent failures, accumulated together.
	if len(got.Errors) != 2 {
		t.Fatalf("Validate(...).Errors: want 2 errors, got %d", len(got.Errors))
	}
}

func TestValidateSucceeds(t *testing.T) {
	fs := afero.NewMemMapFs()
	acc := access.New(fs)
	workspace := core.NewURI("/workspace")
	buildURI := workspace.Join("ralph.json")

	if err := fs.MkdirAll("/workspace/src", 0o755); err != nil {
		t.Fatalf("MkdirAll: unexpected error: %v", err)
	}
	if err := fs.MkdirAll("/workspace/out", 0o755); err != nil {
		t.Fatalf("MkdirAll: unexpected error: %v", err)
	}

	parsed := State{
		Kind:     Parsed,
		BuildURI: buildURI,
		Code:     `{"contractPath": "src", "artifactPath": "out"}`,
		Config:   Config{ContractPath: "src", ArtifactPath: "out"},
	}

	got := Validate(parsed, workspace, acc)

	if got.Kind != Compiled {
		t.Fatalf("Validate(...).Kind: want Compiled, got %v", got.Kind)
	}
	if got.Config.ContractPath != "/workspace/src" {
		t.Errorf("Validate(...).Config.ContractPath: want %q, got %q", "/workspace/src", got.Config.ContractPath)
	}
}
