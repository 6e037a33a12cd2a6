package server

import (
	"github.com/sourcegraph/go-lsp"

	"github.com/ralph-lsp/ralph-lsp/internal/core"
	"github.com/ralph-lsp/ralph-lsp/internal/source"
	"github.com/ralph-lsp/ralph-lsp/internal/workspace"
)

// diagnosticSet is one URI's diagnostics, carried alongside the URI itself
// so publishParams can round-trip it back to lsp.DocumentURI.
type diagnosticSet struct {
	uri         core.URI
	diagnostics []lsp.Diagnostic
}

// Diagnostics computes the full publish set between two workspace
// snapshots: every URI with diagnostics in next, plus an empty diagnostic
// list for every URI that had diagnostics in previous but none in next, so
// the client clears stale errors rather than leaving them stuck (spec §4.L
// "clear diagnostics for URIs that had errors in the previous state but not
// the new one").
func Diagnostics(previous, next workspace.State) map[string]diagnosticSet {
	out := map[string]diagnosticSet{}

	for uri, msgs := range collect(next) {
		out[uri.String()] = diagnosticSet{uri: uri, diagnostics: msgs}
	}

	for uri := range collect(previous) {
		if _, ok := out[uri.String()]; !ok {
			out[uri.String()] = diagnosticSet{uri: uri, diagnostics: []lsp.Diagnostic{}}
		}
	}

	return out
}

// collect gathers every URI with a non-empty diagnostic list out of a
// workspace snapshot: the build file's own errors, plus each source file's
// parse/compile errors or compile warnings.
func collect(state workspace.State) map[core.URI][]lsp.Diagnostic {
	out := map[core.URI][]lsp.Diagnostic{}

	if len(state.Build.Errors) > 0 && !state.Build.BuildURI.IsZero() {
		table := core.NewLineTable(state.Build.Code)
		out[state.Build.BuildURI] = toDiagnostics(state.Build.Errors, table)
	}

	for _, src := range state.Sources {
		msgs := sourceMessages(src)
		if len(msgs) == 0 {
			continue
		}
		table := core.NewLineTable(src.Code)
		out[src.FileURI] = toDiagnostics(msgs, table)
	}

	return out
}

func sourceMessages(src source.State) []core.CompilerMessage {
	var out []core.CompilerMessage
	out = append(out, src.Errors...)
	out = append(out, src.Warnings...)
	return out
}

func toDiagnostics(msgs []core.CompilerMessage, table *core.LineTable) []lsp.Diagnostic {
	out := make([]lsp.Diagnostic, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ToDiagnostic(table.Position))
	}
	return out
}
