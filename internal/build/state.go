// Package build implements §4.C-D: the build-file lifecycle (parse,
// validate) and the typed states for it (BuildParsed, BuildCompiled,
// BuildErrored).
package build

import (
	"github.com/ralph-lsp/ralph-lsp/internal/compiler"
	"github.com/ralph-lsp/ralph-lsp/internal/core"
)

// Kind discriminates the BuildState tagged variant.
type Kind int

const (
	Parsed Kind = iota
	Compiled
	Errored
)

// Config is the build file's contents: compiler options plus the two
// workspace-relative directories it names. In a Parsed state the paths are
// exactly as written in ralph.json; in a Compiled state they have been
// resolved to absolute paths inside the workspace (spec §3).
type Config struct {
	CompilerOptions map[string]interface{}
	ContractPath    string
	ArtifactPath    string
}

// DependencyID names one of the two bundled dependency subtrees.
type DependencyID int

const (
	Std DependencyID = iota
	BuiltIn
)

func (d DependencyID) String() string {
	if d == BuiltIn {
		return "built-in"
	}
	return "std"
}

// DependencySource is one materialized, compiled dependency file. It plays
// the role the spec assigns to a WorkspaceState.Compiled source entry, kept
// as a dedicated lightweight type here (rather than a literal
// *workspace.State) to avoid a import cycle between build and workspace:
// build.State.Dependency needs only the handful of fields the rest of the
// pipeline (import resolution, go-to-definition's BuiltIn lookup) actually
// reads.
type DependencySource struct {
	URI          core.URI
	RelativePath string
	Code         string
	File         *compiler.File
}

// Dependency is the synthetic compiled sub-workspace fabricated by the
// dependency loader (§4.E): both std and built-in subtrees, addressable by
// DependencyID.
type Dependency struct {
	Root    core.URI
	Sources map[DependencyID][]DependencySource
}

// ByRelativePath returns the dependency source under id whose path (with or
// without the language's file extension) matches rel, for import resolution
// (spec §4.G).
func (d *Dependency) ByRelativePath(id DependencyID, rel, ext string) (DependencySource, bool) {
	for _, s := range d.Sources[id] {
		if s.RelativePath == rel || s.RelativePath == rel+ext {
			return s, true
		}
	}
	return DependencySource{}, false
}

// All concatenates every dependency source across both subtrees.
func (d *Dependency) All() []DependencySource {
	out := make([]DependencySource, 0, len(d.Sources[Std])+len(d.Sources[BuiltIn]))
	out = append(out, d.Sources[Std]...)
	out = append(out, d.Sources[BuiltIn]...)
	return out
}

// State is the BuildState tagged variant: exactly one of the three shapes
// is meaningful for a given Kind, mirroring the spec's discriminated union
// (see design notes on tagged variants over inheritance).
type State struct {
	Kind Kind

	BuildURI core.URI
	Code     string // absent (empty) only for a pre-read BuildErrored

	// Parsed / Compiled
	Config Config

	// Compiled only
	Dependency     *Dependency
	DependencyPath core.URI

	// Errored only
	Errors           []core.CompilerMessage
	PreviousCompiled *State // retained compiled build, for recovery (spec §4.H "activateWorkspace")
}

// IsCompiled reports whether this state is BuildCompiled.
func (s State) IsCompiled() bool { return s.Kind == Compiled }

// IsErrored reports whether this state is BuildErrored.
func (s State) IsErrored() bool { return s.Kind == Errored }
