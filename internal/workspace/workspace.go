// Package workspace implements §4.H: the top-level engine that owns the
// build and source-set state machines and orchestrates the pipeline between
// them (build → dependency load → source sync → parse → compile).
package workspace

import (
	"sync"

	"github.com/crossplane/crossplane-runtime/pkg/logging"

	"github.com/ralph-lsp/ralph-lsp/internal/access"
	"github.com/ralph-lsp/ralph-lsp/internal/build"
	"github.com/ralph-lsp/ralph-lsp/internal/compiler"
	"github.com/ralph-lsp/ralph-lsp/internal/core"
	"github.com/ralph-lsp/ralph-lsp/internal/dependency"
	"github.com/ralph-lsp/ralph-lsp/internal/imports"
	"github.com/ralph-lsp/ralph-lsp/internal/search"
	"github.com/ralph-lsp/ralph-lsp/internal/source"
)

// Kind discriminates the WorkspaceState tagged variant.
type Kind int

const (
	Created Kind = iota
	UnCompiledKind
	CompiledKind
	ErroredKind
)

// State is the top-level workspace snapshot: the workspace exclusively owns
// its build and source set (spec §3 "Ownership").
type State struct {
	Kind         Kind
	WorkspaceURI core.URI
	Generation   uint64

	Build   build.State
	Sources []source.State

	PreviousParsed  *State
	WorkspaceErrors []core.CompilerMessage
}

// SourceByURI returns the source state for fileURI, if tracked.
func (s State) SourceByURI(fileURI core.URI) (source.State, bool) {
	for _, src := range s.Sources {
		if src.FileURI.Equal(fileURI) {
			return src, true
		}
	}
	return source.State{}, false
}

// Engine is the single mutable cell the spec's concurrency model describes:
// one workspace per server instance, all mutating operations serialized
// under mu (spec §5).
type Engine struct {
	mu sync.Mutex

	acc  *access.Access
	comp *compiler.Compiler
	dep  *dependency.Loader
	log  logging.Logger

	state      State
	generation uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithAccess overrides the default file-access component.
func WithAccess(acc *access.Access) Option {
	return func(e *Engine) { e.acc = acc }
}

// WithCompiler overrides the default compiler.
func WithCompiler(c *compiler.Compiler) Option {
	return func(e *Engine) { e.comp = c }
}

// WithDependencyLoader overrides the default dependency loader.
func WithDependencyLoader(d *dependency.Loader) Option {
	return func(e *Engine) { e.dep = d }
}

// WithLogger overrides the default no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New constructs an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		acc:  access.NewOS(),
		comp: compiler.New(),
		dep:  dependency.New(),
		log:  logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Snapshot returns the current state, safe for lock-free reads by query
// operations (spec §5 "Query operations ... snapshot the current state
// under the lock, release, and compute on the snapshot").
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Create resets the engine to a fresh Created state for workspaceURI.
func (e *Engine) Create(workspaceURI core.URI) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.state = State{Kind: Created, WorkspaceURI: workspaceURI, Generation: e.generation}
	return e.state
}

// BuildResult distinguishes an unchanged build (adapter clears stale errors
// without invalidating source state) from a real transition.
type BuildResult struct {
	Unchanged bool
	State     State
}

// Build handles a build-file event: parse, validate, load dependencies, and
// (re)synchronize the source set on success (spec §4.H "build").
func (e *Engine) Build(buildURI core.URI, code *string) BuildResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	text, err := e.resolveCode(buildURI, code)
	if err != nil {
		return BuildResult{State: e.enterErrored(buildURI, "", []core.CompilerMessage{
			core.NewError(err.Error(), core.ZeroIndex(buildURI)),
		})}
	}

	if e.state.Build.Code == text && text != "" &&
		(e.state.Build.Kind == build.Compiled || e.state.Build.Kind == build.Errored) {
		return BuildResult{Unchanged: true, State: e.state}
	}

	if msg, invalid := build.ValidateBuildURI(e.state.WorkspaceURI, buildURI); invalid {
		return BuildResult{State: e.enterErrored(buildURI, text, []core.CompilerMessage{msg})}
	}

	parsed := build.Parse(buildURI, text)
	validated := parsed
	if parsed.Kind == build.Parsed {
		validated = build.Validate(parsed, e.state.WorkspaceURI, e.acc)
	}
	if validated.IsErrored() {
		return BuildResult{State: e.enterErrored(buildURI, text, validated.Errors)}
	}

	root, dependencySet, errMsg := e.dep.Load(core.ZeroIndex(buildURI))
	if errMsg != nil {
		return BuildResult{State: e.enterErrored(buildURI, text, []core.CompilerMessage{*errMsg})}
	}
	validated.Dependency = dependencySet
	validated.DependencyPath = root

	sources, err := source.Synchronise(core.NewURI(validated.Config.ContractPath), e.state.Sources, e.acc)
	if err != nil {
		return BuildResult{State: e.enterErrored(buildURI, text, []core.CompilerMessage{
			core.NewError(err.Error(), core.ZeroIndex(buildURI)),
		})}
	}

	e.generation++
	e.state = State{
		Kind:         UnCompiledKind,
		WorkspaceURI: e.state.WorkspaceURI,
		Generation:   e.generation,
		Build:        validated,
		Sources:      sources,
	}
	return BuildResult{State: e.state}
}

func (e *Engine) resolveCode(buildURI core.URI, code *string) (string, error) {
	if code != nil {
		return *code, nil
	}
	return e.acc.Read(buildURI)
}

// enterErrored transitions to a workspace-level Errored state, retaining
// the last successfully compiled build for recovery (spec §4.H
// "activateWorkspace").
func (e *Engine) enterErrored(buildURI core.URI, code string, errs []core.CompilerMessage) State {
	var previousCompiled *build.State
	if e.state.Build.Kind == build.Compiled {
		prev := e.state.Build
		previousCompiled = &prev
	} else {
		previousCompiled = e.state.Build.PreviousCompiled
	}

	e.generation++
	e.state = State{
		Kind:         ErroredKind,
		WorkspaceURI: e.state.WorkspaceURI,
		Generation:   e.generation,
		Build: build.State{
			Kind:             build.Errored,
			BuildURI:         buildURI,
			Code:             code,
			Errors:           errs,
			PreviousCompiled: previousCompiled,
		},
		WorkspaceErrors: errs,
	}
	return e.state
}

// GetOrBuild lazily advances a Created workspace into its first build
// attempt; otherwise it is a no-op snapshot read.
func (e *Engine) GetOrBuild(buildURI core.URI) State {
	e.mu.Lock()
	kind := e.state.Kind
	e.mu.Unlock()
	if kind == Created {
		return e.Build(buildURI, nil).State
	}
	return e.Snapshot()
}

// CodeChanged applies a per-source edit event: updatedCode replaces the
// source with UnCompiled(code); nil transitions it back to OnDisk so the
// next Parse re-reads from disk (spec §4.H "codeChanged").
func (e *Engine) CodeChanged(fileURI core.URI, updatedCode *string) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Edit a copy so snapshots already handed out keep their own Sources.
	sources := make([]source.State, len(e.state.Sources), len(e.state.Sources)+1)
	copy(sources, e.state.Sources)
	found := false
	for i, s := range sources {
		if s.FileURI.Equal(fileURI) {
			sources[i] = source.CodeChanged(s, updatedCode)
			found = true
			break
		}
	}
	if !found {
		sources = append(sources, source.CodeChanged(source.NewOnDisk(fileURI), updatedCode))
	}
	e.state.Sources = sources
	e.generation++
	e.state.Kind = UnCompiledKind
	e.state.Generation = e.generation
	return e.state
}

// ParseAndCompile drives every source through parse, then compiles the full
// Parsed set, folding outcomes (and import-resolution errors) back onto
// their originating files (spec §4.H "parseAndCompile"). A per-file error
// never demotes the workspace as a whole below Compiled — only a
// workspace-level failure (build errors, dependency load failure) does that
// (spec §7 error taxonomy).
func (e *Engine) ParseAndCompile() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Build.Kind != build.Compiled {
		return e.state
	}

	previous := e.state

	parsed := make([]source.State, len(e.state.Sources))
	for i, s := range e.state.Sources {
		parsed[i] = source.Parse(s, e.comp, e.acc)
	}

	extraTypes := dependencyTypes(e.state.Build.Dependency)

	var units []compiler.Unit
	importErrsByURI := map[string][]core.CompilerMessage{}
	for _, s := range parsed {
		if s.Kind != source.Parsed {
			continue
		}
		_, errs := imports.TypeCheck(s.Imports, e.state.Build.Dependency)
		if len(errs) > 0 {
			importErrsByURI[s.FileURI.String()] = errs
		}
		units = append(units, compiler.Unit{URI: s.FileURI, File: s.File})
	}

	outcomes := e.comp.Compile(units, compiler.Options{Raw: e.state.Build.Config.CompilerOptions}, extraTypes)
	outcomeByURI := make(map[string]compiler.Outcome, len(outcomes))
	for _, o := range outcomes {
		outcomeByURI[o.URI.String()] = o
	}

	final := make([]source.State, len(parsed))
	for i, s := range parsed {
		if s.Kind != source.Parsed {
			final[i] = s
			continue
		}
		final[i] = source.ApplyOutcome(s, outcomeByURI[s.FileURI.String()], importErrsByURI[s.FileURI.String()])
	}

	e.generation++
	e.state.Sources = final
	e.state.Kind = CompiledKind
	e.state.Generation = e.generation
	e.state.PreviousParsed = &previous
	return e.state
}

func dependencyTypes(dep *build.Dependency) map[string]*compiler.File {
	out := map[string]*compiler.File{}
	if dep == nil {
		return out
	}
	for _, d := range dep.All() {
		if d.File == nil {
			continue
		}
		if name, ok := search.TypeName(d.File); ok {
			out[name] = d.File
		}
	}
	return out
}
