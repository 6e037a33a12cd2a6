// Package server implements component L, the server adapter: it maps the
// external LSP events named in spec §4.L onto workspace.Engine operations,
// grounded on the teacher's other, simpler server loop
// (cmd/up/xpls/serve.go) which talks go-lsp directly over a synchronous
// jsonrpc2.VSCodeObjectCodec stream rather than the dead
// jsonrpc2.Conn/Handler/protocol.* stack the teacher's own internal/xpls
// package never wired up.
package server

import (
	"fmt"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/sourcegraph/go-lsp"

	"github.com/ralph-lsp/ralph-lsp/internal/completion"
	"github.com/ralph-lsp/ralph-lsp/internal/core"
	"github.com/ralph-lsp/ralph-lsp/internal/definition"
	"github.com/ralph-lsp/ralph-lsp/internal/workspace"
)

const (
	buildFileName  = "ralph.json"
	sourceFileExt  = ".ral"
	errNoWorkspace = "initialize was not called"
)

// UnknownFileError reports that a URI matched neither the build file name
// nor the source extension (spec §4.L "else error UnknownFile(uri)").
type UnknownFileError struct{ URI core.URI }

func (e *UnknownFileError) Error() string {
	return fmt.Sprintf("unknown file type: %s", e.URI.String())
}

// WorkspaceFolderNotSuppliedError is returned by Initialize when the client
// supplied no root (spec §4.L "fail if absent").
type WorkspaceFolderNotSuppliedError struct{}

func (e *WorkspaceFolderNotSuppliedError) Error() string {
	return "no workspace folder was supplied on initialize"
}

// Server adapts LSP events onto a single workspace.Engine (spec §5: exactly
// one workspace per server instance).
type Server struct {
	eng *workspace.Engine
	log logging.Logger

	initialized bool
	rootURI     core.URI
	previous    workspace.State
}

// Option configures a Server.
type Option func(*Server)

// WithEngine overrides the default workspace engine.
func WithEngine(eng *workspace.Engine) Option {
	return func(s *Server) { s.eng = eng }
}

// WithLogger overrides the default no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New constructs a Server.
func New(opts ...Option) *Server {
	s := &Server{
		eng: workspace.New(),
		log: logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Server) buildURI() core.URI {
	return s.rootURI.Join(buildFileName)
}

// Classify dispatches uri by extension (spec §4.L "File classification by
// extension").
func (s *Server) Classify(uri core.URI) (isBuild bool, err error) {
	switch {
	case uri.Filename() == buildFileName:
		return true, nil
	case uri.Extension() == sourceFileExt:
		return false, nil
	default:
		return false, &UnknownFileError{URI: uri}
	}
}

// Initialize handles the "initialize" request: create(rootURI), then run
// the first build and parse/compile pass so the initial diagnostics are
// ready before the client's first didOpen (spec §4.L, §4.H "getOrBuild").
func (s *Server) Initialize(rootURI lsp.DocumentURI) (lsp.InitializeResult, error) {
	if rootURI == "" {
		return lsp.InitializeResult{}, &WorkspaceFolderNotSuppliedError{}
	}
	s.rootURI = core.FromLSP(rootURI)
	s.initialized = true

	s.eng.Create(s.rootURI)
	s.eng.GetOrBuild(s.buildURI())
	s.previous = s.eng.ParseAndCompile()

	full := lsp.TDSKFull
	return lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{Kind: &full},
			CompletionProvider: &lsp.CompletionOptions{
				TriggerCharacters: []string{"."},
			},
			DefinitionProvider: true,
		},
	}, nil
}

// DidOpen/DidChange both apply codeChanged(fileURI, Some(text)) followed by
// parseAndCompile, or build() directly when the edited file is the build
// file itself (spec §4.L).
func (s *Server) DidOpen(uri lsp.DocumentURI, text string) ([]lsp.PublishDiagnosticsParams, error) {
	return s.onTextChanged(uri, &text)
}

func (s *Server) DidChange(uri lsp.DocumentURI, text string) ([]lsp.PublishDiagnosticsParams, error) {
	return s.onTextChanged(uri, &text)
}

func (s *Server) onTextChanged(uri lsp.DocumentURI, text *string) ([]lsp.PublishDiagnosticsParams, error) {
	if !s.initialized {
		return nil, fmt.Errorf(errNoWorkspace)
	}
	fileURI := core.FromLSP(uri)
	isBuild, err := s.Classify(fileURI)
	if err != nil {
		return nil, err
	}

	prev := s.previous
	var next workspace.State
	if isBuild {
		next = s.eng.Build(fileURI, text).State
	} else {
		s.eng.CodeChanged(fileURI, text)
		next = s.eng.ParseAndCompile()
	}
	s.previous = next
	return publishParams(Diagnostics(prev, next)), nil
}

// DidSave/DidClose both apply codeChanged(fileURI, None), discarding any
// in-memory edit and falling back to the on-disk copy (spec §4.L).
func (s *Server) DidSave(uri lsp.DocumentURI) ([]lsp.PublishDiagnosticsParams, error) {
	return s.onTextChanged(uri, nil)
}

func (s *Server) DidClose(uri lsp.DocumentURI) ([]lsp.PublishDiagnosticsParams, error) {
	return s.onTextChanged(uri, nil)
}

// Completion answers a textDocument/completion request against the current
// snapshot (spec §4.L "query the current compiled/parsed state").
func (s *Server) Completion(uri lsp.DocumentURI, pos lsp.Position) (lsp.CompletionList, error) {
	if !s.initialized {
		return lsp.CompletionList{}, fmt.Errorf(errNoWorkspace)
	}
	fileURI := core.FromLSP(uri)
	snap := s.eng.Snapshot()
	src, ok := snap.SourceByURI(fileURI)
	if !ok || src.File == nil {
		return lsp.CompletionList{}, nil
	}
	table := core.NewLineTable(src.Code)
	offset := table.Offset(pos)
	suggestions := completion.Resolve(offset, fileURI, src.File, snap)
	return lsp.CompletionList{Items: toCompletionItems(suggestions)}, nil
}

// Definition answers a textDocument/definition request against the current
// snapshot.
func (s *Server) Definition(uri lsp.DocumentURI, pos lsp.Position) ([]lsp.Location, error) {
	if !s.initialized {
		return nil, fmt.Errorf(errNoWorkspace)
	}
	fileURI := core.FromLSP(uri)
	snap := s.eng.Snapshot()
	src, ok := snap.SourceByURI(fileURI)
	if !ok || src.File == nil {
		return nil, nil
	}
	table := core.NewLineTable(src.Code)
	offset := table.Offset(pos)
	locs := definition.Resolve(offset, fileURI, src.File, snap)
	return toLSPLocations(locs, snap), nil
}

func toLSPLocations(locs []definition.Location, snap workspace.State) []lsp.Location {
	out := make([]lsp.Location, 0, len(locs))
	for _, loc := range locs {
		table := lineTableFor(snap, loc.URI)
		if table == nil {
			continue
		}
		out = append(out, lsp.Location{
			URI: loc.URI.ToLSP(),
			Range: lsp.Range{
				Start: table.Position(loc.Index.Offset),
				End:   table.Position(loc.Index.End()),
			},
		})
	}
	return out
}

// lineTableFor builds a LineTable for any URI addressable from the
// snapshot: a workspace source, the build file, or a dependency source
// (go-to-definition's built-in lookup can land on the latter).
func lineTableFor(snap workspace.State, uri core.URI) *core.LineTable {
	if src, ok := snap.SourceByURI(uri); ok {
		return core.NewLineTable(src.Code)
	}
	if snap.Build.BuildURI.Equal(uri) {
		return core.NewLineTable(snap.Build.Code)
	}
	if snap.Build.Dependency != nil {
		for _, d := range snap.Build.Dependency.All() {
			if d.URI.Equal(uri) {
				return core.NewLineTable(d.Code)
			}
		}
	}
	return nil
}

func toCompletionItems(suggestions []completion.Suggestion) []lsp.CompletionItem {
	out := make([]lsp.CompletionItem, 0, len(suggestions))
	for _, sg := range suggestions {
		out = append(out, lsp.CompletionItem{
			Label:         sg.Label,
			Kind:          toCompletionItemKind(sg.Kind),
			Detail:        sg.Detail,
			Documentation: sg.Documentation,
			InsertText:    sg.Insert,
		})
	}
	return out
}

func toCompletionItemKind(k completion.Kind) lsp.CompletionItemKind {
	switch k {
	case completion.KindVariable:
		return lsp.CIKVariable
	case completion.KindFunction:
		return lsp.CIKFunction
	case completion.KindType:
		return lsp.CIKClass
	case completion.KindInterface:
		return lsp.CIKInterface
	case completion.KindKeyword:
		return lsp.CIKKeyword
	default:
		return lsp.CIKText
	}
}

func publishParams(byURI map[string]diagnosticSet) []lsp.PublishDiagnosticsParams {
	out := make([]lsp.PublishDiagnosticsParams, 0, len(byURI))
	for _, d := range byURI {
		out = append(out, lsp.PublishDiagnosticsParams{
			URI:         d.uri.ToLSP(),
			Diagnostics: d.diagnostics,
		})
	}
	return out
}
