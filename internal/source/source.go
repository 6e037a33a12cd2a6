// Package source implements §4.F: the per-file SourceCodeState tagged
// variant and its transitions (synchronise, parse, compile-outcome
// application).
package source

import (
	"github.com/ralph-lsp/ralph-lsp/internal/access"
	"github.com/ralph-lsp/ralph-lsp/internal/compiler"
	"github.com/ralph-lsp/ralph-lsp/internal/core"
	"github.com/ralph-lsp/ralph-lsp/internal/imports"
)

// Kind discriminates the SourceCodeState tagged variant.
type Kind int

const (
	OnDisk Kind = iota
	UnCompiled
	Parsed
	Compiled
	ErrorAccess
	ErrorSource
)

// State is one file's position in the source lifecycle. As with build.State,
// only the fields relevant to Kind are meaningful.
type State struct {
	Kind    Kind
	FileURI core.URI

	Code string // UnCompiled, Parsed, Compiled, ErrorSource

	File    *compiler.File   // Parsed, Compiled
	Imports []imports.Import // Parsed, Compiled

	Warnings  []core.CompilerMessage // Compiled
	Contracts []string               // Compiled

	AccessErr error // ErrorAccess

	Errors   []core.CompilerMessage // ErrorSource
	Previous *State                 // ErrorSource: last Parsed attempt, if one was reached
}

// NewOnDisk is the initial state for a file known to exist but not yet read.
func NewOnDisk(fileURI core.URI) State {
	return State{Kind: OnDisk, FileURI: fileURI}
}

// IsErrored reports whether s is ErrorAccess or ErrorSource.
func (s State) IsErrored() bool { return s.Kind == ErrorAccess || s.Kind == ErrorSource }

// Synchronise reconciles current against the files actually present under
// dir: entries whose URI has drifted outside dir are dropped, existing
// entries for files still present are kept as-is (not reset to OnDisk), and
// newly discovered files enter as OnDisk (spec §4.F, invariant 4 idempotence
// — calling this twice in a row with an unchanged disk is a no-op since the
// result depends only on acc.List(dir) and the previous result).
func Synchronise(dir core.URI, current []State, acc *access.Access) ([]State, error) {
	existing := make(map[string]State, len(current))
	for _, s := range current {
		if dir.Contains(s.FileURI) {
			existing[s.FileURI.String()] = s
		}
	}

	uris, err := acc.List(dir)
	if err != nil {
		return nil, err
	}

	out := make([]State, 0, len(uris))
	for _, uri := range uris {
		if s, ok := existing[uri.String()]; ok {
			out = append(out, s)
			continue
		}
		out = append(out, NewOnDisk(uri))
	}
	return out, nil
}

// CodeChanged applies a didOpen/didChange (code supplied) or
// didSave/didClose (code absent, re-read from disk on next Parse) event to
// a single source's state.
func CodeChanged(s State, code *string) State {
	if code != nil {
		return State{Kind: UnCompiled, FileURI: s.FileURI, Code: *code}
	}
	return NewOnDisk(s.FileURI)
}

// Parse drives a state forward to Parsed, ErrorSource, or ErrorAccess,
// re-reading from disk as needed. Parsed/Compiled/ErrorSource are already
// terminal for this pass and returned unchanged — a state only moves
// backward via an explicit CodeChanged (spec invariant 3).
func Parse(s State, comp *compiler.Compiler, acc *access.Access) State {
	for {
		switch s.Kind {
		case OnDisk, ErrorAccess:
			code, err := acc.Read(s.FileURI)
			if err != nil {
				return State{Kind: ErrorAccess, FileURI: s.FileURI, AccessErr: err}
			}
			s = State{Kind: UnCompiled, FileURI: s.FileURI, Code: code}
		case UnCompiled:
			result := comp.ParseFile(s.FileURI, s.Code)
			if len(result.Errors) > 0 {
				return State{Kind: ErrorSource, FileURI: s.FileURI, Code: s.Code, Errors: result.Errors}
			}
			imps, impErrs := imports.Extract(result.File)
			if len(impErrs) > 0 {
				return State{Kind: ErrorSource, FileURI: s.FileURI, Code: s.Code, Errors: impErrs}
			}
			return State{Kind: Parsed, FileURI: s.FileURI, Code: s.Code, File: result.File, Imports: imps}
		default: // Parsed, Compiled, ErrorSource
			return s
		}
	}
}

// ApplyOutcome folds a compiler.Outcome (and any import-resolution errors)
// back onto the Parsed state it was produced from, yielding Compiled or
// ErrorSource. On failure, Previous retains this same Parsed attempt so a
// still-errored file keeps a navigable AST (spec §8 E5).
func ApplyOutcome(s State, outcome compiler.Outcome, importErrs []core.CompilerMessage) State {
	errs := append(append([]core.CompilerMessage{}, importErrs...), outcome.Errors...)
	if len(errs) > 0 {
		prev := s
		return State{Kind: ErrorSource, FileURI: s.FileURI, Code: s.Code, Errors: errs, Previous: &prev}
	}
	return State{
		Kind:      Compiled,
		FileURI:   s.FileURI,
		Code:      s.Code,
		File:      s.File,
		Imports:   s.Imports,
		Warnings:  outcome.Warnings,
		Contracts: outcome.Contracts,
	}
}
