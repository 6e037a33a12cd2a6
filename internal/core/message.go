package core

import "github.com/sourcegraph/go-lsp"

// MessageKind is the closed set of compiler message severities.
type MessageKind int

const (
	// Error marks a message as a distinguished error, as opposed to an
	// advisory warning or info note.
	Error MessageKind = iota
	Warning
	Info
)

// CompilerMessage is a single diagnostic produced by the build validator,
// the batch compiler, or the import resolver, anchored at a SourceIndex.
type CompilerMessage struct {
	Kind    MessageKind
	Message string
	Index   SourceIndex
}

// NewError constructs an error-kind CompilerMessage.
func NewError(message string, index SourceIndex) CompilerMessage {
	return CompilerMessage{Kind: Error, Message: message, Index: index}
}

// NewWarning constructs a warning-kind CompilerMessage.
func NewWarning(message string, index SourceIndex) CompilerMessage {
	return CompilerMessage{Kind: Warning, Message: message, Index: index}
}

// IsError reports whether this message belongs to the distinguished error
// subset.
func (m CompilerMessage) IsError() bool {
	return m.Kind == Error
}

// Severity maps a MessageKind onto the LSP diagnostic severity scale.
func (k MessageKind) Severity() lsp.DiagnosticSeverity {
	switch k {
	case Error:
		return lsp.Error
	case Warning:
		return lsp.Warning
	default:
		return lsp.Information
	}
}

// ToDiagnostic converts a CompilerMessage into an LSP diagnostic, given a
// line/column converter for the owning file.
func (m CompilerMessage) ToDiagnostic(toPosition func(offset int) lsp.Position) lsp.Diagnostic {
	start := toPosition(m.Index.Offset)
	end := toPosition(m.Index.End())
	return lsp.Diagnostic{
		Range: lsp.Range{
			Start: start,
			End:   end,
		},
		Severity: m.Kind.Severity(),
		Source:   "ralph-lsp",
		Message:  m.Message,
	}
}
