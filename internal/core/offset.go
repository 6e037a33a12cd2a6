package core

import (
	"strings"

	"github.com/sourcegraph/go-lsp"
)

// LineTable maps byte offsets in a single file's text to LSP line/column
// positions. The teacher's incremental-sync path leaned on
// golang.org/x/tools' protocol.ColumnMapper for this; since the server
// here always advertises TextDocumentSyncKindFull (spec §6) there is no
// incremental patch to apply, only offset→position conversion for
// diagnostics and go-to-definition results, so a small line-start table
// replaces it without pulling in the x/tools dependency.
type LineTable struct {
	lineStarts []int
	text       string
}

// NewLineTable builds a LineTable over text.
func NewLineTable(text string) *LineTable {
	starts := []int{0}
	for i, r := range text {
		if r == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineTable{lineStarts: starts, text: text}
}

// Position converts a byte offset into an LSP line/character position.
// Offsets past the end of the text clamp to the final position.
func (t *LineTable) Position(offset int) lsp.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(t.text) {
		offset = len(t.text)
	}
	line := t.lineForOffset(offset)
	col := offset - t.lineStarts[line]
	return lsp.Position{Line: line, Character: col}
}

// Offset converts an LSP line/character position back into a byte offset.
func (t *LineTable) Offset(pos lsp.Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(t.lineStarts) {
		return len(t.text)
	}
	offset := t.lineStarts[pos.Line] + pos.Character
	if offset > len(t.text) {
		offset = len(t.text)
	}
	return offset
}

func (t *LineTable) lineForOffset(offset int) int {
	lo, hi := 0, len(t.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if t.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// LastLiteralRange locates the last textual occurrence of literal and
// returns its line/column range, used when rendering diagnostics whose
// SourceIndex was computed via LastIndexOf.
func LastLiteralRange(text, literal string) (lsp.Range, bool) {
	idx := strings.LastIndex(text, literal)
	if idx < 0 {
		return lsp.Range{}, false
	}
	table := NewLineTable(text)
	return lsp.Range{
		Start: table.Position(idx),
		End:   table.Position(idx + len(literal)),
	}, true
}
