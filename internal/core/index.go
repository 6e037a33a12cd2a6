package core

import "strings"

// SourceIndex is a range within a single source file: a byte offset and a
// width, both non-negative, with offset+width never exceeding the length of
// the file they describe. A SourceIndex carrying only a FileURI (Offset and
// Width both zero) is the "dedicated zero value" mentioned in the spec,
// standing in for "somewhere in this file, no specific range" — produced
// when a component only knows which file an error belongs to.
type SourceIndex struct {
	FileURI URI
	Offset  int
	Width   int
}

// ZeroIndex returns the dedicated zero value for fileURI: no range, just a
// file reference.
func ZeroIndex(fileURI URI) SourceIndex {
	return SourceIndex{FileURI: fileURI}
}

// IsZero reports whether this index carries no range, only a file.
func (s SourceIndex) IsZero() bool {
	return s.Offset == 0 && s.Width == 0
}

// End returns the exclusive end offset, Offset+Width.
func (s SourceIndex) End() int {
	return s.Offset + s.Width
}

// Contains reports whether offset falls within [s.Offset, s.End()).
func (s SourceIndex) Contains(offset int) bool {
	return offset >= s.Offset && offset < s.End()
}

// LastIndexOf builds a SourceIndex anchored at the last occurrence of
// literal in code. This is the placeholder error-indexing strategy
// documented as an open question: it will eventually be replaced by
// SourceIndex values carried in the parsed build AST, but for now it
// reproduces the original behavior of locating the last textual occurrence
// of the offending literal.
func LastIndexOf(fileURI URI, code, literal string) SourceIndex {
	idx := strings.LastIndex(code, literal)
	if idx < 0 {
		return ZeroIndex(fileURI)
	}
	return SourceIndex{FileURI: fileURI, Offset: idx, Width: len(literal)}
}
