// Package core holds the data model shared across the presentation compiler:
// the URI namespace, source-range indices and the compiler message type.
package core

import (
	"path/filepath"
	"strings"

	"github.com/sourcegraph/go-lsp"
)

// URI is a stable, opaque identifier for a file or directory in a
// hierarchical namespace. It normalizes to a clean, slash-separated path so
// that Contains and equality checks are string comparisons.
type URI struct {
	path string
}

// NewURI constructs a URI from a filesystem path, normalizing it to use
// forward slashes regardless of host OS.
func NewURI(path string) URI {
	clean := filepath.ToSlash(filepath.Clean(path))
	return URI{path: clean}
}

// FromLSP converts an LSP document URI (a file:// URL) to a URI.
func FromLSP(u lsp.DocumentURI) URI {
	return NewURI(strings.TrimPrefix(string(u), "file://"))
}

// ToLSP converts a URI back to an LSP document URI.
func (u URI) ToLSP() lsp.DocumentURI {
	return lsp.DocumentURI("file://" + u.path)
}

// Path returns the normalized filesystem path.
func (u URI) Path() string {
	return u.path
}

// String implements fmt.Stringer.
func (u URI) String() string {
	return u.path
}

// IsZero reports whether this is the zero-value URI.
func (u URI) IsZero() bool {
	return u.path == ""
}

// Parent returns the URI for the containing directory.
func (u URI) Parent() URI {
	return NewURI(filepath.Dir(u.path))
}

// Filename returns the base name of the path, including extension.
func (u URI) Filename() string {
	return filepath.Base(u.path)
}

// Extension returns the file extension, including the leading dot. Empty if
// the path has none.
func (u URI) Extension() string {
	return filepath.Ext(u.path)
}

// Join appends the given relative path segments to this URI.
func (u URI) Join(elem ...string) URI {
	parts := append([]string{u.path}, elem...)
	return NewURI(filepath.Join(parts...))
}

// Rel computes the path of other relative to u, returning ok=false if other
// is not contained within u.
func (u URI) Rel(other URI) (string, bool) {
	if !u.Contains(other) {
		return "", false
	}
	rel := strings.TrimPrefix(other.path, u.path)
	return strings.TrimPrefix(rel, "/"), true
}

// Contains reports whether other's path is a descendant of u's path (or
// equal to it). Containment is purely textual, over normalized paths.
func (u URI) Contains(other URI) bool {
	if u.path == other.path {
		return true
	}
	prefix := u.path
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(other.path, prefix)
}

// Equal reports whether two URIs refer to the same normalized path.
func (u URI) Equal(other URI) bool {
	return u.path == other.path
}
