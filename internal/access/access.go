// Package access implements §4.A File access: the sole place side effects
// against the host filesystem are confined to, mirroring the teacher's use
// of afero.Fs as the seam between domain logic and the OS.
package access

import (
	"os"
	"sort"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/spf13/afero"

	"github.com/ralph-lsp/ralph-lsp/internal/core"
)

const (
	errRead   = "failed to read file"
	errWrite  = "failed to write file"
	errExists = "failed to stat file"
	errList   = "failed to list directory"
)

// Error wraps a failure from a File access operation, carrying the URI it
// was attempting to touch so callers can turn it into a per-file diagnostic.
type Error struct {
	URI   core.URI
	Cause error
}

func (e *Error) Error() string {
	return e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Access is the file-access facade. All methods are synchronous from the
// caller's perspective; concurrency, if any, is the caller's concern.
type Access struct {
	fs afero.Fs
}

// New constructs an Access backed by fs.
func New(fs afero.Fs) *Access {
	return &Access{fs: fs}
}

// NewOS constructs an Access backed by the real operating-system
// filesystem.
func NewOS() *Access {
	return New(afero.NewOsFs())
}

// Read returns the full text content at uri.
func (a *Access) Read(uri core.URI) (string, error) {
	b, err := afero.ReadFile(a.fs, uri.Path())
	if err != nil {
		return "", &Error{URI: uri, Cause: errors.Wrap(err, errRead)}
	}
	return string(b), nil
}

// Write stores code at uri, creating parent directories as needed, and
// returns the URI written.
func (a *Access) Write(uri core.URI, code string) (core.URI, error) {
	if err := a.fs.MkdirAll(uri.Parent().Path(), 0o755); err != nil {
		return core.URI{}, &Error{URI: uri, Cause: errors.Wrap(err, errWrite)}
	}
	if err := afero.WriteFile(a.fs, uri.Path(), []byte(code), 0o644); err != nil {
		return core.URI{}, &Error{URI: uri, Cause: errors.Wrap(err, errWrite)}
	}
	return uri, nil
}

// Exists reports whether uri names an existing file or directory.
func (a *Access) Exists(uri core.URI) (bool, error) {
	ok, err := afero.Exists(a.fs, uri.Path())
	if err != nil {
		return false, &Error{URI: uri, Cause: errors.Wrap(err, errExists)}
	}
	return ok, nil
}

// IsDir reports whether uri names an existing directory.
func (a *Access) IsDir(uri core.URI) (bool, error) {
	ok, err := afero.IsDir(a.fs, uri.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &Error{URI: uri, Cause: errors.Wrap(err, errExists)}
	}
	return ok, nil
}

// List returns the URIs of every regular file directly or transitively
// under dirURI, sorted for deterministic iteration.
func (a *Access) List(dirURI core.URI) ([]core.URI, error) {
	var out []core.URI
	err := afero.Walk(a.fs, dirURI.Path(), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		out = append(out, core.NewURI(path))
		return nil
	})
	if err != nil {
		return nil, &Error{URI: dirURI, Cause: errors.Wrap(err, errList)}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out, nil
}
