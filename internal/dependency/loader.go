// Package dependency implements §4.E: materializing the bundled std and
// built-in sources onto disk as a compiled sub-workspace, and component N's
// archive packer as its source.
package dependency

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/ralph-lsp/ralph-lsp/internal/access"
	"github.com/ralph-lsp/ralph-lsp/internal/build"
	"github.com/ralph-lsp/ralph-lsp/internal/compiler"
	"github.com/ralph-lsp/ralph-lsp/internal/core"
	"github.com/ralph-lsp/ralph-lsp/internal/dependency/archive"
)

// DefaultRoot is the server-controlled dependency root, relative to the
// user's home directory (spec §6).
const DefaultRoot = "~/.ralph-lsp/dependencies"

// minBundledVersion is the oldest embedded bundle this loader knows how to
// materialize, checked against archive.Version at Load time the same way
// the teacher's dependency manager range-checks a package's version against
// a semver constraint before resolving it.
const minBundledVersion = ">=0.1.0"

const (
	errDownloadDependency = "failed to materialize bundled dependency"
	errBundledVersion     = "embedded dependency bundle does not satisfy minimum version constraint"
)

// HomeDirFn indicates the location of a user's home directory, mirroring
// the config package's own indirection for testability.
type HomeDirFn func() (string, error)

// Loader materializes the bundled archive.Std/archive.BuiltIn sources onto
// disk, once per server lifetime, and compiles them into a build.Dependency.
type Loader struct {
	fs   afero.Fs
	acc  *access.Access
	comp *compiler.Compiler
	log  logging.Logger
	home HomeDirFn
	path string // root, relative to home, with any leading "~/" trimmed
}

// Option configures a Loader.
type Option func(*Loader)

// WithFS overrides the default OS filesystem.
func WithFS(fs afero.Fs) Option {
	return func(l *Loader) { l.fs = fs; l.acc = access.New(fs) }
}

// WithLogger overrides the default no-op logger.
func WithLogger(log logging.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// WithCompiler overrides the default compiler.Compiler used to parse
// dependency sources.
func WithCompiler(c *compiler.Compiler) Option {
	return func(l *Loader) { l.comp = c }
}

// WithRoot overrides the default dependency root.
func WithRoot(root string) Option {
	return func(l *Loader) { l.path = strings.TrimPrefix(root, "~/") }
}

// New constructs a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		fs:   afero.NewOsFs(),
		comp: compiler.New(),
		log:  logging.NewNopLogger(),
		home: os.UserHomeDir,
		path: strings.TrimPrefix(DefaultRoot, "~/"),
	}
	l.acc = access.New(l.fs)
	for _, o := range opts {
		o(l)
	}
	return l
}

// Root resolves the dependency root against the configured home directory.
func (l *Loader) Root() (core.URI, error) {
	home, err := l.home()
	if err != nil {
		return core.URI{}, errors.Wrap(err, errDownloadDependency)
	}
	return core.NewURI(filepath.Join(home, l.path)), nil
}

// Load materializes both bundled subtrees under the dependency root and
// compiles them, producing the build.Dependency a BuildCompiled state
// carries. anchor is the SourceIndex any ErrorDownloadingDependency is
// reported at (spec §4.E: "anchored at the build file").
func (l *Loader) Load(anchor core.SourceIndex) (core.URI, *build.Dependency, *core.CompilerMessage) {
	if msg := checkBundledVersion(anchor); msg != nil {
		return core.URI{}, nil, msg
	}

	root, err := l.Root()
	if err != nil {
		msg := core.NewError(errors.Wrap(err, errDownloadDependency).Error(), anchor)
		return core.URI{}, nil, &msg
	}

	dep := &build.Dependency{Root: root, Sources: map[build.DependencyID][]build.DependencySource{}}

	for id, fetch := range map[build.DependencyID]func() ([]archive.Source, error){
		build.Std:     archive.Std,
		build.BuiltIn: archive.BuiltIn,
	} {
		sources, err := fetch()
		if err != nil {
			msg := core.NewError(errors.Wrap(err, errDownloadDependency).Error(), anchor)
			return core.URI{}, nil, &msg
		}
		materialized, err := l.materialize(root, id, sources)
		if err != nil {
			msg := core.NewError(errors.Wrap(err, errDownloadDependency).Error(), anchor)
			return core.URI{}, nil, &msg
		}
		dep.Sources[id] = materialized
	}

	return root, dep, nil
}

// checkBundledVersion verifies the embedded bundle satisfies
// minBundledVersion before anything is materialized from it.
func checkBundledVersion(anchor core.SourceIndex) *core.CompilerMessage {
	v, err := semver.NewVersion(archive.Version())
	if err != nil {
		msg := core.NewError(errors.Wrap(err, errBundledVersion).Error(), anchor)
		return &msg
	}
	c, err := semver.NewConstraint(minBundledVersion)
	if err != nil {
		msg := core.NewError(errors.Wrap(err, errBundledVersion).Error(), anchor)
		return &msg
	}
	if !c.Check(v) {
		msg := core.NewError(errBundledVersion, anchor)
		return &msg
	}
	return nil
}

func (l *Loader) materialize(root core.URI, id build.DependencyID, sources []archive.Source) ([]build.DependencySource, error) {
	subtreeURI := root.Join(id.String())
	out := make([]build.DependencySource, 0, len(sources))
	for _, src := range sources {
		fileURI := subtreeURI.Join(src.RelativePath)

		// "do not overwrite": a file already present at this path is left
		// untouched even if its contents differ from the bundled copy
		// (spec §9 open question, preserved as-is).
		exists, err := l.acc.Exists(fileURI)
		if err != nil {
			return nil, err
		}
		code := src.Code
		if !exists {
			if _, err := l.acc.Write(fileURI, src.Code); err != nil {
				return nil, err
			}
		} else {
			onDisk, err := l.acc.Read(fileURI)
			if err != nil {
				return nil, err
			}
			code = onDisk
		}

		result := l.comp.ParseFile(fileURI, code)
		out = append(out, build.DependencySource{
			URI:          fileURI,
			RelativePath: src.RelativePath,
			Code:         code,
			File:         result.File,
		})
	}
	return out, nil
}
