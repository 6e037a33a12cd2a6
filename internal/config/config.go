// Package config holds the ralphls server's persisted, user-level settings:
// the file lives at ~/.ralph-lsp/config.json, read and written through the
// same Source/FSSource seam the teacher used for its own config file.
package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Location of the ralphls config file.
const (
	ConfigDir  = ".ralph-lsp"
	ConfigFile = "config.json"
)

const (
	errInvalidLogLevel = "invalid log level"
	errOpenConfig      = "failed to open ralphls config file"
	errReadConfig      = "failed to read ralphls config file"
	errParseConfig     = "failed to parse ralphls config file"
	errWriteConfig     = "failed to write ralphls config file"
)

// validLogLevels is the closed set of levels SetLogLevel accepts,
// mirroring crossplane-runtime/pkg/logging's own debug/info distinction.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"error": true,
}

// Config is the format of the ralphls config file.
type Config struct {
	// DependencyRoot overrides dependency.DefaultRoot when non-empty.
	DependencyRoot string `json:"dependencyRoot,omitempty"`
	// LogLevel overrides the server's default logging verbosity.
	LogLevel string `json:"logLevel,omitempty"`
}

// Extract performs extraction of the ralphls configuration from src.
func Extract(src Source) (*Config, error) {
	conf, err := src.GetConfig()
	if err != nil {
		return nil, err
	}
	return conf, nil
}

// GetDefaultPath returns the default ralphls config path or error.
func GetDefaultPath() (string, error) {
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(h, ConfigDir, ConfigFile), nil
}

// GetDependencyRoot returns DependencyRoot, falling back to def when unset.
func (c *Config) GetDependencyRoot(def string) string {
	if c.DependencyRoot == "" {
		return def
	}
	return c.DependencyRoot
}

// SetDependencyRoot overrides the dependency materialization root.
func (c *Config) SetDependencyRoot(root string) {
	c.DependencyRoot = root
}

// GetLogLevel returns LogLevel, falling back to def when unset.
func (c *Config) GetLogLevel(def string) string {
	if c.LogLevel == "" {
		return def
	}
	return c.LogLevel
}

// SetLogLevel validates level against the allowed set before storing it.
func (c *Config) SetLogLevel(level string) error {
	if !validLogLevels[level] {
		return errors.New(errInvalidLogLevel)
	}
	c.LogLevel = level
	return nil
}

// Source is a source of the ralphls Config, read from and written back to
// wherever it is persisted.
type Source interface {
	GetConfig() (*Config, error)
	UpdateConfig(*Config) error
}

// HomeDirFn locates the current user's home directory, overridable in tests.
type HomeDirFn func() (string, error)

// FSSourceModifier modifies an FSSource, used by tests to swap in an
// afero.MemMapFs or a fixed HomeDirFn.
type FSSourceModifier func(*FSSource)

// FSSource is the on-disk Source for the ralphls config file, rooted at
// ~/.ralph-lsp/config.json (or an afero.Fs/home override supplied by a
// FSSourceModifier).
type FSSource struct {
	fs      afero.Fs
	home    HomeDirFn
	path    string
	dirPath string
}

// NewFSSource constructs an FSSource, creating an empty config file under
// ConfigDir if one does not already exist.
func NewFSSource(modifiers ...FSSourceModifier) (*FSSource, error) {
	src := &FSSource{
		fs:   afero.NewOsFs(),
		home: os.UserHomeDir,
	}
	for _, m := range modifiers {
		m(src)
	}
	h, err := src.home()
	if err != nil {
		return nil, err
	}
	src.dirPath = filepath.Join(h, ConfigDir)
	src.path = filepath.Join(src.dirPath, ConfigFile)
	if _, err := src.fs.Stat(src.path); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, errOpenConfig)
		}
		if err := src.fs.MkdirAll(src.dirPath, 0755); err != nil {
			return nil, errors.Wrap(err, errOpenConfig)
		}
		f, err := src.fs.OpenFile(src.path, os.O_CREATE, 0600)
		if err != nil {
			return nil, errors.Wrap(err, errOpenConfig)
		}
		defer f.Close() // nolint:errcheck
	}
	return src, nil
}

// GetConfig reads and unmarshals the ralphls Config from disk. An empty file
// (the state NewFSSource leaves a freshly created config in) yields a zero
// Config rather than a JSON error.
func (src *FSSource) GetConfig() (*Config, error) {
	f, err := src.fs.Open(src.path)
	if err != nil {
		return nil, errors.Wrap(err, errOpenConfig)
	}
	defer f.Close() // nolint:errcheck

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, errReadConfig)
	}
	conf := &Config{}
	if len(b) == 0 {
		return conf, nil
	}
	if err := json.Unmarshal(b, conf); err != nil {
		return nil, errors.Wrap(err, errParseConfig)
	}
	return conf, nil
}

// UpdateConfig marshals c and overwrites the on-disk ralphls config file.
func (src *FSSource) UpdateConfig(c *Config) error {
	f, err := src.fs.OpenFile(src.path, os.O_RDWR|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrap(err, errOpenConfig)
	}
	// We both defer and explicitly call Close() so the file still closes on
	// an error path before the write, and so a flush failure on the happy
	// path is reported to the caller rather than swallowed by the deferred
	// Close() (see https://golang.org/pkg/os/#File.Close).
	defer f.Close() // nolint:errcheck

	b, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, errWriteConfig)
	}
	if _, err := f.Write(b); err != nil {
		return errors.Wrap(err, errWriteConfig)
	}
	return errors.Wrap(f.Close(), errWriteConfig)
}
