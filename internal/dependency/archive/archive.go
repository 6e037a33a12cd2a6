// Package archive embeds the bundled std and built-in dependency sources
// into the server binary, standing in for the original's resource-jar
// shipping of the standard library (component N).
package archive

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed bundled
var bundled embed.FS

const bundledRoot = "bundled"

// BundledVersion is the semver of the std/built-in sources embedded in this
// binary, bumped whenever the bundled subtree changes (spec §4.E, §9 "do
// not overwrite" open question). The loader checks it against a minimum
// version before materializing; it is not compared with copies already on
// disk, which are left as they are.
const BundledVersion = "0.1.0"

// Version returns the embedded bundle's semver string.
func Version() string { return BundledVersion }

// Source is one bundled dependency file: a path relative to its subtree
// (std or built-in), and its source text.
type Source struct {
	RelativePath string
	Code         string
}

// Std streams the bundled standard-library sources, sorted by relative path
// for deterministic extraction order (spec §4.E).
func Std() ([]Source, error) { return read("std") }

// BuiltIn streams the bundled compiler-intrinsic signatures.
func BuiltIn() ([]Source, error) { return read("built-in") }

func read(subtree string) ([]Source, error) {
	root := bundledRoot + "/" + subtree
	var out []Source
	err := fs.WalkDir(bundled, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		b, err := bundled.ReadFile(p)
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(p, root+"/")
		out = append(out, Source{RelativePath: rel, Code: string(b)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelativePath < out[j].RelativePath })
	return out, nil
}
