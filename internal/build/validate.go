package build

import (
	"fmt"
	"path/filepath"

	"github.com/ralph-lsp/ralph-lsp/internal/access"
	"github.com/ralph-lsp/ralph-lsp/internal/core"
)

const (
	errDirOutsideWorkspace = "directory is outside the workspace"
	errDirDoesNotExist     = "directory does not exist"
	errInvalidBuildFileLoc = "build file must reside directly in the workspace root"
)

// ValidateBuildURI checks the build-file-location invariant: the build file
// must sit directly in the workspace root. Returns an InvalidBuildFileLocation
// error if not.
func ValidateBuildURI(workspaceURI, buildURI core.URI) (core.CompilerMessage, bool) {
	if buildURI.Parent().Equal(workspaceURI) {
		return core.CompilerMessage{}, false
	}
	return core.NewError(errInvalidBuildFileLoc, core.ZeroIndex(buildURI)), true
}

// Validate checks a Parsed build state against the filesystem (via acc),
// resolving contractPath/artifactPath to absolute paths and accumulating
// every containment/existence error before returning, per spec §4.C-D
// ("never fails hard; accumulates").
func Validate(parsed State, workspaceURI core.URI, acc *access.Access) State {
	var errs []core.CompilerMessage

	contractAbs := resolve(workspaceURI, parsed.Config.ContractPath)
	artifactAbs := resolve(workspaceURI, parsed.Config.ArtifactPath)

	// Containment and existence are checked per-path, short-circuiting on
	// the first failure for that path so a directory outside the workspace
	// is reported once, not twice (spec §8 E2: "exactly one" error).
	checkPath(&errs, parsed, workspaceURI, acc, "contractPath", parsed.Config.ContractPath, contractAbs)
	checkPath(&errs, parsed, workspaceURI, acc, "artifactPath", parsed.Config.ArtifactPath, artifactAbs)

	if len(errs) > 0 {
		return State{
			Kind:     Errored,
			BuildURI: parsed.BuildURI,
			Code:     parsed.Code,
			Errors:   errs,
		}
	}

	return State{
		Kind:     Compiled,
		BuildURI: parsed.BuildURI,
		Code:     parsed.Code,
		Config: Config{
			CompilerOptions: parsed.Config.CompilerOptions,
			ContractPath:    contractAbs.Path(),
			ArtifactPath:    artifactAbs.Path(),
		},
	}
}

// checkPath validates one resolved path against containment then existence,
// appending at most one error to errs. Returns false if an error was
// appended.
func checkPath(errs *[]core.CompilerMessage, parsed State, workspaceURI core.URI, acc *access.Access, field, rel string, abs core.URI) bool {
	if !workspaceURI.Contains(abs) {
		*errs = append(*errs, core.NewError(
			fmt.Sprintf("%s: %s %q", errDirOutsideWorkspace, field, rel),
			core.LastIndexOf(parsed.BuildURI, parsed.Code, rel)))
		return false
	}
	if ok, err := acc.Exists(abs); err != nil || !ok {
		*errs = append(*errs, core.NewError(
			fmt.Sprintf("%s: %s %q", errDirDoesNotExist, field, rel),
			core.LastIndexOf(parsed.BuildURI, parsed.Code, rel)))
		return false
	}
	return true
}

func resolve(workspaceURI core.URI, rel string) core.URI {
	if filepath.IsAbs(rel) {
		return core.NewURI(rel)
	}
	return workspaceURI.Join(rel)
}
