package build

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ralph-lsp/ralph-lsp/internal/core"
)

const (
	errBuildParse   = "build file is not valid JSON"
	errUnknownField = "unrecognized build file key"
)

// rawConfig mirrors the ralph.json schema exactly, used with
// DisallowUnknownFields so an unrecognized key becomes a parse error rather
// than being silently ignored (spec §6 "unknown keys rejected").
type rawConfig struct {
	CompilerOptions map[string]interface{} `json:"compilerOptions"`
	ContractPath    string                  `json:"contractPath"`
	ArtifactPath    string                  `json:"artifactPath"`
}

// Parse reads the build file's JSON text into a Parsed state, or an Errored
// state carrying a BuildParseError anchored at the offending byte.
func Parse(buildURI core.URI, code string) State {
	dec := json.NewDecoder(bytes.NewReader([]byte(code)))
	dec.DisallowUnknownFields()

	var raw rawConfig
	if err := dec.Decode(&raw); err != nil {
		return State{
			Kind:     Errored,
			BuildURI: buildURI,
			Code:     code,
			Errors:   []core.CompilerMessage{parseError(buildURI, code, err)},
		}
	}

	return State{
		Kind:     Parsed,
		BuildURI: buildURI,
		Code:     code,
		Config: Config{
			CompilerOptions: raw.CompilerOptions,
			ContractPath:    raw.ContractPath,
			ArtifactPath:    raw.ArtifactPath,
		},
	}
}

func parseError(buildURI core.URI, code string, err error) core.CompilerMessage {
	if se, ok := err.(*json.SyntaxError); ok {
		offset := int(se.Offset)
		if offset > 0 {
			offset--
		}
		return core.NewError(fmt.Sprintf("%s: %s", errBuildParse, err.Error()),
			core.SourceIndex{FileURI: buildURI, Offset: offset, Width: 1})
	}
	if ute, ok := err.(*json.UnmarshalTypeError); ok {
		offset := int(ute.Offset)
		if offset > 0 {
			offset--
		}
		return core.NewError(fmt.Sprintf("%s: %s", errBuildParse, err.Error()),
			core.SourceIndex{FileURI: buildURI, Offset: offset, Width: 1})
	}
	// json: unknown field "x" — no offset on the error; locate it textually.
	field := unknownFieldName(err.Error())
	return core.NewError(fmt.Sprintf("%s: %s", errUnknownField, err.Error()),
		core.LastIndexOf(buildURI, code, fmt.Sprintf("%q", field)))
}

// unknownFieldName extracts the quoted field name from the standard
// library's "json: unknown field \"x\"" error text.
func unknownFieldName(msg string) string {
	start := -1
	for i, r := range msg {
		if r == '"' {
			if start < 0 {
				start = i + 1
			} else {
				return msg[start:i]
			}
		}
	}
	return msg
}
