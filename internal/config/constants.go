// Package config holds small process-wide flags and naming constants shared
// across the pipeline stages. It intentionally stays tiny: anything that
// needs more structure belongs in internal/workspace's config loader instead.
package config

import "os"

// SourceFileExt is the canonical extension for Knot source files.
const SourceFileExt = ".knot"

// IsTestMode normalizes output (type-variable names, hash prefixes) for
// deterministic golden-file comparisons. Set once at startup.
var IsTestMode = false

// LogLevel mirrors the LOG environment variable: "", "info", "debug".
var LogLevel = os.Getenv("LOG")

// CodebasePath is the default sqlite-backed store location, overridable via
// CODEBASE_PATH.
func CodebasePath() string {
	if p := os.Getenv("CODEBASE_PATH"); p != "" {
		return p
	}
	return ".knot/codebase.db"
}

// StdlibPath is the default builtin-library search location, overridable via
// STDLIB.
func StdlibPath() string {
	if p := os.Getenv("STDLIB"); p != "" {
		return p
	}
	return ""
}
