package codebase

import (
	"fmt"

	"golang.org/x/tools/go/packages"
)

// LintHostBindings statically checks that every Go package path referenced
// by the workspace's effect-handler bindings (spec.md's external-effect
// escape hatch, e.g. the Grpc effect's service registrations) actually
// resolves and type-checks, returning one line per package error. No CLI
// subcommand calls it. Grounded on the teacher's use of
// golang.org/x/tools/go/packages to load and validate the Go packages named
// in a funxy.yaml binding file; repurposed here from "load a bindable Go
// package for the FFI system" (dropped, see DESIGN.md) to "validate the
// host packages backing a workspace's declared effect handlers".
func LintHostBindings(pkgPaths []string) ([]string, error) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo}
	pkgs, err := packages.Load(cfg, pkgPaths...)
	if err != nil {
		return nil, fmt.Errorf("codebase: loading host packages: %w", err)
	}
	var problems []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			problems = append(problems, fmt.Sprintf("%s: %s", pkg.PkgPath, e.Error()))
		}
	}
	return problems, nil
}
