// Package tests drives the compiled knot binary against the .knot/.want
// fixture pairs in this directory (spec.md §8's end-to-end scenarios),
// grounded on the teacher's own tests/functional_test.go: build a fresh
// binary, walk for fixtures, run each, diff trimmed output.
package tests

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vibe-lang/vibe/internal/config"
)

// TestFunctional runs .knot files through the compiled binary and compares
// output with .want files. This tests the actual CLI, not internal APIs.
func TestFunctional(t *testing.T) {
	projectRoot, err := filepath.Abs("..")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	binaryPath := filepath.Join(projectRoot, "knot-test-binary")
	defer os.Remove(binaryPath)

	t.Log("building fresh binary...")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/knot")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, output)
	}

	var testFiles []string
	err = filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, config.SourceFileExt) {
			wantFile := strings.TrimSuffix(path, config.SourceFileExt) + ".want"
			if _, err := os.Stat(wantFile); err == nil {
				testFiles = append(testFiles, path)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk directory: %v", err)
	}
	if len(testFiles) == 0 {
		t.Skip("no .knot fixtures with a .want file found")
	}

	// skipTests names fixtures whose output is inherently unstable and
	// therefore asserted only at the unit-test level, not here.
	skipTests := map[string]bool{}

	for _, testFile := range testFiles {
		testFile := testFile
		base := strings.TrimSuffix(filepath.Base(testFile), config.SourceFileExt)
		testName := base

		// fixture naming convention: "<name>.check.knot" runs `knot check`,
		// everything else runs `knot run`.
		subcommand := "run"
		if strings.HasSuffix(base, ".check") {
			subcommand = "check"
		}

		if skipTests[testName] {
			continue
		}

		t.Run(testName, func(t *testing.T) {
			absPath, err := filepath.Abs(testFile)
			if err != nil {
				t.Fatalf("failed to get absolute path: %v", err)
			}

			ext := filepath.Ext(testFile)
			wantFile := strings.TrimSuffix(testFile, ext) + ".want"
			wantBytes, err := os.ReadFile(wantFile)
			if err != nil {
				t.Fatalf("failed to read .want file: %v", err)
			}
			want := strings.TrimSpace(string(wantBytes))

			cmd := exec.Command(binaryPath, subcommand, absPath)
			cmd.Dir = projectRoot
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			_ = cmd.Run()

			stdoutStr := strings.TrimSpace(stdout.String())
			stderrStr := strings.TrimSpace(stderr.String())
			var got string
			switch {
			case stdoutStr != "" && stderrStr != "":
				got = stdoutStr + "\n" + stderrStr
			case stdoutStr != "":
				got = stdoutStr
			default:
				got = stderrStr
			}

			got = strings.TrimSpace(strings.ReplaceAll(got, "\r\n", "\n"))
			want = strings.TrimSpace(strings.ReplaceAll(want, "\r\n", "\n"))

			if got != want {
				t.Errorf("output mismatch:\n--- want ---\n%s\n--- got ---\n%s", want, got)
			}
		})
	}
}
