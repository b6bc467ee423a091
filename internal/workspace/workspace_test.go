package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vibe-lang/vibe/internal/codebase"
	"github.com/vibe-lang/vibe/internal/lang"
)

func TestStageDoesNotTouchCommittedStore(t *testing.T) {
	store := codebase.New()
	ws := New(store)

	h, err := ws.Stage("x", lang.IntLit{Value: 1})
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	if _, ok := store.Resolve("x"); ok {
		t.Fatal("committed store should not see a staged-only binding")
	}
	resolved, ok := ws.Resolve("x")
	if !ok || resolved != h {
		t.Fatal("workspace.Resolve should see its own staged binding")
	}
}

func TestCommitBindsAndClearsStaged(t *testing.T) {
	store := codebase.New()
	ws := New(store)

	if _, err := ws.Stage("x", lang.IntLit{Value: 1}); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := ws.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(ws.StagedNames()) != 0 {
		t.Fatal("Commit should clear the staged map")
	}
	if _, ok := store.Resolve("x"); !ok {
		t.Fatal("Commit should durably bind staged names")
	}
}

func TestRevertDropsStagedWithoutTouchingStore(t *testing.T) {
	store := codebase.New()
	ws := New(store)

	if _, err := ws.Stage("x", lang.IntLit{Value: 1}); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	ws.Revert()
	if len(ws.StagedNames()) != 0 {
		t.Fatal("Revert should clear staged")
	}
	if _, ok := store.Resolve("x"); ok {
		t.Fatal("Revert must not touch the committed store")
	}
}

func TestDiffReportsFromAndTo(t *testing.T) {
	store := codebase.New()
	ws := New(store)

	h1, _ := ws.Stage("x", lang.IntLit{Value: 1})
	if err := ws.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	h2, _ := ws.Stage("x", lang.IntLit{Value: 2})

	diffs := ws.Diff()
	if len(diffs) != 1 {
		t.Fatalf("want 1 diff entry, got %d", len(diffs))
	}
	d := diffs[0]
	if d.Name != "x" || d.From != h1 || d.To != h2 {
		t.Fatalf("unexpected diff: %+v", d)
	}
}

func TestEvalResolvesThroughStagedBinding(t *testing.T) {
	store := codebase.New()
	ws := New(store)

	if _, err := ws.Stage("x", lang.IntLit{Value: 42}); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	res, err := ws.Eval(context.Background(), "x")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if res.Err != nil {
		t.Fatalf("eval error: %v", res.Err)
	}
	if res.Value.String() != "42" {
		t.Fatalf("want 42, got %s", res.Value.String())
	}
}

func TestEvalUndefinedNameErrors(t *testing.T) {
	store := codebase.New()
	ws := New(store)
	if _, err := ws.Eval(context.Background(), "nope"); err == nil {
		t.Fatal("want an error resolving an undefined name")
	}
}

func TestFindConfigWalksUpToParent(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".knot"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfgPath := filepath.Join(root, ".knot", "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("default_namespace: Main\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	child := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	found, err := FindConfig(child)
	if err != nil {
		t.Fatalf("FindConfig: %v", err)
	}
	if found != cfgPath {
		t.Fatalf("want %s, got %s", cfgPath, found)
	}
}

func TestFindConfigReturnsEmptyWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	found, err := FindConfig(dir)
	if err != nil {
		t.Fatalf("FindConfig: %v", err)
	}
	if found != "" {
		t.Fatalf("want no config found, got %s", found)
	}
}

func TestLoadConfigParsesHostBindings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "codebase_path: ./store.db\ndefault_namespace: Main\nhost_bindings:\n  - example.com/pkg/io\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DefaultNamespace != "Main" || len(cfg.HostBindings) != 1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
