// Command knot is the thin CLI shell around the content-addressed workspace
// (spec.md §6): parse/check/run/test/shell subcommands, hand-rolled os.Args
// dispatch with no flag-parsing framework, matching cmd/funxy/main.go's own
// idiom (the teacher never reaches for a CLI library despite spf13/cobra
// being visible elsewhere in the retrieved pack).
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/vibe-lang/vibe/internal/codebase"
	"github.com/vibe-lang/vibe/internal/config"
	"github.com/vibe-lang/vibe/internal/diag"
	"github.com/vibe-lang/vibe/internal/lang"
	"github.com/vibe-lang/vibe/internal/parser"
	"github.com/vibe-lang/vibe/internal/workspace"
)

// exit codes per spec.md §6: 0 success, 1 user error (parse/type/runtime), 2
// internal error.
const (
	exitOK       = 0
	exitUserErr  = 1
	exitInternal = 2
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			os.Exit(exitInternal)
		}
	}()

	if len(os.Args) < 2 {
		usage()
		os.Exit(exitUserErr)
	}

	switch os.Args[1] {
	case "parse":
		os.Exit(cmdParse(os.Args[2:]))
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "test":
		os.Exit(cmdTest(os.Args[2:]))
	case "shell":
		os.Exit(cmdShell(os.Args[2:]))
	case "-help", "--help", "help":
		usage()
		os.Exit(exitOK)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(exitUserErr)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: knot <parse|check|run|test|shell> [args]")
	fmt.Fprintln(os.Stderr, "  parse FILE    parse a source file and print its AST")
	fmt.Fprintln(os.Stderr, "  check FILE    parse, hash, and type/effect-check every definition")
	fmt.Fprintln(os.Stderr, "  run FILE      evaluate each statement in order, print the last one's value")
	fmt.Fprintln(os.Stderr, "  test [FILTER] run tests/*.knot, optionally filtered by substring")
	fmt.Fprintln(os.Stderr, "  shell         interactive REPL")
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func parseProgram(path, src string) (*lang.Program, []*diag.Error) {
	return parser.ParseProgram(path, src)
}

func cmdParse(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: knot parse FILE")
		return exitUserErr
	}
	src, err := readFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUserErr
	}
	prog, errs := parseProgram(args[0], src)
	if len(errs) > 0 {
		printDiags(errs, src)
		return exitUserErr
	}
	for _, stmt := range prog.Statements {
		fmt.Println(lang.Pretty(stmt))
	}
	return exitOK
}

func cmdCheck(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: knot check FILE")
		return exitUserErr
	}
	src, err := readFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUserErr
	}
	prog, errs := parseProgram(args[0], src)
	if len(errs) > 0 {
		printDiags(errs, src)
		return exitUserErr
	}

	store := codebase.New()
	ws := workspace.New(store)
	ctx := context.Background()
	ok := true
	for i, stmt := range prog.Statements {
		name := lang.Ident(fmt.Sprintf("_stmt%d", i))
		let, isLet := stmt.(lang.Let)
		if isLet {
			name = let.Name
		}
		h, err := ws.Stage(name, stmt)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			ok = false
			continue
		}
		res, err := ws.Engine.InferHash(ctx, h)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			ok = false
			continue
		}
		if diag.HasErrors(res.Diags) {
			ok = false
		}
		printDiags(res.Diags, src)
		if !diag.HasErrors(res.Diags) && isLet {
			fmt.Printf("%s : %s\n", name, res.Scheme)
		}
		// commit immediately so later statements can resolve this one as a
		// dependency (codebase.Store.Put only resolves names already bound
		// in the committed store, not still-staged ones).
		if err := ws.Commit(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitInternal
		}
	}
	if !ok {
		return exitUserErr
	}
	return exitOK
}

func cmdRun(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: knot run FILE")
		return exitUserErr
	}
	src, err := readFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUserErr
	}
	prog, errs := parseProgram(args[0], src)
	if len(errs) > 0 {
		printDiags(errs, src)
		return exitUserErr
	}

	store := codebase.New()
	ws := workspace.New(store)
	ctx := context.Background()

	var last lang.Expr
	for i, stmt := range prog.Statements {
		name := lang.Ident(fmt.Sprintf("_stmt%d", i))
		if let, ok := stmt.(lang.Let); ok {
			name = let.Name
		}
		h, err := ws.Stage(name, stmt)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitUserErr
		}
		if _, err := ws.Engine.EvalHash(ctx, h); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitUserErr
		}
		// commit immediately so later statements can resolve this one as a
		// dependency (codebase.Store.Put only resolves names already bound
		// in the committed store, not still-staged ones).
		if err := ws.Commit(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitInternal
		}
		last = stmt
	}
	if last == nil {
		return exitOK
	}
	lastName := lang.Ident(fmt.Sprintf("_stmt%d", len(prog.Statements)-1))
	if let, ok := last.(lang.Let); ok {
		lastName = let.Name
	}
	result, err := ws.Eval(ctx, lastName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUserErr
	}
	if result.Err != nil {
		fmt.Fprintln(os.Stderr, result.Err)
		return exitUserErr
	}
	fmt.Println(result.Value.String())
	return exitOK
}

func cmdTest(args []string) int {
	filter := ""
	if len(args) > 0 {
		filter = args[0]
	}
	entries, err := os.ReadDir("tests")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUserErr
	}
	failed := 0
	ran := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), config.SourceFileExt) {
			continue
		}
		if filter != "" && !strings.Contains(e.Name(), filter) {
			continue
		}
		ran++
		rc := cmdRun([]string{"tests/" + e.Name()})
		if rc != exitOK {
			failed++
			fmt.Printf("FAIL %s\n", e.Name())
		} else {
			fmt.Printf("ok   %s\n", e.Name())
		}
	}
	fmt.Printf("%d ran, %d failed\n", ran, failed)
	if failed > 0 {
		return exitUserErr
	}
	return exitOK
}

func cmdShell(args []string) int {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	store := codebase.New()
	ws := workspace.New(store)
	ctx := context.Background()

	scanner := bufio.NewScanner(os.Stdin)
	count := 0
	if interactive {
		fmt.Print("knot> ")
	}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if interactive {
				fmt.Print("knot> ")
			}
			continue
		}
		if line == ":quit" || line == ":q" {
			break
		}
		prog, errs := parseProgram("<shell>", line)
		if len(errs) > 0 {
			printDiags(errs, line)
			if interactive {
				fmt.Print("knot> ")
			}
			continue
		}
		for _, stmt := range prog.Statements {
			name := lang.Ident(fmt.Sprintf("_it%d", count))
			if let, ok := stmt.(lang.Let); ok {
				name = let.Name
			}
			count++
			h, err := ws.Stage(name, stmt)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			res, err := ws.Engine.EvalHash(ctx, h)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			if res.Err != nil {
				fmt.Fprintln(os.Stderr, res.Err)
				continue
			}
			fmt.Println(res.Value.String())
			// commit immediately so later input lines can resolve this
			// binding as a dependency (codebase.Store.Put only resolves
			// names already bound in the committed store, not staged ones).
			if err := ws.Commit(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return exitInternal
			}
		}
		if interactive {
			fmt.Print("knot> ")
		}
	}
	return exitOK
}

func printDiags(errs []*diag.Error, src string) {
	for _, e := range errs {
		fmt.Fprint(os.Stderr, diag.Render(e, src))
	}
}
