// Copyright (C) 2026 The Muon Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/muonic/muon/analyzer"
	"github.com/muonic/muon/builtin"
	"github.com/muonic/muon/compiler"
	"github.com/muonic/muon/config"
	"github.com/muonic/muon/diag"
	"github.com/muonic/muon/lang"
	"github.com/muonic/muon/lsp"
	"github.com/muonic/muon/object"
	"github.com/muonic/muon/option"
	"github.com/muonic/muon/typecheck"
	"github.com/muonic/muon/vm"
)

// parseWFlags collects repeated `-W name`, `-W no-name`, `-W error`,
// `-W list` flags into an analyzer.Options plus a werror bool, mirroring
// gcc/clang's own -W convention rather than inventing a new one.
func parseWFlags(values []string) (analyzer.Options, bool) {
	opts := analyzer.DefaultOptions()
	werror := false
	for _, v := range values {
		switch {
		case v == "list":
			for _, name := range analyzer.DiagnosticNames() {
				fmt.Println(name)
			}
			os.Exit(0)
		case v == "error":
			werror = true
		case len(v) > 3 && v[:3] == "no-":
			if d, ok := analyzer.DiagnosticByName(v[3:]); ok {
				opts.Enabled &^= d
			} else {
				exitf("unknown diagnostic %q\n", v[3:])
			}
		default:
			if d, ok := analyzer.DiagnosticByName(v); ok {
				opts.Enabled |= d
			} else {
				exitf("unknown diagnostic %q\n", v)
			}
		}
	}
	return opts, werror
}

func cmdAnalyze(args []string) {
	if len(args) == 0 {
		exitf("usage: analyze trace|lsp|root-for|file [-W name|no-name|error|list] <path>\n")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "lsp":
		cmdAnalyzeLSP(rest)
	case "file":
		cmdAnalyzeFile(rest)
	case "trace":
		cmdAnalyzeTrace(rest)
	case "root-for":
		cmdAnalyzeRootFor(rest)
	default:
		exitf("unknown analyze subcommand %q\n", sub)
	}
}

// cmdAnalyzeLSP runs the JSON-RPC stdio language server over stdin/
// stdout until the client disconnects.
func cmdAnalyzeLSP(args []string) {
	fs := flag.NewFlagSet("analyze lsp", flag.ExitOnError)
	fs.Parse(args)

	root, _ := os.Getwd()
	cfg, err := config.LoadLSPConfig(filepath.Join(root, ".muonlsp.yaml"))
	if err != nil {
		exitf("loading .muonlsp.yaml: %s\n", err)
	}
	log := newLogger(dashv)
	server := lsp.New(log, cfg)
	if err := server.Serve(os.Stdin, os.Stdout); err != nil {
		exitf("lsp: %s\n", err)
	}
}

// cmdAnalyzeFile runs one project file through the static analyzer and
// prints its diagnostics: the same parse/compile/analyze pipeline the
// LSP server's analyzeDocument runs per open buffer, applied once to a
// file on disk.
func cmdAnalyzeFile(args []string) {
	fs := flag.NewFlagSet("analyze file", flag.ExitOnError)
	var wValues dOverrides
	fs.Var(&wValues, "W", "diagnostic name, no-name, error, or list")
	fs.Parse(args)
	opts, werror := parseWFlags(wValues)

	rest := fs.Args()
	if len(rest) != 1 {
		exitf("usage: analyze file [-W ...] <path>\n")
	}
	path, err := filepath.Abs(rest[0])
	if err != nil {
		exitf("%s\n", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		exitf("%s\n", err)
	}
	root, err := lang.Parse(data, lang.Normal)
	if err != nil {
		exitf("%s\n", err)
	}

	store := diag.NewStore()
	sourceIdx := store.Sources.Intern(path)
	objs := object.New()
	natives := builtin.NewRegistry().SetDiag(store, sourceIdx)
	natives.SetOptions(option.NewStore(objs, path))
	code := compiler.NewCode()
	c := compiler.New(code, objs, natives)
	entry, err := c.CompileFile(path, root)
	if err != nil {
		exitf("%s\n", err)
	}

	scopes := vm.NewScopeStack()
	theVM := vm.New(code, objs, scopes, typecheck.NewRegistry(), natives)
	a := analyzer.New(store, sourceIdx, opts)
	if _, err := a.Run(theVM, entry, scopes.Root(), lang.Normal, path); err != nil {
		store.Push(sourceIdx, theVM.CurPos(), diag.LevelError, err.Error())
	}

	for _, r := range store.Replay(diag.ReplayOptions{Werror: werror}) {
		fmt.Println(r.String())
	}
	if store.HasErrors(diag.ReplayOptions{Werror: werror}) {
		os.Exit(1)
	}
}

// cmdAnalyzeTrace runs a file through the plain interpreter, printing
// every dispatched instruction's position and opcode as it executes —
// an ad hoc debugging aid `internal eval` doesn't give you, since that
// only shows the script's own message()/warning() output.
func cmdAnalyzeTrace(args []string) {
	fs := flag.NewFlagSet("analyze trace", flag.ExitOnError)
	fs.Parse(args)
	rest := fs.Args()
	if len(rest) != 1 {
		exitf("usage: analyze trace <path>\n")
	}
	path := rest[0]

	root, _ := os.Getwd()
	log := newLogger(dashv)
	w := NewWorkspace(root, log)
	w.optionsFor(root)
	vmRef := w.VM()
	inner := vmRef.Behavior.Dispatch
	vmRef.Behavior.Dispatch = func(m *vm.VM) error {
		op := m.Code.OpAt(m.IP())
		pos := m.CurPos()
		fmt.Fprintf(os.Stderr, "%d:%d: op %d\n", pos.Line, pos.Column, op)
		return inner(m)
	}

	if _, err := w.RunFile(path); err != nil {
		exitf("%s\n", err)
	}
}

// cmdAnalyzeRootFor walks up from path looking for the nearest ancestor
// directory containing a meson.build, mirroring how subdir()/
// subproject() re-entry resolves a file to the project that owns it.
func cmdAnalyzeRootFor(args []string) {
	fs := flag.NewFlagSet("analyze root-for", flag.ExitOnError)
	fs.Parse(args)
	rest := fs.Args()
	if len(rest) != 1 {
		exitf("usage: analyze root-for <path>\n")
	}
	dir, err := filepath.Abs(rest[0])
	if err != nil {
		exitf("%s\n", err)
	}
	if fi, err := os.Stat(dir); err == nil && !fi.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "meson.build")); err == nil {
			fmt.Println(dir)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			exitf("no meson.build found above %s\n", rest[0])
		}
		dir = parent
	}
}
