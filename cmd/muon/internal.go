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
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/muonic/muon/builtin"
	"github.com/muonic/muon/option"
)

// cmdInternal implements `muon internal ...`, the grab-bag of low-level
// entry points a test suite or an editor plugin drives directly rather
// than going through setup/analyze.
func cmdInternal(args []string) {
	if len(args) == 0 {
		exitf("usage: internal eval|repl|exe|check|dump_funcs|dump_docs|dump_toolchains\n")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "eval":
		cmdInternalEval(rest)
	case "repl":
		cmdInternalRepl(rest)
	case "exe":
		cmdInternalExe(rest)
	case "check":
		cmdInternalCheck(rest)
	case "dump_funcs":
		cmdInternalDumpFuncs(rest)
	case "dump_docs":
		cmdInternalDumpDocs(rest)
	case "dump_toolchains":
		cmdInternalDumpToolchains(rest)
	default:
		exitf("unknown internal subcommand %q\n", sub)
	}
}

// cmdInternalEval runs a single file outside any project context: no
// option defaults, no meson.build discovery, just lex/compile/run.
func cmdInternalEval(args []string) {
	if len(args) == 0 {
		exitf("usage: internal eval <file> [args]\n")
	}
	path := args[0]
	root, _ := os.Getwd()
	log := newLogger(dashv)
	w := NewWorkspace(root, log)
	if _, err := w.RunFile(path); err != nil {
		exitf("%s\n", err)
	}
}

// cmdInternalRepl reads one statement per line from stdin, compiling
// and running each against a single persistent workspace so variables
// assigned on one line are visible to the next (the same scope reuse
// subdir() gets, just driven a line at a time instead of a whole file).
func cmdInternalRepl(args []string) {
	fs := flag.NewFlagSet("internal repl", flag.ExitOnError)
	fs.Parse(args)

	root, _ := os.Getwd()
	log := newLogger(dashv)
	w := NewWorkspace(root, log)
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(os.Stderr, "> ")
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			fmt.Fprint(os.Stderr, "> ")
			continue
		}
		tmp, err := os.CreateTemp("", "muon-repl-*.build")
		if err != nil {
			exitf("%s\n", err)
		}
		name := tmp.Name()
		fmt.Fprint(tmp, line)
		tmp.Close()
		if v, err := w.RunFile(name); err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		} else if v != 0 {
			fmt.Println(w.Objs.String(v))
		}
		os.Remove(name)
		fmt.Fprint(os.Stderr, "> ")
	}
	fmt.Fprintln(os.Stderr)
}

// cmdInternalExe runs a child process the way run_command's dispatcher
// would: -f feeds a file to stdin, -c captures stdout to a file, -e
// loads KEY=VALUE lines into the child's environment, -a appends
// NUL-separated argv entries from a file onto the command line. Exit
// status propagates (spec.md §6: "exe propagates the child status").
func cmdInternalExe(args []string) {
	fs := flag.NewFlagSet("internal exe", flag.ExitOnError)
	feed := fs.String("f", "", "feed this file to the child's stdin")
	capture := fs.String("c", "", "capture the child's stdout to this file")
	envfile := fs.String("e", "", "load KEY=VALUE environment lines from this file")
	argsfile := fs.String("a", "", "append NUL-separated argv entries from this file")
	fs.Parse(args)

	argv := append([]string{}, fs.Args()...)
	if *argsfile != "" {
		data, err := os.ReadFile(*argsfile)
		if err != nil {
			exitf("%s\n", err)
		}
		for _, a := range strings.Split(string(data), "\x00") {
			if a != "" {
				argv = append(argv, a)
			}
		}
	}
	if len(argv) == 0 {
		exitf("usage: internal exe [-f feed] [-c capture] [-e envfile] [-a argsfile] <argv...>\n")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = os.Environ()
	if *envfile != "" {
		data, err := os.ReadFile(*envfile)
		if err != nil {
			exitf("%s\n", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if line != "" {
				cmd.Env = append(cmd.Env, line)
			}
		}
	}

	if *feed != "" {
		f, err := os.Open(*feed)
		if err != nil {
			exitf("%s\n", err)
		}
		defer f.Close()
		cmd.Stdin = f
	} else {
		cmd.Stdin = os.Stdin
	}

	var out *os.File
	if *capture != "" {
		f, err := os.Create(*capture)
		if err != nil {
			exitf("%s\n", err)
		}
		defer f.Close()
		out = f
	} else {
		out = os.Stdout
	}
	cmd.Stdout = out
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		exitf("%s\n", err)
	}
}

// cmdInternalCheck parses and compiles a file without running it,
// printing nothing on success: the parse-and-compile step of analyze
// file without the analysis run, for a test harness that only cares whether a file
// parses and compiles at all.
func cmdInternalCheck(args []string) {
	if len(args) == 0 {
		exitf("usage: internal check <file>\n")
	}
	root, _ := os.Getwd()
	log := newLogger(dashv)
	w := NewWorkspace(root, log)
	if _, err := w.compile(args[0]); err != nil {
		exitf("%s\n", err)
	}
}

// cmdInternalDumpFuncs prints every registered builtin/module function
// name, one per line, sorted: the introspection dump a doc generator or
// an editor's completion list reads from.
func cmdInternalDumpFuncs(args []string) {
	r := builtin.NewRegistry()
	names := r.ModuleFunctionNames()
	sort.Strings(names)
	for _, name := range names {
		fmt.Println(name)
	}
}

// cmdInternalDumpDocs prints the same function names with their
// registered argument specs, the plain-text seed a real doc generator
// (a collaborator outside this repo) would template into prose.
func cmdInternalDumpDocs(args []string) {
	r := builtin.NewRegistry()
	names := r.ModuleFunctionNames()
	sort.Strings(names)
	for _, name := range names {
		f, ok := r.Describe(name)
		if !ok {
			continue
		}
		fmt.Printf("%s(", name)
		for i, p := range f.Pos {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Print(p.Name)
			if !p.Required {
				fmt.Print("?")
			}
		}
		fmt.Println(")")
	}
}

// cmdInternalDumpToolchains prints the environment-sourced builtin
// options (spec.md §6: CC/CXX/AR/LD/NINJA/CFLAGS/... each bind to a
// builtin option ranked source=environment) after declaring the global
// option defaults, so this reflects exactly what setup would see.
func cmdInternalDumpToolchains(args []string) {
	root, _ := os.Getwd()
	log := newLogger(dashv)
	w := NewWorkspace(root, log)
	opts := w.optionsFor(root)
	if err := option.DeclareGlobalDefaults(opts); err != nil {
		exitf("%s\n", err)
	}
	for _, name := range opts.Sorted() {
		if !strings.HasPrefix(name, "env.") && name != "c_args" && name != "c_link_args" {
			continue
		}
		h, _ := opts.Get(name)
		p := option.Get(opts.Objs, h)
		fmt.Printf("%-16s %s\n", name, displayValue(opts.Objs, p.Value, p.Type))
	}
}
