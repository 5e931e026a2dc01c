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

// Command muon is the driver for the interpreter core: it lexes,
// compiles and runs meson.build-shaped project files through the vm
// package, persists option/introspection state under a build
// directory's private/ subdirectory, fetches subproject wraps, and
// exposes the static analyzer both as a one-shot CLI check and as a
// stdio language server (spec.md §6).
//
// This driver does not itself generate a build (the Ninja backend), run
// tests, or reformat source: those, and the several hundred
// build-description functions a full Meson clone needs (executable(),
// dependency(), ...), are external collaborators spec.md §1 scopes out
// of this repo. setup/install/test below are honest about that rather
// than faking a backend invocation.
package main

import (
	"flag"
	"fmt"
	"os"
)

var dashv bool

func init() {
	flag.BoolVar(&dashv, "v", false, "verbose logging")
	flag.BoolVar(&dashv, "verbose", false, "verbose logging (alias of -v)")
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "    %s setup [-D key=value]... [--reconfigure] <build-dir>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "    %s install [-n] [-d destdir]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "    %s test [-s suite] [-j N] [-v] [-l] [-R] [-f] [-e setup]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "    %s subprojects update|list|clean|fetch\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "    %s fmt\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "    %s analyze trace|lsp|root-for|file [-W name|error|list]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "    %s options [-a] [-m]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "    %s internal eval|repl|exe|check|dump_funcs|dump_docs|dump_toolchains\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "    %s meson <meson-compatible args>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "flag usage:\n")
	flag.Usage()
}

func main() {
	argv := os.Args[1:]
	if len(argv) > 0 && argv[0] == "meson" {
		argv = argv[1:]
	}
	args := mesonTranslate(argv)
	flag.CommandLine.Parse(args)
	args = flag.Args()

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	switch args[0] {
	case "setup":
		cmdSetup(args[1:])
	case "install":
		cmdInstall(args[1:])
	case "test", "benchmark":
		cmdTest(args[1:])
	case "subprojects":
		cmdSubprojects(args[1:])
	case "fmt":
		cmdFmt(args[1:])
	case "analyze":
		cmdAnalyze(args[1:])
	case "options":
		cmdOptions(args[1:])
	case "internal":
		cmdInternal(args[1:])
	case "-v", "--version":
		fmt.Println(mesonCompatVersion)
	case "-h", "--help", "help":
		usage()
	default:
		exitf("unknown subcommand %q\n", args[0])
	}
}
