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
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/muonic/muon/config"
	"github.com/muonic/muon/diag"
	"github.com/muonic/muon/option"
)

// dOverrides collects repeated `-D name=value` flags (flag.Value).
type dOverrides []string

func (d *dOverrides) String() string { return strings.Join(*d, ",") }
func (d *dOverrides) Set(s string) error {
	*d = append(*d, s)
	return nil
}

// newLogger returns a config.Logger writing to stderr, at LevelDebug
// when verbose is set and LevelWarn otherwise.
func newLogger(verbose bool) *config.Logger {
	level := config.LevelWarn
	if verbose {
		level = config.LevelDebug
	}
	return config.New(os.Stderr, level)
}

// cmdSetup implements `muon setup <build-dir>` (spec.md §6): run the
// root project file through the interpreter, apply -D overrides to the
// resulting option.Store, and persist the build directory's
// private/option-info.json the rest of the driver's subcommands read
// back.
func cmdSetup(args []string) {
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	var overrides dOverrides
	fs.Var(&overrides, "D", "override a project option (name=value), repeatable")
	reconfigure := fs.Bool("reconfigure", false, "ignore any previously persisted option state")
	breakAt := fs.String("b", "", "debugger breakpoint, as file:line")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 1 {
		exitf("usage: setup [-D name=value]... [--reconfigure] <build-dir>\n")
	}
	buildDir := rest[0]

	root, err := os.Getwd()
	if err != nil {
		exitf("getwd: %s\n", err)
	}
	projectFile := filepath.Join(root, "meson.build")
	if _, err := os.Stat(projectFile); err != nil {
		exitf("no meson.build in %s: %s\n", root, err)
	}

	log := newLogger(dashv)
	w := NewWorkspace(root, log)
	if *breakAt != "" {
		src, line := parseBreakFlag(*breakAt, root)
		w.BreakSource, w.BreakLine = src, line
	}

	rootOpts := w.optionsFor(root)
	if err := option.DeclareGlobalDefaults(rootOpts); err != nil {
		exitf("declaring global options: %s\n", err)
	}
	if err := option.DeclarePerProjectDefaults(rootOpts); err != nil {
		exitf("declaring project options: %s\n", err)
	}

	if !*reconfigure {
		loadPersistedOptions(rootOpts, buildDir)
	}
	for _, ov := range overrides {
		parsed, err := option.ParseCommandline(ov)
		if err != nil {
			exitf("-D %s: %s\n", ov, err)
		}
		if err := rootOpts.SetRaw(parsed.Name, parsed.Value, option.SourceCommandline); err != nil {
			exitf("-D %s: %s\n", ov, err)
		}
	}

	if _, err := w.RunFile(projectFile); err != nil {
		exitf("%s: %s\n", projectFile, err)
	}

	werror := false
	if v, ok := rootOpts.Value("werror"); ok {
		werror = rootOpts.Objs.IsTrue(v)
	}
	reportDiagnostics(os.Stderr, w)
	if w.Diag.HasErrors(diag.ReplayOptions{Werror: werror}) {
		exitf("setup failed: project raised one or more errors\n")
	}

	if err := persistOptions(rootOpts, buildDir); err != nil {
		exitf("persisting option state: %s\n", err)
	}
	fmt.Printf("configured %s\n", buildDir)
}

// parseBreakFlag turns "file:line" (file relative to root unless
// absolute) into an (absolute path, line) pair.
func parseBreakFlag(spec, root string) (string, int) {
	idx := strings.LastIndex(spec, ":")
	if idx < 0 {
		exitf("invalid -b value %q, want file:line\n", spec)
	}
	file, lineStr := spec[:idx], spec[idx+1:]
	if !filepath.IsAbs(file) {
		file = filepath.Join(root, file)
	}
	var line int
	if _, err := fmt.Sscanf(lineStr, "%d", &line); err != nil {
		exitf("invalid -b line %q: %s\n", lineStr, err)
	}
	return file, line
}

const privateDirName = "private"
const optionInfoName = "option-info.json"

// persistedOption is the JSON shape private/option-info.json stores:
// enough to reconstruct an option.Store's externally-visible state
// across invocations (spec.md §6's persisted build-directory state).
type persistedOption struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source int    `json:"source"`
}

func persistOptions(store *option.Store, buildDir string) error {
	dir := filepath.Join(buildDir, privateDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var out []persistedOption
	for _, name := range store.Sorted() {
		h, _ := store.Get(name)
		p := option.Get(store.Objs, h)
		out = append(out, persistedOption{
			Name:   name,
			Value:  displayValue(store.Objs, p.Value, p.Type),
			Source: int(p.Source),
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, optionInfoName), data, 0o644)
}

func loadPersistedOptions(store *option.Store, buildDir string) {
	path := filepath.Join(buildDir, privateDirName, optionInfoName)
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var saved []persistedOption
	if err := json.Unmarshal(data, &saved); err != nil {
		return
	}
	for _, p := range saved {
		_ = store.SetRaw(p.Name, p.Value, option.SourceCommandline)
	}
}

// reportDiagnostics writes every diagnostic record the run accumulated
// to w, one per line, the way message()/warning() output appears on a
// real Meson run's stderr.
func reportDiagnostics(w io.Writer, ws *Workspace) {
	for _, r := range ws.Diag.Records() {
		fmt.Fprintln(w, r.String())
	}
}
