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
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/muonic/muon/object"
	"github.com/muonic/muon/option"
)

// cmdOptions implements `muon options [-a] [-m]`: list the declared
// options of the project rooted at the current directory and their
// current values; no build directory argument is read. -a also
// lists the built-in options (prefix, libdir, warning_level, ...); -m
// prints machine-readable JSON instead of the human table.
func cmdOptions(args []string) {
	fs := flag.NewFlagSet("options", flag.ExitOnError)
	all := fs.Bool("a", false, "include built-in options")
	machine := fs.Bool("m", false, "print JSON instead of a table")
	fs.Parse(args)

	root, err := os.Getwd()
	if err != nil {
		exitf("getwd: %s\n", err)
	}
	log := newLogger(dashv)
	w := NewWorkspace(root, log)
	rootOpts := w.optionsFor(root)
	if err := option.DeclareGlobalDefaults(rootOpts); err != nil {
		exitf("declaring global options: %s\n", err)
	}
	if err := option.DeclarePerProjectDefaults(rootOpts); err != nil {
		exitf("declaring project options: %s\n", err)
	}
	if _, err := w.RunFile(filepath.Join(root, "meson.build")); err != nil {
		exitf("%s\n", err)
	}

	type row struct {
		Name    string `json:"name"`
		Type    string `json:"type"`
		Value   string `json:"value"`
		Source  string `json:"source"`
		Builtin bool   `json:"builtin"`
	}
	var rows []row
	for _, name := range rootOpts.Sorted() {
		h, _ := rootOpts.Get(name)
		p := option.Get(rootOpts.Objs, h)
		if p.Builtin && !*all {
			continue
		}
		rows = append(rows, row{
			Name:    name,
			Type:    p.Type.String(),
			Value:   displayValue(rootOpts.Objs, p.Value, p.Type),
			Source:  p.Source.String(),
			Builtin: p.Builtin,
		})
	}

	if *machine {
		data, _ := json.MarshalIndent(rows, "", "  ")
		fmt.Println(string(data))
		return
	}
	for _, r := range rows {
		fmt.Printf("%-24s %-10s %-20s %s\n", r.Name, r.Type, r.Value, r.Source)
	}
}

// displayValue renders an option's value handle the way set_option's
// raw-string encoding expects to read it back (persistOptions/
// loadPersistedOptions round-trip through this same shape), dispatching
// on the option's declared Kind rather than assuming a string handle.
func displayValue(objs *object.Table, h object.Handle, kind option.Kind) string {
	switch kind {
	case option.KindBoolean:
		return strconv.FormatBool(objs.IsTrue(h))
	case option.KindInteger:
		return strconv.FormatInt(objs.Number(h), 10)
	case option.KindArray, option.KindShellArray:
		vals := objs.ArrayValues(h)
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = objs.String(v)
		}
		return strings.Join(parts, ",")
	case option.KindFeature:
		return option.GetFeature(objs, h).String()
	default:
		return objs.String(h)
	}
}
