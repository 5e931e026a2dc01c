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

package option

import (
	"os"
	"strings"

	"github.com/muonic/muon/object"
)

// DeclareGlobalDefaults installs the workspace-global built-in options
// (init_global_options's embedded global_options.meson recipe), then
// overlays any of them that have a corresponding environment variable set
// (CC, NINJA, AR, LD, CFLAGS/CPPFLAGS, LDFLAGS), ranked SourceEnvironment.
func DeclareGlobalDefaults(store *Store) error {
	strs := map[string]string{
		"buildtype":       "debugoptimized",
		"prefix":          "/usr/local",
		"bindir":          "bin",
		"mandir":          "share/man",
		"datadir":         "share",
		"libdir":          "lib",
		"includedir":      "include",
		"wrap_mode":       "nopromote",
		"pkg_config_path": "",
	}
	for _, name := range []string{"buildtype", "prefix", "bindir", "mandir", "datadir", "libdir", "includedir", "wrap_mode", "pkg_config_path"} {
		if _, err := store.Declare(name, Payload{Type: KindString, Value: store.Objs.MakeString(strs[name]), Builtin: true}); err != nil {
			return err
		}
	}
	if err := declareDir(store, "prefix", store.Objs.MakeString(strs["prefix"])); err != nil {
		_ = err
	}

	for _, name := range []string{"force_fallback_for", "c_args", "c_link_args"} {
		if _, err := store.Declare(name, Payload{Type: KindArray, Value: store.Objs.NewArray(), Builtin: true}); err != nil {
			return err
		}
	}
	if _, err := store.Declare("werror", Payload{Type: KindBoolean, Value: object.HFalse, Builtin: true}); err != nil {
		return err
	}
	for name, def := range map[string]string{
		"env.CC":    "cc",
		"env.NINJA": "ninja",
		"env.AR":    "ar",
		"env.LD":    "ld",
	} {
		if _, err := store.Declare(name, Payload{Type: KindArray, Value: store.Objs.NewArrayFrom([]object.Handle{store.Objs.MakeString(def)}), Builtin: true}); err != nil {
			return err
		}
	}

	setEnvBinary(store, "CC", "env.CC")
	setEnvBinary(store, "NINJA", "env.NINJA")
	setEnvBinary(store, "AR", "env.AR")
	setEnvBinary(store, "LD", "env.LD")
	setEnvCompileOpt(store, "c_args", "CFLAGS", "CPPFLAGS")
	setEnvCompileOpt(store, "c_link_args", "CFLAGS", "LDFLAGS")
	return nil
}

// declareDir is a placeholder hook for a future prefixed_dir variant of
// the directory options (bindir/libdir/... are plain strings upstream;
// only a project's own option() calls may opt into kind: 'prefixed_dir').
func declareDir(store *Store, name string, v object.Handle) error { return nil }

// DeclarePerProjectDefaults installs the per-project built-in options
// (init_per_project_options's embedded per_project_options.meson recipe).
func DeclarePerProjectDefaults(store *Store) error {
	decls := map[string]string{
		"default_library": "static",
		"warning_level":   "3",
		"c_std":           "c99",
	}
	for _, name := range []string{"default_library", "warning_level", "c_std"} {
		if _, err := store.Declare(name, Payload{Type: KindString, Value: store.Objs.MakeString(decls[name]), Builtin: true}); err != nil {
			return err
		}
	}
	return nil
}

// setEnvBinary overlays optName's value with envvar's contents
// (whitespace-split, matching the upstream implementation's own
// placeholder for full shell-word splitting) if envvar is set and
// non-empty.
func setEnvBinary(store *Store, envvar, optName string) {
	v := os.Getenv(envvar)
	if v == "" {
		return
	}
	_ = store.SetValue(optName, store.Objs.NewArrayFrom(splitWords(store.Objs, v)), SourceEnvironment, false)
}

// setEnvCompileOpt extends optName's array value with the contents of
// flagsVar and extraVar (e.g. CFLAGS and CPPFLAGS), each if set, ranked
// SourceEnvironment.
func setEnvCompileOpt(store *Store, optName, flagsVar, extraVar string) {
	for _, envvar := range []string{flagsVar, extraVar} {
		v := os.Getenv(envvar)
		if v == "" {
			continue
		}
		extendArrayOption(store, optName, splitWords(store.Objs, v), SourceEnvironment)
	}
}

func splitWords(objs *object.Table, s string) []object.Handle {
	fields := strings.Fields(s)
	out := make([]object.Handle, len(fields))
	for i, f := range fields {
		out[i] = objs.MakeString(f)
	}
	return out
}

// extendArrayOption appends extra onto optName's existing array value
// (extend_array_option), subject to the same source-rank gate as any
// other write.
func extendArrayOption(store *Store, optName string, extra []object.Handle, source Source) {
	h, ok := store.Get(optName)
	if !ok {
		return
	}
	p := Get(store.Objs, h)
	if p.Source > source {
		return
	}
	p.Source = source
	p.Value = store.Objs.ArrayExtend(p.Value, store.Objs.NewArrayFrom(extra))
	put(store.Objs, h, p)
}

// Yield resolves Open Question #1 (yield vs subproject_default_options
// ordering, see DESIGN.md): every option in child that was declared with
// yield: true and has never been written by a source ranked
// SourceSubprojectDefaultOptions or higher inherits parent's current
// value for the same-named option, written at SourceYield rank. SourceYield
// ranks above SourceSubprojectDefaultOptions, so a subproject_default_options
// write in child that runs after this call is rejected by the rank gate.
// Options with mismatched Kind are skipped with a warning rather than
// failing the whole run.
func Yield(child, parent *Store) {
	for _, name := range child.order {
		h := child.opts[name]
		p := Get(child.Objs, h)
		if !p.Yield {
			continue
		}
		if p.Source >= SourceSubprojectDefaultOptions {
			continue
		}
		ph, ok := parent.opts[name]
		if !ok {
			continue
		}
		pp := Get(parent.Objs, ph)
		if pp.Type != p.Type {
			child.warn("option %q cannot yield to parent option due to a type mismatch (%s != %s)", name, pp.Type, p.Type)
			continue
		}
		_ = child.setValue(h, pp.Value, SourceYield, false)
	}
}

// WrapMode returns the effective wrap_mode option value
// (get_option_wrap_mode).
func WrapMode(store *Store) string {
	v, ok := store.Value("wrap_mode")
	if !ok {
		return "nopromote"
	}
	return store.Objs.String(v)
}

// DefaultLibrary returns the effective default_library option value
// (get_option_default_library).
func DefaultLibrary(store *Store) string {
	v, ok := store.Value("default_library")
	if !ok {
		return "static"
	}
	return store.Objs.String(v)
}

// Bool returns name's boolean value from overrides if present, else from
// store, else fallback (get_option_bool).
func Bool(store *Store, overrides map[string]object.Handle, name string, fallback bool) bool {
	if overrides != nil {
		if h, ok := overrides[name]; ok {
			return store.Objs.IsTrue(h)
		}
	}
	v, ok := store.Value(name)
	if !ok {
		return fallback
	}
	return store.Objs.IsTrue(v)
}
