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

package builtin

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/muonic/muon/diag"
	"github.com/muonic/muon/object"
	"github.com/muonic/muon/typecheck"
	"github.com/muonic/muon/vm"
)

// registerModuleFuncs installs the free-function table: the handful of
// module-level builtins the interpreter core itself needs (variable
// get/set, disabler/variable introspection, diagnostics, files(), and
// the subdir()/subproject() re-entry points), grounded on the original
// implementation's module table in src/builtin.c
// (message/warning/error/assert/files/get_variable/set_variable/
// is_disabler/is_variable/subdir/subproject). The several hundred
// build-description functions (executable(), dependency(), project(),
// ...) are out of this spec's scope (§1) and are left to the
// build-backend layer this spec does not cover.
func registerModuleFuncs(r *Registry) {
	r.addModule(Func{
		Name: "message",
		Pos:  []ArgSpec{{Name: "args", Any: true, Glob: true}},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			r.reportJoined(m, pos[0], diag.LevelWarning, "MESSAGE")
			return object.HNull, nil
		},
	})
	r.addModule(Func{
		Name: "warning",
		Pos:  []ArgSpec{{Name: "args", Any: true, Glob: true}},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			r.reportJoined(m, pos[0], diag.LevelWarning, "WARNING")
			return object.HNull, nil
		},
	})
	r.addModule(Func{
		Name: "error",
		Pos:  []ArgSpec{{Name: "args", Any: true, Glob: true}},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			return object.NoValue, fmt.Errorf("%s", joinStringify(m, pos[0]))
		},
	})
	r.addModule(Func{
		Name: "assert",
		Pos: []ArgSpec{
			{Name: "cond", Type: typecheck.Of(object.TagBool), Required: true},
			{Name: "message", Type: typecheck.Of(object.TagString)},
		},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			if pos[0] == object.HTrue {
				return object.HNull, nil
			}
			if pos[1] != object.NoValue {
				return object.NoValue, fmt.Errorf("assert failed: %s", m.Objects.String(pos[1]))
			}
			return object.NoValue, fmt.Errorf("assert failed")
		},
	})
	r.addModule(Func{
		Name:              "is_disabler",
		Pos:               []ArgSpec{{Name: "value", Any: true, Required: true}},
		SkipDisablerCheck: true,
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			return object.Bool(pos[0] == object.HDisabler), nil
		},
	})
	r.addModule(Func{
		Name:              "disabler",
		SkipDisablerCheck: true,
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			return object.HDisabler, nil
		},
	})
	r.addModule(Func{
		Name: "is_variable",
		Pos:  []ArgSpec{{Name: "name", Type: typecheck.Of(object.TagString), Required: true}},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			_, ok := m.Behavior.LookupVar(m, m.Objects.String(pos[0]))
			return object.Bool(ok), nil
		},
	})
	r.addModule(Func{
		Name: "get_variable",
		Pos: []ArgSpec{
			{Name: "name", Type: typecheck.Of(object.TagString), Required: true},
			{Name: "fallback", Any: true},
		},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			name := m.Objects.String(pos[0])
			if v, ok := m.Behavior.LookupVar(m, name); ok {
				return v, nil
			}
			if pos[1] != object.NoValue {
				return pos[1], nil
			}
			return object.NoValue, fmt.Errorf("unknown variable %q", name)
		},
	})
	r.addModule(Func{
		Name: "set_variable",
		Pos: []ArgSpec{
			{Name: "name", Type: typecheck.Of(object.TagString), Required: true},
			{Name: "value", Any: true, Required: true},
		},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			m.Behavior.AssignVar(m, m.Objects.String(pos[0]), pos[1])
			return object.HNull, nil
		},
	})
	r.addModule(Func{
		Name: "subdir",
		Pos:  []ArgSpec{{Name: "name", Type: typecheck.Of(object.TagString), Required: true}},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			dir := filepath.Dir(m.Frame().SourceName)
			path := filepath.Join(dir, m.Objects.String(pos[0]), "meson.build")
			return m.Behavior.EvalProjectFile(m, path)
		},
	})
	r.addModule(Func{
		Name: "subproject",
		Pos: []ArgSpec{
			{Name: "name", Type: typecheck.Of(object.TagString), Required: true},
			{Name: "required", Any: true},
		},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			dir := filepath.Dir(m.Frame().SourceName)
			path := filepath.Join(dir, "subprojects", m.Objects.String(pos[0]), "meson.build")
			return m.Behavior.EvalProjectFile(m, path)
		},
	})
	r.addModule(Func{
		Name: "files",
		Pos:  []ArgSpec{{Name: "paths", Type: typecheck.Of(object.TagString), Glob: true}},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			paths := m.Objects.ArrayValues(pos[0])
			out := make([]object.Handle, len(paths))
			for i, p := range paths {
				out[i] = m.Objects.NewFile(object.FilePayload{Path: m.Objects.String(p)})
			}
			return m.Objects.NewArrayFrom(out), nil
		},
	})
}

// joinStringify renders a glob-collected argument array the way
// message()/warning()/error() join their arguments: space-separated,
// each stringified the way the `+` string-concat coercion does (spec.md
// §4.5's stringify op), skipping quoting for plain strings.
func joinStringify(m *vm.VM, args object.Handle) string {
	var parts []string
	for _, v := range m.Objects.ArrayValues(args) {
		parts = append(parts, stringify(m, v))
	}
	return strings.Join(parts, " ")
}

// reportJoined routes message()/warning() (and arith.go's
// version-looking comparison warning, via the same Warnf hook) into the
// diagnostic store once a driver has wired one in with SetDiag (spec.md
// §4.12); with none configured it falls back to the VM's plain Warnf,
// the same hook used before the store existed.
func (r *Registry) reportJoined(m *vm.VM, args object.Handle, level diag.Level, tag string) {
	msg := fmt.Sprintf("%s: %s", tag, joinStringify(m, args))
	if r.Diag != nil {
		r.Diag.Push(r.Source, m.CurPos(), level, msg)
		return
	}
	if m.Warnf == nil {
		return
	}
	m.Warnf(m.CurPos(), "%s", msg)
}
