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
	"strconv"
	"strings"

	"github.com/muonic/muon/object"
	"github.com/muonic/muon/typecheck"
	"github.com/muonic/muon/vm"
)

var strArg = ArgSpec{Name: "s", Type: typecheck.Of(object.TagString), Required: true}

// registerStringMethods installs the `'x'.method()` receiver table, the
// method surface of the built-in str object. Grounded on Meson's
// documented string methods (strip/upper/lower/contains/split/join/
// format/replace/startswith/endswith/to_int/version_compare), limited to
// the ones the interpreter core's own control flow (foreach over
// str.split(), if str.contains(...)) and the option layer's string
// coercions actually exercise.
func registerStringMethods(r *Registry) {
	r.addMethod(object.TagString, Func{
		Name: "strip",
		Kw:   []ArgSpec{{Name: "strip_chars", Any: true}},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			s := m.Objects.String(self)
			cutset := " \t\n\r"
			if v, ok := kw["strip_chars"]; ok && v != object.NoValue {
				cutset = m.Objects.String(v)
			}
			return m.Objects.MakeString(strings.Trim(s, cutset)), nil
		},
	})
	r.addMethod(object.TagString, Func{
		Name: "to_upper",
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			return m.Objects.MakeString(strings.ToUpper(m.Objects.String(self))), nil
		},
	})
	r.addMethod(object.TagString, Func{
		Name: "to_lower",
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			return m.Objects.MakeString(strings.ToLower(m.Objects.String(self))), nil
		},
	})
	r.addMethod(object.TagString, Func{
		Name: "contains",
		Pos:  []ArgSpec{strArg},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			return object.Bool(strings.Contains(m.Objects.String(self), m.Objects.String(pos[0]))), nil
		},
	})
	r.addMethod(object.TagString, Func{
		Name: "startswith",
		Pos:  []ArgSpec{strArg},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			return object.Bool(strings.HasPrefix(m.Objects.String(self), m.Objects.String(pos[0]))), nil
		},
	})
	r.addMethod(object.TagString, Func{
		Name: "endswith",
		Pos:  []ArgSpec{strArg},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			return object.Bool(strings.HasSuffix(m.Objects.String(self), m.Objects.String(pos[0]))), nil
		},
	})
	r.addMethod(object.TagString, Func{
		Name: "split",
		Pos:  []ArgSpec{{Name: "sep", Type: typecheck.Of(object.TagString)}},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			s := m.Objects.String(self)
			var parts []string
			if pos[0] == object.NoValue {
				parts = strings.Fields(s)
			} else {
				parts = strings.Split(s, m.Objects.String(pos[0]))
			}
			out := make([]object.Handle, len(parts))
			for i, p := range parts {
				out[i] = m.Objects.MakeString(p)
			}
			return m.Objects.NewArrayFrom(out), nil
		},
	})
	r.addMethod(object.TagString, Func{
		Name: "join",
		Pos:  []ArgSpec{{Name: "items", Type: typecheck.Of(object.TagArray), Required: true}},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			sep := m.Objects.String(self)
			vals := m.Objects.ArrayValues(pos[0])
			parts := make([]string, len(vals))
			for i, v := range vals {
				if m.Objects.Tag(v) != object.TagString {
					return object.NoValue, fmt.Errorf("join: element %d is not a string", i)
				}
				parts[i] = m.Objects.String(v)
			}
			return m.Objects.MakeString(strings.Join(parts, sep)), nil
		},
	})
	r.addMethod(object.TagString, Func{
		Name: "replace",
		Pos:  []ArgSpec{strArg, strArg},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			s := m.Objects.String(self)
			return m.Objects.MakeString(strings.ReplaceAll(s, m.Objects.String(pos[0]), m.Objects.String(pos[1]))), nil
		},
	})
	r.addMethod(object.TagString, Func{
		Name: "underscorify",
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			s := m.Objects.String(self)
			b := make([]byte, len(s))
			for i := 0; i < len(s); i++ {
				c := s[i]
				if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
					b[i] = c
				} else {
					b[i] = '_'
				}
			}
			return m.Objects.MakeString(string(b)), nil
		},
	})
	r.addMethod(object.TagString, Func{
		Name: "to_int",
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			n, err := strconv.ParseInt(strings.TrimSpace(m.Objects.String(self)), 10, 64)
			if err != nil {
				return object.NoValue, fmt.Errorf("to_int: %q is not an integer", m.Objects.String(self))
			}
			return m.Objects.NewNumber(n), nil
		},
	})
	r.addMethod(object.TagString, Func{
		Name: "version_compare",
		Pos:  []ArgSpec{strArg},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			return object.Bool(versionCompareExpr(m.Objects.String(self), m.Objects.String(pos[0]))), nil
		},
	})
	r.addMethod(object.TagString, Func{
		Name: "format",
		Pos:  []ArgSpec{{Name: "args", Any: true, Glob: true}},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			tmpl := m.Objects.String(self)
			args := m.Objects.ArrayValues(pos[0])
			var b strings.Builder
			for i := 0; i < len(tmpl); i++ {
				if tmpl[i] == '@' {
					if end := strings.IndexByte(tmpl[i+1:], '@'); end >= 0 {
						idxStr := tmpl[i+1 : i+1+end]
						if n, err := strconv.Atoi(idxStr); err == nil && n >= 0 && n < len(args) {
							b.WriteString(stringify(m, args[n]))
							i += end + 1
							continue
						}
					}
				}
				b.WriteByte(tmpl[i])
			}
			return m.Objects.MakeString(b.String()), nil
		},
	})
}

// registerArrayMethods installs the array receiver table.
func registerArrayMethods(r *Registry) {
	r.addMethod(object.TagArray, Func{
		Name: "length",
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			return m.Objects.NewNumber(int64(m.Objects.ArrayLen(self))), nil
		},
	})
	r.addMethod(object.TagArray, Func{
		Name: "contains",
		Pos:  []ArgSpec{{Name: "item", Any: true, Required: true}},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			for _, v := range m.Objects.ArrayValues(self) {
				if valuesEqual(m, v, pos[0]) {
					return object.HTrue, nil
				}
			}
			return object.HFalse, nil
		},
	})
	r.addMethod(object.TagArray, Func{
		Name: "get",
		Pos: []ArgSpec{
			{Name: "index", Type: typecheck.Of(object.TagNumber), Required: true},
			{Name: "fallback", Any: true},
		},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			n := m.Objects.ArrayLen(self)
			i := int(m.Objects.Number(pos[0]))
			if i < 0 {
				i += n
			}
			if i < 0 || i >= n {
				if pos[1] != object.NoValue {
					return pos[1], nil
				}
				return object.NoValue, fmt.Errorf("array index %d out of range (len %d)", int(m.Objects.Number(pos[0])), n)
			}
			return m.Objects.ArrayAt(self, i), nil
		},
	})
}

// registerDictMethods installs the dict receiver table.
func registerDictMethods(r *Registry) {
	r.addMethod(object.TagDict, Func{
		Name: "has_key",
		Pos:  []ArgSpec{strArg},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			_, ok := m.Objects.DictGet(self, pos[0])
			return object.Bool(ok), nil
		},
	})
	r.addMethod(object.TagDict, Func{
		Name: "get",
		Pos: []ArgSpec{
			{Name: "key", Type: typecheck.Of(object.TagString), Required: true},
			{Name: "fallback", Any: true},
		},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			v, ok := m.Objects.DictGet(self, pos[0])
			if ok {
				return v, nil
			}
			if pos[1] != object.NoValue {
				return pos[1], nil
			}
			return object.NoValue, fmt.Errorf("key %q not in dictionary", m.Objects.String(pos[0]))
		},
	})
	r.addMethod(object.TagDict, Func{
		Name: "keys",
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			return m.Objects.NewArrayFrom(m.Objects.DictKeys(self)), nil
		},
	})
}
