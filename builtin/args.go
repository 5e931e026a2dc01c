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

	"github.com/muonic/muon/object"
	"github.com/muonic/muon/typecheck"
	"github.com/muonic/muon/vm"
)

// bindArgs implements pop_args (spec.md §4.8): route keyword arguments to
// akw[] by name (rejecting unknown keys, expanding a `kwargs: <dict>`
// entry, accumulating a glob keyword slot into a dict), consume
// positionals left-to-right against an[] (a trailing glob positional
// collects the remainder into an array), and apply listify/type-check
// per slot. The disabler short-circuit happens one level up in Call,
// before args have even been matched against slots.
func bindArgs(m *vm.VM, f Func, args []object.Handle, kwargs map[string]object.Handle) ([]object.Handle, map[string]object.Handle, error) {
	boundKw, err := bindKwargs(m, f, kwargs)
	if err != nil {
		return nil, nil, err
	}
	boundPos, err := bindPositionals(m, f, args)
	if err != nil {
		return nil, nil, err
	}
	return boundPos, boundKw, nil
}

func bindKwargs(m *vm.VM, f Func, kwargs map[string]object.Handle) (map[string]object.Handle, error) {
	var globSpec *ArgSpec
	known := make(map[string]ArgSpec, len(f.Kw))
	for i := range f.Kw {
		spec := f.Kw[i]
		known[spec.Name] = spec
		if spec.Glob {
			globSpec = &f.Kw[i]
		}
	}

	out := make(map[string]object.Handle, len(f.Kw))
	var globEntries map[string]object.Handle
	for name, v := range kwargs {
		// `kwargs: <dict>` expands into the call's keyword set (spec.md
		// §4.8's "recognize kwargs: <dict> and expand").
		if name == "kwargs" {
			if m.Objects.Tag(v) != object.TagDict {
				return nil, fmt.Errorf("%s: kwargs: expects a dict", f.Name)
			}
			for _, kv := range m.Objects.DictEntries(v) {
				key := m.Objects.String(kv[0])
				if _, ok := out[key]; ok {
					return nil, fmt.Errorf("%s: duplicate keyword argument %q", f.Name, key)
				}
				out[key] = kv[1]
			}
			continue
		}
		if _, ok := known[name]; !ok {
			if globSpec == nil {
				return nil, fmt.Errorf("%s: unknown keyword argument %q", f.Name, name)
			}
			if globEntries == nil {
				globEntries = map[string]object.Handle{}
			}
			globEntries[name] = v
			continue
		}
		if _, ok := out[name]; ok {
			return nil, fmt.Errorf("%s: duplicate keyword argument %q", f.Name, name)
		}
		out[name] = v
	}

	if globSpec != nil {
		d := m.Objects.NewDict()
		for k, v := range globEntries {
			m.Objects.DictSet(d, m.Objects.MakeString(k), v)
		}
		out[globSpec.Name] = d
	}

	for _, spec := range f.Kw {
		if spec.Glob {
			continue
		}
		v, ok := out[spec.Name]
		if !ok {
			if spec.Required {
				return nil, fmt.Errorf("%s: missing required keyword argument %q", f.Name, spec.Name)
			}
			continue
		}
		checked, err := applySlot(m, f.Name, spec, v)
		if err != nil {
			return nil, err
		}
		out[spec.Name] = checked
	}
	return out, nil
}

func bindPositionals(m *vm.VM, f Func, args []object.Handle) ([]object.Handle, error) {
	hasGlob := len(f.Pos) > 0 && f.Pos[len(f.Pos)-1].Glob
	if !hasGlob && len(args) > len(f.Pos) {
		return nil, fmt.Errorf("%s: too many positional arguments (got %d, want at most %d)", f.Name, len(args), len(f.Pos))
	}

	out := make([]object.Handle, 0, len(f.Pos))
	i := 0
	for specIdx, spec := range f.Pos {
		if spec.Glob {
			rest := args[i:]
			checked := make([]object.Handle, len(rest))
			for j, v := range rest {
				cv, err := applySlot(m, f.Name, spec, v)
				if err != nil {
					return nil, err
				}
				checked[j] = cv
			}
			out = append(out, m.Objects.NewArrayFrom(checked))
			i = len(args)
			continue
		}
		if i >= len(args) {
			if spec.Required {
				return nil, fmt.Errorf("%s: missing required positional argument %d (%s)", f.Name, specIdx, spec.Name)
			}
			out = append(out, object.NoValue)
			continue
		}
		checked, err := applySlot(m, f.Name, spec, args[i])
		if err != nil {
			return nil, err
		}
		out = append(out, checked)
		i++
	}
	return out, nil
}

// applySlot listifies (wraps a lone scalar into a one-element array when
// the slot expects an array) then type-checks v against spec, per
// spec.md §4.8's "apply listify/type-check per slot".
func applySlot(m *vm.VM, fname string, spec ArgSpec, v object.Handle) (object.Handle, error) {
	if spec.Any {
		return v, nil
	}
	if v == object.NoValue {
		return v, nil
	}
	v = typecheck.Coerce(m.Objects, v, spec.Type)
	if err := typecheck.Check(m.Objects, m.Registry, v, spec.Type); err != nil {
		return object.NoValue, fmt.Errorf("%s: argument %q: %w", fname, spec.Name, err)
	}
	return v, nil
}
