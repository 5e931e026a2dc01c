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
	"github.com/muonic/muon/option"
	"github.com/muonic/muon/typecheck"
	"github.com/muonic/muon/vm"
)

// registerOptionFuncs installs option() and get_option(), grounded on
// func_option/func_get_option in src/functions/kernel/options.c. Both
// bodies defer to whatever *option.Store SetOptions wired onto the
// Registry; with none configured they report the call as unsupported
// rather than silently no-op, the same way a method table miss does.
func registerOptionFuncs(r *Registry) {
	r.addModule(Func{
		Name: "option",
		Pos:  []ArgSpec{{Name: "name", Type: typecheck.Of(object.TagString), Required: true}},
		Kw: []ArgSpec{
			{Name: "type", Type: typecheck.Of(object.TagString), Required: true},
			{Name: "value", Any: true},
			{Name: "description", Type: typecheck.Of(object.TagString)},
			{Name: "choices", Any: true},
			{Name: "max", Any: true},
			{Name: "min", Any: true},
			{Name: "yield", Type: typecheck.Of(object.TagBool)},
			{Name: "deprecated", Any: true},
		},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			if r.Options == nil {
				return object.NoValue, fmt.Errorf("option(): no option store for this project")
			}
			return declareOption(m, r.Options, m.Objects.String(pos[0]), kw)
		},
	})
	r.addModule(Func{
		Name: "get_option",
		Pos:  []ArgSpec{{Name: "name", Type: typecheck.Of(object.TagString), Required: true}},
		Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
			if r.Options == nil {
				return object.NoValue, fmt.Errorf("get_option(): no option store for this project")
			}
			name := m.Objects.String(pos[0])
			v, ok := r.Options.Value(name)
			if !ok {
				return object.NoValue, fmt.Errorf("unknown option %q", name)
			}
			return v, nil
		},
	})
}

// declareOption builds an option.Payload from option()'s kwarg table
// (func_option) and declares it in store. choices/min/max apply only to
// the combo/integer/array kinds they're relevant to, matching the
// original's per-type kwarg-validity matrix; a kwarg given for the wrong
// kind is rejected here the same way it is there.
func declareOption(m *vm.VM, store *option.Store, name string, kw map[string]object.Handle) (object.Handle, error) {
	typeStr := m.Objects.String(kw["type"])
	kind, err := option.KindFromString(typeStr, false)
	if err != nil {
		return object.NoValue, fmt.Errorf("option %q: %w", name, err)
	}

	p := option.Payload{Type: kind}
	if v, ok := kw["description"]; ok {
		p.Description = m.Objects.String(v)
	}
	if v, ok := kw["yield"]; ok {
		p.Yield = v == object.HTrue
	}
	if v, ok := kw["deprecated"]; ok {
		p.Deprecated = v
	} else {
		p.Deprecated = object.NoValue
	}

	if v, ok := kw["choices"]; ok {
		if kind != option.KindCombo && kind != option.KindArray {
			return object.NoValue, fmt.Errorf("option %q: choices: is only valid for combo and array options", name)
		}
		for _, el := range m.Objects.ArrayValues(v) {
			p.Choices = append(p.Choices, m.Objects.String(el))
		}
	} else if kind == option.KindCombo {
		return object.NoValue, fmt.Errorf("option %q: combo options require choices:", name)
	}
	if v, ok := kw["min"]; ok {
		if kind != option.KindInteger {
			return object.NoValue, fmt.Errorf("option %q: min: is only valid for integer options", name)
		}
		n := m.Objects.Number(v)
		p.Min = &n
	}
	if v, ok := kw["max"]; ok {
		if kind != option.KindInteger {
			return object.NoValue, fmt.Errorf("option %q: max: is only valid for integer options", name)
		}
		n := m.Objects.Number(v)
		p.Max = &n
	}

	val, ok := kw["value"]
	if !ok {
		val = defaultOptionValue(m, kind, p)
	}
	p.Value = val

	h, err := store.Declare(name, p)
	if err != nil {
		return object.NoValue, err
	}
	return h, nil
}

// defaultOptionValue supplies value: when the option() call omits it,
// per func_option's per-type defaulting (empty string, false, first
// choice, 0, empty array, auto).
func defaultOptionValue(m *vm.VM, kind option.Kind, p option.Payload) object.Handle {
	switch kind {
	case option.KindString:
		return m.Objects.MakeString("")
	case option.KindBoolean:
		return object.HFalse
	case option.KindCombo:
		if len(p.Choices) > 0 {
			return m.Objects.MakeString(p.Choices[0])
		}
		return m.Objects.MakeString("")
	case option.KindInteger:
		return m.Objects.NewNumber(0)
	case option.KindArray, option.KindShellArray:
		return m.Objects.NewArray()
	case option.KindFeature:
		return option.NewFeature(m.Objects, option.FeatureAuto)
	default:
		return object.NoValue
	}
}
