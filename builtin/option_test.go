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
	"testing"

	"github.com/muonic/muon/compiler"
	"github.com/muonic/muon/lang"
	"github.com/muonic/muon/object"
	"github.com/muonic/muon/option"
	"github.com/muonic/muon/typecheck"
	"github.com/muonic/muon/vm"
)

// runWithOptions is run (builtin_test.go) with a *option.Store wired onto
// the Registry, for exercising option()/get_option().
func runWithOptions(t *testing.T, src string) (*vm.VM, *object.Table, *option.Store) {
	t.Helper()
	root, err := lang.Parse([]byte(src), lang.Normal)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	objs := object.New()
	store := option.NewStore(objs, "")
	reg := NewRegistry().SetOptions(store)
	code := compiler.NewCode()
	c := compiler.New(code, objs, reg)
	if _, err := c.CompileFile("test.build", root); err != nil {
		t.Fatalf("compile error: %s", err)
	}
	scopes := vm.NewScopeStack()
	typeReg := typecheck.NewRegistry()
	theVM := vm.New(code, objs, scopes, typeReg, reg)
	theVM.Behavior.FuncLookup = reg.FuncLookup
	if _, err := theVM.Run(0, scopes.Root(), lang.Normal, "test.build"); err != nil {
		t.Fatalf("run error: %s", err)
	}
	return theVM, objs, store
}

func TestOptionDeclareAndGet(t *testing.T) {
	m, objs, _ := runWithOptions(t, `
option('buildtype', type: 'combo', choices: ['debug', 'release'], value: 'debug')
x = get_option('buildtype')
`)
	v := lookup(t, m, "x")
	if got := objs.String(v); got != "debug" {
		t.Fatalf("x = %q, want debug", got)
	}
}

func TestOptionBooleanDefaultAndGet(t *testing.T) {
	m, objs, _ := runWithOptions(t, `
option('werror', type: 'boolean', value: false)
x = get_option('werror')
`)
	v := lookup(t, m, "x")
	if v != object.HFalse {
		t.Fatalf("x = %v, want HFalse", v)
	}
	_ = objs
}

func TestOptionComboRequiresChoices(t *testing.T) {
	objs := object.New()
	store := option.NewStore(objs, "")
	reg := NewRegistry().SetOptions(store)
	root, err := lang.Parse([]byte(`option('buildtype', type: 'combo')`), lang.Normal)
	if err != nil {
		t.Fatal(err)
	}
	code := compiler.NewCode()
	c := compiler.New(code, objs, reg)
	if _, err := c.CompileFile("test.build", root); err != nil {
		t.Fatalf("compile error: %s", err)
	}
	scopes := vm.NewScopeStack()
	typeReg := typecheck.NewRegistry()
	theVM := vm.New(code, objs, scopes, typeReg, reg)
	theVM.Behavior.FuncLookup = reg.FuncLookup
	if _, err := theVM.Run(0, scopes.Root(), lang.Normal, "test.build"); err == nil {
		t.Fatal("expected combo option without choices: to fail")
	}
}

func TestOptionFeatureDefaultAuto(t *testing.T) {
	m, objs, _ := runWithOptions(t, `
option('tests', type: 'feature')
x = get_option('tests')
`)
	v := lookup(t, m, "x")
	if option.GetFeature(objs, v) != option.FeatureAuto {
		t.Fatalf("feature default = %v, want auto", option.GetFeature(objs, v))
	}
}

func TestGetOptionUnknownFails(t *testing.T) {
	objs := object.New()
	store := option.NewStore(objs, "")
	reg := NewRegistry().SetOptions(store)
	root, err := lang.Parse([]byte(`x = get_option('nope')`), lang.Normal)
	if err != nil {
		t.Fatal(err)
	}
	code := compiler.NewCode()
	c := compiler.New(code, objs, reg)
	if _, err := c.CompileFile("test.build", root); err != nil {
		t.Fatalf("compile error: %s", err)
	}
	scopes := vm.NewScopeStack()
	typeReg := typecheck.NewRegistry()
	theVM := vm.New(code, objs, scopes, typeReg, reg)
	theVM.Behavior.FuncLookup = reg.FuncLookup
	if _, err := theVM.Run(0, scopes.Root(), lang.Normal, "test.build"); err == nil {
		t.Fatal("expected unknown option to fail")
	}
}
