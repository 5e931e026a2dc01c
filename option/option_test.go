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
	"fmt"
	"testing"

	"github.com/muonic/muon/object"
)

func newTestStore(t *testing.T) (*Store, *object.Table) {
	t.Helper()
	objs := object.New()
	s := NewStore(objs, "")
	return s, objs
}

func declareString(t *testing.T, s *Store, name, def string) object.Handle {
	t.Helper()
	h, err := s.Declare(name, Payload{Type: KindString, Value: s.Objs.MakeString(def)})
	if err != nil {
		t.Fatalf("Declare(%q): %s", name, err)
	}
	return h
}

func TestDeclareDuplicate(t *testing.T) {
	s, _ := newTestStore(t)
	declareString(t, s, "foo", "bar")
	if _, err := s.Declare("foo", Payload{Type: KindString, Value: s.Objs.MakeString("baz")}); err == nil {
		t.Fatal("expected duplicate declaration to fail")
	}
}

func TestDeclareInvalidName(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Declare("bad:name", Payload{Type: KindString, Value: s.Objs.MakeString("x")}); err == nil {
		t.Fatal("expected invalid name to fail")
	}
}

func TestSetRawPrecedence(t *testing.T) {
	s, objs := newTestStore(t)
	declareString(t, s, "buildtype", "debug")

	if err := s.SetRaw("buildtype", "release", SourceCommandline); err != nil {
		t.Fatalf("SetRaw: %s", err)
	}
	v, _ := s.Value("buildtype")
	if got := objs.String(v); got != "release" {
		t.Fatalf("value = %q, want release", got)
	}

	// A lower-ranked write (environment) must not clobber a
	// higher-ranked one already recorded (commandline).
	if err := s.SetRaw("buildtype", "plain", SourceEnvironment); err != nil {
		t.Fatalf("SetRaw: %s", err)
	}
	v, _ = s.Value("buildtype")
	if got := objs.String(v); got != "release" {
		t.Fatalf("value clobbered by lower-rank write: got %q", got)
	}

	// A higher-ranked write (override_options) does win.
	if err := s.SetRaw("buildtype", "minsize", SourceOverrideOptions); err != nil {
		t.Fatalf("SetRaw: %s", err)
	}
	v, _ = s.Value("buildtype")
	if got := objs.String(v); got != "minsize" {
		t.Fatalf("value = %q, want minsize", got)
	}
}

func TestCoerceBoolean(t *testing.T) {
	s, objs := newTestStore(t)
	if _, err := s.Declare("werror", Payload{Type: KindBoolean, Value: object.HFalse}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRaw("werror", "true", SourceCommandline); err != nil {
		t.Fatalf("SetRaw: %s", err)
	}
	v, _ := s.Value("werror")
	if v != object.HTrue {
		t.Fatalf("werror = %v, want HTrue", v)
	}
	if err := s.SetRaw("werror", "yes", SourceCommandline); err == nil {
		t.Fatal("expected coercion failure for 'yes'")
	}
	_ = objs
}

func TestCoerceFeature(t *testing.T) {
	s, objs := newTestStore(t)
	if _, err := s.Declare("opt", Payload{Type: KindFeature, Value: NewFeature(objs, FeatureAuto)}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRaw("opt", "enabled", SourceCommandline); err != nil {
		t.Fatalf("SetRaw: %s", err)
	}
	v, _ := s.Value("opt")
	if GetFeature(objs, v) != FeatureEnabled {
		t.Fatalf("feature state = %v, want enabled", GetFeature(objs, v))
	}
	if err := s.SetRaw("opt", "maybe", SourceCommandline); err == nil {
		t.Fatal("expected coercion failure for 'maybe'")
	}
}

func TestCoerceArrayCommaSplit(t *testing.T) {
	s, objs := newTestStore(t)
	if _, err := s.Declare("langs", Payload{Type: KindArray, Value: objs.NewArray()}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRaw("langs", "c,cpp,rust", SourceCommandline); err != nil {
		t.Fatalf("SetRaw: %s", err)
	}
	v, _ := s.Value("langs")
	vals := objs.ArrayValues(v)
	if len(vals) != 3 || objs.String(vals[0]) != "c" || objs.String(vals[2]) != "rust" {
		t.Fatalf("unexpected array contents: %v", vals)
	}
}

func TestCoerceArrayLiteralNoEval(t *testing.T) {
	s, objs := newTestStore(t)
	if _, err := s.Declare("langs", Payload{Type: KindArray, Value: objs.NewArray()}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRaw("langs", "['c', 'cpp']", SourceCommandline); err == nil {
		t.Fatal("expected error with no EvalArrayLiteral hook wired")
	}
}

func TestComboChoices(t *testing.T) {
	s, objs := newTestStore(t)
	if _, err := s.Declare("buildtype", Payload{Type: KindCombo, Value: objs.MakeString("debug"), Choices: []string{"debug", "release"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRaw("buildtype", "bogus", SourceCommandline); err == nil {
		t.Fatal("expected choice violation to fail")
	}
	if err := s.SetRaw("buildtype", "release", SourceCommandline); err != nil {
		t.Fatalf("SetRaw: %s", err)
	}
}

func TestIntegerMinMax(t *testing.T) {
	s, objs := newTestStore(t)
	min, max := int64(0), int64(3)
	if _, err := s.Declare("warning_level", Payload{Type: KindInteger, Value: objs.NewNumber(1), Min: &min, Max: &max}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRaw("warning_level", "5", SourceCommandline); err == nil {
		t.Fatal("expected out-of-range value to fail")
	}
	if err := s.SetRaw("warning_level", "3", SourceCommandline); err != nil {
		t.Fatalf("SetRaw: %s", err)
	}
}

func TestDeprecatedBoolWarns(t *testing.T) {
	s, objs := newTestStore(t)
	var warned string
	s.Warn = func(format string, args ...any) { warned = fmt.Sprintf(format, args...) }
	if _, err := s.Declare("old", Payload{Type: KindString, Value: objs.MakeString("x"), Deprecated: object.HTrue}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRaw("old", "y", SourceCommandline); err != nil {
		t.Fatalf("SetRaw: %s", err)
	}
	if warned == "" {
		t.Fatal("expected a deprecation warning")
	}
}

func TestDeprecatedRenameForwards(t *testing.T) {
	s, objs := newTestStore(t)
	declareString(t, s, "new", "init")
	if _, err := s.Declare("old", Payload{Type: KindString, Value: objs.MakeString("init"), Deprecated: objs.MakeString("new")}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRaw("old", "val", SourceCommandline); err != nil {
		t.Fatalf("SetRaw: %s", err)
	}
	v, _ := s.Value("new")
	if got := objs.String(v); got != "val" {
		t.Fatalf("new = %q, want val (forwarded from old)", got)
	}
}

func TestDeprecatedRenamePendingUntilDeclared(t *testing.T) {
	s, objs := newTestStore(t)
	if _, err := s.Declare("old", Payload{Type: KindString, Value: objs.MakeString("init"), Deprecated: objs.MakeString("new")}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRaw("old", "val", SourceCommandline); err != nil {
		t.Fatalf("SetRaw: %s", err)
	}
	// "new" does not exist yet: the write queues and applies once declared.
	declareString(t, s, "new", "init")
	v, _ := s.Value("new")
	if got := objs.String(v); got != "val" {
		t.Fatalf("new = %q, want val (drained from pending queue)", got)
	}
}

func TestRebasePrefixedDirs(t *testing.T) {
	s, objs := newTestStore(t)
	if _, err := s.Declare("libdir", Payload{Type: KindString, Value: objs.MakeString("lib"), Dir: DirPrefixedDir}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRaw("libdir", "/opt/x/lib64", SourceCommandline); err != nil {
		t.Fatalf("SetRaw: %s", err)
	}
	s.RebasePrefixedDirs("/opt/x")
	v, _ := s.Value("libdir")
	if got := objs.String(v); got != "lib64" {
		t.Fatalf("libdir = %q, want lib64 (relative to prefix)", got)
	}

	if err := s.SetRaw("libdir", "/usr/lib", SourceOverrideOptions); err != nil {
		t.Fatalf("SetRaw: %s", err)
	}
	s.RebasePrefixedDirs("/opt/x")
	v, _ = s.Value("libdir")
	if got := objs.String(v); got != "/opt/x/usr/lib" {
		t.Fatalf("libdir = %q, want joined under prefix", got)
	}
}

func TestYieldInheritsParentValue(t *testing.T) {
	objs := object.New()
	parent := NewStore(objs, "")
	child := NewStore(objs, "sub")

	declareString(t, parent, "c_std", "c99")
	if err := parent.SetRaw("c_std", "c11", SourceCommandline); err != nil {
		t.Fatal(err)
	}
	if _, err := child.Declare("c_std", Payload{Type: KindString, Value: objs.MakeString("c99"), Yield: true}); err != nil {
		t.Fatal(err)
	}

	Yield(child, parent)

	v, _ := child.Value("c_std")
	if got := objs.String(v); got != "c11" {
		t.Fatalf("child c_std = %q, want c11 (yielded from parent)", got)
	}
}

func TestYieldDoesNotOverrideSubprojectDefaultOptions(t *testing.T) {
	objs := object.New()
	parent := NewStore(objs, "")
	child := NewStore(objs, "sub")

	declareString(t, parent, "c_std", "c99")
	if err := parent.SetRaw("c_std", "c11", SourceCommandline); err != nil {
		t.Fatal(err)
	}
	if _, err := child.Declare("c_std", Payload{Type: KindString, Value: objs.MakeString("c99"), Yield: true}); err != nil {
		t.Fatal(err)
	}
	if err := child.SetRaw("c_std", "c17", SourceSubprojectDefaultOptions); err != nil {
		t.Fatal(err)
	}

	Yield(child, parent)

	v, _ := child.Value("c_std")
	if got := objs.String(v); got != "c17" {
		t.Fatalf("child c_std = %q, want c17 (subproject_default_options outranks yield)", got)
	}
}

func TestParseCommandline(t *testing.T) {
	oo, err := ParseCommandline("sub:foo=bar")
	if err != nil {
		t.Fatal(err)
	}
	if oo.Project != "sub" || oo.Name != "foo" || oo.Value != "bar" || oo.Source != SourceCommandline {
		t.Fatalf("unexpected parse: %+v", oo)
	}

	if _, err := ParseCommandline("noequals"); err == nil {
		t.Fatal("expected error for missing '='")
	}
}

func TestParseDefaultOptionsRouting(t *testing.T) {
	oos, err := ParseDefaultOptions([]string{"c_std=c11", "sub:warning_level=2"}, "top", false)
	if err != nil {
		t.Fatal(err)
	}
	if oos[0].Project != "top" || oos[0].Source != SourceDefaultOptions {
		t.Fatalf("unexpected routing for unprefixed entry: %+v", oos[0])
	}
	if oos[1].Project != "sub" || oos[1].Source != SourceSubprojectDefaultOptions {
		t.Fatalf("unexpected routing for prefixed entry: %+v", oos[1])
	}
}

func TestApplyOverridesAndSubprojectCheck(t *testing.T) {
	s, _ := newTestStore(t)
	declareString(t, s, "c_std", "c99")

	oos, err := ParseDefaultOptions([]string{"c_std=c11"}, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := ApplyOverrides(oos, s); err != nil {
		t.Fatal(err)
	}
	v, _ := s.Value("c_std")
	if got := s.Objs.String(v); got != "c11" {
		t.Fatalf("c_std = %q, want c11", got)
	}

	bad, err := ParseCommandline("nosuchproj:foo=bar")
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckSubprojectNames([]Override{bad}, map[string]bool{"top": true}); err == nil {
		t.Fatal("expected unknown-subproject error")
	}
}

func TestOverrideOptionsDoesNotMutateBase(t *testing.T) {
	s, objs := newTestStore(t)
	declareString(t, s, "c_std", "c99")

	ov, err := OverrideOptions([]string{"c_std=c17"}, s)
	if err != nil {
		t.Fatal(err)
	}
	if got := objs.String(Get(objs, ov["c_std"]).Value); got != "c17" {
		t.Fatalf("override value = %q, want c17", got)
	}
	v, _ := s.Value("c_std")
	if got := objs.String(v); got != "c99" {
		t.Fatalf("base store mutated: c_std = %q, want c99", got)
	}

	if _, err := OverrideOptions([]string{"sub:c_std=c17"}, s); err == nil {
		t.Fatal("expected subproject-qualified override_options entry to fail")
	}
	if _, err := OverrideOptions([]string{"c_std=c11", "c_std=c17"}, s); err == nil {
		t.Fatal("expected duplicate override_options entry to fail")
	}
}

func TestGlobalDefaultsEnvOverlay(t *testing.T) {
	t.Setenv("CC", "clang -target")
	t.Setenv("CFLAGS", "-O2 -g")
	objs := object.New()
	s := NewStore(objs, "")
	if err := DeclareGlobalDefaults(s); err != nil {
		t.Fatal(err)
	}

	cc, _ := s.Value("env.CC")
	vals := objs.ArrayValues(cc)
	if len(vals) != 2 || objs.String(vals[0]) != "clang" || objs.String(vals[1]) != "-target" {
		t.Fatalf("env.CC not overlaid from $CC: %v", vals)
	}

	cargs, _ := s.Value("c_args")
	vals = objs.ArrayValues(cargs)
	if len(vals) != 2 || objs.String(vals[0]) != "-O2" {
		t.Fatalf("c_args not extended from $CFLAGS: %v", vals)
	}
}

func TestWrapModeAndDefaultLibraryDefaults(t *testing.T) {
	objs := object.New()
	s := NewStore(objs, "")
	if err := DeclareGlobalDefaults(s); err != nil {
		t.Fatal(err)
	}
	if err := DeclarePerProjectDefaults(s); err != nil {
		t.Fatal(err)
	}
	if got := WrapMode(s); got != "nopromote" {
		t.Fatalf("WrapMode = %q, want nopromote", got)
	}
	if got := DefaultLibrary(s); got != "static" {
		t.Fatalf("DefaultLibrary = %q, want static", got)
	}
}
