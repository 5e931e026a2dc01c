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

package typecheck

import (
	"testing"

	"github.com/muonic/muon/object"
)

func TestCheckSimpleTag(t *testing.T) {
	objs := object.New()
	s := objs.MakeString("hi")
	if err := Check(objs, nil, s, Of(object.TagString)); err != nil {
		t.Fatalf("expected string to pass string tag: %s", err)
	}
	if err := Check(objs, nil, s, Of(object.TagNumber)); err == nil {
		t.Fatal("expected string to fail number tag")
	}
}

func TestCheckAllowNull(t *testing.T) {
	objs := object.New()
	tag := Of(object.TagString).WithAllowNull()
	if err := Check(objs, nil, object.HNull, tag); err != nil {
		t.Fatalf("expected null to pass allow_null tag: %s", err)
	}
	if err := Check(objs, nil, object.HNull, Of(object.TagString)); err == nil {
		t.Fatal("expected null to fail a tag without allow_null")
	}
}

func TestCheckOr(t *testing.T) {
	objs := object.New()
	r := NewRegistry()
	tag := r.Or(Of(object.TagString), Of(object.TagNumber))
	if err := Check(objs, r, objs.MakeString("x"), tag); err != nil {
		t.Fatalf("string should satisfy string|number: %s", err)
	}
	if err := Check(objs, r, objs.NewNumber(3), tag); err != nil {
		t.Fatalf("number should satisfy string|number: %s", err)
	}
	if err := Check(objs, r, object.Bool(true), tag); err == nil {
		t.Fatal("bool should not satisfy string|number")
	}
}

func TestCheckNestedArray(t *testing.T) {
	objs := object.New()
	r := NewRegistry()
	tag := r.Nested(Of(object.TagArray), Of(object.TagString))
	arr := objs.NewArrayFrom([]object.Handle{objs.MakeString("a"), objs.MakeString("b")})
	if err := Check(objs, r, arr, tag); err != nil {
		t.Fatalf("array[string] of strings should pass: %s", err)
	}
	bad := objs.NewArrayFrom([]object.Handle{objs.MakeString("a"), objs.NewNumber(1)})
	if err := Check(objs, r, bad, tag); err == nil {
		t.Fatal("array[string] containing a number should fail")
	}
}

func TestCheckEnum(t *testing.T) {
	objs := object.New()
	r := NewRegistry()
	tag := r.Enum([]string{"auto", "enabled", "disabled"})
	if err := Check(objs, r, objs.MakeString("enabled"), tag); err != nil {
		t.Fatalf("enabled should be in enum: %s", err)
	}
	if err := Check(objs, r, objs.MakeString("maybe"), tag); err == nil {
		t.Fatal("maybe should not be in enum")
	}
}

func TestCheckPresetListOfString(t *testing.T) {
	objs := object.New()
	r := NewRegistry()
	RegisterPresets(r, Of(object.TagString), Of(object.TagArray), Of(object.TagDict))
	tag, ok := r.LookupPreset(PresetListOfString)
	if !ok {
		t.Fatal("expected list-of-string preset to be registered")
	}
	arr := objs.NewArrayFrom([]object.Handle{objs.MakeString("x")})
	if err := Check(objs, r, arr, tag); err != nil {
		t.Fatalf("expected list-of-string preset to accept []string: %s", err)
	}
}

func TestCoerceListifyWrapsSingleValue(t *testing.T) {
	objs := object.New()
	tag := Of(object.TagString).WithListify()
	s := objs.MakeString("x")
	wrapped := Coerce(objs, s, tag)
	if objs.Tag(wrapped) != object.TagArray || objs.ArrayLen(wrapped) != 1 {
		t.Fatalf("expected a 1-element array, got tag %s", objs.Tag(wrapped))
	}
	if objs.ArrayAt(wrapped, 0) != s {
		t.Fatal("wrapped array should contain the original value")
	}
}

func TestCoerceListifyPassesArrayThrough(t *testing.T) {
	objs := object.New()
	tag := Of(object.TagString).WithListify()
	arr := objs.NewArrayFrom([]object.Handle{objs.MakeString("x")})
	if Coerce(objs, arr, tag) != arr {
		t.Fatal("an array already given to a listify slot should pass through unchanged")
	}
}

func TestTagUnionAndHas(t *testing.T) {
	u := Union(Of(object.TagString), Of(object.TagNumber))
	if !u.Has(object.TagString) || !u.Has(object.TagNumber) || u.Has(object.TagBool) {
		t.Fatalf("union tag has wrong membership: %s", u)
	}
}
