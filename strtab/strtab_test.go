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

package strtab

import "testing"

func TestInternIdempotent(t *testing.T) {
	var tab Table
	a := tab.Intern("hello")
	b := tab.Intern("hello")
	if a != b {
		t.Fatalf("Intern not idempotent: %v != %v", a, b)
	}
	c := tab.Intern("world")
	if c == a {
		t.Fatalf("distinct strings interned to same id")
	}
}

func TestLookupRoundTrip(t *testing.T) {
	var tab Table
	id := tab.Intern("project_name")
	got, ok := tab.Lookup(id)
	if !ok || got != "project_name" {
		t.Fatalf("got (%q, %v)", got, ok)
	}
}

func TestEmptyStringIsZero(t *testing.T) {
	var tab Table
	if id := tab.Intern(""); id != 0 {
		t.Fatalf("expected empty string to intern as 0, got %v", id)
	}
}

func TestSaveRestore(t *testing.T) {
	var tab Table
	tab.Intern("a")
	m := tab.Save()
	tab.Intern("b")
	tab.Intern("c")
	tab.Restore(m)
	if tab.Len() != m_len(m) {
		t.Fatalf("expected len %d after restore, got %d", m_len(m), tab.Len())
	}
	// "a" must still resolve; "b" must re-intern to a fresh id.
	if _, ok := tab.Lookup(tab.Intern("a")); !ok {
		t.Fatal("expected a to still be interned")
	}
	freshB := tab.Intern("b")
	if int(freshB) != m_len(m) {
		t.Fatalf("expected b to re-intern at %d, got %d", m_len(m), freshB)
	}
}

func m_len(m Mark) int { return int(m) }
