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

// Package strtab implements the deduplicated string pool shared by every
// string-tagged object. It mirrors the shape of an ion symbol table
// (intern-by-content, stable small integer id) but the id here is used as
// the payload index for the VM's "string" object tag rather than an
// ion-wire symbol.
package strtab

import (
	"golang.org/x/exp/maps"
)

// ID identifies an interned string. ID 0 is reserved for the empty string
// (Intern("") returns 0) so zero-valued IDs read as "" rather than
// aliasing an arbitrary string.
type ID uint32

// Table is a content-addressed string pool. The zero value is ready to
// use. Table is not safe for concurrent use — like every other workspace
// structure it is owned by a single evaluation and threaded through
// explicitly (spec.md §5).
type Table struct {
	interned []string
	toindex  map[string]ID
	bigFlag  []bool // parallel to interned: true for heap-grown strings
	memsize  int
}

func (t *Table) init() {
	if t.toindex == nil {
		t.toindex = make(map[string]ID)
		t.interned = append(t.interned, "")
		t.bigFlag = append(t.bigFlag, false)
		t.toindex[""] = 0
	}
}

// Intern returns the ID for s, allocating a new one if s has never been
// interned before. Intern is idempotent: Intern(s) == Intern(s) for any
// two calls with byte-equal s (the property the spec's testable-property
// suite checks directly).
func (t *Table) Intern(s string) ID {
	t.init()
	if id, ok := t.toindex[s]; ok {
		return id
	}
	id := ID(len(t.interned))
	// copy s so the table does not retain a slice of caller-owned memory
	// longer than necessary (the reference implementation's "big" flag
	// marks exactly this case: a string whose bytes were not already
	// living in a bucket the table owns).
	owned := string(append([]byte(nil), s...))
	t.interned = append(t.interned, owned)
	t.bigFlag = append(t.bigFlag, len(s) > smallStringThreshold)
	t.toindex[owned] = id
	t.memsize += len(owned)
	return id
}

// smallStringThreshold matches the reference implementation's cutoff for
// when a concatenation/escape result is considered "big" (heap-owned)
// rather than a view into existing source text.
const smallStringThreshold = 64

// Lookup returns the string for id, or ("", false) if id was never issued.
func (t *Table) Lookup(id ID) (string, bool) {
	if int(id) < len(t.interned) {
		return t.interned[id], true
	}
	return "", false
}

// MustLookup is Lookup but panics on an unknown id (used internally where
// the id is known to have come from this table).
func (t *Table) MustLookup(id ID) string {
	s, ok := t.Lookup(id)
	if !ok {
		panic("strtab: unknown id")
	}
	return s
}

// Big reports whether id's string is heap-owned rather than a view into a
// larger shared buffer. Only meaningful for tables that intern slices of
// a shared source buffer; Table always copies, so this tracks the
// size-based heuristic the reference implementation uses to decide
// whether a string is "big" enough to warrant separate handling on clear.
func (t *Table) Big(id ID) bool {
	if int(id) < len(t.bigFlag) {
		return t.bigFlag[id]
	}
	return false
}

// Len returns the number of interned strings, including the empty string.
func (t *Table) Len() int {
	t.init()
	return len(t.interned)
}

// MemSize returns the approximate number of bytes retained by interned
// string contents (for diagnostics / introspection only).
func (t *Table) MemSize() int { return t.memsize }

// Mark is a saved table length for Restore, used when a scratch
// evaluation (e.g. the analyzer's speculative re-run of an impure loop
// body) must not leak strings into the surrounding table on unwind.
type Mark int

// Save returns a Mark at the table's current size.
func (t *Table) Save() Mark {
	t.init()
	return Mark(len(t.interned))
}

// Restore releases every string interned since m. Any ID >= m must not be
// used again by the caller after Restore.
func (t *Table) Restore(m Mark) {
	t.init()
	target := int(m)
	if target >= len(t.interned) {
		return
	}
	for _, s := range t.interned[target:] {
		delete(t.toindex, s)
	}
	t.interned = t.interned[:target]
	t.bigFlag = t.bigFlag[:target]
}

// Clone returns an independent copy of t's index (used when a subproject
// scope wants its own namespace seeded from the parent's interned
// keywords without let its own interning affect the parent).
func (t *Table) Clone() *Table {
	t.init()
	nt := &Table{
		interned: append([]string(nil), t.interned...),
		bigFlag:  append([]bool(nil), t.bigFlag...),
		toindex:  maps.Clone(t.toindex),
		memsize:  t.memsize,
	}
	return nt
}
