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

// Package object implements the workspace's central object table: every
// user-visible value is addressed by a 32-bit Handle, never by a pointer,
// so that growing any per-tag payload bucket can never invalidate a value
// already handed out (spec.md §3's handle-stability invariant).
package object

import (
	"github.com/muonic/muon/arena"
	"github.com/muonic/muon/strtab"
)

// Handle identifies an object in a workspace's table. Handle 0 is the
// sentinel "no value".
type Handle uint32

// NoValue is the zero handle.
const NoValue Handle = 0

// Tag is the kind of value a Handle refers to.
type Tag uint8

const (
	TagNull Tag = iota
	TagDisabler
	TagBool
	TagNumber
	TagString
	TagFile
	TagArray
	TagDict
	TagFuncDef
	TagCapture
	TagTypeInfo
	TagCompiler
	TagBuildTarget
	TagCustomTarget
	TagSubproject
	TagDependency
	TagExternalProgram
	TagRunResult
	TagConfigurationData
	TagTest
	TagModule
	TagInstallTarget
	TagEnvironment
	TagIncludeDirectory
	TagOption
	TagGenerator
	TagGeneratedList
	TagAliasTarget
	TagBothLibs
	TagSourceSet
	TagSourceConfiguration
	TagIterator
	TagFeatureOption
	TagMachineKind
	TagMeson
	numTags
)

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "unknown"
}

var tagNames = [...]string{
	TagNull:                "null",
	TagDisabler:            "disabler",
	TagBool:                "bool",
	TagNumber:              "number",
	TagString:              "str",
	TagFile:                "file",
	TagArray:               "array",
	TagDict:                "dict",
	TagFuncDef:             "func",
	TagCapture:             "capture",
	TagTypeInfo:            "typeinfo",
	TagCompiler:            "compiler",
	TagBuildTarget:         "build_tgt",
	TagCustomTarget:        "custom_tgt",
	TagSubproject:          "subproject",
	TagDependency:          "dependency",
	TagExternalProgram:     "external_program",
	TagRunResult:           "run_result",
	TagConfigurationData:   "configuration_data",
	TagTest:                "test",
	TagModule:              "module",
	TagInstallTarget:       "install_tgt",
	TagEnvironment:         "environment",
	TagIncludeDirectory:    "include_directory",
	TagOption:              "option",
	TagGenerator:           "generator",
	TagGeneratedList:       "generated_list",
	TagAliasTarget:         "alias_tgt",
	TagBothLibs:            "both_libs",
	TagSourceSet:           "source_set",
	TagSourceConfiguration: "source_configuration",
	TagIterator:            "iterator",
	TagFeatureOption:       "feature",
	TagMachineKind:         "machine",
	TagMeson:               "meson",
}

// entry is the central table row: which tag a handle names, and the index
// of its payload within that tag's own bucket array.
type entry struct {
	tag     Tag
	payload int
}

// Fixed singleton handles, allocated first so they are always small,
// stable constants regardless of how many other objects a workspace
// allocates (spec.md §3: "handles for the singletons ... are fixed small
// constants").
const (
	HNull Handle = 1 + iota
	HDisabler
	HMeson
	HTrue
	HFalse
)

// Table is the workspace's central object table plus the per-tag payload
// bucket arrays. The zero value is not ready to use; call New.
type Table struct {
	entries *arena.Bucket[entry]
	strs    *strtab.Table
	bySym   map[strtab.ID]Handle

	strings   *arena.Bucket[StringPayload]
	numbers   *arena.Bucket[int64]
	bools     *arena.Bucket[bool]
	files     *arena.Bucket[FilePayload]
	arrays    *arena.Bucket[ArrayPayload]
	cells     *arena.Bucket[ArrayCell]
	dicts     *arena.Bucket[DictPayload]
	dictCells *arena.Bucket[DictCell]
	funcs     *arena.Bucket[FuncDefPayload]
	captures  *arena.Bucket[CapturePayload]
	typeinfos *arena.Bucket[TypeInfoPayload]
	iterators *arena.Bucket[IteratorPayload]
	generic   *arena.Bucket[any] // catch-all payload for remaining tags
}

// New returns an initialized Table with the fixed singletons already
// allocated at their documented handles.
func New() *Table {
	t := &Table{
		entries:   arena.NewBucket[entry](arena.DefaultBucketSize),
		strs:      &strtab.Table{},
		bySym:     make(map[strtab.ID]Handle),
		strings:   arena.NewBucket[StringPayload](arena.DefaultBucketSize),
		numbers:   arena.NewBucket[int64](arena.DefaultBucketSize),
		bools:     arena.NewBucket[bool](4),
		files:     arena.NewBucket[FilePayload](256),
		arrays:    arena.NewBucket[ArrayPayload](arena.DefaultBucketSize),
		cells:     arena.NewBucket[ArrayCell](arena.DefaultBucketSize),
		dicts:     arena.NewBucket[DictPayload](arena.DefaultBucketSize),
		dictCells: arena.NewBucket[DictCell](arena.DefaultBucketSize),
		funcs:     arena.NewBucket[FuncDefPayload](256),
		captures:  arena.NewBucket[CapturePayload](arena.DefaultBucketSize),
		typeinfos: arena.NewBucket[TypeInfoPayload](256),
		iterators: arena.NewBucket[IteratorPayload](256),
		generic:   arena.NewBucket[any](arena.DefaultBucketSize),
	}
	// reserve handle 0 = NoValue by pushing a dummy row
	t.entries.Push(entry{tag: TagNull, payload: 0})
	mustHandle(t.entries.Push(entry{tag: TagNull, payload: 0}), HNull)
	mustHandle(t.entries.Push(entry{tag: TagDisabler, payload: 0}), HDisabler)
	mustHandle(t.entries.Push(entry{tag: TagMeson, payload: t.generic.Push(struct{}{})}), HMeson)
	mustHandle(t.entries.Push(entry{tag: TagBool, payload: t.bools.Push(true)}), HTrue)
	mustHandle(t.entries.Push(entry{tag: TagBool, payload: t.bools.Push(false)}), HFalse)
	return t
}

func mustHandle(got int, want Handle) {
	if Handle(got) != want {
		panic("object: singleton handle allocation order violated")
	}
}

// Tag returns the tag of h.
func (t *Table) Tag(h Handle) Tag {
	return t.entries.Get(int(h)).tag
}

// alloc appends a new row for tag with the given payload index and
// returns its handle.
func (t *Table) alloc(tag Tag, payload int) Handle {
	return Handle(t.entries.Push(entry{tag: tag, payload: payload}))
}

func (t *Table) payloadOf(h Handle) int {
	return t.entries.Get(int(h)).payload
}

// NewNumber allocates an integer-valued number object.
func (t *Table) NewNumber(v int64) Handle {
	return t.alloc(TagNumber, t.numbers.Push(v))
}

// Number returns the integer value of a TagNumber handle.
func (t *Table) Number(h Handle) int64 {
	return t.numbers.Get(t.payloadOf(h))
}

// Bool returns HTrue or HFalse for v.
func Bool(v bool) Handle {
	if v {
		return HTrue
	}
	return HFalse
}

// IsTrue reports whether h is the HTrue singleton (the only truthy bool
// value; any other handle is not a bool at all and is a caller error to
// pass here).
func (t *Table) IsTrue(h Handle) bool { return h == HTrue }

// StringPayload is the payload for TagString objects.
type StringPayload struct {
	Sym   strtab.ID // interned id in the table's own strtab.Table
	Value string
}

// MakeString interns s (deduplicating by content through the table's
// strtab.Table) and returns the single Handle that names that content —
// repeated calls with byte-equal strings return the identical Handle,
// which is the object-level form of spec.md §8's "make_str is idempotent"
// property and is what lets dict keys compare by simple Handle equality.
func (t *Table) MakeString(s string) Handle {
	id := t.strs.Intern(s)
	if h, ok := t.bySym[id]; ok {
		return h
	}
	h := t.alloc(TagString, t.strings.Push(StringPayload{Sym: id, Value: s}))
	t.bySym[id] = h
	return h
}

// String returns the Go string value behind a TagString handle.
func (t *Table) String(h Handle) string {
	return t.strings.Get(t.payloadOf(h)).Value
}

// Strtab exposes the table's underlying string interner (used by the
// lexer/compiler to intern identifiers and literals using the same pool
// object values are deduplicated against).
func (t *Table) Strtab() *strtab.Table { return t.strs }

// FilePayload is the payload for TagFile objects: a strong-typed path,
// tagged with whether it is generated (build-dir relative) or a plain
// source-relative path (spec.md §3 "file (strong-typed path)").
type FilePayload struct {
	Path      string
	Generated bool
}

// NewFile allocates a TagFile object.
func (t *Table) NewFile(p FilePayload) Handle {
	return t.alloc(TagFile, t.files.Push(p))
}

// File returns the FilePayload behind a TagFile handle.
func (t *Table) File(h Handle) FilePayload {
	return t.files.Get(t.payloadOf(h))
}

// TypeInfoPayload is the payload for TagTypeInfo objects — used only by
// the analyzer, which substitutes a type tag for a concrete value so the
// rest of the VM machinery can run unmodified over "unknown but typed"
// data (spec.md §4.10).
type TypeInfoPayload struct {
	Type any // typecheck.Type, stored as any to avoid an import cycle
}

// NewTypeInfo allocates a TagTypeInfo object.
func (t *Table) NewTypeInfo(p TypeInfoPayload) Handle {
	return t.alloc(TagTypeInfo, t.typeinfos.Push(p))
}

// TypeInfo returns the TypeInfoPayload behind a TagTypeInfo handle.
func (t *Table) TypeInfo(h Handle) TypeInfoPayload {
	return t.typeinfos.Get(t.payloadOf(h))
}

// NewGeneric allocates an object of tag carrying an arbitrary Go value as
// its payload. This is the escape hatch used for the many build-system
// object kinds (compiler, build target, dependency, module, ...) whose
// internal shape belongs to the builtin layer rather than the core object
// model; the core only needs to hand out a stable handle for them.
func (t *Table) NewGeneric(tag Tag, payload any) Handle {
	return t.alloc(tag, t.generic.Push(payload))
}

// Generic returns the payload behind a handle allocated with NewGeneric.
func (t *Table) Generic(h Handle) any {
	return t.generic.Get(t.payloadOf(h))
}

// SetGeneric overwrites the payload behind a handle allocated with
// NewGeneric (used for mutable aggregate objects such as build-dependency
// bags that grow in place as a target's sources/links accumulate).
func (t *Table) SetGeneric(h Handle, payload any) {
	t.generic.Set(t.payloadOf(h), payload)
}

// Mark is a saved position across every per-tag bucket, used to unwind a
// subproject or speculative (analyzer) evaluation without disturbing
// handles allocated before it.
type Mark struct {
	entries   arena.Mark
	strs      strtab.Mark
	strings   arena.Mark
	numbers   arena.Mark
	bools     arena.Mark
	files     arena.Mark
	arrays    arena.Mark
	cells     arena.Mark
	dicts     arena.Mark
	dictCells arena.Mark
	funcs     arena.Mark
	captures  arena.Mark
	typeinfos arena.Mark
	iterators arena.Mark
	generic   arena.Mark
}

// Save returns a Mark at the table's current state.
func (t *Table) Save() Mark {
	return Mark{
		entries:   t.entries.Save(),
		strs:      t.strs.Save(),
		strings:   t.strings.Save(),
		numbers:   t.numbers.Save(),
		bools:     t.bools.Save(),
		files:     t.files.Save(),
		arrays:    t.arrays.Save(),
		cells:     t.cells.Save(),
		dicts:     t.dicts.Save(),
		dictCells: t.dictCells.Save(),
		funcs:     t.funcs.Save(),
		captures:  t.captures.Save(),
		typeinfos: t.typeinfos.Save(),
		iterators: t.iterators.Save(),
		generic:   t.generic.Save(),
	}
}

// Restore releases every object allocated since m. Handles >= the mark
// must not be used again by the caller.
func (t *Table) Restore(m Mark) {
	for id := range t.bySym {
		if id >= strtab.ID(m.strs) {
			delete(t.bySym, id)
		}
	}
	t.strs.Restore(m.strs)
	t.entries.Restore(m.entries)
	t.strings.Restore(m.strings)
	t.numbers.Restore(m.numbers)
	t.bools.Restore(m.bools)
	t.files.Restore(m.files)
	t.arrays.Restore(m.arrays)
	t.cells.Restore(m.cells)
	t.dicts.Restore(m.dicts)
	t.dictCells.Restore(m.dictCells)
	t.funcs.Restore(m.funcs)
	t.captures.Restore(m.captures)
	t.typeinfos.Restore(m.typeinfos)
	t.iterators.Restore(m.iterators)
	t.generic.Restore(m.generic)
}
