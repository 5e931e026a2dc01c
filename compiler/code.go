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

package compiler

import (
	"sort"

	"github.com/muonic/muon/lang/token"
)

// Location maps one instruction offset to a source position, keyed by the
// index of the source file it came from (spec.md §4.5: "source location
// table maps each instruction offset to (source_index, location)").
type Location struct {
	SourceIndex int
	Pos         token.Position
}

// Code is the single growing instruction array a driver appends to across
// every file it compiles in one run (spec.md §2: "a driver ... invokes
// lexer→parser→compiler to append to a single growing code array").
type Code struct {
	Bytes []byte

	// locs is parallel to instruction boundaries: locs[i] describes the
	// instruction beginning at offset locOffsets[i].
	locOffsets []int
	locs       []Location

	// Sources lists the file paths instruction locations are indexed
	// against, appended to as new files are compiled.
	Sources []string
}

// NewCode returns an empty instruction stream.
func NewCode() *Code { return &Code{} }

// AddSource registers path and returns its source index.
func (c *Code) AddSource(path string) int {
	c.Sources = append(c.Sources, path)
	return len(c.Sources) - 1
}

// Len returns the current instruction-stream length, i.e. the offset the
// next emitted instruction will occupy.
func (c *Code) Len() int { return len(c.Bytes) }

// emit appends one instruction with up to 3 operands, recording its source
// location, and returns the offset it was written at.
func (c *Code) emit(op Op, sourceIndex int, pos token.Position, operands ...uint32) int {
	off := len(c.Bytes)
	c.locOffsets = append(c.locOffsets, off)
	c.locs = append(c.locs, Location{SourceIndex: sourceIndex, Pos: pos})

	c.Bytes = append(c.Bytes, byte(op))
	for _, v := range operands {
		c.Bytes = append(c.Bytes, byte(v>>16), byte(v>>8), byte(v))
	}
	// pad remaining operand slots so Width() stays consistent even if a
	// caller supplies fewer operands than the opcode's declared arity
	// (used by forward-jump patching, which emits a placeholder operand).
	for i := len(operands); i < operandCount[op]; i++ {
		c.Bytes = append(c.Bytes, 0, 0, 0)
	}
	return off
}

// OpAt returns the opcode at instruction offset off.
func (c *Code) OpAt(off int) Op { return Op(c.Bytes[off]) }

// Operand returns the i'th 24-bit operand (big-endian) of the instruction
// at off.
func (c *Code) Operand(off, i int) uint32 {
	base := off + 1 + 3*i
	return uint32(c.Bytes[base])<<16 | uint32(c.Bytes[base+1])<<8 | uint32(c.Bytes[base+2])
}

// PatchOperand overwrites the i'th operand of the instruction at off, used
// to back-patch forward jump targets once their destination is known.
func (c *Code) PatchOperand(off, i int, v uint32) {
	base := off + 1 + 3*i
	c.Bytes[base], c.Bytes[base+1], c.Bytes[base+2] = byte(v>>16), byte(v>>8), byte(v)
}

// LocationAt returns the source location of the instruction beginning at
// offset off, if one was recorded. locOffsets grows monotonically as
// emit() always appends at the current stream end, so a binary search
// suffices.
func (c *Code) LocationAt(off int) (Location, bool) {
	i := sort.SearchInts(c.locOffsets, off)
	if i < len(c.locOffsets) && c.locOffsets[i] == off {
		return c.locs[i], true
	}
	return Location{}, false
}
