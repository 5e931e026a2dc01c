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

// Package arena implements the growable-block bump allocator that backs
// every stable container the VM relies on (bucket arrays, seg-lists, the
// object table, the operand stack). Blocks are never moved once allocated,
// so any index handed out by a consumer of the arena remains valid for the
// lifetime of the block it falls in.
package arena

import (
	"fmt"

	"golang.org/x/sys/cpu"
)

// DefaultBlockSize is the size of a growable block, matching the reference
// implementation's arena default (original_source/include/arena.h).
const DefaultBlockSize = 4 << 20 // 4 MiB

// block is one contiguously-allocated region of the arena.
type block struct {
	buf []byte
	off int
}

func (b *block) remaining() int { return len(b.buf) - b.off }

// Arena is a growable bump allocator. The zero value is usable and
// allocates its first block lazily at DefaultBlockSize.
//
// Arena is not safe for concurrent use; the VM owns exactly one Arena per
// workspace and threads it through every helper explicitly (see §5 of the
// specification: no mutable statics).
type Arena struct {
	blockSize int
	blocks    []*block
	fixed     bool // true for Fixed arenas: never grow, error on overflow
}

// New returns an Arena that grows in blockSize chunks (DefaultBlockSize if
// blockSize <= 0).
func New(blockSize int) *Arena {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Arena{blockSize: blockSize}
}

// Fixed returns an Arena backed by exactly one externally-supplied buffer.
// Allocations beyond buf's capacity fail with ErrOverflow rather than
// growing; this is used for the VM's per-call scratch region, which must
// not silently expand across re-entrant calls.
func Fixed(buf []byte) *Arena {
	return &Arena{
		fixed:  true,
		blocks: []*block{{buf: buf[:0]}},
	}
}

// ErrOverflow is returned by Alloc on a Fixed arena that has run out of
// space.
var ErrOverflow = fmt.Errorf("arena: fixed arena overflow")

func align(off, a int) int {
	if a <= 1 {
		return off
	}
	return (off + a - 1) &^ (a - 1)
}

// Alloc returns n zeroed bytes aligned to align (which must be a power of
// two, or 0/1 for no alignment requirement).
func (a *Arena) Alloc(n, alignment int) ([]byte, error) {
	if n < 0 {
		panic("arena: negative alloc size")
	}
	if n == 0 {
		return nil, nil
	}
	if len(a.blocks) > 0 {
		b := a.blocks[len(a.blocks)-1]
		start := align(b.off, alignment)
		if start+n <= cap(b.buf) {
			b.buf = b.buf[:start+n]
			out := b.buf[start : start+n]
			zero(out)
			b.off = start + n
			return out, nil
		}
	}
	if a.fixed {
		return nil, ErrOverflow
	}
	size := a.blockSize
	if size <= 0 {
		size = DefaultBlockSize
	}
	if n > size {
		size = n
	}
	nb := &block{buf: make([]byte, 0, size)}
	a.blocks = append(a.blocks, nb)
	start := align(0, alignment)
	nb.buf = nb.buf[:start+n]
	nb.off = start + n
	return nb.buf[start : start+n], nil
}

// zeroChunk is a pre-zeroed scratch buffer copy()'d into the destination
// in wide strides on hardware that can move it efficiently; zeroWide
// falls back to the plain per-byte loop everywhere else (the arena's
// PopTo/Reset zero out whole vacated blocks, which on a long-running LSP
// session (SPEC_FULL.md §3, workspace.Reset reuse) can be megabytes at a
// time, so the bulk path matters there even though Alloc's typical n is
// small).
var zeroChunk = make([]byte, 4096)

// zero clears p, using a wide copy()-based stride when the CPU reports
// AVX2 (golang.org/x/sys/cpu.X86.HasAVX2) — the Go runtime's copy()
// lowers to a vectorized memmove on such hardware — and the plain
// byte-at-a-time loop otherwise.
func zero(p []byte) {
	if !cpu.X86.HasAVX2 || len(p) < len(zeroChunk) {
		for i := range p {
			p[i] = 0
		}
		return
	}
	for len(p) > 0 {
		n := copy(p, zeroChunk)
		p = p[n:]
	}
}

// Mark is an opaque position in an Arena's allocation history, usable with
// PopTo to release everything allocated since the mark.
type Mark struct {
	blockIdx int
	off      int
}

// Save returns a Mark at the arena's current position.
func (a *Arena) Save() Mark {
	if len(a.blocks) == 0 {
		return Mark{}
	}
	return Mark{blockIdx: len(a.blocks) - 1, off: a.blocks[len(a.blocks)-1].off}
}

// PopTo releases any blocks allocated after m and truncates the block m
// pointed into back to m's offset, zeroing the vacated memory. This is the
// operation the VM uses to unwind scratch allocations made during a call
// that errored or returned, without touching handles allocated before the
// mark (those live in the object table's own bucket arrays, never in the
// scratch arena).
func (a *Arena) PopTo(m Mark) {
	if len(a.blocks) == 0 {
		return
	}
	if m.blockIdx >= len(a.blocks) {
		return
	}
	for i := m.blockIdx + 1; i < len(a.blocks); i++ {
		zero(a.blocks[i].buf[:cap(a.blocks[i].buf)])
	}
	a.blocks = a.blocks[:m.blockIdx+1]
	b := a.blocks[m.blockIdx]
	if m.off < b.off {
		zero(b.buf[m.off:b.off])
	}
	b.buf = b.buf[:m.off]
	b.off = m.off
}

// Reset releases all blocks back to empty (but keeps the first block's
// backing storage to avoid a re-allocation on the next Alloc).
func (a *Arena) Reset() {
	if len(a.blocks) == 0 {
		return
	}
	first := a.blocks[0]
	zero(first.buf[:cap(first.buf)])
	first.buf = first.buf[:0]
	first.off = 0
	a.blocks = a.blocks[:1]
}
