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

package diag

import (
	"encoding/binary"
	"fmt"

	"github.com/dchest/siphash"

	"github.com/muonic/muon/lang/token"
)

// Level orders a Record's severity (spec.md §4.12's level axis of the
// dedup key).
type Level int

const (
	LevelWarning Level = iota
	LevelDeprecation
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelDeprecation:
		return "DEPRECATION"
	default:
		return "WARNING"
	}
}

// Record is one pushed diagnostic: spec.md §4.12's (source_index,
// location, level, message) tuple, plus the dedup key derived from it.
type Record struct {
	Source  int
	Pos     token.Position
	Level   Level
	Message string

	dedupKey uint64
}

func (r Record) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", "<src>", r.Pos.Line, r.Pos.Column, r.Level, r.Message)
}

// dedupKeys are the siphash-128 keys used to derive a Record's
// coalescing/dedup fingerprint (spec.md §4.12; grounded on the teacher's
// vm/siphash_generic.go use of github.com/dchest/siphash.Hash128 to
// fingerprint ion field paths). Fixed, arbitrary, process-constant.
var dedupK0, dedupK1 uint64 = 0x6d756f6e5f646961, 0x672e73746f72652e

// key computes the siphash-128 fingerprint of (source, line, column,
// level, message) used both to recognize an exact repeat (so suppress/
// replay logic can dedup) and as the grouping key coalescing keys off of
// during a call-stack unwind.
func key(source int, pos token.Position, level Level, message string) uint64 {
	buf := make([]byte, 0, 24+len(message))
	buf = binary.BigEndian.AppendUint32(buf, uint32(source))
	buf = binary.BigEndian.AppendUint32(buf, uint32(pos.Line))
	buf = binary.BigEndian.AppendUint32(buf, uint32(pos.Column))
	buf = binary.BigEndian.AppendUint32(buf, uint32(level))
	buf = append(buf, message...)
	hi, _ := siphash.Hash128(dedupK0, dedupK1, buf)
	return hi
}
