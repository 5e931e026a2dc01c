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

// Package typecheck implements the tag-bit type system argument/return
// values are checked against (spec.md §4.7).
package typecheck

import (
	"fmt"
	"strings"

	"github.com/muonic/muon/object"
)

// Tag is a 64-bit type descriptor: the low bits are a bitmask of simple
// object tags, the high bits carry flags and a complex-type payload index
// (spec.md §4.7: "A type tag is a 64-bit value. Low bits dedicate one bit
// per simple tag ... High bits carry flags").
type Tag uint64

const (
	flagAllowNull Tag = 1 << 40
	flagListify   Tag = 1 << 41
	flagGlob      Tag = 1 << 42
	flagComplex   Tag = 1 << 43

	subTagShift = 44
	subTagMask  = 0x7 << subTagShift

	payloadShift = 48
	payloadMask  = 0xFFFF << payloadShift

	simpleMask = (Tag(1) << 40) - 1
)

// SubTag identifies which complex-type variant a Tag with flagComplex set
// carries (spec.md §4.7: "complex with a sub-tag or | nested | enum |
// preset").
type SubTag int

const (
	SubNone SubTag = iota
	SubOr
	SubNested
	SubEnum
	SubPreset
)

// Of returns the simple type tag for a single object.Tag.
func Of(t object.Tag) Tag { return Tag(1) << uint(t) }

// Union ORs together any number of simple or flag bits.
func Union(tags ...Tag) Tag {
	var u Tag
	for _, t := range tags {
		u |= t
	}
	return u
}

// Has reports whether t's simple-tag bitmask includes obj.
func (t Tag) Has(obj object.Tag) bool { return t&Of(obj) != 0 }

// AllowNull, Listify, Glob report the corresponding flag bits.
func (t Tag) AllowNull() bool { return t&flagAllowNull != 0 }
func (t Tag) Listify() bool   { return t&flagListify != 0 }
func (t Tag) Glob() bool      { return t&flagGlob != 0 }
func (t Tag) IsComplex() bool { return t&flagComplex != 0 }

// WithAllowNull, WithListify, WithGlob return copies of t with the flag set.
func (t Tag) WithAllowNull() Tag { return t | flagAllowNull }
func (t Tag) WithListify() Tag   { return t | flagListify }
func (t Tag) WithGlob() Tag      { return t | flagGlob }

// SubTag returns t's complex-type variant; only meaningful if IsComplex().
func (t Tag) SubTag() SubTag { return SubTag((t & subTagMask) >> subTagShift) }

// Payload returns t's typeinfo-payload index; only meaningful if IsComplex().
func (t Tag) Payload() int { return int((t & payloadMask) >> payloadShift) }

// Complex builds a complex type tag referencing payload idx in a
// *Registry's preset/or/nested/enum table.
func Complex(sub SubTag, idx int) Tag {
	return flagComplex | (Tag(sub) << subTagShift) | (Tag(idx) << payloadShift)
}

func (t Tag) String() string {
	if t.IsComplex() {
		return fmt.Sprintf("complex(%d,#%d)", t.SubTag(), t.Payload())
	}
	var names []string
	for tag := object.Tag(0); tag < 40 && Tag(1)<<uint(tag) <= simpleMask; tag++ {
		if t&Of(tag) != 0 {
			names = append(names, tag.String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	s := strings.Join(names, "|")
	if t.AllowNull() {
		s += "?"
	}
	return s
}
