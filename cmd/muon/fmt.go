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

package main

// cmdFmt implements `muon fmt`. A source formatter needs a
// concrete-syntax-preserving printer over the parse tree (comments,
// original spacing, trailing commas); this repo's lang.Parse discards
// that information once it builds the AST, so reformatting in place
// would silently clobber comments. Left unimplemented rather than
// shipping a formatter that destroys what it's formatting.
func cmdFmt(args []string) {
	exitf("fmt: not implemented (no concrete-syntax-preserving parse tree to reprint from)\n")
}
