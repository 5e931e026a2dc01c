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

import "path"

// isAbsPath reports whether p is an absolute build-description path.
// Meson paths are forward-slash regardless of host platform, so this uses
// path (posix semantics) rather than filepath.
func isAbsPath(p string) bool {
	return path.IsAbs(p)
}

// rebaseUnderPrefix implements prefix_dir_opts_iter's two cases: if p
// already lives under prefix, make it relative to prefix; otherwise join
// it onto prefix outright.
func rebaseUnderPrefix(prefix, p string) string {
	if rel, ok := relativeTo(prefix, p); ok {
		return rel
	}
	return path.Join(prefix, p)
}

// relativeTo returns p relative to base when p is a subpath of base.
func relativeTo(base, p string) (string, bool) {
	base = path.Clean(base)
	p = path.Clean(p)
	if p == base {
		return ".", true
	}
	prefix := base
	if prefix != "/" {
		prefix += "/"
	}
	if len(p) > len(prefix) && p[:len(prefix)] == prefix {
		return p[len(prefix):], true
	}
	return "", false
}
