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

import "strings"

// mesonCompatVersion is printed by --version and by `meson --version`,
// the value a build script's meson.version()/meson.version_compare()
// checks expect to see from a Meson-compatible front end.
const mesonCompatVersion = "1.3.0"

// mesonTranslate rewrites a Meson-style argv into this driver's own
// argv shape before flag parsing sees it. Meson's `--prefix=/usr`-style
// project options arrive as `-Dprefix=/usr` overrides here, since this
// driver never registers the hundred-odd individual `--prefix`/
// `--libdir`/... flags a full Meson clone does; everything else (the
// subcommand name, `--reconfigure`, positional args) passes through
// unchanged.
func mesonTranslate(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--version" {
			// "--" ends flag parsing, so the global -v (verbose) flag
			// never sees it and main's switch prints the version.
			out = append(out, "--", a)
			continue
		}
		if strings.HasPrefix(a, "--") && a != "--reconfigure" {
			if name, value, ok := strings.Cut(a[2:], "="); ok {
				out = append(out, "-D"+name+"="+value)
				continue
			}
		}
		out = append(out, a)
	}
	return out
}
