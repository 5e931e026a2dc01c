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

// Package wrap implements spec.md §4.11's wrap-file subproject fetcher:
// an INI-grammar parser for .wrap files, [wrap-file]/[wrap-git]/[provide]
// validation, and the fetch/checksum/extract/patch pipeline wrap_handle
// runs per subproject.
package wrap

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// iniEntry is one parsed (section, key, value) triple, or a bare section
// header (key == ""), mirroring wrap.c's wrap_parse_cb callback shape —
// this package parses the whole file up front into a slice instead of a
// push-parser callback, since Go callers just want the result.
type iniEntry struct {
	Line    int
	Section string
	Key     string
	Value   string
}

// parseINI lexes the restricted INI grammar .wrap files use: `[section]`
// headers, `key = value` assignments, `#`/`;` full-line comments, blank
// lines ignored, no multi-line values or quoting.
func parseINI(r io.Reader) ([]iniEntry, error) {
	sc := bufio.NewScanner(r)
	var entries []iniEntry
	section := ""
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, ";") {
			continue
		}
		if strings.HasPrefix(text, "[") {
			if !strings.HasSuffix(text, "]") {
				return nil, fmt.Errorf("line %d: unterminated section header %q", line, text)
			}
			section = strings.TrimSpace(text[1 : len(text)-1])
			entries = append(entries, iniEntry{Line: line, Section: section})
			continue
		}
		eq := strings.IndexByte(text, '=')
		if eq < 0 {
			return nil, fmt.Errorf("line %d: expected key = value, got %q", line, text)
		}
		if section == "" {
			return nil, fmt.Errorf("line %d: key outside of any section", line)
		}
		key := strings.TrimSpace(text[:eq])
		val := strings.TrimSpace(text[eq+1:])
		entries = append(entries, iniEntry{Line: line, Section: section, Key: key, Value: val})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
