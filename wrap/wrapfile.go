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

package wrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Type is the wrap's source-acquisition method, one of the two section
// headers a .wrap file's primary section may use (wrap.c's enum
// wrap_type, minus wrap_provide which is a section, not a type).
type Type int

const (
	TypeFile Type = iota
	TypeGit
)

// Field is one of the fixed fields a [wrap-file]/[wrap-git] section may
// set, mirroring wrap_field_names in the original wrap.c.
type Field string

const (
	FieldDirectory            Field = "directory"
	FieldPatchURL             Field = "patch_url"
	FieldPatchFallbackURL     Field = "patch_fallback_url"
	FieldPatchFilename        Field = "patch_filename"
	FieldPatchHash            Field = "patch_hash"
	FieldPatchDirectory       Field = "patch_directory"
	FieldDiffFiles            Field = "diff_files"
	FieldSourceURL            Field = "source_url"
	FieldSourceFallbackURL    Field = "source_fallback_url"
	FieldSourceFilename       Field = "source_filename"
	FieldSourceHash           Field = "source_hash"
	FieldLeadDirectoryMissing Field = "lead_directory_missing"
	FieldURL                  Field = "url"
	FieldRevision             Field = "revision"
	FieldDepth                Field = "depth"
	FieldPushURL              Field = "push-url"
	FieldCloneRecursive       Field = "clone-recursive"
	FieldWrapDBVersion        Field = "wrapdb_version"
)

var validFields = map[Field]bool{
	FieldDirectory: true, FieldPatchURL: true, FieldPatchFallbackURL: true,
	FieldPatchFilename: true, FieldPatchHash: true, FieldPatchDirectory: true,
	FieldDiffFiles: true, FieldSourceURL: true, FieldSourceFallbackURL: true,
	FieldSourceFilename: true, FieldSourceHash: true, FieldLeadDirectoryMissing: true,
	FieldURL: true, FieldRevision: true, FieldDepth: true, FieldPushURL: true,
	FieldCloneRecursive: true, FieldWrapDBVersion: true,
}

// Provide is one [provide] section's contribution: bare `name = target`
// lines resolve a pkg-config/dependency name to a subproject variable,
// while the two well-known keys accumulate lists of additional names the
// wrap also satisfies.
type Provide struct {
	// Names maps an arbitrary dependency name to the subproject variable
	// that satisfies it (the `foo = libfoo_dep` form).
	Names map[string]string
	// DependencyNames/ProgramNames are the comma-separated
	// `dependency_names =`/`program_names =` lists.
	DependencyNames []string
	ProgramNames    []string
}

// Wrap is one parsed .wrap file (spec.md §4.11).
type Wrap struct {
	Name    string
	Type    Type
	Fields  map[Field]string
	Provide Provide
}

// Parse validates entries (a .wrap file's contents as parseINI returns
// them) and builds the Wrap they describe, grounded on
// wrap_parse/wrap_parse_cb + validate_wrap in the original's wrap.c.
func Parse(name string, entries []iniEntry) (*Wrap, error) {
	w := &Wrap{Name: name, Fields: map[Field]string{}}
	haveType := false
	section := ""
	for _, e := range entries {
		if e.Key == "" {
			section = e.Section
			switch section {
			case "wrap-file":
				if haveType {
					return nil, fmt.Errorf("%s:%d: conflicting wrap types", name, e.Line)
				}
				w.Type, haveType = TypeFile, true
			case "wrap-git":
				if haveType {
					return nil, fmt.Errorf("%s:%d: conflicting wrap types", name, e.Line)
				}
				w.Type, haveType = TypeGit, true
			case "provide":
				if w.Provide.Names == nil {
					w.Provide.Names = map[string]string{}
				}
			default:
				return nil, fmt.Errorf("%s:%d: invalid section %q", name, e.Line, e.Section)
			}
			continue
		}
		if section == "provide" {
			if err := addProvide(w, e); err != nil {
				return nil, err
			}
			continue
		}
		f := Field(e.Key)
		if !validFields[f] {
			return nil, fmt.Errorf("%s:%d: invalid key %q", name, e.Line, e.Key)
		}
		if _, dup := w.Fields[f]; dup {
			return nil, fmt.Errorf("%s:%d: duplicate key %q", name, e.Line, e.Key)
		}
		w.Fields[f] = e.Value
	}
	if !haveType {
		return nil, fmt.Errorf("%s: no [wrap-file] or [wrap-git] section", name)
	}
	if err := w.validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// ParseFile reads and parses the .wrap file at path, naming the result
// after its base filename with the ".wrap" suffix stripped (subprojects/
// foo.wrap becomes wrap "foo", matching wrap_parse's own caller in the
// original, which derives the wrap name from the file it's handed rather
// than from anything inside the file).
func ParseFile(path string) (*Wrap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := parseINI(f)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), ".wrap")
	return Parse(name, entries)
}

// reqLevel is validate_wrap's per-field required/optional/invalid tri-state.
type reqLevel int

const (
	reqInvalid reqLevel = iota
	reqOptional
	reqRequired
)

// validate implements validate_wrap's field-requirement matrix: exactly
// one of wrap-file/wrap-git (enforced by Parse's haveType flag), the
// patch_filename/patch_directory mutual exclusion, and wrap-file's
// source_url => source_filename implication.
func (w *Wrap) validate() error {
	req := map[Field]reqLevel{
		FieldDirectory:      reqOptional,
		FieldPatchDirectory: reqOptional,
		FieldDiffFiles:      reqOptional,
		FieldWrapDBVersion:  reqOptional,
	}

	_, hasURL := w.Fields[FieldPatchURL]
	_, hasFilename := w.Fields[FieldPatchFilename]
	_, hasHash := w.Fields[FieldPatchHash]
	if hasURL || hasFilename || hasHash {
		req[FieldPatchURL] = reqOptional
		req[FieldPatchFilename] = reqRequired
		req[FieldPatchHash] = reqOptional
		req[FieldPatchFallbackURL] = reqOptional
		req[FieldPatchDirectory] = reqInvalid
	}

	switch w.Type {
	case TypeFile:
		req[FieldSourceFilename] = reqOptional
		req[FieldSourceURL] = reqOptional
		req[FieldSourceHash] = reqOptional
		if _, ok := w.Fields[FieldSourceURL]; ok {
			req[FieldSourceFilename] = reqRequired
		}
		req[FieldSourceFallbackURL] = reqOptional
		req[FieldLeadDirectoryMissing] = reqOptional
	case TypeGit:
		req[FieldURL] = reqRequired
		req[FieldRevision] = reqRequired
		req[FieldDepth] = reqOptional
		req[FieldCloneRecursive] = reqOptional
		req[FieldPushURL] = reqOptional
	}

	for f, level := range req {
		_, present := w.Fields[f]
		switch level {
		case reqRequired:
			if !present {
				return fmt.Errorf("%s: missing field %q", w.Name, f)
			}
		case reqInvalid:
			if present {
				return fmt.Errorf("%s: field %q is not valid for this wrap", w.Name, f)
			}
		}
	}
	for f := range w.Fields {
		if _, known := req[f]; !known {
			return fmt.Errorf("%s: field %q is not valid for this wrap", w.Name, f)
		}
	}
	return nil
}
