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

package typecheck

// Registry holds the payload tables a complex Tag's Payload() index
// addresses: the pair (type, subtype) spec.md §4.7 describes for or/
// nested/enum/preset compound types. One Registry is shared by a whole
// workspace (spec.md §4.7: "Preset types are named recipes ... memoised
// in a per-workspace dict").
type Registry struct {
	ors     [][2]Tag
	nested  []nestedEntry
	enums   [][]string
	presets []Tag
	byName  map[string]Tag
}

type nestedEntry struct {
	container Tag // array or dict tag the value itself must match
	elem      Tag // type every element (or dict value) must match
}

// NewRegistry returns an empty per-workspace compound-type registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tag)}
}

// Or registers `a | b` and returns the complex tag referencing it.
func (r *Registry) Or(a, b Tag) Tag {
	r.ors = append(r.ors, [2]Tag{a, b})
	return Complex(SubOr, len(r.ors)-1)
}

// Nested registers a container type whose elements (or dict values) must
// each match elem — e.g. `array[string]`.
func (r *Registry) Nested(container, elem Tag) Tag {
	r.nested = append(r.nested, nestedEntry{container, elem})
	return Complex(SubNested, len(r.nested)-1)
}

// Enum registers a string-valued enum type, e.g. a `feature` option's
// `{auto, enabled, disabled}` value set.
func (r *Registry) Enum(values []string) Tag {
	r.enums = append(r.enums, values)
	return Complex(SubEnum, len(r.enums)-1)
}

// Preset registers a named recipe type (list-of-string, dict-of-string,
// override-find-program, toolchain-overrides, …) and memoises it by name
// so repeated lookups of the same preset return the same Tag.
func (r *Registry) Preset(name string, resolved Tag) Tag {
	if t, ok := r.byName[name]; ok {
		return t
	}
	r.presets = append(r.presets, resolved)
	t := Complex(SubPreset, len(r.presets)-1)
	r.byName[name] = t
	return t
}

// LookupPreset returns a previously-registered preset type by name.
func (r *Registry) LookupPreset(name string) (Tag, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Common preset recipes, installed once per workspace by RegisterPresets.
const (
	PresetListOfString         = "list-of-string"
	PresetDictOfString         = "dict-of-string"
	PresetOverrideFindProgram  = "override-find-program"
	PresetToolchainOverrides   = "toolchain-overrides"
)

// RegisterPresets installs the spec's built-in named recipes into r using
// the simple tags from simple (string/array/dict/…). Call once per fresh
// Registry before using PresetListOfString etc. by name.
func RegisterPresets(r *Registry, str, arr, dict Tag) {
	r.Preset(PresetListOfString, r.Nested(arr, str))
	r.Preset(PresetDictOfString, r.Nested(dict, str))
	r.Preset(PresetOverrideFindProgram, str.WithListify())
	r.Preset(PresetToolchainOverrides, r.Nested(dict, str))
}
