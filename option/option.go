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

// Package option implements option declarations and their precedence-
// ordered assignment (spec.md §4.9): default value, environment variables,
// default_options strings, yield, command-line -Doption=value overrides,
// override_options, and deprecated_rename. An option object carries its
// current value plus the source rank that last wrote it, so later writes
// from a lower-ranked source are silently ignored rather than relying on
// evaluation order.
package option

import (
	"fmt"
	"strings"

	"github.com/muonic/muon/object"
)

// Kind is an option's declared value type (build_option_type).
type Kind int

const (
	KindString Kind = iota
	KindBoolean
	KindCombo
	KindInteger
	KindArray
	KindFeature
	// KindShellArray is only legal while bootstrapping the built-in
	// option recipes (global_options.meson / per_project_options.meson);
	// a project's own meson.options may not declare one.
	KindShellArray
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindCombo:
		return "combo"
	case KindInteger:
		return "integer"
	case KindArray:
		return "array"
	case KindFeature:
		return "feature"
	case KindShellArray:
		return "shell_array"
	default:
		return "unknown"
	}
}

// KindFromString parses an option()'s type: kwarg. shellArray gates
// KindShellArray, which is only valid while declaring the built-in option
// recipes, not in a project's own meson.options.
func KindFromString(s string, shellArray bool) (Kind, error) {
	switch s {
	case "string":
		return KindString, nil
	case "boolean":
		return KindBoolean, nil
	case "combo":
		return KindCombo, nil
	case "integer":
		return KindInteger, nil
	case "array":
		return KindArray, nil
	case "feature":
		return KindFeature, nil
	case "shell_array":
		if shellArray {
			return KindShellArray, nil
		}
	}
	return 0, fmt.Errorf("invalid option type %q", s)
}

// DirKind distinguishes a plain option from one whose value is a directory
// that gets auto-rebased under the effective prefix (spec.md §4.9's
// "prefixed_dir kind").
type DirKind int

const (
	DirDefault DirKind = iota
	DirPrefixedDir
)

// Source ranks where an option's current value came from. Ranks are
// compared numerically; a write from a lower-ranked source than the one
// that last set the option is rejected (spec.md §4.9: "the option rejects
// writes whose source rank is lower than the last accepted source").
//
// deprecated_rename sits above commandline by design here: a deprecated
// option being renamed must still take effect even over an explicit -D on
// the old name, matching the upstream implementation's own ranking (kept
// verbatim rather than redesigned, see DESIGN.md).
type Source int

const (
	SourceUnset Source = iota
	SourceDefault
	SourceEnvironment
	SourceDefaultOptions
	SourceSubprojectDefaultOptions
	SourceYield
	SourceCommandline
	SourceDeprecatedRename
	SourceOverrideOptions
)

var sourceNames = [...]string{
	SourceUnset:                    "unset",
	SourceDefault:                  "default",
	SourceEnvironment:              "environment",
	SourceDefaultOptions:           "default_options",
	SourceSubprojectDefaultOptions: "subproject_default_options",
	SourceYield:                    "yield",
	SourceCommandline:              "commandline",
	SourceDeprecatedRename:         "deprecated rename",
	SourceOverrideOptions:          "override_options",
}

func (s Source) String() string {
	if int(s) < len(sourceNames) {
		return sourceNames[s]
	}
	return "unknown"
}

// Payload is the state behind a TagOption handle (obj_option).
type Payload struct {
	Name        string
	Type        Kind
	Value       object.Handle
	Choices     []string // combo's fixed choice set, or array's optional choice set
	Min, Max    *int64
	Yield       bool
	Description string
	// Deprecated is NoValue (not deprecated), a bool handle (whole option
	// deprecated), a string handle (renamed to another option), or an
	// array/dict handle (per-value deprecation/rename map).
	Deprecated object.Handle
	Dir        DirKind
	Builtin    bool
	Source     Source
}

// New allocates a TagOption object.
func New(objs *object.Table, p Payload) object.Handle {
	return objs.NewGeneric(object.TagOption, p)
}

// Get returns the Payload behind a TagOption handle.
func Get(objs *object.Table, h object.Handle) Payload {
	return objs.Generic(h).(Payload)
}

func put(objs *object.Table, h object.Handle, p Payload) {
	objs.SetGeneric(h, p)
}

// FeatureState is a `feature` option's value (enabled/disabled/auto).
type FeatureState int

const (
	FeatureAuto FeatureState = iota
	FeatureEnabled
	FeatureDisabled
)

func (f FeatureState) String() string {
	switch f {
	case FeatureAuto:
		return "auto"
	case FeatureEnabled:
		return "enabled"
	case FeatureDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// NewFeature allocates a TagFeatureOption value.
func NewFeature(objs *object.Table, f FeatureState) object.Handle {
	return objs.NewGeneric(object.TagFeatureOption, f)
}

// GetFeature returns the FeatureState behind a TagFeatureOption handle.
func GetFeature(objs *object.Table, h object.Handle) FeatureState {
	return objs.Generic(h).(FeatureState)
}

// featureFromString coerces a feature option's string form
// (auto/enabled/disabled) the way coerce_feature_opt does.
func featureFromString(s string) (FeatureState, error) {
	switch s {
	case "auto":
		return FeatureAuto, nil
	case "enabled":
		return FeatureEnabled, nil
	case "disabled":
		return FeatureDisabled, nil
	default:
		return 0, fmt.Errorf("unable to coerce %q into a feature", s)
	}
}

// validateName rejects option names containing anything but
// alphanumerics, '-', and '_' (validate_option_name), and bare names
// containing ':' (which would collide with the proj:name override syntax).
func validateName(name string) error {
	if strings.ContainsRune(name, ':') {
		return fmt.Errorf("invalid option name %q", name)
	}
	for _, c := range name {
		ok := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '-' || c == '_'
		if !ok {
			return fmt.Errorf("option name %q may not contain %q", name, string(c))
		}
	}
	return nil
}
