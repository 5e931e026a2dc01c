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

package config

import (
	"os"

	"sigs.k8s.io/yaml"
)

// LSPConfig is the shape of a project's .muonlsp.yaml: the default
// warning set and analyzer behavior the lsp package's completion/hover/
// diagnostics loop falls back to when a client doesn't override it per
// request (SPEC_FULL.md §4.13).
type LSPConfig struct {
	// Warnings lists the warning categories enabled by default (e.g.
	// "dead_code", "unused_variable", "deprecated"); empty means "all".
	Warnings []string `json:"warnings,omitempty"`
	// Werror promotes every enabled warning to an error for diagnostics
	// purposes, mirroring the CLI's --werror.
	Werror bool `json:"werror,omitempty"`
	// DisabledSources lists source-relative paths (spec.md §4.12's
	// suppress-sources, scoped here to the LSP server's live-editing
	// session). The lsp server does not read this field; diagnostics for
	// these paths are still published.
	DisabledSources []string `json:"disabledSources,omitempty"`
}

// DefaultLSPConfig is used when no .muonlsp.yaml is present.
func DefaultLSPConfig() LSPConfig {
	return LSPConfig{}
}

// LoadLSPConfig reads and unmarshals path (typically
// "<project_root>/.muonlsp.yaml") via sigs.k8s.io/yaml, which accepts
// both YAML and plain JSON syntax by converting to JSON before decoding
// (the same library the rest of the Kubernetes-adjacent ecosystem uses
// for "YAML in, strict JSON schema out" config loading). A missing file
// is not an error — it's the common case for a project that hasn't
// customized LSP behavior — and returns DefaultLSPConfig().
func LoadLSPConfig(path string) (LSPConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultLSPConfig(), nil
		}
		return LSPConfig{}, err
	}
	var cfg LSPConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return LSPConfig{}, err
	}
	return cfg, nil
}
