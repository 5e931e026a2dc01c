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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Fetcher retrieves a URL's body. httpFetcher is the production
// implementation; tests supply a stub so Handle's "no network fetch when
// packagefiles satisfies the request" property (spec.md §8 scenario 4) is
// actually provable rather than merely asserted.
type Fetcher interface {
	Fetch(url string) ([]byte, error)
}

// httpFetcher is the default Fetcher, a thin net/http GET.
type httpFetcher struct{ client *http.Client }

// NewHTTPFetcher returns a Fetcher backed by net/http with a bounded
// timeout (wrap.c's libcurl fetch is likewise a single blocking GET per
// wrap).
func NewHTTPFetcher() Fetcher {
	return &httpFetcher{client: &http.Client{Timeout: 60 * time.Second}}
}

func (f *httpFetcher) Fetch(url string) ([]byte, error) {
	resp, err := f.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Config bundles wrap_handle's parameters: the subprojects directory
// every wrap is relative to, and whether network fetches are allowed at
// all (spec.md §6's --wrap-mode nodownload maps to Download=false).
type Config struct {
	SubprojectsDir string
	Download       bool
	Fetcher        Fetcher
}

// Result reports what Handle actually did, for the driver's log output
// and for tests asserting the no-network-fetch property.
type Result struct {
	DestDir  string
	Fetched  bool // a network Fetch call was made
	Extracted bool
	AlreadyPresent bool // dest_dir/meson.build already existed; no-op
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// fingerprintFile computes a blake2b-256 digest of a previously-fetched
// or packagefiles-supplied archive, cached alongside dest_dir as
// ".muon-wrap-fingerprint" (grounded on the teacher's compr package using
// a content digest to decide whether a conversion is already up to
// date). checksumExtract writes it after a successful extract; nothing in
// this package reads it back, so it does not let Handle skip any work.
func fingerprintFile(data []byte) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

const fingerprintName = ".muon-wrap-fingerprint"

// Handle implements wrap_handle: resolve dest_dir, no-op if its
// meson.build already exists, otherwise acquire the source (preferring a
// pre-populated subprojects/packagefiles/ entry over any network fetch),
// verify its checksum, extract it, and apply patches.
func Handle(w *Wrap, cfg Config) (*Result, error) {
	destDir := destDirFor(w, cfg.SubprojectsDir)
	res := &Result{DestDir: destDir}

	if fileExists(filepath.Join(destDir, "meson.build")) {
		res.AlreadyPresent = true
		return res, nil
	}

	switch w.Type {
	case TypeFile:
		if err := handleFile(w, cfg, destDir, res); err != nil {
			return res, err
		}
	case TypeGit:
		return res, fmt.Errorf("wrap-git is not supported by this fetcher (no git subprocess driver wired)")
	}

	if err := applyPatch(w, cfg, destDir, res); err != nil {
		return res, err
	}
	return res, nil
}

func destDirFor(w *Wrap, subprojects string) string {
	dir := w.Fields[FieldDirectory]
	if dir == "" {
		dir = w.Name
	}
	return filepath.Join(subprojects, dir)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// handleFile implements wrap_handle_file: the source archive is extracted
// into dest_dir, with extractArchive stripping each member's lead
// directory.
func handleFile(w *Wrap, cfg Config, destDir string, res *Result) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	return downloadCheckExtract(cfg, w.Fields[FieldSourceFilename], w.Fields[FieldSourceURL], w.Fields[FieldSourceHash], destDir, res)
}

// downloadCheckExtract implements wrap_download_or_check_packagefiles:
// prefer subprojects/packagefiles/<filename> when present (no network
// touched at all — spec.md §8 scenario 4), otherwise fetch url, in both
// cases verifying sha256 before extracting.
func downloadCheckExtract(cfg Config, filename, url, sha256sum, destDir string, res *Result) error {
	packagefiles := filepath.Join(cfg.SubprojectsDir, "packagefiles")
	if filename != "" {
		candidate := filepath.Join(packagefiles, filename)
		if data, err := os.ReadFile(candidate); err == nil {
			return checksumExtract(data, filename, sha256sum, destDir, res)
		}
	}

	if !cfg.Download {
		return fmt.Errorf("wrap downloading is disabled")
	}
	if url == "" {
		return fmt.Errorf("wrap has no source_url and no matching packagefiles entry")
	}
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher()
	}
	data, err := fetcher.Fetch(url)
	if err != nil {
		return err
	}
	res.Fetched = true
	name := filename
	if name == "" {
		name = url
	}
	return checksumExtract(data, name, sha256sum, destDir, res)
}

func checksumExtract(data []byte, filename, wantSHA256, destDir string, res *Result) error {
	if wantSHA256 != "" {
		if got := sha256Hex(data); got != wantSHA256 {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, wantSHA256)
		}
	}
	if err := extractArchive(data, filename, destDir); err != nil {
		return err
	}
	if fp, err := fingerprintFile(data); err == nil {
		_ = os.WriteFile(filepath.Join(destDir, fingerprintName), []byte(fp), 0o644)
	}
	res.Extracted = true
	return nil
}

// archiveKind picks the format from the filename suffix alone (tar,
// tar.gz, tar.zst, zip; anything else is read as plain tar) without
// looking at the data's magic bytes; wrap.c instead shells
// out to libarchive for every format it supports.
func archiveKind(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".tar.zst"), strings.HasSuffix(filename, ".tzst"):
		return "tar.zst"
	case strings.HasSuffix(filename, ".tar.gz"), strings.HasSuffix(filename, ".tgz"):
		return "tar.gz"
	case strings.HasSuffix(filename, ".zip"):
		return "zip"
	default:
		return "tar"
	}
}
