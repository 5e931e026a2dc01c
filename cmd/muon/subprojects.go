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

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/muonic/muon/wrap"
)

// cmdSubprojects implements `muon subprojects update|list|clean|fetch`:
// every .wrap file under subprojects/ is handled concurrently, one
// goroutine per wrap, the way a real checkout of a many-dependency tree
// wants to overlap network fetches rather than serialize them.
func cmdSubprojects(args []string) {
	if len(args) == 0 {
		exitf("usage: subprojects update|list|clean|fetch\n")
	}

	root, err := os.Getwd()
	if err != nil {
		exitf("getwd: %s\n", err)
	}
	subprojectsDir := filepath.Join(root, "subprojects")

	wraps, err := loadWraps(subprojectsDir)
	if err != nil {
		exitf("listing subprojects: %s\n", err)
	}

	switch args[0] {
	case "list":
		for _, w := range wraps {
			fmt.Println(w.Name)
		}
	case "update", "fetch":
		runConcurrentWrapOp(wraps, func(w *wrap.Wrap) error {
			res, err := wrap.Handle(w, wrap.Config{
				SubprojectsDir: subprojectsDir,
				Download:       true,
				Fetcher:        wrap.NewHTTPFetcher(),
			})
			if err != nil {
				return err
			}
			if res.AlreadyPresent {
				fmt.Printf("%s: already present\n", w.Name)
			} else {
				fmt.Printf("%s: fetched=%v extracted=%v\n", w.Name, res.Fetched, res.Extracted)
			}
			return nil
		})
	case "clean":
		runConcurrentWrapOp(wraps, func(w *wrap.Wrap) error {
			dir := w.Fields[wrap.FieldDirectory]
			if dir == "" {
				dir = w.Name
			}
			return os.RemoveAll(filepath.Join(subprojectsDir, dir))
		})
	default:
		exitf("unknown subprojects subcommand %q\n", args[0])
	}
}

// loadWraps parses every *.wrap file directly under dir, sorted by name
// for deterministic output.
func loadWraps(dir string) ([]*wrap.Wrap, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".wrap" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	wraps := make([]*wrap.Wrap, 0, len(names))
	for _, name := range names {
		w, err := wrap.ParseFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		wraps = append(wraps, w)
	}
	return wraps, nil
}

func runConcurrentWrapOp(wraps []*wrap.Wrap, op func(*wrap.Wrap) error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failed []string
	for _, w := range wraps {
		wg.Add(1)
		go func(w *wrap.Wrap) {
			defer wg.Done()
			if err := op(w); err != nil {
				mu.Lock()
				failed = append(failed, fmt.Sprintf("%s: %s", w.Name, err))
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	if len(failed) > 0 {
		for _, f := range failed {
			fmt.Fprintln(os.Stderr, f)
		}
		os.Exit(1)
	}
}
