// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lassandro/golit/pkg/lit"
)

const followSettle = 100 * time.Millisecond

// follow runs every script once and then again each time one of them is
// written, until ctx is cancelled. Parent directories are watched so editors
// that replace files on save are still seen.
func follow(ctx context.Context, runner *lit.Runner, paths []string, echoed bool) int {
	watcher, err := fsnotify.NewWatcher()

	if err != nil {
		log.Println(err)
		return 1
	}

	defer watcher.Close()

	scripts := make(map[string]string, len(paths))
	dirs := make(map[string]bool)

	for _, path := range paths {
		abs, err := filepath.Abs(path)

		if err != nil {
			log.Println(err)
			return 1
		}

		scripts[abs] = path

		if dir := filepath.Dir(abs); !dirs[dir] {
			if err := watcher.Add(dir); err != nil {
				log.Println(err)
				return 1
			}

			dirs[dir] = true
		}
	}

	run := func(batch []string) {
		results, err := runner.RunAll(ctx, batch)

		if err != nil {
			log.Println(err)
		}

		report(os.Stdout, results, echoed)
	}

	run(paths)

	pending := make(map[string]bool)
	settle := time.NewTimer(followSettle)
	settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0

		case event, ok := <-watcher.Events:
			if !ok {
				return 0
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			path, ok := scripts[filepath.Clean(event.Name)]

			if !ok {
				continue
			}

			pending[path] = true
			settle.Reset(followSettle)

		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}

			log.Println(err)

		case <-settle.C:
			batch := make([]string, 0, len(pending))

			for path := range pending {
				batch = append(batch, path)
			}

			sort.Strings(batch)
			clear(pending)

			log.Printf("%d changed, running again", len(batch))
			run(batch)
		}
	}
}
