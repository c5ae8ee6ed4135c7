// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/kekectl/pkg/game"
	"github.com/AleutianAI/kekectl/pkg/ux"
)

// watchDebounce coalesces the burst of write events editors emit when
// saving a file into a single re-render.
const watchDebounce = 150 * time.Millisecond

func runPreview(cmd *cobra.Command, args []string) {
	path := args[0]
	board := ux.NewBoardRenderer(ux.BoardConfig{})

	if err := previewFile(board, path); err != nil {
		fail("Could not preview %s: %v", path, err)
	}
	if !previewWatch {
		return
	}

	if err := watchPreview(board, path); err != nil {
		fail("Watch failed: %v", err)
	}
}

// previewFile reads a level file and prints its rendered board. Ragged
// rows render at their literal lengths; the data-quality signal is
// surfaced as a warning, not an error.
func previewFile(board *ux.BoardRenderer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read level file: %w", err)
	}

	grid := game.Decode(string(data))
	if grid.Ragged() {
		ux.Warning("Rows have uneven lengths; the file may be malformed")
	}

	fmt.Println(board.Render(grid))
	return nil
}

// watchPreview re-renders the file on every write until interrupted.
// Watches the parent directory rather than the file itself: editors
// that save via rename would otherwise silently detach the watch.
func watchPreview(board *ux.BoardRenderer, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	ux.Muted(fmt.Sprintf("Watching %s; ctrl+c stops", path))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var debounce *time.Timer
	renderCh := make(chan struct{}, 1)

	for {
		select {
		case <-sigCh:
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || abs != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case renderCh <- struct{}{}:
				default:
				}
			})

		case <-renderCh:
			if err := previewFile(board, path); err != nil {
				ux.Warning(fmt.Sprintf("Re-render failed: %v", err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			appLogger.Warn("watcher error", "path", path, "error", err)
		}
	}
}
