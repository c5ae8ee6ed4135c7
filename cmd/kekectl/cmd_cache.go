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
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/kekectl/pkg/ux"
)

func runCacheStats(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	svc := newSolverService()
	defer svc.Close()

	var result CacheResult
	err := ux.WithSpinner("Fetching cache statistics", func() error {
		var err error
		result, err = svc.ManageCache(ctx, CacheActionStats)
		return err
	})
	if err != nil {
		fail("Could not fetch cache statistics: %v", err)
	}
	if result.Status != "success" {
		fail("Cache stats request refused: %s", result.Message)
	}

	if len(result.Stats) == 0 {
		ux.Info("The solution cache is empty")
		return
	}

	// Deterministic key order; the backend hands back a loose map
	keys := make([]string, 0, len(result.Stats))
	for k := range result.Stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ux.Title("Solution cache")
	for _, k := range keys {
		ux.Info(fmt.Sprintf("%s: %v", k, result.Stats[k]))
	}
}

func runCacheClear(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	svc := newSolverService()
	defer svc.Close()

	if ux.IsInteractive() {
		confirmed := false
		if err := huh.NewConfirm().
			Title("Clear every cached solution on the backend?").
			Value(&confirmed).
			Run(); err != nil || !confirmed {
			ux.Muted("Cache left untouched")
			return
		}
	}

	var result CacheResult
	err := ux.WithSpinner("Clearing the solution cache", func() error {
		var err error
		result, err = svc.ManageCache(ctx, CacheActionClear)
		return err
	})
	if err != nil {
		fail("Could not clear the cache: %v", err)
	}
	if result.Status != "success" {
		fail("Cache clear refused: %s", result.Message)
	}

	message := result.Message
	if message == "" {
		message = "Solution cache cleared"
	}
	ux.Success(message)
}
