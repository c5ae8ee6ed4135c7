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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/kekectl/pkg/ux"
)

func runAgents(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	svc := newSolverService()
	defer svc.Close()

	var agents []CatalogEntry
	err := ux.WithSpinner("Fetching agents", func() error {
		var err error
		agents, err = svc.Agents(ctx)
		return err
	})
	if err != nil {
		fail("Could not fetch agents: %v", err)
	}

	printCatalog("Solver agents", agents)
}

func runLevels(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	svc := newSolverService()
	defer svc.Close()

	var sets []CatalogEntry
	err := ux.WithSpinner("Fetching level sets", func() error {
		var err error
		sets, err = svc.LevelSets(ctx)
		return err
	})
	if err != nil {
		fail("Could not fetch level sets: %v", err)
	}

	if levelsSet != "" {
		filtered := sets[:0]
		for _, s := range sets {
			if s.ID == levelsSet {
				filtered = append(filtered, s)
			}
		}
		sets = filtered
	}

	printCatalog("Level sets", sets)
}

// printCatalog lists catalog entries, one per line, id first so the
// value is copy-pasteable into solve/replay flags.
func printCatalog(title string, entries []CatalogEntry) {
	if len(entries) == 0 {
		ux.Warning("The backend returned no entries")
		return
	}

	if ux.GetPersonality().Level == ux.PersonalityMachine {
		for _, e := range entries {
			fmt.Printf("%s\t%s\n", e.ID, e.Name)
		}
		return
	}

	ux.Title(title)
	for _, e := range entries {
		if e.Name != "" && e.Name != e.ID {
			fmt.Printf("%s %s %s\n", ux.IconBullet.Render(), ux.Styles.Bold.Render(e.ID),
				ux.Styles.Muted.Render(e.Name))
		} else {
			fmt.Printf("%s %s\n", ux.IconBullet.Render(), ux.Styles.Bold.Render(e.ID))
		}
	}
}
