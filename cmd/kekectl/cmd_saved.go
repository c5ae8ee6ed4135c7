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
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/kekectl/pkg/ux"
)

func runSavedList(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	st, err := openLocalStore()
	if err != nil {
		fail("Could not open the local store: %v", err)
	}
	defer st.Close()

	levelID := ""
	if len(args) > 0 {
		levelID = args[0]
	}

	infos, err := st.List(ctx, levelID)
	if err != nil {
		fail("Could not list stored solutions: %v", err)
	}
	if len(infos) == 0 {
		ux.Info("No locally stored solutions")
		return
	}

	if ux.GetPersonality().Level == ux.PersonalityMachine {
		for _, info := range infos {
			fmt.Printf("%s\t%d\t%d\n", info.LevelID, info.Timestamp, info.TotalSteps)
		}
		return
	}

	ux.Title("Locally stored solutions")
	for _, info := range infos {
		fmt.Printf("%s %s %s\n",
			ux.IconBullet.Render(),
			ux.Styles.Bold.Render(info.LevelID),
			ux.Styles.Muted.Render(fmt.Sprintf("%d steps, saved %s",
				info.TotalSteps, info.SavedAt().Format("2006-01-02 15:04:05"))))
	}
}

func runSavedExport(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	levelID := args[0]

	st, err := openLocalStore()
	if err != nil {
		fail("Could not open the local store: %v", err)
	}
	defer st.Close()

	sol, err := st.Latest(ctx, levelID)
	if err != nil {
		fail("No stored solution for %s: %v", levelID, err)
	}

	if savedPush {
		svc := newSolverService()
		defer svc.Close()

		receipt, err := svc.SaveSolution(ctx, sol)
		if err != nil {
			fail("The server refused the solution again: %v", err)
		}
		ux.Success(fmt.Sprintf("Re-posted %s to the server (%s)", levelID, receipt.Filepath))

		// The server has it now; the local copy served its purpose
		if err := st.Delete(ctx, sol.LevelID, sol.Timestamp); err != nil {
			appLogger.Warn("could not drop the pushed record", "level_id", levelID, "error", err)
		}
		return
	}

	data, err := json.MarshalIndent(sol, "", "  ")
	if err != nil {
		fail("Could not encode the solution: %v", err)
	}

	if savedOut == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(savedOut, append(data, '\n'), 0o644); err != nil {
		fail("Could not write %s: %v", savedOut, err)
	}
	ux.Success(fmt.Sprintf("Wrote %s (%d steps) to %s", levelID, sol.TotalSteps, savedOut))
}

func runSavedFlush(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if ux.IsInteractive() {
		confirmed := false
		if err := huh.NewConfirm().
			Title("Drop every locally stored solution?").
			Value(&confirmed).
			Run(); err != nil || !confirmed {
			ux.Muted("Store left untouched")
			return
		}
	}

	st, err := openLocalStore()
	if err != nil {
		fail("Could not open the local store: %v", err)
	}
	defer st.Close()

	dropped, err := st.Flush(ctx)
	if err != nil {
		fail("Flush failed: %v", err)
	}
	ux.Success(fmt.Sprintf("Dropped %d stored solution(s)", dropped))
}
