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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/kekectl/pkg/ux"
)

func runLeaderboard(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	svc := newSolverService()
	defer svc.Close()

	var rows []LeaderboardRow
	err := ux.WithSpinner("Fetching leaderboard", func() error {
		var err error
		rows, err = svc.Leaderboard(ctx)
		return err
	})
	if err != nil {
		fail("Could not fetch the leaderboard: %v", err)
	}

	if leaderboardLevelSet != "" {
		filtered := rows[:0]
		for _, r := range rows {
			if r.LevelSet == leaderboardLevelSet {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	if len(rows) == 0 {
		ux.Warning("No leaderboard entries match")
		return
	}

	// Presentation order only; the backend's ranking math is untouched
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Accuracy > rows[j].Accuracy
	})

	printLeaderboard(rows)
}

// printLeaderboard renders the results table. Accuracy cells take the
// same three-tier band colors as the live progress bar, so a run's end
// state and its standing read the same way.
func printLeaderboard(rows []LeaderboardRow) {
	if ux.GetPersonality().Level == ux.PersonalityMachine {
		for _, r := range rows {
			fmt.Printf("ROW: agent=%s level_set=%s accuracy=%.4f solved=%d total=%d avg_time=%.2f avg_iterations=%.0f avg_efficiency=%.2f executions=%d\n",
				r.Agent, r.LevelSet, r.Accuracy, r.SolvedLevels, r.TotalLevels,
				r.AvgTime, r.AvgIterations, r.AvgEfficiency, r.TotalExecutions)
		}
		return
	}

	ux.Title("Leaderboard")
	header := fmt.Sprintf("%-16s %-16s %9s %8s %9s %10s %11s %6s",
		"AGENT", "LEVEL SET", "ACCURACY", "SOLVED", "AVG TIME", "AVG ITERS", "EFFICIENCY", "RUNS")
	fmt.Println(ux.Styles.Subtitle.Render(header))

	for _, r := range rows {
		accuracy := ux.BandFor(r.Accuracy).Render(fmt.Sprintf("%8.1f%%", r.Accuracy*100))
		fmt.Printf("%-16s %-16s %s %8s %8.2fs %10.0f %11.2f %6d\n",
			r.Agent, r.LevelSet, accuracy,
			fmt.Sprintf("%d/%d", r.SolvedLevels, r.TotalLevels),
			r.AvgTime, r.AvgIterations, r.AvgEfficiency, r.TotalExecutions)
	}
}
