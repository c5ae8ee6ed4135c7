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
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/kekectl/cmd/kekectl/config"
	"github.com/AleutianAI/kekectl/pkg/game"
	"github.com/AleutianAI/kekectl/pkg/store"
	"github.com/AleutianAI/kekectl/pkg/ux"
)

func runSolve(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	svc := newSolverService()
	defer svc.Close()

	agent, levelSet, iterations, useCache, err := resolveSolveInputs(ctx, svc)
	if err != nil {
		fail("Could not resolve solve inputs: %v", err)
	}

	ux.Title(fmt.Sprintf("Solving %s with agent %s", levelSet, agent))

	var sub SolveSubmission
	err = ux.WithSpinner("Submitting batch solve", func() error {
		var err error
		sub, err = svc.StartSolve(ctx, SolveRequest{
			Agent:      agent,
			LevelSet:   levelSet,
			Iterations: iterations,
			UseCache:   useCache,
		})
		return err
	})
	if err != nil {
		fail("Solve submission failed: %v", err)
	}

	renderer := ux.NewProgressRenderer(os.Stdout, ux.GetPersonality().Level)
	summary, err := svc.StreamProgress(ctx, sub.SessionID, renderer)
	if err != nil {
		// Transport failure ends the run; whatever the renderer already
		// printed stays on screen and there is no automatic retry
		fail("Lost the progress stream: %v", err)
	}
	if summary.Error != "" {
		// The renderer already surfaced the solver's message
		os.Exit(1)
	}

	printBatchSummary(summary.Report)

	if summary.Report != nil && (solveSave || config.Global.Solve.SaveToDisk) {
		saveWonLevels(ctx, svc, summary.Report)
	}

	if summary.Report != nil && ux.IsInteractive() {
		offerReplay(ctx, svc, levelSet, summary.Report)
	}
}

// resolveSolveInputs settles the batch parameters. Flags win outright;
// a missing agent or level set brings up the interactive picker
// (preselecting config defaults) when the terminal allows it, and falls
// back to config defaults otherwise.
func resolveSolveInputs(ctx context.Context, svc SolverService) (agent, levelSet string, iterations int, useCache bool, err error) {
	agent = solveAgent
	if agent == "" {
		agent = config.Global.Solve.Agent
	}
	levelSet = solveLevelSet
	if levelSet == "" {
		levelSet = config.Global.Solve.LevelSet
	}

	iterations = solveIterations
	if iterations <= 0 {
		iterations = config.Global.Solve.Iterations
	}
	if iterations <= 0 {
		iterations = 10000
	}
	useCache = config.Global.Solve.UseCache && !solveNoCache

	if (solveAgent == "" || solveLevelSet == "") && ux.IsInteractive() {
		if err = promptSolveTargets(ctx, svc, &agent, &levelSet); err != nil {
			return
		}
	}
	if agent == "" || levelSet == "" {
		err = fmt.Errorf("agent and level set are required (flags, config file, or picker)")
	}
	return
}

// promptSolveTargets fetches the backend catalogs and asks the user to
// pick an agent and level set.
func promptSolveTargets(ctx context.Context, svc SolverService, agent, levelSet *string) error {
	var agents, sets []CatalogEntry
	err := ux.WithSpinner("Fetching catalogs", func() error {
		var err error
		if agents, err = svc.Agents(ctx); err != nil {
			return err
		}
		sets, err = svc.LevelSets(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("fetch catalogs: %w", err)
	}
	if len(agents) == 0 || len(sets) == 0 {
		return fmt.Errorf("the backend offered no agents or level sets to pick from")
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Solver agent").
			Options(catalogOptions(agents)...).
			Value(agent),
		huh.NewSelect[string]().
			Title("Level set").
			Options(catalogOptions(sets)...).
			Value(levelSet),
	))
	return form.Run()
}

// catalogOptions converts catalog entries to picker options, labelling
// by display name with the id as fallback.
func catalogOptions(entries []CatalogEntry) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(entries))
	for _, e := range entries {
		label := e.Name
		if label == "" {
			label = e.ID
		}
		opts = append(opts, huh.NewOption(label, e.ID))
	}
	return opts
}

// printBatchSummary renders the final batch metrics.
func printBatchSummary(report *game.BatchReport) {
	if report == nil {
		ux.Warning("The solver returned no batch report")
		return
	}

	s := report.EffectiveSummary()
	ux.SolveSummary(s.SolvedLevels, s.TotalLevels-s.SolvedLevels, s.TotalLevels)
	if s.SolvedLevels > 0 {
		ux.Info(fmt.Sprintf("Won-level averages: %.2fs, %.0f iterations, %.2f efficiency, %.1f moves",
			s.AvgTime, s.AvgIterations, s.AvgEfficiency, s.AvgSolutionLength))
	}
	if report.FromCache {
		ux.Muted("Results served from the backend's solution cache")
	}
}

// saveWonLevels posts each won level's expanded solution to the server,
// keeping refused records in the local store instead. Local failures
// are logged only; saving is best effort all the way down.
func saveWonLevels(ctx context.Context, svc SolverService, report *game.BatchReport) {
	var st store.SolutionStore
	defer func() {
		if st != nil {
			st.Close()
		}
	}()

	saved, kept := 0, 0
	for _, lvl := range report.Levels {
		if !lvl.Won {
			continue
		}
		moves := lvl.Moves()
		if len(moves) == 0 || lvl.AsciiMap == "" {
			appLogger.Warn("won level has no replayable solution", "level_id", lvl.ID)
			continue
		}

		states, err := svc.GenerateStates(ctx, lvl.AsciiMap, moves)
		if err != nil {
			ux.Warning(fmt.Sprintf("Could not expand %s for saving: %v", lvl.ID, err))
			continue
		}
		sol := savedFromStates(lvl.ID, states)

		if receipt, err := svc.SaveSolution(ctx, sol); err == nil {
			appLogger.Debug("solution saved to server",
				"level_id", lvl.ID,
				"filepath", receipt.Filepath,
			)
			saved++
			continue
		} else {
			appLogger.Warn("server save failed, keeping the solution locally",
				"level_id", lvl.ID,
				"error", err,
			)
		}

		if st == nil {
			opened, openErr := openLocalStore()
			if openErr != nil {
				appLogger.Error("local store unavailable", "error", openErr)
				continue
			}
			st = opened
		}
		if _, err := st.Put(ctx, sol); err != nil {
			appLogger.Error("local save failed", "level_id", lvl.ID, "error", err)
			continue
		}
		kept++
	}

	if saved > 0 {
		ux.Success(fmt.Sprintf("Saved %d solution(s) to the server", saved))
	}
	if kept > 0 {
		ux.Warning(fmt.Sprintf("Server refused %d solution(s); kept locally, re-post with 'kekectl saved export --push'", kept))
	}
}

// savedFromStates converts generated replay states into the persistable
// record shape shared by the save endpoint and the local store.
func savedFromStates(levelID string, states []game.GameState) store.SavedSolution {
	sol := store.SavedSolution{
		LevelID:   levelID,
		Timestamp: time.Now().UnixMilli(),
		States:    make([]store.SavedState, 0, len(states)),
	}
	if len(states) > 0 {
		sol.TotalSteps = len(states) - 1
	}

	for _, gs := range states {
		desc := "Initial state"
		if gs.HasMove() {
			desc = fmt.Sprintf("Step %d: %s", gs.Step, gs.MoveName())
		}
		if gs.Won {
			desc += " (won)"
		}
		sol.States = append(sol.States, store.SavedState{
			Step:        gs.Step,
			Move:        gs.MoveName(),
			AsciiMap:    gs.AsciiMap,
			Description: desc,
		})
	}
	return sol
}

// offerReplay lets the user jump straight from batch results into a
// replay of one of the won levels.
func offerReplay(ctx context.Context, svc SolverService, levelSet string, report *game.BatchReport) {
	var won []game.LevelResult
	for _, lvl := range report.Levels {
		if lvl.Won && len(lvl.Moves()) > 0 {
			won = append(won, lvl)
		}
	}
	if len(won) == 0 {
		return
	}

	wantReplay := false
	if err := huh.NewConfirm().
		Title("Replay a solved level now?").
		Value(&wantReplay).
		Run(); err != nil || !wantReplay {
		return
	}

	opts := make([]huh.Option[int], 0, len(won))
	for i, lvl := range won {
		opts = append(opts, huh.NewOption(lvl.ID, i))
	}
	choice := 0
	if err := huh.NewSelect[int]().
		Title("Level").
		Options(opts...).
		Value(&choice).
		Run(); err != nil {
		return
	}

	replaySolvedLevel(ctx, svc, levelSet, won[choice])
}
