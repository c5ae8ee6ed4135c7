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

	"github.com/AleutianAI/kekectl/pkg/game"
	"github.com/AleutianAI/kekectl/pkg/playback"
	"github.com/AleutianAI/kekectl/pkg/ux"
)

func runReplay(cmd *cobra.Command, args []string) {
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

	levelSet, levelID, err := resolveReplayTarget(ctx, svc)
	if err != nil {
		fail("Could not resolve replay target: %v", err)
	}

	var details LevelDetails
	err = ux.WithSpinner(fmt.Sprintf("Fetching level %s/%s", levelSet, levelID), func() error {
		var err error
		details, err = svc.LevelDetails(ctx, levelSet, levelID)
		return err
	})
	if err != nil {
		fail("Could not fetch level details: %v", err)
	}
	if details.AsciiMap == "" {
		fail("Level %s carries no map text; nothing to replay", levelID)
	}

	moves := details.Moves()
	if len(moves) == 0 {
		ux.Warning("The stored solution is empty; showing the initial board only")
	}

	if replayAuto || !ux.IsInteractive() {
		runAutoReplay(ctx, svc, levelID, details.AsciiMap, moves)
		return
	}
	runPlaybackTUI(ctx, svc, levelID, details.AsciiMap, moves)
}

// resolveReplayTarget settles which level to replay. Flags win; a
// missing level set brings up the catalog picker when the terminal
// allows it, and the level id falls back to a text prompt.
func resolveReplayTarget(ctx context.Context, svc SolverService) (levelSet, levelID string, err error) {
	levelSet = replayLevelSet
	levelID = replayLevelID
	if levelSet != "" && levelID != "" {
		return
	}
	if !ux.IsInteractive() {
		err = fmt.Errorf("--level-set and --level are required outside a terminal")
		return
	}

	if levelSet == "" {
		var sets []CatalogEntry
		if err = ux.WithSpinner("Fetching level sets", func() error {
			var err error
			sets, err = svc.LevelSets(ctx)
			return err
		}); err != nil {
			err = fmt.Errorf("fetch level sets: %w", err)
			return
		}
		if len(sets) == 0 {
			err = fmt.Errorf("the backend offered no level sets")
			return
		}
		if err = huh.NewSelect[string]().
			Title("Level set").
			Options(catalogOptions(sets)...).
			Value(&levelSet).
			Run(); err != nil {
			return
		}
	}

	if levelID == "" {
		if err = huh.NewInput().
			Title("Level id").
			Value(&levelID).
			Run(); err != nil {
			return
		}
	}
	if levelID == "" {
		err = fmt.Errorf("a level id is required")
	}
	return
}

// replaySolvedLevel replays one level straight out of a batch report.
// A result without embedded map text triggers the secondary details
// fetch; its failure surfaces an error and returns to the prompt
// instead of leaving a half-loaded view.
func replaySolvedLevel(ctx context.Context, svc SolverService, levelSet string, lvl game.LevelResult) {
	asciiMap := lvl.AsciiMap
	moves := lvl.Moves()

	if asciiMap == "" {
		var details LevelDetails
		err := ux.WithSpinner("Fetching level details", func() error {
			var err error
			details, err = svc.LevelDetails(ctx, levelSet, lvl.ID)
			return err
		})
		if err != nil {
			ux.Error(fmt.Sprintf("Could not fetch details for %s: %v", lvl.ID, err))
			return
		}
		asciiMap = details.AsciiMap
		if len(moves) == 0 {
			moves = details.Moves()
		}
	}
	if asciiMap == "" {
		ux.Error(fmt.Sprintf("Level %s carries no map text; cannot replay", lvl.ID))
		return
	}

	if !ux.IsInteractive() {
		runAutoReplay(ctx, svc, lvl.ID, asciiMap, moves)
		return
	}
	runPlaybackTUI(ctx, svc, lvl.ID, asciiMap, moves)
}

// runAutoReplay plays a solution to the end without keyboard control,
// printing every committed frame. Meant for machine pipelines and
// terminals without raw mode; the frame cadence follows the configured
// step interval.
func runAutoReplay(ctx context.Context, svc SolverService, levelID, asciiMap string, moves []game.MoveToken) {
	sink := playback.NewBufferSink()
	ctrl, err := playback.New(playback.Config{
		Generator: svc,
		Sink:      sink,
		Surface:   ux.NewSurface(),
		Logger:    appLogger,
		Interval:  stepInterval(),
	})
	if err != nil {
		fail("Could not build the playback controller: %v", err)
	}
	defer ctrl.CloseSession()

	if err := ctrl.StartSession(ctx, levelID, asciiMap, moves); err != nil {
		ux.Warning(fmt.Sprintf("No playable solution for %s: %v", levelID, err))
		fmt.Println(ctrl.Surface().Frame())
		return
	}

	max := ctrl.MaxIndex()
	fmt.Printf("step 0/%d\n%s\n", max, ctrl.Surface().Frame())

	interval := stepInterval()
	for i := 1; i <= max; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
		if err := ctrl.DisplayStep(i); err != nil {
			ux.Error(fmt.Sprintf("Step %d failed: %v", i, err))
			return
		}
		fmt.Printf("\nstep %d/%d\n%s\n", i, max, ctrl.Surface().Frame())
	}

	if max > 0 {
		ux.Success(fmt.Sprintf("Replayed %d step(s) of %s", max, levelID))
	}
}
