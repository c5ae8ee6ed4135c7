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
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/kekectl/cmd/kekectl/config"
	"github.com/AleutianAI/kekectl/pkg/ux"
)

// --- Global Command Variables ---
var (
	serverURL   string // CLI override for server.base_url
	outputStyle string // UX personality level (full/standard/minimal/machine)
	logLevel    string // CLI override for output.log_level
	logDir      string // CLI override for output.log_dir

	solveAgent      string
	solveLevelSet   string
	solveIterations int
	solveNoCache    bool
	solveSave       bool

	replayLevelSet string
	replayLevelID  string
	replayAuto     bool
	replayInterval time.Duration

	previewWatch bool

	leaderboardLevelSet string
	levelsSet           string

	savedOut  string
	savedPush bool

	rootCmd = &cobra.Command{
		Use:   "kekectl",
		Short: "A cli to drive the KEKE puzzle-solver backend",
		Long: `kekectl submits batch solves to a KEKE solver backend, follows
				their progress live, and replays finished solutions as
				step-by-step board animations in your terminal.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Config before anything that reads it
			if err := config.Load(); err != nil {
				log.Fatalf("Error loading config: %v", err)
			}

			// UX personality: flag beats environment beats config file
			switch {
			case outputStyle != "":
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(outputStyle))
			case os.Getenv("KEKECTL_PERSONALITY") != "":
				ux.InitPersonality()
			case config.Global.Output.Personality != "":
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(config.Global.Output.Personality))
			default:
				ux.InitPersonality()
			}

			initLogging()
		},
	}

	// --- Solving ---
	solveCmd = &cobra.Command{
		Use:   "solve",
		Short: "Submit a batch solve and follow its progress live",
		Run:   runSolve, // Defined in cmd_solve.go
	}

	// --- Replay ---
	replayCmd = &cobra.Command{
		Use:   "replay",
		Short: "Replay a level's stored solution as a board animation",
		Run:   runReplay, // Defined in cmd_replay.go
	}

	// --- Preview ---
	previewCmd = &cobra.Command{
		Use:   "preview [level file]",
		Short: "Render a local level file without contacting the backend",
		Args:  cobra.ExactArgs(1),
		Run:   runPreview, // Defined in cmd_preview.go
	}

	// --- Leaderboard / Catalogs ---
	leaderboardCmd = &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the cross-agent results table",
		Run:   runLeaderboard, // Defined in cmd_leaderboard.go
	}
	agentsCmd = &cobra.Command{
		Use:   "agents",
		Short: "List the solver agents the backend offers",
		Run:   runAgents, // Defined in cmd_catalog.go
	}
	levelsCmd = &cobra.Command{
		Use:   "levels",
		Short: "List the level sets the backend offers",
		Run:   runLevels, // Defined in cmd_catalog.go
	}

	// --- Solution Cache ---
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Manage the backend's solution cache",
	}
	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show solution cache statistics",
		Run:   runCacheStats, // Defined in cmd_cache.go
	}
	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Clear every cached solution on the backend",
		Run:   runCacheClear, // Defined in cmd_cache.go
	}

	// --- Local Saved Solutions ---
	savedCmd = &cobra.Command{
		Use:   "saved",
		Short: "Manage solutions kept in the local fallback store",
	}
	savedListCmd = &cobra.Command{
		Use:   "list [level_id]",
		Short: "List locally stored solutions, newest first",
		Run:   runSavedList, // Defined in cmd_saved.go
	}
	savedExportCmd = &cobra.Command{
		Use:   "export [level_id]",
		Short: "Export the newest local solution for a level",
		Args:  cobra.ExactArgs(1),
		Run:   runSavedExport, // Defined in cmd_saved.go
	}
	savedFlushCmd = &cobra.Command{
		Use:   "flush",
		Short: "Drop every locally stored solution",
		Run:   runSavedFlush, // Defined in cmd_saved.go
	}
)

// init runs when the Go program starts
func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"Solver backend base URL (overrides config and KEKECTL_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&outputStyle, "output", "",
		"Output style: full (default, rich arcade), standard, minimal, or machine (scripting)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"Directory for log files (empty disables file logging)")

	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringVarP(&solveAgent, "agent", "a", "", "Solver agent to run (picker or config default when omitted)")
	solveCmd.Flags().StringVarP(&solveLevelSet, "level-set", "s", "", "Level set to solve (picker or config default when omitted)")
	solveCmd.Flags().IntVarP(&solveIterations, "iterations", "i", 0, "Solver iteration budget (config default when 0)")
	solveCmd.Flags().BoolVar(&solveNoCache, "no-cache", false, "Force fresh solves, ignoring the backend's solution cache")
	solveCmd.Flags().BoolVar(&solveSave, "save", false, "Save each won level's solution to the server (local store on failure)")

	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replayLevelSet, "level-set", "s", "", "Level set the level belongs to")
	replayCmd.Flags().StringVarP(&replayLevelID, "level", "l", "", "Level id to replay")
	replayCmd.Flags().BoolVar(&replayAuto, "auto", false, "Run to the end without keyboard control, printing each frame")
	replayCmd.Flags().DurationVar(&replayInterval, "interval", 0, "Time between playback steps (config default when 0)")

	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().BoolVarP(&previewWatch, "watch", "w", false, "Re-render whenever the file changes")

	rootCmd.AddCommand(leaderboardCmd)
	leaderboardCmd.Flags().StringVarP(&leaderboardLevelSet, "level-set", "s", "", "Only show rows for this level set")

	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(levelsCmd)
	levelsCmd.Flags().StringVar(&levelsSet, "set", "", "Only show this level set")

	// cache commands
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	// local store commands
	rootCmd.AddCommand(savedCmd)
	savedCmd.AddCommand(savedListCmd)
	savedCmd.AddCommand(savedExportCmd)
	savedExportCmd.Flags().StringVarP(&savedOut, "out", "o", "", "Write the record to a file instead of stdout")
	savedExportCmd.Flags().BoolVar(&savedPush, "push", false, "Re-post the record to the server's save endpoint")
	savedCmd.AddCommand(savedFlushCmd)
}
