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
	"time"

	"github.com/AleutianAI/kekectl/cmd/kekectl/config"
	"github.com/AleutianAI/kekectl/pkg/logging"
	"github.com/AleutianAI/kekectl/pkg/store"
	"github.com/AleutianAI/kekectl/pkg/ux"
)

// appLogger is the process-wide logger, installed by initLogging from
// PersistentPreRun before any command body runs.
var appLogger = logging.Default()

// initLogging builds the logger from flags and config. Flags win.
func initLogging() {
	level := logLevel
	if level == "" {
		level = config.Global.Output.LogLevel
	}
	dir := logDir
	if dir == "" {
		dir = config.Global.Output.LogDir
	}

	appLogger = logging.New(logging.Config{
		Level:   logging.ParseLevel(level),
		LogDir:  dir,
		Service: "kekectl",
	})
}

// getServerBaseURL resolves the backend URL.
//
// Priority: --server flag, then KEKECTL_SERVER_URL (used by tests and
// container overrides), then the config file, then the stock default.
func getServerBaseURL() string {
	if serverURL != "" {
		return serverURL
	}
	if url := os.Getenv("KEKECTL_SERVER_URL"); url != "" {
		return url
	}
	if config.Global.Server.BaseURL != "" {
		return config.Global.Server.BaseURL
	}
	return "http://localhost:8080"
}

// newSolverService builds the service every networked command uses.
func newSolverService() SolverService {
	return NewSolverService(SolverServiceConfig{
		BaseURL: getServerBaseURL(),
		Timeout: time.Duration(config.Global.Server.TimeoutSeconds) * time.Second,
		Logger:  appLogger,
	})
}

// openLocalStore opens the badger fallback store at the configured
// directory.
func openLocalStore() (store.SolutionStore, error) {
	dir := config.ExpandDir(config.Global.Storage.Dir)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve store directory: %w", err)
		}
		dir = home + "/.kekectl/solutions"
	}

	cfg := store.DefaultConfig(dir)
	cfg.Logger = appLogger
	return store.Open(cfg)
}

// stepInterval resolves the playback tick: flag beats config.
func stepInterval() time.Duration {
	if replayInterval > 0 {
		return replayInterval
	}
	return config.Global.StepInterval()
}

// fail prints an error line and exits non-zero.
func fail(format string, args ...any) {
	ux.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
