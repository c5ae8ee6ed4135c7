// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import "time"

// KekeConfig is the on-disk configuration for the kekectl CLI.
type KekeConfig struct {
	// Server: where the KEKE solver backend lives
	Server ServerConfig `yaml:"server"`

	// Solve: defaults for batch solve submissions
	Solve SolveConfig `yaml:"solve"`

	// Playback: defaults for solution replay
	Playback PlaybackConfig `yaml:"playback"`

	// Storage: local fallback store for solutions the server refused
	Storage StorageConfig `yaml:"storage"`

	// Output: terminal presentation defaults
	Output OutputConfig `yaml:"output"`
}

type ServerConfig struct {
	BaseURL string `yaml:"base_url"` // e.g. http://localhost:8080
	// TimeoutSeconds bounds catalog/state-generation requests.
	// 0 means no client-side timeout (streams are never bounded).
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type SolveConfig struct {
	Agent      string `yaml:"agent"`       // e.g. "default" or "BFS"
	LevelSet   string `yaml:"level_set"`   // e.g. "demo_LEVELS"
	Iterations int    `yaml:"iterations"`  // solver iteration budget
	UseCache   bool   `yaml:"use_cache"`   // let the backend reuse cached solutions
	SaveToDisk bool   `yaml:"save_solves"` // post won solutions back via save_solution
}

type PlaybackConfig struct {
	IntervalMS int `yaml:"interval_ms"` // milliseconds between steps, default 300
}

type StorageConfig struct {
	Dir string `yaml:"dir"` // badger directory, e.g. ~/.kekectl/solutions
}

type OutputConfig struct {
	Personality string `yaml:"personality"` // full | standard | minimal | machine
	LogLevel    string `yaml:"log_level"`   // debug | info | warn | error
	LogDir      string `yaml:"log_dir"`     // empty disables file logging
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() KekeConfig {
	return KekeConfig{
		Server: ServerConfig{
			BaseURL:        "http://localhost:8080",
			TimeoutSeconds: 0,
		},
		Solve: SolveConfig{
			Agent:      "default",
			LevelSet:   "demo_LEVELS",
			Iterations: 10000,
			UseCache:   true,
			SaveToDisk: false,
		},
		Playback: PlaybackConfig{
			IntervalMS: 300,
		},
		Storage: StorageConfig{
			Dir: "~/.kekectl/solutions",
		},
		Output: OutputConfig{
			Personality: "full",
			LogLevel:    "info",
			LogDir:      "",
		},
	}
}

// StepInterval returns the configured playback interval as a duration,
// falling back to 300ms for zero or negative values.
func (c KekeConfig) StepInterval() time.Duration {
	if c.Playback.IntervalMS <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.Playback.IntervalMS) * time.Millisecond
}
