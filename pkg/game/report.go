// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package game

// =============================================================================
// Batch Report
// =============================================================================

// LevelResult is one level's outcome inside a batch report.
//
// The backend sets Status to "solved", "failed", "unsolved", or "error";
// Won is the authoritative flag. RawSolution keeps the solver's loose
// solution value for later normalization (see NormalizeSolution).
type LevelResult struct {
	ID             string  `json:"id"`
	Status         string  `json:"status"`
	Won            bool    `json:"won_level"`
	Time           float64 `json:"time"`
	Iterations     float64 `json:"iterations"`
	SolutionLength int     `json:"solution_length"`
	Efficiency     float64 `json:"efficiency_score"`
	Error          string  `json:"error,omitempty"`
	AsciiMap       string  `json:"ascii_map,omitempty"`
	RawSolution    any     `json:"solution,omitempty"`
}

// Moves normalizes the level's raw solution value into move tokens.
func (r LevelResult) Moves() []MoveToken {
	moves, _ := NormalizeSolution(r.RawSolution)
	return moves
}

// Summary is the aggregate block of a batch report. Accuracy is a
// fraction in [0, 1]; presentation code scales it to a percentage.
type Summary struct {
	TotalLevels       int     `json:"total_levels"`
	SolvedLevels      int     `json:"solved_levels"`
	Accuracy          float64 `json:"accuracy"`
	AvgTime           float64 `json:"average_time"`
	AvgIterations     float64 `json:"average_iterations"`
	AvgEfficiency     float64 `json:"average_efficiency"`
	AvgSolutionLength float64 `json:"average_solution_length"`
}

// BatchReport is the rolling report carried inside progress events and
// returned as the final result of a batch solve.
type BatchReport struct {
	Agent     string        `json:"agent"`
	LevelSet  string        `json:"level_set"`
	Levels    []LevelResult `json:"levels"`
	Summary   *Summary      `json:"summary,omitempty"`
	FromCache bool          `json:"from_cache"`
}

// EffectiveSummary returns the backend's summary when it carries data,
// otherwise folds one from the level list. Cached reports sometimes
// ship an empty summary object; that counts as absent.
func (r *BatchReport) EffectiveSummary() Summary {
	if r.Summary != nil && r.Summary.TotalLevels > 0 {
		return *r.Summary
	}
	return FoldSummary(r.Levels)
}

// FoldSummary derives display metrics from a level list.
//
// Solved counts levels with the won flag. The time, iteration, and
// efficiency averages run over won levels only, and every average is 0
// when its denominator is 0. This is intentionally display math, not a
// recomputation of solver scoring.
func FoldSummary(levels []LevelResult) Summary {
	s := Summary{TotalLevels: len(levels)}

	var timeSum, iterSum, effSum, lenSum float64
	for _, lvl := range levels {
		if !lvl.Won {
			continue
		}
		s.SolvedLevels++
		timeSum += lvl.Time
		iterSum += lvl.Iterations
		effSum += lvl.Efficiency
		lenSum += float64(lvl.SolutionLength)
	}

	if s.TotalLevels > 0 {
		s.Accuracy = float64(s.SolvedLevels) / float64(s.TotalLevels)
	}
	if s.SolvedLevels > 0 {
		n := float64(s.SolvedLevels)
		s.AvgTime = timeSum / n
		s.AvgIterations = iterSum / n
		s.AvgEfficiency = effSum / n
		s.AvgSolutionLength = lenSum / n
	}
	return s
}
