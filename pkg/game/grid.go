// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package game

import "strings"

// Grid is a rectangular-ish field of tile symbols, one rune per cell.
// Rows keep their literal lengths; a ragged grid is a data-quality
// signal, not an error.
type Grid [][]rune

// Decode turns a textual level snapshot into a Grid.
//
// The text is trimmed of leading/trailing whitespace, split on line
// boundaries, and each line becomes one row of single-rune symbols.
// Decode is pure and total: the same input always yields the same
// output, ragged input never fails, and no I/O happens here. Callers
// that care about raggedness check Ragged() and log it themselves.
func Decode(text string) Grid {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Grid{}
	}

	lines := strings.Split(strings.ReplaceAll(trimmed, "\r\n", "\n"), "\n")
	grid := make(Grid, 0, len(lines))
	for _, line := range lines {
		grid = append(grid, []rune(line))
	}
	return grid
}

// Rows returns the number of rows.
func (g Grid) Rows() int {
	return len(g)
}

// Cols returns the widest row's length. Shorter rows render padded with
// the empty symbol.
func (g Grid) Cols() int {
	max := 0
	for _, row := range g {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// Ragged reports whether any row is narrower than the widest one.
func (g Grid) Ragged() bool {
	if len(g) == 0 {
		return false
	}
	want := len(g[0])
	for _, row := range g[1:] {
		if len(row) != want {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the grid has no cells at all.
func (g Grid) IsEmpty() bool {
	for _, row := range g {
		if len(row) > 0 {
			return false
		}
	}
	return true
}

// Cell returns the symbol at (row, col) and whether the position exists.
// Positions past a short row's end do not exist.
func (g Grid) Cell(row, col int) (rune, bool) {
	if row < 0 || row >= len(g) {
		return 0, false
	}
	if col < 0 || col >= len(g[row]) {
		return 0, false
	}
	return g[row][col], true
}

// Symbols returns the distinct symbols appearing in the grid, in
// first-appearance order. The renderer uses this to warm the sprite
// cache before drawing.
func (g Grid) Symbols() []rune {
	seen := make(map[rune]bool)
	var out []rune
	for _, row := range g {
		for _, r := range row {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	return out
}
