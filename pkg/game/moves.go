// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package game holds the KEKE puzzle domain: move tokens, level grids,
// the symbol legend, and per-step game states.
//
// Everything in this package is pure. No I/O, no goroutines, no globals
// beyond the built-in legend table. Wire handling and presentation live
// in the service and ux layers respectively.
package game

import (
	"fmt"
	"strings"
)

// =============================================================================
// Move Tokens
// =============================================================================

// MoveToken is one atomic solver command. The solver emits these and the
// playback controller replays them. Only the six canonical tokens are
// valid; everything else is rejected at the API boundary.
type MoveToken string

const (
	MoveLeft  MoveToken = "l"
	MoveRight MoveToken = "r"
	MoveUp    MoveToken = "u"
	MoveDown  MoveToken = "d"
	MoveWait  MoveToken = "s"
	MoveUndo  MoveToken = "x"
)

// startMarker is the pseudo-move the backend attaches to state 0.
// It never appears inside a solution; boundary code maps it to nil.
const startMarker = "start"

// Valid reports whether the token is one of the six canonical moves.
func (m MoveToken) Valid() bool {
	switch m {
	case MoveLeft, MoveRight, MoveUp, MoveDown, MoveWait, MoveUndo:
		return true
	}
	return false
}

// Name returns the human-readable name of the move, or "unknown".
func (m MoveToken) Name() string {
	switch m {
	case MoveLeft:
		return "left"
	case MoveRight:
		return "right"
	case MoveUp:
		return "up"
	case MoveDown:
		return "down"
	case MoveWait:
		return "wait"
	case MoveUndo:
		return "undo"
	default:
		return "unknown"
	}
}

// ParseMove converts a wire string into a MoveToken.
//
// Accepts the single-letter form the solver uses ("l", "r", "u", "d",
// "s", "x") and the spelled-out names, case-insensitively. The "start"
// marker is not a move and is rejected here; callers that consume
// backend states handle it separately.
func ParseMove(s string) (MoveToken, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l", "left":
		return MoveLeft, nil
	case "r", "right":
		return MoveRight, nil
	case "u", "up":
		return MoveUp, nil
	case "d", "down":
		return MoveDown, nil
	case "s", "wait", "space":
		return MoveWait, nil
	case "x", "undo":
		return MoveUndo, nil
	default:
		return "", fmt.Errorf("unrecognized move token %q", s)
	}
}

// IsStartMarker reports whether a wire move string is the backend's
// synthetic marker for the initial state.
func IsStartMarker(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), startMarker)
}

// =============================================================================
// Solution Normalization
// =============================================================================

// NormalizeSolution coerces whatever shape a "solution" arrived in into
// a clean []MoveToken, exactly once, at the API boundary.
//
// The backend and its level files are loose about this field: it may be
// a JSON array of token strings, a bare string of token characters
// ("rrud"), null, or garbage. The rules:
//
//   - nil            -> empty sequence
//   - string         -> one token per character, unparseable characters dropped
//   - []any / [] str -> one token per element, unparseable elements dropped
//   - anything else  -> empty sequence
//
// The second return value counts inputs that were dropped, so callers
// can log the data-quality signal without this package doing I/O.
func NormalizeSolution(v any) ([]MoveToken, int) {
	switch val := v.(type) {
	case nil:
		return []MoveToken{}, 0
	case string:
		return normalizeString(val)
	case []string:
		return normalizeSlice(val)
	case []any:
		parts := make([]string, 0, len(val))
		dropped := 0
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				dropped++
				continue
			}
			parts = append(parts, s)
		}
		moves, d := normalizeSlice(parts)
		return moves, dropped + d
	case []MoveToken:
		moves := make([]MoveToken, 0, len(val))
		dropped := 0
		for _, m := range val {
			if !m.Valid() {
				dropped++
				continue
			}
			moves = append(moves, m)
		}
		return moves, dropped
	default:
		return []MoveToken{}, 1
	}
}

func normalizeString(s string) ([]MoveToken, int) {
	s = strings.TrimSpace(s)
	moves := make([]MoveToken, 0, len(s))
	dropped := 0
	for _, r := range s {
		if r == ' ' || r == ',' {
			continue
		}
		m, err := ParseMove(string(r))
		if err != nil {
			dropped++
			continue
		}
		moves = append(moves, m)
	}
	return moves, dropped
}

func normalizeSlice(parts []string) ([]MoveToken, int) {
	moves := make([]MoveToken, 0, len(parts))
	dropped := 0
	for _, p := range parts {
		m, err := ParseMove(p)
		if err != nil {
			dropped++
			continue
		}
		moves = append(moves, m)
	}
	return moves, dropped
}

// MovesToStrings renders tokens back to their wire form.
func MovesToStrings(moves []MoveToken) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = string(m)
	}
	return out
}
