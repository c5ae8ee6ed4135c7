// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseMove verifies letter and spelled-out forms parse to the same
// tokens, case-insensitively.
func TestParseMove(t *testing.T) {
	cases := []struct {
		in   string
		want MoveToken
	}{
		{"l", MoveLeft},
		{"R", MoveRight},
		{"up", MoveUp},
		{"DOWN", MoveDown},
		{"space", MoveWait},
		{" x ", MoveUndo},
		{"undo", MoveUndo},
	}
	for _, tc := range cases {
		got, err := ParseMove(tc.in)
		require.NoError(t, err, "ParseMove(%q)", tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseMove("q")
	assert.Error(t, err)
	_, err = ParseMove("")
	assert.Error(t, err)
}

// TestMoveToken_Name verifies display names for every valid token.
func TestMoveToken_Name(t *testing.T) {
	assert.Equal(t, "left", MoveLeft.Name())
	assert.Equal(t, "right", MoveRight.Name())
	assert.Equal(t, "up", MoveUp.Name())
	assert.Equal(t, "down", MoveDown.Name())
	assert.Equal(t, "space", MoveWait.Name())
	assert.Equal(t, "undo", MoveUndo.Name())
	assert.True(t, MoveLeft.Valid())
	assert.False(t, MoveToken("q").Valid())
}

// TestNormalizeSolution_String verifies compact letter strings split
// into one token per letter, skipping separators.
func TestNormalizeSolution_String(t *testing.T) {
	moves, dropped := NormalizeSolution("rrud")
	assert.Equal(t, []MoveToken{MoveRight, MoveRight, MoveUp, MoveDown}, moves)
	assert.Zero(t, dropped)

	moves, dropped = NormalizeSolution("r, l u")
	assert.Equal(t, []MoveToken{MoveRight, MoveLeft, MoveUp}, moves)
	assert.Zero(t, dropped)
}

// TestNormalizeSolution_StringGarbage verifies unknown letters are
// dropped and counted rather than failing the whole solution.
func TestNormalizeSolution_StringGarbage(t *testing.T) {
	moves, dropped := NormalizeSolution("rqu")
	assert.Equal(t, []MoveToken{MoveRight, MoveUp}, moves)
	assert.Equal(t, 1, dropped)
}

// TestNormalizeSolution_Lists verifies list-shaped payloads from the
// wire normalize element-wise.
func TestNormalizeSolution_Lists(t *testing.T) {
	moves, dropped := NormalizeSolution([]string{"right", "up", "left"})
	assert.Equal(t, []MoveToken{MoveRight, MoveUp, MoveLeft}, moves)
	assert.Zero(t, dropped)

	// JSON decoding hands us []any with mixed content
	moves, dropped = NormalizeSolution([]any{"r", "u", 42, "bogus", "d"})
	assert.Equal(t, []MoveToken{MoveRight, MoveUp, MoveDown}, moves)
	assert.Equal(t, 2, dropped)
}

// TestNormalizeSolution_Nil verifies the failed-level shape, where the
// solver reports solution null, yields an empty move list.
func TestNormalizeSolution_Nil(t *testing.T) {
	moves, dropped := NormalizeSolution(nil)
	assert.Empty(t, moves)
	assert.Zero(t, dropped)
}

// TestNormalizeSolution_Passthrough verifies already-typed slices pass
// through with invalid entries filtered.
func TestNormalizeSolution_Passthrough(t *testing.T) {
	in := []MoveToken{MoveRight, MoveToken("bogus"), MoveDown}
	moves, dropped := NormalizeSolution(in)
	assert.Equal(t, []MoveToken{MoveRight, MoveDown}, moves)
	assert.Equal(t, 1, dropped)
}

// TestNormalizeSolution_UnknownShape verifies non-solution payloads
// normalize to empty with a single drop recorded.
func TestNormalizeSolution_UnknownShape(t *testing.T) {
	moves, dropped := NormalizeSolution(3.14)
	assert.Empty(t, moves)
	assert.Equal(t, 1, dropped)
}

// TestIsStartMarker verifies the synthetic initial-state marker is
// recognized but never treated as a move.
func TestIsStartMarker(t *testing.T) {
	assert.True(t, IsStartMarker("start"))
	assert.True(t, IsStartMarker(" START "))
	assert.False(t, IsStartMarker("left"))
	_, err := ParseMove("start")
	assert.Error(t, err)
}

// TestMovesToStrings verifies the wire representation round-trip.
func TestMovesToStrings(t *testing.T) {
	in := []MoveToken{MoveRight, MoveUp}
	assert.Equal(t, []string{"r", "u"}, MovesToStrings(in))
	assert.Empty(t, MovesToStrings(nil))
}
