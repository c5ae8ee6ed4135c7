// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package game

// GameState is one backend-generated step of a solution replay: the
// board after applying Move to the previous state. Move is nil only for
// step 0 (the initial board). States are immutable once received.
type GameState struct {
	Step     int
	Move     *MoveToken
	AsciiMap string
	Won      bool
}

// HasMove reports whether this state was produced by a move (false for
// the initial state).
func (s GameState) HasMove() bool {
	return s.Move != nil
}

// MoveName returns the display name of the producing move, or "start"
// for the initial state.
func (s GameState) MoveName() string {
	if s.Move == nil {
		return "start"
	}
	return s.Move.Name()
}
