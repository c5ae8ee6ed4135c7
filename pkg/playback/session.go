// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package playback

import (
	"fmt"

	"github.com/AleutianAI/kekectl/pkg/game"
)

// =============================================================================
// Session
// =============================================================================

// Snapshot is one textual level state plus the move that produced it.
//
// # Description
//
// Snapshot 0 is the initial board and carries no move. Snapshots are
// immutable once built and never reordered.
type Snapshot struct {
	StepIndex int
	Move      *game.MoveToken
	RawText   string
	Won       bool
}

// Session is the ordered snapshot sequence for one level view.
//
// # Description
//
// All session state lives here, owned by the controller that built it.
// There is no module-level playback state: a controller holds at most
// one current Session, and replacing it is the cleanup point for the
// old one (timer cancelled, snapshots dropped).
//
// CurrentIndex is -1 until a step has been displayed, then stays in
// [0, MaxIndex()].
type Session struct {
	LevelID      string
	Snapshots    []Snapshot
	CurrentIndex int
	Playing      bool
}

// MaxIndex returns the last snapshot index (the move count), -1 for a
// session with no snapshots.
func (s *Session) MaxIndex() int {
	return len(s.Snapshots) - 1
}

// Snapshot returns the snapshot at index i, reporting false when i is
// out of range.
func (s *Session) Snapshot(i int) (Snapshot, bool) {
	if i < 0 || i >= len(s.Snapshots) {
		return Snapshot{}, false
	}
	return s.Snapshots[i], true
}

// newSession builds a Session from backend-generated states.
//
// The states arrive ordered; StepIndex is assigned positionally so a
// backend that misnumbers steps cannot desynchronize playback.
func newSession(levelID string, states []game.GameState) *Session {
	snaps := make([]Snapshot, 0, len(states))
	for i, st := range states {
		snaps = append(snaps, Snapshot{
			StepIndex: i,
			Move:      st.Move,
			RawText:   st.AsciiMap,
			Won:       st.Won,
		})
	}
	return &Session{
		LevelID:      levelID,
		Snapshots:    snaps,
		CurrentIndex: -1,
	}
}

// =============================================================================
// Controller State
// =============================================================================

// State is the controller's position in its lifecycle.
type State int

const (
	// StateIdle: no session loaded.
	StateIdle State = iota

	// StateReady: session built, nothing rendered yet. Transient; the
	// controller renders step 0 before returning from StartSession.
	StateReady

	// StateAtStep: a snapshot is rendered and the timer is stopped.
	StateAtStep

	// StatePlaying: the playback timer is advancing steps.
	StatePlaying

	// StateClosed: the view was closed and the session cleared. A new
	// StartSession leaves this state.
	StateClosed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateAtStep:
		return "at_step"
	case StatePlaying:
		return "playing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
