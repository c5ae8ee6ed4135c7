// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package playback drives step-by-step replay of a solved level.
//
// A Controller owns at most one Session (the ordered snapshots of a
// solution) and a fixed-period timer that advances through them. Every
// rendered step runs to completion on the controller's Surface before
// listeners are notified, so a step is never reported displayed while
// its tiles are still being drawn.
package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AleutianAI/kekectl/pkg/game"
	"github.com/AleutianAI/kekectl/pkg/logging"
	"github.com/AleutianAI/kekectl/pkg/ux"
)

// DefaultInterval is the pause between automatic playback steps.
const DefaultInterval = 300 * time.Millisecond

// =============================================================================
// State Generation
// =============================================================================

// StateGenerator produces the full snapshot sequence for one solution.
//
// # Description
//
// Implemented by the solver backend client. Given a level's initial
// map text and a normalized move sequence, it returns every board
// state from the initial one (index 0, no move) through the final one.
//
// # Thread Safety
//
// May be called concurrently; each StartSession issues one call with
// its own session-scoped context, cancelled when the session is
// superseded or closed.
type StateGenerator interface {
	GenerateStates(ctx context.Context, asciiMap string, moves []game.MoveToken) ([]game.GameState, error)
}

// =============================================================================
// Controller
// =============================================================================

// Config holds controller dependencies and settings.
//
// # Fields
//
//   - Generator: backend client for state generation. Required.
//   - Sink: receiver for controller events. Default: NopSink.
//   - Board: renderer for level grids. Default: built-in glyph art.
//   - Surface: render target shared with the view layer. Default: new.
//   - Logger: diagnostics. Default: logging.Default().
//   - Interval: timer period. Default: DefaultInterval (300ms).
type Config struct {
	Generator StateGenerator
	Sink      EventSink
	Board     *ux.BoardRenderer
	Surface   *ux.Surface
	Logger    *logging.Logger
	Interval  time.Duration
}

// Controller is the playback state machine for one level view.
//
// # Description
//
// Lifecycle: Idle until StartSession succeeds, then AtStep with step 0
// rendered. TogglePlayback flips between AtStep and Playing; the timer
// cancels itself past the last snapshot. CloseSession moves to Closed
// and releases everything; a later StartSession reopens the view.
//
// Starting a new session is the cleanup point for the previous one:
// the timer is cancelled and the old Session dropped before the new
// generation request is issued. There is no background reaper.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Event sink calls are made
// outside the controller lock, after the triggering render completed.
type Controller struct {
	generator StateGenerator
	sink      EventSink
	board     *ux.BoardRenderer
	surface   *ux.Surface
	logger    *logging.Logger
	interval  time.Duration

	mu            sync.Mutex
	state         State
	session       *Session
	epoch         uint64
	sessionCancel context.CancelFunc
	timerDone     chan struct{}
	lastRaw       string
	hasFrame      bool
}

// New creates a playback controller.
//
// # Inputs
//
//   - cfg: dependencies and settings; zero fields get defaults.
//
// # Outputs
//
//   - *Controller: in state Idle.
//   - error: non-nil when cfg.Generator is nil.
func New(cfg Config) (*Controller, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("playback: generator is required")
	}
	if cfg.Sink == nil {
		cfg.Sink = NopSink{}
	}
	if cfg.Board == nil {
		cfg.Board = ux.NewBoardRenderer(ux.BoardConfig{})
	}
	if cfg.Surface == nil {
		cfg.Surface = ux.NewSurface()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Controller{
		generator: cfg.Generator,
		sink:      cfg.Sink,
		board:     cfg.Board,
		surface:   cfg.Surface,
		logger:    cfg.Logger,
		interval:  cfg.Interval,
		state:     StateIdle,
	}, nil
}

// StartSession loads a level's solution for playback.
//
// # Description
//
// Cancels any running timer, discards the previous Session, then asks
// the backend to expand the solution into per-step board states. On
// success it renders step 0 and emits SolutionReady (or NoSolution for
// a zero-move solution) followed by StepChanged{0}. On failure it
// renders the raw map as a fallback, emits NoSolution, and returns the
// generation error.
//
// Each call bumps a session epoch. A generation response that arrives
// after a newer StartSession replaced its epoch is discarded without
// touching the current Session; the superseded call returns
// ErrSessionSuperseded.
//
// # Inputs
//
//   - ctx: bounds the generation request; also cancelled when this
//     session is superseded or closed.
//   - levelID: identifier carried on every event for this session.
//   - asciiMap: the level's initial board text.
//   - moves: normalized solution tokens; empty means nothing to play.
func (c *Controller) StartSession(ctx context.Context, levelID, asciiMap string, moves []game.MoveToken) error {
	c.mu.Lock()
	c.stopTimerLocked()
	c.session = nil
	if c.sessionCancel != nil {
		c.sessionCancel()
	}
	c.epoch++
	epoch := c.epoch
	sctx, cancel := context.WithCancel(ctx)
	c.sessionCancel = cancel
	c.state = StateIdle
	c.mu.Unlock()

	c.logger.Debug("starting playback session", "level", levelID, "moves", len(moves))

	states, err := c.generator.GenerateStates(sctx, asciiMap, moves)
	if err == nil && len(states) == 0 {
		err = ErrNoStates
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded state generation", "level", levelID)
		return ErrSessionSuperseded
	}

	if err != nil {
		// Fall back to the raw board with nothing to play
		c.presentLocked(asciiMap)
		c.state = StateIdle
		c.mu.Unlock()
		c.logger.Warn("state generation failed, rendering raw map",
			"level", levelID,
			"error", err,
		)
		c.sink.OnNoSolution(NoSolution{LevelID: levelID, Reason: err.Error()})
		return err
	}

	sess := newSession(levelID, states)
	n := sess.MaxIndex()
	c.session = sess
	c.state = StateReady
	c.presentLocked(sess.Snapshots[0].RawText)
	sess.CurrentIndex = 0
	c.state = StateAtStep
	c.mu.Unlock()

	c.logger.Info("playback session ready", "level", levelID, "steps", n)
	if n > 0 {
		c.sink.OnSolutionReady(SolutionReady{LevelID: levelID, Total: n})
	} else {
		c.sink.OnNoSolution(NoSolution{LevelID: levelID})
	}
	c.sink.OnStepChanged(StepChanged{LevelID: levelID, Index: 0, Total: n})
	return nil
}

// DisplayStep renders snapshot i of the current session.
//
// # Description
//
// Valid only for i in [0, MaxIndex]. Out-of-range indexes are rejected
// as a logged no-op, never clamped: silently mapping a bad index to a
// nearby step would hide caller bugs. On success the render completes,
// CurrentIndex moves to i, and StepChanged{i} is emitted.
func (c *Controller) DisplayStep(i int) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		c.logger.Warn("display step with no session", "index", i)
		return ErrNoSession
	}
	snap, ok := c.session.Snapshot(i)
	if !ok {
		max := c.session.MaxIndex()
		c.mu.Unlock()
		c.logger.Warn("step index out of range", "index", i, "max", max)
		return fmt.Errorf("%w: %d not in [0, %d]", ErrStepOutOfRange, i, max)
	}
	c.presentLocked(snap.RawText)
	c.session.CurrentIndex = i
	if !c.session.Playing {
		c.state = StateAtStep
	}
	levelID := c.session.LevelID
	n := c.session.MaxIndex()
	c.mu.Unlock()

	c.sink.OnStepChanged(StepChanged{LevelID: levelID, Index: i, Total: n})
	return nil
}

// TogglePlayback flips the playback timer.
//
// # Description
//
// With the timer running: cancel it and report false ("now paused").
// With no session, or a session with zero moves, nothing happens and
// the report is false. Otherwise start the timer and report true ("now
// playing"); a session already at or past its last step restarts from
// the beginning rather than refusing.
//
// Two consecutive calls with no intervening tick restore the original
// state with no leaked timer goroutine.
func (c *Controller) TogglePlayback() bool {
	c.mu.Lock()
	if c.timerDone != nil {
		c.stopTimerLocked()
		c.mu.Unlock()
		c.logger.Debug("playback paused")
		return false
	}
	if c.session == nil || c.session.MaxIndex() <= 0 {
		c.mu.Unlock()
		c.logger.Debug("toggle playback with nothing to play")
		return false
	}
	if c.session.CurrentIndex >= c.session.MaxIndex() {
		// Replay from the start
		c.session.CurrentIndex = -1
	}
	done := make(chan struct{})
	c.timerDone = done
	c.session.Playing = true
	c.state = StatePlaying
	interval := c.interval
	c.mu.Unlock()

	c.logger.Debug("playback started", "interval", interval)
	go c.playLoop(done, interval)
	return true
}

// CloseSession cancels the timer, drops the session, and moves the
// controller to Closed. Any in-flight generation request is cancelled.
func (c *Controller) CloseSession() {
	c.mu.Lock()
	c.stopTimerLocked()
	if c.sessionCancel != nil {
		c.sessionCancel()
		c.sessionCancel = nil
	}
	c.session = nil
	c.lastRaw = ""
	c.hasFrame = false
	c.state = StateClosed
	c.mu.Unlock()
	c.logger.Debug("playback session closed")
}

// Redraw re-renders the most recently displayed board without moving
// the playback position or emitting events. The view layer calls this
// when sprite artwork finishes loading after the board first drew.
func (c *Controller) Redraw() {
	c.mu.Lock()
	if !c.hasFrame {
		c.mu.Unlock()
		return
	}
	c.presentLocked(c.lastRaw)
	c.mu.Unlock()
}

// State returns the controller's lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentIndex returns the displayed snapshot index, -1 when no step
// has been displayed or no session is loaded.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return -1
	}
	return c.session.CurrentIndex
}

// MaxIndex returns the session's last snapshot index, -1 when no
// session is loaded.
func (c *Controller) MaxIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return -1
	}
	return c.session.MaxIndex()
}

// IsPlaying reports whether the playback timer is running.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timerDone != nil
}

// Surface returns the render target. The view layer reads frames from
// it; the controller writes them.
func (c *Controller) Surface() *ux.Surface {
	return c.surface
}

// CurrentSession returns a copy of the loaded session, reporting false
// when none is loaded. The snapshot slice is shared; snapshots are
// immutable.
func (c *Controller) CurrentSession() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// =============================================================================
// Internals
// =============================================================================

// presentLocked decodes raw level text and renders it to the surface.
// Caller holds c.mu. The render runs to completion before return; the
// surface rejects the commit only when a newer render superseded it.
func (c *Controller) presentLocked(raw string) {
	grid := game.Decode(raw)
	if grid.Ragged() {
		c.logger.Debug("level text has ragged rows",
			"rows", grid.Rows(),
			"cols", grid.Cols(),
		)
	}
	gen := c.surface.Begin()
	frame := c.board.Render(grid)
	if !c.surface.Commit(gen, frame) {
		c.logger.Debug("render superseded before commit")
	}
	c.lastRaw = raw
	c.hasFrame = true
}

// stopTimerLocked cancels a running timer. Caller holds c.mu.
func (c *Controller) stopTimerLocked() {
	if c.timerDone != nil {
		close(c.timerDone)
		c.timerDone = nil
	}
	if c.session != nil {
		c.session.Playing = false
	}
	if c.state == StatePlaying {
		c.state = StateAtStep
	}
}

// playLoop runs the fixed-period advance until cancelled or the
// session runs out of steps.
func (c *Controller) playLoop(done chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if !c.tick(done) {
				return
			}
		}
	}
}

// tick advances playback by one step. Returns false when the loop
// should exit: the timer was replaced or cancelled, the session went
// away, or playback ran off the end.
func (c *Controller) tick(done chan struct{}) bool {
	c.mu.Lock()
	if c.timerDone != done || c.session == nil {
		c.mu.Unlock()
		return false
	}
	sess := c.session
	if sess.CurrentIndex < sess.MaxIndex() {
		next := sess.CurrentIndex + 1
		snap, _ := sess.Snapshot(next)
		c.presentLocked(snap.RawText)
		sess.CurrentIndex = next
		levelID := sess.LevelID
		n := sess.MaxIndex()
		c.mu.Unlock()
		c.sink.OnStepChanged(StepChanged{LevelID: levelID, Index: next, Total: n})
		return true
	}

	// Ran off the end: the timer cancels itself
	c.timerDone = nil
	sess.Playing = false
	c.state = StateAtStep
	levelID := sess.LevelID
	idx := sess.CurrentIndex
	c.mu.Unlock()

	c.logger.Debug("playback ended", "level", levelID, "index", idx)
	c.sink.OnPlaybackEnded(PlaybackEnded{LevelID: levelID, Index: idx})
	return false
}
