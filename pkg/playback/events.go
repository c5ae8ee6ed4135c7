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

import "sync"

// =============================================================================
// Controller Events
// =============================================================================

// StepChanged reports that a snapshot was rendered to completion.
//
// # Description
//
// Emitted after every successful DisplayStep, including the automatic
// step-0 render when a session starts and every timer-driven advance.
// Index is the rendered snapshot index, Total the session's last index.
type StepChanged struct {
	LevelID string
	Index   int
	Total   int
}

// SolutionReady reports that a session with at least one move loaded.
//
// # Description
//
// Emitted once per session, before the step-0 StepChanged. Total is the
// number of moves (the last snapshot index). Listeners typically enable
// play and step controls on this event.
type SolutionReady struct {
	LevelID string
	Total   int
}

// NoSolution reports that a session has nothing to play.
//
// # Description
//
// Emitted when state generation fails (the raw map was rendered as a
// fallback) or when it succeeds with zero moves (the initial snapshot
// was rendered). Listeners disable play and step controls.
type NoSolution struct {
	LevelID string

	// Reason is a short diagnostic, empty for the zero-move case.
	Reason string
}

// PlaybackEnded reports that the playback timer ran off the end of the
// session and cancelled itself.
type PlaybackEnded struct {
	LevelID string
	Index   int
}

// EventSink receives controller notifications.
//
// # Description
//
// A fixed set of typed notifications replaces ad-hoc callback fields:
// every consumer implements the same four methods and cannot miss a
// wiring step. Methods are invoked synchronously after the triggering
// render has completed, and never while the controller holds its
// internal lock, so a sink may call back into the controller.
//
// # Thread Safety
//
// Calls arrive from both the caller's goroutine and the playback timer
// goroutine. Implementations must be safe for that.
type EventSink interface {
	OnStepChanged(e StepChanged)
	OnSolutionReady(e SolutionReady)
	OnNoSolution(e NoSolution)
	OnPlaybackEnded(e PlaybackEnded)
}

// =============================================================================
// Sink Implementations
// =============================================================================

// NopSink discards all events.
type NopSink struct{}

func (NopSink) OnStepChanged(StepChanged)     {}
func (NopSink) OnSolutionReady(SolutionReady) {}
func (NopSink) OnNoSolution(NoSolution)       {}
func (NopSink) OnPlaybackEnded(PlaybackEnded) {}

// BufferSink records events in arrival order.
//
// # Description
//
// A recording sink for tests and for non-interactive replay modes that
// inspect the event stream after the fact. All methods are safe for
// concurrent use.
type BufferSink struct {
	mu     sync.Mutex
	steps  []StepChanged
	ready  []SolutionReady
	none   []NoSolution
	ended  []PlaybackEnded
	signal chan struct{}
}

// NewBufferSink creates an empty recording sink.
func NewBufferSink() *BufferSink {
	return &BufferSink{signal: make(chan struct{}, 64)}
}

func (b *BufferSink) OnStepChanged(e StepChanged) {
	b.mu.Lock()
	b.steps = append(b.steps, e)
	b.mu.Unlock()
	b.notify()
}

func (b *BufferSink) OnSolutionReady(e SolutionReady) {
	b.mu.Lock()
	b.ready = append(b.ready, e)
	b.mu.Unlock()
	b.notify()
}

func (b *BufferSink) OnNoSolution(e NoSolution) {
	b.mu.Lock()
	b.none = append(b.none, e)
	b.mu.Unlock()
	b.notify()
}

func (b *BufferSink) OnPlaybackEnded(e PlaybackEnded) {
	b.mu.Lock()
	b.ended = append(b.ended, e)
	b.mu.Unlock()
	b.notify()
}

// Steps returns a copy of the recorded StepChanged events.
func (b *BufferSink) Steps() []StepChanged {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]StepChanged, len(b.steps))
	copy(out, b.steps)
	return out
}

// Ready returns a copy of the recorded SolutionReady events.
func (b *BufferSink) Ready() []SolutionReady {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]SolutionReady, len(b.ready))
	copy(out, b.ready)
	return out
}

// NoSolutions returns a copy of the recorded NoSolution events.
func (b *BufferSink) NoSolutions() []NoSolution {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]NoSolution, len(b.none))
	copy(out, b.none)
	return out
}

// Ended returns a copy of the recorded PlaybackEnded events.
func (b *BufferSink) Ended() []PlaybackEnded {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]PlaybackEnded, len(b.ended))
	copy(out, b.ended)
	return out
}

// Signal returns a channel that receives one tick per recorded event.
// Lets tests wait for activity without polling.
func (b *BufferSink) Signal() <-chan struct{} {
	return b.signal
}

func (b *BufferSink) notify() {
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Compile-time interface checks
var (
	_ EventSink = NopSink{}
	_ EventSink = (*BufferSink)(nil)
)
