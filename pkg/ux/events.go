// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides user experience components for the kekectl CLI.
//
// This file defines the event types flowing through the progress
// streaming pipeline (parser -> reader -> renderer).
package ux

import (
	"github.com/AleutianAI/kekectl/pkg/game"
)

// =============================================================================
// Progress Event Types
// =============================================================================

// ProgressEventType classifies an event on a solver progress stream.
type ProgressEventType string

const (
	// ProgressEventUpdate carries a level count and optionally a rolling
	// batch report.
	ProgressEventUpdate ProgressEventType = "progress"

	// ProgressEventCompleted signals that the solver finished the batch.
	// Terminal: nothing follows it on the stream.
	ProgressEventCompleted ProgressEventType = "completed"

	// ProgressEventError signals that the solver aborted the batch.
	// Terminal: nothing follows it on the stream.
	ProgressEventError ProgressEventType = "error"
)

// ProgressEvent is a single parsed event from a solver progress stream.
//
// Id and CreatedAt are assigned client-side at parse time; the solver
// wire format carries neither. Index is the event's position within its
// stream, assigned by the reader.
type ProgressEvent struct {
	Id        string
	CreatedAt int64
	Index     int
	Type      ProgressEventType

	// Update payload (Type == ProgressEventUpdate)
	Current int
	Total   int
	Report  *game.BatchReport

	// Error payload (Type == ProgressEventError)
	Error string
}

// IsTerminal reports whether this event ends the stream.
func (e ProgressEvent) IsTerminal() bool {
	return e.Type == ProgressEventCompleted || e.Type == ProgressEventError
}

// Fraction returns completion as a value in [0, 1]. A zero or negative
// total yields 0 rather than dividing by zero.
func (e ProgressEvent) Fraction() float64 {
	if e.Total <= 0 {
		return 0
	}
	f := float64(e.Current) / float64(e.Total)
	if f > 1 {
		return 1
	}
	return f
}

// ProgressCallback is invoked by a StreamReader for each parsed event.
// Returning an error stops the read.
type ProgressCallback func(event ProgressEvent) error

// ProgressSummary aggregates a fully-consumed progress stream.
//
// If the stream ended with an error event, Error carries its message;
// the read itself still counts as successful at the transport level.
type ProgressSummary struct {
	Id          string
	CreatedAt   int64
	CompletedAt int64

	TotalEvents int
	LastCurrent int
	LastTotal   int

	// Report is the last rolling report seen on the stream, which for a
	// completed batch is the final one.
	Report *game.BatchReport

	// Error is the solver's error message, empty on clean completion.
	Error string
}

// Completed reports whether the stream reached a clean terminal state.
func (s *ProgressSummary) Completed() bool {
	return s.Error == "" && s.CompletedAt != 0
}
