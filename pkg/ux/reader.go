// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides user experience components for the kekectl CLI.
//
// This file contains stream readers that consume io.Reader sources
// and emit parsed events via callbacks.
//
// Single Responsibility:
//
//	Readers handle I/O and event sequencing. They use parsers to convert
//	bytes to events, but do not render output. This separation enables
//	flexible composition with different renderers.
//
// Context Support:
//
//	All readers accept context.Context for cancellation and timeout.
//	When context is cancelled, reading stops and the error is returned.
package ux

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// maxEventBytes bounds a single SSE line. Rolling reports embed every
// finished level's ascii map, so lines grow well past bufio.Scanner's
// default 64KB ceiling on large level sets.
const maxEventBytes = 4 * 1024 * 1024

// =============================================================================
// Stream Reader Interface
// =============================================================================

// StreamReader reads solver progress streams and invokes callbacks.
//
// Implementations handle the specific wire format (SSE) and emit parsed
// ProgressEvent structs.
//
// Thread Safety:
//
//	StreamReader implementations must be safe for concurrent use.
//	However, a single Read/ReadAll operation should not be called
//	concurrently on the same reader instance.
//
// Example:
//
//	reader := NewSSEStreamReader(NewSSEParser())
//
//	err := reader.Read(ctx, httpResp.Body, func(event ux.ProgressEvent) error {
//	    switch event.Type {
//	    case ux.ProgressEventUpdate:
//	        fmt.Printf("%d/%d\n", event.Current, event.Total)
//	    case ux.ProgressEventError:
//	        return errors.New(event.Error)
//	    }
//	    return nil
//	})
type StreamReader interface {
	// Read processes a stream, invoking callback for each event.
	//
	// Parameters:
	//   - ctx: Context for cancellation. When cancelled, stops reading.
	//   - r: The source to read from. Caller is responsible for closing.
	//   - callback: Invoked for each parsed event. Return error to stop.
	//
	// Returns:
	//   - error: nil on successful completion, otherwise the error that
	//     stopped reading (context cancellation, parse error, or callback error)
	//
	// The stream is considered complete when:
	//   - EOF is reached
	//   - A terminal event (completed/error) is received
	//   - Context is cancelled
	//   - Callback returns an error
	Read(ctx context.Context, r io.Reader, callback ProgressCallback) error

	// ReadAll reads the entire stream and returns an aggregated summary.
	//
	// This is a convenience method that folds all events into a
	// ProgressSummary. Use Read() when you need real-time event
	// processing.
	//
	// Note: If the stream ends with a solver error event, the message is
	// captured in ProgressSummary.Error and this method returns nil (the
	// transport read itself succeeded).
	ReadAll(ctx context.Context, r io.Reader) (*ProgressSummary, error)
}

// =============================================================================
// SSE Stream Reader
// =============================================================================

// sseStreamReader implements StreamReader for Server-Sent Events.
//
// This reader uses bufio.Scanner to read lines and an SSEParser to
// parse each line into events.
type sseStreamReader struct {
	parser SSEParser
}

// NewSSEStreamReader creates a new SSE stream reader.
//
// Parameters:
//   - parser: The SSE parser to use for line parsing.
//
// Returns a StreamReader that handles SSE format.
func NewSSEStreamReader(parser SSEParser) StreamReader {
	return &sseStreamReader{
		parser: parser,
	}
}

// Read processes an SSE stream, invoking callback for each event.
//
// Lines are read using bufio.Scanner. Each line is parsed by the
// SSE parser. Nil events (empty lines, comments, non-data fields) are
// skipped.
func (r *sseStreamReader) Read(ctx context.Context, reader io.Reader, callback ProgressCallback) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxEventBytes)
	eventIndex := 0

	for scanner.Scan() {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()

		// Parse the line
		event, err := r.parser.ParseLine(line)
		if err != nil {
			return err
		}

		// Skip nil events (empty lines, comments)
		if event == nil {
			continue
		}

		// Set the event index
		event.Index = eventIndex
		eventIndex++

		// Invoke the callback
		if err := callback(*event); err != nil {
			return err
		}

		// Stop on terminal events
		if event.IsTerminal() {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return nil
}

// ReadAll reads the entire stream and returns an aggregated summary.
//
// Tracks the latest level counts, keeps the last rolling report, and
// captures the terminal state.
func (r *sseStreamReader) ReadAll(ctx context.Context, reader io.Reader) (*ProgressSummary, error) {
	summary := &ProgressSummary{
		Id:        uuid.New().String(),
		CreatedAt: time.Now().UnixMilli(),
	}

	err := r.Read(ctx, reader, func(event ProgressEvent) error {
		summary.TotalEvents++

		switch event.Type {
		case ProgressEventUpdate:
			summary.LastCurrent = event.Current
			summary.LastTotal = event.Total
			if event.Report != nil {
				summary.Report = event.Report
			}

		case ProgressEventCompleted:
			summary.CompletedAt = time.Now().UnixMilli()

		case ProgressEventError:
			summary.Error = event.Error
			summary.CompletedAt = time.Now().UnixMilli()
		}

		return nil
	})

	// Ensure CompletedAt is set even if no terminal event
	if summary.CompletedAt == 0 {
		summary.CompletedAt = time.Now().UnixMilli()
	}

	return summary, err
}

// =============================================================================
// Compile-time Interface Check
// =============================================================================

var _ StreamReader = (*sseStreamReader)(nil)
