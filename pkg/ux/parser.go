// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides user experience components for the kekectl CLI.
//
// This file contains parsers for the solver's streaming progress format.
// Parsers are responsible for converting raw lines into ProgressEvent
// structs.
//
// Single Responsibility:
//
//	Parsers ONLY parse. They do not perform I/O, rendering, or state
//	management. This separation enables easy testing and format
//	extensibility.
package ux

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/kekectl/pkg/game"
)

// =============================================================================
// SSE Parser Interface
// =============================================================================

// SSEParser parses Server-Sent Events format into ProgressEvent structs.
//
// SSE Format Reference (https://developer.mozilla.org/en-US/docs/Web/API/Server-sent_events):
//
//	data: {"current":3,"total":10,"report":{...}}\n
//	\n
//	data: {"status":"completed"}\n
//	\n
//
// Each line starting with "data: " contains a JSON payload. Empty lines
// are event delimiters (ignored by this parser). Lines starting with
// ":" are comments (ignored). The solver classifies events by payload
// shape rather than a type field: a "status" of completed or error
// marks the terminal events, anything carrying a level count is a
// progress update.
//
// Thread Safety:
//
//	SSEParser implementations must be safe for concurrent use.
//	The default implementation is stateless and inherently thread-safe.
type SSEParser interface {
	// ParseLine parses a single line of SSE input.
	//
	// Parameters:
	//   - line: A single line from the SSE stream (without trailing newline)
	//
	// Returns:
	//   - *ProgressEvent: The parsed event, or nil for lines carrying no event
	//   - error: Non-nil if a data payload failed to parse
	//
	// Line handling:
	//   - Empty lines: Returns nil, nil (event delimiter)
	//   - Comment lines (":"): Returns nil, nil (ignored)
	//   - Data lines ("data: "): Parses JSON payload
	//   - Other SSE field lines (event:, id:, retry:): Returns nil, nil
	ParseLine(line string) (*ProgressEvent, error)

	// ParseRawJSON parses a raw JSON payload into a ProgressEvent.
	//
	// Use this when you have JSON without the "data: " prefix.
	// Automatically generates Id and sets CreatedAt.
	ParseRawJSON(jsonData []byte) (*ProgressEvent, error)
}

// =============================================================================
// SSE Parser Implementation
// =============================================================================

// sseParser implements SSEParser for Server-Sent Events format.
//
// This implementation is stateless and safe for concurrent use.
// All parsed events are assigned fresh Id and CreatedAt values.
type sseParser struct{}

// NewSSEParser creates a new SSE parser.
//
// The returned parser is stateless and can be safely shared across
// goroutines.
func NewSSEParser() SSEParser {
	return &sseParser{}
}

// ParseLine parses a single SSE line.
//
// The solver stream carries only JSON data payloads; SSE field lines
// other than data, and any stray non-JSON text, produce no event.
func (p *sseParser) ParseLine(line string) (*ProgressEvent, error) {
	// Trim whitespace
	line = strings.TrimSpace(line)

	// Empty lines are event delimiters
	if line == "" {
		return nil, nil
	}

	// Comments start with ":"
	if strings.HasPrefix(line, ":") {
		return nil, nil
	}

	// Data lines start with "data: "
	if strings.HasPrefix(line, "data: ") {
		jsonData := strings.TrimPrefix(line, "data: ")
		return p.ParseRawJSON([]byte(jsonData))
	}

	// Also handle "data:" without space (some servers do this)
	if strings.HasPrefix(line, "data:") {
		jsonData := strings.TrimPrefix(line, "data:")
		return p.ParseRawJSON([]byte(jsonData))
	}

	// Other SSE fields (event:, id:, retry:) and stray text carry
	// nothing this client uses
	return nil, nil
}

// ParseRawJSON parses a JSON payload into a ProgressEvent.
//
// Classification is by payload shape:
//
//	{"status":"completed"}                       -> completed
//	{"status":"error","error":"..."}             -> error
//	{"current":3,"total":10,"report":{...}}      -> progress update
//
// A payload matching none of these shapes is a protocol error.
func (p *sseParser) ParseRawJSON(jsonData []byte) (*ProgressEvent, error) {
	var raw struct {
		Status  string            `json:"status"`
		Error   string            `json:"error"`
		Current *int              `json:"current"`
		Total   int               `json:"total"`
		Report  *game.BatchReport `json:"report"`
	}

	if err := json.Unmarshal(jsonData, &raw); err != nil {
		return nil, err
	}

	// Build the event with generated Id and timestamp
	event := &ProgressEvent{
		Id:        uuid.New().String(),
		CreatedAt: time.Now().UnixMilli(),
	}

	switch {
	case raw.Status == "completed":
		event.Type = ProgressEventCompleted

	case raw.Status == "error" || raw.Error != "":
		event.Type = ProgressEventError
		event.Error = raw.Error
		if event.Error == "" {
			event.Error = "solver reported an unspecified error"
		}

	case raw.Current != nil:
		event.Type = ProgressEventUpdate
		event.Current = *raw.Current
		event.Total = raw.Total
		event.Report = raw.Report

	default:
		return nil, fmt.Errorf("unrecognized progress payload: %s", truncate(string(jsonData), 120))
	}

	return event, nil
}

// =============================================================================
// Compile-time Interface Check
// =============================================================================

var _ SSEParser = (*sseParser)(nil)
