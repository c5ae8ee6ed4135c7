// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"testing"
)

// =============================================================================
// SSE Parser Tests
// =============================================================================

func TestNewSSEParser(t *testing.T) {
	parser := NewSSEParser()
	if parser == nil {
		t.Fatal("NewSSEParser() returned nil")
	}
}

// -----------------------------------------------------------------------------
// ParseLine Tests - Data Lines
// -----------------------------------------------------------------------------

func TestSSEParser_ParseLine_ProgressEvent(t *testing.T) {
	parser := NewSSEParser()

	event, err := parser.ParseLine(`data: {"current":3,"total":10}`)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event == nil {
		t.Fatal("expected event, got nil")
	}
	if event.Id == "" {
		t.Error("expected Id to be set")
	}
	if event.CreatedAt == 0 {
		t.Error("expected CreatedAt to be set")
	}
	if event.Type != ProgressEventUpdate {
		t.Errorf("expected Type %v, got %v", ProgressEventUpdate, event.Type)
	}
	if event.Current != 3 {
		t.Errorf("expected Current 3, got %d", event.Current)
	}
	if event.Total != 10 {
		t.Errorf("expected Total 10, got %d", event.Total)
	}
}

func TestSSEParser_ParseLine_ProgressWithReport(t *testing.T) {
	parser := NewSSEParser()

	event, err := parser.ParseLine(`data: {"current":1,"total":2,"report":{"agent":"mcts","levels":[{"id":"demo_1","status":"solved","won_level":true}]}}`)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Report == nil {
		t.Fatal("expected report to be carried")
	}
	if event.Report.Agent != "mcts" {
		t.Errorf("expected agent 'mcts', got %q", event.Report.Agent)
	}
	if len(event.Report.Levels) != 1 {
		t.Fatalf("expected 1 level, got %d", len(event.Report.Levels))
	}
	if !event.Report.Levels[0].Won {
		t.Error("expected level to be won")
	}
}

func TestSSEParser_ParseLine_CompletedEvent(t *testing.T) {
	parser := NewSSEParser()

	event, err := parser.ParseLine(`data: {"status":"completed"}`)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type != ProgressEventCompleted {
		t.Errorf("expected Type %v, got %v", ProgressEventCompleted, event.Type)
	}
	if !event.IsTerminal() {
		t.Error("expected completed event to be terminal")
	}
}

func TestSSEParser_ParseLine_ErrorEvent(t *testing.T) {
	parser := NewSSEParser()

	event, err := parser.ParseLine(`data: {"status":"error","error":"solver exploded"}`)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type != ProgressEventError {
		t.Errorf("expected Type %v, got %v", ProgressEventError, event.Type)
	}
	if event.Error != "solver exploded" {
		t.Errorf("expected Error 'solver exploded', got %q", event.Error)
	}
	if !event.IsTerminal() {
		t.Error("expected error event to be terminal")
	}
}

func TestSSEParser_ParseLine_ErrorEventWithoutMessage(t *testing.T) {
	parser := NewSSEParser()

	event, err := parser.ParseLine(`data: {"status":"error"}`)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type != ProgressEventError {
		t.Errorf("expected Type %v, got %v", ProgressEventError, event.Type)
	}
	if event.Error == "" {
		t.Error("expected a fallback error message")
	}
}

func TestSSEParser_ParseLine_DataNoSpace(t *testing.T) {
	parser := NewSSEParser()

	event, err := parser.ParseLine(`data:{"current":5,"total":8}`)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event == nil {
		t.Fatal("expected event, got nil")
	}
	if event.Current != 5 {
		t.Errorf("expected Current 5, got %d", event.Current)
	}
}

func TestSSEParser_ParseLine_ZeroCurrent(t *testing.T) {
	parser := NewSSEParser()

	// current:0 is a real first event, not an absent field
	event, err := parser.ParseLine(`data: {"current":0,"total":10}`)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event == nil {
		t.Fatal("expected event, got nil")
	}
	if event.Type != ProgressEventUpdate {
		t.Errorf("expected Type %v, got %v", ProgressEventUpdate, event.Type)
	}
	if event.Current != 0 {
		t.Errorf("expected Current 0, got %d", event.Current)
	}
}

// -----------------------------------------------------------------------------
// ParseLine Tests - Non-Data Lines
// -----------------------------------------------------------------------------

func TestSSEParser_ParseLine_EmptyLine(t *testing.T) {
	parser := NewSSEParser()

	event, err := parser.ParseLine("")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event != nil {
		t.Errorf("expected nil event for empty line, got %+v", event)
	}
}

func TestSSEParser_ParseLine_CommentLine(t *testing.T) {
	parser := NewSSEParser()

	event, err := parser.ParseLine(": keep-alive")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event != nil {
		t.Errorf("expected nil event for comment, got %+v", event)
	}
}

func TestSSEParser_ParseLine_OtherFieldLines(t *testing.T) {
	parser := NewSSEParser()

	for _, line := range []string{"event: progress", "id: 42", "retry: 3000", "stray text"} {
		event, err := parser.ParseLine(line)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", line, err)
		}
		if event != nil {
			t.Errorf("expected nil event for %q, got %+v", line, event)
		}
	}
}

// -----------------------------------------------------------------------------
// ParseRawJSON Tests
// -----------------------------------------------------------------------------

func TestSSEParser_ParseRawJSON_MalformedJSON(t *testing.T) {
	parser := NewSSEParser()

	_, err := parser.ParseRawJSON([]byte(`{"current": 3,`))

	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestSSEParser_ParseRawJSON_UnrecognizedShape(t *testing.T) {
	parser := NewSSEParser()

	_, err := parser.ParseRawJSON([]byte(`{"something":"else"}`))

	if err == nil {
		t.Fatal("expected error for unrecognized payload shape")
	}
}

// -----------------------------------------------------------------------------
// Event Fraction Tests
// -----------------------------------------------------------------------------

func TestProgressEvent_Fraction(t *testing.T) {
	e := ProgressEvent{Current: 3, Total: 10}
	if got := e.Fraction(); got != 0.3 {
		t.Errorf("expected 0.3, got %f", got)
	}

	e = ProgressEvent{Current: 5, Total: 0}
	if got := e.Fraction(); got != 0 {
		t.Errorf("expected 0 for zero total, got %f", got)
	}

	e = ProgressEvent{Current: 15, Total: 10}
	if got := e.Fraction(); got != 1 {
		t.Errorf("expected clamp to 1, got %f", got)
	}
}
