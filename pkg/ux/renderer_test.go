// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AleutianAI/kekectl/pkg/game"
)

// =============================================================================
// Terminal Progress Renderer Tests
// =============================================================================

func TestTerminalProgressRenderer_MachineMode(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminalProgressRenderer(&buf, PersonalityMachine)
	defer r.Finalize()

	ctx := context.Background()
	r.OnProgress(ctx, 1, 3, nil)
	r.OnProgress(ctx, 2, 3, nil)
	r.OnCompleted(ctx)

	out := buf.String()
	if !strings.Contains(out, "PROGRESS: 1/3") {
		t.Errorf("expected 'PROGRESS: 1/3' in output, got %q", out)
	}
	if !strings.Contains(out, "PROGRESS: 2/3") {
		t.Errorf("expected 'PROGRESS: 2/3' in output, got %q", out)
	}
	if !strings.Contains(out, "STATUS: completed") {
		t.Errorf("expected 'STATUS: completed' in output, got %q", out)
	}
}

func TestTerminalProgressRenderer_MachineMode_Error(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminalProgressRenderer(&buf, PersonalityMachine)
	defer r.Finalize()

	r.OnError(context.Background(), errors.New("agent not found"))

	if !strings.Contains(buf.String(), "ERROR: agent not found") {
		t.Errorf("expected error line, got %q", buf.String())
	}
	if r.Result().Error != "agent not found" {
		t.Errorf("expected error in summary, got %q", r.Result().Error)
	}
}

func TestTerminalProgressRenderer_LevelLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminalProgressRenderer(&buf, PersonalityFull)
	defer r.Finalize()

	ctx := context.Background()
	report := &game.BatchReport{
		Levels: []game.LevelResult{
			{ID: "demo_1", Status: "solved", Won: true, Time: 1.5, SolutionLength: 8},
		},
	}
	r.OnProgress(ctx, 1, 2, report)

	// Second event repeats the first level and adds one
	report2 := &game.BatchReport{
		Levels: []game.LevelResult{
			report.Levels[0],
			{ID: "demo_2", Status: "failed", Won: false},
		},
	}
	r.OnProgress(ctx, 2, 2, report2)
	r.OnCompleted(ctx)

	out := buf.String()
	if strings.Count(out, "demo_1") != 1 {
		t.Errorf("expected demo_1 printed exactly once, got %q", out)
	}
	if !strings.Contains(out, "demo_2") {
		t.Errorf("expected demo_2 line, got %q", out)
	}
}

func TestTerminalProgressRenderer_ResultTracksState(t *testing.T) {
	r := NewTerminalProgressRenderer(&bytes.Buffer{}, PersonalityFull)
	defer r.Finalize()

	ctx := context.Background()
	report := &game.BatchReport{Agent: "mcts"}
	r.OnProgress(ctx, 4, 10, report)

	result := r.Result()
	if result.LastCurrent != 4 || result.LastTotal != 10 {
		t.Errorf("expected 4/10, got %d/%d", result.LastCurrent, result.LastTotal)
	}
	if result.Report == nil || result.Report.Agent != "mcts" {
		t.Error("expected report to be kept")
	}
	if result.Id == "" || result.CreatedAt == 0 {
		t.Error("expected Id and CreatedAt to be set")
	}
}

func TestTerminalProgressRenderer_FinalizeIdempotent(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminalProgressRenderer(&buf, PersonalityFull)

	r.OnProgress(context.Background(), 1, 2, nil)
	r.Finalize()
	sizeAfterFirst := buf.Len()
	r.Finalize()
	r.Finalize()

	if buf.Len() != sizeAfterFirst {
		t.Error("repeated Finalize must not write again")
	}

	// Events after finalize are dropped
	r.OnProgress(context.Background(), 2, 2, nil)
	if r.Result().LastCurrent != 1 {
		t.Errorf("expected progress after finalize to be ignored, got %d", r.Result().LastCurrent)
	}
}

// =============================================================================
// Machine Progress Renderer Tests
// =============================================================================

func TestMachineProgressRenderer_Lines(t *testing.T) {
	var buf bytes.Buffer
	r := NewMachineProgressRenderer(&buf)
	defer r.Finalize()

	ctx := context.Background()
	report := &game.BatchReport{
		Levels: []game.LevelResult{
			{ID: "demo_1", Status: "solved", Won: true},
		},
	}
	r.OnProgress(ctx, 1, 1, report)
	r.OnCompleted(ctx)

	out := buf.String()
	if !strings.Contains(out, "PROGRESS: 1/1") {
		t.Errorf("expected progress line, got %q", out)
	}
	if !strings.Contains(out, "LEVEL: id=demo_1 status=solved won=true") {
		t.Errorf("expected level line, got %q", out)
	}
	if !strings.Contains(out, "STATUS: completed") {
		t.Errorf("expected completed line, got %q", out)
	}
	if strings.Contains(out, "\033") {
		t.Error("machine output must not contain ANSI sequences")
	}
}

// =============================================================================
// Buffer Progress Renderer Tests
// =============================================================================

func TestBufferProgressRenderer_Records(t *testing.T) {
	r := NewBufferProgressRenderer()
	ctx := context.Background()

	r.OnProgress(ctx, 1, 2, nil)
	r.OnProgress(ctx, 2, 2, &game.BatchReport{Agent: "astar"})
	r.OnCompleted(ctx)
	r.Finalize()

	if len(r.Updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(r.Updates))
	}
	if r.Updates[1].Current != 2 {
		t.Errorf("expected second update current=2, got %d", r.Updates[1].Current)
	}
	if r.CompletedCalls != 1 {
		t.Errorf("expected 1 completed call, got %d", r.CompletedCalls)
	}
	if r.Result().Report == nil || r.Result().Report.Agent != "astar" {
		t.Error("expected report kept in summary")
	}
	if !r.Result().Completed() {
		t.Error("expected clean completion")
	}
}

func TestBufferProgressRenderer_ErrorPath(t *testing.T) {
	r := NewBufferProgressRenderer()

	r.OnError(context.Background(), errors.New("boom"))
	r.Finalize()

	if len(r.Errors) != 1 || r.Errors[0] != "boom" {
		t.Errorf("expected recorded error, got %v", r.Errors)
	}
	if r.Result().Completed() {
		t.Error("errored stream must not count as completed")
	}
}

// =============================================================================
// Factory Tests
// =============================================================================

func TestNewProgressRenderer_PicksMachine(t *testing.T) {
	var buf bytes.Buffer
	r := NewProgressRenderer(&buf, PersonalityMachine)

	r.OnProgress(context.Background(), 1, 1, nil)

	if !strings.Contains(buf.String(), "PROGRESS: 1/1") {
		t.Errorf("expected machine renderer output, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "\r") {
		t.Error("machine renderer must not redraw lines")
	}
}
