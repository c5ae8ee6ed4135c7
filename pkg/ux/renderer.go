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
// This file contains progress renderers that display batch-solve events
// to various outputs (terminal, buffer, etc.).
//
// Single Responsibility:
//
//	Renderers ONLY render. They do not parse, read, or manage HTTP.
//	Each method handles exactly one event type, enabling clean
//	composition with the stream reader.
//
// Renderer Types:
//
//   - TerminalProgressRenderer: Interactive terminal with banded bar and colors
//   - MachineProgressRenderer: Machine-readable KEY: value format
//   - BufferProgressRenderer: In-memory recorder for testing
package ux

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/kekectl/pkg/game"
)

// =============================================================================
// Progress Renderer Interface
// =============================================================================

// ProgressRenderer renders solver progress events to an output
// destination.
//
// Each method handles exactly one event type. The renderer owns all
// output-related state (bar redraws, per-level lines, buffers). Callers
// should invoke methods in the order events are received.
//
// Thread Safety:
//
//	Implementations must be safe for concurrent calls. Multiple
//	goroutines may invoke methods simultaneously when processing events
//	from channels.
//
// Lifecycle:
//
//  1. Create renderer with New*ProgressRenderer()
//  2. Call On* methods as events arrive
//  3. Call Finalize() when the stream ends (always, even on error)
//  4. Call Result() to get the aggregated summary
//
// Example:
//
//	renderer := NewTerminalProgressRenderer(os.Stdout, GetPersonality().Level)
//	defer renderer.Finalize()
//
//	err := reader.Read(ctx, body, func(event ux.ProgressEvent) error {
//	    switch event.Type {
//	    case ux.ProgressEventUpdate:
//	        renderer.OnProgress(ctx, event.Current, event.Total, event.Report)
//	    case ux.ProgressEventCompleted:
//	        renderer.OnCompleted(ctx)
//	    case ux.ProgressEventError:
//	        renderer.OnError(ctx, errors.New(event.Error))
//	    }
//	    return nil
//	})
//
//	summary := renderer.Result()
type ProgressRenderer interface {
	// OnProgress renders a progress update.
	//
	// current/total are the solver's level counts; report, when non-nil,
	// is the rolling batch report carried on the event. Implementations
	// keep the last report for Result().
	//
	// Thread-safe. May be called concurrently with other methods.
	OnProgress(ctx context.Context, current, total int, report *game.BatchReport)

	// OnCompleted signals clean completion of the batch.
	//
	// Clears transient output (progress line). This is typically the
	// last On* method called (unless OnError).
	OnCompleted(ctx context.Context)

	// OnError renders a solver error that ended the stream.
	//
	// Clears transient output and displays the message. After OnError,
	// only Finalize() should be called.
	OnError(ctx context.Context, err error)

	// Finalize performs cleanup (clear progress line, flush output).
	//
	// MUST be called when streaming ends, even if abnormally.
	// Safe to call multiple times; subsequent calls are no-ops.
	// Typically called with defer immediately after creating renderer.
	Finalize()

	// Result returns the accumulated summary after streaming completes.
	//
	// May be called before Finalize() to get partial results.
	Result() *ProgressSummary
}

// =============================================================================
// Terminal Progress Renderer
// =============================================================================

// terminalProgressRenderer renders progress events to an interactive
// terminal.
//
// This is the primary renderer for user-facing output. It redraws a
// banded progress bar in place and prints one status line per finished
// level as the rolling report grows.
//
// Personality Modes:
//
//   - PersonalityFull/Standard: banded bar, colored per-level lines
//   - PersonalityMinimal: same layout, plainer styling
//   - PersonalityMachine: falls back to KEY: value lines
//
// Thread Safety:
//
//	All methods are protected by a mutex. Safe for concurrent calls.
type terminalProgressRenderer struct {
	writer      io.Writer
	personality PersonalityLevel
	result      *ProgressSummary
	mu          sync.Mutex

	// State tracking
	barWidth       int
	renderedLevels int
	lineDirty      bool
	finalized      bool
}

// defaultBarWidth is the progress bar width in cells.
const defaultBarWidth = 28

// NewTerminalProgressRenderer creates a renderer for interactive
// terminal output.
//
// Parameters:
//   - w: The output writer. If nil, defaults to os.Stdout.
//   - personality: Controls output styling. Use GetPersonality().Level
//     for the user's configured personality, or hardcode for specific
//     behavior.
//
// Returns:
//
//	A ProgressRenderer that displays events interactively. The returned
//	renderer has an Id and CreatedAt already set on its internal summary.
func NewTerminalProgressRenderer(w io.Writer, personality PersonalityLevel) ProgressRenderer {
	if w == nil {
		w = os.Stdout
	}
	return &terminalProgressRenderer{
		writer:      w,
		personality: personality,
		barWidth:    defaultBarWidth,
		result: &ProgressSummary{
			Id:        uuid.New().String(),
			CreatedAt: time.Now().UnixMilli(),
		},
	}
}

// OnProgress redraws the progress line and prints status lines for
// levels that finished since the last update.
//
// Side Effects:
//   - Updates LastCurrent/LastTotal and the kept report in the summary
//   - Prints per-level lines for newly finished levels
//   - Redraws the bar line in place with \r
func (r *terminalProgressRenderer) OnProgress(ctx context.Context, current, total int, report *game.BatchReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.TotalEvents++
	r.result.LastCurrent = current
	r.result.LastTotal = total
	if report != nil {
		r.result.Report = report
	}

	if r.personality == PersonalityMachine {
		fmt.Fprintf(r.writer, "PROGRESS: %d/%d\n", current, total)
		return
	}

	// Print a status line for each level finished since the last event
	if report != nil {
		if r.renderedLevels > len(report.Levels) {
			r.renderedLevels = len(report.Levels)
		}
		for _, lvl := range report.Levels[r.renderedLevels:] {
			r.clearLine()
			r.printLevelLine(lvl)
		}
		r.renderedLevels = len(report.Levels)
	}

	fmt.Fprintf(r.writer, "\r%s %d/%d", r.renderBar(current, total), current, total)
	r.lineDirty = true
}

// OnCompleted clears the progress line. The final report table is the
// caller's to print from Result().
func (r *terminalProgressRenderer) OnCompleted(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.TotalEvents++
	r.result.CompletedAt = time.Now().UnixMilli()

	if r.personality == PersonalityMachine {
		fmt.Fprintf(r.writer, "STATUS: completed\n")
		return
	}

	r.clearLine()
}

// OnError clears the progress line and displays the error message.
func (r *terminalProgressRenderer) OnError(ctx context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.TotalEvents++
	r.result.CompletedAt = time.Now().UnixMilli()
	if err != nil {
		r.result.Error = err.Error()
	}

	if r.personality == PersonalityMachine {
		fmt.Fprintf(r.writer, "ERROR: %v\n", err)
		return
	}

	r.clearLine()
	fmt.Fprintf(r.writer, "%s %s\n", IconError.Render(), Styles.Error.Render(fmt.Sprintf("%v", err)))
}

// Finalize clears any transient output. Safe to call multiple times.
func (r *terminalProgressRenderer) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}
	r.finalized = true

	if r.personality == PersonalityMachine {
		return
	}
	r.clearLine()
}

// Result returns the accumulated summary.
func (r *terminalProgressRenderer) Result() *ProgressSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// clearLine erases the in-place progress line, if one is on screen.
// Caller must hold the mutex.
func (r *terminalProgressRenderer) clearLine() {
	if !r.lineDirty {
		return
	}
	fmt.Fprint(r.writer, "\r\033[K")
	r.lineDirty = false
}

// printLevelLine prints one finished level's status. Caller must hold
// the mutex.
func (r *terminalProgressRenderer) printLevelLine(lvl game.LevelResult) {
	icon := IconPending
	detail := lvl.Status
	switch {
	case lvl.Won:
		icon = IconFlag
		detail = fmt.Sprintf("%.2fs, %d moves", lvl.Time, lvl.SolutionLength)
	case lvl.Status == "error":
		icon = IconSkull
		detail = truncate(lvl.Error, 60)
	case lvl.Status == "failed":
		icon = IconError
	}

	if r.personality == PersonalityMinimal {
		fmt.Fprintf(r.writer, "%s %s\n", icon.Render(), lvl.ID)
		return
	}
	fmt.Fprintf(r.writer, "%s %s %s\n", icon.Render(), lvl.ID, Styles.Muted.Render("("+detail+")"))
}

// renderBar builds the banded bar without consulting the global
// personality, so the renderer's own mode always wins.
func (r *terminalProgressRenderer) renderBar(current, total int) string {
	var pct float64
	if total > 0 {
		pct = float64(current) / float64(total)
	}
	if pct > 1 {
		pct = 1
	}
	filled := int(pct * float64(r.barWidth))
	empty := r.barWidth - filled

	bar := BandFor(pct).Render(repeatChar('█', filled)) +
		Styles.Muted.Render(repeatChar('░', empty))
	return fmt.Sprintf("%s %3.0f%%", bar, pct*100)
}

// =============================================================================
// Machine Progress Renderer
// =============================================================================

// machineProgressRenderer emits KEY: value lines for scripting.
//
// Output format:
//
//	PROGRESS: 3/10
//	LEVEL: id=demo_1 status=solved won=true
//	STATUS: completed
//	ERROR: <message>
//
// Every line is self-contained and greppable. No ANSI sequences are
// ever written.
type machineProgressRenderer struct {
	writer    io.Writer
	result    *ProgressSummary
	mu        sync.Mutex
	emitted   int
	finalized bool
}

// NewMachineProgressRenderer creates a renderer that emits
// machine-readable KEY: value lines.
//
// Parameters:
//   - w: The output writer. If nil, defaults to os.Stdout.
func NewMachineProgressRenderer(w io.Writer) ProgressRenderer {
	if w == nil {
		w = os.Stdout
	}
	return &machineProgressRenderer{
		writer: w,
		result: &ProgressSummary{
			Id:        uuid.New().String(),
			CreatedAt: time.Now().UnixMilli(),
		},
	}
}

func (r *machineProgressRenderer) OnProgress(ctx context.Context, current, total int, report *game.BatchReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.TotalEvents++
	r.result.LastCurrent = current
	r.result.LastTotal = total

	fmt.Fprintf(r.writer, "PROGRESS: %d/%d\n", current, total)

	if report != nil {
		r.result.Report = report
		if r.emitted > len(report.Levels) {
			r.emitted = len(report.Levels)
		}
		for _, lvl := range report.Levels[r.emitted:] {
			fmt.Fprintf(r.writer, "LEVEL: id=%s status=%s won=%t\n", lvl.ID, lvl.Status, lvl.Won)
		}
		r.emitted = len(report.Levels)
	}
}

func (r *machineProgressRenderer) OnCompleted(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}
	r.result.TotalEvents++
	r.result.CompletedAt = time.Now().UnixMilli()
	fmt.Fprintf(r.writer, "STATUS: completed\n")
}

func (r *machineProgressRenderer) OnError(ctx context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}
	r.result.TotalEvents++
	r.result.CompletedAt = time.Now().UnixMilli()
	if err != nil {
		r.result.Error = err.Error()
	}
	fmt.Fprintf(r.writer, "ERROR: %v\n", err)
}

func (r *machineProgressRenderer) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized = true
}

func (r *machineProgressRenderer) Result() *ProgressSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// =============================================================================
// Buffer Progress Renderer
// =============================================================================

// BufferProgressRenderer records events in memory for testing.
//
// Exported fields are safe to read after the stream is done (after
// Finalize() or once no more On* calls can occur).
type BufferProgressRenderer struct {
	mu     sync.Mutex
	result *ProgressSummary

	// Updates holds one entry per OnProgress call.
	Updates []ProgressEvent

	// CompletedCalls counts OnCompleted invocations.
	CompletedCalls int

	// Errors holds messages from OnError invocations.
	Errors []string

	finalized bool
}

// NewBufferProgressRenderer creates an in-memory recording renderer.
func NewBufferProgressRenderer() *BufferProgressRenderer {
	return &BufferProgressRenderer{
		result: &ProgressSummary{
			Id:        uuid.New().String(),
			CreatedAt: time.Now().UnixMilli(),
		},
	}
}

func (r *BufferProgressRenderer) OnProgress(ctx context.Context, current, total int, report *game.BatchReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}
	r.result.TotalEvents++
	r.result.LastCurrent = current
	r.result.LastTotal = total
	if report != nil {
		r.result.Report = report
	}
	r.Updates = append(r.Updates, ProgressEvent{
		Type:    ProgressEventUpdate,
		Current: current,
		Total:   total,
		Report:  report,
	})
}

func (r *BufferProgressRenderer) OnCompleted(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}
	r.result.TotalEvents++
	r.result.CompletedAt = time.Now().UnixMilli()
	r.CompletedCalls++
}

func (r *BufferProgressRenderer) OnError(ctx context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}
	r.result.TotalEvents++
	r.result.CompletedAt = time.Now().UnixMilli()
	if err != nil {
		r.result.Error = err.Error()
		r.Errors = append(r.Errors, err.Error())
	}
}

func (r *BufferProgressRenderer) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized = true
}

func (r *BufferProgressRenderer) Result() *ProgressSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// =============================================================================
// Factory
// =============================================================================

// NewProgressRenderer returns the renderer matching a personality
// level: the machine renderer for PersonalityMachine, otherwise the
// terminal renderer.
func NewProgressRenderer(w io.Writer, personality PersonalityLevel) ProgressRenderer {
	if personality == PersonalityMachine {
		return NewMachineProgressRenderer(w)
	}
	return NewTerminalProgressRenderer(w, personality)
}

// =============================================================================
// Compile-time Interface Checks
// =============================================================================

var (
	_ ProgressRenderer = (*terminalProgressRenderer)(nil)
	_ ProgressRenderer = (*machineProgressRenderer)(nil)
	_ ProgressRenderer = (*BufferProgressRenderer)(nil)
)
