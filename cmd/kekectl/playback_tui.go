// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package main contains the interactive playback terminal UI.
//
// The bubbletea model here owns no playback state of its own: the
// playback.Controller is the single source of truth, and the model
// reads the committed frame from the render surface on every View.
// Controller events reach the program through programSink, which
// bridges the controller's synchronous callbacks onto the bubbletea
// message loop with p.Send.
package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AleutianAI/kekectl/pkg/game"
	"github.com/AleutianAI/kekectl/pkg/playback"
	"github.com/AleutianAI/kekectl/pkg/sprites"
	"github.com/AleutianAI/kekectl/pkg/ux"
)

// =============================================================================
// Event Bridge
// =============================================================================

// Messages delivered to the bubbletea program.
type (
	stepChangedMsg   struct{ playback.StepChanged }
	solutionReadyMsg struct{ playback.SolutionReady }
	noSolutionMsg    struct{ playback.NoSolution }
	playbackEndedMsg struct{ playback.PlaybackEnded }
	spriteLoadedMsg  struct{ name string }
)

// programSink forwards controller events into a bubbletea program.
//
// The controller starts before the program exists (the session loads
// first so the opening frame is ready), so the program is attached
// late; events arriving before that are dropped, and the model reads
// the controller's current state when it is built instead.
type programSink struct {
	mu sync.Mutex
	p  *tea.Program
}

func (s *programSink) attach(p *tea.Program) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

func (s *programSink) send(msg tea.Msg) {
	s.mu.Lock()
	p := s.p
	s.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (s *programSink) OnStepChanged(e playback.StepChanged)     { s.send(stepChangedMsg{e}) }
func (s *programSink) OnSolutionReady(e playback.SolutionReady) { s.send(solutionReadyMsg{e}) }
func (s *programSink) OnNoSolution(e playback.NoSolution)       { s.send(noSolutionMsg{e}) }
func (s *programSink) OnPlaybackEnded(e playback.PlaybackEnded) { s.send(playbackEndedMsg{e}) }

var _ playback.EventSink = (*programSink)(nil)

// =============================================================================
// Key Map
// =============================================================================

type playbackKeyMap struct {
	PlayPause key.Binding
	StepBack  key.Binding
	StepFwd   key.Binding
	Restart   key.Binding
	Quit      key.Binding
}

func defaultPlaybackKeys() playbackKeyMap {
	return playbackKeyMap{
		PlayPause: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "play/pause"),
		),
		StepBack: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "step back"),
		),
		StepFwd: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "step forward"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k playbackKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.StepBack, k.StepFwd, k.Restart, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k playbackKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PlayPause, k.StepBack, k.StepFwd},
		{k.Restart, k.Quit},
	}
}

// =============================================================================
// Model
// =============================================================================

// playbackModel is the bubbletea model for interactive replay.
type playbackModel struct {
	ctrl    *playback.Controller
	levelID string
	keys    playbackKeyMap
	help    help.Model

	status     string
	noSolution bool
	quitting   bool
}

// newPlaybackModel builds the model from the controller's state after
// the session was loaded (successfully or not).
func newPlaybackModel(ctrl *playback.Controller, levelID string) playbackModel {
	m := playbackModel{
		ctrl:    ctrl,
		levelID: levelID,
		keys:    defaultPlaybackKeys(),
		help:    help.New(),
	}

	switch {
	case ctrl.State() == playback.StateIdle:
		m.noSolution = true
		m.status = "No solution to play; showing the raw map"
	case ctrl.MaxIndex() <= 0:
		m.noSolution = true
		m.status = "Solution has no moves"
	default:
		m.status = fmt.Sprintf("Step 0/%d", ctrl.MaxIndex())
	}
	return m
}

// Init implements tea.Model.
func (m playbackModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m playbackModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.ctrl.CloseSession()
			return m, tea.Quit

		case key.Matches(msg, m.keys.PlayPause):
			if m.noSolution {
				m.status = "Nothing to play"
				return m, nil
			}
			if m.ctrl.TogglePlayback() {
				m.status = "Playing"
			} else {
				m.status = fmt.Sprintf("Paused at step %d/%d", m.ctrl.CurrentIndex(), m.ctrl.MaxIndex())
			}
			return m, nil

		case key.Matches(msg, m.keys.StepFwd):
			// Out-of-range steps are rejected by the controller; at the
			// last step this is deliberately a no-op
			_ = m.ctrl.DisplayStep(m.ctrl.CurrentIndex() + 1)
			return m, nil

		case key.Matches(msg, m.keys.StepBack):
			_ = m.ctrl.DisplayStep(m.ctrl.CurrentIndex() - 1)
			return m, nil

		case key.Matches(msg, m.keys.Restart):
			if !m.noSolution {
				_ = m.ctrl.DisplayStep(0)
			}
			return m, nil
		}

	case stepChangedMsg:
		m.status = fmt.Sprintf("Step %d/%d", msg.Index, msg.Total)
		if snap, ok := m.currentSnapshot(); ok && snap.Won {
			m.status += "  " + ux.Styles.Success.Render("WON")
		}
		return m, nil

	case solutionReadyMsg:
		m.status = fmt.Sprintf("Solution ready: %d moves", msg.Total)
		return m, nil

	case noSolutionMsg:
		m.noSolution = true
		if msg.Reason != "" {
			m.status = "No solution: " + msg.Reason
		} else {
			m.status = "Solution has no moves"
		}
		return m, nil

	case playbackEndedMsg:
		m.status = fmt.Sprintf("Finished at step %d; space replays, q quits", msg.Index)
		return m, nil

	case spriteLoadedMsg:
		// The controller already repainted with the new art; delivering
		// the message is enough to trigger a View
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m playbackModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(ux.Styles.Title.Render("Replay: " + m.levelID))
	sb.WriteString("\n\n")
	sb.WriteString(m.ctrl.Surface().Frame())
	sb.WriteString("\n\n")
	sb.WriteString(m.status)
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m playbackModel) currentSnapshot() (playback.Snapshot, bool) {
	session, ok := m.ctrl.CurrentSession()
	if !ok {
		return playback.Snapshot{}, false
	}
	return session.Snapshot(m.ctrl.CurrentIndex())
}

// =============================================================================
// Entry Point
// =============================================================================

// runPlaybackTUI loads a playback session and hands it to the
// interactive UI. State-generation failure is not fatal: the raw map
// renders with controls disabled, matching the controller's
// degradation contract.
func runPlaybackTUI(ctx context.Context, svc SolverService, levelID, asciiMap string, moves []game.MoveToken) {
	sink := &programSink{}

	var ctrl *playback.Controller
	cache := sprites.New(sprites.Config{
		Loader: sprites.NewHTTPLoader(sprites.HTTPConfig{
			BaseURL: getServerBaseURL(),
			Logger:  appLogger,
		}),
		Logger:      appLogger,
		BaseContext: ctx,
		OnUpdate: func(name string) {
			if c := ctrl; c != nil {
				c.Redraw()
			}
			sink.send(spriteLoadedMsg{name: name})
		},
	})

	ctrl, err := playback.New(playback.Config{
		Generator: svc,
		Sink:      sink,
		Board:     ux.NewBoardRenderer(ux.BoardConfig{Sprites: cache}),
		Surface:   ux.NewSurface(),
		Logger:    appLogger,
		Interval:  stepInterval(),
	})
	if err != nil {
		fail("Could not build the playback controller: %v", err)
	}
	defer ctrl.CloseSession()

	// Load the session before the UI starts so the opening frame is
	// already committed; a failure degrades to the raw map
	if err := ctrl.StartSession(ctx, levelID, asciiMap, moves); err != nil {
		appLogger.Warn("playback session degraded", "level_id", levelID, "error", err)
	}

	p := tea.NewProgram(newPlaybackModel(ctrl, levelID), tea.WithAltScreen())
	sink.attach(p)
	if _, err := p.Run(); err != nil {
		fail("Playback UI failed: %v", err)
	}
}
