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
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Frame sets for the waiting animation. Dots is the default; the others
// are available for commands that want a different flavor.
var (
	FramesDots   = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	FramesPixel  = []string{"▖", "▘", "▝", "▗"}
	FramesSearch = []string{"◐", "◓", "◑", "◒"}
)

// SpinnerConfig configures a Spinner. The zero value of every field has
// a usable default.
type SpinnerConfig struct {
	// Message is the line shown next to the animation.
	Message string

	// Frames is the animation cycle. Default: FramesDots.
	Frames []string

	// Interval is the time per frame. Default: 80ms.
	Interval time.Duration

	// Out receives the rendered frames. Default: os.Stdout.
	Out io.Writer
}

// Spinner is a single-line waiting indicator for network calls.
//
// In machine personality it degrades to one `PROGRESS:` line on Start
// and animates nothing, so piped output stays parseable.
type Spinner struct {
	mu       sync.Mutex
	message  string
	frames   []string
	interval time.Duration
	out      io.Writer
	stop     chan struct{}
	done     chan struct{}
	running  bool
	animated bool
}

// NewSpinner creates a spinner from config, applying defaults for zero
// fields.
func NewSpinner(cfg SpinnerConfig) *Spinner {
	if len(cfg.Frames) == 0 {
		cfg.Frames = FramesDots
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 80 * time.Millisecond
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &Spinner{
		message:  cfg.Message,
		frames:   cfg.Frames,
		interval: cfg.Interval,
		out:      cfg.Out,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the animation. Starting twice is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.animated = GetPersonality().Level != PersonalityMachine
	s.mu.Unlock()

	if !s.animated {
		fmt.Fprintf(s.out, "PROGRESS: %s\n", s.message)
		return
	}

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			select {
			case <-s.stop:
				// Clear the animation line
				fmt.Fprint(s.out, "\r\033[K")
				return
			case <-ticker.C:
				s.mu.Lock()
				msg := s.message
				s.mu.Unlock()
				glyph := Styles.Highlight.Render(s.frames[frame%len(s.frames)])
				fmt.Fprintf(s.out, "\r%s %s", glyph, msg)
			}
		}
	}()
}

// Stop halts the animation and clears its line. Stopping twice, or a
// spinner that never started, is a no-op.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	animated := s.animated
	s.mu.Unlock()

	if !animated {
		return
	}
	close(s.stop)
	<-s.done
}

// SetMessage swaps the message mid-animation. The next frame shows it.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// WithSpinner runs fn under a spinner and prints the outcome: the
// message as a success line, or the message and error as an error
// line. The error is returned either way so callers keep handling it.
func WithSpinner(message string, fn func() error) error {
	spin := NewSpinner(SpinnerConfig{Message: message})
	spin.Start()

	err := fn()
	spin.Stop()

	if err != nil {
		Error(fmt.Sprintf("%s: %v", message, err))
		return err
	}
	Success(message)
	return nil
}
