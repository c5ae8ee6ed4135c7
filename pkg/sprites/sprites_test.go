// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sprites

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/kekectl/pkg/game"
	"github.com/AleutianAI/kekectl/pkg/logging"
	"github.com/AleutianAI/kekectl/pkg/ux"
)

// stubLoader serves canned art and counts calls.
type stubLoader struct {
	mu    sync.Mutex
	calls map[string]int
	art   ux.TileArt
	err   error
	block chan struct{} // when set, Load waits for it
}

func newStubLoader() *stubLoader {
	return &stubLoader{
		calls: make(map[string]int),
		art:   ux.TileArt{Glyph: "@@", Style: lipgloss.NewStyle()},
	}
}

func (l *stubLoader) Load(ctx context.Context, name string) (ux.TileArt, error) {
	l.mu.Lock()
	l.calls[name]++
	block := l.block
	l.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ux.TileArt{}, ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return ux.TileArt{}, ctx.Err()
	}
	return l.art, l.err
}

func (l *stubLoader) callCount(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[name]
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger := logging.New(logging.Config{Level: logging.LevelError, Quiet: true})
	t.Cleanup(func() { logger.Close() })
	return logger
}

// TestCache_ResolveIsNonBlocking verifies a first request reports
// loading immediately and reaches ready without the caller blocking.
func TestCache_ResolveIsNonBlocking(t *testing.T) {
	loader := newStubLoader()
	cache := New(Config{Loader: loader, Logger: testLogger(t)})

	s := cache.Resolve(context.Background(), "baba.png")
	assert.Equal(t, StateLoading, s.State)

	s, err := cache.ResolveWait(context.Background(), "baba.png")
	require.NoError(t, err)
	assert.Equal(t, StateReady, s.State)
	assert.Equal(t, "@@", s.Art.Glyph)
}

// TestCache_CoalescesConcurrentRequests verifies many concurrent
// requests for one asset produce exactly one fetch.
func TestCache_CoalescesConcurrentRequests(t *testing.T) {
	loader := newStubLoader()
	loader.block = make(chan struct{})
	cache := New(Config{Loader: loader, Logger: testLogger(t)})

	const workers = 16
	var wg sync.WaitGroup
	var ready int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := cache.ResolveWait(context.Background(), "wall.png")
			if err == nil && s.State == StateReady {
				atomic.AddInt64(&ready, 1)
			}
		}()
	}

	// Give the waiters a moment to pile onto the same flight, then
	// release the single fetch
	time.Sleep(20 * time.Millisecond)
	close(loader.block)
	wg.Wait()

	assert.Equal(t, int64(workers), ready)
	assert.Equal(t, 1, loader.callCount("wall.png"))
}

// TestCache_FailureIsPermanent verifies a failed asset is never
// refetched and keeps reporting its error.
func TestCache_FailureIsPermanent(t *testing.T) {
	loader := newStubLoader()
	loader.err = errors.New("404 from backend")
	cache := New(Config{Loader: loader, Logger: testLogger(t)})

	_, err := cache.ResolveWait(context.Background(), "missing.png")
	require.Error(t, err)

	s, err := cache.ResolveWait(context.Background(), "missing.png")
	require.Error(t, err)
	assert.Equal(t, StateFailed, s.State)
	assert.Equal(t, 1, loader.callCount("missing.png"), "failed asset must not be retried")

	s = cache.Resolve(context.Background(), "missing.png")
	assert.Equal(t, StateFailed, s.State)
}

// TestCache_CancellationAllowsRetry verifies a canceled fetch does not
// poison the asset.
func TestCache_CancellationAllowsRetry(t *testing.T) {
	loader := newStubLoader()
	cache := New(Config{Loader: loader, Logger: testLogger(t)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cache.ResolveWait(ctx, "rock.png")
	require.Error(t, err)

	s, err := cache.ResolveWait(context.Background(), "rock.png")
	require.NoError(t, err)
	assert.Equal(t, StateReady, s.State)
}

// TestCache_ArtServesOnlyReady verifies the SpriteSource view: misses
// return no art but start a load, ready sprites serve their art.
func TestCache_ArtServesOnlyReady(t *testing.T) {
	loader := newStubLoader()
	updated := make(chan string, 1)
	cache := New(Config{
		Loader:   loader,
		Logger:   testLogger(t),
		OnUpdate: func(name string) { updated <- name },
	})

	tile := game.Tile{Symbol: 'b', Name: "baba", Kind: game.KindEntity, Asset: "baba.png"}

	_, ok := cache.Art(tile)
	assert.False(t, ok, "miss must not serve art")

	select {
	case name := <-updated:
		assert.Equal(t, "baba.png", name)
	case <-time.After(2 * time.Second):
		t.Fatal("expected background load to finish")
	}

	art, ok := cache.Art(tile)
	require.True(t, ok)
	assert.Equal(t, "@@", art.Glyph)
}

// TestCache_Warm verifies warming a grid starts loads for every legend
// symbol on it.
func TestCache_Warm(t *testing.T) {
	loader := newStubLoader()
	cache := New(Config{Loader: loader, Logger: testLogger(t)})

	grid := game.Decode("_b_\n_f_")
	cache.Warm(context.Background(), grid, game.DefaultLegend())

	for _, asset := range []string{"empty.png", "baba.png", "flag.png"} {
		s, err := cache.ResolveWait(context.Background(), asset)
		require.NoError(t, err, asset)
		assert.Equal(t, StateReady, s.State, asset)
	}
}

// TestCache_Stats verifies counter bookkeeping.
func TestCache_Stats(t *testing.T) {
	loader := newStubLoader()
	cache := New(Config{Loader: loader, Logger: testLogger(t)})

	_, err := cache.ResolveWait(context.Background(), "baba.png")
	require.NoError(t, err)
	cache.Resolve(context.Background(), "baba.png") // hit

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 1, stats.Ready)
	assert.Zero(t, stats.Failed)
	assert.GreaterOrEqual(t, stats.Hits, int64(1))
	assert.Equal(t, int64(1), stats.Loads)
}

// TestState_String verifies state names for logs.
func TestState_String(t *testing.T) {
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "failed", StateFailed.String())
}
