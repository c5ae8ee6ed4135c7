// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sprites memoizes tile artwork fetched from the solver
// backend's image route.
//
// The cache is asynchronous: a first request for an asset starts a
// background load and immediately reports the loading state, so render
// paths never block on the network. Concurrent requests for the same
// asset coalesce into one fetch. Load outcomes are permanent: a Ready
// sprite serves its art forever and a Failed sprite is never retried,
// its tiles fall back to built-in glyphs for the life of the process.
package sprites

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/kekectl/pkg/game"
	"github.com/AleutianAI/kekectl/pkg/logging"
	"github.com/AleutianAI/kekectl/pkg/ux"
)

// State is a sprite's lifecycle position.
type State int

const (
	// StateLoading means a fetch is in flight.
	StateLoading State = iota

	// StateReady means the sprite's artwork is available. Terminal.
	StateReady

	// StateFailed means the fetch failed. Terminal: the asset is never
	// retried.
	StateFailed
)

// String returns the state's display name.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Sprite is one cached asset: its name, lifecycle state, and derived
// terminal artwork.
type Sprite struct {
	Name  string
	State State
	Art   ux.TileArt
	Err   error
}

// Loader fetches artwork for an asset name.
type Loader interface {
	Load(ctx context.Context, name string) (ux.TileArt, error)
}

// Config configures a Cache.
type Config struct {
	// Loader performs the actual fetches. Required.
	Loader Loader

	// Logger receives load diagnostics. Default: logging.Default().
	Logger *logging.Logger

	// OnUpdate, when set, is invoked each time a sprite reaches a
	// terminal state, so displays can repaint with the new art. Called
	// from loader goroutines; implementations must be safe for that.
	OnUpdate func(name string)

	// BaseContext bounds loads triggered from render paths (which carry
	// no context of their own). Default: context.Background().
	BaseContext context.Context
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Entries  int
	Ready    int
	Failed   int
	Hits     int64
	Misses   int64
	Loads    int64
	Failures int64
}

// Cache memoizes sprites by asset name.
//
// Thread Safety:
//
//	Cache is safe for concurrent use. The entry map is guarded by an
//	RWMutex; concurrent loads for one asset are deduplicated with
//	singleflight.
type Cache struct {
	mu      sync.RWMutex
	sprites map[string]*Sprite
	flight  singleflight.Group
	loader  Loader
	logger  *logging.Logger
	onUpd   func(string)
	baseCtx context.Context

	// Stats
	hits     int64
	misses   int64
	loads    int64
	failures int64
}

// New creates a Cache from config, applying defaults for nil fields.
func New(cfg Config) *Cache {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.BaseContext == nil {
		cfg.BaseContext = context.Background()
	}
	return &Cache{
		sprites: make(map[string]*Sprite),
		loader:  cfg.Loader,
		logger:  cfg.Logger,
		onUpd:   cfg.OnUpdate,
		baseCtx: cfg.BaseContext,
	}
}

// Resolve returns the sprite for an asset name without blocking.
//
// A name seen for the first time gets a Loading sprite back and a
// background fetch; callers render their fallback until OnUpdate fires.
// Known names return their current state immediately.
func (c *Cache) Resolve(ctx context.Context, name string) Sprite {
	c.mu.RLock()
	s, ok := c.sprites[name]
	c.mu.RUnlock()
	if ok {
		atomic.AddInt64(&c.hits, 1)
		return *s
	}

	atomic.AddInt64(&c.misses, 1)

	c.mu.Lock()
	if s, ok = c.sprites[name]; ok {
		c.mu.Unlock()
		return *s
	}
	s = &Sprite{Name: name, State: StateLoading}
	c.sprites[name] = s
	c.mu.Unlock()

	go func() {
		_, _, _ = c.flight.Do(name, func() (interface{}, error) {
			return c.doLoad(ctx, name)
		})
	}()

	return Sprite{Name: name, State: StateLoading}
}

// ResolveWait blocks until the sprite reaches a terminal state.
//
// Joins an in-flight load if one is running. The returned error is the
// sprite's permanent load error, or the transient error this wait hit
// (a canceled fetch leaves the asset unresolved, not failed).
func (c *Cache) ResolveWait(ctx context.Context, name string) (Sprite, error) {
	// Fast path: already terminal
	c.mu.RLock()
	if s, ok := c.sprites[name]; ok && s.State != StateLoading {
		out := *s
		c.mu.RUnlock()
		return out, out.Err
	}
	c.mu.RUnlock()

	c.mu.Lock()
	if _, ok := c.sprites[name]; !ok {
		c.sprites[name] = &Sprite{Name: name, State: StateLoading}
	}
	c.mu.Unlock()

	_, err, _ := c.flight.Do(name, func() (interface{}, error) {
		return c.doLoad(ctx, name)
	})

	c.mu.RLock()
	s, ok := c.sprites[name]
	c.mu.RUnlock()
	if !ok {
		// A canceled fetch removed the entry; the asset stays
		// unresolved for the next request
		return Sprite{Name: name, State: StateLoading}, err
	}
	out := *s
	if err != nil {
		return out, err
	}
	return out, out.Err
}

// doLoad performs one fetch and installs the terminal state. Terminal
// entries are left untouched, so a sprite never reloads.
func (c *Cache) doLoad(ctx context.Context, name string) (ux.TileArt, error) {
	c.mu.RLock()
	if s, ok := c.sprites[name]; ok && s.State != StateLoading {
		art, err := s.Art, s.Err
		c.mu.RUnlock()
		return art, err
	}
	c.mu.RUnlock()

	art, err := c.loader.Load(ctx, name)

	// A canceled fetch is not a verdict on the asset; forget the entry
	// so a later request can try again
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		c.mu.Lock()
		if s, ok := c.sprites[name]; ok && s.State == StateLoading {
			delete(c.sprites, name)
		}
		c.mu.Unlock()
		return art, err
	}

	c.mu.Lock()
	s, ok := c.sprites[name]
	if !ok {
		s = &Sprite{Name: name, State: StateLoading}
		c.sprites[name] = s
	}
	if s.State == StateLoading {
		if err != nil {
			s.State = StateFailed
			s.Err = err
			atomic.AddInt64(&c.failures, 1)
			c.logger.Warn("sprite load failed", "asset", name, "error", err)
		} else {
			s.State = StateReady
			s.Art = art
			atomic.AddInt64(&c.loads, 1)
			c.logger.Debug("sprite loaded", "asset", name)
		}
	}
	c.mu.Unlock()

	if c.onUpd != nil {
		c.onUpd(name)
	}
	return art, err
}

// Art implements ux.SpriteSource. Only Ready sprites serve art; a miss
// starts a background load under the cache's base context so the tile
// upgrades on a later render pass.
func (c *Cache) Art(tile game.Tile) (ux.TileArt, bool) {
	c.mu.RLock()
	s, ok := c.sprites[tile.Asset]
	c.mu.RUnlock()

	if !ok {
		c.Resolve(c.baseCtx, tile.Asset)
		return ux.TileArt{}, false
	}
	if s.State != StateReady {
		return ux.TileArt{}, false
	}
	return s.Art, true
}

// Warm starts loads for every asset a grid's symbols map to. Unknown
// symbols are skipped; they render as placeholders regardless.
func (c *Cache) Warm(ctx context.Context, grid game.Grid, legend *game.Legend) {
	if legend == nil {
		legend = game.DefaultLegend()
	}
	for _, sym := range grid.Symbols() {
		if tile, ok := legend.Lookup(sym); ok {
			c.Resolve(ctx, tile.Asset)
		}
	}
}

// Stats returns current cache counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		Entries:  len(c.sprites),
		Hits:     atomic.LoadInt64(&c.hits),
		Misses:   atomic.LoadInt64(&c.misses),
		Loads:    atomic.LoadInt64(&c.loads),
		Failures: atomic.LoadInt64(&c.failures),
	}
	for _, s := range c.sprites {
		switch s.State {
		case StateReady:
			stats.Ready++
		case StateFailed:
			stats.Failed++
		}
	}
	return stats
}

// Compile-time interface check
var _ ux.SpriteSource = (*Cache)(nil)
