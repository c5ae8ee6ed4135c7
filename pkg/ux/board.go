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
// This file renders KEKE level grids as styled terminal frames and
// provides the surface that playback commits frames to.
package ux

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/kekectl/pkg/game"
)

// =============================================================================
// Tile Art
// =============================================================================

// TileArt is the terminal artwork for one board cell: a glyph sized to
// the tile width plus the style it renders in.
type TileArt struct {
	Glyph string
	Style lipgloss.Style
}

// SpriteSource resolves artwork for a tile. Implementations must not
// block: a tile whose artwork is still loading returns ok=false and the
// renderer falls back to built-in glyphs for that pass.
type SpriteSource interface {
	Art(tile game.Tile) (TileArt, bool)
}

// builtinEntityArt is the fallback artwork per entity name. It doubles
// as the placeholder while sprite artwork is still loading.
var builtinEntityArt = map[string]struct {
	glyph string
	color lipgloss.Color
}{
	"empty":  {"· ", ColorShadow},
	"border": {"██", ColorSlate},
	"baba":   {"☺ ", lipgloss.Color("#ECF0F1")},
	"keke":   {"☻ ", lipgloss.Color("#E74C3C")},
	"wall":   {"▒▒", ColorSlate},
	"skull":  {"☠ ", ColorError},
	"flag":   {"⚑ ", ColorWarning},
	"rock":   {"◆ ", lipgloss.Color("#B5895A")},
	"love":   {"♥ ", lipgloss.Color("#FF6EC7")},
	"floor":  {"░░", ColorDusk},
	"grass":  {"ʺʺ", ColorSuccess},
	"goop":   {"≈≈", lipgloss.Color("#6B8E23")},
	"lava":   {"≈≈", ColorBandLow},
}

// placeholderArt renders symbols the legend does not know.
var placeholderArt = TileArt{
	Glyph: "??",
	Style: lipgloss.NewStyle().Foreground(ColorMuted),
}

// =============================================================================
// Board Renderer
// =============================================================================

// BoardConfig configures a BoardRenderer.
type BoardConfig struct {
	// TileWidth is the number of terminal columns per board cell.
	// Default: 2.
	TileWidth int

	// Legend maps level-text symbols to tiles. Default:
	// game.DefaultLegend().
	Legend *game.Legend

	// Sprites optionally resolves richer artwork (colors sampled from
	// the backend's sprite images). Nil means built-in glyphs only.
	Sprites SpriteSource
}

// BoardRenderer turns level grids into styled terminal frames.
//
// Rendering never fails: unknown symbols get the placeholder tile,
// tiles whose sprite artwork is not ready yet get built-in glyphs, and
// an empty grid renders the no-data frame. Ragged rows render at their
// literal length.
//
// A BoardRenderer is stateless apart from its config and safe for
// concurrent use.
type BoardRenderer struct {
	tileWidth int
	legend    *game.Legend
	sprites   SpriteSource
}

// NewBoardRenderer creates a renderer from config, applying defaults
// for zero fields.
func NewBoardRenderer(cfg BoardConfig) *BoardRenderer {
	if cfg.TileWidth <= 0 {
		cfg.TileWidth = 2
	}
	if cfg.Legend == nil {
		cfg.Legend = game.DefaultLegend()
	}
	return &BoardRenderer{
		tileWidth: cfg.TileWidth,
		legend:    cfg.Legend,
		sprites:   cfg.Sprites,
	}
}

// Render produces one frame for a grid. Empty grids produce the
// no-data frame.
func (b *BoardRenderer) Render(grid game.Grid) string {
	if grid.IsEmpty() {
		return b.renderNoData()
	}

	var sb strings.Builder
	for i, row := range grid {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for _, sym := range row {
			sb.WriteString(b.renderCell(sym))
		}
	}
	return sb.String()
}

// RenderText decodes level text and renders it in one step.
func (b *BoardRenderer) RenderText(text string) string {
	return b.Render(game.Decode(text))
}

// renderCell resolves one symbol to styled glyphs.
func (b *BoardRenderer) renderCell(sym rune) string {
	tile, ok := b.legend.Lookup(sym)
	if !ok {
		return placeholderArt.Style.Render(padGlyph(placeholderArt.Glyph, b.tileWidth))
	}

	// Sprite artwork wins when it is ready
	if b.sprites != nil {
		if art, ok := b.sprites.Art(tile); ok {
			return art.Style.Render(padGlyph(art.Glyph, b.tileWidth))
		}
	}

	return b.builtinArt(tile)
}

// builtinArt renders a tile from the built-in glyph tables.
func (b *BoardRenderer) builtinArt(tile game.Tile) string {
	if tile.Kind == game.KindWord {
		return Styles.Highlight.Render(padGlyph(wordGlyph(tile.Name), b.tileWidth))
	}

	art, ok := builtinEntityArt[tile.Name]
	if !ok {
		return placeholderArt.Style.Render(padGlyph(placeholderArt.Glyph, b.tileWidth))
	}
	return lipgloss.NewStyle().Foreground(art.color).Render(padGlyph(art.glyph, b.tileWidth))
}

// renderNoData produces the frame shown when a level has no map text.
func (b *BoardRenderer) renderNoData() string {
	msg := Styles.Muted.Render("no map data")
	return Styles.Box.Render(msg)
}

// wordGlyph abbreviates a word tile's name ("word-is" -> "IS") to two
// characters.
func wordGlyph(name string) string {
	word := strings.TrimPrefix(name, "word-")
	word = strings.ToUpper(word)
	if len(word) >= 2 {
		return word[:2]
	}
	return word
}

// DefaultGlyph returns the built-in glyph for an asset's base name
// ("baba" -> the baba glyph, "word_is" -> "IS"). Sprite loaders reuse
// these shapes and recolor them from the fetched artwork. Unknown names
// get the placeholder glyph.
func DefaultGlyph(name string) string {
	if rest, ok := strings.CutPrefix(name, "word_"); ok {
		return padGlyph(wordGlyph("word-"+rest), 2)
	}
	if art, ok := builtinEntityArt[name]; ok {
		return art.glyph
	}
	return placeholderArt.Glyph
}

// padGlyph sizes a glyph to exactly width runes.
func padGlyph(glyph string, width int) string {
	runes := []rune(glyph)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return glyph + strings.Repeat(" ", width-len(runes))
}

// =============================================================================
// Surface
// =============================================================================

// Surface holds the most recently committed frame for display.
//
// Render passes claim a generation with Begin and commit their frame
// with that token. A commit loses when a newer pass began in between,
// so at most one frame is ever pending and the newest always wins;
// slow renders can never queue up behind each other.
type Surface struct {
	mu    sync.Mutex
	gen   uint64
	frame string
}

// NewSurface creates an empty surface.
func NewSurface() *Surface {
	return &Surface{}
}

// Begin claims the next render generation. Every later Begin
// invalidates tokens from earlier ones.
func (s *Surface) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// Commit installs a frame rendered under gen. It reports false, and
// installs nothing, when a newer generation has begun since.
func (s *Surface) Commit(gen uint64, frame string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.frame = frame
	return true
}

// Frame returns the last committed frame, empty if none committed yet.
func (s *Surface) Frame() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Generation returns the most recently claimed generation.
func (s *Surface) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}
