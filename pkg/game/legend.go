// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package game

// TileKind partitions the symbol alphabet.
type TileKind int

const (
	// KindEntity is a physical object on the board: the player, walls,
	// hazards, goals, pushables, decor.
	KindEntity TileKind = iota

	// KindWord is a rule tile: a noun or a property used to spell rules
	// like "BABA IS YOU".
	KindWord
)

// Tile describes one symbol's identity: its semantic name, its kind,
// and the artwork filename the backend serves for it.
type Tile struct {
	Symbol rune
	Name   string
	Kind   TileKind
	Asset  string // filename under the backend's /img/ route
}

// Legend maps level-text symbols to tile identities. Each single
// character maps to exactly one tile; symbols outside the legend get
// the renderer's placeholder, never a crash.
type Legend struct {
	tiles map[rune]Tile
}

// Lookup returns the tile for a symbol and whether the symbol is known.
func (l *Legend) Lookup(symbol rune) (Tile, bool) {
	t, ok := l.tiles[symbol]
	return t, ok
}

// Symbols returns every symbol the legend knows about.
func (l *Legend) Symbols() []rune {
	out := make([]rune, 0, len(l.tiles))
	for r := range l.tiles {
		out = append(out, r)
	}
	return out
}

// EmptySymbol is the background cell in level text.
const EmptySymbol = '_'

// DefaultLegend returns the KEKE symbol alphabet.
//
// Lowercase letters are entities, matching uppercase letters are the
// noun word tile for the same entity, and digits are the relational
// word IS plus the property words. Word tiles spell the rules that give
// entities their behavior, so both halves of the alphabet matter to the
// display even though this client never evaluates rules.
func DefaultLegend() *Legend {
	tiles := map[rune]Tile{
		// Entities
		'_': {Symbol: '_', Name: "empty", Kind: KindEntity, Asset: "empty.png"},
		' ': {Symbol: ' ', Name: "empty", Kind: KindEntity, Asset: "empty.png"},
		'#': {Symbol: '#', Name: "border", Kind: KindEntity, Asset: "border.png"},
		'b': {Symbol: 'b', Name: "baba", Kind: KindEntity, Asset: "baba.png"},
		'k': {Symbol: 'k', Name: "keke", Kind: KindEntity, Asset: "keke.png"},
		'w': {Symbol: 'w', Name: "wall", Kind: KindEntity, Asset: "wall.png"},
		's': {Symbol: 's', Name: "skull", Kind: KindEntity, Asset: "skull.png"},
		'f': {Symbol: 'f', Name: "flag", Kind: KindEntity, Asset: "flag.png"},
		'r': {Symbol: 'r', Name: "rock", Kind: KindEntity, Asset: "rock.png"},
		'l': {Symbol: 'l', Name: "love", Kind: KindEntity, Asset: "love.png"},
		'o': {Symbol: 'o', Name: "floor", Kind: KindEntity, Asset: "floor.png"},
		'a': {Symbol: 'a', Name: "grass", Kind: KindEntity, Asset: "grass.png"},
		'g': {Symbol: 'g', Name: "goop", Kind: KindEntity, Asset: "goop.png"},
		'v': {Symbol: 'v', Name: "lava", Kind: KindEntity, Asset: "lava.png"},

		// Noun words (spell the entity's name in rules)
		'B': {Symbol: 'B', Name: "word-baba", Kind: KindWord, Asset: "word_baba.png"},
		'K': {Symbol: 'K', Name: "word-keke", Kind: KindWord, Asset: "word_keke.png"},
		'W': {Symbol: 'W', Name: "word-wall", Kind: KindWord, Asset: "word_wall.png"},
		'S': {Symbol: 'S', Name: "word-skull", Kind: KindWord, Asset: "word_skull.png"},
		'F': {Symbol: 'F', Name: "word-flag", Kind: KindWord, Asset: "word_flag.png"},
		'R': {Symbol: 'R', Name: "word-rock", Kind: KindWord, Asset: "word_rock.png"},
		'L': {Symbol: 'L', Name: "word-love", Kind: KindWord, Asset: "word_love.png"},
		'O': {Symbol: 'O', Name: "word-floor", Kind: KindWord, Asset: "word_floor.png"},
		'A': {Symbol: 'A', Name: "word-grass", Kind: KindWord, Asset: "word_grass.png"},
		'G': {Symbol: 'G', Name: "word-goop", Kind: KindWord, Asset: "word_goop.png"},
		'V': {Symbol: 'V', Name: "word-lava", Kind: KindWord, Asset: "word_lava.png"},

		// Relational and property words
		'1': {Symbol: '1', Name: "word-is", Kind: KindWord, Asset: "word_is.png"},
		'2': {Symbol: '2', Name: "word-you", Kind: KindWord, Asset: "word_you.png"},
		'3': {Symbol: '3', Name: "word-win", Kind: KindWord, Asset: "word_win.png"},
		'4': {Symbol: '4', Name: "word-move", Kind: KindWord, Asset: "word_move.png"},
		'5': {Symbol: '5', Name: "word-stop", Kind: KindWord, Asset: "word_stop.png"},
		'6': {Symbol: '6', Name: "word-push", Kind: KindWord, Asset: "word_push.png"},
		'7': {Symbol: '7', Name: "word-sink", Kind: KindWord, Asset: "word_sink.png"},
		'8': {Symbol: '8', Name: "word-kill", Kind: KindWord, Asset: "word_kill.png"},
		'9': {Symbol: '9', Name: "word-melt", Kind: KindWord, Asset: "word_melt.png"},
		'0': {Symbol: '0', Name: "word-hot", Kind: KindWord, Asset: "word_hot.png"},
	}
	return &Legend{tiles: tiles}
}
