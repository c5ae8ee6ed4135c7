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
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/kekectl/pkg/ux"
)

// encodePNG renders an image through the paint function and returns
// the encoded bytes.
func encodePNG(t *testing.T, w, h int, paint func(x, y int) color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, paint(x, y))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// spriteServer serves the given body for every request and records the
// last path it saw.
func spriteServer(t *testing.T, status int, body []byte, lastPath *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if lastPath != nil {
			*lastPath = r.URL.Path
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestHTTPLoader_LoadDerivesDominantColor verifies that a solid-color
// sprite yields the built-in glyph recolored to the sprite's color,
// fetched from the backend's /img/ route.
func TestHTTPLoader_LoadDerivesDominantColor(t *testing.T) {
	red := encodePNG(t, 8, 8, func(x, y int) color.Color {
		return color.RGBA{R: 0xFF, A: 0xFF}
	})
	var gotPath string
	srv := spriteServer(t, http.StatusOK, red, &gotPath)

	loader := NewHTTPLoader(HTTPConfig{BaseURL: srv.URL, Logger: testLogger(t)})
	art, err := loader.Load(context.Background(), "baba.png")
	require.NoError(t, err)

	assert.Equal(t, "/img/baba.png", gotPath)
	assert.Equal(t, ux.DefaultGlyph("baba"), art.Glyph)
	assert.Equal(t, lipgloss.Color("#FF0000"), art.Style.GetForeground())
}

// TestHTTPLoader_LoadAveragesColors verifies that multi-colored
// artwork averages into a single terminal color.
func TestHTTPLoader_LoadAveragesColors(t *testing.T) {
	// Top half red, bottom half blue: both channels average to 127
	split := encodePNG(t, 8, 8, func(x, y int) color.Color {
		if y < 4 {
			return color.RGBA{R: 0xFF, A: 0xFF}
		}
		return color.RGBA{B: 0xFF, A: 0xFF}
	})
	srv := spriteServer(t, http.StatusOK, split, nil)

	loader := NewHTTPLoader(HTTPConfig{BaseURL: srv.URL, Logger: testLogger(t)})
	art, err := loader.Load(context.Background(), "rock.png")
	require.NoError(t, err)
	assert.Equal(t, lipgloss.Color("#7F007F"), art.Style.GetForeground())
}

// TestHTTPLoader_LoadTransparentSprite verifies that artwork with no
// opaque pixels still loads, keeping the glyph without a color.
func TestHTTPLoader_LoadTransparentSprite(t *testing.T) {
	clear := encodePNG(t, 4, 4, func(x, y int) color.Color {
		return color.RGBA{}
	})
	srv := spriteServer(t, http.StatusOK, clear, nil)

	loader := NewHTTPLoader(HTTPConfig{BaseURL: srv.URL, Logger: testLogger(t)})
	art, err := loader.Load(context.Background(), "flag.png")
	require.NoError(t, err)
	assert.NotEmpty(t, art.Glyph)
	assert.Equal(t, lipgloss.NoColor{}, art.Style.GetForeground())
}

// TestHTTPLoader_LoadStatusError verifies that a non-200 response is
// reported as a load failure.
func TestHTTPLoader_LoadStatusError(t *testing.T) {
	srv := spriteServer(t, http.StatusNotFound, []byte("no such sprite"), nil)

	loader := NewHTTPLoader(HTTPConfig{BaseURL: srv.URL, Logger: testLogger(t)})
	_, err := loader.Load(context.Background(), "ghost.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

// TestHTTPLoader_LoadDecodeError verifies that a response that is not
// a PNG is reported as a decode failure.
func TestHTTPLoader_LoadDecodeError(t *testing.T) {
	srv := spriteServer(t, http.StatusOK, []byte("this is not image data"), nil)

	loader := NewHTTPLoader(HTTPConfig{BaseURL: srv.URL, Logger: testLogger(t)})
	_, err := loader.Load(context.Background(), "wall.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding sprite")
}

// TestHTTPLoader_LimiterBoundsFetches verifies that the rate limiter
// gates fetches before any request is made.
func TestHTTPLoader_LimiterBoundsFetches(t *testing.T) {
	red := encodePNG(t, 2, 2, func(x, y int) color.Color {
		return color.RGBA{R: 0xFF, A: 0xFF}
	})
	srv := spriteServer(t, http.StatusOK, red, nil)

	// One token, replenished far too slowly to matter
	loader := NewHTTPLoader(HTTPConfig{
		BaseURL: srv.URL,
		Limiter: rate.NewLimiter(rate.Every(time.Hour), 1),
		Logger:  testLogger(t),
	})

	_, err := loader.Load(context.Background(), "baba.png")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = loader.Load(ctx, "keke.png")
	require.Error(t, err)
}

// TestBaseName verifies asset name trimming for glyph lookup.
func TestBaseName(t *testing.T) {
	assert.Equal(t, "baba", baseName("baba.png"))
	assert.Equal(t, "word_is", baseName("word_is.png"))
	assert.Equal(t, "plain", baseName("plain"))
	assert.Equal(t, ".hidden", baseName(".hidden"))
}
