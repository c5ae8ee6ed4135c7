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
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/kekectl/pkg/logging"
	"github.com/AleutianAI/kekectl/pkg/ux"
)

// maxSpriteBytes bounds one sprite download. The backend's tiles are
// small PNGs; anything past this is a broken response.
const maxSpriteBytes = 1 << 20

// HTTPConfig configures an HTTPLoader.
type HTTPConfig struct {
	// BaseURL is the solver backend root, e.g. "http://localhost:8080".
	// Required.
	BaseURL string

	// Client is the HTTP client to use. Default: 10s timeout.
	Client *http.Client

	// Limiter throttles fetches so warming a large level set does not
	// hammer the backend. Default: 20 req/s with bursts of 5.
	Limiter *rate.Limiter

	// Logger receives fetch diagnostics. Default: logging.Default().
	Logger *logging.Logger
}

// HTTPLoader fetches sprite PNGs from the backend's /img/ route and
// derives terminal art from them: the tile keeps its built-in glyph
// shape but takes the sprite's dominant color.
type HTTPLoader struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *logging.Logger
}

// NewHTTPLoader creates a loader from config, applying defaults for
// nil fields.
func NewHTTPLoader(cfg HTTPConfig) *HTTPLoader {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Limiter == nil {
		cfg.Limiter = rate.NewLimiter(rate.Limit(20), 5)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &HTTPLoader{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  cfg.Client,
		limiter: cfg.Limiter,
		logger:  cfg.Logger,
	}
}

// Load fetches one asset and derives its terminal art.
func (l *HTTPLoader) Load(ctx context.Context, name string) (ux.TileArt, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return ux.TileArt{}, err
	}

	url := fmt.Sprintf("%s/img/%s", l.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ux.TileArt{}, fmt.Errorf("building sprite request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return ux.TileArt{}, fmt.Errorf("fetching sprite %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ux.TileArt{}, fmt.Errorf("fetching sprite %s: status %d", name, resp.StatusCode)
	}

	img, err := png.Decode(io.LimitReader(resp.Body, maxSpriteBytes))
	if err != nil {
		return ux.TileArt{}, fmt.Errorf("decoding sprite %s: %w", name, err)
	}

	color, ok := dominantColor(img)
	if !ok {
		// Fully transparent artwork still counts as loaded; the glyph
		// shape alone carries the tile
		l.logger.Debug("sprite has no opaque pixels", "asset", name)
		return ux.TileArt{Glyph: ux.DefaultGlyph(baseName(name))}, nil
	}

	return ux.TileArt{
		Glyph: ux.DefaultGlyph(baseName(name)),
		Style: lipgloss.NewStyle().Foreground(color),
	}, nil
}

// baseName strips the image extension from an asset name.
func baseName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

// dominantColor averages the opaque pixels of an image into one
// terminal color. Reports false when no pixel is opaque enough to
// count.
func dominantColor(img image.Image) (lipgloss.Color, bool) {
	bounds := img.Bounds()

	// Sample on a stride so large images stay cheap
	stride := 1
	if w := bounds.Dx(); w > 64 {
		stride = w / 64
	}

	var rSum, gSum, bSum, count uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r, g, b, a := img.At(x, y).RGBA()
			if a < 0x8000 {
				continue
			}
			rSum += uint64(r >> 8)
			gSum += uint64(g >> 8)
			bSum += uint64(b >> 8)
			count++
		}
	}

	if count == 0 {
		return "", false
	}
	hex := fmt.Sprintf("#%02X%02X%02X", uint8(rSum/count), uint8(gSum/count), uint8(bSum/count))
	return lipgloss.Color(hex), true
}

// Compile-time interface check
var _ Loader = (*HTTPLoader)(nil)
