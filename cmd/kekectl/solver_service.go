// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package main contains the kekectl CLI solver service implementation.
//
// This file defines the SolverService interface and its HTTP
// implementation for communicating with the KEKE solver backend. The
// progress endpoint follows the layered streaming architecture:
//
//	HTTP Response Body → SSEParser → SSEStreamReader → ProgressRenderer → ProgressSummary
//
// # Architecture
//
//	Commands → SolverService Interface → HTTPClient Interface → http.Client
//	                 ↓                            ↓
//	          solverService              SSEParser → SSEStreamReader
//	                                                      ↓
//	                                              ProgressRenderer
//
// # File Organization
//
// This file follows optimal Go code style:
//  1. Interfaces (contracts first)
//  2. Wire types
//  3. Configuration structs
//  4. Implementation structs
//  5. Constructor functions
//  6. Methods on structs
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/AleutianAI/kekectl/pkg/game"
	"github.com/AleutianAI/kekectl/pkg/logging"
	"github.com/AleutianAI/kekectl/pkg/playback"
	"github.com/AleutianAI/kekectl/pkg/store"
	"github.com/AleutianAI/kekectl/pkg/ux"
)

// =============================================================================
// INTERFACES
// =============================================================================

// HTTPClient abstracts HTTP operations for service implementations.
//
// Production code uses defaultHTTPClient; tests inject mocks through the
// *WithClient constructors.
type HTTPClient interface {
	// Get performs an HTTP GET. The caller must close the response body.
	Get(ctx context.Context, url string) (*http.Response, error)

	// Post performs an HTTP POST. The caller must close the response body.
	Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error)
}

// SolverService defines the contract for talking to the KEKE solver
// backend.
//
// # Description
//
// One instance covers the full backend surface: batch solve submission,
// the SSE progress stream, level details, replay state generation, the
// save endpoint, solution cache management, and the catalog/leaderboard
// reads.
//
// # Thread Safety
//
// All methods are safe for concurrent use. StreamProgress additionally
// guarantees that at most one progress stream is open per service:
// opening a new one cancels the previous one first, so a stale stream
// can never deliver late events to the UI.
//
// # Examples
//
//	svc := NewSolverService(SolverServiceConfig{BaseURL: "http://localhost:8080"})
//	defer svc.Close()
//
//	sub, err := svc.StartSolve(ctx, SolveRequest{
//		Agent:      "default",
//		LevelSet:   "demo_LEVELS",
//		Iterations: 10000,
//		UseCache:   true,
//	})
//	if err != nil {
//		return err
//	}
//	summary, err := svc.StreamProgress(ctx, sub.SessionID, renderer)
//
// # Assumptions
//
//   - The backend speaks the JSON/SSE wire format of the KEKE server
//   - Callers handle context lifecycle (cancellation, timeout)
type SolverService interface {
	// StartSolve submits a batch solve and returns the session handle.
	//
	// The request is validated client-side before dispatch; an invalid
	// request never reaches the wire.
	StartSolve(ctx context.Context, req SolveRequest) (SolveSubmission, error)

	// StreamProgress consumes the progress stream for a session,
	// routing each event to the renderer, and returns the accumulated
	// summary.
	//
	// Events are processed synchronously in arrival order. A solver
	// error event ends the stream without a transport error; the
	// message lands in the summary. At most one stream is open per
	// service; a second call supersedes the first.
	StreamProgress(ctx context.Context, sessionID string, renderer ux.ProgressRenderer) (*ux.ProgressSummary, error)

	// LevelDetails fetches one level's map text and stored solution.
	LevelDetails(ctx context.Context, levelSet, levelID string) (LevelDetails, error)

	// GenerateStates asks the backend to simulate a solution into
	// step-by-step board states. Satisfies playback.StateGenerator.
	GenerateStates(ctx context.Context, asciiMap string, moves []game.MoveToken) ([]game.GameState, error)

	// SaveSolution posts a solved level back to the server's solution
	// directory. Transport or server failure returns an error; callers
	// decide whether to fall back to the local store.
	SaveSolution(ctx context.Context, sol store.SavedSolution) (SaveReceipt, error)

	// ManageCache performs a solution-cache operation: CacheActionStats
	// or CacheActionClear.
	ManageCache(ctx context.Context, action string) (CacheResult, error)

	// Agents lists the solver agents the backend offers.
	Agents(ctx context.Context) ([]CatalogEntry, error)

	// LevelSets lists the level sets the backend offers.
	LevelSets(ctx context.Context) ([]CatalogEntry, error)

	// Leaderboard fetches the cross-agent results table.
	Leaderboard(ctx context.Context) ([]LeaderboardRow, error)

	// Close cancels any open progress stream and releases resources.
	Close() error
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// Cache actions accepted by ManageCache.
const (
	CacheActionStats = "get_stats"
	CacheActionClear = "clear_all"
)

// SolveRequest is the batch solve submission payload.
type SolveRequest struct {
	Agent      string `json:"agent" validate:"required"`
	LevelSet   string `json:"levelSet" validate:"required"`
	Iterations int    `json:"iterations" validate:"gte=1"`
	UseCache   bool   `json:"useCache"`
}

// SolveSubmission is the backend's acknowledgement of a batch solve.
type SolveSubmission struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// LevelDetails is one level's record: its map text plus the stored
// solution, which arrives in whatever loose shape the solver wrote it.
type LevelDetails struct {
	ID          string `json:"id"`
	AsciiMap    string `json:"ascii_map"`
	RawSolution any    `json:"solution_path"`
}

// Moves normalizes the stored solution into validated move tokens.
// Garbage normalizes to an empty sequence, never an error.
func (d LevelDetails) Moves() []game.MoveToken {
	moves, _ := game.NormalizeSolution(d.RawSolution)
	return moves
}

// generateStatesRequest is the replay simulation payload.
type generateStatesRequest struct {
	AsciiMap string   `json:"ascii_map" validate:"required"`
	Solution []string `json:"solution"`
}

// wireGameState is one simulated step as the backend encodes it. The
// map text rides in ascii_map with map_string as a legacy duplicate.
type wireGameState struct {
	Step      int    `json:"step"`
	Move      string `json:"move"`
	MapString string `json:"map_string"`
	AsciiMap  string `json:"ascii_map"`
	Won       bool   `json:"won"`
}

// mapText prefers ascii_map and falls back to the legacy field.
func (w wireGameState) mapText() string {
	if w.AsciiMap != "" {
		return w.AsciiMap
	}
	return w.MapString
}

type generateStatesResponse struct {
	Status     string          `json:"status"`
	TotalSteps int             `json:"total_steps"`
	States     []wireGameState `json:"states"`
	Error      string          `json:"error,omitempty"`
}

// saveSolutionRequest wraps a solution record with its target filename.
// The data payload is the same shape the local fallback store persists,
// so a locally recovered record can be re-posted verbatim.
type saveSolutionRequest struct {
	Filename string              `json:"filename" validate:"required"`
	Data     store.SavedSolution `json:"data"`
}

// SaveReceipt is the backend's acknowledgement of a saved solution.
type SaveReceipt struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Filepath string `json:"filepath"`
}

// cacheRequest is the solution-cache management payload.
type cacheRequest struct {
	Action string `json:"action" validate:"required,oneof=clear_all get_stats"`
}

// CacheResult is the backend's cache-operation response. Stats is only
// populated for CacheActionStats.
type CacheResult struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Stats   map[string]any `json:"stats,omitempty"`
}

// CatalogEntry is one row of the agent or level-set catalogs.
type CatalogEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LeaderboardRow is one agent's aggregate standing. Accuracy is a
// fraction in [0, 1]; presentation code scales it to a percentage.
type LeaderboardRow struct {
	Agent           string  `json:"agent"`
	LevelSet        string  `json:"level_set"`
	Accuracy        float64 `json:"accuracy"`
	SolvedLevels    int     `json:"solved_levels"`
	TotalLevels     int     `json:"total_levels"`
	AvgTime         float64 `json:"avg_time"`
	AvgIterations   float64 `json:"avg_iterations"`
	AvgEfficiency   float64 `json:"avg_efficiency"`
	TotalExecutions int     `json:"total_executions"`
	BestExecution   string  `json:"best_execution_file"`
}

type leaderboardResponse struct {
	Status      string           `json:"status"`
	Leaderboard []LeaderboardRow `json:"leaderboard"`
	TotalAgents int              `json:"total_agents"`
}

// =============================================================================
// CONFIGURATION STRUCTS
// =============================================================================

// SolverServiceConfig holds configuration for the solver service.
//
// Only BaseURL is required. A zero Timeout leaves the HTTP client
// unbounded, which the progress stream needs: a batch solve can run for
// minutes and the SSE response stays open the whole time. Bounded
// per-call timeouts belong in the caller's context.
type SolverServiceConfig struct {
	BaseURL string          // Base URL of the solver backend (required)
	Timeout time.Duration   // HTTP client timeout (optional, 0 = none)
	Logger  *logging.Logger // Diagnostics destination (optional)
}

// =============================================================================
// IMPLEMENTATION STRUCTS
// =============================================================================

// defaultHTTPClient is the production HTTPClient backed by http.Client.
type defaultHTTPClient struct {
	client *http.Client
}

func (c *defaultHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

func (c *defaultHTTPClient) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.client.Do(req)
}

// solverService implements SolverService over HTTP.
//
// # Fields
//
//   - client: HTTP client for requests
//   - reader: SSE stream reader for the progress endpoint
//   - validate: request validator, applied before dispatch
//   - baseURL: backend base URL, no trailing slash
//   - logger: diagnostics destination
//   - mu: guards cancelStream
//   - cancelStream: cancels the currently open progress stream
//
// # Thread Safety
//
// Safe for concurrent use. The open-stream handle is mutex-guarded;
// everything else is immutable after construction.
type solverService struct {
	client   HTTPClient
	reader   ux.StreamReader
	validate *validator.Validate
	baseURL  string
	logger   *logging.Logger

	mu           sync.Mutex
	streamEpoch  uint64
	cancelStream context.CancelFunc
}

// =============================================================================
// CONSTRUCTOR FUNCTIONS
// =============================================================================

// NewSolverService creates a solver service with a production HTTP
// client.
//
// # Inputs
//
//   - config: Service configuration. Only BaseURL is required.
//
// # Outputs
//
//   - SolverService: Ready-to-use service.
//
// # Examples
//
//	svc := NewSolverService(SolverServiceConfig{BaseURL: "http://localhost:8080"})
//	defer svc.Close()
//
// # Limitations
//
//   - Does not validate BaseURL format
//   - Does not test connectivity
func NewSolverService(config SolverServiceConfig) SolverService {
	return NewSolverServiceWithClient(&defaultHTTPClient{
		client: &http.Client{Timeout: config.Timeout},
	}, config)
}

// NewSolverServiceWithClient creates a solver service with an injected
// HTTP client. Use this constructor for testing with mocks.
func NewSolverServiceWithClient(client HTTPClient, config SolverServiceConfig) SolverService {
	logger := config.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &solverService{
		client:   client,
		reader:   ux.NewSSEStreamReader(ux.NewSSEParser()),
		validate: validator.New(),
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		logger:   logger,
	}
}

// =============================================================================
// SOLVE SUBMISSION
// =============================================================================

// StartSolve submits a batch solve request.
//
// # Description
//
// Validates the request, posts it to /solve_level_set, and returns the
// backend's session handle. The solve itself runs server-side; callers
// follow it with StreamProgress.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - req: The solve submission. Agent and LevelSet are required,
//     Iterations must be at least 1.
//
// # Outputs
//
//   - SolveSubmission: Session ID plus the backend's status string.
//   - error: Non-nil on validation, network, or server errors.
func (s *solverService) StartSolve(ctx context.Context, req SolveRequest) (SolveSubmission, error) {
	if err := s.validate.Struct(req); err != nil {
		return SolveSubmission{}, fmt.Errorf("invalid solve request: %w", err)
	}

	requestID := uuid.New().String()
	s.logger.Info("submitting batch solve",
		"request_id", requestID,
		"agent", req.Agent,
		"level_set", req.LevelSet,
		"iterations", req.Iterations,
		"use_cache", req.UseCache,
	)

	resp, err := s.postJSON(ctx, requestID, "/solve_level_set", req)
	if err != nil {
		return SolveSubmission{}, err
	}
	defer resp.Body.Close()

	if err := s.validateResponse(requestID, resp); err != nil {
		return SolveSubmission{}, err
	}

	var sub SolveSubmission
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return SolveSubmission{}, fmt.Errorf("decode solve response: %w", err)
	}
	if sub.SessionID == "" {
		return SolveSubmission{}, fmt.Errorf("solve response carried no session id")
	}

	s.logger.Debug("batch solve accepted",
		"request_id", requestID,
		"session_id", sub.SessionID,
		"status", sub.Status,
	)
	return sub, nil
}

// =============================================================================
// PROGRESS STREAMING
// =============================================================================

// StreamProgress consumes the progress stream for a session.
//
// # Description
//
// Opens GET /progress/{session_id} and routes each SSE event to the
// renderer synchronously, in arrival order. Before opening, any
// previously open stream on this service is cancelled, so the UI only
// ever hears from one stream.
//
// A solver error event is not a transport error: the stream ends, the
// renderer shows the message, and the summary carries it in Error. The
// returned error covers transport and server failures only.
//
// # Inputs
//
//   - ctx: Context for cancellation. Cancelling mid-stream stops it.
//   - sessionID: The handle from StartSolve.
//   - renderer: Receives events as they arrive. Finalize is called
//     before return, even on failure.
//
// # Outputs
//
//   - *ux.ProgressSummary: Aggregated result, nil on transport failure.
//   - error: Non-nil on network, server, or stream read errors.
func (s *solverService) StreamProgress(ctx context.Context, sessionID string, renderer ux.ProgressRenderer) (*ux.ProgressSummary, error) {
	requestID := uuid.New().String()

	// One open stream per service: supersede the previous one. Each call
	// bumps the stream epoch; teardown only touches the shared handle
	// while the epoch is still its own, so a superseded call unwinding
	// late can never cancel the stream that replaced it.
	streamCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancelStream != nil {
		s.logger.Debug("superseding open progress stream", "request_id", requestID)
		s.cancelStream()
	}
	s.streamEpoch++
	epoch := s.streamEpoch
	s.cancelStream = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		if s.streamEpoch == epoch {
			s.cancelStream = nil
		}
		s.mu.Unlock()
	}()

	streamURL := fmt.Sprintf("%s/progress/%s", s.baseURL, url.PathEscape(sessionID))
	resp, err := s.client.Get(streamCtx, streamURL)
	if err != nil {
		s.logger.Error("progress stream request failed",
			"request_id", requestID,
			"session_id", sessionID,
			"error", err,
		)
		return nil, fmt.Errorf("open progress stream: %w", err)
	}
	defer resp.Body.Close()

	if err := s.validateResponse(requestID, resp); err != nil {
		return nil, err
	}

	return s.processProgress(streamCtx, requestID, sessionID, resp.Body, renderer)
}

// processProgress reads the SSE body and routes events to the renderer.
func (s *solverService) processProgress(ctx context.Context, requestID, sessionID string, body io.Reader, renderer ux.ProgressRenderer) (*ux.ProgressSummary, error) {
	defer renderer.Finalize()

	err := s.reader.Read(ctx, body, func(event ux.ProgressEvent) error {
		switch event.Type {
		case ux.ProgressEventUpdate:
			renderer.OnProgress(ctx, event.Current, event.Total, event.Report)
		case ux.ProgressEventCompleted:
			renderer.OnCompleted(ctx)
		case ux.ProgressEventError:
			renderer.OnError(ctx, fmt.Errorf("%s", event.Error))
		}
		return nil
	})
	if err != nil {
		s.logger.Error("progress stream read failed",
			"request_id", requestID,
			"session_id", sessionID,
			"error", err,
		)
		return nil, fmt.Errorf("read progress stream: %w", err)
	}

	result := renderer.Result()
	result.Id = requestID

	s.logger.Debug("progress stream finished",
		"request_id", requestID,
		"session_id", sessionID,
		"events", result.TotalEvents,
		"solver_error", result.Error,
	)
	return result, nil
}

// =============================================================================
// LEVEL DETAILS AND STATE GENERATION
// =============================================================================

// LevelDetails fetches one level's record.
func (s *solverService) LevelDetails(ctx context.Context, levelSet, levelID string) (LevelDetails, error) {
	requestID := uuid.New().String()
	detailsURL := fmt.Sprintf("%s/get_level_details/%s/%s",
		s.baseURL, url.PathEscape(levelSet), url.PathEscape(levelID))

	resp, err := s.client.Get(ctx, detailsURL)
	if err != nil {
		s.logger.Error("level details request failed",
			"request_id", requestID,
			"level_set", levelSet,
			"level_id", levelID,
			"error", err,
		)
		return LevelDetails{}, fmt.Errorf("fetch level details: %w", err)
	}
	defer resp.Body.Close()

	if err := s.validateResponse(requestID, resp); err != nil {
		return LevelDetails{}, err
	}

	var details LevelDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return LevelDetails{}, fmt.Errorf("decode level details: %w", err)
	}
	return details, nil
}

// GenerateStates asks the backend to simulate a solution.
//
// # Description
//
// Posts the map text and move tokens to /generate_game_states and
// converts the returned steps into game states. The backend numbers
// state 0 as the initial board with the synthetic "start" move; that
// marker becomes a nil Move here, and every other move string is
// re-validated on the way in, so downstream code only ever sees tokens
// from the move alphabet.
//
// # Outputs
//
//   - []game.GameState: Ordered replay states, index 0 the initial board.
//   - error: Non-nil on validation, network, server, or decode errors,
//     or when the backend reports a simulation failure.
func (s *solverService) GenerateStates(ctx context.Context, asciiMap string, moves []game.MoveToken) ([]game.GameState, error) {
	req := generateStatesRequest{
		AsciiMap: asciiMap,
		Solution: game.MovesToStrings(moves),
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid state generation request: %w", err)
	}

	requestID := uuid.New().String()
	s.logger.Debug("generating game states",
		"request_id", requestID,
		"moves", len(moves),
	)

	resp, err := s.postJSON(ctx, requestID, "/generate_game_states", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := s.validateResponse(requestID, resp); err != nil {
		return nil, err
	}

	var decoded generateStatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode game states: %w", err)
	}
	if decoded.Status != "success" {
		msg := decoded.Error
		if msg == "" {
			msg = decoded.Status
		}
		return nil, fmt.Errorf("state generation failed: %s", msg)
	}

	states := make([]game.GameState, 0, len(decoded.States))
	for i, w := range decoded.States {
		gs := game.GameState{
			Step:     i,
			AsciiMap: w.mapText(),
			Won:      w.Won,
		}
		if i > 0 && !game.IsStartMarker(w.Move) {
			move, err := game.ParseMove(w.Move)
			if err != nil {
				s.logger.Warn("state carried an unknown move token",
					"request_id", requestID,
					"step", i,
					"move", w.Move,
				)
			} else {
				gs.Move = &move
			}
		}
		states = append(states, gs)
	}

	s.logger.Debug("game states generated",
		"request_id", requestID,
		"states", len(states),
		"total_steps", decoded.TotalSteps,
	)
	return states, nil
}

// =============================================================================
// SAVE, CACHE, CATALOGS, LEADERBOARD
// =============================================================================

// SaveSolution posts a solution record to the server.
func (s *solverService) SaveSolution(ctx context.Context, sol store.SavedSolution) (SaveReceipt, error) {
	req := saveSolutionRequest{
		Filename: fmt.Sprintf("%s_%d.json", sol.LevelID, sol.Timestamp),
		Data:     sol,
	}
	if err := s.validate.Struct(req); err != nil {
		return SaveReceipt{}, fmt.Errorf("invalid save request: %w", err)
	}

	requestID := uuid.New().String()
	resp, err := s.postJSON(ctx, requestID, "/save_solution", req)
	if err != nil {
		return SaveReceipt{}, err
	}
	defer resp.Body.Close()

	if err := s.validateResponse(requestID, resp); err != nil {
		return SaveReceipt{}, err
	}

	var receipt SaveReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return SaveReceipt{}, fmt.Errorf("decode save response: %w", err)
	}

	s.logger.Info("solution saved to server",
		"request_id", requestID,
		"level_id", sol.LevelID,
		"filepath", receipt.Filepath,
	)
	return receipt, nil
}

// ManageCache performs a solution-cache operation.
func (s *solverService) ManageCache(ctx context.Context, action string) (CacheResult, error) {
	req := cacheRequest{Action: action}
	if err := s.validate.Struct(req); err != nil {
		return CacheResult{}, fmt.Errorf("invalid cache action %q: %w", action, err)
	}

	requestID := uuid.New().String()
	resp, err := s.postJSON(ctx, requestID, "/manage_cache", req)
	if err != nil {
		return CacheResult{}, err
	}
	defer resp.Body.Close()

	if err := s.validateResponse(requestID, resp); err != nil {
		return CacheResult{}, err
	}

	var result CacheResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return CacheResult{}, fmt.Errorf("decode cache response: %w", err)
	}
	return result, nil
}

// Agents lists the solver agents the backend offers.
func (s *solverService) Agents(ctx context.Context) ([]CatalogEntry, error) {
	return s.getCatalog(ctx, "/get_agents")
}

// LevelSets lists the level sets the backend offers.
func (s *solverService) LevelSets(ctx context.Context) ([]CatalogEntry, error) {
	return s.getCatalog(ctx, "/get_level_sets")
}

// getCatalog fetches and decodes one of the catalog endpoints.
func (s *solverService) getCatalog(ctx context.Context, path string) ([]CatalogEntry, error) {
	requestID := uuid.New().String()
	resp, err := s.client.Get(ctx, s.baseURL+path)
	if err != nil {
		s.logger.Error("catalog request failed",
			"request_id", requestID,
			"path", path,
			"error", err,
		)
		return nil, fmt.Errorf("fetch catalog %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := s.validateResponse(requestID, resp); err != nil {
		return nil, err
	}

	var entries []CatalogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return entries, nil
}

// Leaderboard fetches the cross-agent results table.
func (s *solverService) Leaderboard(ctx context.Context) ([]LeaderboardRow, error) {
	requestID := uuid.New().String()
	resp, err := s.client.Get(ctx, s.baseURL+"/get_leaderboard")
	if err != nil {
		s.logger.Error("leaderboard request failed",
			"request_id", requestID,
			"error", err,
		)
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	defer resp.Body.Close()

	if err := s.validateResponse(requestID, resp); err != nil {
		return nil, err
	}

	var decoded leaderboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	return decoded.Leaderboard, nil
}

// Close cancels any open progress stream.
func (s *solverService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelStream != nil {
		s.cancelStream()
		s.cancelStream = nil
	}
	return nil
}

// =============================================================================
// SHARED HTTP PLUMBING
// =============================================================================

// postJSON marshals a payload and posts it to baseURL+path.
func (s *solverService) postJSON(ctx context.Context, requestID, path string, payload any) (*http.Response, error) {
	postBody, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal request",
			"request_id", requestID,
			"path", path,
			"error", err,
		)
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := s.client.Post(ctx, s.baseURL+path, "application/json", bytes.NewBuffer(postBody))
	if err != nil {
		s.logger.Error("http post failed",
			"request_id", requestID,
			"path", path,
			"error", err,
		)
		return nil, fmt.Errorf("http post %s: %w", path, err)
	}
	return resp, nil
}

// validateResponse checks for 200 OK, reading and logging the error
// body otherwise.
func (s *solverService) validateResponse(requestID string, resp *http.Response) error {
	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			s.logger.Error("server returned error (failed to read body)",
				"request_id", requestID,
				"status_code", resp.StatusCode,
				"read_error", err,
			)
			return fmt.Errorf("server error (%d): failed to read response body", resp.StatusCode)
		}
		s.logger.Error("server returned error",
			"request_id", requestID,
			"status_code", resp.StatusCode,
			"response_body", string(bodyBytes),
		)
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}

// =============================================================================
// Compile-time Interface Checks
// =============================================================================

var (
	_ SolverService           = (*solverService)(nil)
	_ playback.StateGenerator = (*solverService)(nil)
	_ HTTPClient              = (*defaultHTTPClient)(nil)
)
