// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/kekectl/pkg/game"
	"github.com/AleutianAI/kekectl/pkg/logging"
	"github.com/AleutianAI/kekectl/pkg/store"
	"github.com/AleutianAI/kekectl/pkg/ux"
)

// newTestService wires a solver service against an httptest server.
func newTestService(t *testing.T, handler http.Handler) (SolverService, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logging.New(logging.Config{Level: logging.LevelError, Quiet: true})
	t.Cleanup(func() { logger.Close() })

	svc := NewSolverService(SolverServiceConfig{
		BaseURL: srv.URL,
		Logger:  logger,
	})
	t.Cleanup(func() { svc.Close() })
	return svc, srv
}

func TestStartSolve(t *testing.T) {
	t.Run("submits and returns the session handle", func(t *testing.T) {
		var got SolveRequest
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/solve_level_set", r.URL.Path)
			require.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			fmt.Fprint(w, `{"session_id":"sess-42","status":"processing"}`)
		}))

		sub, err := svc.StartSolve(context.Background(), SolveRequest{
			Agent:      "default",
			LevelSet:   "demo_LEVELS",
			Iterations: 10000,
			UseCache:   true,
		})
		require.NoError(t, err)
		assert.Equal(t, "sess-42", sub.SessionID)
		assert.Equal(t, "processing", sub.Status)
		assert.Equal(t, "default", got.Agent)
		assert.Equal(t, "demo_LEVELS", got.LevelSet)
		assert.True(t, got.UseCache)
	})

	t.Run("rejects an invalid request before dispatch", func(t *testing.T) {
		dispatched := false
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dispatched = true
		}))

		_, err := svc.StartSolve(context.Background(), SolveRequest{Agent: "", LevelSet: "x", Iterations: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid solve request")
		assert.False(t, dispatched, "an invalid request must never reach the wire")
	})

	t.Run("surfaces server errors with the response body", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "agent unknown", http.StatusBadRequest)
		}))

		_, err := svc.StartSolve(context.Background(), SolveRequest{Agent: "a", LevelSet: "s", Iterations: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "agent unknown")
	})

	t.Run("fails on a response without a session id", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"processing"}`)
		}))

		_, err := svc.StartSolve(context.Background(), SolveRequest{Agent: "a", LevelSet: "s", Iterations: 1})
		require.Error(t, err)
	})
}

func TestStreamProgress(t *testing.T) {
	t.Run("routes events in order and clears on completion", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/progress/sess-1", r.URL.Path)
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"current\":1,\"total\":5}\n\n")
			fmt.Fprint(w, "data: {\"current\":5,\"total\":5}\n\n")
			fmt.Fprint(w, "data: {\"status\":\"completed\"}\n\n")
		}))

		renderer := ux.NewBufferProgressRenderer()
		summary, err := svc.StreamProgress(context.Background(), "sess-1", renderer)
		require.NoError(t, err)

		require.Len(t, renderer.Updates, 2)
		assert.Equal(t, 1, renderer.Updates[0].Current)
		assert.Equal(t, 5, renderer.Updates[1].Current)
		assert.Equal(t, 1, renderer.CompletedCalls)
		assert.True(t, summary.Completed())
		assert.Equal(t, 5, summary.LastCurrent)
		assert.Equal(t, 5, summary.LastTotal)
	})

	t.Run("carries the rolling report to the renderer", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"current\":2,\"total\":2,\"report\":{\"agent\":\"bfs\",\"levels\":[{\"id\":\"1\",\"won_level\":true},{\"id\":\"2\",\"won_level\":false}]}}\n\n")
			fmt.Fprint(w, "data: {\"status\":\"completed\"}\n\n")
		}))

		renderer := ux.NewBufferProgressRenderer()
		summary, err := svc.StreamProgress(context.Background(), "sess-2", renderer)
		require.NoError(t, err)

		require.NotNil(t, summary.Report)
		s := summary.Report.EffectiveSummary()
		assert.Equal(t, 2, s.TotalLevels)
		assert.Equal(t, 1, s.SolvedLevels)
	})

	t.Run("a solver error ends the stream without a transport error", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"current\":1,\"total\":5}\n\n")
			fmt.Fprint(w, "data: {\"status\":\"error\",\"error\":\"solver crashed\"}\n\n")
		}))

		renderer := ux.NewBufferProgressRenderer()
		summary, err := svc.StreamProgress(context.Background(), "sess-3", renderer)
		require.NoError(t, err)
		require.NotNil(t, summary)
		assert.Equal(t, "solver crashed", summary.Error)
		require.Len(t, renderer.Errors, 1)
		assert.False(t, summary.Completed())
	})

	t.Run("a transport failure returns an error and no summary", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no such session", http.StatusNotFound)
		}))

		renderer := ux.NewBufferProgressRenderer()
		summary, err := svc.StreamProgress(context.Background(), "sess-4", renderer)
		require.Error(t, err)
		assert.Nil(t, summary)
	})

	t.Run("a superseded stream's teardown leaves the replacement running", func(t *testing.T) {
		oldOpen := make(chan struct{})
		newOpen := make(chan struct{})
		newRelease := make(chan struct{})

		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()

			switch r.URL.Path {
			case "/progress/sess-old":
				close(oldOpen)
				// Held open until the supersede cancels this request
				<-r.Context().Done()
			case "/progress/sess-new":
				close(newOpen)
				<-newRelease
				fmt.Fprint(w, "data: {\"status\":\"completed\"}\n\n")
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))

		type streamResult struct {
			summary *ux.ProgressSummary
			err     error
		}

		oldDone := make(chan streamResult, 1)
		go func() {
			summary, err := svc.StreamProgress(context.Background(), "sess-old", ux.NewBufferProgressRenderer())
			oldDone <- streamResult{summary, err}
		}()
		<-oldOpen

		newDone := make(chan streamResult, 1)
		newRenderer := ux.NewBufferProgressRenderer()
		go func() {
			summary, err := svc.StreamProgress(context.Background(), "sess-new", newRenderer)
			newDone <- streamResult{summary, err}
		}()
		<-newOpen

		// The superseded call unwinds first; its teardown runs while the
		// replacement stream is still open
		oldRes := <-oldDone
		require.Error(t, oldRes.err, "the superseded stream must report its cancellation")

		close(newRelease)
		newRes := <-newDone
		require.NoError(t, newRes.err, "the replacement stream must survive the old teardown")
		require.NotNil(t, newRes.summary)
		assert.True(t, newRes.summary.Completed())
		assert.Equal(t, 1, newRenderer.CompletedCalls)
	})
}

func TestGenerateStates(t *testing.T) {
	t.Run("converts wire states into ordered game states", func(t *testing.T) {
		var got generateStatesRequest
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/generate_game_states", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			fmt.Fprint(w, `{
				"status": "success",
				"total_steps": 1,
				"states": [
					{"step": 0, "move": "start", "ascii_map": "___\n_b_\n___"},
					{"step": 1, "move": "r", "ascii_map": "___\n__b\n___", "won": true}
				]
			}`)
		}))

		states, err := svc.GenerateStates(context.Background(), "___\n_b_\n___", []game.MoveToken{game.MoveRight})
		require.NoError(t, err)
		require.Len(t, states, 2)

		assert.Nil(t, states[0].Move, "the start marker becomes a nil move")
		assert.Equal(t, "___\n_b_\n___", states[0].AsciiMap)
		require.NotNil(t, states[1].Move)
		assert.Equal(t, game.MoveRight, *states[1].Move)
		assert.True(t, states[1].Won)
		assert.Equal(t, []string{"r"}, got.Solution)
	})

	t.Run("falls back to the legacy map field", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"success","total_steps":0,"states":[{"step":0,"move":"start","map_string":"_b_"}]}`)
		}))

		states, err := svc.GenerateStates(context.Background(), "_b_", nil)
		require.NoError(t, err)
		require.Len(t, states, 1)
		assert.Equal(t, "_b_", states[0].AsciiMap)
	})

	t.Run("a non-success status is an error", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"error","error":"simulation blew up"}`)
		}))

		_, err := svc.GenerateStates(context.Background(), "_b_", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulation blew up")
	})

	t.Run("an unknown move token degrades to a moveless state", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"success","total_steps":1,"states":[{"step":0,"move":"start","ascii_map":"_b_"},{"step":1,"move":"warp","ascii_map":"b__"}]}`)
		}))

		states, err := svc.GenerateStates(context.Background(), "_b_", nil)
		require.NoError(t, err)
		require.Len(t, states, 2)
		assert.Nil(t, states[1].Move)
		assert.Equal(t, "b__", states[1].AsciiMap)
	})
}

func TestLevelDetails(t *testing.T) {
	t.Run("decodes the record and normalizes the solution", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/get_level_details/demo_LEVELS/7", r.URL.Path)
			fmt.Fprint(w, `{"id":"7","ascii_map":"_b_","solution_path":["r","r","u"]}`)
		}))

		details, err := svc.LevelDetails(context.Background(), "demo_LEVELS", "7")
		require.NoError(t, err)
		assert.Equal(t, "_b_", details.AsciiMap)
		assert.Equal(t, []game.MoveToken{game.MoveRight, game.MoveRight, game.MoveUp}, details.Moves())
	})

	t.Run("a null solution normalizes to empty, never an error", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id":"7","ascii_map":"_b_","solution_path":null}`)
		}))

		details, err := svc.LevelDetails(context.Background(), "demo_LEVELS", "7")
		require.NoError(t, err)
		assert.Empty(t, details.Moves())
	})
}

func TestSaveSolution(t *testing.T) {
	sol := store.SavedSolution{
		LevelID:    "level_3",
		Timestamp:  1700000000000,
		TotalSteps: 1,
		States: []store.SavedState{
			{Step: 0, Move: "", AsciiMap: "_b_", Description: "Initial state"},
			{Step: 1, Move: "right", AsciiMap: "__b", Description: "Step 1: right (won)"},
		},
	}

	t.Run("posts the record with a derived filename", func(t *testing.T) {
		var got saveSolutionRequest
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/save_solution", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			fmt.Fprint(w, `{"status":"success","message":"saved","filepath":"solutions/level_3.json"}`)
		}))

		receipt, err := svc.SaveSolution(context.Background(), sol)
		require.NoError(t, err)
		assert.Equal(t, "solutions/level_3.json", receipt.Filepath)
		assert.Equal(t, "level_3_1700000000000.json", got.Filename)
		assert.Equal(t, sol.LevelID, got.Data.LevelID)
		require.Len(t, got.Data.States, 2)
	})

	t.Run("a server refusal is an error for the caller to handle", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "disk full", http.StatusInternalServerError)
		}))

		_, err := svc.SaveSolution(context.Background(), sol)
		require.Error(t, err)
	})
}

func TestManageCache(t *testing.T) {
	t.Run("clear_all surfaces the backend message", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req cacheRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "clear_all", req.Action)
			fmt.Fprint(w, `{"status":"success","message":"cleared"}`)
		}))

		result, err := svc.ManageCache(context.Background(), CacheActionClear)
		require.NoError(t, err)
		assert.Equal(t, "success", result.Status)
		assert.Equal(t, "cleared", result.Message)
	})

	t.Run("get_stats returns the stats map", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"success","stats":{"cached_solutions":12}}`)
		}))

		result, err := svc.ManageCache(context.Background(), CacheActionStats)
		require.NoError(t, err)
		assert.EqualValues(t, 12, result.Stats["cached_solutions"])
	})

	t.Run("an unknown action never reaches the wire", func(t *testing.T) {
		dispatched := false
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dispatched = true
		}))

		_, err := svc.ManageCache(context.Background(), "drop_tables")
		require.Error(t, err)
		assert.False(t, dispatched)
	})
}

func TestCatalogsAndLeaderboard(t *testing.T) {
	t.Run("decodes the agent catalog", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/get_agents", r.URL.Path)
			fmt.Fprint(w, `[{"id":"bfs","name":"Breadth First"},{"id":"mcts","name":"Tree Search"}]`)
		}))

		agents, err := svc.Agents(context.Background())
		require.NoError(t, err)
		require.Len(t, agents, 2)
		assert.Equal(t, "bfs", agents[0].ID)
	})

	t.Run("decodes the leaderboard rows", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/get_leaderboard", r.URL.Path)
			fmt.Fprint(w, `{
				"status": "success",
				"leaderboard": [
					{"agent":"bfs","level_set":"demo_LEVELS","accuracy":0.85,"solved_levels":17,"total_levels":20,"avg_time":1.5,"avg_iterations":4200,"avg_efficiency":0.9,"total_executions":3}
				],
				"total_agents": 1
			}`)
		}))

		rows, err := svc.Leaderboard(context.Background())
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "bfs", rows[0].Agent)
		assert.InDelta(t, 0.85, rows[0].Accuracy, 1e-9)
		assert.Equal(t, 17, rows[0].SolvedLevels)
	})
}
