// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists solved levels locally when the backend's
// save endpoint is unreachable.
//
// Persistence here is best-effort: a solution that cannot be saved
// remotely lands in an embedded BadgerDB keyed by level id and
// timestamp, where `kekectl saved` can list, export, or re-post it
// later. Losing this store loses nothing the backend still has.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/kekectl/pkg/logging"
)

// keyPrefix namespaces solution records inside the database.
const keyPrefix = "solution/"

// Sentinel errors for the store package.
var (
	// ErrNotFound indicates no record exists for the requested key.
	ErrNotFound = errors.New("solution not found")

	// ErrInvalidRecord indicates a record missing its level id.
	ErrInvalidRecord = errors.New("solution record has no level id")
)

// =============================================================================
// Record Types
// =============================================================================

// SavedState is one step of a persisted solution. The JSON tags match
// the backend's save payload so an exported record can be re-posted
// verbatim.
type SavedState struct {
	Step        int    `json:"step"`
	Move        string `json:"move"`
	AsciiMap    string `json:"ascii_map"`
	Description string `json:"description"`
}

// SavedSolution is the full persisted payload for one solved level.
type SavedSolution struct {
	LevelID    string       `json:"levelId"`
	Timestamp  int64        `json:"timestamp"`
	TotalSteps int          `json:"totalSteps"`
	States     []SavedState `json:"states"`
}

// SolutionInfo is the listing view of a stored record.
type SolutionInfo struct {
	LevelID    string
	Timestamp  int64
	TotalSteps int
}

// SavedAt returns the record's timestamp as wall-clock time.
func (i SolutionInfo) SavedAt() time.Time {
	return time.UnixMilli(i.Timestamp)
}

// =============================================================================
// Store
// =============================================================================

// SolutionStore is the local fallback persistence layer.
//
// # Description
//
// Records are keyed by (level id, timestamp); multiple attempts at the
// same level coexist. List and Latest order newest first.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
type SolutionStore interface {
	// Put stores one solution. A zero Timestamp is stamped with the
	// current time. The stored record is returned (with its final
	// timestamp).
	Put(ctx context.Context, sol SavedSolution) (SavedSolution, error)

	// Get loads the record for (levelID, timestamp).
	Get(ctx context.Context, levelID string, timestamp int64) (SavedSolution, error)

	// Latest loads the newest record for levelID.
	Latest(ctx context.Context, levelID string) (SavedSolution, error)

	// List returns records newest first, all levels when levelID is
	// empty.
	List(ctx context.Context, levelID string) ([]SolutionInfo, error)

	// Delete removes one record. Deleting a missing record is not an
	// error.
	Delete(ctx context.Context, levelID string, timestamp int64) error

	// Flush removes every record, reporting how many were dropped.
	Flush(ctx context.Context) (int, error)

	// Close releases the database. The store is unusable afterward.
	Close() error
}

// Config holds store configuration.
type Config struct {
	// Path is the directory for database files. Required unless
	// InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Useful for tests.
	InMemory bool

	// SyncWrites makes every write durable before returning. The
	// whole point of this store is surviving a flaky backend, so the
	// default keeps it on.
	SyncWrites bool

	// Logger receives database diagnostics. Nil disables Badger's
	// internal logging.
	Logger *logging.Logger

	// GCInterval is how often to run value log garbage collection.
	// 0 disables it; short-lived CLI invocations don't need it.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum discardable fraction before GC
	// rewrites a value log file.
	GCDiscardRatio float64
}

// DefaultConfig returns production defaults: durable writes, GC off.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a test configuration with no disk I/O.
func InMemoryConfig() Config {
	return Config{
		InMemory:   true,
		SyncWrites: false,
	}
}

// badgerLogger adapts our logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *logging.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// badgerStore implements SolutionStore on an embedded BadgerDB.
type badgerStore struct {
	db     *badger.DB
	logger *logging.Logger
	gcStop chan struct{}
	gcDone chan struct{}
}

// Open creates a store from config.
//
// # Description
//
// Opens (creating if needed) the database directory, or an in-memory
// instance when cfg.InMemory is set. Starts the GC loop only when
// GCInterval is positive and the database is persistent.
//
// # Outputs
//
//   - SolutionStore: ready for use. Caller must Close.
//   - error: non-nil when the path is missing or the open fails.
func Open(cfg Config) (SolutionStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("store: path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("store: create directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	s := &badgerStore{db: db, logger: cfg.Logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.gcStop = make(chan struct{})
		s.gcDone = make(chan struct{})
		go s.gcLoop(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

// OpenInMemory opens a throwaway in-memory store for tests.
func OpenInMemory() (SolutionStore, error) {
	return Open(InMemoryConfig())
}

func (s *badgerStore) Put(ctx context.Context, sol SavedSolution) (SavedSolution, error) {
	if err := ctx.Err(); err != nil {
		return SavedSolution{}, err
	}
	if sol.LevelID == "" {
		return SavedSolution{}, ErrInvalidRecord
	}
	if sol.Timestamp == 0 {
		sol.Timestamp = time.Now().UnixMilli()
	}
	if sol.TotalSteps == 0 && len(sol.States) > 0 {
		sol.TotalSteps = len(sol.States) - 1
	}

	raw, err := json.Marshal(sol)
	if err != nil {
		return SavedSolution{}, fmt.Errorf("store: encode solution: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(sol.LevelID, sol.Timestamp), raw)
	})
	if err != nil {
		return SavedSolution{}, fmt.Errorf("store: put %s: %w", sol.LevelID, err)
	}
	return sol, nil
}

func (s *badgerStore) Get(ctx context.Context, levelID string, timestamp int64) (SavedSolution, error) {
	if err := ctx.Err(); err != nil {
		return SavedSolution{}, err
	}
	var sol SavedSolution
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(levelID, timestamp))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sol)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return SavedSolution{}, fmt.Errorf("%w: %s@%d", ErrNotFound, levelID, timestamp)
	}
	if err != nil {
		return SavedSolution{}, fmt.Errorf("store: get %s@%d: %w", levelID, timestamp, err)
	}
	return sol, nil
}

func (s *badgerStore) Latest(ctx context.Context, levelID string) (SavedSolution, error) {
	infos, err := s.List(ctx, levelID)
	if err != nil {
		return SavedSolution{}, err
	}
	if len(infos) == 0 {
		return SavedSolution{}, fmt.Errorf("%w: %s", ErrNotFound, levelID)
	}
	return s.Get(ctx, infos[0].LevelID, infos[0].Timestamp)
}

func (s *badgerStore) List(ctx context.Context, levelID string) ([]SolutionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := []byte(keyPrefix)
	if levelID != "" {
		prefix = []byte(keyPrefix + levelID + "/")
	}

	var infos []SolutionInfo
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id, ts, ok := parseKey(item.Key())
			if !ok {
				continue
			}
			info := SolutionInfo{LevelID: id, Timestamp: ts}
			err := item.Value(func(val []byte) error {
				var sol SavedSolution
				if err := json.Unmarshal(val, &sol); err != nil {
					// A corrupt record still lists by key
					if s.logger != nil {
						s.logger.Warn("skipping corrupt solution record", "key", string(item.Key()))
					}
					return nil
				}
				info.TotalSteps = sol.TotalSteps
				return nil
			})
			if err != nil {
				return err
			}
			infos = append(infos, info)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Timestamp != infos[j].Timestamp {
			return infos[i].Timestamp > infos[j].Timestamp
		}
		return infos[i].LevelID < infos[j].LevelID
	})
	return infos, nil
}

func (s *badgerStore) Delete(ctx context.Context, levelID string, timestamp int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(levelID, timestamp))
	})
	if err != nil {
		return fmt.Errorf("store: delete %s@%d: %w", levelID, timestamp, err)
	}
	return nil
}

func (s *badgerStore) Flush(ctx context.Context) (int, error) {
	infos, err := s.List(ctx, "")
	if err != nil {
		return 0, err
	}
	for _, info := range infos {
		if err := s.Delete(ctx, info.LevelID, info.Timestamp); err != nil {
			return 0, err
		}
	}
	return len(infos), nil
}

func (s *badgerStore) Close() error {
	if s.gcStop != nil {
		close(s.gcStop)
		<-s.gcDone
		s.gcStop = nil
	}
	return s.db.Close()
}

// gcLoop periodically rewrites the value log. ErrNoRewrite means
// nothing needed collecting.
func (s *badgerStore) gcLoop(interval time.Duration, ratio float64) {
	defer close(s.gcDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.gcStop:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) && s.logger != nil {
				s.logger.Warn("value log GC failed", "error", err)
			}
		}
	}
}

// recordKey builds the key for one record. The timestamp is
// zero-padded so keys sort chronologically within a level.
func recordKey(levelID string, timestamp int64) []byte {
	return []byte(fmt.Sprintf("%s%s/%013d", keyPrefix, levelID, timestamp))
}

// parseKey splits a record key back into level id and timestamp. The
// timestamp is everything after the last slash, so level ids
// containing slashes round-trip.
func parseKey(key []byte) (string, int64, bool) {
	k := string(key)
	rest, ok := strings.CutPrefix(k, keyPrefix)
	if !ok {
		return "", 0, false
	}
	i := strings.LastIndexByte(rest, '/')
	if i <= 0 {
		return "", 0, false
	}
	ts, err := strconv.ParseInt(rest[i+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return rest[:i], ts, true
}

// Compile-time interface check
var _ SolutionStore = (*badgerStore)(nil)
