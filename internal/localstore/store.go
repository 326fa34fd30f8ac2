// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/innerbook/internal/model"
	"github.com/jeranaias/innerbook/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MaxCompleted is the number of completed reports kept locally.
	MaxCompleted = 3

	// MaxRecentAnswers is the number of recent reply strings kept for
	// input suggestions.
	MaxRecentAnswers = 3

	// FileName is the collection file inside the data directory.
	FileName = "reports.json"
)

// ErrReportNotFound is returned when a report ID is not in the local
// collection.
var ErrReportNotFound = errors.New("report not found in local store")

// =============================================================================
// STATE
// =============================================================================

// State is the full persisted content of the local store: the report
// collection plus the recent-answer suggestions.
type State struct {
	Reports       []model.Report `json:"reports"`
	RecentAnswers []string       `json:"recentAnswers,omitempty"`
}

// =============================================================================
// STORE
// =============================================================================

// Store is a file-backed keyed store for the local report collection.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open creates a store rooted at the given data directory.
func Open(dataDir string) *Store {
	return &Store{path: filepath.Join(dataDir, FileName)}
}

// Path returns the backing file path (used by the change watcher).
func (s *Store) Path() string {
	return s.path
}

// Load reads the current state. A missing or unparseable file yields an
// empty state rather than an error: storage corruption must not brick
// the app.
func (s *Store) Load() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// read loads state without locking; callers hold s.mu.
func (s *Store) read() State {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("localstore: read %s: %v", s.path, err)
		}
		return State{}
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		// Fail closed: a corrupt collection is treated as empty.
		log.Printf("localstore: corrupt collection at %s, starting empty: %v", s.path, err)
		return State{}
	}
	return state
}

// Update runs a read-merge-write transaction: the latest state is
// re-read from disk, fn mutates it, eviction is applied, and the result
// is written atomically.
func (s *Store) Update(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.read()
	if err := fn(&state); err != nil {
		return err
	}

	state.Reports = Evict(state.Reports)
	if len(state.RecentAnswers) > MaxRecentAnswers {
		state.RecentAnswers = state.RecentAnswers[:MaxRecentAnswers]
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode local collection: %w", err)
	}
	if err := util.AtomicWriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write local collection: %w", err)
	}
	return nil
}

// =============================================================================
// REPORT OPERATIONS
// =============================================================================

// UpsertReport inserts or replaces a report by its reportId.
func (s *Store) UpsertReport(r model.Report) error {
	return s.Update(func(state *State) error {
		for i := range state.Reports {
			if state.Reports[i].ReportID == r.ReportID {
				state.Reports[i] = r
				return nil
			}
		}
		state.Reports = append(state.Reports, r)
		return nil
	})
}

// DeleteReport removes a report from the collection. Deleting an absent
// report is a no-op.
func (s *Store) DeleteReport(reportID string) error {
	return s.Update(func(state *State) error {
		out := state.Reports[:0]
		for _, r := range state.Reports {
			if r.ReportID != reportID {
				out = append(out, r)
			}
		}
		state.Reports = out
		return nil
	})
}

// Report returns the report with the given ID.
func (s *Store) Report(reportID string) (model.Report, error) {
	for _, r := range s.Load().Reports {
		if r.ReportID == reportID {
			return r, nil
		}
	}
	return model.Report{}, ErrReportNotFound
}

// PendingReport returns the pending report for a mode, if any.
func (s *Store) PendingReport(mode model.Mode) (model.Report, bool) {
	for _, r := range s.Load().Reports {
		if r.Mode == mode && r.IsPending() {
			return r, true
		}
	}
	return model.Report{}, false
}

// UnsyncedCompleted returns completed reports not yet mirrored remotely.
func (s *Store) UnsyncedCompleted() []model.Report {
	var out []model.Report
	for _, r := range s.Load().Reports {
		if r.IsCompleted() && !r.Synced {
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// RECENT ANSWERS
// =============================================================================

// PushRecentAnswer records a reply for input suggestions, newest first,
// deduplicated, capped at MaxRecentAnswers.
func (s *Store) PushRecentAnswer(answer string) error {
	return s.Update(func(state *State) error {
		out := []string{answer}
		for _, a := range state.RecentAnswers {
			if a != answer {
				out = append(out, a)
			}
		}
		state.RecentAnswers = out
		return nil
	})
}

// RecentAnswers returns the stored suggestions, newest first.
func (s *Store) RecentAnswers() []string {
	return s.Load().RecentAnswers
}
