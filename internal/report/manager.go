// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jeranaias/innerbook/internal/localstore"
	"github.com/jeranaias/innerbook/internal/model"
	"github.com/jeranaias/innerbook/internal/remote"
	"github.com/jeranaias/innerbook/internal/sentinel"
	"github.com/jeranaias/innerbook/internal/session"
)

// Error variables for lifecycle contract violations.
var (
	// ErrNotPending indicates the operation needs a pending report.
	ErrNotPending = errors.New("report is not pending")

	// ErrCompleting indicates a completion is already in flight for the
	// report.
	ErrCompleting = errors.New("report completion already in progress")
)

// CodeVerifier redeems invite codes. Satisfied by *remote.Verifier.
type CodeVerifier interface {
	Verify(ctx context.Context, reportID, code string) (remote.VerifyResult, error)
}

// Manager drives reports through none -> pending -> completed and owns
// the local-first, remote-best-effort write policy.
type Manager struct {
	store    *localstore.Store
	table    remote.Table
	verifier CodeVerifier
	sessions session.Accessor
	bus      *Bus

	// mu guards completing: the per-report re-entrancy latch for
	// Complete.
	mu         sync.Mutex
	completing map[string]bool
}

// NewManager wires a lifecycle manager. Events are published on bus.
func NewManager(store *localstore.Store, table remote.Table, verifier CodeVerifier, sessions session.Accessor, bus *Bus) *Manager {
	return &Manager{
		store:      store,
		table:      table,
		verifier:   verifier,
		sessions:   sessions,
		bus:        bus,
		completing: make(map[string]bool),
	}
}

// Bus returns the manager's event bus.
func (m *Manager) Bus() *Bus {
	return m.bus
}

// =============================================================================
// LIFECYCLE TRANSITIONS
// =============================================================================

// Create starts a fresh pending report for the mode. Any older pending
// report of the same mode is implicitly abandoned (the local eviction
// rule keeps only the newest). The record is mirrored to the remote
// table immediately, locked; a remote failure is logged and tolerated —
// local state stays authoritative until a later sync succeeds.
func (m *Manager) Create(ctx context.Context, mode model.Mode) (model.Report, error) {
	r := model.NewPendingReport(mode)

	if err := m.store.UpsertReport(r); err != nil {
		return model.Report{}, fmt.Errorf("create report: %w", err)
	}

	// Identity attaches only if authenticated at this moment, never
	// retroactively.
	sess, ok := m.sessions.Current()
	if err := m.table.Upsert(ctx, r, sess, ok); err != nil {
		log.Printf("report: remote mirror of %s failed, keeping local copy: %v", r.ReportID, err)
	}

	return r, nil
}

// UpdateContent refreshes a pending report from the cumulative raw
// model output. The subtitle and cleaned content are recomputed on
// every call (idempotent, last-write-wins); nothing is persisted
// remotely until completion.
func (m *Manager) UpdateContent(reportID, raw string) error {
	if reportID == "" {
		return fmt.Errorf("report id must not be empty")
	}

	return m.store.Update(func(state *localstore.State) error {
		for i := range state.Reports {
			if state.Reports[i].ReportID != reportID {
				continue
			}
			if !state.Reports[i].IsPending() {
				return fmt.Errorf("%w: %s", ErrNotPending, reportID)
			}
			state.Reports[i].SubTitle = sentinel.ExtractSubTitle(raw)
			state.Reports[i].Content = sentinel.CleanContent(raw)
			return nil
		}
		return localstore.ErrReportNotFound
	})
}

// Complete transitions pending -> completed. The transition is guarded
// against re-entrant calls: a second invocation while the first is
// still persisting returns ErrCompleting, so rapid duplicate triggers
// produce exactly one remote write and one unlock prompt.
//
// The final content and transcript are persisted locally first. If the
// remote write then succeeds while authenticated, the local copy is
// deleted (remote is now authoritative); unauthenticated, the local
// copy is retained so an anonymous user never loses the report. Either
// way a successful remote write publishes Locked to start the unlock
// flow.
func (m *Manager) Complete(ctx context.Context, reportID string, messages []model.Message) error {
	if reportID == "" {
		return fmt.Errorf("report id must not be empty")
	}

	m.mu.Lock()
	if m.completing[reportID] {
		m.mu.Unlock()
		return ErrCompleting
	}
	m.completing[reportID] = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.completing, reportID)
		m.mu.Unlock()
	}()

	var completed model.Report
	already := false
	err := m.store.Update(func(state *localstore.State) error {
		for i := range state.Reports {
			if state.Reports[i].ReportID != reportID {
				continue
			}
			if state.Reports[i].IsCompleted() {
				already = true
				return nil
			}
			state.Reports[i].Status = model.ReportCompleted
			state.Reports[i].Messages = messages
			completed = state.Reports[i]
			return nil
		}
		return localstore.ErrReportNotFound
	})
	if err != nil {
		return fmt.Errorf("complete report: %w", err)
	}
	if already {
		// Idempotent success: no second remote write, no second unlock
		// prompt.
		return nil
	}

	sess, authenticated := m.sessions.Current()
	if err := m.table.Upsert(ctx, completed, sess, authenticated); err != nil {
		// Local copy stays the source of truth; the reconciler retries
		// later.
		log.Printf("report: remote completion of %s failed, keeping local copy: %v", reportID, err)
		return nil
	}

	if authenticated {
		if err := m.store.DeleteReport(reportID); err != nil {
			log.Printf("report: drop local copy of %s: %v", reportID, err)
		}
	}
	// Unauthenticated: the local copy is retained with Synced still
	// false — the remote row carries no identity yet, so the reconciler
	// re-writes it once the user logs in.

	m.bus.Publish(Locked{ReportID: reportID})
	return nil
}

// SaveTranscript persists the in-memory transcript into the local
// pending record so an interrupted conversation can be resumed later.
func (m *Manager) SaveTranscript(reportID string, messages []model.Message) error {
	return m.store.Update(func(state *localstore.State) error {
		for i := range state.Reports {
			if state.Reports[i].ReportID == reportID {
				state.Reports[i].Messages = messages
				return nil
			}
		}
		return localstore.ErrReportNotFound
	})
}

// =============================================================================
// UNLOCK FLOW
// =============================================================================

// HandleInviteCode redeems a submitted code for the report. The
// verifier is the unlock authority; the client never flips the lock bit
// itself. A failed code is returned to the dialog without mutating any
// state. When the unlock succeeds while unauthenticated, a login prompt
// follows as an independent gate.
func (m *Manager) HandleInviteCode(ctx context.Context, reportID, code string) (remote.VerifyResult, error) {
	if reportID == "" {
		return remote.VerifyResult{}, fmt.Errorf("report id must not be empty")
	}

	res, err := m.verifier.Verify(ctx, reportID, code)
	if err != nil {
		return remote.VerifyResult{}, fmt.Errorf("verify invite code: %w", err)
	}
	if !res.Success {
		return res, nil
	}

	m.bus.Publish(Unlocked{ReportID: reportID})
	if _, ok := m.sessions.Current(); !ok {
		m.bus.Publish(LoginPrompt{ReportID: reportID})
	}
	return res, nil
}

// =============================================================================
// READS
// =============================================================================

// Detail fetches the normalized report shape from the remote table.
// skipCache forces a fresh read, used right after an unlock.
func (m *Manager) Detail(ctx context.Context, reportID string, skipCache bool) (remote.Detail, error) {
	if reportID == "" {
		return remote.Detail{}, fmt.Errorf("report id must not be empty")
	}
	return m.table.Detail(ctx, reportID, skipCache)
}

// Resume returns the local pending report for the mode, if one exists,
// so an interrupted conversation can pick up where it left off.
func (m *Manager) Resume(mode model.Mode) (model.Report, bool) {
	return m.store.PendingReport(mode)
}
