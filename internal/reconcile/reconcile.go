// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reconcile

import (
	"context"
	"log"
	"sync"

	"github.com/jeranaias/innerbook/internal/localstore"
	"github.com/jeranaias/innerbook/internal/remote"
	"github.com/jeranaias/innerbook/internal/session"
)

// LoginNotice is the one-time reminder shown when unsynced reports
// exist but no user is logged in.
const LoginNotice = "检测到本地报告，登录后将自动同步到云端。"

// Reconciler moves completed-but-unsynced local reports to the remote
// table.
type Reconciler struct {
	store    *localstore.Store
	table    remote.Table
	sessions session.Accessor

	// notify surfaces the unauthenticated reminder to the user.
	notify func(message string)

	// mu serializes Sync: concurrent triggers (mount + storage event)
	// queue up instead of interleaving.
	mu       sync.Mutex
	notified bool
}

// New wires a reconciler. notify may be nil when no surface wants the
// reminder.
func New(store *localstore.Store, table remote.Table, sessions session.Accessor, notify func(string)) *Reconciler {
	return &Reconciler{
		store:    store,
		table:    table,
		sessions: sessions,
		notify:   notify,
	}
}

// Sync pushes every completed && !synced local report to the remote
// table with the current identity attached, then drops the synced
// copies locally (re-applying the local eviction rule to what remains).
//
// Unauthenticated, it performs no writes and surfaces a one-time
// notice instead; the notice is not repeated on every poll. A failed
// remote write is logged and the local copy kept for the next pass.
func (r *Reconciler) Sync(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	eligible := r.store.UnsyncedCompleted()
	if len(eligible) == 0 {
		return nil
	}

	sess, authenticated := r.sessions.Current()
	if !authenticated {
		if !r.notified {
			r.notified = true
			if r.notify != nil {
				r.notify(LoginNotice)
			}
		}
		return nil
	}

	// A fresh login gets a fresh reminder later.
	r.notified = false

	for _, report := range eligible {
		if err := r.table.Upsert(ctx, report, sess, true); err != nil {
			log.Printf("reconcile: sync %s failed, keeping local copy: %v", report.ReportID, err)
			continue
		}
		if err := r.store.DeleteReport(report.ReportID); err != nil {
			log.Printf("reconcile: drop synced copy of %s: %v", report.ReportID, err)
		}
	}
	return nil
}
