// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/innerbook/internal/localstore"
	"github.com/jeranaias/innerbook/internal/model"
	"github.com/jeranaias/innerbook/internal/remote"
	"github.com/jeranaias/innerbook/internal/session"
)

// countingTable records upserts per report and can be made to fail.
type countingTable struct {
	mu      sync.Mutex
	upserts map[string]int
	idents  map[string]string
	failing bool
}

func newCountingTable() *countingTable {
	return &countingTable{
		upserts: make(map[string]int),
		idents:  make(map[string]string),
	}
}

func (c *countingTable) Upsert(ctx context.Context, r model.Report, sess session.Session, authenticated bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("remote down")
	}
	c.upserts[r.ReportID]++
	if authenticated {
		c.idents[r.ReportID] = sess.Username
	}
	return nil
}

func (c *countingTable) Detail(ctx context.Context, reportID string, skipCache bool) (remote.Detail, error) {
	return remote.Detail{}, remote.ErrNotFound
}

func (c *countingTable) List(ctx context.Context, username string, skipCache bool) ([]remote.Detail, error) {
	return nil, nil
}

func seedCompleted(t *testing.T, store *localstore.Store, id string) {
	t.Helper()
	err := store.UpsertReport(model.Report{
		ReportID:  id,
		Mode:      model.ModeDiscoverSelf,
		Status:    model.ReportCompleted,
		Lock:      true,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSyncUnauthenticatedNotifiesOnce(t *testing.T) {
	store := localstore.Open(t.TempDir())
	table := newCountingTable()
	sessions := &session.Static{}

	var notices []string
	r := New(store, table, sessions, func(msg string) {
		notices = append(notices, msg)
	})

	seedCompleted(t, store, "r1")

	for i := 0; i < 5; i++ {
		if err := r.Sync(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	if len(notices) != 1 {
		t.Fatalf("notice shown %d times, want 1", len(notices))
	}
	if notices[0] != LoginNotice {
		t.Errorf("notice = %q", notices[0])
	}
	if len(table.upserts) != 0 {
		t.Error("unauthenticated sync must not write remotely")
	}
	if _, err := store.Report("r1"); err != nil {
		t.Error("unauthenticated sync must not touch the local copy")
	}
}

func TestSyncAuthenticatedPushesAndDrops(t *testing.T) {
	store := localstore.Open(t.TempDir())
	table := newCountingTable()
	sessions := &session.Static{
		Session:  session.Session{Username: "dora", UserID: "u_1"},
		LoggedIn: true,
	}
	r := New(store, table, sessions, nil)

	seedCompleted(t, store, "r1")
	seedCompleted(t, store, "r2")

	if err := r.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}

	if table.upserts["r1"] != 1 || table.upserts["r2"] != 1 {
		t.Errorf("upserts = %v", table.upserts)
	}
	if table.idents["r1"] != "dora" {
		t.Errorf("identity = %q, want dora", table.idents["r1"])
	}
	for _, id := range []string{"r1", "r2"} {
		if _, err := store.Report(id); !errors.Is(err, localstore.ErrReportNotFound) {
			t.Errorf("synced report %s should be dropped locally", id)
		}
	}
}

func TestSyncIsRedundantSafe(t *testing.T) {
	store := localstore.Open(t.TempDir())
	table := newCountingTable()
	sessions := &session.Static{LoggedIn: true, Session: session.Session{Username: "dora"}}
	r := New(store, table, sessions, nil)

	seedCompleted(t, store, "r1")

	// Mount effect and storage event both fire.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Sync(context.Background())
		}()
	}
	wg.Wait()

	if table.upserts["r1"] != 1 {
		t.Errorf("report synced %d times, want 1", table.upserts["r1"])
	}
}

func TestSyncFailureKeepsLocalCopy(t *testing.T) {
	store := localstore.Open(t.TempDir())
	table := newCountingTable()
	table.failing = true
	sessions := &session.Static{LoggedIn: true, Session: session.Session{Username: "dora"}}
	r := New(store, table, sessions, nil)

	seedCompleted(t, store, "r1")

	if err := r.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Report("r1"); err != nil {
		t.Error("failed sync must keep the local copy")
	}

	// Recovery on the next pass.
	table.mu.Lock()
	table.failing = false
	table.mu.Unlock()
	if err := r.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if table.upserts["r1"] != 1 {
		t.Errorf("upserts = %d, want 1 after recovery", table.upserts["r1"])
	}
	if _, err := store.Report("r1"); !errors.Is(err, localstore.ErrReportNotFound) {
		t.Error("recovered sync should drop the local copy")
	}
}

func TestSyncPendingReportsAreNotEligible(t *testing.T) {
	store := localstore.Open(t.TempDir())
	table := newCountingTable()
	sessions := &session.Static{LoggedIn: true, Session: session.Session{Username: "dora"}}
	r := New(store, table, sessions, nil)

	store.UpsertReport(model.Report{
		ReportID:  "pending",
		Mode:      model.ModeDiscoverSelf,
		Status:    model.ReportPending,
		CreatedAt: time.Now(),
	})

	if err := r.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(table.upserts) != 0 {
		t.Error("pending reports must not be synced")
	}
	if _, err := store.Report("pending"); err != nil {
		t.Error("pending report must stay local")
	}
}
