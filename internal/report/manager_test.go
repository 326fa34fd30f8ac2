// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package report

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jeranaias/innerbook/internal/localstore"
	"github.com/jeranaias/innerbook/internal/model"
	"github.com/jeranaias/innerbook/internal/remote"
	"github.com/jeranaias/innerbook/internal/session"
)

// fakeTable is an in-memory remote.Table that can be made to fail and
// can block mid-write to exercise the completion guard.
type fakeTable struct {
	mu      sync.Mutex
	rows    map[string]model.Report
	idents  map[string]string
	upserts atomic.Int32
	failing bool
	gate    chan struct{} // when non-nil, Upsert blocks until closed
	entered chan struct{} // signaled when Upsert reaches the gate
}

func newFakeTable() *fakeTable {
	return &fakeTable{
		rows:   make(map[string]model.Report),
		idents: make(map[string]string),
	}
}

func (f *fakeTable) Upsert(ctx context.Context, r model.Report, sess session.Session, authenticated bool) error {
	if f.gate != nil {
		if f.entered != nil {
			f.entered <- struct{}{}
		}
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("remote down")
	}
	f.upserts.Add(1)
	f.rows[r.ReportID] = r
	if authenticated {
		f.idents[r.ReportID] = sess.Username
	}
	return nil
}

func (f *fakeTable) Detail(ctx context.Context, reportID string, skipCache bool) (remote.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[reportID]
	if !ok {
		return remote.Detail{}, remote.ErrNotFound
	}
	return remote.Detail{
		ReportID:    r.ReportID,
		Content:     r.Content,
		SubTitle:    r.SubTitle,
		IsLocked:    r.Lock,
		IsCompleted: r.IsCompleted(),
	}, nil
}

func (f *fakeTable) List(ctx context.Context, username string, skipCache bool) ([]remote.Detail, error) {
	return nil, nil
}

// fakeVerifier accepts a single known code.
type fakeVerifier struct {
	code  string
	calls int
}

func (f *fakeVerifier) Verify(ctx context.Context, reportID, code string) (remote.VerifyResult, error) {
	f.calls++
	if code == f.code {
		return remote.VerifyResult{Success: true, Message: "解锁成功"}, nil
	}
	return remote.VerifyResult{Success: false, Message: "邀请码无效"}, nil
}

type fixture struct {
	store    *localstore.Store
	table    *fakeTable
	verifier *fakeVerifier
	sessions *session.Static
	bus      *Bus
	mgr      *Manager
	events   []Event
	eventsMu *sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    localstore.Open(t.TempDir()),
		table:    newFakeTable(),
		verifier: &fakeVerifier{code: "VALID"},
		sessions: &session.Static{},
		bus:      NewBus(),
		eventsMu: &sync.Mutex{},
	}
	f.bus.Subscribe(func(e Event) {
		f.eventsMu.Lock()
		f.events = append(f.events, e)
		f.eventsMu.Unlock()
	})
	f.mgr = NewManager(f.store, f.table, f.verifier, f.sessions, f.bus)
	return f
}

func (f *fixture) published() []Event {
	f.eventsMu.Lock()
	defer f.eventsMu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

// =============================================================================
// CREATE
// =============================================================================

func TestCreateWritesLocalAndMirrorsRemote(t *testing.T) {
	f := newFixture(t)

	r, err := f.mgr.Create(context.Background(), model.ModeDiscoverSelf)
	if err != nil {
		t.Fatal(err)
	}

	local, err := f.store.Report(r.ReportID)
	if err != nil {
		t.Fatalf("local copy missing: %v", err)
	}
	if !local.IsPending() || !local.Lock {
		t.Errorf("new report should be pending and locked: %+v", local)
	}

	f.table.mu.Lock()
	_, mirrored := f.table.rows[r.ReportID]
	f.table.mu.Unlock()
	if !mirrored {
		t.Error("new report should be mirrored remotely")
	}
}

func TestCreateSurvivesRemoteFailure(t *testing.T) {
	f := newFixture(t)
	f.table.failing = true

	r, err := f.mgr.Create(context.Background(), model.ModeDiscoverSelf)
	if err != nil {
		t.Fatalf("remote failure must not abort creation: %v", err)
	}
	if _, err := f.store.Report(r.ReportID); err != nil {
		t.Error("local copy must survive remote failure")
	}
}

func TestCreateAttachesIdentityAtCallTime(t *testing.T) {
	f := newFixture(t)
	f.sessions.Session = session.Session{Username: "dora"}
	f.sessions.LoggedIn = true

	r, err := f.mgr.Create(context.Background(), model.ModeDiscoverSelf)
	if err != nil {
		t.Fatal(err)
	}

	f.table.mu.Lock()
	ident := f.table.idents[r.ReportID]
	f.table.mu.Unlock()
	if ident != "dora" {
		t.Errorf("identity = %q, want dora", ident)
	}
}

// =============================================================================
// UPDATE CONTENT
// =============================================================================

func TestUpdateContentRecomputesDerivedFields(t *testing.T) {
	f := newFixture(t)
	r, _ := f.mgr.Create(context.Background(), model.ModeDiscoverSelf)

	raw := "[Report]\n# 个人天赋使用说明书\n正文第一段"
	if err := f.mgr.UpdateContent(r.ReportID, raw); err != nil {
		t.Fatal(err)
	}

	local, _ := f.store.Report(r.ReportID)
	if local.SubTitle != "个人天赋使用说明书" {
		t.Errorf("subtitle = %q", local.SubTitle)
	}
	if local.Content != "正文第一段" {
		t.Errorf("content = %q", local.Content)
	}

	// Calling again with a longer cumulative text is last-write-wins.
	if err := f.mgr.UpdateContent(r.ReportID, raw+"\n更多内容"); err != nil {
		t.Fatal(err)
	}
	local, _ = f.store.Report(r.ReportID)
	if local.Content != "正文第一段\n更多内容" {
		t.Errorf("content = %q", local.Content)
	}
}

func TestUpdateContentRejectsUnknownReport(t *testing.T) {
	f := newFixture(t)
	if err := f.mgr.UpdateContent("missing", "text"); !errors.Is(err, localstore.ErrReportNotFound) {
		t.Errorf("expected ErrReportNotFound, got %v", err)
	}
}

// =============================================================================
// COMPLETE
// =============================================================================

func TestCompleteUnauthenticatedRetainsLocalCopy(t *testing.T) {
	f := newFixture(t)
	r, _ := f.mgr.Create(context.Background(), model.ModeDiscoverSelf)

	msgs := []model.Message{{Role: model.RoleUser, Content: "hi"}}
	if err := f.mgr.Complete(context.Background(), r.ReportID, msgs); err != nil {
		t.Fatal(err)
	}

	local, err := f.store.Report(r.ReportID)
	if err != nil {
		t.Fatal("anonymous completion must retain the local copy")
	}
	if !local.IsCompleted() {
		t.Error("local copy should be completed")
	}
	if local.Synced {
		t.Error("identity-less mirror must leave Synced false for the reconciler")
	}
}

func TestCompleteAuthenticatedDeletesLocalCopy(t *testing.T) {
	f := newFixture(t)
	f.sessions.Session = session.Session{Username: "dora"}
	f.sessions.LoggedIn = true
	r, _ := f.mgr.Create(context.Background(), model.ModeDiscoverSelf)

	if err := f.mgr.Complete(context.Background(), r.ReportID, nil); err != nil {
		t.Fatal(err)
	}

	if _, err := f.store.Report(r.ReportID); !errors.Is(err, localstore.ErrReportNotFound) {
		t.Error("authenticated completion must delete the local copy")
	}
}

func TestCompletePublishesLockedOnce(t *testing.T) {
	f := newFixture(t)
	r, _ := f.mgr.Create(context.Background(), model.ModeDiscoverSelf)

	if err := f.mgr.Complete(context.Background(), r.ReportID, nil); err != nil {
		t.Fatal(err)
	}
	// Second sequential call is an idempotent no-op.
	if err := f.mgr.Complete(context.Background(), r.ReportID, nil); err != nil {
		t.Fatal(err)
	}

	locked := 0
	for _, e := range f.published() {
		if _, ok := e.(Locked); ok {
			locked++
		}
	}
	if locked != 1 {
		t.Errorf("Locked published %d times, want 1", locked)
	}

	// Create mirrors once, completion once; the idempotent repeat adds
	// nothing.
	if n := f.table.upserts.Load(); n != 2 {
		t.Errorf("remote upserts = %d, want 2", n)
	}
}

func TestCompleteGuardsConcurrentInvocation(t *testing.T) {
	f := newFixture(t)
	r, _ := f.mgr.Create(context.Background(), model.ModeDiscoverSelf)

	f.table.gate = make(chan struct{})
	f.table.entered = make(chan struct{}, 1)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- f.mgr.Complete(context.Background(), r.ReportID, nil)
	}()

	// Wait until the first call is mid-persist, then race it.
	<-f.table.entered
	if second := f.mgr.Complete(context.Background(), r.ReportID, nil); !errors.Is(second, ErrCompleting) {
		t.Errorf("expected ErrCompleting, got %v", second)
	}

	close(f.table.gate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first completion failed: %v", err)
	}
}

func TestCompleteRemoteFailureKeepsLocalTruth(t *testing.T) {
	f := newFixture(t)
	r, _ := f.mgr.Create(context.Background(), model.ModeDiscoverSelf)
	f.table.failing = true

	if err := f.mgr.Complete(context.Background(), r.ReportID, nil); err != nil {
		t.Fatalf("remote failure must not abort the transition: %v", err)
	}

	local, err := f.store.Report(r.ReportID)
	if err != nil {
		t.Fatal(err)
	}
	if !local.IsCompleted() || local.Synced {
		t.Errorf("local copy should be completed and unsynced: %+v", local)
	}

	// No remote write happened, so the unlock flow must not start.
	for _, e := range f.published() {
		if _, ok := e.(Locked); ok {
			t.Error("Locked must not be published when the remote write failed")
		}
	}
}

// =============================================================================
// UNLOCK FLOW
// =============================================================================

func TestHandleInviteCodeSuccess(t *testing.T) {
	f := newFixture(t)

	res, err := f.mgr.HandleInviteCode(context.Background(), "r1", "VALID")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("expected success: %+v", res)
	}

	var sawUnlocked, sawLogin bool
	for _, e := range f.published() {
		switch e.(type) {
		case Unlocked:
			sawUnlocked = true
		case LoginPrompt:
			sawLogin = true
		}
	}
	if !sawUnlocked {
		t.Error("Unlocked must be published")
	}
	if !sawLogin {
		t.Error("unauthenticated unlock must be followed by a login prompt")
	}
}

func TestHandleInviteCodeAuthenticatedSkipsLoginPrompt(t *testing.T) {
	f := newFixture(t)
	f.sessions.LoggedIn = true

	if _, err := f.mgr.HandleInviteCode(context.Background(), "r1", "VALID"); err != nil {
		t.Fatal(err)
	}
	for _, e := range f.published() {
		if _, ok := e.(LoginPrompt); ok {
			t.Error("authenticated unlock must not prompt for login")
		}
	}
}

func TestHandleInviteCodeFailureMutatesNothing(t *testing.T) {
	f := newFixture(t)

	res, err := f.mgr.HandleInviteCode(context.Background(), "r1", "WRONG")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("wrong code must fail")
	}
	if len(f.published()) != 0 {
		t.Errorf("failed unlock must not publish events: %v", f.published())
	}
}

// =============================================================================
// RESUME
// =============================================================================

func TestResumeFindsPendingForMode(t *testing.T) {
	f := newFixture(t)
	r, _ := f.mgr.Create(context.Background(), model.ModeDiscoverSelf)

	got, ok := f.mgr.Resume(model.ModeDiscoverSelf)
	if !ok || got.ReportID != r.ReportID {
		t.Errorf("Resume = (%+v, %v)", got, ok)
	}

	if _, ok := f.mgr.Resume(model.ModeUnderstandOthers); ok {
		t.Error("other mode must have no pending report")
	}
}
