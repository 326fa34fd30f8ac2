// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestFileAccessorLifecycle(t *testing.T) {
	dir := t.TempDir()
	a := NewFileAccessor(dir)

	if _, ok := a.Current(); ok {
		t.Error("no credentials file: should not be logged in")
	}

	if err := a.Login(Session{Username: "dora", UserID: "u_1"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	s, ok := a.Current()
	if !ok {
		t.Fatal("should be logged in after Login")
	}
	if s.Username != "dora" || s.UserID != "u_1" {
		t.Errorf("session = %+v", s)
	}

	if err := a.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := a.Current(); ok {
		t.Error("should be logged out after Logout")
	}

	// Double logout is fine.
	if err := a.Logout(); err != nil {
		t.Errorf("second Logout: %v", err)
	}
}

func TestFileAccessorRejectsEmptyUsername(t *testing.T) {
	a := NewFileAccessor(t.TempDir())
	if err := a.Login(Session{Username: "   "}); err == nil {
		t.Error("Login with blank username should fail")
	}
}

func TestFileAccessorReadsAtCallTime(t *testing.T) {
	dir := t.TempDir()
	a := NewFileAccessor(dir)

	// A second accessor logs in; the first sees it without any refresh.
	b := NewFileAccessor(dir)
	if err := b.Login(Session{Username: "late-login"}); err != nil {
		t.Fatal(err)
	}

	s, ok := a.Current()
	if !ok || s.Username != "late-login" {
		t.Errorf("accessor must read at call time, got (%+v, %v)", s, ok)
	}
}

func TestFileAccessorCorruptCredentials(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, CredentialsFile), []byte("not json"), 0600)

	a := NewFileAccessor(dir)
	if _, ok := a.Current(); ok {
		t.Error("corrupt credentials must read as logged out")
	}
}

func TestWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()

	var fired atomic.Int32
	w, err := NewWatcher(dir, 10*time.Millisecond, func() {
		fired.Add(1)
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "reports.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for fired.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("watcher did not fire")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()

	var fired atomic.Int32
	w, err := NewWatcher(dir, 50*time.Millisecond, func() {
		fired.Add(1)
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	path := filepath.Join(dir, "reports.json")
	for i := 0; i < 5; i++ {
		os.WriteFile(path, []byte("{}"), 0644)
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(300 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Errorf("debounced callback fired %d times, want 1", n)
	}
}
