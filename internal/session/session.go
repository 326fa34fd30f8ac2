// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/innerbook/internal/util"
)

// CredentialsFile is the credentials file inside the data directory.
const CredentialsFile = "credentials.json"

// =============================================================================
// SESSION
// =============================================================================

// Session identifies the authenticated user.
type Session struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

// Accessor reports the current session. Implementations must evaluate at
// call time, not cache: the lifecycle manager and reconciler rely on
// "check at call time" semantics.
type Accessor interface {
	// Current returns the active session and whether a user is logged in.
	Current() (Session, bool)
}

// =============================================================================
// FILE ACCESSOR
// =============================================================================

// FileAccessor reads the session from a credentials file on every call.
type FileAccessor struct {
	path string
}

// NewFileAccessor creates an accessor over the data directory.
func NewFileAccessor(dataDir string) *FileAccessor {
	return &FileAccessor{path: filepath.Join(dataDir, CredentialsFile)}
}

// Current implements Accessor. Missing or unreadable credentials mean
// "not logged in"; they are never an error.
func (a *FileAccessor) Current() (Session, bool) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return Session{}, false
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, false
	}
	if strings.TrimSpace(s.Username) == "" {
		return Session{}, false
	}
	return s, true
}

// Login persists the session. Credentials are written with owner-only
// permissions.
func (a *FileAccessor) Login(s Session) error {
	if strings.TrimSpace(s.Username) == "" {
		return fmt.Errorf("username must not be empty")
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(a.path, data, 0600)
}

// Logout removes the stored credentials. Logging out while logged out is
// a no-op.
func (a *FileAccessor) Logout() error {
	if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// =============================================================================
// STATIC ACCESSOR
// =============================================================================

// Static is a fixed-session Accessor for tests and wiring.
type Static struct {
	Session  Session
	LoggedIn bool
}

// Current implements Accessor.
func (s *Static) Current() (Session, bool) {
	return s.Session, s.LoggedIn
}
