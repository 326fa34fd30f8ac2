// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the current-session accessor used to decide
// whether identity metadata is attached to report writes.
//
// Auth state is read from a credentials file at call time, never cached:
// a login that happens mid-conversation is visible to the very next
// save. The package also watches the data directory for changes made by
// other processes (the moral equivalent of another browser tab firing a
// storage event) and notifies subscribers so the reconciler can run.
package session
