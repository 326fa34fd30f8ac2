// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reconcile pushes locally retained completed reports to the
// remote table once a user is authenticated.
//
// Sync runs on every authentication-state check: app start, an
// explicit post-login call, and data-directory change notifications
// from other processes. It is safe to trigger redundantly or
// concurrently — remote writes are upserts keyed by reportId, so a
// duplicate sync is a no-op, and the unauthenticated reminder is shown
// at most once per session.
package reconcile
