// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package remote implements the shared report table that mirrors
// completed and in-flight reports.
//
// The table is the durable authority for completed reports and the only
// authority on unlocking: consuming an invite code is the sole path
// that clears a report's lock, so a client can never self-unlock by
// crafting a local update. Rows are written with upsert-by-reportId
// semantics, making redundant syncs of the same report a no-op rather
// than a duplicate.
//
// Row shapes are a versioned DTO decoupled from the internal report
// entity; the mapping layer in row.go isolates the rest of the system
// from storage schema churn.
package remote
