// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package localstore persists the report collection and recent answers to
// a single JSON file, the app's local fallback store.
//
// Every mutation is a full read-merge-write transaction: the file is
// re-read, the mutation applied, capacity eviction enforced, and the
// result written atomically. Call sites never hold a stale in-memory
// snapshot across a write, so concurrent writers (chat controller,
// lifecycle manager, reconciler — or another process watching the same
// file) cannot clobber each other's records.
//
// Capacity rules: at most MaxCompleted completed reports are retained
// (most recent by creation time), and at most one pending report per
// mode. A corrupt file fails closed as an empty collection.
package localstore
