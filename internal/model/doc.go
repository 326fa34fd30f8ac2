// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the guided conversation
// and the generated report.
//
// A conversation is an ordered list of Messages exchanged with the LLM.
// Once the model starts emitting a report, the accumulated output is
// captured in a Report entity that moves through a small lifecycle:
//
//	pending -> completed
//
// with an orthogonal locked/unlocked gate controlled by invite codes.
// Reports are owned by the session while pending; after completion they
// are shared between the local cache (subject to eviction) and the remote
// store (authoritative once synced).
package model
