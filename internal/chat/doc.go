// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs the guided conversation: it owns the in-memory
// transcript, drives one streaming round at a time, and routes report
// rounds into the lifecycle manager.
//
// A round is user message -> assistant reply. The controller enforces
// single-flight: while a reply is streaming, further sends are rejected
// rather than queued. Each assistant reply flows through a typewriter
// engine so the user reads it at a steady pace; sources that pace their
// own output (the offline script) are passed through unthrottled.
package chat
