// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud implements the client for the OpenAI-compatible chat
// completion endpoint that drives conversations.
//
// Responses are streamed over SSE; the client accumulates deltas into
// cumulative assistant text so callers always observe a growing prefix
// of the final message, never isolated fragments. Retries with
// exponential backoff handle transient failures, and a StreamError
// preserves partial content received before a mid-stream drop.
package cloud
