// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sentinel classifies streamed assistant output as ordinary chat
// or report generation.
//
// The model signals a report by prefixing its output with the literal
// marker "[Report]" (case-insensitive). Detection happens once per round
// against the first observed content and is sticky for the remainder of
// that round. The package also owns the content-cleaning rules applied
// before a report is persisted: the marker is stripped, and the first
// level-1 heading is promoted to the report subtitle.
package sentinel
