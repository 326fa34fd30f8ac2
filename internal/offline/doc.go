// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package offline provides the scripted mock conversation source used
// when no API key is configured or mock mode is enabled.
//
// The mock walks a fixed per-mode question script and, once the script
// is exhausted, emits the final marker-prefixed report. Replies are
// self-paced: the mock reveals its own text progressively, so the
// conversation layer displays it directly instead of re-animating it.
package offline
