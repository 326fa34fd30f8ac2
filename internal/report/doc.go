// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package report implements the report lifecycle: none -> pending ->
// completed, with an orthogonal locked/unlocked gate redeemed through
// invite codes.
//
// The manager writes locally first and mirrors to the remote table on
// a best-effort basis; a remote failure is logged and never aborts the
// local transition, so user-visible state is never worse than "saved
// locally only". Lifecycle milestones are published on a typed event
// bus rather than through registered UI callbacks, so nothing depends
// on a particular surface having mounted first.
package report
