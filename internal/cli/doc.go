// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the innerbook command-line surface.
//
// The primary command is the interactive chat REPL, which walks the
// user through a questionnaire round by round and ends in a locked
// report. Supporting commands cover report listing, unlocking,
// login/logout, and invite-code seeding for operators.
package cli
