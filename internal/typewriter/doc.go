// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package typewriter decouples the arrival rate of streamed model output
// from the rate at which it is revealed to the user.
//
// The engine keeps two cursors: received (the full text delivered so far)
// and displayed (the substring currently shown). A periodic tick advances
// displayed toward received with a step size that grows when the gap is
// large, so the reveal catches up after a network burst but still reads
// like typing. The displayed cursor only ever moves forward and never
// runs ahead of received.
//
// A passthrough mode exists for data sources that pace their own output
// (the offline mock); callers choose the mode once per message.
package typewriter
