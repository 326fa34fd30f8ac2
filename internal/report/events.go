// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package report

import "sync"

// =============================================================================
// EVENTS
// =============================================================================

// Event is a lifecycle milestone published by the manager.
type Event interface {
	isEvent()
}

// Locked is published after a report is completed and mirrored
// remotely: the report now sits behind the invite-code gate and the
// unlock prompt should be surfaced.
type Locked struct {
	ReportID string
}

// Unlocked is published after an invite code is successfully redeemed.
type Unlocked struct {
	ReportID string
}

// LoginPrompt is published when an unlock succeeded but the user is not
// authenticated; login is surfaced as a follow-up, independent gate.
type LoginPrompt struct {
	ReportID string
}

func (Locked) isEvent()      {}
func (Unlocked) isEvent()    {}
func (LoginPrompt) isEvent() {}

// =============================================================================
// BUS
// =============================================================================

// Bus fans lifecycle events out to subscribers. Publishing with no
// subscribers is a no-op, never an error: events fire regardless of
// what surfaces happen to be listening.
type Bus struct {
	mu   sync.Mutex
	subs []func(Event)
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all subsequent events. Handlers run
// synchronously on the publishing goroutine.
func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish delivers the event to every subscriber.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	subs := make([]func(Event), len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
}
