// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package typewriter

import (
	"context"
	"sync"
	"time"

	"github.com/jeranaias/innerbook/internal/sentinel"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultInterval is the default reveal tick interval.
	DefaultInterval = 30 * time.Millisecond

	// DefaultMaxStep bounds how many characters a single tick may reveal,
	// no matter how far behind the display is.
	DefaultMaxStep = 24
)

// =============================================================================
// CALLBACKS
// =============================================================================

// Callbacks receive the displayed text as it advances. Both are invoked
// from the engine's tick goroutine (or synchronously in passthrough
// mode); implementations must be safe for that.
type Callbacks struct {
	// OnContent is invoked with the currently displayed text after every
	// tick that advanced the cursor.
	OnContent func(displayed string)

	// OnReport is invoked instead of additionally when the received text
	// begins with the report sentinel; it gets the displayed text with
	// the sentinel stripped.
	OnReport func(displayed string)
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine reveals one message's streamed content at a readable pace.
// Create one engine per assistant message.
type Engine struct {
	mu sync.Mutex

	// Cursors. received holds the full decoded text delivered so far;
	// displayed counts how many of its runes are currently shown.
	received  []rune
	displayed int

	// inputDone is set once the upstream stream has signaled completion.
	inputDone bool

	interval time.Duration
	maxStep  int
	passthru bool

	callbacks Callbacks
	det       sentinel.Detector

	done     chan struct{}
	doneOnce sync.Once
	stopOnce sync.Once
	stop     chan struct{}
}

// New creates an engine and starts its reveal loop.
func New(interval time.Duration, maxStep int, cb Callbacks) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxStep <= 0 {
		maxStep = DefaultMaxStep
	}

	e := &Engine{
		interval:  interval,
		maxStep:   maxStep,
		callbacks: cb,
		done:      make(chan struct{}),
		stop:      make(chan struct{}),
	}
	go e.run()
	return e
}

// NewPassthrough creates an engine in direct passthrough mode: every Feed
// is revealed immediately. Used with sources that pace their own output.
func NewPassthrough(cb Callbacks) *Engine {
	return &Engine{
		passthru:  true,
		callbacks: cb,
		done:      make(chan struct{}),
		stop:      make(chan struct{}),
	}
}

// Feed delivers a cumulative content update: the full text received so
// far, not a delta. Updates that would shrink the text are ignored, since
// received only grows.
func (e *Engine) Feed(full string) {
	if e.passthru {
		e.feedPassthrough(full)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	runes := []rune(full)
	if len(runes) <= len(e.received) {
		return
	}
	e.received = runes
	e.det.Observe(full)
}

// feedPassthrough reveals the update synchronously.
func (e *Engine) feedPassthrough(full string) {
	e.mu.Lock()
	runes := []rune(full)
	if len(runes) < len(e.received) {
		e.mu.Unlock()
		return
	}
	e.received = runes
	e.displayed = len(runes)
	isReport := e.det.Observe(full)
	cb := e.callbacks
	e.mu.Unlock()

	e.emit(cb, full, isReport)
}

// FinishInput signals that the upstream stream has completed. The engine
// keeps ticking until the display catches up, then closes Done.
func (e *Engine) FinishInput() {
	e.mu.Lock()
	e.inputDone = true
	caughtUp := e.passthru || e.displayed >= len(e.received)
	e.mu.Unlock()

	if caughtUp {
		e.finish()
	}
}

// Done is closed once the stream has completed AND the displayed text has
// caught up with the received text.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the joint completion condition holds or the context
// is canceled.
func (e *Engine) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop tears down the reveal loop without waiting for completion. It must
// be called when the consuming view goes away so ticks do not leak.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// Displayed returns the text currently revealed.
func (e *Engine) Displayed() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return string(e.received[:e.displayed])
}

// =============================================================================
// REVEAL LOOP
// =============================================================================

// run is the periodic reveal task. It keeps progressing even while the
// network read is still in flight; streaming and rendering are separate
// tasks.
func (e *Engine) run() {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			if e.tick() {
				e.finish()
				return
			}
		}
	}
}

// tick advances the displayed cursor and fires callbacks. It returns true
// once the engine should terminate: input complete and display caught up.
func (e *Engine) tick() bool {
	e.mu.Lock()
	gap := len(e.received) - e.displayed

	if gap <= 0 {
		finished := e.inputDone
		e.mu.Unlock()
		return finished
	}

	step := (gap+9)/10 + 1
	if step > e.maxStep {
		step = e.maxStep
	}
	if step > gap {
		step = gap
	}
	e.displayed += step

	displayed := string(e.received[:e.displayed])
	isReport := e.det.IsReport()
	cb := e.callbacks
	finished := e.inputDone && e.displayed >= len(e.received)
	e.mu.Unlock()

	e.emit(cb, displayed, isReport)
	return finished
}

// emit routes a reveal to the right callback set. Report updates are held
// back until the displayed text covers the whole marker, so the stripped
// content never contains marker fragments.
func (e *Engine) emit(cb Callbacks, displayed string, isReport bool) {
	if cb.OnContent != nil {
		cb.OnContent(displayed)
	}
	if isReport && cb.OnReport != nil && len(displayed) >= len(sentinel.Prefix) {
		cb.OnReport(sentinel.StripPrefix(displayed))
	}
}

// finish closes the done channel exactly once and stops the loop.
func (e *Engine) finish() {
	e.stopOnce.Do(func() { close(e.stop) })
	e.doneOnce.Do(func() { close(e.done) })
}
