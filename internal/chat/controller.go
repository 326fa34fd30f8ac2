// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/innerbook/internal/cloud"
	"github.com/jeranaias/innerbook/internal/localstore"
	"github.com/jeranaias/innerbook/internal/model"
	"github.com/jeranaias/innerbook/internal/report"
	"github.com/jeranaias/innerbook/internal/sentinel"
	"github.com/jeranaias/innerbook/internal/typewriter"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// KickoffMessage opens every fresh conversation on the user's behalf.
	KickoffMessage = "你好，我准备好了，请开始吧。"

	// DefaultMaxRounds caps the progress indicator.
	DefaultMaxRounds = 10
)

// Error variables for send contract violations.
var (
	// ErrEmptyMessage rejects blank or whitespace-only input.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrRoundInFlight rejects a send while a prior reply is still
	// streaming.
	ErrRoundInFlight = errors.New("a reply is still streaming")
)

// =============================================================================
// STREAMER CONTRACT
// =============================================================================

// Streamer produces one assistant reply as a stream of cumulative
// content updates. Satisfied by *cloud.Client and *offline.Client.
type Streamer interface {
	StreamMessage(ctx context.Context, messages []cloud.ChatMessage, onUpdate func(cumulative string)) (string, error)
}

// SelfPacer is implemented by streamers that pace their own output and
// therefore bypass the typewriter reveal loop.
type SelfPacer interface {
	SelfPaced() bool
}

// =============================================================================
// CALLBACKS
// =============================================================================

// Callbacks let a rendering surface observe a round as it streams. Both
// are invoked from the typewriter's tick goroutine (or synchronously in
// passthrough mode); implementations must be safe for that.
type Callbacks struct {
	// OnAssistant fires with the currently displayed assistant text on
	// every reveal tick.
	OnAssistant func(displayed string)

	// OnReport fires with the marker-stripped report body while a report
	// round streams.
	OnReport func(displayed string)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns one conversation transcript and drives its rounds.
type Controller struct {
	streamer Streamer
	manager  *report.Manager
	mode     model.Mode

	interval    time.Duration
	maxRounds   int
	system      string
	callbacks   Callbacks
	passthrough bool

	mu       sync.Mutex
	messages []model.Message
	inFlight bool
	reportID string
}

// NewController wires a conversation controller for the given mode.
// Streamers that declare themselves self-paced get passthrough reveal.
func NewController(streamer Streamer, manager *report.Manager, mode model.Mode) *Controller {
	c := &Controller{
		streamer:  streamer,
		manager:   manager,
		mode:      mode,
		interval:  typewriter.DefaultInterval,
		maxRounds: DefaultMaxRounds,
	}
	if sp, ok := streamer.(SelfPacer); ok && sp.SelfPaced() {
		c.passthrough = true
	}
	return c
}

// WithInterval sets the typewriter reveal interval.
func (c *Controller) WithInterval(interval time.Duration) *Controller {
	if interval > 0 {
		c.interval = interval
	}
	return c
}

// WithMaxRounds sets the progress cap.
func (c *Controller) WithMaxRounds(n int) *Controller {
	if n > 0 {
		c.maxRounds = n
	}
	return c
}

// WithSystemPrompt prepends a system message to every request.
func (c *Controller) WithSystemPrompt(prompt string) *Controller {
	c.system = prompt
	return c
}

// WithCallbacks registers the rendering surface.
func (c *Controller) WithCallbacks(cb Callbacks) *Controller {
	c.callbacks = cb
	return c
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start resumes the mode's pending conversation if one exists, otherwise
// creates a fresh report and sends the kick-off message.
func (c *Controller) Start(ctx context.Context) error {
	if r, ok := c.manager.Resume(c.mode); ok {
		c.mu.Lock()
		c.reportID = r.ReportID
		c.messages = append([]model.Message(nil), r.Messages...)
		c.mu.Unlock()
		return nil
	}

	r, err := c.manager.Create(ctx, c.mode)
	if err != nil {
		return fmt.Errorf("start conversation: %w", err)
	}
	c.mu.Lock()
	c.reportID = r.ReportID
	c.mu.Unlock()

	return c.Send(ctx, KickoffMessage)
}

// ReportID returns the report this conversation is building.
func (c *Controller) ReportID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reportID
}

// =============================================================================
// SEND
// =============================================================================

// Send runs one round: append the user message and a loading assistant
// placeholder, stream the reply through the typewriter, then finalize
// both messages. Blank input and overlapping sends are rejected up
// front. On failure the placeholder is removed entirely and the user
// message is marked for retry.
//
// When the reply is a report, the pending record is refreshed on every
// reveal tick and the report is completed once the display catches up.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrRoundInFlight
	}
	c.inFlight = true
	user := model.NewUserMessage(text)
	placeholder := model.NewAssistantPlaceholder()
	c.messages = append(c.messages, user, placeholder)
	wire := c.wireHistoryLocked()
	reportID := c.reportID
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	engine := c.newEngine(reportID, placeholder.ID)
	final, err := c.streamer.StreamMessage(ctx, wire, engine.Feed)
	if err != nil {
		engine.Stop()
		c.failRound(user.ID, placeholder.ID)
		return fmt.Errorf("stream reply: %w", err)
	}

	// The final text may extend past the last cumulative update.
	engine.Feed(final)
	engine.FinishInput()
	if err := engine.Wait(ctx); err != nil {
		engine.Stop()
		c.failRound(user.ID, placeholder.ID)
		return err
	}

	c.mu.Lock()
	c.setMessageLocked(placeholder.ID, final, model.StatusSuccess)
	c.setStatusLocked(user.ID, model.StatusSuccess)
	transcript := append([]model.Message(nil), c.messages...)
	c.mu.Unlock()

	if err := c.manager.SaveTranscript(reportID, transcript); err != nil && !errors.Is(err, localstore.ErrReportNotFound) {
		log.Printf("chat: save transcript for %s: %v", reportID, err)
	}

	if sentinel.HasPrefix(final) {
		if err := c.manager.UpdateContent(reportID, final); err != nil {
			log.Printf("chat: refresh report %s: %v", reportID, err)
		}
		if err := c.manager.Complete(ctx, reportID, transcript); err != nil && !errors.Is(err, report.ErrCompleting) {
			return fmt.Errorf("complete report: %w", err)
		}
	}
	return nil
}

// newEngine builds the reveal engine for one round. OnContent keeps the
// placeholder message current; OnReport additionally refreshes the
// pending report record so a crash mid-stream loses at most one tick.
func (c *Controller) newEngine(reportID string, placeholderID int64) *typewriter.Engine {
	cb := typewriter.Callbacks{
		OnContent: func(displayed string) {
			c.mu.Lock()
			c.setMessageLocked(placeholderID, displayed, model.StatusLoading)
			c.mu.Unlock()
			if c.callbacks.OnAssistant != nil {
				c.callbacks.OnAssistant(displayed)
			}
		},
		OnReport: func(displayed string) {
			if err := c.manager.UpdateContent(reportID, displayed); err != nil {
				log.Printf("chat: refresh report %s: %v", reportID, err)
			}
			if c.callbacks.OnReport != nil {
				c.callbacks.OnReport(displayed)
			}
		},
	}
	if c.passthrough {
		return typewriter.NewPassthrough(cb)
	}
	return typewriter.New(c.interval, 0, cb)
}

// failRound removes the placeholder and marks the user message for
// retry. The user's text stays in the transcript, visibly unanswered.
func (c *Controller) failRound(userID, placeholderID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].ID == placeholderID {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			break
		}
	}
	c.setStatusLocked(userID, model.StatusError)
}

// =============================================================================
// TRANSCRIPT ACCESS
// =============================================================================

// Messages returns a snapshot of the transcript.
func (c *Controller) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Message(nil), c.messages...)
}

// RestoreMessages replaces the transcript wholesale, used when loading
// a persisted conversation. Rejected while a round is in flight.
func (c *Controller) RestoreMessages(messages []model.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return ErrRoundInFlight
	}
	c.messages = append([]model.Message(nil), messages...)
	return nil
}

// Progress returns the number of completed assistant replies, capped at
// the round limit. The UI renders this as "n/10".
func (c *Controller) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.messages {
		if m.Role == model.RoleAssistant && m.Status == model.StatusSuccess {
			n++
		}
	}
	if n > c.maxRounds {
		n = c.maxRounds
	}
	return n
}

// MaxRounds returns the progress cap.
func (c *Controller) MaxRounds() int {
	return c.maxRounds
}

// InFlight reports whether a reply is currently streaming.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// =============================================================================
// INTERNALS
// =============================================================================

// wireHistoryLocked converts the transcript to the wire shape: the
// optional system prompt, then every settled message. Loading
// placeholders and failed rounds are excluded. Caller holds mu.
func (c *Controller) wireHistoryLocked() []cloud.ChatMessage {
	wire := make([]cloud.ChatMessage, 0, len(c.messages)+1)
	if c.system != "" {
		wire = append(wire, cloud.NewSystemMessage(c.system))
	}
	for _, m := range c.messages {
		switch {
		case m.Status == model.StatusLoading || m.Status == model.StatusError:
			continue
		case m.Role == model.RoleUser:
			wire = append(wire, cloud.NewUserMessage(m.Content))
		case m.Role == model.RoleAssistant:
			wire = append(wire, cloud.NewAssistantMessage(m.Content))
		}
	}
	return wire
}

// setMessageLocked updates one message's content and status in place.
// Caller holds mu.
func (c *Controller) setMessageLocked(id int64, content string, status model.MessageStatus) {
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages[i].Content = content
			c.messages[i].Status = status
			return
		}
	}
}

// setStatusLocked updates one message's status in place. Caller holds mu.
func (c *Controller) setStatusLocked(id int64, status model.MessageStatus) {
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages[i].Status = status
			return
		}
	}
}
