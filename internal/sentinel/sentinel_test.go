// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sentinel

import (
	"testing"
)

// =============================================================================
// DETECTOR TESTS
// =============================================================================

func TestDetectorFiresOnFirstChunk(t *testing.T) {
	var d Detector

	if !d.Observe("[Report]# Insight\n\nYou are...") {
		t.Error("detector should fire on sentinel-prefixed first chunk")
	}
	if !d.IsReport() {
		t.Error("IsReport should be true after detection")
	}
}

func TestDetectorCaseInsensitive(t *testing.T) {
	var d Detector

	if !d.Observe("[report] lowercase marker") {
		t.Error("detection should ignore case")
	}

	d.Reset()
	if !d.Observe("[REPORT] upper") {
		t.Error("detection should ignore case")
	}
}

func TestDetectorSticky(t *testing.T) {
	var d Detector

	d.Observe("[Report] first part")
	// Later cumulative updates keep the classification even though this
	// call alone would still match; stickiness matters for the flag state.
	if !d.Observe("[Report] first part, and more") {
		t.Error("classification must remain report")
	}
	if !d.IsReport() {
		t.Error("IsReport must remain true")
	}
}

func TestDetectorConfirmsAfterShortFirstChunk(t *testing.T) {
	var d Detector

	// The first chunk is shorter than the marker; cumulative growth
	// confirms the classification on a later update.
	if d.Observe("[Rep") {
		t.Error("partial marker should not classify yet")
	}
	if !d.Observe("[Report]\n# Title") {
		t.Error("full marker should classify")
	}
}

func TestDetectorOrdinaryChat(t *testing.T) {
	var d Detector

	if d.Observe("Hi there, tell me more about your week.") {
		t.Error("ordinary chat must not classify as report")
	}
	if d.IsReport() {
		t.Error("IsReport should stay false for chat rounds")
	}
}

// =============================================================================
// TITLE EXTRACTION TESTS
// =============================================================================

func TestExtractSubTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"simple", "# My Title\nBody", "My Title"},
		{"not first line", "intro text\n\n# Deep Insight\nBody", "Deep Insight"},
		{"marker glued to heading", "[Report]# Insight\n\nYou are...", "Insight"},
		{"marker then heading line", "[Report]\n# Title\nBody", "Title"},
		{"emphasis stripped", "# **Bold** _Title_", "Bold Title"},
		{"no heading", "just body text\n## second level only", ""},
		{"empty", "", ""},
		{"indented heading", "  # Padded Title", "Padded Title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractSubTitle(tt.content); got != tt.want {
				t.Errorf("ExtractSubTitle(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

// =============================================================================
// CONTENT CLEANING TESTS
// =============================================================================

func TestStripPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"[Report]\nbody", "body"},
		{"[Report] body", "body"},
		{"[report]body", "body"},
		{"no marker here", "no marker here"},
	}

	for _, tt := range tests {
		if got := StripPrefix(tt.in); got != tt.want {
			t.Errorf("StripPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanContentRoundTrip(t *testing.T) {
	// The round-trip contract: subtitle extraction plus cleaning split a
	// raw report into its storage halves.
	raw := "[Report]\n# My Title\nBody text"

	if got := ExtractSubTitle(StripPrefix(raw)); got != "My Title" {
		t.Errorf("subtitle = %q, want %q", got, "My Title")
	}
	if got := CleanContent(raw); got != "Body text" {
		t.Errorf("content = %q, want %q", got, "Body text")
	}
}

func TestCleanContentNoHeading(t *testing.T) {
	if got := CleanContent("[Report]plain body, no heading"); got != "plain body, no heading" {
		t.Errorf("CleanContent = %q", got)
	}
}

func TestCleanContentKeepsLaterHeadings(t *testing.T) {
	raw := "[Report]\n# Title\nIntro\n# Another H1\nMore"
	want := "Intro\n# Another H1\nMore"
	if got := CleanContent(raw); got != want {
		t.Errorf("CleanContent = %q, want %q", got, want)
	}
}
