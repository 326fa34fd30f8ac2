// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sentinel

import (
	"strings"
)

// Prefix is the literal marker the model emits at the start of a report.
// Matching is case-insensitive.
const Prefix = "[Report]"

// =============================================================================
// DETECTOR
// =============================================================================

// Detector classifies one round of streamed assistant content. The zero
// value is ready to use; create a fresh Detector per round.
//
// Classification is sticky: once a round is classified as a report, every
// later update of that round is a report update, even if the accumulated
// text would no longer match the prefix check. Because updates carry the
// cumulative content, the prefix can only ever be confirmed by growth,
// never revoked.
type Detector struct {
	report bool
}

// Observe feeds the accumulated content received so far and reports
// whether the round is (now) classified as a report.
func (d *Detector) Observe(content string) bool {
	if !d.report && HasPrefix(content) {
		d.report = true
	}
	return d.report
}

// IsReport reports the current classification without consuming an
// observation.
func (d *Detector) IsReport() bool {
	return d.report
}

// Reset returns the detector to its initial state for a new round.
func (d *Detector) Reset() {
	d.report = false
}

// HasPrefix reports whether content starts with the report marker,
// ignoring case.
func HasPrefix(content string) bool {
	return len(content) >= len(Prefix) && strings.EqualFold(content[:len(Prefix)], Prefix)
}

// =============================================================================
// TITLE EXTRACTION
// =============================================================================

// ExtractSubTitle returns the text of the first level-1 heading line
// found anywhere in content, with markdown emphasis markers stripped.
// A leading report marker is removed first, so a heading glued to the
// marker ("[Report]# Title") is still found. If no heading exists it
// returns "" — no guessing.
func ExtractSubTitle(content string) string {
	line, _ := firstHeadingLine(StripPrefix(content))
	if line == "" {
		return ""
	}
	title := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#"))
	return stripEmphasis(title)
}

// firstHeadingLine locates the first "# ..." line and returns it together
// with its line index, or ("", -1).
func firstHeadingLine(content string) (string, int) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") || trimmed == "#" {
			return line, i
		}
	}
	return "", -1
}

// stripEmphasis removes markdown emphasis markers from a heading.
func stripEmphasis(s string) string {
	replacer := strings.NewReplacer("**", "", "__", "", "*", "", "_", "", "`", "")
	return strings.TrimSpace(replacer.Replace(s))
}

// =============================================================================
// CONTENT CLEANING
// =============================================================================

// StripPrefix removes the report marker (and any whitespace directly
// after it) from the start of content. Content without the marker is
// returned unchanged.
func StripPrefix(content string) string {
	if len(content) >= len(Prefix) && strings.EqualFold(content[:len(Prefix)], Prefix) {
		return strings.TrimLeft(content[len(Prefix):], " \t\r\n")
	}
	return content
}

// CleanContent prepares accumulated report text for persistence: the
// marker is stripped and the first level-1 heading line is removed, since
// that line is promoted to the report subtitle.
func CleanContent(content string) string {
	content = StripPrefix(content)

	_, idx := firstHeadingLine(content)
	if idx < 0 {
		return strings.TrimSpace(content)
	}

	lines := strings.Split(content, "\n")
	lines = append(lines[:idx], lines[idx+1:]...)
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
