// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	runewidth "github.com/mattn/go-runewidth"
)

// UNICODE: Width-aware helpers preserve multi-byte characters and
// count double-width CJK glyphs correctly.

// PadRight pads a string with spaces to the given display width,
// counting double-width CJK characters as two columns.
func PadRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	for w < width {
		s += " "
		w++
	}
	return s
}

// TruncateWidth truncates a string to a maximum display width, CJK-aware.
func TruncateWidth(s string, maxWidth int) string {
	return runewidth.Truncate(s, maxWidth, "...")
}
