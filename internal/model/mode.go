// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// CONVERSATION MODE
// =============================================================================

// Mode identifies the conversational scenario selected at report creation.
type Mode string

const (
	// ModeDiscoverSelf is the self-discovery questionnaire.
	ModeDiscoverSelf Mode = "discover-self"

	// ModeUnderstandOthers is the understanding-others questionnaire.
	ModeUnderstandOthers Mode = "understand-others"
)

// modeLabels maps modes to their human-readable labels.
var modeLabels = map[Mode]string{
	ModeDiscoverSelf:     "发掘自己",
	ModeUnderstandOthers: "了解他人",
}

// modePrompts maps modes to the system prompt steering the questionnaire.
var modePrompts = map[Mode]string{
	ModeDiscoverSelf: "你是一位天赋教练。通过十轮提问帮助用户发掘自己的天赋，" +
		"每轮只问一个问题。十轮结束后输出以 [Report] 开头的完整报告，" +
		"报告以一级标题开始。",
	ModeUnderstandOthers: "你是一位天赋教练。通过十轮提问帮助用户了解身边的一个人，" +
		"每轮只问一个问题。十轮结束后输出以 [Report] 开头的完整报告，" +
		"报告以一级标题开始。",
}

// Label returns the display label for the mode.
func (m Mode) Label() string {
	if label, ok := modeLabels[m]; ok {
		return label
	}
	return "未知模式"
}

// SystemPrompt returns the system message steering this mode's
// questionnaire, empty for unknown modes.
func (m Mode) SystemPrompt() string {
	return modePrompts[m]
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	_, ok := modeLabels[m]
	return ok
}

// DefaultMode returns the mode used when none is specified.
func DefaultMode() Mode {
	return ModeDiscoverSelf
}

// ParseMode normalizes a raw mode string, falling back to the default
// for unknown values.
func ParseMode(raw string) Mode {
	if m := Mode(raw); m.Valid() {
		return m
	}
	return DefaultMode()
}
