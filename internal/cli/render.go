// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Markdown rendering for reports.

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/innerbook/internal/remote"
)

// renderMarkdown renders markdown for terminal display at the current
// terminal width. Returns the original content if rendering fails.
func renderMarkdown(content string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(reportWrapWidth()),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayReport prints a full unlocked report. Markdown rendering is
// applied only on a TTY so piped output stays machine-readable.
func displayReport(d remote.Detail) {
	fmt.Println()
	fmt.Println(headerStyle.Render(d.Title))
	if d.SubTitle != "" {
		fmt.Println(infoStyle.Render(d.SubTitle))
	}
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))

	body := "# " + d.SubTitle + "\n\n" + d.Content
	if d.SubTitle == "" {
		body = d.Content
	}
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(body))
	} else {
		fmt.Println(body)
	}
	fmt.Println()
}

// displayLockedReport prints the teaser for a locked report: title and
// subtitle only, never the body.
func displayLockedReport(d remote.Detail) {
	fmt.Println()
	fmt.Println(headerStyle.Render(d.Title))
	if d.SubTitle != "" {
		fmt.Println(infoStyle.Render(d.SubTitle))
	}
	fmt.Println(lockStyle.Render("[已锁定]") + infoStyle.Render(" 使用邀请码解锁后可查看完整报告。"))
	fmt.Println()
}
