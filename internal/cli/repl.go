// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// repl.go - Interactive questionnaire chat.
//
// The REPL runs one conversation round per input line: the reply is
// revealed at typewriter pace, the prompt shows questionnaire progress,
// and the final round locks a report and starts the unlock flow.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/innerbook/internal/chat"
	"github.com/jeranaias/innerbook/internal/model"
	"github.com/jeranaias/innerbook/internal/report"
	"github.com/jeranaias/innerbook/internal/sentinel"
)

// =============================================================================
// ROUND PRINTER
// =============================================================================

// roundPrinter turns cumulative reveal updates into incremental stdout
// writes. Output is held back while the text could still turn out to be
// the report marker, so the marker itself is never shown.
type roundPrinter struct {
	mu       sync.Mutex
	printed  int
	decided  bool
	isReport bool
}

// begin resets the printer for a new round.
func (p *roundPrinter) begin() {
	p.mu.Lock()
	p.printed = 0
	p.decided = false
	p.isReport = false
	p.mu.Unlock()
	fmt.Println()
}

// print writes the not-yet-printed suffix of displayed.
func (p *roundPrinter) print(displayed string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.decided {
		if couldBeMarker(displayed) {
			return
		}
		p.decided = true
		p.isReport = sentinel.HasPrefix(displayed)
	}
	if p.isReport {
		displayed = sentinel.StripPrefix(displayed)
	}

	runes := []rune(displayed)
	if len(runes) <= p.printed {
		return
	}
	fmt.Print(string(runes[p.printed:]))
	p.printed = len(runes)
}

// end closes out the round's output.
func (p *roundPrinter) end() {
	fmt.Println()
	fmt.Println()
}

// couldBeMarker reports whether s is a strict prefix of the report
// marker, ignoring case.
func couldBeMarker(s string) bool {
	if len(s) >= len(sentinel.Prefix) {
		return false
	}
	return strings.EqualFold(s, sentinel.Prefix[:len(s)])
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// replState tracks the unlock flow across REPL iterations.
type replState struct {
	mu       sync.Mutex
	lockedID string
}

func (s *replState) setLocked(id string) {
	s.mu.Lock()
	s.lockedID = id
	s.mu.Unlock()
}

func (s *replState) locked() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockedID
}

// RunChat runs the interactive questionnaire chat.
func RunChat(args Args) error {
	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	mode := model.ParseMode(args.Mode)

	// Push any retained reports before the conversation starts, and
	// again whenever another process changes the login state.
	app.Reconciler.Sync(ctx)
	app.WatchCredentials(func() {
		app.Reconciler.Sync(context.Background())
	})

	state := &replState{}
	app.Manager.Bus().Subscribe(func(e report.Event) {
		switch ev := e.(type) {
		case report.Locked:
			state.setLocked(ev.ReportID)
			fmt.Println()
			fmt.Println(lockStyle.Render("[报告已生成并锁定]"))
			fmt.Println(infoStyle.Render("输入 /unlock <邀请码> 解锁查看完整报告。"))
		case report.Unlocked:
			fmt.Println(commandStyle.Render("[解锁成功]"))
		case report.LoginPrompt:
			fmt.Println(infoStyle.Render("登录后可在任何设备查看报告：/login <用户名>"))
		}
	})

	printer := &roundPrinter{}
	controller := chat.NewController(app.NewStreamer(mode), app.Manager, mode).
		WithInterval(time.Duration(app.Config.Chat.TypewriterIntervalMS)*time.Millisecond).
		WithMaxRounds(app.Config.Chat.MaxRounds).
		WithSystemPrompt(mode.SystemPrompt()).
		WithCallbacks(chat.Callbacks{OnAssistant: printer.print})

	if !args.Quiet {
		printChatWelcome(app, mode)
	}

	// Ctrl+C cancels the in-flight round instead of killing the REPL.
	var cancelMu sync.Mutex
	var cancelRound context.CancelFunc
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			cancelMu.Lock()
			if cancelRound != nil {
				cancelRound()
				cancelRound = nil
				fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[已取消]"))
			}
			cancelMu.Unlock()
		}
	}()

	reader := NewLineReader(app.Store.RecentAnswers)
	defer reader.Close()

	// Resume or open the conversation; a fresh conversation streams the
	// first question immediately, a resumed one replays its transcript.
	_, resumed := app.Manager.Resume(mode)
	printer.begin()
	if err := controller.Start(ctx); err != nil {
		return err
	}
	if resumed {
		printRestoredTranscript(controller.Messages())
	}
	printer.end()

	for {
		prompt := promptStyle.Render(fmt.Sprintf("[%d/%d] > ", controller.Progress(), controller.MaxRounds()))
		input, err := reader.ReadInput(prompt)
		if err != nil {
			// Ctrl+C at the prompt or EOF both exit cleanly.
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				fmt.Fprintln(os.Stderr, errorStyle.Render("[输入错误] ")+err.Error())
			}
			fmt.Println()
			fmt.Println(infoStyle.Render("再见！"))
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			keepGoing, err := handleSlashCommand(ctx, app, controller, state, input)
			if err != nil {
				fmt.Fprintln(os.Stderr, errorStyle.Render("[错误] ")+err.Error())
			}
			if !keepGoing {
				fmt.Println(infoStyle.Render("再见！"))
				return nil
			}
			continue
		}

		roundCtx, cancel := context.WithCancel(ctx)
		cancelMu.Lock()
		cancelRound = cancel
		cancelMu.Unlock()

		printer.begin()
		sendErr := controller.Send(roundCtx, input)
		printer.end()

		cancelMu.Lock()
		cancelRound = nil
		cancelMu.Unlock()
		cancel()

		if sendErr != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("[错误] ")+sendErr.Error())
			continue
		}

		// Answered rounds feed tab completion in later conversations.
		if err := app.Store.PushRecentAnswer(input); err != nil {
			fmt.Fprintln(os.Stderr, warningStyle.Render("[警告] ")+err.Error())
		}
	}
}

// printChatWelcome prints the banner before the first round.
func printChatWelcome(app *App, mode model.Mode) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("innerbook"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n", infoStyle.Render("模式:"), commandStyle.Render(mode.Label()))
	if sess, ok := app.Sessions.Current(); ok {
		fmt.Printf("%s %s\n", infoStyle.Render("用户:"), commandStyle.Render(sess.Username))
	} else {
		fmt.Printf("%s %s\n", infoStyle.Render("用户:"), warningStyle.Render("未登录"))
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("回答问题生成你的专属报告。命令：/help /quit"))
}

// printRestoredTranscript replays a resumed conversation so the user
// sees where they left off.
func printRestoredTranscript(messages []model.Message) {
	fmt.Println(infoStyle.Render("[继续上次的对话]"))
	for _, m := range messages {
		if m.Status != model.StatusSuccess {
			continue
		}
		switch m.Role {
		case model.RoleUser:
			fmt.Println(promptStyle.Render("你: ") + m.Content)
		case model.RoleAssistant:
			fmt.Println(m.Content)
		}
		fmt.Println()
	}
}
