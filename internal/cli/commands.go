// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - Slash commands and standalone subcommands.

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jeranaias/innerbook/internal/chat"
	"github.com/jeranaias/innerbook/internal/remote"
	"github.com/jeranaias/innerbook/internal/session"
	"github.com/jeranaias/innerbook/internal/ui/styles"
	"github.com/jeranaias/innerbook/internal/util"
)

// Version information (set at build time via main).
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes a slash command inside the REPL.
// Returns (keepGoing, error); keepGoing=false exits the REPL.
func handleSlashCommand(ctx context.Context, app *App, controller *chat.Controller, state *replState, input string) (bool, error) {
	parts := strings.Fields(input)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?":
		printReplHelp()
		return true, nil

	case "/unlock", "/u":
		if len(args) == 0 {
			return true, errors.New("用法：/unlock <邀请码>")
		}
		return true, unlockReport(ctx, app, state.locked(), controller.ReportID(), args[0])

	case "/reports", "/r":
		return true, listReports(ctx, app)

	case "/view":
		if len(args) == 0 {
			return true, errors.New("用法：/view <报告ID>")
		}
		return true, viewReport(ctx, app, args[0], false)

	case "/login":
		if len(args) == 0 {
			return true, errors.New("用法：/login <用户名>")
		}
		if err := login(app, args[0]); err != nil {
			return true, err
		}
		// A fresh identity may have retained reports to push.
		return true, app.Reconciler.Sync(ctx)

	case "/logout":
		return true, logout(app)

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("未知命令：%s（输入 /help 查看命令）", command)
	}
}

// printReplHelp prints the REPL command reference.
func printReplHelp() {
	fmt.Println()
	fmt.Println(headerStyle.Render("可用命令"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "显示帮助"},
		{"/unlock <码>", "用邀请码解锁报告"},
		{"/reports, /r", "列出我的报告"},
		{"/view <ID>", "查看某份报告"},
		{"/login <名>", "登录（同步本地报告）"},
		{"/logout", "退出登录"},
		{"/quit, /q", "退出"},
	}
	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-14s", c.cmd)),
			infoStyle.Render(c.desc))
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("提示：Ctrl+C 取消当前回答，Ctrl+D 退出"))
	fmt.Println()
}

// unlockReport redeems an invite code. The target defaults to the most
// recently locked report of this session, falling back to the report
// the conversation is building.
func unlockReport(ctx context.Context, app *App, lockedID, currentID, code string) error {
	reportID := lockedID
	if reportID == "" {
		reportID = currentID
	}
	if reportID == "" {
		return errors.New("当前没有待解锁的报告")
	}

	res, err := app.Manager.HandleInviteCode(ctx, reportID, code)
	if err != nil {
		return err
	}
	if !res.Success {
		fmt.Println(warningStyle.Render("[失败] ") + res.Message)
		return nil
	}

	// Bypass the read cache so the cleared lock is visible immediately.
	return viewReport(ctx, app, reportID, true)
}

// =============================================================================
// STANDALONE COMMANDS
// =============================================================================

// RunReports lists reports: the remote table rows for the logged-in
// user plus any locally retained copies.
func RunReports(args Args) error {
	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()
	return listReports(context.Background(), app)
}

// listReports prints the report listing.
func listReports(ctx context.Context, app *App) error {
	fmt.Println()
	fmt.Println(headerStyle.Render("我的报告"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))

	shown := 0
	if sess, ok := app.Sessions.Current(); ok {
		details, err := app.Remote.List(ctx, sess.Username, false)
		if err != nil {
			return fmt.Errorf("list reports: %w", err)
		}
		for _, d := range details {
			printReportLine(d.ReportID, d.Title, d.IsLocked, "云端")
			shown++
		}
	}

	for _, r := range app.Store.Load().Reports {
		if !r.IsCompleted() {
			continue
		}
		printReportLine(r.ReportID, r.Title, r.Lock, "本地")
		shown++
	}

	if shown == 0 {
		fmt.Println(infoStyle.Render("（暂无报告）"))
	}
	fmt.Println()
	return nil
}

// printReportLine prints one listing row. Titles are CJK-width-aware
// so the columns line up.
func printReportLine(id, title string, locked bool, origin string) {
	lock := commandStyle.Render("已解锁")
	if locked {
		lock = lockStyle.Render("已锁定")
	}
	fmt.Printf("  %s  %s  %s  %s\n",
		infoStyle.Render(id),
		util.PadRight(util.TruncateWidth(title, 40), 40),
		lock,
		infoStyle.Render(origin))
}

// RunView shows one report by ID.
func RunView(args Args) error {
	if len(args.Positional) == 0 {
		return errors.New("用法：innerbook view <报告ID>")
	}
	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()
	return viewReport(context.Background(), app, args.Positional[0], false)
}

// viewReport fetches and renders one report, honoring the lock gate.
func viewReport(ctx context.Context, app *App, reportID string, skipCache bool) error {
	detail, err := app.Manager.Detail(ctx, reportID, skipCache)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return fmt.Errorf("报告不存在：%s", reportID)
		}
		return err
	}
	if detail.IsLocked {
		displayLockedReport(detail)
		return nil
	}
	displayReport(detail)
	return nil
}

// RunUnlock redeems an invite code from the command line.
func RunUnlock(args Args) error {
	if len(args.Positional) < 2 {
		return errors.New("用法：innerbook unlock <报告ID> <邀请码>")
	}
	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	res, err := app.Manager.HandleInviteCode(ctx, args.Positional[0], args.Positional[1])
	if err != nil {
		return err
	}
	if !res.Success {
		fmt.Println(warningStyle.Render("[失败] ") + res.Message)
		return nil
	}
	fmt.Println(commandStyle.Render("[成功] ") + res.Message)
	return viewReport(ctx, app, args.Positional[0], true)
}

// RunLogin records the local login identity and syncs retained reports.
func RunLogin(args Args) error {
	if len(args.Positional) == 0 {
		return errors.New("用法：innerbook login <用户名>")
	}
	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := login(app, args.Positional[0]); err != nil {
		return err
	}
	return app.Reconciler.Sync(context.Background())
}

// login writes the credential record.
func login(app *App, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("用户名不能为空")
	}
	if err := app.Sessions.Login(session.Session{
		Username: username,
		UserID:   uuid.NewString(),
	}); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Println(commandStyle.Render("[已登录] ") + username)
	return nil
}

// RunLogout clears the local login identity.
func RunLogout(args Args) error {
	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()
	return logout(app)
}

// logout removes the credential record.
func logout(app *App) error {
	if err := app.Sessions.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	fmt.Println(infoStyle.Render("[已退出登录]"))
	return nil
}

// RunSeedCode stores a new invite code. Operator-facing: codes are
// hashed before they hit the table.
func RunSeedCode(args Args) error {
	if len(args.Positional) == 0 {
		return errors.New("用法：innerbook seed-code <邀请码>")
	}
	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Remote.Verifier().SeedCode(context.Background(), args.Positional[0]); err != nil {
		return fmt.Errorf("seed invite code: %w", err)
	}
	fmt.Println(styles.RenderSuccess("邀请码已入库"))
	return nil
}

// RunVersion prints version information.
func RunVersion() {
	fmt.Printf("innerbook %s (%s, built %s)\n", Version, GitCommit, BuildDate)
}

// RunHelp prints top-level usage.
func RunHelp() {
	fmt.Println(`innerbook - 天赋报告问答

用法:
  innerbook [chat] [--mode discover-self|understand-others] [--mock] [--quiet]
  innerbook reports
  innerbook view <报告ID>
  innerbook unlock <报告ID> <邀请码>
  innerbook login <用户名>
  innerbook logout
  innerbook seed-code <邀请码>
  innerbook version

标志:
  --mode, -m     问答模式（默认 discover-self）
  --config, -c   配置文件路径
  --mock         使用内置问答流程（不访问 API）
  --quiet, -q    精简输出`)
}
