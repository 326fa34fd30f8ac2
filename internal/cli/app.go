// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Shared wiring for CLI commands.

package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/innerbook/internal/chat"
	"github.com/jeranaias/innerbook/internal/cloud"
	"github.com/jeranaias/innerbook/internal/config"
	"github.com/jeranaias/innerbook/internal/localstore"
	"github.com/jeranaias/innerbook/internal/model"
	"github.com/jeranaias/innerbook/internal/offline"
	"github.com/jeranaias/innerbook/internal/reconcile"
	"github.com/jeranaias/innerbook/internal/remote"
	"github.com/jeranaias/innerbook/internal/report"
	"github.com/jeranaias/innerbook/internal/session"
	"github.com/jeranaias/innerbook/internal/ui/styles"
)

// credentialsDebounce collapses bursts of credential-file writes into
// one sync pass.
const credentialsDebounce = 200 * time.Millisecond

// App holds the wired application components shared by all commands.
type App struct {
	Config     *config.Config
	Store      *localstore.Store
	Remote     *remote.Store
	Sessions   *session.FileAccessor
	Manager    *report.Manager
	Reconciler *reconcile.Reconciler

	dataDir string
	watcher *session.Watcher
	quiet   bool
}

// NewApp loads configuration and wires storage, session tracking, the
// report lifecycle, and the login-sync reconciler.
func NewApp(args Args) (*App, error) {
	var cfg *config.Config
	var err error
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if args.Mock {
		cfg.Chat.MockMode = true
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	dbPath, err := cfg.RemoteDBPath()
	if err != nil {
		return nil, err
	}

	remoteStore, err := remote.Open(dbPath,
		time.Duration(cfg.Remote.DetailCacheTTLSecs)*time.Second,
		time.Duration(cfg.Remote.ListCacheTTLSecs)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("open report table: %w", err)
	}

	store := localstore.Open(dataDir)
	sessions := session.NewFileAccessor(dataDir)
	bus := report.NewBus()
	manager := report.NewManager(store, remoteStore, remoteStore.Verifier(), sessions, bus)

	app := &App{
		Config:   cfg,
		Store:    store,
		Remote:   remoteStore,
		Sessions: sessions,
		Manager:  manager,
		dataDir:  dataDir,
		quiet:    args.Quiet,
	}
	app.Reconciler = reconcile.New(store, remoteStore, sessions, app.notify)
	return app, nil
}

// notify surfaces reconciler reminders to the user.
func (a *App) notify(message string) {
	if a.quiet {
		return
	}
	fmt.Println(styles.RenderWarning(message))
}

// WatchCredentials starts a data-directory watcher that re-runs the
// reconciler when another process changes the login state. Watch
// failures degrade to manual sync only.
func (a *App) WatchCredentials(onChange func()) {
	w, err := session.NewWatcher(a.dataDir, credentialsDebounce, onChange)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s credential watch unavailable: %v\n", warningStyle.Render("[警告]"), err)
		return
	}
	a.watcher = w
}

// Close releases the credential watcher.
func (a *App) Close() {
	if a.watcher != nil {
		a.watcher.Close()
	}
}

// NewStreamer picks the reply source for the mode: the scripted offline
// client in mock mode or when no API key is configured, otherwise the
// cloud client.
func (a *App) NewStreamer(mode model.Mode) chat.Streamer {
	if a.Config.Chat.MockMode || a.Config.API.Key == "" {
		if !a.quiet && !a.Config.Chat.MockMode {
			fmt.Println(infoStyle.Render("未配置 API 密钥，使用内置问答流程。"))
		}
		return offline.NewClient(mode)
	}

	client := cloud.NewClient(a.Config.API.Key).
		WithBaseURL(a.Config.API.BaseURL).
		WithModel(a.Config.API.Model)
	if a.Config.API.MaxTokens > 0 {
		client = client.WithMaxTokens(a.Config.API.MaxTokens)
	}
	if a.Config.API.TimeoutSecs > 0 {
		client = client.WithTimeout(time.Duration(a.Config.API.TimeoutSecs) * time.Second)
	}
	return client
}
