// finchat - a terminal chat client for the Morgan Forge analytics backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/morganforge/finchat-tui/internal/client"
	"github.com/morganforge/finchat-tui/internal/config"
	"github.com/morganforge/finchat-tui/internal/entities"
	"github.com/morganforge/finchat-tui/internal/session"
	"github.com/morganforge/finchat-tui/internal/store"
	"github.com/morganforge/finchat-tui/internal/ui/chat"
	"github.com/morganforge/finchat-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	var (
		wsURL       = flag.String("ws", "", "override the backend websocket URL")
		apiURL      = flag.String("api", "", "override the backend API base URL")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("finchat %s (%s)\n", Version, GitCommit)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "finchat: %v\n", err)
		os.Exit(1)
	}
	if *wsURL != "" {
		cfg.Server.WSURL = *wsURL
	}
	if *apiURL != "" {
		cfg.Server.APIBaseURL = *apiURL
	}

	closeLog := setupLogging()
	defer closeLog()

	id := session.NewIdentity(cfg)
	if !id.Valid() {
		fmt.Fprintln(os.Stderr, "finchat: no user id configured, set FINCHAT_USER_ID or user_id in config")
		os.Exit(1)
	}

	st := store.New()
	id.Apply(st)

	cl := client.New(client.Options{
		ServerURL:        cfg.Server.WSURL,
		HandshakeTimeout: cfg.HandshakeTimeout(),
		PingInterval:     cfg.PingInterval(),
		SendRate:         rate.Limit(cfg.Server.SendRatePerSec),
	}, st)
	defer cl.Close()

	api := entities.NewClient(cfg.Server.APIBaseURL)

	theme := styles.NewTheme()
	m := chat.New(st, cl, api, theme, theme.GlamourStyle(cfg.UI.Theme))
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Every store mutation wakes the view.
	st.SetOnChange(func() {
		p.Send(chat.StoreChangedMsg{})
	})

	// Config edits apply live while the program runs.
	if w := watchConfig(cl, p, theme); w != nil {
		defer w.Close()
	}

	// The entity catalog loads in the background; failures surface as a
	// warning in the status area.
	go entities.Load(context.Background(), api, st)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "finchat: %v\n", err)
		os.Exit(1)
	}
}

// watchConfig starts a file watcher that reapplies rendering and rate
// settings on each successful reload. Connection endpoints stay fixed for
// the process lifetime. Returns nil when no config file exists to watch.
func watchConfig(cl *client.Client, p *tea.Program, theme *styles.Theme) *config.Watcher {
	path, err := config.TOMLPath()
	if err != nil {
		return nil
	}
	if _, statErr := os.Stat(path); statErr != nil {
		jsonPath, jerr := config.JSONPath()
		if jerr != nil {
			return nil
		}
		if _, statErr := os.Stat(jsonPath); statErr != nil {
			return nil
		}
		path = jsonPath
	}

	w, err := config.NewWatcher(path, func(next *config.Config) {
		cl.SetSendRate(rate.Limit(next.Server.SendRatePerSec))
		p.Send(chat.ConfigChangedMsg{GlamourStyle: theme.GlamourStyle(next.UI.Theme)})
	})
	if err != nil {
		log.Printf("config: watcher unavailable: %v", err)
		return nil
	}
	if err := w.Watch(); err != nil {
		log.Printf("config: watch failed: %v", err)
		w.Close()
		return nil
	}
	return w
}

// setupLogging sends the standard logger to ~/.finchat/finchat.log so log
// lines do not tear the TUI. Falls back to discarding logs.
func setupLogging() func() {
	dir, err := config.Dir()
	if err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "finchat.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	log.SetOutput(f)
	return func() { f.Close() }
}
