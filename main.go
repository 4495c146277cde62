// dagan TUI - A terminal assistant for Togolese administrative procedures.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/dagan-tui/internal/backend"
	"github.com/jeranaias/dagan-tui/internal/cli"
	"github.com/jeranaias/dagan-tui/internal/config"
	"github.com/jeranaias/dagan-tui/internal/reveal"
	"github.com/jeranaias/dagan-tui/internal/server"
	"github.com/jeranaias/dagan-tui/internal/session"
	"github.com/jeranaias/dagan-tui/internal/store"
	"github.com/jeranaias/dagan-tui/internal/ui/chat"
	"github.com/jeranaias/dagan-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dagan: %v\n", err)
		os.Exit(1)
	}
	if args.Model != "" {
		cfg.Backend.Model = args.Model
		cfg.Server.Model = args.Model
	}

	switch cmd {
	case cli.CmdTUI:
		runTUI(cfg)
	case cli.CmdAsk:
		os.Exit(cli.HandleAsk(cfg, args))
	case cli.CmdServe:
		runServe(cfg, args)
	case cli.CmdConfig:
		os.Exit(cli.HandleConfig(cfg, args))
	case cli.CmdReset:
		os.Exit(cli.HandleReset(cfg, args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	}
}

// loadConfig reads the config file named by --config, or the default one.
func loadConfig(args cli.Args) (*config.Config, error) {
	if args.Config != "" {
		return config.LoadFromPath(args.Config)
	}
	return config.Load()
}

// =============================================================================
// TUI MODE
// =============================================================================

func runTUI(cfg *config.Config) {
	// Bubble Tea owns the terminal; route stray log output to a file.
	setupDebugLog()

	kv, err := cli.OpenKV(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dagan: %v\n", err)
		os.Exit(1)
	}
	defer kv.Close()

	client := backend.NewClient(cfg.Backend.URL).
		WithTimeout(cfg.BackendTimeout()).
		WithModel(cfg.Backend.Model)

	dispatcher := session.NewDispatcher(client, store.NewSessionStore(kv), cfg.Backend.SystemPrompt)
	revealer := reveal.NewScheduler().WithInterval(cfg.RevealInterval())

	m := chat.New(chat.Options{
		Theme:       styles.NewTheme(),
		Dispatcher:  dispatcher,
		Revealer:    revealer,
		Suggestions: cfg.UI.SuggestedQuestions,
		Markdown:    cfg.UI.Markdown,
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Dispatcher and reveal callbacks arrive from other goroutines;
	// Bind routes them into the program's message loop.
	m.Bind(p.Send)

	// Replay the persisted conversation once the program is running.
	go func() {
		turns := dispatcher.Restore()
		if len(turns) > 0 {
			p.Send(chat.TurnsChangedMsg{Turns: turns})
		}
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dagan: %v\n", err)
		os.Exit(1)
	}
}

// setupDebugLog points the stdlib logger at ~/.dagan/debug.log so
// library output cannot corrupt the alternate screen.
func setupDebugLog() {
	dir, err := config.ConfigDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return
	}
	if err := config.EnsureConfigDir(); err != nil {
		log.SetOutput(os.Stderr)
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(f)
}

// =============================================================================
// SERVE MODE
// =============================================================================

func runServe(cfg *config.Config, args cli.Args) {
	if args.Addr != "" {
		cfg.Server.Addr = args.Addr
	}

	zapCfg := zap.NewProductionConfig()
	if args.Verbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "dagan: logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	upstream, err := server.NewOpenAIUpstream(cfg.Server.APIKey, cfg.Server.Model)
	if err != nil {
		logger.Fatal("upstream init failed", zap.Error(err))
	}
	if cfg.Server.UpstreamURL != "" {
		upstream = upstream.WithBaseURL(cfg.Server.UpstreamURL)
	}

	srv := server.New(cfg, upstream, logger)

	// Reload the system prompt when the config file changes.
	if watcher := watchSystemPrompt(cfg, srv, logger); watcher != nil {
		defer watcher.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Server.Addr))
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

// watchSystemPrompt wires config file changes into the running server.
// Returns nil when the config file does not exist yet.
func watchSystemPrompt(cfg *config.Config, srv *server.Server, logger *zap.Logger) *config.Watcher {
	path, err := config.ConfigPath()
	if err != nil {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	watcher, err := config.NewWatcher(path, 500*time.Millisecond)
	if err != nil {
		logger.Warn("config watch unavailable", zap.Error(err))
		return nil
	}
	watcher.OnReload(func(next *config.Config) {
		srv.SetSystemPrompt(next.Backend.SystemPrompt)
		logger.Info("config reloaded", zap.String("path", path))
	})
	watcher.OnError(func(err error) {
		logger.Warn("config reload failed", zap.Error(err))
	})
	if err := watcher.Watch(); err != nil {
		logger.Warn("config watch unavailable", zap.Error(err))
		watcher.Close()
		return nil
	}
	return watcher
}
