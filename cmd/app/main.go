package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"figgie_go/internal/app"
	"figgie_go/internal/infra"
	"figgie_go/internal/state"
	"figgie_go/internal/view"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: ./configs, then the OS config dir)")
	flag.Parse()

	os.Exit(run(*configPath))
}

func run(configPath string) int {
	// 1. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	defer bootstrap.Close()
	if err := bootstrap.Initialize(configPath, os.Stderr); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		return 1
	}
	cfg := bootstrap.Config

	// 3. Room creation (session bootstrap)
	room := app.BuildRoom(cfg)
	infra.PrintBanner(os.Stdout, cfg, room.RoomID)

	room, err := infra.NewRoomClient(cfg.Server.HTTPURL, nil).CreateRoom(ctx, room)
	if err != nil {
		slog.Error("❌ Cannot enter room", slog.Any("error", err))
		return 1
	}
	slog.Info("✅ Room created",
		slog.String("room_id", room.RoomID),
		slog.Int("players", len(room.Players)))

	// 4. Session runner with terminal view
	renderer := view.New(os.Stdout, cfg.UI.TradeTail, cfg.UI.Theme)
	var drawMu sync.Mutex
	runner := &app.Runner{
		Bootstrap:  room,
		Dial:       app.WSDialer(cfg.Server.WSURL),
		Journal:    bootstrap.Journal,
		Archive:    bootstrap.Archive,
		LockDir:    bootstrap.WorkDir,
		Reconnect:  cfg.Reconnect.Enabled,
		MaxRetries: cfg.Reconnect.MaxRetries,
		OnUpdate: func(v state.View) {
			drawMu.Lock()
			defer drawMu.Unlock()
			if err := renderer.Draw(v); err == nil {
				fmt.Fprint(os.Stdout, "> ")
			}
		},
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go readCommands(runCtx, runner, cancel)

	slog.InfoContext(ctx, "✨ Figgie client running. Type help for commands, quit to leave.")
	if err := runner.Run(runCtx); err != nil {
		slog.Error("❌ Session ended with error", slog.Any("error", err))
		return 1
	}

	slog.Info("👋 Shutting down gracefully...")
	return 0
}

// readCommands turns stdin lines into session intents. EOF cancels the run.
func readCommands(ctx context.Context, runner *app.Runner, cancel context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd, err := app.ParseCommand(scanner.Text())
		if err != nil {
			fmt.Fprintln(os.Stdout, err)
			continue
		}
		if cmd.Kind == app.CmdHelp {
			fmt.Fprintln(os.Stdout, app.Help)
			continue
		}

		sess := runner.Current()
		if sess == nil {
			fmt.Fprintln(os.Stdout, "not connected")
			continue
		}
		err = app.Execute(ctx, sess, cmd)
		switch {
		case errors.Is(err, app.ErrQuit):
			return
		case err != nil:
			fmt.Fprintln(os.Stdout, "error:", err)
		}
	}
	cancel()
}
