package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"figgie_go/internal/infra"
	"figgie_go/internal/state"
	"figgie_go/internal/storage"
	"figgie_go/internal/view"
	"figgie_go/replay"
)

func main() {
	dbPath := flag.String("db", "", "journal file (default: <workspace>/data/journal.db)")
	sessionID := flag.String("session", "", "session id to replay (default: the most recent)")
	list := flag.Bool("list", false, "list recorded sessions and exit")
	verbose := flag.Bool("v", false, "log every frame")
	flag.Parse()

	if err := infra.LoadDotEnv(); err != nil {
		slog.Error("❌ Failed to load .env", slog.Any("error", err))
		os.Exit(1)
	}
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *dbPath == "" {
		*dbPath = filepath.Join(infra.GetWorkspaceDir(), "data", "journal.db")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *dbPath, *sessionID, *list, *verbose); err != nil {
		slog.Error("❌ Replay failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, dbPath, sessionID string, list, verbose bool) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("journal %s: %w", dbPath, err)
	}
	journal, err := storage.NewJournal(dbPath, nil)
	if err != nil {
		return err
	}
	defer journal.Close()

	if list {
		sessions, err := journal.Sessions(ctx)
		if err != nil {
			return err
		}
		for _, s := range sessions {
			fmt.Printf("%s  %s  room=%s player=%s frames=%d\n",
				s.ID, time.Unix(s.StartedUnix, 0).Format(time.DateTime), s.RoomID, s.PlayerID, s.Frames)
		}
		return nil
	}

	r := replay.NewReplayer(journal)
	id, err := r.ResolveSession(ctx, sessionID)
	if err != nil {
		return err
	}

	var onStep func(replay.Step, *state.Aggregate)
	if verbose {
		onStep = func(st replay.Step, s *state.Aggregate) {
			slog.Debug("Frame applied",
				slog.Uint64("seq", st.Seq),
				slog.Bool("applied", st.Outcome.Applied),
				slog.String("state", s.String()))
		}
	}
	rep, err := r.Run(ctx, id, onStep)
	if err != nil {
		return err
	}

	fmt.Println(view.New(os.Stdout, 20, "").Render(rep.State.View(0)))
	fmt.Printf("\nsession %s: %d frames, %d applied, %d malformed, %d warnings, %d rounds\n",
		rep.SessionID, rep.Frames, rep.Applied, rep.Malformed, rep.Warnings, len(rep.Rounds))
	return nil
}
