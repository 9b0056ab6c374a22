package app

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"figgie_go/internal/infra"
	"figgie_go/internal/storage"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config  *infra.Config
	WorkDir string
	Journal *storage.Journal // nil unless storage.journal is on
	Archive *storage.ResultArchive

	closers []func()
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads .env and the config, installs the logger, prepares the
// workspace and opens the journal and result archive. logOut receives log
// output when no log file is configured.
func (b *Bootstrap) Initialize(configPath string, logOut io.Writer) error {
	if err := infra.LoadDotEnv(); err != nil {
		return err
	}
	if configPath == "" {
		configPath = infra.ResolveConfigPath()
	}
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", configPath, err)
	}
	b.Config = cfg

	if b.WorkDir == "" {
		b.WorkDir = infra.GetWorkspaceDir()
	}
	dataDir := filepath.Join(b.WorkDir, "data")
	logDir := filepath.Join(b.WorkDir, "logs")
	for _, dir := range []string{dataDir, logDir} {
		if err := infra.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	_, closeLog, err := infra.NewLogger(cfg, logDir, logOut)
	if err != nil {
		return err
	}
	b.closers = append(b.closers, closeLog)
	slog.Info("🚀 Bootstrapping Figgie client...", slog.String("workspace", b.WorkDir))

	if cfg.Storage.Journal {
		dbPath := filepath.Join(dataDir, cfg.Storage.JournalFile)
		journal, err := storage.NewJournal(dbPath, nil)
		if err != nil {
			return err
		}
		b.Journal = journal
		b.closers = append(b.closers, func() { journal.Close() })
		slog.Info("✅ Journal initialized (WAL-mode)", slog.String("path", dbPath))
	}

	resultsDir := cfg.Storage.ResultsDir
	if !filepath.IsAbs(resultsDir) {
		resultsDir = filepath.Join(dataDir, resultsDir)
	}
	b.Archive = storage.NewResultArchive(resultsDir, nil)
	if err := b.Archive.Cleanup(cfg.Storage.KeepResults); err != nil {
		slog.Warn("Result cleanup failed", slog.Any("error", err))
	}
	return nil
}

// Close releases everything Initialize opened, in reverse order.
func (b *Bootstrap) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
