package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jonboulle/clockwork"

	"figgie_go/internal/domain"
)

// ResultArchive writes every round result as result_<round>_<unix>.json.
type ResultArchive struct {
	dir   string
	clock clockwork.Clock
}

// NewResultArchive creates an archive rooted at dir.
func NewResultArchive(dir string, clock clockwork.Clock) *ResultArchive {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ResultArchive{dir: dir, clock: clock}
}

// Save writes result to disk and returns the file path.
func (a *ResultArchive) Save(result domain.RoundResult) (string, error) {
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive dir: %w", err)
	}

	filename := fmt.Sprintf("result_%d_%d.json", result.RoundID, a.clock.Now().Unix())
	path := filepath.Join(a.dir, filename)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write result: %w", err)
	}

	slog.Info("Round result saved",
		slog.Int64("round_id", result.RoundID),
		slog.String("path", path))
	return path, nil
}

type resultFile struct {
	path  string
	round int64
	ts    int64
}

func (a *ResultArchive) list() ([]resultFile, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, err
	}
	var files []resultFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var f resultFile
		if _, err := fmt.Sscanf(entry.Name(), "result_%d_%d.json", &f.round, &f.ts); err != nil {
			continue // Not a result file
		}
		f.path = filepath.Join(a.dir, entry.Name())
		files = append(files, f)
	}
	// Newest first: by write time, then round.
	sort.Slice(files, func(i, j int) bool {
		if files[i].ts != files[j].ts {
			return files[i].ts > files[j].ts
		}
		return files[i].round > files[j].round
	})
	return files, nil
}

// LoadLatest loads the most recently written result.
// Returns nil if none exists.
func (a *ResultArchive) LoadLatest() (*domain.RoundResult, error) {
	files, err := a.list()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read archive dir: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	data, err := os.ReadFile(files[0].path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}
	var result domain.RoundResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// Cleanup removes old results, keeping only the newest keepCount.
func (a *ResultArchive) Cleanup(keepCount int) error {
	if keepCount < 0 {
		keepCount = 0
	}
	files, err := a.list()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for i := keepCount; i < len(files); i++ {
		if err := os.Remove(files[i].path); err != nil {
			slog.Warn("Failed to remove old result", slog.String("path", files[i].path))
		} else {
			slog.Info("Removed old result", slog.String("path", files[i].path))
		}
	}
	return nil
}
