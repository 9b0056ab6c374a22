package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
)

const (
	AppName = "figgie-go"

	// WorkspaceEnv and ConfigEnv point a client at its own data directory
	// and config file, so several players can share one machine.
	WorkspaceEnv = "FIGGIE_WORKSPACE"
	ConfigEnv    = "FIGGIE_CONFIG"

	localWorkspace = "_workspace"
)

// GetWorkspaceDir returns the root directory for journals, results, logs
// and session locks: $FIGGIE_WORKSPACE, then a local "_workspace"
// directory, then the per-user data directory.
func GetWorkspaceDir() string {
	if dir := os.Getenv(WorkspaceEnv); dir != "" {
		return dir
	}
	if _, err := os.Stat(localWorkspace); err == nil {
		return localWorkspace
	}
	base, err := userDataDir()
	if err != nil {
		return localWorkspace
	}
	return filepath.Join(base, AppName)
}

// userDataDir is where per-user application data lives. Windows and macOS
// keep it beside the config dir; other systems follow XDG.
func userDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows", "darwin":
		return os.UserConfigDir()
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}

// EnsureDir creates the directory if it doesn't exist with safe permissions (0755).
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

var unsafeLockChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// CreateSessionLock takes the per-(room, player) lock in workDir so two
// sessions for the same pair never run from one machine. The returned
// closer releases it.
func CreateSessionLock(workDir, roomID, playerID string) (func(), error) {
	name := unsafeLockChars.ReplaceAllString(roomID+"_"+playerID, "_")
	lockPath := filepath.Join(workDir, "session_"+name+".lock")

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("a session for room %s as %s is already running (lock file exists: %s)", roomID, playerID, lockPath)
		}
		return nil, err
	}

	// PID for debugging stale locks
	fmt.Fprintf(f, "%d", os.Getpid())
	f.Close()

	return func() { os.Remove(lockPath) }, nil
}

// ResolveConfigPath finds config.yaml: $FIGGIE_CONFIG, ./configs, then
// the OS config dir. A missing file is left for LoadConfig to report.
func ResolveConfigPath() string {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p
	}
	candidates := []string{filepath.Join("configs", "config.yaml")}
	if root, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(root, AppName, "config.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return candidates[0]
}
