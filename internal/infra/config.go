package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"figgie_go/internal/domain"
)

// Version is reported in the banner and the User-Agent.
const Version = "0.3.0"

// UserAgent identifies this client to the game server.
func UserAgent() string {
	return fmt.Sprintf("figgie-go/%s (%s; %s)", Version, runtime.GOOS, runtime.GOARCH)
}

// Config holds every setting of the client. It is loaded from YAML and
// then overridden by FIGGIE_* environment variables.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		HTTPURL string `yaml:"http_url"`
		WSURL   string `yaml:"ws_url"`
	} `yaml:"server"`

	Player struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"player"`

	Room struct {
		ID     string `yaml:"id"` // empty: a fresh uuid per game
		Name   string `yaml:"name"`
		Robots int    `yaml:"robots"`
	} `yaml:"room"`

	Storage struct {
		Journal     bool   `yaml:"journal"`
		JournalFile string `yaml:"journal_file"`
		ResultsDir  string `yaml:"results_dir"`
		KeepResults int    `yaml:"keep_results"`
	} `yaml:"storage"`

	Reconnect struct {
		Enabled    bool `yaml:"enabled"`
		MaxRetries int  `yaml:"max_retries"`
	} `yaml:"reconnect"`

	UI struct {
		TradeTail int    `yaml:"trade_tail"`
		Theme     string `yaml:"theme"`
	} `yaml:"ui"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "text" or "json"
		File   string `yaml:"file"`   // relative to the workspace dir; empty means stderr
	} `yaml:"logging"`
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// into the environment. Missing files are not an error; variables already
// set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "figgie-go"
	cfg.App.Version = Version
	cfg.Room.Name = "Figgie"
	cfg.Room.Robots = 3
	cfg.Storage.JournalFile = "journal.db"
	cfg.Storage.ResultsDir = "results"
	cfg.Storage.KeepResults = 20
	cfg.Reconnect.MaxRetries = 5
	cfg.UI.TradeTail = 8
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return &cfg
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if err := checkURL(c.Server.HTTPURL, "http", "https"); err != nil {
		return fmt.Errorf("invalid server HTTP URL: %w", err)
	}
	if err := checkURL(c.Server.WSURL, "ws", "wss"); err != nil {
		return fmt.Errorf("invalid server WS URL: %w", err)
	}
	if strings.TrimSpace(c.Player.ID) == "" {
		return fmt.Errorf("player id is required")
	}
	// Four seats: self plus up to four robots, at least three.
	if c.Room.Robots < 3 || c.Room.Robots > 4 {
		return fmt.Errorf("room robots must be between 3 and 4, got %d", c.Room.Robots)
	}
	if c.Storage.KeepResults < 0 {
		return fmt.Errorf("keep_results must not be negative")
	}
	if c.Reconnect.Enabled && c.Reconnect.MaxRetries <= 0 {
		return fmt.Errorf("reconnect max_retries must be positive")
	}
	if c.UI.TradeTail <= 0 {
		return fmt.Errorf("trade tail must be positive")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

func checkURL(raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s: want scheme %s with a host", raw, strings.Join(schemes, " or "))
}

// overrideWithEnv applies FIGGIE_* variables over the file values.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("FIGGIE_HTTP_URL"); v != "" {
		cfg.Server.HTTPURL = v
	}
	if v := os.Getenv("FIGGIE_WS_URL"); v != "" {
		cfg.Server.WSURL = v
	}
	if v := os.Getenv("FIGGIE_PLAYER_ID"); v != "" {
		cfg.Player.ID = v
	}
	if v := os.Getenv("FIGGIE_PLAYER_NAME"); v != "" {
		cfg.Player.Name = v
	}
	if v := os.Getenv("FIGGIE_ROOM_ID"); v != "" {
		cfg.Room.ID = v
	}
	if v := os.Getenv("FIGGIE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Self returns the configured identity.
func (c *Config) Self() domain.PlayerIdentity {
	return domain.PlayerIdentity{ID: c.Player.ID, Name: c.Player.Name}
}
