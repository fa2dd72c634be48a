package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "myday.db"
	DefaultLogName        = "myday.log"

	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "MYDAY_CONFIG"

	appDirName = "myday"
)

// Views accepted by default_view.
var Views = []string{"myday", "important", "plan", "all", "report"}

// Calendar backends accepted by calendar.backend.
var Backends = []string{"none", "memory", "google"}

// Duration is a time.Duration written as text ("10s", "1h") in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Keymap struct {
	Quit     string `toml:"quit"`
	Add      string `toml:"add"`
	Up       string `toml:"up"`
	Down     string `toml:"down"`
	Toggle   string `toml:"toggle"`
	Star     string `toml:"star"`
	Postpone string `toml:"postpone"`
	Delete   string `toml:"delete"`
	Undo     string `toml:"undo"`
	Search   string `toml:"search"`
	Filter   string `toml:"filter"`
	NextTab  string `toml:"next_tab"`
	PrevTab  string `toml:"prev_tab"`
	Confirm  string `toml:"confirm"`
	Cancel   string `toml:"cancel"`
}

type Calendar struct {
	Backend         string `toml:"backend"`
	CalendarID      string `toml:"calendar_id"`
	CredentialsFile string `toml:"credentials_file"`
	TokenFile       string `toml:"token_file"`
	QueueSize       int    `toml:"queue_size"`
}

type Config struct {
	DBPath        string   `toml:"db_path"`
	DefaultView   string   `toml:"default_view"`
	RetentionDays int      `toml:"retention_days"`
	UndoWindow    Duration `toml:"undo_window"`
	SweepInterval Duration `toml:"sweep_interval"`
	LogLevel      string   `toml:"log_level"`
	LogFile       string   `toml:"log_file"`
	Calendar      Calendar `toml:"calendar"`
	Keys          Keymap   `toml:"keys"`
}

// ResolveConfigPath returns $MYDAY_CONFIG when set, otherwise config.toml in
// the user config directory.
func ResolveConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, appDirName, DefaultConfigFileName), nil
}

// LoadOrCreate reads the config at path, writing the defaults there first if
// the file does not exist. Relative file paths in the config are resolved
// against the config file's directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(filepath.Dir(path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg.resolve(filepath.Dir(path)), nil
}

// Validate checks enumerated and numeric fields.
func (c Config) Validate() error {
	if !slices.Contains(Views, c.DefaultView) {
		return fmt.Errorf("default_view %q must be one of %v", c.DefaultView, Views)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention_days must not be negative, got %d", c.RetentionDays)
	}
	if c.UndoWindow < 0 || c.SweepInterval < 0 {
		return errors.New("durations must not be negative")
	}
	if !slices.Contains(Backends, c.Calendar.Backend) {
		return fmt.Errorf("calendar.backend %q must be one of %v", c.Calendar.Backend, Backends)
	}
	if c.Calendar.QueueSize < 0 {
		return fmt.Errorf("calendar.queue_size must not be negative, got %d", c.Calendar.QueueSize)
	}
	return nil
}

func (c Config) resolve(dir string) Config {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.DBPath = abs(c.DBPath)
	c.LogFile = abs(c.LogFile)
	c.Calendar.CredentialsFile = abs(c.Calendar.CredentialsFile)
	c.Calendar.TokenFile = abs(c.Calendar.TokenFile)
	return c
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		DBPath:        DefaultDBName,
		DefaultView:   "myday",
		RetentionDays: 14,
		UndoWindow:    Duration(10 * time.Second),
		LogLevel:      "info",
		LogFile:       DefaultLogName,
		Calendar: Calendar{
			Backend:         "none",
			CalendarID:      "primary",
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
			QueueSize:       64,
		},
		Keys: Keymap{
			Quit:     "q",
			Add:      "a",
			Up:       "k",
			Down:     "j",
			Toggle:   " ",
			Star:     "s",
			Postpone: "]",
			Delete:   "d",
			Undo:     "u",
			Search:   "/",
			Filter:   "f",
			NextTab:  "tab",
			PrevTab:  "shift+tab",
			Confirm:  "enter",
			Cancel:   "esc",
		},
	}
}
