package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate(t *testing.T) {
	t.Run("writes defaults on first launch", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "myday", DefaultConfigFileName)

		cfg, err := LoadOrCreate(path)
		require.NoError(t, err)

		assert.FileExists(t, path)
		assert.Equal(t, filepath.Join(dir, "myday", DefaultDBName), cfg.DBPath)
		assert.Equal(t, "myday", cfg.DefaultView)
		assert.Equal(t, 14, cfg.RetentionDays)
		assert.Equal(t, 10*time.Second, cfg.UndoWindow.Std())
		assert.Equal(t, "none", cfg.Calendar.Backend)
		assert.Equal(t, "u", cfg.Keys.Undo)

		again, err := LoadOrCreate(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, again)
	})

	t.Run("reads overrides and keeps defaults for the rest", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFileName)
		data := `
db_path = "/var/lib/myday/tasks.db"
default_view = "plan"
undo_window = "3s"
sweep_interval = "1h"

[calendar]
backend = "google"
token_file = "secrets/token.json"

[keys]
quit = "x"
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		cfg, err := LoadOrCreate(path)
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/myday/tasks.db", cfg.DBPath)
		assert.Equal(t, "plan", cfg.DefaultView)
		assert.Equal(t, 3*time.Second, cfg.UndoWindow.Std())
		assert.Equal(t, time.Hour, cfg.SweepInterval.Std())
		assert.Equal(t, "google", cfg.Calendar.Backend)
		assert.Equal(t, filepath.Join(dir, "secrets", "token.json"), cfg.Calendar.TokenFile)
		assert.Equal(t, "primary", cfg.Calendar.CalendarID)
		assert.Equal(t, "x", cfg.Keys.Quit)
		assert.Equal(t, "a", cfg.Keys.Add)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		cases := map[string]string{
			"view":     `default_view = "inbox"`,
			"backend":  "[calendar]\nbackend = \"outlook\"",
			"duration": `undo_window = "soon"`,
			"negative": `retention_days = -1`,
		}
		for name, data := range cases {
			t.Run(name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), DefaultConfigFileName)
				require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
				_, err := LoadOrCreate(path)
				assert.Error(t, err)
			})
		}
	})
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.toml")
	p, err := ResolveConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.toml", p)

	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")
	p, err = ResolveConfigPath()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigFileName, filepath.Base(p))
	assert.Equal(t, appDirName, filepath.Base(filepath.Dir(p)))
}
