package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("writes json to file at level", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "logs", "myday.log")

		l, closer, err := New("warn", file)
		require.NoError(t, err)

		l.Info().Msg("hidden")
		l.Warn().Str("component", "test").Msg("shown")
		closer()

		data, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"message":"shown"`)
		assert.Contains(t, string(data), `"component":"test"`)
		assert.NotContains(t, string(data), "hidden")
		assert.Equal(t, zerolog.WarnLevel, l.GetLevel())
	})

	t.Run("appends across opens", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "myday.log")
		for _, msg := range []string{"first", "second"} {
			l, closer, err := New("info", file)
			require.NoError(t, err)
			l.Info().Msg(msg)
			closer()
		}
		data, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Contains(t, string(data), "first")
		assert.Contains(t, string(data), "second")
	})

	t.Run("invalid level", func(t *testing.T) {
		_, _, err := New("loud", "")
		assert.Error(t, err)
	})
}
