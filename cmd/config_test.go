package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"empty uses default", "", slog.LevelWarn},
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"warning alias", "warning", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"mixed case", "DeBuG", slog.LevelDebug},
		{"numeric", "-4", slog.LevelDebug},
		{"garbage uses default", "loudest", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.input, slog.LevelWarn))
		})
	}
}

func TestReadConfigFile(t *testing.T) {
	restore := func() {
		viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	}

	t.Run("missing file is not an error", func(t *testing.T) {
		defer restore()

		viper.SetConfigFile(filepath.Join(t.TempDir(), configFileName))
		assert.NoError(t, readConfigFile())
	})

	t.Run("malformed file is surfaced", func(t *testing.T) {
		defer restore()

		path := filepath.Join(t.TempDir(), configFileName)
		require.NoError(t, os.WriteFile(path, []byte("version: ["), 0o600))

		viper.SetConfigFile(path)
		assert.Error(t, readConfigFile())
	})
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, 1, viper.GetInt(runParallelConfigKey))
	assert.False(t, viper.GetBool(strictDupesConfigKey))
	assert.Equal(t, 10, viper.GetInt(logMaxSizeKey))
	assert.Equal(t, 3, viper.GetInt(logMaxBackupsKey))
}
