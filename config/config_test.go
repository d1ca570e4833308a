package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t1ery/ParrainageBot/internal/registration"
	"github.com/t1ery/ParrainageBot/internal/storage"
	"github.com/t1ery/ParrainageBot/internal/submission"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvBotToken, EnvAPIBaseURL, EnvDebug, EnvConfigPath} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
BotToken: "123:abc"
Debug: true
APIBaseURL: "https://parrainage.example.com/api"
RequestTimeout: 15s
StorageDriver: file
StoragePath: /tmp/state.json
PhotoMaxSize: 5242880
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "https://parrainage.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, submission.DefaultSubmitPath, cfg.SubmitPath, "missing keys keep defaults")
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, storage.DriverFile, cfg.StorageDriver)
	assert.EqualValues(t, 5*1024*1024, cfg.PhotoPolicy().MaxSize)

	sc := cfg.Submission()
	assert.Equal(t, cfg.APIBaseURL, sc.BaseURL)
	assert.Equal(t, 15*time.Second, sc.Timeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "BotToken: from-file\nAPIBaseURL: http://file/api\n")
	t.Setenv(EnvBotToken, "from-env")
	t.Setenv(EnvAPIBaseURL, "http://env/api")
	t.Setenv(EnvDebug, "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.BotToken)
	assert.Equal(t, "http://env/api", cfg.APIBaseURL)
	assert.True(t, cfg.Debug)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBotToken, "token")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, submission.DefaultBaseURL, cfg.APIBaseURL)
	assert.Equal(t, storage.DriverSQLite, cfg.StorageDriver)
	assert.EqualValues(t, registration.MaxPhotoSize, cfg.PhotoPolicy().MaxSize)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "Debug: true\n"))
	assert.Error(t, err, "token is required")

	_, err = Load(writeConfig(t, "BotToken: x\nStorageDriver: redis\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "BotToken: [unterminated\n"))
	assert.Error(t, err)

	t.Setenv(EnvDebug, "maybe")
	_, err = Load(writeConfig(t, "BotToken: x\n"))
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	assert.Equal(t, DefaultPath, Path())
	t.Setenv(EnvConfigPath, "/etc/parrainage.yaml")
	assert.Equal(t, "/etc/parrainage.yaml", Path())
}
