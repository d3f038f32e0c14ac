package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does_not_exist.yaml"))

	require.ErrorIs(t, err, ErrConfigFileMissing)
}

func TestLoad_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "varpipe.yaml")
	writeFile(t, path, "output_dir: ./out\nvariability.provider.timeout: \"2500\"\n")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "./out", cfg.GetString("output_dir", ""))
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "varpipe.yaml")
	writeFile(t, path, "not: [valid: yaml")

	_, err := Load(path)

	require.ErrorIs(t, err, ErrConfigMalformed)
}

func TestConfiguration_GetString_Default(t *testing.T) {
	cfg := New(nil)

	assert.Equal(t, "fallback", cfg.GetString("missing", "fallback"))
}

func TestConfiguration_GetInt(t *testing.T) {
	cfg := New(map[string]string{"code.provider.threads": "4"})

	assert.Equal(t, 4, cfg.GetInt("code.provider.threads", 1))
	assert.Equal(t, 1, cfg.GetInt("missing", 1))
}

func TestConfiguration_GetBool(t *testing.T) {
	cfg := New(map[string]string{
		"variability.provider.cache.read": "true",
		"build.provider.cache.write":      "no",
	})

	assert.True(t, cfg.GetBool("variability.provider.cache.read", false))
	assert.False(t, cfg.GetBool("build.provider.cache.write", true))
	assert.True(t, cfg.GetBool("missing", true))
}

func TestConfiguration_GetDuration_MillisecondsByDefault(t *testing.T) {
	cfg := New(map[string]string{"code.provider.timeout": "1500"})

	assert.Equal(t, 1500*time.Millisecond, cfg.GetDuration("code.provider.timeout", 0))
}

func TestConfiguration_GetDuration_UnparseableFallsBackToDefault(t *testing.T) {
	cfg := New(map[string]string{"status_api.listen_addr": "not-a-duration"})

	assert.Equal(t, 5*time.Second, cfg.GetDuration("status_api.listen_addr", 5*time.Second))
}

func TestConfiguration_GetStringSet(t *testing.T) {
	cfg := New(map[string]string{"analysis.components.log": "Simple, Combined"})

	set := cfg.GetStringSet("analysis.components.log")

	assert.True(t, set["Simple"])
	assert.True(t, set["Combined"])
	assert.False(t, set["Other"])
}

func TestConfiguration_LogLevel(t *testing.T) {
	cfg := New(map[string]string{"log_level": "DEBUG"})

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestConfiguration_GetInt_EnvOverridesFile(t *testing.T) {
	t.Setenv("VARPIPE_CODE_PROVIDER_THREADS", "8")

	cfg := New(map[string]string{"code.provider.threads": "4"})

	assert.Equal(t, 8, cfg.GetInt("code.provider.threads", 1))
}

func TestConfiguration_GetString_EnvOverridesDefaultWhenFileEmpty(t *testing.T) {
	t.Setenv("VARPIPE_OUTPUT_DIR", "/from-env")

	cfg := New(nil)

	assert.Equal(t, "/from-env", cfg.GetString("output_dir", "./fallback"))
}

func TestConfiguration_LogLevel_EnvOverridesFile(t *testing.T) {
	t.Setenv("VARPIPE_LOG_LEVEL", "error")

	cfg := New(map[string]string{"log_level": "DEBUG"})

	assert.Equal(t, slog.LevelError, cfg.LogLevel())
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}
