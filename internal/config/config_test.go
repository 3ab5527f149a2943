package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Server.EnableStats)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.Script.Timeout)
	assert.Empty(t, cfg.Aspects)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `
server:
  address: ":9000"
  read_timeout: 60s
  enable_cors: true

log:
  level: debug
  format: json

script:
  timeout: 2s

aspects:
  - controller: greeter
    phase: before
    actions: [hello]
    script: |
      this.set("greeting", "hi")
  - controller: base
    phase: wrap
    script: this.set("seen", true)
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.True(t, cfg.Server.EnableCORS)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2*time.Second, cfg.Script.Timeout)

	require.Len(t, cfg.Aspects, 2)
	assert.Equal(t, "greeter", cfg.Aspects[0].Controller)
	assert.Equal(t, []string{"hello"}, cfg.Aspects[0].Actions)
	assert.Contains(t, cfg.Aspects[0].Script, `this.set("greeting", "hi")`)
	assert.Empty(t, cfg.Aspects[1].Actions)
	assert.Equal(t, "base.wrap[all]", cfg.Aspects[1].DisplayName())
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestRequiredConfigFileMustExist(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewLoader().WithConfigPath(missing).RequireConfigFile().Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  address: \":9100\"\n"), 0644))
	cfg, err := NewLoader().WithConfigPath(configPath).RequireConfigFile().Load()
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Address)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ASPECT_SERVER_ADDRESS", ":7070")
	t.Setenv("ASPECT_SERVER_ENABLE_STATS", "false")
	t.Setenv("ASPECT_LOG_LEVEL", "warn")
	t.Setenv("ASPECT_SCRIPT_TIMEOUT", "750ms")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.False(t, cfg.Server.EnableStats)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 750*time.Millisecond, cfg.Script.Timeout)
}

func TestPrecedence(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
server:
  address: ":9000"
log:
  level: debug
`), 0644))

	t.Setenv("ASPECT_SERVER_ADDRESS", ":8000")
	t.Setenv("ASPECT_LOG_LEVEL", "info")

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		WithCmdArgs(map[string]string{"server.address": ":7000"}).
		Load()
	require.NoError(t, err)

	// 命令行优先于环境变量和文件
	assert.Equal(t, ":7000", cfg.Server.Address)
	// 环境变量优先于文件
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestCmdArgsUseYAMLNames(t *testing.T) {
	cfg, err := NewLoader().WithCmdArgs(map[string]string{
		"server.enable_cors": "true",
		"log.file_path":      "/tmp/a.log",
		"script.timeout":     "1s",
		"app.name":           "demo",
	}).Load()
	require.NoError(t, err)

	assert.True(t, cfg.Server.EnableCORS)
	assert.Equal(t, "/tmp/a.log", cfg.Log.FilePath)
	assert.Equal(t, time.Second, cfg.Script.Timeout)
	assert.Equal(t, "demo", cfg.App.Name)
}

func TestParseSetFlags(t *testing.T) {
	args, err := ParseSetFlags([]string{"server.address=:9090", " log.level = debug "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"server.address": ":9090", "log.level": "debug"}, args)

	_, err = ParseSetFlags([]string{"novalue"})
	assert.Error(t, err)
	_, err = ParseSetFlags([]string{"=x"})
	assert.Error(t, err)
}

func TestAspectSourceFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hook.js")
	require.NoError(t, os.WriteFile(path, []byte(`this.set("x", 1)`), 0644))

	src, err := AspectConfig{File: path}.Source()
	require.NoError(t, err)
	assert.Equal(t, `this.set("x", 1)`, src)

	src, err = AspectConfig{Script: "inline"}.Source()
	require.NoError(t, err)
	assert.Equal(t, "inline", src)

	_, err = AspectConfig{File: filepath.Join(t.TempDir(), "none.js")}.Source()
	assert.Error(t, err)
}

func TestInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	invalidContent := `
server:
  address: ":9000"
  invalid yaml content here
    - broken
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidContent), 0644))

	_, err := LoadFromFile(configPath)
	assert.Error(t, err)
}

func TestInvalidEnvValue(t *testing.T) {
	t.Setenv("ASPECT_SERVER_READ_TIMEOUT", "invalid-duration")

	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestInvalidCmdPath(t *testing.T) {
	_, err := NewLoader().WithCmdArgs(map[string]string{"nonexistent.path": "value"}).Load()
	assert.Error(t, err)

	_, err = NewLoader().WithCmdArgs(map[string]string{"server.address.port": "1"}).Load()
	assert.Error(t, err)
}
