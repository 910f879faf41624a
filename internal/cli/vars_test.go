package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadVarsFileYAML(t *testing.T) {
	path := writeFile(t, "vars.yaml", "name: demo\nport: 8080\nnested:\n  deep: true\n")
	sc, err := LoadVarsFile(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", sc["name"])
	assert.Equal(t, int64(8080), sc["port"])
	nested := sc["nested"].(map[string]any)
	assert.Equal(t, true, nested["deep"])
}

func TestLoadVarsFileTOML(t *testing.T) {
	path := writeFile(t, "vars.toml", "name = \"demo\"\nport = 8080\n")
	sc, err := LoadVarsFile(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", sc["name"])
	assert.Equal(t, int64(8080), sc["port"])
}

func TestLoadVarsFileJSON(t *testing.T) {
	path := writeFile(t, "vars.json", `{"name": "demo", "ratio": 0.5, "count": 3}`)
	sc, err := LoadVarsFile(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", sc["name"])
	assert.Equal(t, 0.5, sc["ratio"])
	assert.Equal(t, int64(3), sc["count"])
}

func TestLoadVarsFileUnknownExtension(t *testing.T) {
	path := writeFile(t, "vars.ini", "name=demo")
	_, err := LoadVarsFile(path)
	assert.Error(t, err)
}

func TestParseVarFlags(t *testing.T) {
	sc, err := ParseVarFlags([]string{"a=1", "b=two", "c=x=y"})
	require.NoError(t, err)
	assert.Equal(t, "1", sc["a"])
	assert.Equal(t, "two", sc["b"])
	assert.Equal(t, "x=y", sc["c"])

	_, err = ParseVarFlags([]string{"novalue"})
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 256, cfg.CacheSize)
	assert.NoError(t, cfg.Logging.Validate())
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().CacheSize, cfg.CacheSize)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "cache_size: 16\nlogging:\n  level: debug\n  format: json\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.CacheSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "logging.level", envTransform("XSH_LOGGING_LEVEL"))
	assert.Equal(t, "cache_size", envTransform("XSH_CACHE_SIZE"))
}
