package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvLibrary, EnvNativeConcurrency, EnvListen, EnvLogLevel} {
		t.Setenv(key, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { require.NoError(t, os.Chdir(wd)) })
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, int64(1), cfg.NativeConcurrency)
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Empty(t, cfg.LibraryPath)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "library_path: /opt/meshfix/libmeshfix.so\nnative_concurrency: 2\nlisten: ':9000'\nlog_level: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/meshfix/libmeshfix.so", cfg.LibraryPath)
	assert.Equal(t, int64(2), cfg.NativeConcurrency)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "library_path: /from/file.so\nnative_concurrency: 3\n")

	t.Setenv(EnvLibrary, "/from/env.so")
	t.Setenv(EnvNativeConcurrency, "5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env.so", cfg.LibraryPath)
	assert.Equal(t, int64(5), cfg.NativeConcurrency)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvListen)
	writeFile(t, ".env", EnvListen+"=0.0.0.0:7000\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7000", cfg.Listen)
	os.Unsetenv(EnvListen)
}

func TestLoad_ConcurrencyFloor(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvNativeConcurrency, "0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cfg.NativeConcurrency)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "explicit config path must exist")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, bad, "native_concurrency: [nope\n")
	_, err = Load(bad)
	assert.Error(t, err)

	t.Setenv(EnvNativeConcurrency, "many")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvNativeConcurrency)
}
