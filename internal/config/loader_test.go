package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoaderRegistersDefaultFileLoaders(t *testing.T) {
	loader := NewLoader("", Development)
	assert.Equal(t, "config", loader.basePath)
	assert.Contains(t, loader.fileLoaders, "yaml")
	assert.Contains(t, loader.fileLoaders, "json")
}

func TestLoaderLoadFailsValidationWithoutRequiredProviderKeys(t *testing.T) {
	loader := NewLoader(t.TempDir(), Development)
	_, err := loader.Load()
	assert.Error(t, err)
}

func TestLoaderLoadFileAppliesYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	contents := []byte("server:\n  port: 9999\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), contents, 0o644))

	loader := NewLoader(dir, Development)
	cfg := loader.defaultConfig()
	err := loader.loadFile("base", cfg)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Contains(t, loader.sources, filepath.Join(dir, "base.yaml"))
}

func TestLoaderLoadFileReturnsNotExistWhenMissing(t *testing.T) {
	loader := NewLoader(t.TempDir(), Development)
	cfg := loader.defaultConfig()
	err := loader.loadFile("nonexistent", cfg)
	assert.True(t, os.IsNotExist(err))
}

func TestLoaderLoadEnvironmentVariablesOverlaysConfig(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("TABLE_NAME", "custom-table")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("JWT_SECRET", "custom-secret")
	t.Setenv("ENABLE_AUTH", "false")

	loader := NewLoader(t.TempDir(), Development)
	cfg := loader.defaultConfig()
	loader.loadEnvironmentVariables(cfg)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "custom-table", cfg.Database.TableName)
	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	assert.Equal(t, "eu-west-1", cfg.Database.Region)
	assert.Equal(t, "custom-secret", cfg.Security.JWTSecret)
	assert.False(t, cfg.Security.EnableAuth)
}

func TestDefaultConfigIsPopulatedForEnvironment(t *testing.T) {
	loader := NewLoader("", Staging)
	cfg := loader.defaultConfig()
	assert.Equal(t, Staging, cfg.Environment)
	assert.Equal(t, "kgraph-staging", cfg.Database.TableName)
}

func TestYAMLLoaderDecodesIntoTarget(t *testing.T) {
	l := &YAMLLoader{}
	assert.Equal(t, "yaml", l.Extension())

	cfg := &Config{}
	err := l.Load(bytes.NewBufferString("version: \"1.2.3\"\n"), cfg)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", cfg.Version)
}

func TestJSONLoaderDecodesIntoTarget(t *testing.T) {
	l := &JSONLoader{}
	assert.Equal(t, "json", l.Extension())

	cfg := &Config{}
	err := l.Load(bytes.NewBufferString(`{"version": "4.5.6"}`), cfg)
	require.NoError(t, err)
	assert.Equal(t, "4.5.6", cfg.Version)
}

func TestParseIntAndParseBoolHelpers(t *testing.T) {
	assert.Equal(t, 42, parseInt("42"))
	assert.Equal(t, 0, parseInt("not-a-number"))
	assert.True(t, parseBool("true"))
	assert.False(t, parseBool("not-a-bool"))
}
