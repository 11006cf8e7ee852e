package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pasal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultLexicon, cfg.Lexicon.Name)
	assert.Equal(t, DefaultRepairPasses, cfg.Repair.Passes)
	assert.Equal(t, 5, cfg.Repair.MinShortPair)
	assert.Equal(t, DefaultIndentPx, cfg.Layout.IndentPx)
	assert.Equal(t, DefaultConcurrency(), cfg.Batch.Concurrency)
	assert.Equal(t, 0, cfg.Parser.PeekBlankLimit)
	assert.NoError(t, cfg.Validate())
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Lexicon.Name = "id"
	cfg.Layout.IndentPx = 8
	ApplyDefaults(cfg)

	assert.Equal(t, "id", cfg.Lexicon.Name)
	assert.Equal(t, 8, cfg.Layout.IndentPx)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "xml"
	cfg.Parser.PeekBlankLimit = -1
	cfg.Batch.Concurrency = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format")
	assert.Contains(t, err.Error(), "parser.peek_blank_limit")
	assert.Contains(t, err.Error(), "batch.concurrency")
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
lexicon:
  name: id
  dir: ./lexicons
parser:
  peek_blank_limit: 2
batch:
  concurrency: 3
  timeout: 30s
render:
  sanitize: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "id", cfg.Lexicon.Name)
	assert.Equal(t, "./lexicons", cfg.Lexicon.Dir)
	assert.Equal(t, 2, cfg.Parser.PeekBlankLimit)
	assert.Equal(t, 3, cfg.Batch.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Batch.Timeout)
	assert.True(t, cfg.Render.Sanitize)
	assert.Equal(t, DefaultIndentPx, cfg.Layout.IndentPx)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "lexicon:\n  name: id\n")
	t.Setenv("PASAL_LEXICON_NAME", "en")
	t.Setenv("PASAL_LAYOUT_INDENT_PX", "6")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Lexicon.Name)
	assert.Equal(t, 6, cfg.Layout.IndentPx)
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("PASAL_BATCH_CONCURRENCY", "2")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Batch.Concurrency)
	assert.Equal(t, DefaultLexicon, cfg.Lexicon.Name)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeConfig(t, "parser:\n  peek_blank_limit: -3\n")
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
