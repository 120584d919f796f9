package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `{
	"port": 8080,
	"jwt_secret": "s3cret",
	"database": {"host": "localhost", "port": 5432, "user": "u", "password": "p", "dbname": "d"},
	"ai": {"provider": "openai", "model": "m", "embed_model": "e"}
}`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	require.Equal(t, 24, cfg.JWTTTLHours)
	require.Equal(t, "web-extractions", cfg.Index.Namespace)
	require.Equal(t, 1024, cfg.Index.ChunkSize)
	require.Equal(t, 20, cfg.Index.ChunkOverlap)
	require.Equal(t, 4, cfg.Index.TopK)
	require.Equal(t, 768, cfg.Index.Dimension)
	require.Equal(t, 5, cfg.Chat.MaxHistory)
	require.NotNil(t, cfg.Chat.IncludeSystemPrompt)
	require.True(t, *cfg.Chat.IncludeSystemPrompt)
	require.NotEmpty(t, cfg.Chat.SystemPrompt)
	require.False(t, cfg.Index.ForceReload)
}

func TestLoad_ForceReloadEnvOverride(t *testing.T) {
	t.Setenv("FORCE_RELOAD_INDEX", "TRUE")
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	require.True(t, cfg.Index.ForceReload)
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	_, err := Load(writeConfig(t, `{"port": 8080}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "s",
		"database": {"host": "h"},
		"ai": {"provider": "openai", "model": "m"}
	}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "embed_model")
}

func TestLoad_DimensionMustMatchVectorSchema(t *testing.T) {
	_, err := Load(writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "s",
		"database": {"host": "h"},
		"ai": {"provider": "openai", "model": "m", "embed_model": "e"},
		"index": {"dimension": 1536}
	}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "dimension")
}

func TestLoad_OverlapMustBeSmallerThanChunkSize(t *testing.T) {
	_, err := Load(writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "s",
		"database": {"host": "h"},
		"ai": {"provider": "openai", "model": "m", "embed_model": "e"},
		"index": {"chunk_size": 100, "chunk_overlap": 100}
	}`))
	require.Error(t, err)
}

func TestLoad_InvalidCorpusType(t *testing.T) {
	_, err := Load(writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "s",
		"database": {"host": "h"},
		"ai": {"provider": "openai", "model": "m", "embed_model": "e"},
		"corpus": {"type": "ftp"}
	}`))
	require.Error(t, err)
}
