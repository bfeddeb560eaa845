package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0.85, cfg.Confidence.ExecuteThreshold)
	assert.Equal(t, 0.60, cfg.Confidence.ConfirmThreshold)
	assert.Equal(t, 50, cfg.Conversation.MaxTurns)
	require.NoError(t, cfg.Validate())

	// A default file should now exist on disk.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLoadHydratesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := "llm:\n  provider: heuristic\n"
	require.NoError(t, os.WriteFile(path, []byte(partial), 0o600))

	cfg, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "heuristic", cfg.LLM.Provider)
	assert.Equal(t, 0.85, cfg.Confidence.ExecuteThreshold)
	assert.Equal(t, 1.0, cfg.Confidence.Weight("low"))
	assert.Equal(t, 0.6, cfg.Confidence.Weight("high"))
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [not a mapping"), 0o600))

	_, err := NewFileLoader(path).Load(context.Background())
	assert.Error(t, err)
}

func TestInvalidThresholdsFailValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	bad := "confidence:\n  execute_threshold: 0.5\n  confirm_threshold: 0.9\n"
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o600))

	cfg, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestEnvOverrideSelectsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alt.yaml")
	t.Setenv("JARVIS_CONFIG", path)

	_, err := NewFileLoader("").Load(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
