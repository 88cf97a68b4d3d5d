package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, 10, cfg.Pipeline.BatchSize)
	assert.Equal(t, 0, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.RequestTimeout.Std())
	assert.Equal(t, 1.0, cfg.Pipeline.RateLimitRPS)
	assert.Equal(t, "student", cfg.Workflow.Persona)
	assert.Equal(t, 5, cfg.Workflow.MaxCycles)
	assert.Equal(t, 3, cfg.Workflow.ResearchAttempts)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gemini:
  model: gemini-2.5-pro
pipeline:
  batch_size: 4
  request_timeout: 90s
workflow:
  persona: b2b
  max_cycles: 8
http:
  port: 9090
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.Model)
	assert.Equal(t, 4, cfg.Pipeline.BatchSize)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.RequestTimeout.Std())
	assert.Equal(t, "b2b", cfg.Workflow.Persona)
	assert.Equal(t, 8, cfg.Workflow.MaxCycles)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	// Untouched sections keep their defaults.
	assert.Equal(t, 3, cfg.Workflow.ResearchAttempts)
	assert.Equal(t, "localhost", cfg.HTTP.Host)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  batch_size: 4\n"), 0o644))

	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("OUTREACH_BATCH_SIZE", "25")
	t.Setenv("OUTREACH_PERSONA", "b2b")
	t.Setenv("OUTREACH_REQUEST_TIMEOUT", "45s")
	t.Setenv("OUTREACH_RATE_LIMIT_RPS", "0.5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
	assert.Equal(t, 25, cfg.Pipeline.BatchSize)
	assert.Equal(t, "b2b", cfg.Workflow.Persona)
	assert.Equal(t, 45*time.Second, cfg.Pipeline.RequestTimeout.Std())
	assert.Equal(t, 0.5, cfg.Pipeline.RateLimitRPS)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("bad env int", func(t *testing.T) {
		t.Setenv("OUTREACH_BATCH_SIZE", "ten")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OUTREACH_BATCH_SIZE")
	})

	t.Run("bad env duration", func(t *testing.T) {
		t.Setenv("OUTREACH_REQUEST_TIMEOUT", "soon")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OUTREACH_REQUEST_TIMEOUT")
	})

	t.Run("bad yaml duration", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  request_timeout: whenever\n"), 0o644))
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestLoadSender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sender.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Sam Field
resume: CS student at Somewhere U, prior internship at a fintech startup.
career_interest: venture capital
key_accomplishments:
  - published a paper on market microstructure
  - built a portfolio tracker used by 200 students
`), 0o644))

	s, err := LoadSender(path)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "Sam Field", s.Name)
}

func TestLoadSenderRequiresNameAndResume(t *testing.T) {
	dir := t.TempDir()

	noName := filepath.Join(dir, "noname.yaml")
	require.NoError(t, os.WriteFile(noName, []byte("resume: something\n"), 0o644))
	_, err := LoadSender(noName)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")

	noResume := filepath.Join(dir, "noresume.yaml")
	require.NoError(t, os.WriteFile(noResume, []byte("name: Sam Field\n"), 0o644))
	_, err = LoadSender(noResume)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resume is required")
}
