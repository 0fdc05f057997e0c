package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.LLM.BaseURL)
	assert.Equal(t, DefaultModel, cfg.LLM.Model)
	assert.Equal(t, DefaultCodeModel, cfg.LLM.CodeModel)
	assert.Equal(t, DefaultMaxAttempts, cfg.Analysis.MaxAttempts)
	assert.Equal(t, uint64(DefaultMaxSteps), cfg.Analysis.MaxSteps)
	assert.Equal(t, DefaultExecTimeout, cfg.Analysis.Timeout)
	assert.Equal(t, "auto", cfg.Output)
	assert.False(t, cfg.Verbose)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
llm:
  base_url: http://localhost:8080/v1
  model: local-model
  timeout: 30s
analysis:
  max_attempts: 5
output: json
`)
	t.Chdir(dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "local-model", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 5, cfg.Analysis.MaxAttempts)
	assert.Equal(t, "json", cfg.Output)
	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultCodeModel, cfg.LLM.CodeModel)
}

func TestLoadFindsConfigUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "output: json\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load("does-not-exist.yaml", nil)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "llm:\n  model: from-file\n")
	t.Chdir(dir)
	t.Setenv("TABQ_LLM_MODEL", "from-env")
	t.Setenv("TABQ_LLM_API_KEY", "sk-test")
	t.Setenv("TABQ_OUTPUT", "table")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "table", cfg.Output)
}

func TestFlagsOverrideEverything(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TABQ_LLM_MODEL", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("model", "", "")
	flags.Int("max-attempts", 0, "")
	flags.String("unrelated", "", "")
	require.NoError(t, flags.Parse([]string{"--model=from-flag", "--max-attempts=7", "--unrelated=x"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.LLM.Model)
	assert.Equal(t, 7, cfg.Analysis.MaxAttempts)
}

func TestUnchangedFlagsIgnored(t *testing.T) {
	t.Chdir(t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("model", "flag-default", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.LLM.Model, "unset flags must not mask config values")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "llm.api_key", envKey("TABQ_LLM_API_KEY"))
	assert.Equal(t, "llm.base_url", envKey("TABQ_LLM_BASE_URL"))
	assert.Equal(t, "analysis.max_attempts", envKey("TABQ_ANALYSIS_MAX_ATTEMPTS"))
	assert.Equal(t, "verbose", envKey("TABQ_VERBOSE"))
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Analysis: AnalysisConfig{MaxAttempts: 3},
		Output:   "auto",
	}
	assert.NoError(t, cfg.Validate())

	cfg.Analysis.MaxAttempts = 0
	assert.Error(t, cfg.Validate())

	cfg.Analysis.MaxAttempts = 1
	cfg.Output = "csv"
	assert.Error(t, cfg.Validate())
}
