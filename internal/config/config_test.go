package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Load uses defaults when no config file exists
// - Load reads .docwatch/config.yml and .docwatch/config.yaml
// - Load merges a partial config file with defaults
// - Durations parse from strings ("250ms")
// - Environment variables override config file values and defaults
// - An explicit config file is read, and a missing one is an error
// - Relative paths resolve against the root directory
// - Malformed YAML and invalid values return errors
// - Validate() rejects each invalid field with its sentinel error
// - Validate() requires server.url for remote components
// - Validate() aggregates multiple errors

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	configDir := filepath.Join(dir, ".docwatch")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, name), []byte(content), 0644))
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Empty(t, cfg.Server.URL)
	assert.True(t, cfg.Offline())
	assert.Equal(t, 10*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WaitTimeout)

	assert.Equal(t, RootSourceStatic, cfg.Watch.RootSource)
	assert.Equal(t, 5*time.Second, cfg.Watch.PollInterval)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, time.Second, cfg.Watch.DeleteDelay)

	assert.Equal(t, 10, cfg.Indexing.MaxFileSizeMB)
	assert.Equal(t, 400, cfg.Indexing.MaxWords)
	assert.Equal(t, 300, cfg.Indexing.SummaryChars)
	assert.Equal(t, []string{"~*", "*.tmp"}, cfg.Indexing.TempPatterns)
	assert.Equal(t, []string{".txt", ".md", ".log"}, cfg.Indexing.TextExtensions)

	assert.Equal(t, ".local_index_state.json", cfg.State.Path)

	assert.Equal(t, "http", cfg.Embedding.Provider)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, 10000, cfg.Embedding.CacheSize)

	assert.Equal(t, BackendLocal, cfg.Vector.Backend)
	assert.Equal(t, BackendLocal, cfg.History.Backend)
	assert.False(t, cfg.UsesRemote())

	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	// Setup
	tempDir := t.TempDir()

	// Execute
	cfg, err := NewLoader(tempDir).Load()

	// Verify
	require.NoError(t, err)
	expected := Default()
	assert.Equal(t, expected.Embedding, cfg.Embedding)
	assert.Equal(t, expected.Watch.Debounce, cfg.Watch.Debounce)
	assert.Equal(t, filepath.Join(tempDir, ".local_index_state.json"), cfg.State.Path)
}

func TestLoadConfig_LoadsFromConfigYml(t *testing.T) {
	t.Parallel()

	// Setup
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
server:
  url: http://localhost:8000
  timeout: 3s

watch:
  root_source: remote
  debounce: 250ms
  delete_delay: 2s

indexing:
  max_words: 100
  temp_patterns: ["~*", "*.swp"]

vector:
  backend: remote

history:
  backend: remote

embedding:
  provider: mock
  dimensions: 16
`)

	// Execute
	cfg, err := NewLoader(tempDir).Load()

	// Verify
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Server.URL)
	assert.Equal(t, 3*time.Second, cfg.Server.Timeout)
	assert.Equal(t, RootSourceRemote, cfg.Watch.RootSource)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, 2*time.Second, cfg.Watch.DeleteDelay)
	assert.Equal(t, 100, cfg.Indexing.MaxWords)
	assert.Equal(t, []string{"~*", "*.swp"}, cfg.Indexing.TempPatterns)
	assert.Equal(t, BackendRemote, cfg.Vector.Backend)
	assert.Equal(t, BackendRemote, cfg.History.Backend)
	assert.Equal(t, "mock", cfg.Embedding.Provider)
	assert.Equal(t, 16, cfg.Embedding.Dimensions)
	assert.True(t, cfg.UsesRemote())
}

func TestLoadConfig_LoadsFromConfigYaml(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yaml", `
embedding:
  endpoint: http://localhost:9000/embed
`)

	cfg, err := NewLoader(tempDir).Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/embed", cfg.Embedding.Endpoint)
}

func TestLoadConfig_MergesConfigWithDefaults(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
indexing:
  max_file_size_mb: 2
`)

	cfg, err := NewLoader(tempDir).Load()

	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Indexing.MaxFileSizeMB)
	assert.Equal(t, 400, cfg.Indexing.MaxWords)
	assert.Equal(t, 5*time.Second, cfg.Watch.PollInterval)
	assert.Equal(t, int64(2*1024*1024), cfg.ToProcessorConfig().MaxFileSize)
}

func TestLoadConfig_ResolvesRelativePaths(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
watch:
  roots: ["docs", "/abs/notes"]
state:
  path: state/index.json
log:
  file: logs/docwatch.log
`)

	cfg, err := NewLoader(tempDir).Load()

	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(tempDir, "docs"), "/abs/notes"}, cfg.Watch.Roots)
	assert.Equal(t, filepath.Join(tempDir, "state", "index.json"), cfg.State.Path)
	assert.Equal(t, filepath.Join(tempDir, "logs", "docwatch.log"), cfg.Log.File)
	assert.Equal(t, filepath.Join(tempDir, ".docwatch", "history.db"), cfg.History.Path)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("indexing:\n  summary_chars: 80\n"), 0644))

	cfg, err := NewFileLoader(tempDir, path).Load()
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Indexing.SummaryChars)

	_, err = NewFileLoader(tempDir, filepath.Join(tempDir, "missing.yml")).Load()
	assert.Error(t, err)
}

func TestLoadConfig_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
embedding:
  provider: http
  dimensions: 384
watch:
  debounce: 1s
`)

	t.Setenv("DOCWATCH_EMBEDDING_PROVIDER", "mock")
	t.Setenv("DOCWATCH_EMBEDDING_DIMENSIONS", "32")
	t.Setenv("DOCWATCH_WATCH_DEBOUNCE", "150ms")

	cfg, err := NewLoader(tempDir).Load()

	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.Embedding.Provider)
	assert.Equal(t, 32, cfg.Embedding.Dimensions)
	assert.Equal(t, 150*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoadConfig_EnvironmentVariablesOverrideDefaults(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	tempDir := t.TempDir()

	t.Setenv("DOCWATCH_SERVER_URL", "http://127.0.0.1:8000")
	t.Setenv("DOCWATCH_VECTOR_BACKEND", "remote")
	t.Setenv("DOCWATCH_INDEXING_MAX_WORDS", "50")

	cfg, err := NewLoader(tempDir).Load()

	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Server.URL)
	assert.Equal(t, BackendRemote, cfg.Vector.Backend)
	assert.Equal(t, 50, cfg.Indexing.MaxWords)
	assert.False(t, cfg.Offline())
}

func TestLoadConfig_ReturnsErrorForMalformedYaml(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
embedding:
  provider: mock
  endpoint: "unclosed quote
  dimensions: not-a-number
`)

	cfg, err := NewLoader(tempDir).Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_ReturnsErrorForInvalidValues(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
embedding:
  provider: invalid-provider
  dimensions: -10
`)

	cfg, err := NewLoader(tempDir).Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid")
	assert.ErrorIs(t, err, ErrInvalidProvider)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestValidate_RejectsInvalidFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"provider", func(c *Config) { c.Embedding.Provider = "unsupported" }, ErrInvalidProvider},
		{"zero dimensions", func(c *Config) { c.Embedding.Dimensions = 0 }, ErrInvalidDimensions},
		{"empty endpoint", func(c *Config) { c.Embedding.Endpoint = " " }, ErrEmptyEndpoint},
		{"negative cache", func(c *Config) { c.Embedding.CacheSize = -1 }, ErrInvalidSize},
		{"vector backend", func(c *Config) { c.Vector.Backend = "s3" }, ErrInvalidBackend},
		{"history backend", func(c *Config) { c.History.Backend = "" }, ErrInvalidBackend},
		{"root source", func(c *Config) { c.Watch.RootSource = "dns" }, ErrInvalidRootSource},
		{"debounce", func(c *Config) { c.Watch.Debounce = 0 }, ErrInvalidDuration},
		{"delete delay", func(c *Config) { c.Watch.DeleteDelay = -time.Second }, ErrInvalidDuration},
		{"poll interval", func(c *Config) { c.Watch.PollInterval = 0 }, ErrInvalidDuration},
		{"server timeout", func(c *Config) { c.Server.Timeout = 0 }, ErrInvalidDuration},
		{"max file size", func(c *Config) { c.Indexing.MaxFileSizeMB = 0 }, ErrInvalidSize},
		{"max words", func(c *Config) { c.Indexing.MaxWords = -1 }, ErrInvalidSize},
		{"temp pattern", func(c *Config) { c.Indexing.TempPatterns = []string{"[unclosed"} }, ErrInvalidPattern},
		{"state path", func(c *Config) { c.State.Path = "" }, ErrEmptyStatePath},
		{"server url", func(c *Config) { c.Server.URL = "not a url" }, ErrInvalidServerURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_MockProviderNeedsNoEndpoint(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Embedding.Provider = "mock"
	cfg.Embedding.Endpoint = ""

	assert.NoError(t, Validate(cfg))
}

func TestValidate_RemoteRequiresServer(t *testing.T) {
	t.Parallel()

	for _, mutate := range []func(*Config){
		func(c *Config) { c.Vector.Backend = BackendRemote },
		func(c *Config) { c.History.Backend = BackendRemote },
		func(c *Config) { c.Watch.RootSource = RootSourceRemote },
	} {
		cfg := Default()
		mutate(cfg)
		assert.ErrorIs(t, Validate(cfg), ErrMissingServer)

		cfg.Server.URL = "http://localhost:8000"
		assert.NoError(t, Validate(cfg))
	}
}

func TestValidate_ReturnsMultipleErrorsForMultipleInvalidFields(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Embedding.Provider = "invalid"
	cfg.Embedding.Dimensions = -1
	cfg.Watch.Debounce = 0

	err := Validate(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.ErrorIs(t, err, ErrInvalidProvider)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestConversions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Indexing.CodeExtensions = []string{".rs"}
	cfg.Log.File = "/tmp/docwatch.log"

	ext := cfg.ToExtractConfig()
	assert.Equal(t, []string{".rs"}, ext.CodeExtensions)
	assert.Equal(t, 50, ext.HeadLines)

	emb := cfg.ToEmbedConfig()
	assert.Equal(t, "http", emb.Provider)
	assert.Equal(t, cfg.Server.Timeout, emb.Timeout)
	assert.Equal(t, 10000, emb.CacheSize)

	lc := cfg.ToLoggingConfig(true)
	assert.Equal(t, "/tmp/docwatch.log", lc.File)
	assert.True(t, lc.Verbose)

	pc := cfg.ToProcessorConfig()
	assert.Equal(t, 400, pc.MaxWords)
	assert.Equal(t, 300, pc.SummaryChars)
}
