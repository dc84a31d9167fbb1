package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a new configuration loader for the given root directory.
// The config file is looked up in <rootDir>/.docwatch.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// NewFileLoader creates a loader reading an explicit config file. Relative
// paths in the configuration resolve against rootDir.
func NewFileLoader(rootDir, configFile string) Loader {
	return &loader{
		rootDir:    rootDir,
		configFile: configFile,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (DOCWATCH_*)
// 2. Config file (.docwatch/config.yml, .docwatch/config.yaml or an explicit file)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".docwatch"))
	}

	v.SetEnvPrefix("DOCWATCH")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., DOCWATCH_SERVER_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Only a missing file in the search path is acceptable. An explicit
		// --config that does not exist is an error.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.resolvePaths(l.rootDir)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// envKeys are bound explicitly so env vars apply even without a config file.
var envKeys = []string{
	"server.url",
	"server.timeout",
	"server.wait_timeout",

	"watch.root_source",
	"watch.poll_interval",
	"watch.debounce",
	"watch.delete_delay",

	"indexing.max_file_size_mb",
	"indexing.max_words",
	"indexing.summary_chars",

	"state.path",

	"embedding.provider",
	"embedding.endpoint",
	"embedding.dimensions",
	"embedding.cache_size",

	"vector.backend",
	"vector.dir",

	"history.backend",
	"history.path",

	"log.file",
	"log.max_size_mb",
	"log.max_backups",
	"log.max_age_days",
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("server.url", defaults.Server.URL)
	v.SetDefault("server.timeout", defaults.Server.Timeout)
	v.SetDefault("server.wait_timeout", defaults.Server.WaitTimeout)

	v.SetDefault("watch.roots", defaults.Watch.Roots)
	v.SetDefault("watch.root_source", defaults.Watch.RootSource)
	v.SetDefault("watch.poll_interval", defaults.Watch.PollInterval)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("watch.delete_delay", defaults.Watch.DeleteDelay)

	v.SetDefault("indexing.max_file_size_mb", defaults.Indexing.MaxFileSizeMB)
	v.SetDefault("indexing.max_words", defaults.Indexing.MaxWords)
	v.SetDefault("indexing.summary_chars", defaults.Indexing.SummaryChars)
	v.SetDefault("indexing.temp_patterns", defaults.Indexing.TempPatterns)
	v.SetDefault("indexing.text_extensions", defaults.Indexing.TextExtensions)
	v.SetDefault("indexing.code_extensions", defaults.Indexing.CodeExtensions)

	v.SetDefault("state.path", defaults.State.Path)

	v.SetDefault("embedding.provider", defaults.Embedding.Provider)
	v.SetDefault("embedding.endpoint", defaults.Embedding.Endpoint)
	v.SetDefault("embedding.dimensions", defaults.Embedding.Dimensions)
	v.SetDefault("embedding.cache_size", defaults.Embedding.CacheSize)

	v.SetDefault("vector.backend", defaults.Vector.Backend)
	v.SetDefault("vector.dir", defaults.Vector.Dir)

	v.SetDefault("history.backend", defaults.History.Backend)
	v.SetDefault("history.path", defaults.History.Path)

	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.max_size_mb", defaults.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", defaults.Log.MaxBackups)
	v.SetDefault("log.max_age_days", defaults.Log.MaxAgeDays)
}

// resolvePaths makes file locations absolute relative to rootDir.
func (c *Config) resolvePaths(rootDir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(rootDir, p)
	}
	c.State.Path = resolve(c.State.Path)
	c.Vector.Dir = resolve(c.Vector.Dir)
	c.History.Path = resolve(c.History.Path)
	c.Log.File = resolve(c.Log.File)
	for i, root := range c.Watch.Roots {
		c.Watch.Roots[i] = resolve(root)
	}
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
