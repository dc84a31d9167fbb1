package config

import (
	"time"

	"github.com/mvp-joe/docwatch/internal/embed"
	"github.com/mvp-joe/docwatch/internal/extract"
	"github.com/mvp-joe/docwatch/internal/indexer"
)

// Backend names for the chunk store and version log.
const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

// Root sources for the watch set.
const (
	RootSourceStatic = "static"
	RootSourceRemote = "remote"
)

// DefaultEmbedEndpoint is where the http embedding provider posts by default.
const DefaultEmbedEndpoint = "http://127.0.0.1:8121/embed"

// Config represents the complete docwatch configuration.
// It can be loaded from .docwatch/config.yml with environment variable overrides.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Watch     WatchConfig     `yaml:"watch" mapstructure:"watch"`
	Indexing  IndexingConfig  `yaml:"indexing" mapstructure:"indexing"`
	State     StateConfig     `yaml:"state" mapstructure:"state"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Vector    VectorConfig    `yaml:"vector" mapstructure:"vector"`
	History   HistoryConfig   `yaml:"history" mapstructure:"history"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ServerConfig points at the remote service. An empty URL means offline.
type ServerConfig struct {
	URL         string        `yaml:"url" mapstructure:"url"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`           // per-request timeout
	WaitTimeout time.Duration `yaml:"wait_timeout" mapstructure:"wait_timeout"` // startup health wait
}

// WatchConfig controls the watch set and event timing.
type WatchConfig struct {
	Roots        []string      `yaml:"roots" mapstructure:"roots"`             // static roots
	RootSource   string        `yaml:"root_source" mapstructure:"root_source"` // "static" or "remote"
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	Debounce     time.Duration `yaml:"debounce" mapstructure:"debounce"`
	DeleteDelay  time.Duration `yaml:"delete_delay" mapstructure:"delete_delay"`
}

// IndexingConfig holds the per-file pipeline tunables.
type IndexingConfig struct {
	MaxFileSizeMB  int      `yaml:"max_file_size_mb" mapstructure:"max_file_size_mb"`
	MaxWords       int      `yaml:"max_words" mapstructure:"max_words"`
	SummaryChars   int      `yaml:"summary_chars" mapstructure:"summary_chars"`
	TempPatterns   []string `yaml:"temp_patterns" mapstructure:"temp_patterns"`
	TextExtensions []string `yaml:"text_extensions" mapstructure:"text_extensions"`
	CodeExtensions []string `yaml:"code_extensions" mapstructure:"code_extensions"`
}

// StateConfig locates the local state file.
type StateConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // "http" or "mock"
	Endpoint   string `yaml:"endpoint" mapstructure:"endpoint"`
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`
	CacheSize  int    `yaml:"cache_size" mapstructure:"cache_size"` // 0 disables the vector cache
}

// VectorConfig selects where chunks are stored.
type VectorConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // "remote" or "local"
	Dir     string `yaml:"dir" mapstructure:"dir"`         // local store directory, empty = in-memory
}

// HistoryConfig selects where version records go.
type HistoryConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // "remote" or "local"
	Path    string `yaml:"path" mapstructure:"path"`       // local SQLite file
}

// LogConfig controls log output.
type LogConfig struct {
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// Default returns a configuration with sensible defaults.
// With no server URL everything runs locally.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Timeout:     10 * time.Second,
			WaitTimeout: 10 * time.Second,
		},
		Watch: WatchConfig{
			Roots:        []string{},
			RootSource:   RootSourceStatic,
			PollInterval: 5 * time.Second,
			Debounce:     300 * time.Millisecond,
			DeleteDelay:  time.Second,
		},
		Indexing: IndexingConfig{
			MaxFileSizeMB:  10,
			MaxWords:       indexer.DefaultMaxWords,
			SummaryChars:   300,
			TempPatterns:   append([]string(nil), indexer.DefaultTempPatterns...),
			TextExtensions: append([]string(nil), extract.DefaultTextExtensions...),
			CodeExtensions: append([]string(nil), extract.DefaultCodeExtensions...),
		},
		State: StateConfig{
			Path: ".local_index_state.json",
		},
		Embedding: EmbeddingConfig{
			Provider:   "http",
			Endpoint:   DefaultEmbedEndpoint,
			Dimensions: embed.DefaultDimensions,
			CacheSize:  10000,
		},
		Vector: VectorConfig{
			Backend: BackendLocal,
			Dir:     ".docwatch/vectors",
		},
		History: HistoryConfig{
			Backend: BackendLocal,
			Path:    ".docwatch/history.db",
		},
		Log: LogConfig{
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Offline reports whether no remote service is configured.
func (c *Config) Offline() bool {
	return c.Server.URL == ""
}

// UsesRemote reports whether any component talks to the remote service.
func (c *Config) UsesRemote() bool {
	return c.Vector.Backend == BackendRemote ||
		c.History.Backend == BackendRemote ||
		c.Watch.RootSource == RootSourceRemote
}
