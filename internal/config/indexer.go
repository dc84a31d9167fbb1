package config

import (
	"github.com/mvp-joe/docwatch/internal/embed"
	"github.com/mvp-joe/docwatch/internal/extract"
	"github.com/mvp-joe/docwatch/internal/indexer"
	"github.com/mvp-joe/docwatch/internal/logging"
)

// ToProcessorConfig converts the indexing section to an indexer.ProcessorConfig.
func (c *Config) ToProcessorConfig() indexer.ProcessorConfig {
	cfg := indexer.DefaultProcessorConfig()
	cfg.MaxFileSize = int64(c.Indexing.MaxFileSizeMB) * 1024 * 1024
	cfg.MaxWords = c.Indexing.MaxWords
	cfg.SummaryChars = c.Indexing.SummaryChars
	return cfg
}

// ToExtractConfig converts the indexing section to an extract.Config.
func (c *Config) ToExtractConfig() extract.Config {
	cfg := extract.DefaultConfig()
	if len(c.Indexing.TextExtensions) > 0 {
		cfg.TextExtensions = c.Indexing.TextExtensions
	}
	if len(c.Indexing.CodeExtensions) > 0 {
		cfg.CodeExtensions = c.Indexing.CodeExtensions
	}
	return cfg
}

// ToEmbedConfig converts the embedding section to an embed.Config.
func (c *Config) ToEmbedConfig() embed.Config {
	return embed.Config{
		Provider:   c.Embedding.Provider,
		Endpoint:   c.Embedding.Endpoint,
		Dimensions: c.Embedding.Dimensions,
		Timeout:    c.Server.Timeout,
		CacheSize:  c.Embedding.CacheSize,
	}
}

// ToLoggingConfig converts the log section to a logging.Config.
func (c *Config) ToLoggingConfig(verbose bool) logging.Config {
	return logging.Config{
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Verbose:    verbose,
	}
}
