package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrInvalidProvider indicates an unsupported embedding provider
	ErrInvalidProvider = errors.New("invalid embedding provider")

	// ErrInvalidDimensions indicates invalid embedding dimensions
	ErrInvalidDimensions = errors.New("invalid embedding dimensions")

	// ErrEmptyEndpoint indicates missing embedding endpoint
	ErrEmptyEndpoint = errors.New("empty embedding endpoint")

	// ErrInvalidBackend indicates an unsupported storage backend
	ErrInvalidBackend = errors.New("invalid storage backend")

	// ErrInvalidRootSource indicates an unsupported root source
	ErrInvalidRootSource = errors.New("invalid root source")

	// ErrMissingServer indicates a remote component without a server URL
	ErrMissingServer = errors.New("remote backend requires server.url")

	// ErrInvalidServerURL indicates an unparseable server URL
	ErrInvalidServerURL = errors.New("invalid server url")

	// ErrInvalidDuration indicates a non-positive delay or interval
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInvalidSize indicates a non-positive size limit
	ErrInvalidSize = errors.New("invalid size")

	// ErrInvalidPattern indicates a temp-file pattern that does not compile
	ErrInvalidPattern = errors.New("invalid temp pattern")

	// ErrEmptyStatePath indicates a missing state file location
	ErrEmptyStatePath = errors.New("empty state path")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateServer(cfg); err != nil {
		errs = append(errs, err)
	}

	if err := validateWatch(&cfg.Watch); err != nil {
		errs = append(errs, err)
	}

	if err := validateIndexing(&cfg.Indexing); err != nil {
		errs = append(errs, err)
	}

	if strings.TrimSpace(cfg.State.Path) == "" {
		errs = append(errs, fmt.Errorf("%w: state.path is required", ErrEmptyStatePath))
	}

	if err := validateEmbedding(&cfg.Embedding); err != nil {
		errs = append(errs, err)
	}

	if err := validateBackends(cfg); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateServer(cfg *Config) error {
	var errs []error

	if cfg.Server.URL != "" {
		u, err := url.Parse(cfg.Server.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidServerURL, cfg.Server.URL))
		}
	}

	if cfg.Server.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: server.timeout must be positive, got %v", ErrInvalidDuration, cfg.Server.Timeout))
	}
	if cfg.Server.WaitTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: server.wait_timeout must be positive, got %v", ErrInvalidDuration, cfg.Server.WaitTimeout))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateWatch(cfg *WatchConfig) error {
	var errs []error

	source := strings.ToLower(cfg.RootSource)
	if source != RootSourceStatic && source != RootSourceRemote {
		errs = append(errs, fmt.Errorf("%w: must be 'static' or 'remote', got '%s'", ErrInvalidRootSource, cfg.RootSource))
	}

	if cfg.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("%w: watch.poll_interval must be positive, got %v", ErrInvalidDuration, cfg.PollInterval))
	}
	if cfg.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("%w: watch.debounce must be positive, got %v", ErrInvalidDuration, cfg.Debounce))
	}
	if cfg.DeleteDelay <= 0 {
		errs = append(errs, fmt.Errorf("%w: watch.delete_delay must be positive, got %v", ErrInvalidDuration, cfg.DeleteDelay))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateIndexing(cfg *IndexingConfig) error {
	var errs []error

	if cfg.MaxFileSizeMB <= 0 {
		errs = append(errs, fmt.Errorf("%w: indexing.max_file_size_mb must be positive, got %d", ErrInvalidSize, cfg.MaxFileSizeMB))
	}
	if cfg.MaxWords <= 0 {
		errs = append(errs, fmt.Errorf("%w: indexing.max_words must be positive, got %d", ErrInvalidSize, cfg.MaxWords))
	}
	if cfg.SummaryChars <= 0 {
		errs = append(errs, fmt.Errorf("%w: indexing.summary_chars must be positive, got %d", ErrInvalidSize, cfg.SummaryChars))
	}

	for _, p := range cfg.TempPatterns {
		if _, err := glob.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, p, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateEmbedding(cfg *EmbeddingConfig) error {
	var errs []error

	provider := strings.ToLower(cfg.Provider)
	if provider != "http" && provider != "mock" {
		errs = append(errs, fmt.Errorf("%w: must be 'http' or 'mock', got '%s'", ErrInvalidProvider, cfg.Provider))
	}

	if cfg.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("%w: dimensions must be positive, got %d", ErrInvalidDimensions, cfg.Dimensions))
	}

	if provider == "http" && strings.TrimSpace(cfg.Endpoint) == "" {
		errs = append(errs, fmt.Errorf("%w: endpoint is required", ErrEmptyEndpoint))
	}

	if cfg.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("%w: embedding.cache_size cannot be negative, got %d", ErrInvalidSize, cfg.CacheSize))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateBackends(cfg *Config) error {
	var errs []error

	backends := []struct{ key, value string }{
		{"vector.backend", cfg.Vector.Backend},
		{"history.backend", cfg.History.Backend},
	}
	for _, b := range backends {
		if b.value != BackendRemote && b.value != BackendLocal {
			errs = append(errs, fmt.Errorf("%w: %s must be 'remote' or 'local', got '%s'", ErrInvalidBackend, b.key, b.value))
		}
	}

	if cfg.History.Backend == BackendLocal && strings.TrimSpace(cfg.History.Path) == "" {
		errs = append(errs, fmt.Errorf("%w: history.path is required for the local backend", ErrEmptyStatePath))
	}

	if cfg.UsesRemote() && cfg.Server.URL == "" {
		errs = append(errs, ErrMissingServer)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
// A single error is returned as is so errors.Is keeps working on it.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return &validationError{
		errs: errs,
		msg:  fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - ")),
	}
}

// validationError keeps the underlying errors reachable through errors.Is.
type validationError struct {
	errs []error
	msg  string
}

func (e *validationError) Error() string   { return e.msg }
func (e *validationError) Unwrap() []error { return e.errs }
