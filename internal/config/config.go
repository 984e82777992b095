// Package config loads the sitetree.yaml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "sitetree.yaml"

// Config is the complete project configuration.
type Config struct {
	Content   ContentConfig   `yaml:"content"`
	Templates TemplatesConfig `yaml:"templates"`
	Public    PublicConfig    `yaml:"public"`
	Output    OutputConfig    `yaml:"output"`
	// Site holds globals merged into every render context.
	Site    map[string]any `yaml:"site,omitempty"`
	Preview PreviewConfig  `yaml:"preview"`
	History HistoryConfig  `yaml:"history"`
	Notify  NotifyConfig   `yaml:"notify,omitempty"`
	Logging LoggingConfig  `yaml:"logging"`
}

// ContentConfig locates the content tree.
type ContentConfig struct {
	Root string     `yaml:"root"`
	Git  *GitConfig `yaml:"git,omitempty"`
}

// GitConfig makes the content tree a clone of a git repository.
type GitConfig struct {
	URL         string      `yaml:"url"`
	Branch      string      `yaml:"branch,omitempty"`
	Path        string      `yaml:"path,omitempty"` // content directory inside the repository
	CheckoutDir string      `yaml:"checkout_dir,omitempty"`
	Auth        *AuthConfig `yaml:"auth,omitempty"`
	Retry       RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig controls backoff for transient clone and fetch failures.
type RetryConfig struct {
	MaxRetries   int    `yaml:"max_retries,omitempty"`
	Backoff      string `yaml:"backoff,omitempty"` // fixed|linear|exponential
	InitialDelay string `yaml:"initial_delay,omitempty"`
	MaxDelay     string `yaml:"max_delay,omitempty"`
}

// TemplatesConfig locates page templates.
type TemplatesConfig struct {
	Dir string `yaml:"dir"`
}

// PublicConfig locates static files copied verbatim into the output.
type PublicConfig struct {
	Dir string `yaml:"dir"`
}

// OutputConfig controls where and how the site is written.
type OutputConfig struct {
	Directory  string `yaml:"directory"`
	Flat       bool   `yaml:"flat,omitempty"`
	Clean      *bool  `yaml:"clean,omitempty"`
	CheckLinks bool   `yaml:"check_links,omitempty"`
}

// ShouldClean reports whether the output directory is removed before publishing.
func (o OutputConfig) ShouldClean() bool {
	return o.Clean == nil || *o.Clean
}

// PreviewConfig configures the preview server and the serve scheduler.
type PreviewConfig struct {
	Port     int    `yaml:"port"`
	Debounce string `yaml:"debounce"`
	Interval string `yaml:"interval"`
}

// HistoryConfig locates the publish history database. An empty path disables history.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// NotifyConfig configures NATS publish notifications. An empty URL disables them.
type NotifyConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads configPath, expands ${VAR} references and applies defaults.
// Relative paths are resolved against the configuration file's directory.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	// #nosec G304 -- the config path is chosen by the operator
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil, ferrors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	if err != nil {
		return nil, ferrors.FileSystemError("read configuration").WithCause(err).WithContext("path", configPath).Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(configPath))
	return cfg, nil
}

// Parse decodes configuration bytes, applying env expansion, defaults and validation.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.ConfigError("failed to parse configuration").WithCause(err).Build()
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolvePaths(base string) {
	abs := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	abs(&c.Content.Root)
	abs(&c.Templates.Dir)
	abs(&c.Public.Dir)
	abs(&c.Output.Directory)
	abs(&c.History.Path)
	if c.Content.Git != nil {
		abs(&c.Content.Git.CheckoutDir)
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.Site = map[string]any{
		"site_name": "My Site",
		"base_url":  "https://example.com",
	}
	example.Notify = NotifyConfig{}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("marshal example config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return ferrors.FileSystemError("write configuration").WithCause(err).WithContext("path", configPath).Build()
	}
	return nil
}
