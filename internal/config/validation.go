package config

import (
	"fmt"
	"net/url"
	"time"

	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Preview.Port < 1 || c.Preview.Port > 65535 {
		return invalid("preview.port", fmt.Sprintf("port %d out of range", c.Preview.Port))
	}
	if _, err := c.DebounceDuration(); err != nil {
		return invalid("preview.debounce", err.Error())
	}
	d, err := c.IntervalDuration()
	if err != nil {
		return invalid("preview.interval", err.Error())
	}
	if d <= 0 {
		return invalid("preview.interval", "interval must be positive")
	}
	if g := c.Content.Git; g != nil {
		if err := validateGit(g); err != nil {
			return err
		}
	}
	if c.Notify.URL != "" {
		if _, err := url.Parse(c.Notify.URL); err != nil {
			return invalid("notify.url", err.Error())
		}
	}
	return nil
}

func validateGit(g *GitConfig) error {
	if g.URL == "" {
		return invalid("content.git.url", "repository url is required")
	}
	if err := validateRetry(g.Retry); err != nil {
		return err
	}
	if g.Auth.IsZero() {
		return nil
	}
	switch g.Auth.Type {
	case AuthTypeToken:
		if g.Auth.Token == "" {
			return invalid("content.git.auth.token", "token auth requires a token")
		}
	case AuthTypeBasic:
		if g.Auth.Username == "" || g.Auth.Password == "" {
			return invalid("content.git.auth", "basic auth requires username and password")
		}
	case AuthTypeSSH:
		if g.Auth.KeyPath == "" {
			return invalid("content.git.auth.key_path", "ssh auth requires key_path")
		}
	default:
		return invalid("content.git.auth.type", fmt.Sprintf("unsupported auth type %q", g.Auth.Type))
	}
	return nil
}

func validateRetry(r RetryConfig) error {
	if r.MaxRetries < 0 {
		return invalid("content.git.retry.max_retries", "must not be negative")
	}
	switch r.Backoff {
	case "", "fixed", "linear", "exponential":
	default:
		return invalid("content.git.retry.backoff", fmt.Sprintf("unknown backoff %q", r.Backoff))
	}
	for field, v := range map[string]string{"initial_delay": r.InitialDelay, "max_delay": r.MaxDelay} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return invalid("content.git.retry."+field, err.Error())
		}
	}
	return nil
}

func invalid(field, msg string) error {
	return ferrors.ConfigError(fmt.Sprintf("invalid %s: %s", field, msg)).
		WithContext("field", field).
		Build()
}

// DebounceDuration parses preview.debounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	return time.ParseDuration(c.Preview.Debounce)
}

// IntervalDuration parses preview.interval.
func (c *Config) IntervalDuration() (time.Duration, error) {
	return time.ParseDuration(c.Preview.Interval)
}
