package config

import (
	"net/url"

	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
	"git.home.luguber.info/inful/grdesk/internal/retry"
)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Backend.URL != "" {
		u, err := url.Parse(c.Backend.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalid("backend.url", c.Backend.URL, err)
		}
	}
	if c.Backend.Retry.Mode != "" {
		if _, err := retry.ParseMode(c.Backend.Retry.Mode); err != nil {
			return invalid("backend.retry.mode", c.Backend.Retry.Mode, err)
		}
	}
	if c.Backend.Retry.MaxRetries < 0 {
		return invalid("backend.retry.max_retries", c.Backend.Retry.MaxRetries, nil)
	}
	if c.Backend.Retry.Initial < 0 || c.Backend.Retry.Max < 0 {
		return invalid("backend.retry", "negative delay", nil)
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return invalid("nats.url", "", nil)
	}
	if c.Scheduler.StatusRulesInterval < 0 {
		return invalid("scheduler.status_rules_interval", c.Scheduler.StatusRulesInterval, nil)
	}
	switch c.Locale {
	case "ru", "en":
	default:
		return invalid("locale", c.Locale, nil)
	}
	return nil
}

func invalid(field string, value any, cause error) error {
	b := ferrors.ConfigError("invalid configuration value").
		WithContext("field", field).
		WithContext("value", value)
	if cause != nil {
		b = b.WithCause(cause)
	}
	return b.Build()
}
