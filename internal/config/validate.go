package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePublisher(); err != nil {
		return err
	}
	if err := c.validateLocking(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePublisher() error {
	if c.Publisher.Prefix == "" {
		return nil
	}
	if len(c.Publisher.Prefix) != 3 {
		return fmt.Errorf("publisher.prefix must be a 3-digit GS1 prefix, got %q", c.Publisher.Prefix)
	}
	for _, r := range c.Publisher.Prefix {
		if r < '0' || r > '9' {
			return fmt.Errorf("publisher.prefix must be numeric, got %q", c.Publisher.Prefix)
		}
	}
	for _, r := range c.Publisher.PublisherCode {
		if r < '0' || r > '9' {
			return fmt.Errorf("publisher.publisher_code must be numeric, got %q", c.Publisher.PublisherCode)
		}
	}
	if len(c.Publisher.Prefix)+len(c.Publisher.PublisherCode) >= 12 {
		return errors.New("publisher.prefix plus publisher.publisher_code must leave room for a title sequence")
	}
	return nil
}

func (c *Config) validateLocking() error {
	if c.Locking.TimeoutSeconds <= 0 {
		return errors.New("locking.timeout_seconds must be positive")
	}
	if c.Locking.RetryMillis <= 0 {
		return errors.New("locking.retry_millis must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
