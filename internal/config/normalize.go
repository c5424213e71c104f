package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePublisher()
	c.normalizeLocking()
	c.normalizeLogging()
	return c.normalizeAudit()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePublisher() {
	c.Publisher.Name = strings.TrimSpace(c.Publisher.Name)
	c.Publisher.Prefix = strings.TrimSpace(c.Publisher.Prefix)
	c.Publisher.PublisherCode = strings.TrimSpace(c.Publisher.PublisherCode)
	c.Publisher.DefaultBlock = strings.TrimSpace(c.Publisher.DefaultBlock)
}

func (c *Config) normalizeLocking() {
	if c.Locking.TimeoutSeconds <= 0 {
		c.Locking.TimeoutSeconds = defaultLockTimeoutSeconds
	}
	if c.Locking.RetryMillis <= 0 {
		c.Locking.RetryMillis = defaultLockRetryMillis
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeAudit() error {
	if strings.TrimSpace(c.Audit.Path) == "" {
		c.Audit.Path = defaultAuditPath
	}
	var err error
	if c.Audit.Path, err = expandPath(c.Audit.Path); err != nil {
		return fmt.Errorf("audit.path: %w", err)
	}
	return nil
}
