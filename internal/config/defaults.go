package config

const (
	defaultDataDir            = "~/.local/share/bookplate"
	defaultLogDir             = "~/.local/share/bookplate/logs"
	defaultAuditPath          = "~/.local/share/bookplate/audit.db"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLockTimeoutSeconds = 5
	defaultLockRetryMillis    = 100
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Locking: Locking{
			TimeoutSeconds: defaultLockTimeoutSeconds,
			RetryMillis:    defaultLockRetryMillis,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Audit: Audit{
			Enabled: false,
			Path:    defaultAuditPath,
		},
	}
}
