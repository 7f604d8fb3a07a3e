// Package config loads the process-wide configuration once at startup. The
// resulting Config value is passed explicitly into every constructor; nothing
// reads viper after Load returns.
package config

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Target is one data type the client syncs: an API path paired with the
// sheet that receives it.
type Target struct {
	Name  string
	Path  string
	Sheet string
}

type Config struct {
	// API client.
	BaseURL       string
	Timeout       time.Duration
	HealthTimeout time.Duration
	MaxAttempts   int
	RetryDelay    time.Duration
	UserAgent     string

	// Destination. Backend is "google" or "xlsx".
	Backend        string
	SpreadsheetID  string
	WorkbookPath   string
	MaxColumnWidth int

	Targets []Target

	// Scheduler. Quiet hours [QuietFrom, QuietTo) are skipped.
	Interval  string
	QuietFrom int
	QuietTo   int

	// Logging.
	LogLevel  string
	LogToFile bool
	LogDir    string

	// Directory holding config.yml and the secrets file.
	Dir string
}

// Load reads config.yml from dir and returns the assembled Config. Unset
// keys fall back to defaults; the credential itself never lives here, it
// comes from the secret store.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")

	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.health_timeout", "10s")
	v.SetDefault("api.max_attempts", 3)
	v.SetDefault("api.retry_delay", "2s")
	v.SetDefault("api.user_agent", "exchangesync/1.0")
	v.SetDefault("sheets.backend", "xlsx")
	v.SetDefault("sheets.workbook_path", "exchange-data.xlsx")
	v.SetDefault("sheets.max_column_width", 250)
	v.SetDefault("schedule.interval", "1h")
	v.SetDefault("schedule.quiet_from", 1)
	v.SetDefault("schedule.quiet_to", 7)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", false)
	v.SetDefault("log.dir", "logs")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{
		BaseURL:        v.GetString("api.base_url"),
		Timeout:        v.GetDuration("api.timeout"),
		HealthTimeout:  v.GetDuration("api.health_timeout"),
		MaxAttempts:    v.GetInt("api.max_attempts"),
		RetryDelay:     v.GetDuration("api.retry_delay"),
		UserAgent:      v.GetString("api.user_agent"),
		Backend:        v.GetString("sheets.backend"),
		SpreadsheetID:  v.GetString("sheets.spreadsheet_id"),
		WorkbookPath:   v.GetString("sheets.workbook_path"),
		MaxColumnWidth: v.GetInt("sheets.max_column_width"),
		Interval:       v.GetString("schedule.interval"),
		QuietFrom:      v.GetInt("schedule.quiet_from"),
		QuietTo:        v.GetInt("schedule.quiet_to"),
		LogLevel:       v.GetString("log.level"),
		LogToFile:      v.GetBool("log.file"),
		LogDir:         v.GetString("log.dir"),
		Dir:            dir,
	}

	var rawTargets []struct {
		Name  string `mapstructure:"name"`
		Path  string `mapstructure:"path"`
		Sheet string `mapstructure:"sheet"`
	}
	if err := v.UnmarshalKey("targets", &rawTargets); err != nil {
		return nil, fmt.Errorf("reading targets: %w", err)
	}
	for _, t := range rawTargets {
		cfg.Targets = append(cfg.Targets, Target(t))
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = DefaultTargets()
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is required")
	}
	return cfg, nil
}

// DefaultTargets returns the two data types the exchange API serves.
func DefaultTargets() []Target {
	return []Target{
		{Name: "scores", Path: "/api/v1/exchange-scores", Sheet: "Exchange Scores"},
		{Name: "certificates", Path: "/api/v1/exchange-certificates", Sheet: "Exchange Certificates"},
	}
}

// Target looks a sync target up by name.
func (c *Config) Target(name string) (Target, bool) {
	for _, t := range c.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return Target{}, false
}

// ApplyLogging configures the global logrus logger from the config value.
func (c *Config) ApplyLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
