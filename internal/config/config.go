package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"camrent/internal/pricing"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type ServerConfig struct {
	Port           int      `yaml:"port"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
	CORSOrigins    []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type RedisConfig struct {
	Address         string `yaml:"address"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type MonitoringConfig struct {
	HealthCheckPort   int  `yaml:"health_check_port"`
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ItemConfig struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

type TelegramConfig struct {
	Enabled       bool    `yaml:"enabled"`
	BotToken      string  `yaml:"bot_token"`
	ChatIDs       []int64 `yaml:"chat_ids"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	// DigestTime is the local "HH:MM" at which tomorrow's handovers are sent; empty disables it.
	DigestTime string `yaml:"digest_time"`
}

type GoogleSheetsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name"`
}

type ReportConfig struct {
	SummaryFooter  string `yaml:"summary_footer"`
	ReceiptBaseURL string `yaml:"receipt_base_url"`
}

type Config struct {
	Server         ServerConfig       `yaml:"server"`
	Database       DatabaseConfig     `yaml:"database"`
	Backup         BackupConfig       `yaml:"backup"`
	Redis          RedisConfig        `yaml:"redis"`
	Monitoring     MonitoringConfig   `yaml:"monitoring"`
	Logging        LoggingConfig      `yaml:"logging"`
	Timezone       string             `yaml:"timezone"`
	Pricing        pricing.Tariff     `yaml:"pricing"`
	PromotionsPath string             `yaml:"promotions_path"`
	Items          []ItemConfig       `yaml:"items"`
	Telegram       TelegramConfig     `yaml:"telegram"`
	GoogleSheets   GoogleSheetsConfig `yaml:"google_sheets"`
	Report         ReportConfig       `yaml:"report"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/camrent.db"
	}
	cfg.Pricing = cfg.Pricing.WithDefaults()

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Database.Driver == DriverSQLite {
		if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// Validate checks the values that have no sensible default.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}

	seen := make(map[int64]bool, len(c.Items))
	for _, item := range c.Items {
		if item.ID <= 0 {
			return fmt.Errorf("items: id must be positive, got %d", item.ID)
		}
		if item.Name == "" {
			return fmt.Errorf("items: item %d has no name", item.ID)
		}
		if seen[item.ID] {
			return fmt.Errorf("items: duplicate id %d", item.ID)
		}
		seen[item.ID] = true
	}

	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
	}
	if _, _, _, err := c.DigestTime(); err != nil {
		return err
	}
	if c.GoogleSheets.Enabled && (c.GoogleSheets.CredentialsFile == "" || c.GoogleSheets.SpreadsheetID == "") {
		return fmt.Errorf("google_sheets.credentials_file and spreadsheet_id are required when enabled")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) ServerPort() int {
	if c.Server.Port <= 0 {
		return 3000
	}
	return c.Server.Port
}

func (c *Config) RateLimit() (rps float64, burst int) {
	rps, burst = c.Server.RateLimitRPS, c.Server.RateLimitBurst
	if rps <= 0 {
		rps = 20
	}
	if burst <= 0 {
		burst = int(rps * 2)
	}
	return rps, burst
}

func (c *Config) CORSOrigins() []string {
	if len(c.Server.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return c.Server.CORSOrigins
}

func (c *Config) CacheTTL() time.Duration {
	if c.Redis.CacheTTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) BackupPath() string {
	if c.Backup.Path == "" {
		return "backups"
	}
	return c.Backup.Path
}

func (c *Config) HealthCheckPort() int {
	if c.Monitoring.HealthCheckPort <= 0 {
		return 8090
	}
	return c.Monitoring.HealthCheckPort
}

func (c *Config) PrometheusPort() int {
	if c.Monitoring.PrometheusPort <= 0 {
		return 9090
	}
	return c.Monitoring.PrometheusPort
}

func (c *Config) PromotionsFile() string {
	if c.PromotionsPath == "" {
		return "configs/promotions.yaml"
	}
	return c.PromotionsPath
}

// Location resolves the timezone used for calendar-day projections.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) TelegramRate() float64 {
	if c.Telegram.RatePerSecond <= 0 {
		return 1
	}
	return c.Telegram.RatePerSecond
}

func (c *Config) SheetName() string {
	if c.GoogleSheets.SheetName == "" {
		return "Bookings"
	}
	return c.GoogleSheets.SheetName
}

// DigestTime parses telegram.digest_time. ok is false when the digest is disabled.
func (c *Config) DigestTime() (hour, minute int, ok bool, err error) {
	if c.Telegram.DigestTime == "" {
		return 0, 0, false, nil
	}
	t, err := time.Parse("15:04", c.Telegram.DigestTime)
	if err != nil {
		return 0, 0, false, fmt.Errorf("telegram.digest_time %q: want HH:MM", c.Telegram.DigestTime)
	}
	return t.Hour(), t.Minute(), true, nil
}
