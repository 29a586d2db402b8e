// Package config loads scraper configuration from environment variables and
// an optional YAML file, and owns path resolution for output, data, and log
// directories.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Portal   PortalConfig   `yaml:"portal" envconfig:"PORTAL"`
	Scraper  ScraperConfig  `yaml:"scraper" envconfig:"SCRAPER"`
	Filter   FilterConfig   `yaml:"filter" envconfig:"FILTER"`
	Export   ExportConfig   `yaml:"export" envconfig:"EXPORT"`
	Notify   NotifyConfig   `yaml:"notify" envconfig:"NOTIFY"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
}

// PortalConfig identifies the external registry portal being scraped.
type PortalConfig struct {
	SearchURL  string `yaml:"search_url" envconfig:"SEARCH_URL" default:"https://mblsportal.sos.mn.gov/Business/Search" validate:"required,url"`
	DetailsURL string `yaml:"details_url" envconfig:"DETAILS_URL" default:"https://mblsportal.sos.mn.gov/Business/SearchDetails" validate:"required,url"`
	Source     string `yaml:"source" envconfig:"SOURCE" default:"Minnesota Secretary of State Business Search"`
}

// ScraperConfig controls iteration, retries, and politeness delays.
type ScraperConfig struct {
	StartFileNumber      int           `yaml:"start_file_number" envconfig:"START_FILE_NUMBER" default:"1" validate:"min=1"`
	MaxConsecutiveMisses int           `yaml:"max_consecutive_misses" envconfig:"MAX_CONSECUTIVE_MISSES" default:"100" validate:"min=1"`
	CheckpointEvery      int           `yaml:"checkpoint_every" envconfig:"CHECKPOINT_EVERY" default:"10" validate:"min=1"`
	RequestDelay         time.Duration `yaml:"request_delay" envconfig:"REQUEST_DELAY" default:"1500ms"`
	DelayJitter          time.Duration `yaml:"delay_jitter" envconfig:"DELAY_JITTER" default:"500ms"`
	MaxRetries           int           `yaml:"max_retries" envconfig:"MAX_RETRIES" default:"3" validate:"min=1"`
	RetryDelay           time.Duration `yaml:"retry_delay" envconfig:"RETRY_DELAY" default:"5s"`
	PageTimeout          time.Duration `yaml:"page_timeout" envconfig:"PAGE_TIMEOUT" default:"30s"`
	MaxSearchResults     int           `yaml:"max_search_results" envconfig:"MAX_SEARCH_RESULTS" default:"500" validate:"min=1"`
	Headless             bool          `yaml:"headless" envconfig:"HEADLESS" default:"true"`
}

// FilterConfig holds the alpha-search persistence filters. Records outside
// the target years or types are fetched but not persisted.
type FilterConfig struct {
	TargetYears []string `yaml:"target_years" envconfig:"TARGET_YEARS" default:"2024,2025,2026"`
	TargetTypes []string `yaml:"target_types" envconfig:"TARGET_TYPES"`
}

// ExportConfig controls the consolidation and export step.
type ExportConfig struct {
	AutoSaveInterval time.Duration `yaml:"auto_save_interval" envconfig:"AUTO_SAVE_INTERVAL" default:"4h"`
	SQLTableName     string        `yaml:"sql_table_name" envconfig:"SQL_TABLE_NAME" default:"mn_businesses"`
	Push             bool          `yaml:"push" envconfig:"PUSH" default:"false"`
}

// NotifyConfig configures the alert channels. Channels without credentials
// are silently skipped.
type NotifyConfig struct {
	SlackWebhookURL string `yaml:"slack_webhook_url" envconfig:"SLACK_WEBHOOK_URL"`
	SMTPHost        string `yaml:"smtp_host" envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort        int    `yaml:"smtp_port" envconfig:"SMTP_PORT" default:"587"`
	SMTPUser        string `yaml:"smtp_user" envconfig:"SMTP_USER"`
	SMTPPassword    string `yaml:"smtp_password" envconfig:"SMTP_PASSWORD"`
	EmailTo         string `yaml:"email_to" envconfig:"EMAIL_TO"`
	EmailFrom       string `yaml:"email_from" envconfig:"EMAIL_FROM"`
}

// ServerConfig contains the dashboard HTTP server configuration.
// MetricsPort is the port the scraper binaries expose their own /metrics on;
// 0 disables the listener. The dashboard serves its registry on its main port.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	MetricsPort     int           `yaml:"metrics_port" envconfig:"METRICS_PORT" default:"0" validate:"min=0,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/scraper.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"output"`
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// DefaultTargetTypes are the exact business types persisted by the alpha
// search workers. The keyword pre-filter during search is broader.
var DefaultTargetTypes = []string{
	"Limited Liability Company (Domestic)",
	"Limited Liability Company (Foreign)",
	"Business Corporation (Domestic)",
	"Business Corporation (Foreign)",
	"Nonprofit Corporation (Domestic)",
	"Nonprofit Corporation (Foreign)",
}

// Load loads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("MNSOS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if path := findConfigFile(); path != "" {
		fileCfg, err := loadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = merge(*fileCfg, cfg)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// merge overlays env config on top of file config. Zero-valued env fields
// fall back to the file values.
func merge(fileCfg, envCfg Config) Config {
	if envCfg.Portal.SearchURL == "" {
		envCfg.Portal.SearchURL = fileCfg.Portal.SearchURL
	}
	if envCfg.Portal.DetailsURL == "" {
		envCfg.Portal.DetailsURL = fileCfg.Portal.DetailsURL
	}
	if envCfg.Scraper.StartFileNumber == 0 {
		envCfg.Scraper.StartFileNumber = fileCfg.Scraper.StartFileNumber
	}
	if envCfg.Scraper.MaxConsecutiveMisses == 0 {
		envCfg.Scraper.MaxConsecutiveMisses = fileCfg.Scraper.MaxConsecutiveMisses
	}
	if envCfg.Server.Port == 0 {
		envCfg.Server.Port = fileCfg.Server.Port
	}
	if len(envCfg.Filter.TargetYears) == 0 {
		envCfg.Filter.TargetYears = fileCfg.Filter.TargetYears
	}
	if len(envCfg.Filter.TargetTypes) == 0 {
		envCfg.Filter.TargetTypes = fileCfg.Filter.TargetTypes
	}
	return envCfg
}

func (c *Config) applyDefaults() {
	if len(c.Filter.TargetTypes) == 0 {
		c.Filter.TargetTypes = DefaultTargetTypes
	}
	if c.Notify.EmailFrom == "" {
		c.Notify.EmailFrom = c.Notify.SMTPUser
	}
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "console" {
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/scraper.log"
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	if c.Scraper.RequestDelay < 0 || c.Scraper.DelayJitter < 0 {
		return fmt.Errorf("request delay and jitter must be non-negative")
	}
	if c.Export.AutoSaveInterval <= 0 {
		return fmt.Errorf("auto-save interval must be positive")
	}
	return nil
}

// findConfigFile returns the path to the config file, if one exists
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration, used when Load fails and by tests.
func Default() *Config {
	return &Config{
		Portal: PortalConfig{
			SearchURL:  "https://mblsportal.sos.mn.gov/Business/Search",
			DetailsURL: "https://mblsportal.sos.mn.gov/Business/SearchDetails",
			Source:     "Minnesota Secretary of State Business Search",
		},
		Scraper: ScraperConfig{
			StartFileNumber:      1,
			MaxConsecutiveMisses: 100,
			CheckpointEvery:      10,
			RequestDelay:         1500 * time.Millisecond,
			DelayJitter:          500 * time.Millisecond,
			MaxRetries:           3,
			RetryDelay:           5 * time.Second,
			PageTimeout:          30 * time.Second,
			MaxSearchResults:     500,
			Headless:             true,
		},
		Filter: FilterConfig{
			TargetYears: []string{"2024", "2025", "2026"},
			TargetTypes: DefaultTargetTypes,
		},
		Export: ExportConfig{
			AutoSaveInterval: 4 * time.Hour,
			SQLTableName:     "mn_businesses",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/scraper.log",
		},
		Paths: PathsConfig{
			OutputDir: "output",
			DataDir:   "data",
			LogsDir:   "logs",
		},
	}
}
