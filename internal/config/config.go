package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"folio/internal/journal"
	"folio/internal/messaging"
	"folio/internal/ratelimit"
	"folio/internal/slots"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither --config nor FOLIO_CONFIG_PATH is set.
const DefaultPath = "configs/config.yaml"

type Config struct {
	Server struct {
		Address     string   `yaml:"address"`
		CORSOrigins []string `yaml:"cors_origins"`
		Debug       bool     `yaml:"debug"`
	} `yaml:"server"`

	EmailJS struct {
		Endpoint          string  `yaml:"endpoint"`
		ServiceID         string  `yaml:"service_id"`
		PublicKey         string  `yaml:"public_key"`
		PrivateKey        string  `yaml:"private_key"`
		BookingTemplateID string  `yaml:"booking_template_id"`
		ContactTemplateID string  `yaml:"contact_template_id"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
		RatePerSecond     float64 `yaml:"rate_per_second"`
		Burst             int     `yaml:"burst"`
		MaxRetries        *int    `yaml:"max_retries"`
	} `yaml:"emailjs"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Sheets struct {
		CredentialsFile string `yaml:"credentials_file"`
		SpreadsheetID   string `yaml:"spreadsheet_id"`
		Range           string `yaml:"range"`
	} `yaml:"sheets"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	RateLimit struct {
		Limit         int `yaml:"limit"`
		WindowSeconds int `yaml:"window_seconds"`
	} `yaml:"rate_limit"`

	Booking struct {
		Timezone             string `yaml:"timezone"`
		SubmitTimeoutSeconds int    `yaml:"submit_timeout_seconds"`
		SessionTTLMinutes    int    `yaml:"session_ttl_minutes"`
		StartTime            string `yaml:"start_time"`
		EndTime              string `yaml:"end_time"`
		SlotMinutes          int    `yaml:"slot_minutes"`
	} `yaml:"booking"`

	Journal struct {
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
		Backup        struct {
			Enabled       bool   `yaml:"enabled"`
			IntervalHours int    `yaml:"interval_hours"`
			Path          string `yaml:"path"`
			RetentionDays int    `yaml:"retention_days"`
		} `yaml:"backup"`
	} `yaml:"journal"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

// ResolvePath picks the config file: explicit flag, then FOLIO_CONFIG_PATH,
// then DefaultPath.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if p := os.Getenv("FOLIO_CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the YAML config at path. A .env file next to the working
// directory is loaded first so its variables can fill ${ENV_VAR}
// placeholders; variables already set in the environment win.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if path == "" {
		path = DefaultPath
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

	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "data/folio.db"
	}

	return &cfg, nil
}

func (c *Config) ServerAddress() string {
	if c.Server.Address == "" {
		return ":8080"
	}
	return c.Server.Address
}

func (c *Config) SubmitTimeout() time.Duration {
	if c.Booking.SubmitTimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.Booking.SubmitTimeoutSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	if c.Booking.SessionTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Booking.SessionTTLMinutes) * time.Minute
}

// Schedule returns the bookable day, falling back to DefaultSchedule for
// unset parts.
func (c *Config) Schedule() slots.ScheduleInfo {
	s := slots.DefaultSchedule()
	if c.Booking.StartTime != "" {
		s.StartTime = c.Booking.StartTime
	}
	if c.Booking.EndTime != "" {
		s.EndTime = c.Booking.EndTime
	}
	if c.Booking.SlotMinutes > 0 {
		s.SlotDuration = c.Booking.SlotMinutes
	}
	return s
}

// EmailJSConfig maps the emailjs section onto the relay client settings.
func (c *Config) EmailJSConfig() messaging.EmailJSConfig {
	retry := messaging.DefaultRetryConfig()
	if c.EmailJS.MaxRetries != nil {
		retry.MaxRetries = max(*c.EmailJS.MaxRetries, 0)
	}
	return messaging.EmailJSConfig{
		Endpoint:   c.EmailJS.Endpoint,
		ServiceID:  c.EmailJS.ServiceID,
		PublicKey:  c.EmailJS.PublicKey,
		PrivateKey: c.EmailJS.PrivateKey,
		Templates: map[messaging.Kind]string{
			messaging.KindBooking: c.EmailJS.BookingTemplateID,
			messaging.KindContact: c.EmailJS.ContactTemplateID,
		},
		Timeout:       time.Duration(c.EmailJS.TimeoutSeconds) * time.Second,
		RatePerSecond: c.EmailJS.RatePerSecond,
		Burst:         c.EmailJS.Burst,
		Retry:         retry,
	}
}

func (c *Config) RateLimitConfig() ratelimit.Config {
	return ratelimit.Config{
		Limit:  c.RateLimit.Limit,
		Window: time.Duration(c.RateLimit.WindowSeconds) * time.Second,
	}
}

func (c *Config) BackupConfig() journal.BackupConfig {
	b := c.Journal.Backup
	dir := b.Path
	if dir == "" {
		dir = filepath.Join(filepath.Dir(c.Journal.Path), "backups")
	}
	return journal.BackupConfig{
		Enabled:       b.Enabled,
		Dir:           dir,
		Interval:      time.Duration(b.IntervalHours) * time.Hour,
		RetentionDays: b.RetentionDays,
	}
}

func (c *Config) JournalRetention() time.Duration {
	if c.Journal.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.Journal.RetentionDays) * 24 * time.Hour
}

func (c *Config) HealthPort() int {
	if c.Monitoring.HealthCheckPort <= 0 {
		return 8081
	}
	return c.Monitoring.HealthCheckPort
}

func (c *Config) PrometheusPort() int {
	if c.Monitoring.PrometheusPort <= 0 {
		return 9090
	}
	return c.Monitoring.PrometheusPort
}
