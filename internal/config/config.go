package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP struct {
		Addr               string   `yaml:"addr"`
		PublicURL          string   `yaml:"public_url"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		SessionTTLMinutes  int      `yaml:"session_ttl_minutes"`
		RatePerSecond      float64  `yaml:"rate_per_second"`
		Burst              int      `yaml:"burst"`
		SecureCookies      bool     `yaml:"secure_cookies"`
	} `yaml:"http"`

	API struct {
		BaseURL         string   `yaml:"base_url"`
		TimeoutSeconds  int      `yaml:"timeout_seconds"`
		ForwardCookies  []string `yaml:"forward_cookies"`
		CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
		LoginURL        string   `yaml:"login_url"`
		LogoutURL       string   `yaml:"logout_url"`
	} `yaml:"api"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		Timezone               string `yaml:"timezone"`
		MaxAdvanceDays         int    `yaml:"max_advance_days"`
		RefreshIntervalSeconds int    `yaml:"refresh_interval_seconds"`
	} `yaml:"booking"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	RoomsConfigPath string `yaml:"rooms_config_path"`
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

	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":3000"
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8080/api"
	}
	if len(cfg.API.ForwardCookies) == 0 {
		cfg.API.ForwardCookies = []string{"JSESSIONID"}
	}
	if cfg.RoomsConfigPath == "" {
		cfg.RoomsConfigPath = "configs/rooms.yaml"
	}

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url: must be an http(s) URL, got '%s'", c.API.BaseURL)
	}
	if c.API.LoginURL == "" {
		return fmt.Errorf("api.login_url is required")
	}
	if c.Booking.MaxAdvanceDays < 0 {
		return fmt.Errorf("booking.max_advance_days cannot be negative")
	}
	if c.HTTP.RatePerSecond < 0 {
		return fmt.Errorf("http.rate_per_second cannot be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Logging.Level != "" {
		if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
	}
	return nil
}

// Location returns the zone booking dates are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	name := c.Booking.Timezone
	if name == "" {
		name = "Asia/Seoul"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("booking.timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) MaxAdvanceDays() int {
	if c.Booking.MaxAdvanceDays <= 0 {
		return 6
	}
	return c.Booking.MaxAdvanceDays
}

func (c *Config) RefreshInterval() time.Duration {
	if c.Booking.RefreshIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Booking.RefreshIntervalSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	if c.HTTP.SessionTTLMinutes <= 0 {
		return 8 * time.Hour
	}
	return time.Duration(c.HTTP.SessionTTLMinutes) * time.Minute
}

func (c *Config) RateLimit() (float64, int) {
	rps, burst := c.HTTP.RatePerSecond, c.HTTP.Burst
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return rps, burst
}

func (c *Config) APITimeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// CacheTTL returns zero when caching is disabled.
func (c *Config) CacheTTL() time.Duration {
	if c.API.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.API.CacheTTLSeconds) * time.Second
}

func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Logging.Level)
	if err != nil || c.Logging.Level == "" {
		return zerolog.InfoLevel
	}
	return level
}
