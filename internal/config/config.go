package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"shareit/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Fixtures   FixturesConfig   `yaml:"fixtures"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Address         string `yaml:"address"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	PoolSize        int    `yaml:"pool_size"`
	ConnectAttempts int    `yaml:"connect_attempts"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP            APIHTTPConfig      `yaml:"http"`
	UserHeader      string             `yaml:"user_header"`
	DefaultPageSize int                `yaml:"default_page_size"`
	RateLimit       APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port            int `yaml:"port"`
	ShutdownTimeout int `yaml:"shutdown_timeout"`
}

// APIRateLimitConfig ограничивает число запросов одного пользователя за Window секунд.
type APIRateLimitConfig struct {
	Disabled bool `yaml:"disabled"`
	Requests int  `yaml:"requests"`
	Window   int  `yaml:"window"`
}

func (c APIRateLimitConfig) WindowDuration() time.Duration {
	return time.Duration(c.Window) * time.Second
}

type FixturesConfig struct {
	Path string `yaml:"path"`
}

// Fixtures is the seed data file: users first, then the items they own.
type Fixtures struct {
	Users []models.User `yaml:"users"`
	Items []models.Item `yaml:"items"`
}

func Load(configPath string) (*Config, error) {
	// .env не обязателен
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.API.HTTP.Port <= 0 || c.API.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.API.HTTP.Port)
	}
	if c.API.UserHeader == "" {
		return errors.New("api user header is required")
	}
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("default page size must be positive, got %d", c.API.DefaultPageSize)
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return errors.New("redis address is required when redis is enabled")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "shareit"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.HTTP.ShutdownTimeout == 0 {
		c.API.HTTP.ShutdownTimeout = 10
	}
	if c.API.UserHeader == "" {
		c.API.UserHeader = "X-Sharer-User-Id"
	}
	if c.API.DefaultPageSize == 0 {
		c.API.DefaultPageSize = models.DefaultPageSize
	}
	if c.API.RateLimit.Requests == 0 {
		c.API.RateLimit.Requests = models.DefaultRateLimitRequests
	}
	if c.API.RateLimit.Window == 0 {
		c.API.RateLimit.Window = models.DefaultRateLimitWindow
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.ConnectAttempts == 0 {
		c.Redis.ConnectAttempts = 3
	}
}

// LoadFixtures reads and validates the seed file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	if err := ValidateFixtures(&fx); err != nil {
		return nil, fmt.Errorf("fixtures validation failed: %w", err)
	}
	return &fx, nil
}

var validate = validator.New()

func ValidateFixtures(fx *Fixtures) error {
	userIDs := make(map[int64]bool)
	emails := make(map[string]bool)
	for _, u := range fx.Users {
		if u.ID <= 0 {
			return fmt.Errorf("user '%s' has invalid ID %d", u.Name, u.ID)
		}
		if userIDs[u.ID] {
			return fmt.Errorf("duplicate user ID found: %d", u.ID)
		}
		if err := validate.Var(u.Email, "required,email"); err != nil {
			return fmt.Errorf("user %d has invalid email %q", u.ID, u.Email)
		}
		if emails[u.Email] {
			return fmt.Errorf("user %d has duplicate email %q", u.ID, u.Email)
		}
		userIDs[u.ID] = true
		emails[u.Email] = true
	}
	return ValidateItems(fx.Items, userIDs)
}

func ValidateItems(items []models.Item, owners map[int64]bool) error {
	itemIDs := make(map[int64]bool)
	for _, item := range items {
		if item.ID <= 0 {
			return fmt.Errorf("item '%s' has invalid ID %d", item.Name, item.ID)
		}
		if itemIDs[item.ID] {
			return fmt.Errorf("duplicate item ID found: %d", item.ID)
		}
		if !owners[item.OwnerID] {
			return fmt.Errorf("item %d references unknown owner %d", item.ID, item.OwnerID)
		}
		itemIDs[item.ID] = true
	}
	return nil
}
