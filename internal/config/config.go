package config

import (
	"fmt"
	"os"
	"regexp"
	"time"
	_ "time/tzdata"

	"attendbot/internal/directory"
	"attendbot/internal/models"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const defaultPath = "config.yaml"

type Config struct {
	Discord struct {
		Token       string `yaml:"token" validate:"required"`
		ClientID    string `yaml:"client_id" validate:"required"`
		GuildID     string `yaml:"guild_id"`
		Permissions int64  `yaml:"-"`
	} `yaml:"discord"`

	Log struct {
		Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`

	// Timezone decides where "today" starts and ends on the dashboard.
	Timezone string `yaml:"timezone"`

	Users []models.User `yaml:"users" validate:"dive"`
}

// Load reads the file named by CONFIG_PATH, or config.yaml.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultPath
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(data)
}

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Parse expands ${VAR} placeholders from the environment, decodes and validates.
// Unset variables expand to the empty string, so a missing token fails validation.
func Parse(data []byte) (*Config, error) {
	// Replace environment variables in the YAML content
	content := placeholder.ReplaceAllStringFunc(string(data), func(m string) string {
		return os.Getenv(placeholder.FindStringSubmatch(m)[1])
	})

	var cfg Config
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
	if len(cfg.Users) == 0 {
		cfg.Users = directory.Demo()
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	return &cfg, nil
}

// Location returns the configured timezone. Parse has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
