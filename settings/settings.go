package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DefaultTicketUrl  = "https://www.f-list.net/json/getApiTicket.php"
	DefaultProfileUrl = "https://www.f-list.net/json/api/character-info.php"
)

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(c)
}

// LoadConfig loads the configuration from the given toml file. Credentials may
// be supplied or overridden through the environment or a .env file next to it.
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		absPath = configPath
	}

	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", absPath, err)
	}

	if err := loadEnvironment(filepath.Join(filepath.Dir(absPath), ".env"), &config); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// loadEnvironment reads an optional .env file and applies FCHAT_* overrides
func loadEnvironment(dotenv string, config *Config) error {
	if _, err := os.Stat(dotenv); err == nil {
		if err := godotenv.Load(dotenv); err != nil {
			return fmt.Errorf("error parsing %s: %w", dotenv, err)
		}
	}

	if err := env.Parse(&config.Fchat); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

func applyDefaults(config *Config) {
	if config.Fchat.TriggerPrefix == "" {
		config.Fchat.TriggerPrefix = "."
	}
	if config.Fchat.RedirectOperator == "" {
		config.Fchat.RedirectOperator = "=>"
	}
	if config.Fchat.TicketUrl == "" {
		config.Fchat.TicketUrl = DefaultTicketUrl
	}
	if config.Fchat.ProfileUrl == "" {
		config.Fchat.ProfileUrl = DefaultProfileUrl
	}
	if config.Fchat.ReconnectSeconds == 0 {
		config.Fchat.ReconnectSeconds = 10
	}
	if config.Moderation.DefaultResponse == "" {
		config.Moderation.DefaultResponse = "Alert"
	}
	if config.Moderation.ProfileRefreshMinutes == 0 {
		config.Moderation.ProfileRefreshMinutes = 60
	}
	if config.Moderation.LogPath == "" {
		config.Moderation.LogPath = "logs"
	}
	if config.Storage.Path == "" {
		config.Storage.Path = "cogito.db"
	}
	if config.Storage.SaveSchedule == "" {
		config.Storage.SaveSchedule = "@every 10m"
	}
	if config.Storage.MergeSchedule == "" {
		config.Storage.MergeSchedule = "@daily"
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
}

// Url returns the websocket address of the chat server
func (f Fchat) Url() string {
	scheme := "ws"
	if f.Secure {
		scheme = "wss"
	}
	return scheme + "://" + f.Server + ":" + strconv.Itoa(f.Port)
}

func (f Fchat) ReconnectDelay() time.Duration {
	return time.Duration(f.ReconnectSeconds) * time.Second
}

func (m Moderation) ProfileRefresh() time.Duration {
	return time.Duration(m.ProfileRefreshMinutes) * time.Minute
}
