package app

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/hdpredict/internal/events"
)

type Config struct {
	Server struct {
		Port string `toml:"port"`
	} `toml:"server"`

	Model struct {
		Path string `toml:"path"`
	} `toml:"model"`

	Database struct {
		DSN string `toml:"dsn"`
	} `toml:"database"`

	Events struct {
		RedisURL string `toml:"redis_url"`
		Stream   string `toml:"stream"`
	} `toml:"events"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :8000")
	}
	if config.Model.Path == "" {
		return nil, fmt.Errorf("Model path is not specified in config")
	}
	if config.Database.DSN == "" {
		return nil, fmt.Errorf("Database DSN is not specified in config")
	}
	if config.Events.Stream == "" {
		config.Events.Stream = events.DefaultStream
	}

	logger.Debug.Printf("Loaded config: model=%s events_enabled=%t", config.Model.Path, config.Events.RedisURL != "")

	return &config, nil
}
