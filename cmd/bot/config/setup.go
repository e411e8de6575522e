package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/example/warden/pkg/logging"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Parse reads the configuration from the environment. A local .env file is
// layered in first when present. The process exits when a required value is
// missing.
func Parse(l *slog.Logger) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.Warn("Error loading .env file", slog.String(logging.KeyError, err.Error()))
	}

	if envBT := os.Getenv(EnvBotToken); envBT != "" {
		l.Debug("Found bot token in environment", slog.String("key", EnvBotToken))
		BotToken = envBT
	}

	if envAppId := os.Getenv(EnvApplicationId); envAppId != "" {
		l.Debug("Found application ID in environment", slog.String("key", EnvApplicationId))
		ApplicationId = envAppId
	}

	if envDataFile := os.Getenv(EnvDataFile); envDataFile != "" {
		l.Debug("Found data file in environment", slog.String("key", EnvDataFile))
		DataFile = envDataFile
	} else {
		// Default to a file next to the binary if not provided.
		DataFile = "warden.json"
		l.Info("No data file provided in environment, defaulting to warden.json", slog.String("key", EnvDataFile))
	}

	if envBotConfig := os.Getenv(EnvBotConfigFile); envBotConfig != "" {
		l.Debug("Found bot config file in environment", slog.String("key", EnvBotConfigFile))
		BotConfigFile = envBotConfig
	}

	if envMessages := os.Getenv(EnvMessagesFile); envMessages != "" {
		l.Debug("Found messages file in environment", slog.String("key", EnvMessagesFile))
		MessagesFile = envMessages
	}

	if envMonitoringPort := os.Getenv(EnvMonitoringPort); envMonitoringPort != "" {
		l.Debug("Found monitoring port in environment", slog.String("key", EnvMonitoringPort))
		MonitoringPort = envMonitoringPort
	} else {
		// Default to 8080 if not provided.
		MonitoringPort = "8080"
		l.Info("No monitoring port provided in environment, defaulting to 8080", slog.String("key", EnvMonitoringPort))
	}

	if err := loadCategories(BotConfigFile); err != nil {
		l.Error("Error loading bot configuration", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	}

	if BotToken != "" &&
		ApplicationId != "" {

		// All required environment variables have been provided.
		l.Debug("All required environment variables have been provided")
		return
	}

	l.Error("Not all required environment variables have been provided", slog.String(logging.KeyError, "Incomplete configuration"))
	os.Exit(1)
}

// botConfig is the shape of the bot configuration file.
type botConfig struct {
	Categories []TicketCategory `yaml:"categories"`
}

// loadCategories reads the ticket categories from the bot configuration
// file. A missing file leaves a single default category in place.
func loadCategories(path string) error {
	Categories = []TicketCategory{
		{
			ID:   "general",
			Name: "General",
			Info: "Describe your issue and someone will be with you shortly.",
		},
	}
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading bot config file %s: %w", path, err)
	}

	cfg := new(botConfig)
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("error decoding bot config file %s: %w", path, err)
	}
	if len(cfg.Categories) > 0 {
		Categories = cfg.Categories
	}
	return nil
}
