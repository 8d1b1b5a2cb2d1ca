package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/config"
	infraconfig "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/config"
	infralogger "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/logger"
)

// LoadConfig loads CONFIG_PATH (default config.yml). A missing file falls back
// to defaults plus environment overrides; any other failure is returned.
func LoadConfig() (cfg *config.Config, usedDefaults bool, err error) {
	configPath := infraconfig.GetConfigPath("config.yml")

	cfg, err = config.Load(configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("load config: %w", err)
		}
		cfg = config.Default()
		usedDefaults = true
	}

	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, usedDefaults, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, usedDefaults, nil
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config) (infralogger.Logger, error) {
	log, err := infralogger.New(infralogger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		infralogger.String("service", cfg.Service.Name),
		infralogger.String("version", cfg.Service.Version),
	), nil
}
