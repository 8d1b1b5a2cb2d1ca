package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/config"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/database"
	infralogger "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/retry"
)

// DatabaseComponents holds database connection and repositories.
type DatabaseComponents struct {
	DB            *sqlx.DB
	SelectionRepo *database.SelectionRepository
}

// Close closes the database connection.
func (d *DatabaseComponents) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

// SetupDatabase connects the selection store. It returns nil components when
// the database is disabled, or unreachable and not required.
func SetupDatabase(ctx context.Context, cfg *config.Config, log infralogger.Logger) (*DatabaseComponents, error) {
	if !cfg.Database.Enabled {
		log.Info("Selection store disabled")
		return nil, nil //nolint:nilnil // disabled is not an error
	}

	dbConfig := cfg.Database.DatabaseSettings()
	log.Info("Connecting to selection store",
		infralogger.String("driver", dbConfig.Driver),
		infralogger.String("host", dbConfig.Host),
		infralogger.String("database", dbConfig.DBName),
		infralogger.String("path", dbConfig.Path),
	)

	if dsn, dsnErr := dbConfig.DSN(); dsnErr == nil {
		log.Debug("Database DSN", infralogger.String("dsn", database.Redact(dsn)))
	}

	db, err := database.Open(ctx, dbConfig, retry.DefaultConfig())
	if err == nil && cfg.Database.AutoCreateSchema {
		if err = database.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
		}
	}
	if err != nil {
		if cfg.Database.Required {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Warn("Selection store unavailable, selection endpoints disabled", infralogger.Error(err))
		return nil, nil //nolint:nilnil // optional dependency
	}

	log.Info("Database connected successfully")

	return &DatabaseComponents{
		DB:            db,
		SelectionRepo: database.NewSelectionRepository(db),
	}, nil
}
