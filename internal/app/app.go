// Package app wires configuration, storage, and services into one unit.
package app

import (
	"context"

	"github.com/meridianwealth/ledger/internal/common"
	"github.com/meridianwealth/ledger/internal/interfaces"
	"github.com/meridianwealth/ledger/internal/services/ledger"
	"github.com/meridianwealth/ledger/internal/storage"
)

// App holds the initialized application components.
type App struct {
	Config  *common.Config
	Logger  *common.Logger
	Storage interfaces.StorageManager
	Ledger  interfaces.LedgerService
}

// NewApp loads configuration and initializes storage and services.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := common.NewLogger(cfg.Logging.Level)

	store, err := storage.NewManager(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}

	ledgerService := ledger.NewService(store, logger, cfg.Ledger)

	logger.Info().
		Str("environment", cfg.Environment).
		Str("storage", cfg.Storage.Driver).
		Str("settlement_calendar", cfg.Ledger.SettlementCalendar).
		Msg("Application initialized")

	return &App{
		Config:  cfg,
		Logger:  logger,
		Storage: store,
		Ledger:  ledgerService,
	}, nil
}

// Close releases application resources.
func (a *App) Close() {
	if err := a.Storage.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("Failed to close storage")
	}
}
