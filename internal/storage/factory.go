// Package storage selects the repository backend from configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/meridianwealth/ledger/internal/common"
	"github.com/meridianwealth/ledger/internal/interfaces"
	"github.com/meridianwealth/ledger/internal/storage/memory"
	"github.com/meridianwealth/ledger/internal/storage/postgres"
)

// Driver type constants.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// NewManager creates a storage manager based on the configuration.
// Supported drivers: "postgres", "memory".
func NewManager(ctx context.Context, logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	driver := config.Storage.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverPostgres:
		return postgres.NewManager(ctx, logger, &config.Storage.Postgres)

	case DriverMemory:
		return memory.NewManager(logger), nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %s (supported: postgres, memory)", driver)
	}
}
