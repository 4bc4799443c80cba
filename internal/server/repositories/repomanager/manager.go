// Package repomanager owns the long-lived store handle and vends the
// repositories bound to it. One manager exists per process; repositories
// receive the handle explicitly.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/samber/oops"
)

type RepositoryManager interface {
	// Users returns the user store.
	Users() users.Repository

	// RunMigrations brings the schema up to date (tables, unique indexes).
	RunMigrations(ctx context.Context) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store handle.
	Close(ctx context.Context) error
}

// Open builds the manager selected by cfg.StoreDriver. It does not contact
// the store; call Ping and RunMigrations afterwards.
func Open(cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return NewMongoRepositoryManager(cfg.MongoURI, cfg.MongoDatabase)
	case config.DriverPostgres:
		return NewPostgresRepositoryManager(cfg.DatabaseDSN)
	case config.DriverMemory:
		return NewInMemoryRepositoryManager(), nil
	default:
		return nil, oops.Code("STORE_DRIVER_UNKNOWN").With("driver", cfg.StoreDriver).Errorf("unknown store driver")
	}
}
