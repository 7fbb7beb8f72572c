package components

import (
	"context"
	"log/slog"

	"handicraft-store/internal/infra/db"
	"handicraft-store/internal/infra/memstore"
	"handicraft-store/internal/infra/repository"
	"handicraft-store/internal/infra/uow"
	"handicraft-store/internal/pkg/config"
	"handicraft-store/internal/pkg/errs"
	"handicraft-store/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewPersistence,
	),
)

type Persistence struct {
	fx.Out

	UnitOfWork shared.UnitOfWork
	Catalog    shared.Catalog
}

var errUnknownStoreDriver = errs.New("unknown STORE_DRIVER")

func NewPersistence(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (Persistence, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store := memstore.NewStore()
		for _, p := range memstore.DemoProducts() {
			store.AddProduct(p)
		}
		logger.Info("using in-memory store", "products", len(memstore.DemoProducts()))
		return Persistence{UnitOfWork: store, Catalog: store}, nil

	case config.StoreDriverPostgres:
		pool, err := NewDB(lc, cfg, logger)
		if err != nil {
			return Persistence{}, err
		}
		return Persistence{
			UnitOfWork: uow.NewPostgresUoW(pool, logger),
			Catalog:    repository.NewCatalogRepository(pool, logger),
		}, nil

	default:
		return Persistence{}, errs.Wrapf(errUnknownStoreDriver, "driver %q", cfg.Store.Driver)
	}
}

// NewDB opens the pool and, when enabled, applies pending migrations first.
func NewDB(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.Store.Migrate {
		if err := db.Migrate(cfg.DB, logger); err != nil {
			return nil, err
		}
	}

	pool, cleanup, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})

	return pool, nil
}
