package migrate

import (
	"context"
	"fmt"

	"github.com/mipastel/pedidos-backend/pkg/config"
	"github.com/mipastel/pedidos-backend/pkg/db"
	"github.com/mipastel/pedidos-backend/pkg/db/models"
	"github.com/mipastel/pedidos-backend/pkg/logger"
)

// Schema returns the models owned by a target database.
func Schema(target Target) []any {
	switch target {
	case TargetNormales:
		return []any{&models.PriceRow{}, &models.StockOrder{}}
	case TargetClientes:
		return []any{&models.CustomOrder{}}
	}
	return nil
}

// Bootstrap brings one database to the current schema. Postgres runs the
// embedded goose migrations; SQLite (dev and tests) uses AutoMigrate.
func Bootstrap(ctx context.Context, target Target, client *db.Client) error {
	if client == nil {
		return fmt.Errorf("%s: db client is required", target)
	}
	if client.Driver() == config.DriverSQLite {
		if err := client.DB().WithContext(ctx).AutoMigrate(Schema(target)...); err != nil {
			return fmt.Errorf("automigrate %s: %w", target, err)
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	return RunEmbedded(ctx, sqlDB, target, "up")
}

// MaybeRun migrates both databases at startup when AUTO_MIGRATE is enabled.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, normales, clientes *db.Client) error {
	if !cfg.App.AutoMigrate {
		return nil
	}

	clients := map[Target]*db.Client{TargetNormales: normales, TargetClientes: clientes}
	for _, target := range Targets() {
		client := clients[target]
		tctx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "target": string(target), "driver": cfg.DB.Driver})
		logg.Info(tctx, "running schema migrations (auto-run)")
		if err := Bootstrap(ctx, target, client); err != nil {
			return err
		}
		logg.Info(tctx, "schema migrations completed")
	}
	return nil
}
