// Package bootstrap performs one-time setup of a fresh store.
package bootstrap

import (
	"context"
	"fmt"

	"bjt/internal/core"
	"bjt/internal/ledger"
	applog "bjt/internal/log"
)

// SeedAssets inserts the default fleet into catalog. Assets already
// present are left untouched, so running it on every start is safe.
func SeedAssets(ctx context.Context, catalog ledger.AssetCatalog, logger *applog.Logger) error {
	if logger == nil {
		logger = applog.Default(applog.ComponentBootstrap)
	}

	defaults := core.DefaultCatalog().All()
	if err := catalog.SeedAssets(ctx, defaults); err != nil {
		return fmt.Errorf("seed default assets: %w", err)
	}

	assets, err := catalog.ListAssets(ctx)
	if err != nil {
		return fmt.Errorf("list assets after seeding: %w", err)
	}

	logger.InfoContext(ctx, "Asset catalog ready",
		applog.FieldOperation, applog.OpSeed,
		"defaults", len(defaults),
		"total", len(assets))
	return nil
}

// LoadCatalog returns the stored fleet, falling back to the built-in
// catalog when the store has none.
func LoadCatalog(ctx context.Context, catalog ledger.AssetCatalog) (core.Catalog, error) {
	assets, err := catalog.ListAssets(ctx)
	if err != nil {
		return core.Catalog{}, fmt.Errorf("list assets: %w", err)
	}
	if len(assets) == 0 {
		return core.DefaultCatalog(), nil
	}
	return core.CatalogOf(assets), nil
}
