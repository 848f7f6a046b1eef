package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/dead-stock/internal/cache"
	"github.com/Veraticus/dead-stock/internal/classification"
	"github.com/Veraticus/dead-stock/internal/cli"
	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/config"
	"github.com/Veraticus/dead-stock/internal/engine"
	"github.com/Veraticus/dead-stock/internal/export"
	"github.com/Veraticus/dead-stock/internal/ingest"
	"github.com/Veraticus/dead-stock/internal/marketplace"
	"github.com/Veraticus/dead-stock/internal/model"
	"github.com/Veraticus/dead-stock/internal/queue"
	"github.com/Veraticus/dead-stock/internal/service"
	"github.com/Veraticus/dead-stock/internal/source"
	"github.com/Veraticus/dead-stock/internal/storage"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// app is the wired set of components one command runs against.
type app struct {
	store    *storage.SQLiteStorage
	client   *marketplace.Client
	cache    *cache.Store
	queue    *queue.Manager
	scanner  *engine.Scanner
	exporter *export.Service
	history  service.HistoryLog
	closers  []func() error
	user     string
}

// appOptions selects which optional collaborators a command needs.
type appOptions struct {
	// marketplace requires a configured marketplace client.
	marketplace bool
	// cacheOptions are applied to the snapshot store.
	cacheOptions []cache.Option
}

// newApp wires storage, cache, marketplace, queue and export from v.
func newApp(ctx context.Context, v *viper.Viper, opts appOptions) (*app, error) {
	storageCfg, err := config.LoadStorageConfig(v)
	if err != nil {
		return nil, err
	}
	exportCfg, err := config.LoadExportConfig(v)
	if err != nil {
		return nil, err
	}

	a := &app{user: v.GetString("user")}
	if a.user == "" {
		return nil, fmt.Errorf("%w: user", common.ErrMissingConfig)
	}

	a.store, err = initStorage(ctx, storageCfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.store.Close)

	if err := a.initMarketplace(v, opts.marketplace); err != nil {
		a.Close()
		return nil, err
	}

	backend, err := a.cacheBackend(ctx, storageCfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = cache.NewStore(backend, opts.cacheOptions...)

	a.queue = queue.NewManager(exportCfg.DefaultTool)
	if err := a.queue.Restore(ctx, a.store, a.user); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to restore queue: %w", err)
	}

	scanCfg := engine.Config{
		Cache:      a.cache,
		Normalizer: ingest.NewNormalizer(classification.NewDefault()),
		Queue:      a.queue,
		KV:         a.store,
	}
	if a.client != nil {
		scanCfg.Source = listingSource(a.client, v.GetString("source.fallback_file"))
		scanCfg.Billing = a.client
	}
	a.scanner = engine.New(scanCfg)

	a.history, err = a.historyLog(storageCfg.HistoryBackend)
	if err != nil {
		a.Close()
		return nil, err
	}

	generator, err := a.generator(exportCfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.exporter = export.NewService(export.Config{
		Queue:     a.queue,
		History:   a.history,
		Generator: generator,
		Sink:      export.NewFileSink(exportCfg.Dir),
		KV:        a.store,
		User:      a.user,
	})

	return a, nil
}

// Close releases every opened resource.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

// loadPools re-applies the last filter to the last snapshot so the queue
// has listings to work with. The snapshot may be past the cache window;
// it never bills.
func (a *app) loadPools(ctx context.Context, v *viper.Viper) (*engine.ScanResult, error) {
	cfg, ok, err := a.scanner.LastFilter(ctx, a.user)
	if err != nil {
		slog.Warn("Ignoring saved filter", "error", err)
	}
	if !ok || err != nil {
		cfg = config.LoadFilterConfig(v)
	}

	result, err := a.scanner.Reload(ctx, a.user, cfg)
	if err != nil {
		return nil, cacheMissError(err)
	}
	return result, nil
}

// saveQueue persists queue membership and group settings.
func (a *app) saveQueue(ctx context.Context) error {
	if err := a.queue.Save(ctx, a.store, a.user); err != nil {
		return fmt.Errorf("failed to save queue: %w", err)
	}
	return nil
}

func (a *app) initMarketplace(v *viper.Viper, required bool) error {
	cfg, err := config.LoadMarketplaceConfig(v)
	if err != nil {
		if required {
			return common.NewUserError("Marketplace is not configured (set marketplace.base_url)", err)
		}
		slog.Debug("Marketplace not configured", "error", err)
		return nil
	}

	a.client, err = marketplace.NewClient(*cfg)
	return err
}

func (a *app) cacheBackend(ctx context.Context, cfg *config.Storage) (cache.Backend, error) {
	switch cfg.CacheBackend {
	case config.CacheMemory:
		return cache.NewMemoryBackend(), nil
	case config.CacheRedis:
		client, err := cache.DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return cache.NewRedisBackend(client), nil
	default:
		return cache.NewKVBackend(a.store), nil
	}
}

func (a *app) historyLog(backend string) (service.HistoryLog, error) {
	if backend != config.HistoryRemote {
		return a.store, nil
	}
	if a.client == nil {
		return nil, common.NewUserError("Remote history needs a configured marketplace", common.ErrMissingConfig)
	}
	return a.client, nil
}

func (a *app) generator(cfg *config.Export) (service.CSVGenerator, error) {
	if cfg.Generator != config.GeneratorRemote {
		return export.NewLocalGenerator(cfg.Format), nil
	}
	if a.client == nil {
		return nil, common.NewUserError("Remote export needs a configured marketplace", common.ErrMissingConfig)
	}
	return a.client, nil
}

func listingSource(client *marketplace.Client, fallbackFile string) service.ListingSource {
	if fallbackFile == "" {
		return client
	}
	return &source.Fallback{Primary: client, Secondary: source.NewFileSource(fallbackFile)}
}

// initStorage opens and migrates the database.
func initStorage(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// addFilterFlags registers the threshold flags shared by scan, candidates
// and view.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().Int("period-days", model.DefaultPeriodDays, "minimum days listed")
	cmd.Flags().Int("max-sales", model.DefaultMaxSales, "maximum total sales")
	cmd.Flags().Int("max-watches", model.DefaultMaxWatches, "maximum watchers")
	cmd.Flags().Int("max-impressions", model.DefaultMaxImpressions, "maximum impressions")
	cmd.Flags().Int("max-views", model.DefaultMaxViews, "maximum views")
	cmd.Flags().String("marketplace", model.FilterAll, "only this marketplace")
	cmd.Flags().String("supplier", model.FilterAll, "only this supplier")
}

// filterFromFlags overrides base with every filter flag set on cmd.
func filterFromFlags(cmd *cobra.Command, base model.FilterConfig) model.FilterConfig {
	flags := cmd.Flags()

	ints := map[string]*int{
		"period-days":     &base.PeriodDays,
		"max-sales":       &base.MaxSales,
		"max-watches":     &base.MaxWatches,
		"max-impressions": &base.MaxImpressions,
		"max-views":       &base.MaxViews,
	}
	for name, dst := range ints {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}
	if flags.Changed("marketplace") {
		base.MarketplaceFilter, _ = flags.GetString("marketplace")
	}
	if flags.Changed("supplier") {
		base.SupplierFilter, _ = flags.GetString("supplier")
	}
	return base
}

// printWarnings reports filter values that were coerced to defaults.
func printWarnings(cmd *cobra.Command, warnings []error) {
	for _, w := range warnings {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning(w.Error()))
	}
}

// cacheMissError explains a missing or expired scan.
func cacheMissError(err error) error {
	if errors.Is(err, common.ErrCacheMiss) {
		return common.NewUserError("No recent scan; run `deadstock scan` first", err)
	}
	return err
}
