package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aevon-lab/salescope/internal/analysis"
	"github.com/aevon-lab/salescope/internal/core/aggregation"
	corecfg "github.com/aevon-lab/salescope/internal/core/config"
	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/aevon-lab/salescope/internal/core/storage"
	"github.com/aevon-lab/salescope/internal/core/storage/postgres"
	"github.com/aevon-lab/salescope/internal/ingestion"
	"github.com/aevon-lab/salescope/internal/projection"
	"github.com/aevon-lab/salescope/internal/report"
	"github.com/aevon-lab/salescope/internal/server"
)

const (
	modeReport = "report"
	modeServe  = "serve"
	modeImport = "import"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	mode := flag.String("mode", modeReport, "Run mode: report | serve | import")
	importPath := flag.String("file", "", "CSV file to import (import mode, defaults to source.path)")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "mode", *mode, "source", cfg.Source.Type)

	engine, err := analysis.NewEngine(cfg.Analysis.EngineOptions())
	if err != nil {
		slog.Error("Invalid analysis options", "error", err)
		os.Exit(1)
	}

	// Signal handler cancels ctx; every mode stops on it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch strings.ToLower(*mode) {
	case modeReport:
		err = runReport(ctx, cfg, engine)
	case modeServe:
		err = runServe(ctx, cfg, engine)
	case modeImport:
		err = runImport(ctx, cfg, *importPath)
	default:
		err = fmt.Errorf("unknown mode %q (must be report, serve or import)", *mode)
	}
	if err != nil {
		slog.Error("Run failed", "mode", *mode, "error", err)
		os.Exit(1)
	}

	slog.Info("Shutdown complete")
}

// runReport loads the configured source once and writes every selected report format.
func runReport(ctx context.Context, cfg *corecfg.Config, engine *analysis.Engine) error {
	store, err := loadStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store.Len() == 0 {
		slog.Warn("[Report] Source has no records, writing an empty report", "error", storage.ErrEmptyDataset)
	}

	catalog, err := loadRules(ctx, cfg)
	if err != nil {
		return err
	}
	rules, err := catalog.List(ctx)
	if err != nil {
		return err
	}

	rep, err := report.Build(store, engine, rules...)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	formats, err := report.ParseFormats(cfg.Report.Formats)
	if err != nil {
		return err
	}
	written, err := report.WriteAll(cfg.Report.OutputDir, rep, formats)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	slog.Info("[Report] Report written",
		"run_id", rep.RunID,
		"records", store.Len(),
		"files", written)
	return nil
}

// runServe serves the query API and keeps the dataset fresh until ctx is cancelled.
func runServe(ctx context.Context, cfg *corecfg.Config, engine *analysis.Engine) error {
	source, closeFn, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	catalog, err := loadRules(ctx, cfg)
	if err != nil {
		return err
	}

	projectionSvc := projection.NewService(engine)
	projectionSvc.UseRules(catalog)
	reloader := projection.NewReloader(cfg.Server.ReloadEvery(), source, projectionSvc)

	checks := map[string]server.HealthChecker{"dataset": projectionSvc}
	if db, ok := source.(*postgres.Adapter); ok {
		checks["database"] = db
	}

	srv := server.New(cfg.Server.Addr(), cfg.Server.Mode, checks)
	projectionSvc.RegisterRoutes(srv.Engine)

	// Uploads need somewhere to persist to; a CSV file source is read-only.
	if store, ok := source.(storage.RecordStore); ok {
		loader := ingestion.NewLoader(cfg.Source.DelimiterRune())
		ingestionSvc := ingestion.NewService(loader, store, cfg.Server.MaxBodySizeMB)
		ingestionSvc.OnImport(reloader.Trigger)
		ingestionSvc.RegisterRoutes(srv.Engine)
	} else {
		slog.Info("Record upload disabled for read-only source", "source", cfg.Source.Type)
	}

	go func() {
		if err := reloader.Start(ctx); err != nil {
			slog.Error("Reloader stopped with error", "error", err)
		}
	}()

	// HTTP server blocks until ctx is cancelled.
	return srv.Run(ctx)
}

// runImport copies a CSV file into Postgres as a single batch.
func runImport(ctx context.Context, cfg *corecfg.Config, path string) error {
	if path == "" {
		path = cfg.Source.Path
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required for import")
	}

	loader := ingestion.NewLoader(cfg.Source.DelimiterRune())
	records, err := loader.DecodeFile(ctx, path)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%s: %w", path, storage.ErrEmptyDataset)
	}

	adapter, err := openPostgres(cfg)
	if err != nil {
		return err
	}
	defer adapter.Close()

	batchID, err := adapter.SaveRecords(ctx, records)
	if err != nil {
		return err
	}

	total, err := adapter.CountRecords(ctx)
	if err != nil {
		return err
	}
	slog.Info("[Ingestion] Import complete",
		"path", path,
		"batch_id", batchID,
		"records", len(records),
		"total_records", total)
	return nil
}

// loadRules loads the reduction rule catalog from the configured directory.
func loadRules(ctx context.Context, cfg *corecfg.Config) (*aggregation.FileSystemRuleRepository, error) {
	repo, err := aggregation.NewFileSystemRuleRepository(cfg.Analysis.RulesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load reduction rules: %w", err)
	}
	rules, _ := repo.List(ctx)
	slog.Info("[Analysis] Reduction rules loaded", "dir", cfg.Analysis.RulesDir, "rules", len(rules))
	return repo, nil
}

// loadStore reads the whole configured source into a store.
func loadStore(ctx context.Context, cfg *corecfg.Config) (*sales.Store, error) {
	if cfg.Source.Type != corecfg.SourcePostgres {
		return ingestion.NewLoader(cfg.Source.DelimiterRune()).LoadFile(ctx, cfg.Source.Path)
	}

	adapter, err := openPostgres(cfg)
	if err != nil {
		return nil, err
	}
	defer adapter.Close()

	records, err := adapter.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	return sales.NewStore(records), nil
}

// openSource builds the configured record source and a close function for it.
func openSource(cfg *corecfg.Config) (storage.RecordSource, func(), error) {
	switch cfg.Source.Type {
	case corecfg.SourcePostgres:
		adapter, err := openPostgres(cfg)
		if err != nil {
			return nil, nil, err
		}
		return adapter, func() { adapter.Close() }, nil
	default:
		loader := ingestion.NewLoader(cfg.Source.DelimiterRune())
		return ingestion.NewFileSource(cfg.Source.Path, loader), func() {}, nil
	}
}

// openPostgres connects, runs migrations and prepares the adapter.
func openPostgres(cfg *corecfg.Config) (*postgres.Adapter, error) {
	adapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.AutoMigrate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return adapter, nil
}
