package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"credit-dashboard/api"
	"credit-dashboard/config"
	"credit-dashboard/metrics"
	"credit-dashboard/services"
	"credit-dashboard/snapshot"
	"credit-dashboard/storage"
	"credit-dashboard/utils"
)

func runDDL(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	pw, err := storage.NewPostgresWriter(ctx, cfg.DSN(), cfg.PostgresTable, logger)
	if err != nil {
		return err
	}
	defer pw.Close()

	return pw.Migrate(ctx)
}

func runLoadCSV(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("load-csv", flag.ExitOnError)
	file := fs.String("file", cfg.CSVPath, "CSV file to load")
	_ = fs.Parse(args)

	raw, err := storage.Load(ctx, storage.NewCSVSource(*file), logger)
	if err != nil {
		return err
	}

	pw, err := storage.NewPostgresWriter(ctx, cfg.DSN(), cfg.PostgresTable, logger)
	if err != nil {
		return err
	}
	defer pw.Close()

	n, err := pw.Write(ctx, raw)
	if err != nil {
		return err
	}
	logger.Info("Loaded %d rows from %s into PostgreSQL (table: %s)", n, *file, cfg.PostgresTable)
	return nil
}

func runMirror(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	src, err := storage.NewPostgresSource(ctx, cfg.DSN(), cfg.PostgresTable, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	raw, err := storage.Load(ctx, src, logger)
	if err != nil {
		return err
	}

	store, err := storage.OpenSQLiteStore(cfg.SQLitePath, cfg.SQLiteTable, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Write(ctx, raw); err != nil {
		return err
	}
	logger.Info("Mirrored %s → %s", src.Name(), store.Name())
	return nil
}

func runReport(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	source := fs.String("source", "postgres", "data source: postgres, sqlite or csv")
	_ = fs.Parse(args)

	ds, err := loadDataset(ctx, cfg, logger, *source)
	if err != nil {
		return err
	}

	insights := services.NewInsightService(logger)
	insights.Print(insights.Generate(ds))
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	source := fs.String("source", "postgres", "data source: postgres, sqlite or csv")
	addr := fs.String("addr", cfg.HTTPAddr, "listen address")
	_ = fs.Parse(args)

	ds, err := loadDataset(ctx, cfg, logger, *source)
	if err != nil {
		return err
	}
	views, err := services.NewViewRegistry(services.DefaultViews(viewCaps(cfg))...)
	if err != nil {
		return err
	}

	srv := api.NewServer(ds, views, metrics.New(), logger, api.Options{AllowedOrigins: cfg.HTTPAllowedOrigins})
	httpSrv := api.NewHTTPServer(*addr, srv.Routes(), cfg.HTTPReadTimeout, cfg.HTTPWriteTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("[serve] Dashboard listening on %s (%d rows)", *addr, ds.Len())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("[serve] Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runExport(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	source := fs.String("source", "postgres", "data source: postgres, sqlite or csv")
	occupation := fs.String("occupation", "", "occupation to export")
	ageMin := fs.Int("age-min", -1, "minimum age (default: dataset minimum)")
	ageMax := fs.Int("age-max", -1, "maximum age (default: dataset maximum)")
	format := fs.String("format", "csv", "output format: csv or xlsx")
	out := fs.String("out", "", "output file (default: ./output/<occupation>.<format>)")
	_ = fs.Parse(args)

	if *format != "csv" && *format != "xlsx" {
		return fmt.Errorf("export: unknown format %q", *format)
	}
	if *out == "" {
		name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(*occupation), " ", "_"))
		if name == "" {
			name = "customers"
		}
		*out = fmt.Sprintf("./output/%s.%s", name, *format)
	}

	ds, err := loadDataset(ctx, cfg, logger, *source)
	if err != nil {
		return err
	}

	ages := ds.AgeBounds()
	if *ageMin >= 0 {
		ages.Min = *ageMin
	}
	if *ageMax >= 0 {
		ages.Max = *ageMax
	}
	v := ds.Filter(*occupation, ages)
	if v.Empty() {
		logger.Warn("[export] No rows for %q aged %d-%d (%s)", *occupation, ages.Min, ages.Max, v.Reason)
	}
	header, rows, numeric := ds.Export(v)

	var w storage.ExportWriter
	if *format == "xlsx" {
		w, err = storage.NewXLSXWriter(*out, numeric)
	} else {
		w, err = storage.NewCSVWriter(*out)
	}
	if err != nil {
		return err
	}
	if err := w.WriteTable(header, rows); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	logger.Info("Exported %d rows → %s", len(rows), *out)
	return nil
}

func runSnapshot(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	base := fs.String("url", cfg.DashboardURL, "running dashboard base URL")
	occupation := fs.String("occupation", "", "occupation to select (default: first)")
	ageMin := fs.Int("age-min", 0, "minimum age (default: dataset minimum)")
	ageMax := fs.Int("age-max", 0, "maximum age (default: dataset maximum)")
	views := fs.String("views", "", "comma-separated view names (default: all)")
	_ = fs.Parse(args)

	opts := snapshot.Options{
		BaseURL:        *base,
		OutputDir:      cfg.SnapshotDir,
		Occupation:     *occupation,
		AgeMin:         *ageMin,
		AgeMax:         *ageMax,
		MaxConcurrency: cfg.MaxConcurrency,
		RateLimitMs:    cfg.RateLimitMs,
		MaxRetries:     cfg.MaxRetries,
		PageTimeout:    cfg.PageTimeout,
		ChromeBin:      cfg.ChromeBin,
	}
	if *views != "" {
		for _, v := range strings.Split(*views, ",") {
			opts.Views = append(opts.Views, strings.TrimSpace(v))
		}
	}

	m, err := snapshot.New(opts, logger, nil).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("  Done. %d snapshots → %s\n\n", len(m.Captures), m.Dir)
	return nil
}

// loadDataset opens the named source, fetches it and normalizes the rows.
func loadDataset(ctx context.Context, cfg *config.Config, logger *utils.Logger, source string) (*services.Dataset, error) {
	src, err := openSource(ctx, cfg, logger, source)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	raw, err := storage.Load(ctx, src, logger)
	if err != nil {
		return nil, err
	}

	ds, _, err := services.NewCleaner(cleanOptions(cfg), logger).Normalize(raw)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func openSource(ctx context.Context, cfg *config.Config, logger *utils.Logger, name string) (storage.Source, error) {
	switch name {
	case "postgres":
		src, err := storage.NewPostgresSource(ctx, cfg.DSN(), cfg.PostgresTable, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	case "sqlite":
		store, err := storage.OpenSQLiteStore(cfg.SQLitePath, cfg.SQLiteTable, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "csv":
		return storage.NewCSVSource(cfg.CSVPath), nil
	default:
		return nil, fmt.Errorf("unknown source %q (want postgres, sqlite or csv)", name)
	}
}

func cleanOptions(cfg *config.Config) services.CleanOptions {
	limits := services.RuleLimits{
		AgeMin:           cfg.CleanAgeMin,
		AgeMax:           cfg.CleanAgeMax,
		IncomeMax:        cfg.CleanIncomeMax,
		BankAccountsMax:  cfg.CleanBankAccountsMax,
		CreditCardsMax:   cfg.CleanCreditCardsMax,
		CreditHistoryMax: cfg.CleanCreditHistoryMax,
	}
	return services.CleanOptions{
		NumericColumns: cfg.NumericColumns,
		Rules:          limits.Rules(),
	}
}

func viewCaps(cfg *config.Config) services.ViewCaps {
	return services.ViewCaps{
		InterestRate:    cfg.InterestRateCap,
		CreditInquiries: cfg.CreditInquiriesCap,
		CreditHistory:   cfg.CreditHistoryCap,
		Bins:            cfg.HistogramBins,
	}
}
