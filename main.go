package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"credit-dashboard/config"
	"credit-dashboard/utils"
)

const usage = `usage: credit-dashboard <command> [flags]

commands:
  ddl        drop and recreate the typed customer table in PostgreSQL
  load-csv   load a CSV file into the PostgreSQL customer table
  mirror     copy the PostgreSQL customer table into SQLite
  report     print dataset insights
  serve      serve the dashboard and JSON API
  export     write a filtered view to CSV or XLSX
  snapshot   capture PNGs of every dashboard view`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		utils.NewLogger(utils.LevelInfo).Error("Invalid configuration: %v", err)
		os.Exit(1)
	}
	logger := utils.NewLogger(utils.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("%s failed: %v", os.Args[1], err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *utils.Logger, command string, args []string) error {
	switch command {
	case "ddl":
		return runDDL(ctx, cfg, logger)
	case "load-csv":
		return runLoadCSV(ctx, cfg, logger, args)
	case "mirror":
		return runMirror(ctx, cfg, logger)
	case "report":
		return runReport(ctx, cfg, logger, args)
	case "serve":
		return runServe(ctx, cfg, logger, args)
	case "export":
		return runExport(ctx, cfg, logger, args)
	case "snapshot":
		return runSnapshot(ctx, cfg, logger, args)
	case "help", "-h", "--help":
		fmt.Println(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
}
