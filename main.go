package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studentdb/cli"
	"studentdb/config"
	"studentdb/logger"
	"studentdb/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	configFile := flag.String("config", "", "path to a yaml config file")
	dbPath := flag.String("db", "", "path to the SQLite database file (overrides config)")
	logLevel := flag.String("log-level", "", "debug|info|warn|error (overrides config)")
	flag.Usage = func() { cli.Usage(flag.CommandLine.Output()) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 || !cli.Known(args[0]) {
		// help, unknown commands and missing commands never touch the database
		return cli.Run(context.Background(), args, cli.Env{Stdout: os.Stdout, Stderr: os.Stderr})
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		return cli.ExitUsage
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitUsage
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error setting up logger:", err)
		return cli.ExitUsage
	}
	defer logger.Flush(log.Logger)

	l := logger.WithOperationID(log.Logger, uuid.NewString())
	l.Debug("config loaded", zap.String("db_path", cfg.DBPath), zap.Int("import_workers", cfg.ImportWorkers))

	store, err := storage.NewSQLite(cfg.DBPath, l)
	if err != nil {
		msg, code := cli.Describe(err, "")
		fmt.Fprintln(os.Stderr, msg)
		return code
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logger.WithContext(ctx, l)

	return cli.Run(ctx, args, cli.Env{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Store:   store,
		Log:     l,
		Workers: cfg.ImportWorkers,
	})
}
