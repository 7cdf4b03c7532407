package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/iudanet/autosave/internal/client/api"
	"github.com/iudanet/autosave/internal/client/autosync"
	"github.com/iudanet/autosave/internal/client/buffer"
	"github.com/iudanet/autosave/internal/client/cli"
	"github.com/iudanet/autosave/internal/client/iocli"
	"github.com/iudanet/autosave/internal/client/session"
	"github.com/iudanet/autosave/internal/client/storage"
	"github.com/iudanet/autosave/internal/client/storage/boltdb"
	"github.com/iudanet/autosave/internal/client/storage/sqlite"
	"github.com/iudanet/autosave/internal/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.LoadClient(flag.CommandLine, os.Args[1:], nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Show version and exit if requested
	if cfg.ShowVersion {
		printVersion()
		os.Exit(0)
	}

	stdio := iocli.NewStdio()

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage(stdio)
		os.Exit(1)
	}

	if err := run(cfg, stdio, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Client, stdio iocli.IO, command string, args []string) error {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Сигналы обрабатывает exitguard внутри сессии редактирования
	ctx := context.Background()

	boltStorage, err := boltdb.NewWithOptions(ctx, cfg.DBPath, boltdb.Options{MaxValueBytes: cfg.MaxBackupBytes})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	// Без запасного хранилища буфер продолжает работать только с BoltDB
	var fallback storage.BackupStorage
	if cfg.FallbackDBPath != "" {
		sqliteStorage, err := sqlite.New(ctx, cfg.FallbackDBPath)
		if err != nil {
			logger.Warn("Fallback database unavailable", "path", cfg.FallbackDBPath, "error", err)
		} else {
			fallback = sqliteStorage
			defer func() {
				if err := sqliteStorage.Close(); err != nil {
					logger.Error("failed to close fallback database", "error", err)
				}
			}()
		}
	}

	apiClient := api.NewClient(cfg.ServerURL)

	c := cli.New(cli.Deps{
		IO:       stdio,
		Remote:   apiClient,
		NewSaver: func(surface string) autosync.Saver { return apiClient.Saver(surface) },
		Buffer:   buffer.New(boltStorage, fallback, logger),
		Metadata: boltStorage,
		Logger:   logger,
		Session: session.Config{
			Sync: autosync.Config{
				Debounce:     cfg.Debounce,
				RetryDelay:   cfg.RetryDelay,
				WriteTimeout: cfg.WriteTimeout,
				MaxRetries:   cfg.MaxRetries,
			},
			RestoreMaxAge: cfg.RestoreMaxAge,
		},
		SavedWindow:   cfg.SavedWindow,
		ProbeInterval: cfg.ProbeInterval,
	})

	return c.Run(ctx, command, args)
}

func printVersion() {
	fmt.Printf("Autosave Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
