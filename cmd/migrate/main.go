// Command migrate applies the database schema and optionally seeds the menu.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"polleria/internal/config"
	"polleria/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	menuPath := flag.String("seed", "", "JSON file with menu items to insert when the menu is empty")
	flag.Parse()

	dbCfg, logCfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(logCfg, "polleria-migrate")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, dbCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return err
	}

	if *menuPath == "" {
		return nil
	}

	items, err := readMenu(*menuPath)
	if err != nil {
		return err
	}

	n, err := seedMenu(ctx, database.NewGateway(pool, logger), items)
	if err != nil {
		return err
	}
	logger.Info().Int("inserted", n).Str("file", *menuPath).Msg("menu seeded")
	return nil
}
