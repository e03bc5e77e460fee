package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/locvowork/mywork_tools/internal/bootstrap"
	"github.com/locvowork/mywork_tools/internal/config"
	"github.com/locvowork/mywork_tools/internal/database"
	"github.com/locvowork/mywork_tools/internal/logger"
)

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		logger.ErrorLog(ctx, "error: %v", err)
		os.Exit(1)
	}
}

// run seeds the configured store. The store is closed before it returns.
func run(ctx context.Context, args []string, out io.Writer) (err error) {
	fs := flag.NewFlagSet("seeder", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "Path to settings file")
	preset := fs.String("preset", "medium", "Data preset: small, medium, large")
	count := fs.Int("count", 0, "Number of messages (overrides preset)")
	first := fs.Int("first", 1, "Suffix of the first INBOX_ id")
	seed := fs.Int64("seed", time.Now().UnixNano(), "Random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintln(out, "Mail Data Seeder")
	fmt.Fprintln(out, strings.Repeat("=", 50))

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	app := bootstrap.NewApp(cfg)
	app.Initialize(ctx)
	defer func() {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	repo, err := app.Repository(ctx)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	index, err := app.Index()
	if err != nil {
		return fmt.Errorf("failed to create search index client: %w", err)
	}

	n := *count
	if n <= 0 {
		n = database.GetPresetConfig(database.SeedPreset(*preset))
		fmt.Fprintf(out, "Using preset: %s (%d messages)\n", *preset, n)
	}

	seeder := database.NewDataSeeder(repo, index, *seed)
	saved, err := seeder.SeedData(ctx, seeder.Messages(n, *first, time.Now()))
	if err != nil {
		return fmt.Errorf("seeding failed after %d messages: %w", saved, err)
	}
	fmt.Fprintf(out, "Saved %d of %d messages\n", saved, n)
	return nil
}
