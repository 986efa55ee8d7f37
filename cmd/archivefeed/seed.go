package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	contentrepo "github.com/kailas-cloud/archivefeed/internal/repository/content"
)

var seedFixtures string

// seedCmd loads fixtures into the RediSearch content engine
var seedCmd = &cobra.Command{
	Use:   "seed-content",
	Short: "Load content fixtures into redis",
	Long: `Creates the content index if it is missing and writes every fixture item
and term to redis, so that content.driver redis can serve them.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFixtures, "fixtures", "", "Fixtures file (default: content.fixtures)")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	_, cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path := seedFixtures
	if path == "" {
		path = cfg.Content.Fixtures
	}
	if path == "" {
		return errors.New("no fixtures: pass --fixtures or set content.fixtures")
	}
	fixtures, err := contentrepo.LoadFixtures(path)
	if err != nil {
		return err
	}

	a := &app{cfg: cfg, logger: logger}
	if err := a.connectRedis(ctx); err != nil {
		return err
	}
	defer a.Close()

	engine := a.redisEngine()
	if err := engine.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("content index: %w", err)
	}
	if err := engine.Seed(ctx, fixtures); err != nil {
		return err
	}

	logger.Info("Content seeded", zap.String("fixtures", path), zap.Int("items", len(fixtures.Items)))
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d items\n", len(fixtures.Items))
	return nil
}
