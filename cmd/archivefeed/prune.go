package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	sessionrepo "github.com/kailas-cloud/archivefeed/internal/repository/session"
)

// pruneCmd removes expired sessions once
var pruneCmd = &cobra.Command{
	Use:   "prune-sessions",
	Short: "Remove expired feed sessions",
	Long: `Sweeps expired sessions from the sqlite or file session store. The memory
and redis drivers expire sessions on their own and need no sweep.`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func runPrune(cmd *cobra.Command, _ []string) error {
	_, cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a := &app{cfg: cfg, logger: logger}
	if err := a.openRedis(ctx); err != nil {
		return err
	}
	store, err := a.openSessionStore()
	if err != nil {
		a.Close()
		return err
	}
	a.sessionStore = store
	defer a.Close()

	p, ok := a.pruner()
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "session driver %s expires sessions natively, nothing to prune\n", cfg.Session.Driver)
		return nil
	}

	n := sessionrepo.NewJanitor(p, cfg.Session.PruneInterval, logger).Sweep(ctx, time.Now())
	fmt.Fprintf(cmd.OutOrStdout(), "pruned %d expired sessions\n", n)
	return nil
}
