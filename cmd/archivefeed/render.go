package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/archivefeed/internal/render"
	feeduc "github.com/kailas-cloud/archivefeed/internal/usecase/feed"
)

var (
	renderPage    int
	renderQuery   string
	renderBaseURL string
)

// renderCmd prints the initial markup of a feed
var renderCmd = &cobra.Command{
	Use:   "render <feed>",
	Short: "Render a configured feed as an HTML document",
	Long: `Renders the initial page of a feed to stdout, exactly as GET /feeds/<feed>
would. The rendered session is persisted so the async endpoint can continue it.

Examples:
  archivefeed render news
  archivefeed render news --page 2 --query "filter-category=events&sort=title-ASC"`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().IntVar(&renderPage, "page", 1, "Page number")
	renderCmd.Flags().StringVar(&renderQuery, "query", "", "Filter query string (filter-*, meta-*, s, sort)")
	renderCmd.Flags().StringVar(&renderBaseURL, "base-url", "", "Base URL of pagination links (default: /feeds/<feed>/)")
}

func runRender(cmd *cobra.Command, args []string) error {
	_, cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	params, err := url.ParseQuery(strings.TrimPrefix(renderQuery, "?"))
	if err != nil {
		return fmt.Errorf("parse --query: %w", err)
	}
	base := renderBaseURL
	if base == "" {
		base = "/feeds/" + args[0] + "/"
	}

	page, err := a.feeds.Start(ctx, feeduc.StartRequest{
		Feed:    args[0],
		Params:  params,
		Page:    renderPage,
		BaseURL: base,
	})
	if err != nil {
		return fmt.Errorf("render %s: %w", args[0], err)
	}
	logger.Debug("feed rendered",
		zap.String("feed", args[0]),
		zap.String("session_id", page.Session.ID),
		zap.Int("found", page.Found),
	)

	if err := render.Document(page.Title, cfg.Render.Locale, page.Body).Render(ctx, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
