package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/archivefeed/internal/config"
	logpkg "github.com/kailas-cloud/archivefeed/internal/logger"
	"github.com/kailas-cloud/archivefeed/internal/version"
)

var (
	configPath string
	envName    string
	logLevel   string
)

// rootCmd is the archivefeed CLI
var rootCmd = &cobra.Command{
	Use:   "archivefeed",
	Short: "Filterable, paginated content feeds",
	Long: `archivefeed renders configured content feeds as HTML and answers the
asynchronous filter and load-more requests sent by rendered pages.

Configuration is read from config/<env>.yaml, where env comes from --env or
the ENV variable (default: local).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "Environment name (default: $ENV or local)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

// loadConfig resolves the environment, reads its configuration and builds the logger.
func loadConfig() (string, config.Config, *zap.Logger, error) {
	env := envName
	if env == "" {
		env = config.GetEnv()
	}

	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return "", config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return "", config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return env, cfg, logger, nil
}
