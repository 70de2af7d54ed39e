/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/seckatie/linkindex/internal/config"
	"github.com/seckatie/linkindex/internal/core"
	"github.com/seckatie/linkindex/internal/core/web"
	"github.com/seckatie/linkindex/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "linkindex",
	Short: "Keep a SQL index of archived links in sync with an index file",
	Long: `linkindex keeps a SQL index of archived links (snapshots) in exact
correspondence with an authoritative link collection.

Run without a subcommand to serve a read-only view of the index while
background workers fetch page titles for newly added snapshots.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
	RunE:              runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is ./.linkindex.yaml or $HOME/.linkindex.yaml)")
	rootCmd.PersistentFlags().StringP(config.KeyDB, "d", "linkindex.db", "Path to the SQLite database file")
	rootCmd.PersistentFlags().String(config.KeyDatabaseURL, "", "PostgreSQL connection string; overrides --db for update and list")
	rootCmd.PersistentFlags().String(config.KeyLogLevel, "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String(config.KeyLogFormat, "auto", "Log format (json, console, auto)")
	rootCmd.PersistentFlags().String(config.KeyChromePath, "", "Path to Chrome/Chromium executable")

	rootCmd.Flags().IntP(config.KeyPort, "p", 8080, "Port to listen on")
	rootCmd.Flags().String(config.KeyHost, "localhost", "Host to listen on")
	rootCmd.Flags().IntP(config.KeyTitleWorkers, "w", 1, "Number of title workers to run")
	rootCmd.Flags().Duration(config.KeyTitlePollInterval, 30*time.Second, "How often to scan for untitled snapshots")

	config.SetDefaults(viper.GetViper())
	for _, key := range []string{config.KeyDB, config.KeyDatabaseURL, config.KeyLogLevel, config.KeyLogFormat, config.KeyChromePath} {
		mustBind(key, rootCmd.PersistentFlags())
	}
	for _, key := range []string{config.KeyPort, config.KeyHost, config.KeyTitleWorkers, config.KeyTitlePollInterval} {
		mustBind(key, rootCmd.Flags())
	}
}

// initConfig resolves configuration and installs the configured logger.
func initConfig(cmd *cobra.Command, _ []string) error {
	if err := config.Init(viper.GetViper(), cfgFile); err != nil {
		return err
	}
	cfg := config.Load(viper.GetViper())
	logging.Configure(cfg.Logging())
	if used := viper.ConfigFileUsed(); used != "" {
		logging.Default().Debug().Str("file", used).Msg("Using config file")
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())

	database, err := initDB()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logging.FromContext(ctx)

	warnSQLiteOnly("serve")

	opts := core.TitleOptions{ChromePath: cfg.ChromePath, Headless: true}
	workers := core.NewTitleWorkers(database, opts, core.FetchTitle, 0)
	workers.Start(ctx, cfg.TitleWorkers)
	// Rows written by update or by a previous run are found by polling.
	workers.Poll(ctx, cfg.TitlePollInterval)
	log.Info().
		Int("workers", cfg.TitleWorkers).
		Dur("poll_interval", cfg.TitlePollInterval).
		Msg("Title workers started")

	err = web.StartServer(ctx, cfg.Addr(), database)
	stop()
	workers.Wait()
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
