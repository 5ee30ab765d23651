// Package cmd implements the cmart CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/donaldgifford/classmart/internal/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "cmart",
		Short: "CLI client for the classmates marketplace",
		Long: "cmart is a command-line client for the classmates marketplace.\n" +
			"It browses and searches listings, posts new listings with photos,\n" +
			"and shows who the marketplace thinks you are.",
		SilenceUsage: true,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default $HOME/.cmart.yaml)")
	rootCmd.PersistentFlags().
		String("server", "", "API base URL (default http://localhost:8000/api/v1)")
	rootCmd.PersistentFlags().
		String("output", "table", "output format (table, json)")
	rootCmd.PersistentFlags().
		String("init-data", "", "Telegram init data to act as, or - to read it from stdin (default: none, run detached)")
	rootCmd.PersistentFlags().
		String("log-level", "", "log level (debug, info, warn, error)")

	for _, name := range []string{"server", "output", "init-data", "log-level"} {
		cobra.CheckErr(viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)))
	}

	rootCmd.AddCommand(listingsCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(versionCmd())
}

func initConfig() {
	viper.SetEnvPrefix("CLASSMART")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig reads the config file, if any, and applies flag and
// CLASSMART_* environment overrides on top.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, ".cmart.yaml")
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}

	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	if s := viper.GetString("server"); s != "" {
		cfg.API.BaseURL = s
	}
	switch s := viper.GetString("init-data"); s {
	case "":
	case stdinInitData:
		raw, err := readInitData()
		if err != nil {
			return nil, err
		}
		cfg.Host.InitData = raw
	default:
		cfg.Host.InitData = s
	}
	if s := viper.GetString("log-level"); s != "" {
		cfg.Logging.Level = s
	}

	return config.Finalize(cfg)
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}
