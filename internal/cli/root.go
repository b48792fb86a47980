package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stock-analyzer/internal/config"
	"stock-analyzer/internal/logging"
	"stock-analyzer/internal/store"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// App holds shared dependencies for all commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.BarStore
}

// NewRootCmd builds the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	app := &App{}

	rootCmd := &cobra.Command{
		Use:           "stock-analyzer",
		Short:         "Technical analysis for a single equity",
		Long:          "stock-analyzer computes indicators, volume profile, support/resistance,\nchart patterns and a composite signal score from daily OHLCV bars.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			app.Config = cfg

			logCfg := logging.DefaultLogConfig()
			logCfg.Level = cfg.Logging.Level
			logCfg.Console = cfg.Logging.Console
			if cfg.Logging.File != "" {
				logCfg.File = true
				logCfg.FilePath = cfg.Logging.File
				logCfg.MaxSize = cfg.Logging.MaxSizeMB
				logCfg.MaxBackups = cfg.Logging.MaxBackups
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logCfg.Level = "debug"
			}
			if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
				logCfg.Console = false
			}
			app.Logger = logging.NewLoggerWithConfig(logCfg)

			if cfg.Cache.Enabled {
				if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0o755); err != nil {
					return fmt.Errorf("creating cache directory: %w", err)
				}
				s, err := store.NewSQLiteStore(cfg.Cache.Path)
				if err != nil {
					return fmt.Errorf("opening bar cache: %w", err)
				}
				app.Store = s
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app.Store != nil {
				return app.Store.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default ~/.config/stock-analyzer)")
	rootCmd.PersistentFlags().Bool("json", false, "output machine-readable JSON")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newCacheCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "stock-analyzer", Version)
		},
	}
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
