package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"igcollector/pkg/account"
	"igcollector/pkg/config"
	"igcollector/pkg/logger"
	"igcollector/pkg/pool"
	"igcollector/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	poolFile   string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igcollector",
	Short: "Account pool manager for Instagram collection tasks",
	Long: `igcollector rotates a pool of Instagram accounts across concurrent
collection tasks.

Each task leases an account exclusively, paced against the account's last
use. Accounts that get throttled cool down and return on their own; accounts
that fail hard are quarantined until an operator resets them.

Features:
  - Exclusive account leasing with least-recently-used rotation
  - Per-account health scoring with severity-weighted penalties
  - Automatic cooldown and quarantine state management
  - Secure credential storage using the system keychain
  - Pool-wide rate limiting and randomized request pacing`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.DisableColors()
		}
		if !quiet && cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" {
			ui.PrintBanner()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.igcollector.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&poolFile, "pool-file", "", "path to the account pool state file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress banner output")

	rootCmd.SetVersionTemplate(`igcollector {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig builds the effective configuration from all sources
func loadConfig() (*config.Config, error) {
	flags := make(map[string]interface{})
	if poolFile != "" {
		flags["pool-file"] = poolFile
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, err
	}

	return cfg, nil
}

// openPool opens the persistent account store and builds the pool over it
func openPool(cfg *config.Config) (*pool.Pool, *account.FileStore, error) {
	store, err := account.OpenFileStore(cfg.Storage.PoolFile, logger.GetLogger())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open pool file: %w", err)
	}

	return pool.New(store, cfg, logger.GetLogger()), store, nil
}
