package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/config"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/logging"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/node"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configFile string
	debug      bool
	quiet      bool

	// Set by loadConfig before any subcommand runs
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mplxd",
	Short: "mplxd - auction house and compressed NFT runtime",
	Long: `mplxd applies signed auction house, bubblegum, token and metadata
transactions against a local account store and records their history.`,
	Version:           "0.1.0-dev",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path (default ./mplxd.toml when present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")
}

// loadConfig reads the configuration and builds the logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if configFile != "" {
		cfg, err = config.LoadConfig(configFile)
	} else {
		cfg, err = config.LoadDefaultConfig()
	}
	if err != nil {
		return err
	}

	logCfg := cfg.Log
	switch {
	case debug:
		logCfg.Level = "debug"
	case quiet:
		logCfg.Level = "error"
	}
	logger, err = logging.New(logCfg)
	return err
}

// withNode starts a node for the duration of fn.
func withNode(ctx context.Context, fn func(n *node.Node) error) error {
	n := node.New(cfg, logger)
	if err := n.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := n.Close(ctx); err != nil {
			logger.Warn("failed to close node", zap.Error(err))
		}
	}()
	return fn(n)
}
