package commands

import (
	"context"
	"fmt"

	"oddsledger/internal/config"
	"oddsledger/internal/engine"
	"oddsledger/internal/history"
	"oddsledger/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "oddsledger",
	Short: "oddsledger records round multipliers and derives statistics and predictions",
	Long: `A per-user ledger of crash-game round multipliers. Values are captured from screenshots
(OCR) or typed in, stored in order, and summarised with descriptive statistics and simple
next-round estimates over HTTP, MCP or the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if err := logging.Init(verbose, cfg.LogDir); err != nil {
			return err
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("store", cfg.Store.Driver).
			Msg("oddsledger starting")
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(serveCmd, mcpCmd, importCmd, statsCmd)
}

// openEngine opens the configured store. The caller closes the store.
func openEngine(ctx context.Context) (*engine.Engine, history.Store, error) {
	store, err := history.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	return engine.New(store), store, nil
}
