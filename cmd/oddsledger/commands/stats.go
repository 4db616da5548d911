package commands

import (
	"encoding/json"

	"oddsledger/internal/forecast"

	"github.com/spf13/cobra"
)

var (
	statsOwner string
	statsMode  string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print statistics and a prediction for an owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mode, err := forecast.ParseMode(statsMode)
		if err != nil {
			return err
		}

		eng, store, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		summary, err := eng.Statistics(ctx, statsOwner)
		if err != nil {
			return err
		}
		prediction, err := eng.Prediction(ctx, statsOwner, mode)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"owner":      statsOwner,
			"statistics": summary,
			"prediction": prediction,
		})
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsOwner, "owner", "", "owner id to describe")
	statsCmd.Flags().StringVar(&statsMode, "mode", string(forecast.MultiStatistic), "prediction mode: forecast or moving-window")
	_ = statsCmd.MarkFlagRequired("owner")
}
