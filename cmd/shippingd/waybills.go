package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storefront/logistics/internal/core/domain"
)

var waybillsCmd = &cobra.Command{
	Use:   "waybills",
	Short: "Inspect and maintain the waybill pool",
}

var (
	generateCount  int
	generateSource string
	replenishFloor int
)

var waybillsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print pool counts by status and source",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		stats, err := a.waybills.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, stats)
	},
}

var waybillsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fetch a batch of waybills from the carrier into the pool",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if generateCount <= 0 {
			return fmt.Errorf("--count must be positive")
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.waybills.GenerateAndStore(cmd.Context(), generateCount, generateSource)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var waybillsReplenishCmd = &cobra.Command{
	Use:   "replenish",
	Short: "Top the pool up to the configured floor once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		floor := replenishFloor
		if floor <= 0 {
			floor = a.cfg.Waybill.MinStock
		}
		res, err := a.waybills.EnsureMinimumStock(cmd.Context(), floor)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func init() {
	waybillsGenerateCmd.Flags().IntVar(&generateCount, "count", 100, "number of waybills to fetch")
	waybillsGenerateCmd.Flags().StringVar(&generateSource, "source", domain.WaybillSourceBulk, "generation source recorded on each waybill")
	waybillsReplenishCmd.Flags().IntVar(&replenishFloor, "min-stock", 0, "pool floor (defaults to WAYBILL_MIN_STOCK)")

	waybillsCmd.AddCommand(waybillsStatsCmd, waybillsGenerateCmd, waybillsReplenishCmd)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
