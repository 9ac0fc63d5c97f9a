package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bot",
	Short: "ATR-based risk and stop management bot for Capital.com",
	Long: `Bot trades a configured symbol universe through the Capital.com REST API.

Each polling cycle it evaluates a trend signal per symbol, sizes new positions
against a fixed risk budget, places orders with ATR-derived stop and target
levels, and ratchets trailing stops on open positions as profit accrues.

Run in DRY_RUN mode to simulate fills against synthetic prices, or LIVE
against a demo or real Capital.com account.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
