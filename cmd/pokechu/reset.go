package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe all local data",
	Long: `Reset deletes every pokechu key (team, favorites, preferences, stats,
logbook and entity cache), every router store and the router registration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("reset deletes all local data, pass --yes to confirm")
		}

		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "all local data deleted")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "confirm the reset")
	rootCmd.AddCommand(resetCmd)
}
