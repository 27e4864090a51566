package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Precache the app shell",
	Long: `Install fetches the app shell and every asset it references into the
local shell store, then activates the new router version and deletes the
stores of older versions. Individual precache failures are reported but do
not fail the install.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		report, err := application.Install(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, u := range report.Precached {
			fmt.Fprintf(out, "cached  %s\n", u)
		}
		for _, u := range report.Failed {
			fmt.Fprintf(out, "failed  %s\n", u)
		}
		fmt.Fprintf(out, "%d cached, %d failed\n", len(report.Precached), len(report.Failed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
