package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/varoOP/pokechu/internal/app"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Play starts an interactive encounter loop. Throw balls, flee, manage a
team of up to six and browse the logbook. Type help once it is running.

When a router has been installed (see install), entity data and sprites are
answered from its stores so encounters keep working offline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		install, _ := cmd.Flags().GetBool("install")
		return application.Play(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), app.PlayOptions{Install: install})
	},
}

func init() {
	playCmd.Flags().Bool("install", true, "install the caching router before playing")
	rootCmd.AddCommand(playCmd)
}
