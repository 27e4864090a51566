package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the app origin through the caching router",
	Long: `Serve installs the caching router and exposes it over HTTP. Paths are
resolved against the app origin, absolute-form proxy requests are forwarded
as is, and POST /_router/message accepts {"type":"SKIP_WAITING"}.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
			viper.Set("listen_addr", addr)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Serve(ctx)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "address to listen on (default 127.0.0.1:7151)")
	rootCmd.AddCommand(serveCmd)
}
