package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/pokechu/internal/app"
	"github.com/varoOP/pokechu/internal/logger"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pokechu",
	Short: "Catch Gen 1 Pokémon from your terminal",
	Long: `Pokechu is a small offline-first creature catching game backed by
PokeAPI. Encounters, captures and the logbook persist locally, and a caching
router keeps the game playable when the network is gone.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pokechu/config.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding the local database")
	rootCmd.PersistentFlags().String("app-origin", "", "origin and base path the router serves, e.g. http://localhost:5173/PwaPokedex/")
	rootCmd.PersistentFlags().Bool("offline", false, "start without network access")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")

	// Bind flags to viper
	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("app_origin", rootCmd.PersistentFlags().Lookup("app-origin"))
	viper.BindPFlag("offline", rootCmd.PersistentFlags().Lookup("offline"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in home directory and current directory
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".pokechu"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Environment variables
	viper.SetEnvPrefix("POKECHU")
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newApp initializes the application with a logger at the configured level.
func newApp() (*app.App, error) {
	level, err := logger.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return nil, err
	}

	application, err := app.NewApp(logger.NewLoggerWithLevel(level))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return application, nil
}
