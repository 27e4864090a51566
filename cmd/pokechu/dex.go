package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/varoOP/pokechu/internal/domain"
	"github.com/varoOP/pokechu/internal/format"
	"github.com/varoOP/pokechu/internal/profile"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatYAML  = "yaml"
)

var dexCmd = &cobra.Command{
	Use:   "dex [query]",
	Short: "Print the logbook",
	Long: `Dex prints every species you have met. A numeric query matches the dex
number exactly, anything else matches the name. A positional query takes
precedence over --query.

Filters: all, team, captured, favorites, shiny.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawFilter, _ := cmd.Flags().GetString("filter")
		filter, err := profile.ParseFilter(rawFilter)
		if err != nil {
			return err
		}

		outFormat, _ := cmd.Flags().GetString("format")
		if outFormat != formatTable && outFormat != formatYAML {
			return fmt.Errorf("invalid format %q (use table or yaml)", outFormat)
		}

		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		flagQuery, _ := cmd.Flags().GetString("query")
		entries := application.Dex(filter, dexQuery(flagQuery, args))

		favorites := make(map[int]bool)
		for _, id := range application.Profile().Favorites() {
			favorites[id] = true
		}

		return renderDex(cmd.OutOrStdout(), outFormat, entries, favorites)
	},
}

// dexQuery picks the positional query over the --query flag.
func dexQuery(flagQuery string, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return flagQuery
}

func renderDex(out io.Writer, outFormat string, entries []domain.PokedexEntry, favorites map[int]bool) error {
	if outFormat == formatYAML {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("failed to encode logbook: %w", err)
		}
		return enc.Close()
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NO\tNAME\tSEEN\tCAUGHT\tSHINY\tRELEASED\tFAV")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%d\t%s\n",
			format.DexNumber(e.ID), format.Name(e.Name), e.TimesEncountered,
			mark(e.CapturedEver), mark(e.ShinySeen), e.ReleasedCount, mark(favorites[e.ID]))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d entries\n", len(entries))
	return nil
}

func mark(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func init() {
	dexCmd.Flags().String("filter", "all", "filter: all, team, captured, favorites, shiny")
	dexCmd.Flags().String("query", "", "name substring or exact dex number")
	dexCmd.Flags().String("format", formatTable, "output format: table or yaml")
	rootCmd.AddCommand(dexCmd)
}
