package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ecoleta/ecoleta/internal/geo"
)

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Query the geography service used for the state and city lists",
}

var geoStatesCmd = &cobra.Command{
	Use:   "states",
	Short: "List states",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		states, err := geo.NewClient(cfg.GeoBaseURL).ListStates(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, s := range states {
			fmt.Fprintf(tw, "%s\t%s\n", s.Abbreviation, s.Name)
		}
		return tw.Flush()
	},
}

var geoCitiesCmd = &cobra.Command{
	Use:   "cities <UF>",
	Short: "List the cities of a state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cities, err := geo.NewClient(cfg.GeoBaseURL).ListCities(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		for _, c := range cities {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}
