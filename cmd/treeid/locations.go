package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/nativetree/internal/domain/geo"
)

func locationsCommand(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "List and record tree locations",
	}
	cmd.AddCommand(locationsListCommand(s), locationsSaveCommand(s))
	return cmd
}

func locationsListCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list [treeId]",
		Short: "List the recorded locations of a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := s.app.Locations(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, "no locations recorded")
				return nil
			}
			for _, r := range recs {
				fmt.Fprintf(out, "%s\t%.5f,%.5f\t%s\n", r.LocationID, r.Latitude, r.Longitude, r.Address)
			}
			return nil
		},
	}
}

func locationsSaveCommand(s *settings) *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "save [treeId]",
		Short: "Record the current position as a location of a tree",
		Long: `Record a location for a tree. The position given by --lat and --lon
stands in for the device fix; a point already recorded for the tree to
5 decimal places is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The CLI has no GPS: the flags are the device fix.
			s.position.SetPosition(geo.Coordinate{Latitude: lat, Longitude: lon})
			rec, err := s.app.SaveLocation(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\t%.5f,%.5f\t%s\n", rec.LocationID, rec.Latitude, rec.Longitude, rec.Address)
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in decimal degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in decimal degrees")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}
