package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/nativetree/internal/domain/model"
)

func treeCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [treeId]",
		Short: "Show the details of one tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := s.app.Tree(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTree(cmd.OutOrStdout(), t)
			return nil
		},
	}
}

func treesCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "trees [query]",
		Short: "Search the tree library by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var q string
			if len(args) == 1 {
				q = args[0]
			}
			trees, err := s.app.Trees(cmd.Context(), q)
			if err != nil {
				return err
			}
			for _, t := range trees {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", t.TreeID, t.TreeName, t.ScientificName)
			}
			return nil
		},
	}
}

func printTree(w io.Writer, t model.Tree) {
	fmt.Fprintf(w, "%s (%s)\n", t.TreeName, t.ScientificName)
	for _, f := range []struct{ label, value string }{
		{"Description", t.Description},
		{"Lifespan", t.Lifespan},
		{"Growth needs", t.GrowthNeeds},
		{"Growth period", t.GrowthPeriod},
		{"Source", t.SourceLink},
	} {
		if f.value != "" {
			fmt.Fprintf(w, "%s: %s\n", f.label, f.value)
		}
	}
}
