package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func historyCommand(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage the local identification history",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List identified trees, most recent first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				items, err := s.app.History(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "no trees identified yet")
					return nil
				}
				for _, it := range items {
					fmt.Fprintf(out, "%s\t%s\t%s\n", it.TreeID, it.TreeName, it.ScientificName)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove [treeId]",
			Short: "Remove one tree from the history",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return s.app.RemoveHistory(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every tree from the history",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return s.app.ClearHistory(cmd.Context())
			},
		},
	)
	return cmd
}
