package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/nativetree/internal/adapters/capture"
)

func identifyCommand(s *settings) *cobra.Command {
	var upload bool

	cmd := &cobra.Command{
		Use:   "identify [image]",
		Short: "Identify the tree in a photo",
		Long: `Classify a photo and add an identified tree to the local history.
Camera photos must be at least 640x480 once scaled to 640 pixels wide;
use --upload for gallery images, which skip that check.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			src := capture.SourceCamera
			if upload {
				src = capture.SourceUpload
			}

			res, err := s.app.Identify(cmd.Context(), data, src)
			if err != nil && !res.Outcome.Identified() {
				if errors.Is(err, capture.ErrMisaligned) {
					return errors.New(capture.AlignmentMessage)
				}
				return err
			}

			out := cmd.OutOrStdout()
			o := res.Outcome
			switch {
			case o.Identified():
				fmt.Fprintf(out, "%s (%s) id=%s confidence=%.2f\n", o.TreeName, o.ScientificName, o.TreeID, o.Confidence)
				if !res.Added {
					fmt.Fprintln(out, "already in history")
				}
			case o.HasConfidence:
				fmt.Fprintf(out, "unknown tree confidence=%.2f\n", o.Confidence)
			default:
				fmt.Fprintln(out, "unknown tree")
			}
			// A history write failure leaves the result valid for this run.
			return err
		},
	}
	cmd.Flags().BoolVarP(&upload, "upload", "u", false, "Treat the image as a gallery upload")
	return cmd
}
