package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-ismrmrd/internal/inspect"
)

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats FILE [PATH]",
		Short: "Print per-channel magnitude statistics of the acquisitions",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.openDataset(args[0], a.datasetPath(args))
			if err != nil {
				return err
			}
			defer d.Close()

			s, err := inspect.Summarize(d)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Records: %d\n", s.Records)
			for _, kind := range slices.Sorted(maps.Keys(s.Kinds)) {
				fmt.Fprintf(out, "  %s: %d\n", kind, s.Kinds[kind])
			}
			fmt.Fprintf(out, "Noise scans: %d\n", s.NoiseScans)
			if len(s.Channels) > 0 {
				fmt.Fprintf(out, "kspace_encode_step_1: %d..%d\n", s.MinStep1, s.MaxStep1)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CHANNEL\tSAMPLES\tMEAN\tSTDDEV\tMAX")
			for _, c := range s.Channels {
				fmt.Fprintf(tw, "%d\t%d\t%.6g\t%.6g\t%.6g\n", c.Channel, c.Samples, c.Mean, c.StdDev, c.Max)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			sd, err := inspect.NoiseLevel(d)
			switch {
			case errors.Is(err, inspect.ErrNoNoise):
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "Noise std-dev: %.6g\n", sd)
			}
			return nil
		},
	}
}
