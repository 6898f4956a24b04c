package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-ismrmrd/ismrmrd"
)

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "List the datasets of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ismrmrd.Open(args[0], a.cfg.FileOptions(a.logger)...)
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "=== %s ===\n", args[0])
			n := 0
			err = ismrmrd.Walk(f, func(info ismrmrd.DatasetInfo) error {
				n++
				fmt.Fprintf(out, "Dataset %q:\n", info.Path)
				fmt.Fprintf(out, "  Records: %d\n", info.RecordCount)
				if info.HasHeader {
					fmt.Fprintf(out, "  Header: %d bytes\n", info.HeaderBytes)
				} else {
					fmt.Fprintf(out, "  Header: none\n")
				}
				fmt.Fprintf(out, "  Arrays: %v\n", info.Arrays)
				for _, v := range slices.Sorted(maps.Keys(info.Images)) {
					fmt.Fprintf(out, "  Images %q: %d\n", v, info.Images[v])
				}
				return nil
			})
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(out, "[EMPTY - no datasets]")
			}
			return nil
		},
	}
}
