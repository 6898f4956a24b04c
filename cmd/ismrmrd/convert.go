package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-ismrmrd/ismrmrd"
)

const (
	formatHDF5   = "hdf5"
	formatStream = "stream"
)

func checkFormat(format string) error {
	if format != formatHDF5 && format != formatStream {
		return fmt.Errorf("unknown format %q (want %s or %s)", format, formatHDF5, formatStream)
	}
	return nil
}

func (a *app) exportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export FILE OUT [PATH]",
		Short: "Write datasets as HDF5 or one dataset as a message stream",
		Long: "Export writes every dataset of FILE to the HDF5 file OUT. With --format stream\n" +
			"it writes the dataset at PATH as a message stream to OUT, or to stdout when OUT is -.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			filename, target := args[0], args[1]

			if format == formatHDF5 {
				f, err := ismrmrd.Open(filename, a.cfg.FileOptions(a.logger)...)
				if err != nil {
					return fmt.Errorf("failed to open file: %w", err)
				}
				defer f.Close()
				if err := f.ExportHDF5(target); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", filename, target)
				return nil
			}

			d, err := a.openDataset(filename, a.datasetPath(args[1:]))
			if err != nil {
				return err
			}
			defer d.Close()

			var w io.Writer = cmd.OutOrStdout()
			if target != "-" {
				out, err := os.Create(target)
				if err != nil {
					return err
				}
				defer out.Close()
				w = out
			}
			if err := ismrmrd.SerializeDataset(d, w); err != nil {
				return err
			}
			a.logger.Info("serialized dataset", "path", d.Path(), "target", target)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", formatHDF5, "output format (hdf5 or stream)")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var (
		format    string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "import SOURCE FILE [PATH]",
		Short: "Copy datasets from HDF5 or a message stream into FILE",
		Long: "Import copies every dataset group of the HDF5 file SOURCE into FILE. With\n" +
			"--format stream it appends the message stream SOURCE, or stdin when SOURCE is -,\n" +
			"to a new dataset at PATH.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			source, filename := args[0], args[1]

			f, err := openOrCreate(filename, a.cfg.FileOptions(a.logger)...)
			if err != nil {
				return err
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			if format == formatHDF5 {
				paths, err := f.ImportHDF5(source, overwrite)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintf(out, "Imported %s\n", p)
				}
				return nil
			}

			var r io.Reader = cmd.InOrStdin()
			if source != "-" {
				in, err := os.Open(source)
				if err != nil {
					return err
				}
				defer in.Close()
				r = in
			}
			d, err := f.CreateDataset(a.datasetPath(args[1:]), overwrite, a.cfg.DatasetOptions()...)
			if err != nil {
				return err
			}
			defer d.Close()
			n, err := ismrmrd.DeserializeDataset(r, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Imported %d records to %s\n", n, d.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", formatHDF5, "input format (hdf5 or stream)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing datasets")
	return cmd
}
