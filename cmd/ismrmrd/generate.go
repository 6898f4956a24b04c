package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-ismrmrd/internal/phantom"
	"github.com/robert-malhotra/go-ismrmrd/ismrmrd"
)

func (a *app) generateCmd() *cobra.Command {
	var (
		o         phantom.Options
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "generate FILE [PATH]",
		Short: "Write a synthetic Cartesian Shepp-Logan acquisition",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.Phantom
			fl := cmd.Flags()
			if fl.Changed("matrix") {
				opts.Matrix = o.Matrix
			}
			if fl.Changed("coils") {
				opts.Coils = o.Coils
			}
			if fl.Changed("oversampling") {
				opts.Oversampling = o.Oversampling
			}
			if fl.Changed("repetitions") {
				opts.Repetitions = o.Repetitions
			}
			if fl.Changed("acceleration") {
				opts.Acceleration = o.Acceleration
			}
			if fl.Changed("noise-level") {
				opts.NoiseLevel = o.NoiseLevel
			}
			if fl.Changed("noise-calibration") {
				opts.NoiseCalibration = o.NoiseCalibration
			}
			if fl.Changed("trajectory") {
				opts.Trajectory = o.Trajectory
			}
			if fl.Changed("seed") {
				opts.Seed = o.Seed
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			filename, path := args[0], a.datasetPath(args)
			f, err := openOrCreate(filename, a.cfg.FileOptions(a.logger)...)
			if err != nil {
				return err
			}
			defer f.Close()

			d, err := f.CreateDataset(path, overwrite, a.cfg.DatasetOptions()...)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			defer d.Close()

			n, err := phantom.Generate(d, opts)
			if err != nil {
				return err
			}
			a.logger.Info("generated phantom", "file", filename, "path", d.Path(), "acquisitions", n)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d acquisitions to %s:%s\n", n, filename, d.Path())
			return nil
		},
	}

	def := phantom.DefaultOptions()
	fl := cmd.Flags()
	fl.IntVar(&o.Matrix, "matrix", def.Matrix, "image matrix size (even)")
	fl.IntVar(&o.Coils, "coils", def.Coils, "number of receiver coils")
	fl.IntVar(&o.Oversampling, "oversampling", def.Oversampling, "readout oversampling factor")
	fl.IntVar(&o.Repetitions, "repetitions", def.Repetitions, "number of repetitions")
	fl.IntVar(&o.Acceleration, "acceleration", def.Acceleration, "phase encoding acceleration factor")
	fl.Float64Var(&o.NoiseLevel, "noise-level", def.NoiseLevel, "noise standard deviation")
	fl.BoolVar(&o.NoiseCalibration, "noise-calibration", false, "write a noise calibration acquisition first")
	fl.BoolVar(&o.Trajectory, "trajectory", false, "store k-space trajectory coordinates")
	fl.Uint64Var(&o.Seed, "seed", def.Seed, "noise random seed")
	fl.BoolVar(&overwrite, "overwrite", false, "replace an existing dataset")
	return cmd
}

func openOrCreate(filename string, opts ...ismrmrd.FileOption) (*ismrmrd.File, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return ismrmrd.Create(filename, opts...)
	}
	return ismrmrd.OpenReadWrite(filename, opts...)
}
