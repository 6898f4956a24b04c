package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-ismrmrd/ismrmrd"
)

func (a *app) dumpCmd() *cobra.Command {
	var index uint64
	var showXML bool

	cmd := &cobra.Command{
		Use:   "dump FILE [PATH]",
		Short: "Print one record header, or the XML header with --xml",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.openDataset(args[0], a.datasetPath(args))
			if err != nil {
				return err
			}
			defer d.Close()

			out := cmd.OutOrStdout()
			if showXML {
				blob, err := d.HeaderBlob()
				if err != nil {
					return fmt.Errorf("reading header: %w", err)
				}
				_, err = io.WriteString(out, blob)
				return err
			}

			rec, err := d.ReadRecord(index)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Record %d: %s\n", index, rec.Kind())
			switch r := rec.(type) {
			case *ismrmrd.Acquisition:
				printAcquisition(out, r)
			case *ismrmrd.Image:
				printImage(out, r)
			case *ismrmrd.Waveform:
				printWaveform(out, r)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&index, "index", 0, "record index")
	cmd.Flags().BoolVar(&showXML, "xml", false, "print the XML header blob")
	return cmd
}

func printAcquisition(w io.Writer, acq *ismrmrd.Acquisition) {
	h := acq.Head()
	fmt.Fprintf(w, "  version: %d\n", h.Version)
	fmt.Fprintf(w, "  flags: %s\n", h.Flags)
	fmt.Fprintf(w, "  scan_counter: %d\n", h.ScanCounter)
	fmt.Fprintf(w, "  samples: %d (center %d, discard %d/%d)\n", h.NumberOfSamples, h.CenterSample, h.DiscardPre, h.DiscardPost)
	fmt.Fprintf(w, "  channels: %d active of %d (mask %d on)\n", h.ActiveChannels, h.AvailableChannels, h.ChannelMask.Count())
	fmt.Fprintf(w, "  trajectory_dimensions: %d\n", h.TrajectoryDimensions)
	fmt.Fprintf(w, "  sample_time_us: %g\n", h.SampleTimeUs)
	fmt.Fprintf(w, "  position: %v\n", h.Position)
	fmt.Fprintf(w, "  read_dir: %v phase_dir: %v slice_dir: %v\n", h.ReadDir, h.PhaseDir, h.SliceDir)
	i := h.Idx
	fmt.Fprintf(w, "  idx: step1=%d step2=%d average=%d slice=%d contrast=%d phase=%d repetition=%d set=%d segment=%d\n",
		i.KspaceEncodeStep1, i.KspaceEncodeStep2, i.Average, i.Slice, i.Contrast, i.Phase, i.Repetition, i.Set, i.Segment)
}

func printImage(w io.Writer, img *ismrmrd.Image) {
	h := img.Head()
	fmt.Fprintf(w, "  version: %d\n", h.Version)
	fmt.Fprintf(w, "  flags: %s\n", h.Flags)
	fmt.Fprintf(w, "  data_type: %s\n", h.DataType)
	fmt.Fprintf(w, "  image_type: %s\n", h.ImageType)
	fmt.Fprintf(w, "  matrix_size: %v channels: %d\n", h.MatrixSize, h.Channels)
	fmt.Fprintf(w, "  field_of_view: %v\n", h.FieldOfView)
	fmt.Fprintf(w, "  index: %d series: %d\n", h.ImageIndex, h.ImageSeriesIndex)
	fmt.Fprintf(w, "  attributes: %d bytes\n", h.AttributeStringLen)
}

func printWaveform(w io.Writer, wf *ismrmrd.Waveform) {
	h := wf.Head()
	fmt.Fprintf(w, "  version: %d\n", h.Version)
	fmt.Fprintf(w, "  waveform_id: %d\n", h.WaveformID)
	fmt.Fprintf(w, "  samples: %d channels: %d\n", h.NumberOfSamples, h.Channels)
	fmt.Fprintf(w, "  sample_time_us: %g\n", h.SampleTimeUs)
}
