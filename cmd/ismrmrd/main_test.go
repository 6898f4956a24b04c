package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-ismrmrd/ismrmrd"
)

// run executes the root command with args and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateInfoDumpStats(t *testing.T) {
	file := filepath.Join(t.TempDir(), "phantom.mrd")

	out, err := run(t, "generate", file, "--matrix", "16", "--coils", "2", "--noise-calibration")
	require.NoError(t, err)
	require.Contains(t, out, "Wrote 17 acquisitions")

	out, err = run(t, "generate", file, "/second", "--matrix", "8", "--coils", "1")
	require.NoError(t, err)
	require.Contains(t, out, "Wrote 8 acquisitions")

	_, err = run(t, "generate", file, "--matrix", "8")
	require.ErrorIs(t, err, ismrmrd.ErrAlreadyExists)
	_, err = run(t, "generate", file, "--matrix", "8", "--overwrite")
	require.NoError(t, err)

	out, err = run(t, "info", file)
	require.NoError(t, err)
	require.Contains(t, out, `Dataset "/dataset":`)
	require.Contains(t, out, `Dataset "/second":`)
	require.Contains(t, out, "Records: 8")
	require.Contains(t, out, "Arrays: [coil_images csm phantom]")

	out, err = run(t, "dump", file, "/second", "--index", "0")
	require.NoError(t, err)
	require.Contains(t, out, "Record 0: acquisition")
	require.Contains(t, out, "FIRST_IN_SLICE")
	require.Contains(t, out, "samples: 16")

	out, err = run(t, "dump", file, "--xml")
	require.NoError(t, err)
	require.Contains(t, out, "<receiverChannels>8</receiverChannels>")

	_, err = run(t, "dump", file, "--index", "99")
	require.ErrorIs(t, err, ismrmrd.ErrOutOfRange)

	out, err = run(t, "stats", file, "/second")
	require.NoError(t, err)
	require.Contains(t, out, "Records: 8")
	require.Contains(t, out, "acquisition: 8")
	require.Contains(t, out, "kspace_encode_step_1: 0..7")
	require.Contains(t, out, "CHANNEL")
}

func TestStatsNoiseLevel(t *testing.T) {
	file := filepath.Join(t.TempDir(), "noise.mrd")
	_, err := run(t, "generate", file, "--matrix", "8", "--coils", "2", "--noise-calibration")
	require.NoError(t, err)

	out, err := run(t, "stats", file)
	require.NoError(t, err)
	require.Contains(t, out, "Noise scans: 1")
	require.Contains(t, out, "Noise std-dev:")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ismrmrd.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
storage:
  compression: 4
  shuffle: true
dataset:
  path: /configured
phantom:
  matrix: 8
  coils: 3
`), 0644))

	file := filepath.Join(dir, "c.mrd")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfgPath, "generate", file})
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "Wrote 8 acquisitions to "+file+":/configured")

	d, err := ismrmrd.OpenDataset(file, "/configured", ismrmrd.ReadOnly)
	require.NoError(t, err)
	defer d.Close()
	acq, err := d.ReadAcquisition(0)
	require.NoError(t, err)
	require.Equal(t, uint16(3), acq.Head().ActiveChannels)
}

func TestErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.mrd")
	_, err := run(t, "info", missing)
	require.ErrorIs(t, err, ismrmrd.ErrNotFound)

	_, err = run(t, "generate", missing, "--matrix", "7")
	require.Error(t, err)

	_, err = run(t, "info")
	require.Error(t, err)
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "phantom.mrd")
	_, err := run(t, "generate", file, "--matrix", "8", "--coils", "2")
	require.NoError(t, err)

	h5 := filepath.Join(dir, "phantom.h5")
	out, err := run(t, "export", file, h5)
	require.NoError(t, err)
	require.Contains(t, out, "Exported "+file+" to "+h5)

	copied := filepath.Join(dir, "copy.mrd")
	out, err = run(t, "import", h5, copied)
	require.NoError(t, err)
	require.Contains(t, out, "Imported /dataset")

	out, err = run(t, "info", copied)
	require.NoError(t, err)
	require.Contains(t, out, `Dataset "/dataset":`)
	require.Contains(t, out, "Records: 8")
	require.Contains(t, out, "Arrays: [coil_images csm phantom]")

	_, err = run(t, "import", h5, copied)
	require.ErrorIs(t, err, ismrmrd.ErrAlreadyExists)

	stream := filepath.Join(dir, "phantom.bin")
	_, err = run(t, "export", "--format", "stream", file, stream)
	require.NoError(t, err)
	out, err = run(t, "import", "--format", "stream", stream, copied, "/streamed")
	require.NoError(t, err)
	require.Contains(t, out, "Imported 8 records to /streamed")

	_, err = run(t, "export", "--format", "zip", file, stream)
	require.Error(t, err)
}
