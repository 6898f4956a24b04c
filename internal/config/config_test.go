package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-ismrmrd/ismrmrd"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	require.Equal(t, ismrmrd.DefaultPath, cfg.Dataset.Path)
	require.Equal(t, ismrmrd.DefaultLockTimeout, cfg.Storage.LockTimeout)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ismrmrd.yaml")
	data := []byte(`
storage:
  compression: 6
  shuffle: true
  lockTimeout: 250ms
logging:
  level: debug
dataset:
  path: /scan/one
phantom:
  matrix: 64
  coils: 4
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 6, cfg.Storage.Compression)
	require.True(t, cfg.Storage.Shuffle)
	require.False(t, cfg.Storage.Fletcher32)
	require.Equal(t, 250*time.Millisecond, cfg.Storage.LockTimeout)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "/scan/one", cfg.Dataset.Path)
	require.Equal(t, 64, cfg.Phantom.Matrix)
	require.Equal(t, 4, cfg.Phantom.Coils)
	// Unset phantom fields keep their defaults.
	require.Equal(t, 2, cfg.Phantom.Oversampling)

	require.Len(t, cfg.DatasetOptions(), 2)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"syntax", "storage: [1, 2"},
		{"compression", "storage:\n  compression: 12\n"},
		{"level", "logging:\n  level: loud\n"},
		{"path", "dataset:\n  path: /a/../b\n"},
		{"phantom", "phantom:\n  matrix: 33\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))
			_, err := LoadConfig(path)
			require.Error(t, err)
		})
	}
}

func TestSaveConfigRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ismrmrd.yaml")
	cfg := DefaultConfig()
	cfg.Storage.Compression = 3
	cfg.Storage.Fletcher32 = true
	cfg.Storage.EncodingCheck = true
	cfg.Logging.JSON = true
	cfg.Phantom.Acceleration = 2

	require.NoError(t, SaveConfig(cfg, path))
	got, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, cfg, got)
	require.Len(t, got.DatasetOptions(), 3)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Logging.Level = "warn"
	cfg.Logging.JSON = true

	logger, err := cfg.NewLogger(&buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "path", "/dataset")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"message":"shown"`)
	require.Contains(t, buf.String(), `"path":"/dataset"`)

	cfg.Logging.Level = "nope"
	_, err = cfg.NewLogger(&buf)
	require.Error(t, err)
}

func TestOptionsOpenDataset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Compression = 1
	cfg.Storage.Shuffle = true

	logger, err := cfg.NewLogger(&bytes.Buffer{})
	require.NoError(t, err)

	f, err := ismrmrd.Create(filepath.Join(t.TempDir(), "c.mrd"), cfg.FileOptions(logger)...)
	require.NoError(t, err)
	defer f.Close()

	d, err := f.OpenDataset(cfg.Dataset.Path, ismrmrd.ReadWrite, append(cfg.DatasetOptions(), ismrmrd.WithCreate())...)
	require.NoError(t, err)
	w, err := ismrmrd.NewWaveform(ismrmrd.WaveformHeader{Version: ismrmrd.Version, NumberOfSamples: 4, Channels: 1}, []uint32{1, 2, 3, 4})
	require.NoError(t, err)
	_, err = d.AppendWaveform(w)
	require.NoError(t, err)

	got, err := d.ReadWaveform(0)
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3, 4}, got.Data())
}
