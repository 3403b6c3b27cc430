package config

import (
	"os"
	"path/filepath"
	"testing"

	segment "github.com/getcharzp/go-segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sam2.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	ec := cfg.EngineConfig()
	assert.Equal(t, float32(0.25), ec.MaskThreshold)
	assert.Equal(t, 4, ec.ScaleFactor)
	assert.Equal(t, 10000, ec.MinMaskArea)
	assert.Equal(t, segment.DeviceCPU, ec.Device)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
model:
  onnxruntime_lib: /opt/ort/libonnxruntime.so
  encoder: /models/encoder.onnx
  decoder: /models/decoder.onnx
  device: gpu
  mask_threshold: 0
  scale_factor: 8
output:
  dir: /tmp/out
  overlay: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	ec := cfg.EngineConfig()
	assert.Equal(t, "/models/encoder.onnx", ec.EncodeModelPath)
	assert.Equal(t, segment.DeviceGPU, ec.Device)
	assert.Zero(t, ec.MaskThreshold)
	assert.Equal(t, 8, ec.ScaleFactor)
	assert.Equal(t, 10000, ec.MinMaskArea)
	assert.True(t, cfg.Output.Overlay)
	assert.Equal(t, 0.5, cfg.Output.Alpha)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvEncoder, "/env/encoder.onnx")
	t.Setenv(EnvThreshold, "0.5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/env/encoder.onnx", cfg.Model.Encoder)
	assert.Equal(t, float32(0.5), cfg.EngineConfig().MaskThreshold)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "model:\n  device: tpu\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv(EnvThreshold, "abc")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoad_ZeroMinMaskArea(t *testing.T) {
	cfg, err := Load(writeConfig(t, "model:\n  min_mask_area: 0\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.EngineConfig().MinMaskArea)
}
