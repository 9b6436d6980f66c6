package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/dbehnke/wisunfsk/internal/codec"
	"github.com/dbehnke/wisunfsk/internal/protocol/wisun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	config := NewConfig("")

	assert.Equal(t, log.InfoLevel, config.GetLogLevel())
	assert.Equal(t, "", config.GetTimestampFormat())
	assert.Equal(t, 64, config.GetPreambleLength())
	assert.Equal(t, wisun.SFDUncoded0, config.GetSFD())
	assert.Equal(t, codec.NRNSC, config.GetFEC())
	assert.False(t, config.GetFECConfigured())
	assert.True(t, config.GetWhitening())
	assert.False(t, config.GetModeSwitch())
	assert.False(t, config.GetSkipVerify())
	assert.Equal(t, -1, config.GetMaxFECDistance())
	assert.False(t, config.GetCaptureEnabled())
	assert.Equal(t, "data/frames.db", config.GetCapturePath())
	assert.False(t, config.GetCaptureDebug())
}

func TestConfig_LoadFromFile(t *testing.T) {
	testConfig := `log:
  level: debug
  timestamp_format: "%H:%M:%S"

codec:
  preamble_length: 32
  sfd: coded1
  fec: rsc
  whitening: false
  mode_switch: true
  skip_verify: true
  max_fec_distance: 6

capture:
  enabled: true
  path: frames.db
  debug: true
`

	path := filepath.Join(t.TempDir(), "wisunfsk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))

	config := NewConfig(path)
	require.NoError(t, config.Load())

	assert.Equal(t, log.DebugLevel, config.GetLogLevel())
	assert.Equal(t, "%H:%M:%S", config.GetTimestampFormat())
	assert.Equal(t, 32, config.GetPreambleLength())
	assert.Equal(t, wisun.SFDCoded1, config.GetSFD())
	assert.Equal(t, codec.RSC, config.GetFEC())
	assert.True(t, config.GetFECConfigured())
	assert.False(t, config.GetWhitening())
	assert.True(t, config.GetModeSwitch())
	assert.True(t, config.GetSkipVerify())
	assert.Equal(t, 6, config.GetMaxFECDistance())
	assert.True(t, config.GetCaptureEnabled())
	assert.Equal(t, "frames.db", config.GetCapturePath())
	assert.True(t, config.GetCaptureDebug())

	assert.Equal(t, wisun.Options{ModeSwitch: true, Code: codec.RSC}, config.EncodeOptions())
}

func TestConfig_PartialOverride(t *testing.T) {
	config := NewConfig("")
	require.NoError(t, config.LoadFromString("codec:\n  sfd: uncoded1\n"))

	assert.Equal(t, wisun.SFDUncoded1, config.GetSFD())
	assert.Equal(t, 64, config.GetPreambleLength())
	assert.True(t, config.GetWhitening())
	assert.Equal(t, codec.NRNSC, config.GetFEC())
}

func TestConfig_MissingFile(t *testing.T) {
	config := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	err := config.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "codec: [\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"odd preamble", "codec:\n  preamble_length: 12\n"},
		{"zero preamble", "codec:\n  preamble_length: 0\n"},
		{"bad sfd", "codec:\n  sfd: coded7\n"},
		{"bad fec", "codec:\n  fec: turbo\n"},
		{"capture without path", "capture:\n  enabled: true\n  path: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewConfig("")
			assert.Error(t, config.LoadFromString(tt.data))
		})
	}
}
