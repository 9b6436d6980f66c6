package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dbehnke/wisunfsk/internal/codec"
	"github.com/dbehnke/wisunfsk/internal/protocol/wisun"
	"gopkg.in/yaml.v3"
)

// Config represents the wisunfsk configuration
type Config struct {
	filename string

	// Log section
	logLevel        log.Level
	timestampFormat string

	// Codec section
	preambleLength int
	sfd            wisun.SFDType
	fec            codec.Code
	fecConfigured  bool
	whitening      bool
	modeSwitch     bool
	skipVerify     bool
	maxFECDistance int

	// Capture section
	captureEnabled bool
	capturePath    string
	captureDebug   bool
}

// file mirrors the YAML layout. Pointers tell an absent key from a zero value.
type file struct {
	Log struct {
		Level           *string `yaml:"level"`
		TimestampFormat *string `yaml:"timestamp_format"`
	} `yaml:"log"`

	Codec struct {
		PreambleLength *int    `yaml:"preamble_length"`
		SFD            *string `yaml:"sfd"`
		FEC            *string `yaml:"fec"`
		Whitening      *bool   `yaml:"whitening"`
		ModeSwitch     *bool   `yaml:"mode_switch"`
		SkipVerify     *bool   `yaml:"skip_verify"`
		MaxFECDistance *int    `yaml:"max_fec_distance"`
	} `yaml:"codec"`

	Capture struct {
		Enabled *bool   `yaml:"enabled"`
		Path    *string `yaml:"path"`
		Debug   *bool   `yaml:"debug"`
	} `yaml:"capture"`
}

// NewConfig creates a new configuration instance
func NewConfig(filename string) *Config {
	return &Config{
		filename: filename,

		logLevel: log.InfoLevel,

		preambleLength: 64,
		sfd:            wisun.SFDUncoded0,
		fec:            codec.NRNSC,
		whitening:      true,
		maxFECDistance: -1,

		// Capture is disabled by default
		capturePath: "data/frames.db",
	}
}

// Load loads configuration from the specified file
func (c *Config) Load() error {
	data, err := os.ReadFile(c.filename)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", c.filename, err)
	}
	return c.parse(data)
}

// LoadFromString loads configuration from a string (useful for testing)
func (c *Config) LoadFromString(data string) error {
	return c.parse([]byte(data))
}

func (c *Config) parse(data []byte) error {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if f.Log.Level != nil {
		level, err := log.ParseLevel(strings.TrimSpace(*f.Log.Level))
		if err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
		c.logLevel = level
	}
	if f.Log.TimestampFormat != nil {
		c.timestampFormat = *f.Log.TimestampFormat
	}

	if f.Codec.PreambleLength != nil {
		n := *f.Codec.PreambleLength
		if n < wisun.PREAMBLE_BITS || n%wisun.PREAMBLE_BITS != 0 {
			return fmt.Errorf("codec.preamble_length must be a positive multiple of %d, got %d", wisun.PREAMBLE_BITS, n)
		}
		c.preambleLength = n
	}
	if f.Codec.SFD != nil {
		sfd, err := wisun.ParseSFD(*f.Codec.SFD)
		if err != nil {
			return fmt.Errorf("codec.sfd: %w", err)
		}
		c.sfd = sfd
	}
	if f.Codec.FEC != nil {
		code, err := codec.ParseCode(*f.Codec.FEC)
		if err != nil {
			return fmt.Errorf("codec.fec: %w", err)
		}
		c.fec = code
		c.fecConfigured = true
	}
	if f.Codec.Whitening != nil {
		c.whitening = *f.Codec.Whitening
	}
	if f.Codec.ModeSwitch != nil {
		c.modeSwitch = *f.Codec.ModeSwitch
	}
	if f.Codec.SkipVerify != nil {
		c.skipVerify = *f.Codec.SkipVerify
	}
	if f.Codec.MaxFECDistance != nil {
		c.maxFECDistance = *f.Codec.MaxFECDistance
	}

	if f.Capture.Enabled != nil {
		c.captureEnabled = *f.Capture.Enabled
	}
	if f.Capture.Path != nil {
		c.capturePath = *f.Capture.Path
	}
	if f.Capture.Debug != nil {
		c.captureDebug = *f.Capture.Debug
	}
	if c.captureEnabled && c.capturePath == "" {
		return fmt.Errorf("capture.path is required when capture.enabled is true")
	}

	return nil
}

// Getter methods for Log section
func (c *Config) GetLogLevel() log.Level { return c.logLevel }
func (c *Config) GetTimestampFormat() string { return c.timestampFormat }

// Getter methods for Codec section
func (c *Config) GetPreambleLength() int { return c.preambleLength }
func (c *Config) GetSFD() wisun.SFDType { return c.sfd }
func (c *Config) GetFEC() codec.Code { return c.fec }

// GetFECConfigured reports whether codec.fec was set. Without it the
// decoder detects the FEC family of each coded frame.
func (c *Config) GetFECConfigured() bool { return c.fecConfigured }
func (c *Config) GetWhitening() bool { return c.whitening }
func (c *Config) GetModeSwitch() bool { return c.modeSwitch }
func (c *Config) GetSkipVerify() bool { return c.skipVerify }
func (c *Config) GetMaxFECDistance() int { return c.maxFECDistance }

// Getter methods for Capture section
func (c *Config) GetCaptureEnabled() bool { return c.captureEnabled }
func (c *Config) GetCapturePath() string { return c.capturePath }
func (c *Config) GetCaptureDebug() bool { return c.captureDebug }

// EncodeOptions returns the frame options described by the Codec section.
func (c *Config) EncodeOptions() wisun.Options {
	return wisun.Options{
		Whitening:  c.whitening,
		ModeSwitch: c.modeSwitch,
		Code:       c.fec,
	}
}
