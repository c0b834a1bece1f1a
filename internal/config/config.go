// ABOUTME: Configuration loading and validation
// ABOUTME: Merges command-line flags with environment variables
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Calliope-Cast/calliope-go/internal/bridge"
	"github.com/Calliope-Cast/calliope-go/internal/streaming"
)

// Config holds the full bridge configuration.
type Config struct {
	// Voice gateway
	GatewayAddr string
	Token       string
	WatchedID   string

	// Streaming service credentials
	Username string
	Password string
	CacheDir string

	// Cast device
	DeviceName    string
	DeviceType    string
	InitialVolume uint16
	VolumeMode    string // "fixed", "adjustable", "external"
	Bitrate       streaming.Bitrate

	// Audio path
	InputRate      int
	OutputRate     int
	Channels       int
	BridgeCapacity int

	// Observability
	MetricsAddr string
	LogFile     string
	NoTUI       bool

	// Discovery
	AdvertisePort int
}

// Defaults returns a config with all tunables at their defaults.
func Defaults() Config {
	return Config{
		DeviceName:     "Calliope",
		DeviceType:     "speaker",
		InitialVolume:  32768,
		VolumeMode:     "fixed",
		Bitrate:        streaming.Bitrate320,
		InputRate:      44100,
		OutputRate:     48000,
		Channels:       2,
		BridgeCapacity: bridge.DefaultCapacity,
		LogFile:        "calliope.log",
		AdvertisePort:  5353,
	}
}

// FromEnv fills credential and identity fields from the environment.
func (c *Config) FromEnv() {
	if v := os.Getenv("CALLIOPE_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("CALLIOPE_USER_ID"); v != "" {
		c.WatchedID = v
	}
	if v := os.Getenv("CALLIOPE_USERNAME"); v != "" {
		c.Username = v
	}
	if v := os.Getenv("CALLIOPE_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("CALLIOPE_CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("CALLIOPE_GATEWAY"); v != "" {
		c.GatewayAddr = v
	}
}

// Validate checks that startup can proceed. Failures here are fatal:
// a bridge with no call context or an unparseable watched identity
// cannot do anything useful.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("config: missing gateway token (set CALLIOPE_TOKEN)")
	}
	if c.GatewayAddr == "" {
		return fmt.Errorf("config: missing gateway address (set CALLIOPE_GATEWAY or -gateway)")
	}
	if c.WatchedID == "" {
		return fmt.Errorf("config: missing watched user ID (set CALLIOPE_USER_ID)")
	}
	if _, err := strconv.ParseUint(c.WatchedID, 10, 64); err != nil {
		return fmt.Errorf("config: watched user ID %q is not a valid numeric ID: %w", c.WatchedID, err)
	}
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("config: missing streaming credentials (set CALLIOPE_USERNAME and CALLIOPE_PASSWORD)")
	}
	if c.InputRate <= 0 || c.OutputRate <= 0 {
		return fmt.Errorf("config: sample rates must be positive (input=%d output=%d)", c.InputRate, c.OutputRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("config: channel count must be positive (got %d)", c.Channels)
	}
	if c.BridgeCapacity <= 0 {
		return fmt.Errorf("config: bridge capacity must be positive (got %d)", c.BridgeCapacity)
	}
	switch c.VolumeMode {
	case "fixed", "adjustable", "external":
	default:
		return fmt.Errorf("config: unknown volume mode %q (fixed, adjustable, external)", c.VolumeMode)
	}
	return nil
}

// VolumePolicy builds the configured volume capability.
func (c *Config) VolumePolicy(external *streaming.ExternalVolume) streaming.VolumePolicy {
	switch c.VolumeMode {
	case "adjustable":
		return streaming.NewAdjustableVolume(c.InitialVolume)
	case "external":
		if external != nil {
			return *external
		}
		return streaming.NewAdjustableVolume(c.InitialVolume)
	default:
		return streaming.FixedVolume{Level: c.InitialVolume}
	}
}

// BitrateBps maps the quality tier to the transport bitrate.
func (c *Config) BitrateBps() int {
	switch c.Bitrate {
	case streaming.Bitrate96:
		return 96000
	case streaming.Bitrate160:
		return 160000
	default:
		return 320000
	}
}

// ParseBitrate converts a tier string to a Bitrate.
func ParseBitrate(s string) (streaming.Bitrate, error) {
	switch s {
	case "96":
		return streaming.Bitrate96, nil
	case "160":
		return streaming.Bitrate160, nil
	case "320", "":
		return streaming.Bitrate320, nil
	default:
		return 0, fmt.Errorf("config: unknown bitrate tier %q (96, 160, 320)", s)
	}
}
