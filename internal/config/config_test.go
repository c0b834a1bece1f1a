// ABOUTME: Tests for configuration validation and tier parsing
// ABOUTME: Covers fatal startup diagnostics and env merging
package config

import (
	"testing"

	"github.com/Calliope-Cast/calliope-go/internal/streaming"
)

func validConfig() Config {
	c := Defaults()
	c.Token = "token"
	c.GatewayAddr = "ws://localhost:9000/ws"
	c.WatchedID = "123456789"
	c.Username = "user"
	c.Password = "pass"
	return c
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateFatalFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Token = "" }},
		{"missing gateway", func(c *Config) { c.GatewayAddr = "" }},
		{"missing watched ID", func(c *Config) { c.WatchedID = "" }},
		{"non-numeric watched ID", func(c *Config) { c.WatchedID = "not-a-number" }},
		{"missing username", func(c *Config) { c.Username = "" }},
		{"missing password", func(c *Config) { c.Password = "" }},
		{"zero input rate", func(c *Config) { c.InputRate = 0 }},
		{"negative output rate", func(c *Config) { c.OutputRate = -1 }},
		{"zero channels", func(c *Config) { c.Channels = 0 }},
		{"zero bridge capacity", func(c *Config) { c.BridgeCapacity = 0 }},
		{"bogus volume mode", func(c *Config) { c.VolumeMode = "loudness" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("CALLIOPE_TOKEN", "env-token")
	t.Setenv("CALLIOPE_USER_ID", "42")
	t.Setenv("CALLIOPE_GATEWAY", "ws://gw:1234/ws")

	c := Defaults()
	c.FromEnv()

	if c.Token != "env-token" {
		t.Errorf("Token = %q", c.Token)
	}
	if c.WatchedID != "42" {
		t.Errorf("WatchedID = %q", c.WatchedID)
	}
	if c.GatewayAddr != "ws://gw:1234/ws" {
		t.Errorf("GatewayAddr = %q", c.GatewayAddr)
	}
}

func TestFromEnvDoesNotClobber(t *testing.T) {
	t.Setenv("CALLIOPE_TOKEN", "")

	c := Defaults()
	c.Token = "flag-token"
	c.FromEnv()

	if c.Token != "flag-token" {
		t.Errorf("empty env var clobbered flag value: %q", c.Token)
	}
}

func TestParseBitrate(t *testing.T) {
	cases := []struct {
		in   string
		want streaming.Bitrate
		ok   bool
	}{
		{"96", streaming.Bitrate96, true},
		{"160", streaming.Bitrate160, true},
		{"320", streaming.Bitrate320, true},
		{"", streaming.Bitrate320, true},
		{"128", 0, false},
	}

	for _, tc := range cases {
		got, err := ParseBitrate(tc.in)
		if tc.ok && err != nil {
			t.Errorf("ParseBitrate(%q) error: %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseBitrate(%q) expected error", tc.in)
		}
		if got != tc.want {
			t.Errorf("ParseBitrate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestBitrateBps(t *testing.T) {
	c := validConfig()

	c.Bitrate = streaming.Bitrate96
	if got := c.BitrateBps(); got != 96000 {
		t.Errorf("Bitrate96 bps = %d", got)
	}
	c.Bitrate = streaming.Bitrate160
	if got := c.BitrateBps(); got != 160000 {
		t.Errorf("Bitrate160 bps = %d", got)
	}
	c.Bitrate = streaming.Bitrate320
	if got := c.BitrateBps(); got != 320000 {
		t.Errorf("Bitrate320 bps = %d", got)
	}
}

func TestVolumePolicy(t *testing.T) {
	c := validConfig()

	c.VolumeMode = "fixed"
	if _, ok := c.VolumePolicy(nil).(streaming.FixedVolume); !ok {
		t.Error("fixed mode did not yield FixedVolume")
	}

	c.VolumeMode = "adjustable"
	if _, ok := c.VolumePolicy(nil).(*streaming.AdjustableVolume); !ok {
		t.Error("adjustable mode did not yield AdjustableVolume")
	}

	c.VolumeMode = "external"
	if _, ok := c.VolumePolicy(nil).(*streaming.AdjustableVolume); !ok {
		t.Error("external mode without a hook must fall back to AdjustableVolume")
	}
}
