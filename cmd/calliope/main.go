// ABOUTME: Entry point for the Calliope bridge
// ABOUTME: Parses flags and environment, then runs the bridge application
package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Calliope-Cast/calliope-go/internal/app"
	"github.com/Calliope-Cast/calliope-go/internal/config"
	"github.com/Calliope-Cast/calliope-go/internal/metrics"
	"github.com/Calliope-Cast/calliope-go/internal/streaming/remote"
)

var (
	gatewayAddr = flag.String("gateway", "", "Voice gateway address (host:port)")
	daemonAddr  = flag.String("daemon", "localhost:3678", "Streaming daemon API address (host:port)")
	deviceName  = flag.String("name", "", "Cast device display name (default: Calliope)")
	bitrateTier = flag.String("bitrate", "320", "Streaming quality tier (96, 160, 320)")
	volumeMode  = flag.String("volume-mode", "fixed", "Volume policy (fixed, adjustable, external)")
	bridgeCap   = flag.Int("bridge-capacity", 0, "Byte bridge capacity (default: 24)")
	metricsAddr = flag.String("metrics-addr", "", "Prometheus metrics address (empty: disabled)")
	logFile     = flag.String("log-file", "calliope.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	cfg := config.Defaults()
	cfg.FromEnv()

	if *gatewayAddr != "" {
		cfg.GatewayAddr = *gatewayAddr
	}
	if *deviceName != "" {
		cfg.DeviceName = *deviceName
	}
	if *bridgeCap > 0 {
		cfg.BridgeCapacity = *bridgeCap
	}
	cfg.VolumeMode = *volumeMode
	cfg.MetricsAddr = *metricsAddr
	cfg.LogFile = *logFile
	cfg.NoTUI = *noTUI

	tier, err := config.ParseBitrate(*bitrateTier)
	if err != nil {
		log.Fatalf("%v", err)
	}
	cfg.Bitrate = tier

	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	// Set up logging
	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if cfg.NoTUI {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	} else {
		log.SetOutput(f)
	}

	log.Printf("Starting Calliope bridge: %s", cfg.DeviceName)

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		m = metrics.New()
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	daemon := remote.NewClient(remote.Config{
		Addr:     *daemonAddr,
		Username: cfg.Username,
		Password: cfg.Password,
	})

	bridge := app.New(cfg, daemon.Provider(), m)

	// Shut down cleanly on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received %v, shutting down", sig)
		bridge.Stop()
	}()

	if err := bridge.Start(); err != nil {
		log.Fatalf("Bridge failed: %v", err)
	}

	bridge.Stop()
	log.Printf("Bridge stopped")
}
