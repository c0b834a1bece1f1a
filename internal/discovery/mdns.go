// ABOUTME: mDNS advertisement of the cast device
// ABOUTME: Lets the streaming service's zeroconf discovery offer this bridge as a playback target
package discovery

import (
	"fmt"
	"log"
	"net"
	"os"

	"github.com/hashicorp/mdns"
)

// Config holds advertisement settings.
type Config struct {
	DeviceName string
	DeviceID   string
	Port       int
}

// Advertiser announces the cast device on the local network.
type Advertiser struct {
	config Config
	server *mdns.Server
}

// NewAdvertiser creates an advertiser.
func NewAdvertiser(config Config) *Advertiser {
	return &Advertiser{config: config}
}

// Start begins advertising the _calliope-cast._tcp service.
func (a *Advertiser) Start() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "calliope"
	}

	info := []string{
		fmt.Sprintf("device_id=%s", a.config.DeviceID),
		fmt.Sprintf("name=%s", a.config.DeviceName),
	}

	service, err := mdns.NewMDNSService(
		a.config.DeviceName,
		"_calliope-cast._tcp",
		"",
		fmt.Sprintf("%s.", hostname),
		a.config.Port,
		ips,
		info,
	)
	if err != nil {
		return fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to start mDNS server: %w", err)
	}

	a.server = server
	log.Printf("Advertising cast device %q on port %d", a.config.DeviceName, a.config.Port)
	return nil
}

// Stop stops advertising.
func (a *Advertiser) Stop() {
	if a.server != nil {
		a.server.Shutdown()
	}
}

// getLocalIPs returns non-loopback unicast addresses.
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ipNet.IP.To4() != nil {
			ips = append(ips, ipNet.IP)
		}
	}

	if len(ips) == 0 {
		return nil, fmt.Errorf("no usable network interfaces found")
	}

	return ips, nil
}
