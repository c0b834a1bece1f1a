// ABOUTME: Tests for the mDNS advertiser
// ABOUTME: Lifecycle safety without touching the network
package discovery

import "testing"

func TestStopBeforeStart(t *testing.T) {
	a := NewAdvertiser(Config{DeviceName: "Calliope", Port: 5353})
	a.Stop() // no server yet; must be a no-op
}

func TestGetLocalIPsRejectsLoopbackOnly(t *testing.T) {
	ips, err := getLocalIPs()
	if err != nil {
		// Machines with no usable interfaces are a valid environment
		t.Skipf("no usable interfaces: %v", err)
	}
	for _, ip := range ips {
		if ip.IsLoopback() {
			t.Errorf("loopback address %s advertised", ip)
		}
		if ip.To4() == nil {
			t.Errorf("non-IPv4 address %s advertised", ip)
		}
	}
}
