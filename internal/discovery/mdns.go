// Package discovery advertises the amrx server on the local network over
// mDNS so players can find it without configuration.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/hashicorp/mdns"
)

// ServiceType is the advertised mDNS service type.
const ServiceType = "_amrx._tcp"

// Config describes one advertised server instance.
type Config struct {
	// Instance is the service instance name, e.g. "amrx".
	Instance string

	// Port is the TCP/UDP port the server listens on.
	Port int

	// CertHash is the base64 SHA-256 fingerprint of the server's
	// self-signed certificate, published so clients can pin it.
	CertHash string

	// Log is the advertiser's logger. Nil means slog.Default().
	Log *slog.Logger
}

// Advertise publishes the service until ctx is cancelled. It returns after
// registration; shutdown happens in the background when ctx ends.
func Advertise(ctx context.Context, cfg Config) error {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "discovery")

	host, err := os.Hostname()
	if err != nil {
		host = "amrx"
	}
	ips, err := localIPs()
	if err != nil {
		return fmt.Errorf("discovery: enumerate addresses: %w", err)
	}

	service, err := mdns.NewMDNSService(
		cfg.Instance,
		ServiceType,
		"",
		host+".",
		cfg.Port,
		ips,
		txtRecords(cfg),
	)
	if err != nil {
		return fmt.Errorf("discovery: create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("discovery: start responder: %w", err)
	}

	log.Info("mDNS advertisement started",
		"instance", cfg.Instance,
		"type", ServiceType,
		"port", cfg.Port)

	go func() {
		<-ctx.Done()
		if err := server.Shutdown(); err != nil {
			log.Warn("mDNS shutdown", "error", err)
		}
	}()
	return nil
}

// txtRecords builds the advertised TXT strings.
func txtRecords(cfg Config) []string {
	txt := []string{"api=/api/files"}
	if cfg.CertHash != "" {
		txt = append(txt, "certhash="+cfg.CertHash)
	}
	return txt
}

// localIPs returns the machine's non-loopback IPv4 addresses.
func localIPs() ([]net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}
	if len(ips) == 0 {
		// No routable interface; advertise loopback so local clients
		// still resolve.
		ips = append(ips, net.IPv4(127, 0, 0, 1))
	}
	return ips, nil
}
