// Package netinfo resolves the address operators should connect to.
package netinfo

import (
	"net"
)

// probeAddr is only dialed on paper: UDP connect never sends a packet,
// it just asks the kernel which source address would route there.
const probeAddr = "8.8.8.8:80"

// PrimaryIP returns the host's primary outbound IPv4 address. When the
// routing probe fails (no default route, airgapped host) it falls back
// to enumerating interfaces, and finally to loopback.
func PrimaryIP() string {
	if ip := outboundIP(); ip != "" {
		return ip
	}
	if ip := interfaceIP(); ip != "" {
		return ip
	}
	return "127.0.0.1"
}

func outboundIP() string {
	conn, err := net.Dial("udp4", probeAddr)
	if err != nil {
		return ""
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP.IsLoopback() {
		return ""
	}
	return addr.IP.String()
}

// interfaceIP returns the first global unicast IPv4 address on an
// interface that is up and not loopback.
func interfaceIP() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipnet.IP.To4()
			if ip == nil || !ip.IsGlobalUnicast() {
				continue
			}
			return ip.String()
		}
	}
	return ""
}
