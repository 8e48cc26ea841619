package payfast

import (
	"encoding/binary"
	"net"
	"net/http"
	"strings"
)

// Gateway notification source range 197.97.145.144/28.
var (
	gatewayRangeStart = ipv4ToUint32(net.IPv4(197, 97, 145, 144))
	gatewayRangeEnd   = ipv4ToUint32(net.IPv4(197, 97, 145, 159))
)

// ClientIP returns the caller address from proxy headers in priority order,
// falling back to the connection's remote host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	for _, h := range []string{"X-Real-IP", "CF-Connecting-IP"} {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			return v
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// IsGatewayIP reports whether ip is an IPv4 address inside the gateway range.
func IsGatewayIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.To4() == nil {
		return false
	}
	n := ipv4ToUint32(parsed)
	return n >= gatewayRangeStart && n <= gatewayRangeEnd
}

func ipv4ToUint32(ip net.IP) uint32 {
	return binary.BigEndian.Uint32(ip.To4())
}
