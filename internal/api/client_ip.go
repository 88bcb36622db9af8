package api

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ClientIPResolver resolves the client IP used for the one-registration-per-
// address gate and for rate limiting. Forwarding headers are only honored
// when the immediate peer is inside a trusted proxy CIDR.
type ClientIPResolver struct {
	trustedProxyNets []*net.IPNet
}

func NewClientIPResolver(trustedProxyCIDRs []string) (*ClientIPResolver, error) {
	resolver := &ClientIPResolver{}

	for _, raw := range trustedProxyCIDRs {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}

		if ip := net.ParseIP(value); ip != nil {
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			resolver.trustedProxyNets = append(resolver.trustedProxyNets, &net.IPNet{
				IP:   ip,
				Mask: net.CIDRMask(bits, bits),
			})
			continue
		}

		_, network, err := net.ParseCIDR(value)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy CIDR %q: %w", value, err)
		}
		resolver.trustedProxyNets = append(resolver.trustedProxyNets, network)
	}

	return resolver, nil
}

func (r *ClientIPResolver) Resolve(req *http.Request) string {
	peerIP := parseIPValue(stripPort(req.RemoteAddr))
	if peerIP == nil {
		return "unknown"
	}

	if r.isTrustedProxy(peerIP) {
		for _, part := range strings.Split(req.Header.Get("X-Forwarded-For"), ",") {
			if ip := parseIPValue(part); ip != nil {
				return ip.String()
			}
		}
		if ip := parseIPValue(req.Header.Get("X-Real-IP")); ip != nil {
			return ip.String()
		}
	}

	return peerIP.String()
}

func (r *ClientIPResolver) isTrustedProxy(ip net.IP) bool {
	for _, network := range r.trustedProxyNets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func stripPort(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

func parseIPValue(value string) net.IP {
	value = strings.Trim(strings.TrimSpace(value), `"[]`)
	if value == "" {
		return nil
	}
	return net.ParseIP(value)
}
