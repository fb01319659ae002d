// Package ipchecker restricts the debug listings to callers from a
// configured trusted subnet. The client address is taken from the
// X-Real-IP header, then X-Forwarded-For, then the connection address.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// IPChecker validates whether a request originates from the trusted subnet.
type IPChecker struct {
	trustedSubnet *net.IPNet
}

// New creates an IPChecker for a subnet in CIDR notation. An empty
// subnet produces a disabled checker that trusts nobody.
func New(trustedSubnet string) (*IPChecker, error) {
	if trustedSubnet == "" {
		return &IPChecker{}, nil
	}

	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/New(): error while `net.ParseCIDR()` calling: %w", err)
	}

	return &IPChecker{trustedSubnet: allowedNet}, nil
}

// CheckRequest reports whether the request's client IP belongs to the
// trusted subnet. With no subnet configured it always reports false.
func (checker *IPChecker) CheckRequest(request *http.Request) bool {
	if checker.trustedSubnet == nil {
		return false
	}

	clientIP, err := clientIPFromRequest(request)
	if err != nil || clientIP == nil {
		return false
	}

	return checker.trustedSubnet.Contains(clientIP)
}

func clientIPFromRequest(request *http.Request) (net.IP, error) {
	if ip := net.ParseIP(request.Header.Get("X-Real-IP")); ip != nil {
		return ip, nil
	}

	if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		return net.ParseIP(first), nil
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/clientIPFromRequest(): error while `net.SplitHostPort()` calling: %w", err)
	}

	return net.ParseIP(host), nil
}
