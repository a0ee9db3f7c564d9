package utils

import (
	"fmt"
	"net"
	"net/http"
)

// AllowList matches addresses against a fixed set of CIDR blocks.
type AllowList struct {
	blocks []*net.IPNet
}

func NewAllowList(cidrs []string) (*AllowList, error) {
	al := &AllowList{}
	for _, cidr := range cidrs {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
		}
		al.blocks = append(al.blocks, block)
	}
	return al, nil
}

// Contains reports whether ip falls in any block. An empty list allows everything.
func (al *AllowList) Contains(ip string) bool {
	if len(al.blocks) == 0 {
		return true
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, block := range al.blocks {
		if block.Contains(parsed) {
			return true
		}
	}
	return false
}

// RemoteIP returns the host part of r.RemoteAddr.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
