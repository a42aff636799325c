package model

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Table names used by the pool.
const (
	// TableRaw holds proxies that have not been validated yet. Values are empty markers.
	TableRaw = "raw_proxy"
	// TableUseful holds validated proxies. Values are health counters.
	TableUseful = "useful_proxy"
)

// DefaultScore is the health counter a freshly validated proxy starts with.
const DefaultScore = "1"

// Proxy represents a proxy server endpoint.
type Proxy struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

// Address returns the "ip:port" string used as the hash field.
func (p *Proxy) Address() string {
	return net.JoinHostPort(p.IP, strconv.Itoa(p.Port))
}

// ParseAddress parses an "ip:port" string. IPv6 hosts are bracketed, as in "[::1]:8080".
func ParseAddress(addr string) (*Proxy, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil || host == "" {
		return nil, fmt.Errorf("invalid proxy address %q", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid proxy port in %q", addr)
	}
	return &Proxy{IP: host, Port: port}, nil
}

// Entry is a field removed from a table by Pop.
// Value is nil when the field was missing at read time but present again at delete time.
type Entry struct {
	Proxy string  `json:"proxy"`
	Value *string `json:"value"`
}

// Score returns the value as a health counter.
func (e *Entry) Score() (int64, bool) {
	if e == nil || e.Value == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(*e.Value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
