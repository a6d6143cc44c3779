package mcpot

import (
	"net"

	"github.com/yl2chen/cidranger"
)

// Special-purpose and non-routable ranges.
var privateCIDR = []string{
	"0.0.0.0/32",
	"10.0.0.0/8",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.0.0.0/24",
	"192.0.2.0/24",
	"192.168.0.0/16",
	"198.18.0.0/15",
	"198.51.100.0/24",
	"203.0.113.0/24",
	"::1/128",
	"2001:db8::/32",
	"fc00::/7",
	"fe80::/10",
}

var privateRanger cidranger.Ranger

func init() {
	privateRanger = cidranger.NewPCTrieRanger()
	for _, cidr := range privateCIDR {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		if err := privateRanger.Insert(cidranger.NewBasicRangerEntry(*ipNet)); err != nil {
			panic(err)
		}
	}
}

const (
	ScopePrivate = "private"
	ScopePublic  = "public"
	ScopeUnknown = "unknown"
)

// AddrScope tells whether a remote address is publicly routable.
func AddrScope(addr net.Addr) string {
	var ip net.IP
	switch a := addr.(type) {
	case *net.TCPAddr:
		if a == nil {
			return ScopeUnknown
		}
		ip = a.IP
	default:
		if addr == nil {
			return ScopeUnknown
		}
		host, _, err := net.SplitHostPort(addr.String())
		if err != nil {
			return ScopeUnknown
		}
		ip = net.ParseIP(host)
	}
	if ip == nil {
		return ScopeUnknown
	}
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}

	ok, err := privateRanger.Contains(ip)
	if err != nil {
		return ScopeUnknown
	}
	if ok {
		return ScopePrivate
	}
	return ScopePublic
}
