package netutil

import (
	"net"
	"strings"

	"github.com/Swind/go-dispatcher/core"
)

// DefaultInterfacePrefix selects wired adapters in the LocalIPAddress fallback.
const DefaultInterfacePrefix = "eth"

// Interface is a named network interface with its assigned addresses.
type Interface struct {
	Name  string
	Addrs []net.IP
}

// HostNetwork is the host's view of its network adapters.
type HostNetwork interface {
	// WirelessIPv4 returns the address assigned to the primary wireless
	// adapter as a low-byte-first integer, or 0 when it has none.
	WirelessIPv4() uint32

	// Interfaces lists every interface with its addresses.
	Interfaces() ([]Interface, error)
}

// SystemNetwork reads interfaces through the net package. The host has no
// portable wireless query, so Wireless is optional; without it the wireless
// address is reported as 0.
type SystemNetwork struct {
	Wireless func() uint32
}

var _ HostNetwork = SystemNetwork{}

func (n SystemNetwork) WirelessIPv4() uint32 {
	if n.Wireless == nil {
		return 0
	}
	return n.Wireless()
}

func (n SystemNetwork) Interfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	out := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			return nil, err
		}
		entry := Interface{Name: iface.Name}
		for _, addr := range addrs {
			switch v := addr.(type) {
			case *net.IPNet:
				entry.Addrs = append(entry.Addrs, v.IP)
			case *net.IPAddr:
				entry.Addrs = append(entry.Addrs, v.IP)
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// Option tunes LocalIPAddress.
type Option func(*lookupOptions)

type lookupOptions struct {
	prefix string
	logger core.Logger
}

// WithInterfacePrefix replaces DefaultInterfacePrefix.
func WithInterfacePrefix(prefix string) Option {
	return func(o *lookupOptions) { o.prefix = prefix }
}

// WithLogger reports enumeration failures to logger.
func WithLogger(logger core.Logger) Option {
	return func(o *lookupOptions) { o.logger = logger }
}

// LocalIPAddress returns the wireless adapter's address when it is non-zero.
// Otherwise it scans interfaces whose name has the configured prefix and
// returns the first non-loopback IPv4 address. It returns nil when neither
// source yields an address, including when enumeration fails.
func LocalIPAddress(host HostNetwork, opts ...Option) net.IP {
	o := lookupOptions{prefix: DefaultInterfacePrefix}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = core.NewNoOpLogger()
	}

	if ip := host.WirelessIPv4(); ip != 0 {
		b := IPBytesFromInt(ip)
		return net.IPv4(b[0], b[1], b[2], b[3]).To4()
	}

	ifaces, err := host.Interfaces()
	if err != nil {
		o.logger.Warn("interface enumeration failed", core.F("error", err))
		return nil
	}

	for _, iface := range ifaces {
		if !strings.HasPrefix(iface.Name, o.prefix) {
			continue
		}
		for _, addr := range iface.Addrs {
			if addr.IsLoopback() {
				continue
			}
			if v4 := addr.To4(); v4 != nil {
				return v4
			}
		}
	}
	return nil
}
