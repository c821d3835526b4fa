package dispatcher

import (
	"net"

	"github.com/Swind/go-dispatcher/netutil"
)

// LocalIPAddress looks up the local address of host using the configured
// interface prefix, logging enumeration failures through d's logger.
func (d *Dispatcher) LocalIPAddress(host netutil.HostNetwork) net.IP {
	return netutil.LocalIPAddress(host,
		netutil.WithInterfacePrefix(d.cfg.InterfacePrefix),
		netutil.WithLogger(d.hooks.Logger),
	)
}
