package dispatcher

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Swind/go-dispatcher/netutil"
)

type fakeHost struct {
	wireless uint32
	ifaces   []netutil.Interface
	err      error
}

func (h fakeHost) WirelessIPv4() uint32                     { return h.wireless }
func (h fakeHost) Interfaces() ([]netutil.Interface, error) { return h.ifaces, h.err }

func TestDispatcher_LocalIPAddress_UsesConfiguredPrefix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InterfacePrefix = "en"
	d := newTestDispatcher(t, WithConfig(cfg))

	host := fakeHost{ifaces: []netutil.Interface{
		{Name: "eth0", Addrs: []net.IP{net.ParseIP("10.0.0.1")}},
		{Name: "en0", Addrs: []net.IP{net.ParseIP("192.168.1.20")}},
	}}

	assert.Equal(t, "192.168.1.20", d.LocalIPAddress(host).String())
}
